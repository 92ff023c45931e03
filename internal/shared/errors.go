package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Catalog errors
	ErrNotFound  = fmt.Errorf("not found")
	ErrDuplicate = fmt.Errorf("already registered")
	ErrCapacity  = fmt.Errorf("capacity reached")

	// Playback errors
	ErrDisabled           = fmt.Errorf("audio disabled")
	ErrInvalidTransition  = fmt.Errorf("invalid state transition")
	ErrNothingPlaying     = fmt.Errorf("nothing playing")
	ErrUnsupportedChannel = fmt.Errorf("unsupported channel")

	// Persistence errors
	ErrRecordNotFound = fmt.Errorf("record not found")
	ErrJournalSchema  = fmt.Errorf("journal schema error")
)
