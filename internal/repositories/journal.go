package repositories

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/models"
)

// JournalSink implements events.Sink by persisting every event through an EventRepository.
//
// Write failures are logged and counted but never reach the engine, so a broken database
// cannot interrupt playback.
type JournalSink struct {
	repo    *EventRepository
	runID   string
	logger  *log.Logger
	written int
	failed  int
}

// NewJournalSink creates a sink tagging every record with runID. A nil logger silences failures.
func NewJournalSink(repo *EventRepository, runID string, logger *log.Logger) *JournalSink {
	return &JournalSink{repo: repo, runID: runID, logger: logger}
}

func (j *JournalSink) Emit(e events.Event) {
	record := models.NewEventRecord(e.Kind.String(), e.Subject)
	record.ClipID = e.ClipID
	record.Channel = e.Channel.String()
	record.EngineTime = e.Time
	record.Volume = e.Volume
	record.Detail = e.Detail
	record.RunID = j.runID

	if err := j.repo.Create(record); err != nil {
		j.failed++
		if j.logger != nil {
			j.logger.Warn("failed to journal event", "kind", record.Kind, "err", err)
		}
		return
	}
	j.written++
}

func (j *JournalSink) RunID() string { return j.runID }

// Written is the number of events persisted.
func (j *JournalSink) Written() int { return j.written }

// Failed is the number of events that could not be persisted.
func (j *JournalSink) Failed() int { return j.failed }
