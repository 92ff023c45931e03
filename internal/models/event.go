package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/desertthunder/mixdeck/internal/shared"
)

// EventRecord is a persisted engine event, written by the journal.
type EventRecord struct {
	id         string
	sequence   int
	Kind       string
	Subject    string
	ClipID     string
	Channel    string
	EngineTime float64
	Volume     float64
	Detail     string
	RunID      string
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewEventRecord creates a record with timestamps set to now. The ID is assigned on insert.
func NewEventRecord(kind, subject string) *EventRecord {
	now := time.Now()
	return &EventRecord{Kind: kind, Subject: subject, createdAt: now, updatedAt: now}
}

// RestoreEventRecord rebuilds a record from stored columns.
func RestoreEventRecord(id string, sequence int, createdAt, updatedAt time.Time, deletedAt *time.Time) *EventRecord {
	return &EventRecord{id: id, sequence: sequence, createdAt: createdAt, updatedAt: updatedAt, deletedAt: deletedAt}
}

func (e *EventRecord) ID() string            { return e.id }
func (e *EventRecord) Sequence() int         { return e.sequence }
func (e *EventRecord) CreatedAt() time.Time  { return e.createdAt }
func (e *EventRecord) UpdatedAt() time.Time  { return e.updatedAt }
func (e *EventRecord) DeletedAt() *time.Time { return e.deletedAt }
func (e *EventRecord) SetID(id string)       { e.id = id }
func (e *EventRecord) SetSequence(n int)     { e.sequence = n }
func (e *EventRecord) SetUpdatedAt(t time.Time) {
	e.updatedAt = t
}

func (e *EventRecord) Validate() error {
	if strings.TrimSpace(e.Kind) == "" {
		return fmt.Errorf("%w: event kind is required", shared.ErrInvalidInput)
	}
	if math.IsNaN(e.EngineTime) {
		return fmt.Errorf("%w: engine time is NaN", shared.ErrInvalidInput)
	}
	return nil
}
