package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
)

const eventColumns = `id, sequence, kind, subject, clip_id, channel, engine_time, volume, detail, run_id, created_at, updated_at, deleted_at`

// EventRepository implements models.Repository[*models.EventRecord] for the event journal.
//
// Events are append-mostly: Update only rewrites the detail text, and Delete is a soft delete.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new EventRepository with the given database connection
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new [models.EventRecord] into the database with generated ID and sequence
func (r *EventRepository) Create(event *models.EventRecord) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "events")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	event.SetID(id)
	event.SetSequence(sequence)

	query := `
		INSERT INTO events (id, sequence, kind, subject, clip_id, channel, engine_time, volume, detail, run_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		event.Kind,
		event.Subject,
		event.ClipID,
		event.Channel,
		event.EngineTime,
		event.Volume,
		event.Detail,
		event.RunID,
		event.CreatedAt(),
		event.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// Get retrieves an event by ID, excluding soft-deleted events
func (r *EventRepository) Get(id string) (*models.EventRecord, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// Update rewrites the detail text of an existing event
func (r *EventRepository) Update(event *models.EventRecord) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	event.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE events
		SET detail = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, event.Detail, now, event.ID())
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	return expectRow(result, event.ID())
}

// Delete soft-deletes an event by ID
func (r *EventRepository) Delete(id string) error {
	result, err := r.db.Exec(`
		UPDATE events
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return expectRow(result, id)
}

// List retrieves events matching the given criteria in sequence order.
//
// Supported criteria: "kind", "subject", "run_id" (string) and "limit" (int).
func (r *EventRepository) List(criteria map[string]any) ([]*models.EventRecord, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE deleted_at IS NULL`
	args := []any{}

	for _, key := range []string{"kind", "subject", "run_id"} {
		if v, ok := criteria[key].(string); ok && v != "" {
			query += " AND " + key + " = ?"
			args = append(args, v)
		}
	}

	query += " ORDER BY sequence ASC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []*models.EventRecord
	for rows.Next() {
		event, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

// CountByKind returns the number of live events per kind, optionally limited to one run.
func (r *EventRepository) CountByKind(runID string) (map[string]int, error) {
	query := `SELECT kind, COUNT(*) FROM events WHERE deleted_at IS NULL`
	args := []any{}
	if runID != "" {
		query += " AND run_id = ?"
		args = append(args, runID)
	}
	query += " GROUP BY kind"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads one event from a [sql.Row] or [sql.Rows]
func (r *EventRepository) scan(row scanner) (*models.EventRecord, error) {
	var (
		id         string
		sequence   int
		kind       string
		subject    string
		clipID     string
		channel    string
		engineTime float64
		volume     float64
		detail     string
		runID      string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &kind, &subject, &clipID, &channel, &engineTime, &volume, &detail, &runID, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: event", shared.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}
	event := models.RestoreEventRecord(id, sequence, createdAt, updatedAt, deleted)
	event.Kind = kind
	event.Subject = subject
	event.ClipID = clipID
	event.Channel = channel
	event.EngineTime = engineTime
	event.Volume = volume
	event.Detail = detail
	event.RunID = runID
	return event, nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: event %s not found or already deleted", shared.ErrRecordNotFound, id)
	}
	return nil
}
