package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Record statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// GenerationRecord is one row of generation_history: the request parameters
// and outcome of a single invocation.
type GenerationRecord struct {
	ID             int64     `json:"id"`              // Auto-incremented primary key
	CorrelationID  string    `json:"correlation_id"`  // Ties log lines, metrics, and history together
	ConversationID string    `json:"conversation_id"` // Chat conversation that issued the command
	Prompt         string    `json:"prompt"`          // Positive prompt sent to the backend
	NegativePrompt string    `json:"negative_prompt"` // Negative prompt sent to the backend
	Seed           int64     `json:"seed"`            // Seed used, reported to the user for reruns
	Width          int       `json:"width"`           // Requested output width
	Height         int       `json:"height"`          // Requested output height
	Steps          int       `json:"steps"`           // Diffusion step count
	Status         string    `json:"status"`          // StatusSuccess or StatusError
	ErrorKind      string    `json:"error_kind"`      // Classified error kind when Status is error
	DurationMS     int64     `json:"duration_ms"`     // Backend call duration in milliseconds
	CreatedAt      time.Time `json:"created_at"`      // Insertion timestamp
}

// Repository provides history reads and writes over one connection.
type Repository struct {
	conn *sql.DB
}

// NewRepository creates a Repository.
func NewRepository(conn *sql.DB) *Repository {
	return &Repository{conn: conn}
}

// InsertGeneration appends one record and returns its id.
func (r *Repository) InsertGeneration(ctx context.Context, rec GenerationRecord) (int64, error) {
	res, err := r.conn.ExecContext(ctx, `
		INSERT INTO generation_history
			(correlation_id, conversation_id, prompt, negative_prompt,
			 seed, width, height, steps, status, error_kind, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CorrelationID, rec.ConversationID, rec.Prompt, rec.NegativePrompt,
		rec.Seed, rec.Width, rec.Height, rec.Steps, rec.Status, rec.ErrorKind,
		rec.DurationMS,
	)
	if err != nil {
		return 0, fmt.Errorf("db: failed to insert generation record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("db: failed to read inserted id: %w", err)
	}
	return id, nil
}

// RecentGenerations returns the newest records, newest first.
// limit <= 0 defaults to 20; the ceiling is 200.
func (r *Repository) RecentGenerations(ctx context.Context, limit int) ([]GenerationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, correlation_id, conversation_id, prompt, negative_prompt,
		       seed, width, height, steps, status, error_kind, duration_ms,
		       created_at
		FROM generation_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("db: failed to query history: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		var rec GenerationRecord
		if err := rows.Scan(
			&rec.ID, &rec.CorrelationID, &rec.ConversationID, &rec.Prompt,
			&rec.NegativePrompt, &rec.Seed, &rec.Width, &rec.Height,
			&rec.Steps, &rec.Status, &rec.ErrorKind, &rec.DurationMS,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("db: failed to scan history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: history iteration failed: %w", err)
	}
	return records, nil
}

// PruneOlderThan deletes records older than the cutoff and returns the
// number removed. Used by the retention sweep at startup.
func (r *Repository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.conn.ExecContext(ctx,
		`DELETE FROM generation_history WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("db: failed to prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db: failed to read pruned count: %w", err)
	}
	return n, nil
}
