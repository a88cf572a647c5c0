package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteRepository implements Repository using SQLite.
//
// Values are stored as JSON in the attribute_history table so strings,
// numbers and booleans all round-trip without a type column.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite attribute history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordAttribute inserts one attribute value row.
func (r *SQLiteRepository) RecordAttribute(ctx context.Context, duid, attribute string, value any, source string) error {
	if duid == "" {
		return fmt.Errorf("duid is required")
	}
	if attribute == "" {
		return fmt.Errorf("attribute is required")
	}
	if source == "" {
		source = SourcePoll
	}

	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling value: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO attribute_history (duid, attribute, value, source) VALUES (?, ?, ?, ?)",
		duid,
		attribute,
		string(valueJSON),
		source,
	)
	if err != nil {
		return fmt.Errorf("inserting attribute history: %w", err)
	}

	return nil
}

// GetHistory returns recent entries for a device, ordered newest first.
//
// Parameters:
//   - attribute: filter to one protocol key, or "" for all
//   - limit: maximum entries to return (default 50, max 200)
func (r *SQLiteRepository) GetHistory(ctx context.Context, duid, attribute string, limit int) ([]Entry, error) {
	if duid == "" {
		return nil, fmt.Errorf("duid is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	query := `SELECT id, duid, attribute, value, source, created_at
		 FROM attribute_history
		 WHERE duid = ?`
	args := []any{duid}
	if attribute != "" {
		query += " AND attribute = ?"
		args = append(args, attribute)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying attribute history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var valueJSON string
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.DUID, &entry.Attribute, &valueJSON, &entry.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning attribute history: %w", err)
		}

		if err := json.Unmarshal([]byte(valueJSON), &entry.Value); err != nil {
			return nil, fmt.Errorf("unmarshalling value: %w", err)
		}

		timestamp, err := parseTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attribute history: %w", err)
	}

	return entries, nil
}

// Prune deletes history entries older than the given duration.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM attribute_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting attribute history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseTimestamp parses a timestamp stored in SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02T15:04:05Z", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
}
