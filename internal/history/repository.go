package history

import (
	"context"
	"time"
)

// Attribute history source values.
const (
	SourcePoll    = "poll"
	SourceCommand = "command"
	SourceQuery   = "query"
)

// Entry represents a single recorded attribute value.
//
// Each row captures one attribute at one merge, giving a local audit
// trail even when the time-series database is unavailable.
type Entry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DUID is the device identifier.
	DUID string `json:"duid"`

	// Attribute is the protocol key (e.g. "state", "countdown").
	Attribute string `json:"attribute"`

	// Value is the merged scalar value.
	Value any `json:"value"`

	// Source identifies how the value was recorded (poll, command, query).
	Source string `json:"source"`

	// CreatedAt is the timestamp of the merge (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// Repository stores and retrieves attribute history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// RecordAttribute records one merged attribute value.
	RecordAttribute(ctx context.Context, duid, attribute string, value any, source string) error

	// GetHistory returns recent entries for a device, newest first.
	// An empty attribute matches all attributes.
	GetHistory(ctx context.Context, duid, attribute string, limit int) ([]Entry, error)

	// Prune deletes entries older than the given duration and returns
	// the number of rows removed.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
