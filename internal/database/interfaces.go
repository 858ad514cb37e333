package database

import (
	"context"
	"errors"
	"time"
)

// ErrNotInitialized is returned when the store is used before Initialize
var ErrNotInitialized = errors.New("database not initialized")

// DatabaseManager owns the lifecycle of the underlying database
type DatabaseManager interface {
	Initialize() error
	Close() error
}

// NotifyRecord is one conference-info document sent by a focus
type NotifyRecord struct {
	Conference string
	Version    uint
	Body       []byte
	CreatedAt  time.Time
}

// NotifyStore keeps the partial notifies of each hosted conference so a
// subscriber that missed some of them can be brought up to date.
type NotifyStore interface {
	Append(ctx context.Context, rec NotifyRecord) error
	// Since returns the records of a conference with a version greater
	// than after, in version order.
	Since(ctx context.Context, conference string, after uint) ([]NotifyRecord, error)
	// LastVersion returns the highest stored version, or 0.
	LastVersion(ctx context.Context, conference string) (uint, error)
	// Prune keeps only the newest keep records of a conference.
	Prune(ctx context.Context, conference string, keep int) error
	Conferences(ctx context.Context) ([]string, error)
}
