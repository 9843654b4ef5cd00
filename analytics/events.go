// Package analytics records which records the public reads and answers
// aggregate questions about them. Writes are fire-and-forget: a failed
// append never propagates to the reader's request.
package analytics

import (
	"context"
	"time"
)

// ReadEvent is one "record X was read" observation.
type ReadEvent struct {
	Kind       string    `json:"kind"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurredAt"`
}

// KindTotal is the lifetime read count for one entity kind.
type KindTotal struct {
	Kind  string `json:"kind"`
	Reads int64  `json:"reads"`
}

// TopRecord is one leaderboard row: a record with its read count and the
// time it was last read.
type TopRecord struct {
	Kind     string    `json:"kind"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	Reads    int64     `json:"reads"`
	LastRead time.Time `json:"lastRead"`
}

// Bounds for the recent-events feed.
const (
	MinFeedLimit     = 10
	MaxFeedLimit     = 200
	DefaultFeedLimit = 50
)

// ClampFeedLimit normalizes a caller-supplied feed size. Zero or negative
// means "use the default"; anything else is clamped into [MinFeedLimit,
// MaxFeedLimit].
func ClampFeedLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	if limit < MinFeedLimit {
		return MinFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

type EventRepository interface {
	Append(ctx context.Context, ev *ReadEvent) error
	TotalsByKind(ctx context.Context) ([]KindTotal, error)

	// TopRecords returns up to limit leaderboard rows, most recently
	// read first, ties broken by read count descending.
	TopRecords(ctx context.Context, limit int) ([]TopRecord, error)

	// RecentEvents returns the newest events, bounded by a clamped limit.
	RecentEvents(ctx context.Context, limit int) ([]ReadEvent, error)

	// Prune deletes events older than the cutoff and reports how many
	// were removed.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}
