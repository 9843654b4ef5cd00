package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chatri/govportal/shared/db"
)

var _ EventRepository = (*SQLiteEventRepository)(nil)

// SQLiteEventRepository implements EventRepository on the portal's sqlite
// database.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewEventRepository(sqlDB *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: sqlDB}
}

const appendEventQuery = `
	INSERT INTO read_events (kind, slug, title, occurred_at)
	VALUES (?, ?, ?, ?)
`

func (r *SQLiteEventRepository) Append(ctx context.Context, ev *ReadEvent) error {
	if ev == nil {
		return fmt.Errorf("event cannot be nil")
	}

	executor := db.GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, appendEventQuery, ev.Kind, ev.Slug, ev.Title, ev.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append read event: %w", err)
	}
	return nil
}

const totalsByKindQuery = `
	SELECT kind, COUNT(*) AS reads
	FROM read_events
	GROUP BY kind
	ORDER BY kind
`

func (r *SQLiteEventRepository) TotalsByKind(ctx context.Context) ([]KindTotal, error) {
	rows, err := r.db.QueryContext(ctx, totalsByKindQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	totals := []KindTotal{}
	for rows.Next() {
		var t KindTotal
		if err := rows.Scan(&t.Kind, &t.Reads); err != nil {
			return nil, fmt.Errorf("failed to scan total row: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// The bare title column rides along with MAX(occurred_at), so each
// leaderboard row carries the title from its most recent event.
const topRecordsQuery = `
	SELECT kind, slug, title, COUNT(*) AS reads, MAX(occurred_at) AS last_read
	FROM read_events
	GROUP BY kind, slug
	ORDER BY last_read DESC, reads DESC
	LIMIT ?
`

func (r *SQLiteEventRepository) TopRecords(ctx context.Context, limit int) ([]TopRecord, error) {
	if limit <= 0 {
		limit = MinFeedLimit
	}

	rows, err := r.db.QueryContext(ctx, topRecordsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	top := []TopRecord{}
	for rows.Next() {
		var (
			row      TopRecord
			lastRead sql.NullString
		)
		if err := rows.Scan(&row.Kind, &row.Slug, &row.Title, &row.Reads, &lastRead); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		if lastRead.Valid {
			row.LastRead = parseStoredTime(lastRead.String)
		}
		top = append(top, row)
	}
	return top, rows.Err()
}

// MAX(occurred_at) loses the column's timestamp affinity and comes back
// as the driver's stored text form, so the aggregate is scanned as a
// string and parsed here. Unparseable values leave the zero time.
var storedTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
}

func parseStoredTime(s string) time.Time {
	for _, layout := range storedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

const recentEventsQuery = `
	SELECT kind, slug, title, occurred_at
	FROM read_events
	ORDER BY occurred_at DESC, id DESC
	LIMIT ?
`

func (r *SQLiteEventRepository) RecentEvents(ctx context.Context, limit int) ([]ReadEvent, error) {
	limit = ClampFeedLimit(limit)

	rows, err := r.db.QueryContext(ctx, recentEventsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	events := []ReadEvent{}
	for rows.Next() {
		var (
			ev         ReadEvent
			occurredAt sql.NullTime
		)
		if err := rows.Scan(&ev.Kind, &ev.Slug, &ev.Title, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		if occurredAt.Valid {
			ev.OccurredAt = occurredAt.Time.UTC()
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

const pruneEventsQuery = `
	DELETE FROM read_events WHERE occurred_at < ?
`

// Prune removes events older than the cutoff inside a transaction so a
// retention pass is all-or-nothing.
func (r *SQLiteEventRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	var removed int64

	err := db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		result, err := executor.ExecContext(txCtx, pruneEventsQuery, olderThan.UTC())
		if err != nil {
			return fmt.Errorf("failed to prune read events: %w", err)
		}

		removed, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count pruned events: %w", err)
		}
		return nil
	})

	return removed, err
}
