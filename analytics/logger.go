package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ReadLogger appends read events without blocking or failing the caller.
// Append errors are logged and dropped.
type ReadLogger struct {
	repo EventRepository
	now  func() time.Time

	// Logger lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReadLogger(repo EventRepository) *ReadLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &ReadLogger{
		repo:   repo,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// LogRead records that a record was read. It returns immediately; the
// append runs in the background against the logger's lifecycle context.
func (l *ReadLogger) LogRead(kind, slug, title string) {
	ev := &ReadEvent{
		Kind:       kind,
		Slug:       slug,
		Title:      title,
		OccurredAt: l.now().UTC(),
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.repo.Append(l.ctx, ev); err != nil {
			log.Warn().Err(err).Str("kind", kind).Str("slug", slug).Msg("Failed to record read event")
		}
	}()
}

// Close waits for in-flight appends and releases the lifecycle context.
func (l *ReadLogger) Close() error {
	l.wg.Wait()
	l.cancel()
	return nil
}
