package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Entity kinds stored by the portal. The two collections are structurally
// identical and live in separate backing documents.
const (
	KindNews         = "news"
	KindAnnouncement = "announcement"
)

// Record represents a single news or announcement entry.
// The slug is assigned at creation from the title and never changes.
// DisplayFrom/DisplayUntil bound the public visibility window; nil means
// unbounded on that side.
type Record struct {
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Summary      string     `json:"summary"`
	Content      string     `json:"content"`
	Date         time.Time  `json:"date"`
	Published    bool       `json:"published"`
	DisplayFrom  *time.Time `json:"displayFrom"`
	DisplayUntil *time.Time `json:"displayUntil"`
	ImageURL     *string    `json:"imageUrl"`
}

// Clone returns a deep copy so callers can merge updates without mutating
// the stored record.
func (r *Record) Clone() *Record {
	out := *r
	if r.DisplayFrom != nil {
		t := *r.DisplayFrom
		out.DisplayFrom = &t
	}
	if r.DisplayUntil != nil {
		t := *r.DisplayUntil
		out.DisplayUntil = &t
	}
	if r.ImageURL != nil {
		s := *r.ImageURL
		out.ImageURL = &s
	}
	return &out
}

type RecordRepository interface {
	// ListAll returns every record in the collection ordered by date
	// descending, ties broken by slug ascending.
	ListAll(ctx context.Context) ([]*Record, error)

	// FindBySlug returns the record with the given slug, or nil if the
	// collection does not contain it.
	FindBySlug(ctx context.Context, slug string) (*Record, error)

	Insert(ctx context.Context, record *Record) error

	// Replace swaps the record stored under slug for newRecord.
	// Returns ErrNotFound if the slug is absent.
	Replace(ctx context.Context, slug string, newRecord *Record) error

	// RemoveBySlug hard-deletes the record. Returns ErrNotFound if the
	// slug is absent.
	RemoveBySlug(ctx context.Context, slug string) error
}

// ErrNotFound is returned when an operation references a slug that is not
// in the collection.
var ErrNotFound = errors.New("record not found")

// ValidationError reports rejected input: a missing required field, an
// inverted schedule window, or an update that touches nothing.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a failure of the backing document: unreadable,
// unparseable, or unwriteable. The original error is available via Unwrap.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
