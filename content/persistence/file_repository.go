package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chatri/govportal/content/domain"
)

var _ domain.RecordRepository = (*FileRecordRepository)(nil)

// FileRecordRepository stores one collection as a single JSON array file.
// Every read parses the whole document and every mutation rewrites it, so
// the durability guarantee is exactly that of one os.WriteFile call.
// Callers must serialize mutations themselves; with a single admin session
// that holds operationally. There is no record-level merging: two
// concurrent writers race on the whole file and the last write wins.
type FileRecordRepository struct {
	path string
	now  func() time.Time
}

// NewFileRecordRepository creates a repository backed by <dataDir>/<kind>.json.
// A missing file reads as an empty collection.
func NewFileRecordRepository(dataDir string, kind string) *FileRecordRepository {
	return &FileRecordRepository{
		path: filepath.Join(dataDir, kind+".json"),
		now:  time.Now,
	}
}

// recordDoc is the tolerant serialized form of a record. Legacy documents
// may hold malformed dates, a non-boolean published value, or missing
// fields; decoding never fails on those, they self-heal on read.
type recordDoc struct {
	Slug         string          `json:"slug"`
	Title        string          `json:"title"`
	Summary      string          `json:"summary"`
	Content      string          `json:"content"`
	Date         string          `json:"date"`
	Published    json.RawMessage `json:"published,omitempty"`
	DisplayFrom  *string         `json:"displayFrom"`
	DisplayUntil *string         `json:"displayUntil"`
	ImageURL     *string         `json:"imageUrl"`
}

// toDomain normalizes a stored document into a valid record. A date that
// fails to parse falls back to the current time, window bounds degrade to
// nil, and published is true unless the stored value is exactly false.
func (d *recordDoc) toDomain(now time.Time) *domain.Record {
	r := &domain.Record{
		Slug:    d.Slug,
		Title:   d.Title,
		Summary: d.Summary,
		Content: d.Content,
	}

	if parsed := domain.NormalizeDate(d.Date); parsed != nil {
		r.Date = *parsed
	} else {
		r.Date = now.UTC()
	}

	// Anything other than a literal false counts as published, including
	// an absent field. The asymmetry is inherited from stored data and
	// kept on purpose.
	r.Published = string(d.Published) != "false"

	if d.DisplayFrom != nil {
		r.DisplayFrom = domain.NormalizeDate(*d.DisplayFrom)
	}
	if d.DisplayUntil != nil {
		r.DisplayUntil = domain.NormalizeDate(*d.DisplayUntil)
	}

	if d.ImageURL != nil && strings.TrimSpace(*d.ImageURL) != "" {
		url := *d.ImageURL
		r.ImageURL = &url
	}

	return r
}

func toDoc(r *domain.Record) *recordDoc {
	published := json.RawMessage("true")
	if !r.Published {
		published = json.RawMessage("false")
	}

	return &recordDoc{
		Slug:         r.Slug,
		Title:        r.Title,
		Summary:      r.Summary,
		Content:      r.Content,
		Date:         domain.FormatDate(r.Date),
		Published:    published,
		DisplayFrom:  domain.FormatOptionalDate(r.DisplayFrom),
		DisplayUntil: domain.FormatOptionalDate(r.DisplayUntil),
		ImageURL:     r.ImageURL,
	}
}

// sortRecords applies the output ordering invariant: date descending,
// ties broken by slug ascending.
func sortRecords(records []*domain.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date.Equal(records[j].Date) {
			return records[i].Slug < records[j].Slug
		}
		return records[i].Date.After(records[j].Date)
	})
}

func (r *FileRecordRepository) readAll() ([]*domain.Record, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Record{}, nil
		}
		return nil, &domain.StorageError{Op: "read", Err: err}
	}

	var docs []*recordDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, &domain.StorageError{Op: "parse", Err: fmt.Errorf("%s: %w", r.path, err)}
	}

	now := r.now()
	records := make([]*domain.Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.toDomain(now))
	}

	sortRecords(records)
	return records, nil
}

func (r *FileRecordRepository) writeAll(records []*domain.Record) error {
	sortRecords(records)

	docs := make([]*recordDoc, 0, len(records))
	for _, rec := range records {
		docs = append(docs, toDoc(rec))
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return &domain.StorageError{Op: "encode", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return &domain.StorageError{Op: "write", Err: err}
	}

	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return &domain.StorageError{Op: "write", Err: err}
	}

	return nil
}

func (r *FileRecordRepository) ListAll(ctx context.Context) ([]*domain.Record, error) {
	return r.readAll()
}

func (r *FileRecordRepository) FindBySlug(ctx context.Context, slug string) (*domain.Record, error) {
	records, err := r.readAll()
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.Slug == slug {
			return rec, nil
		}
	}

	return nil, nil
}

func (r *FileRecordRepository) Insert(ctx context.Context, record *domain.Record) error {
	records, err := r.readAll()
	if err != nil {
		return err
	}

	records = append(records, record)
	return r.writeAll(records)
}

func (r *FileRecordRepository) Replace(ctx context.Context, slug string, newRecord *domain.Record) error {
	records, err := r.readAll()
	if err != nil {
		return err
	}

	for i, rec := range records {
		if rec.Slug == slug {
			records[i] = newRecord
			return r.writeAll(records)
		}
	}

	return domain.ErrNotFound
}

func (r *FileRecordRepository) RemoveBySlug(ctx context.Context, slug string) error {
	records, err := r.readAll()
	if err != nil {
		return err
	}

	for i, rec := range records {
		if rec.Slug == slug {
			records = append(records[:i], records[i+1:]...)
			return r.writeAll(records)
		}
	}

	return domain.ErrNotFound
}
