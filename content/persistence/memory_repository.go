package persistence

import (
	"context"

	"github.com/chatri/govportal/content/domain"
)

var _ domain.RecordRepository = (*MemoryRecordRepository)(nil)

// MemoryRecordRepository keeps a collection in memory. It implements the
// same port as the file-backed store and exists so services can be tested
// without touching disk.
type MemoryRecordRepository struct {
	records []*domain.Record
}

func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{records: []*domain.Record{}}
}

func (r *MemoryRecordRepository) ListAll(ctx context.Context) ([]*domain.Record, error) {
	out := make([]*domain.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	sortRecords(out)
	return out, nil
}

func (r *MemoryRecordRepository) FindBySlug(ctx context.Context, slug string) (*domain.Record, error) {
	for _, rec := range r.records {
		if rec.Slug == slug {
			return rec.Clone(), nil
		}
	}
	return nil, nil
}

func (r *MemoryRecordRepository) Insert(ctx context.Context, record *domain.Record) error {
	r.records = append(r.records, record.Clone())
	return nil
}

func (r *MemoryRecordRepository) Replace(ctx context.Context, slug string, newRecord *domain.Record) error {
	for i, rec := range r.records {
		if rec.Slug == slug {
			r.records[i] = newRecord.Clone()
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *MemoryRecordRepository) RemoveBySlug(ctx context.Context, slug string) error {
	for i, rec := range r.records {
		if rec.Slug == slug {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
