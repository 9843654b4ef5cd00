package application

import (
	"context"
	"strings"
	"time"

	"github.com/chatri/govportal/content/domain"
)

// CreateRecord carries the fields accepted when creating a record. Date
// and window fields arrive as raw strings and are normalized leniently;
// Published defaults to true when nil.
type CreateRecord struct {
	Title        string
	Summary      string
	Content      string
	Date         string
	Published    *bool
	DisplayFrom  string
	DisplayUntil string
	ImageURL     string
}

// UpdateRecord is a partial update. A nil field is untouched; a non-nil
// field is applied and renormalized. Setting a window field to an empty or
// unparseable string clears it.
type UpdateRecord struct {
	Title        *string
	Summary      *string
	Content      *string
	Date         *string
	Published    *bool
	DisplayFrom  *string
	DisplayUntil *string
	ImageURL     *string
}

func (u *UpdateRecord) empty() bool {
	return u.Title == nil && u.Summary == nil && u.Content == nil &&
		u.Date == nil && u.Published == nil &&
		u.DisplayFrom == nil && u.DisplayUntil == nil && u.ImageURL == nil
}

// Service implements the content operations for one entity kind. It holds
// no record state between calls; the repository is the sole source of
// truth and is re-read on every operation.
type Service struct {
	kind string
	repo domain.RecordRepository
	now  func() time.Time
}

func NewService(kind string, repo domain.RecordRepository) *Service {
	return &Service{
		kind: kind,
		repo: repo,
		now:  time.Now,
	}
}

// Kind returns the entity kind this service manages.
func (s *Service) Kind() string { return s.kind }

// List returns the collection in output order. Without includeHidden,
// unpublished records and records outside their display window are
// filtered out.
func (s *Service) List(ctx context.Context, includeHidden bool) ([]*domain.Record, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	visible := make([]*domain.Record, 0, len(records))
	for _, r := range records {
		if domain.Visible(r, now, includeHidden) {
			visible = append(visible, r)
		}
	}

	return visible, nil
}

// GetBySlug returns the record, or nil when it is absent or hidden from
// the caller. Hidden records read without includeHidden return nil rather
// than an error so their existence does not leak.
func (s *Service) GetBySlug(ctx context.Context, slug string, includeHidden bool) (*domain.Record, error) {
	record, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if record == nil || !domain.Visible(record, s.now(), includeHidden) {
		return nil, nil
	}
	return record, nil
}

func (s *Service) Create(ctx context.Context, req CreateRecord) (*domain.Record, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if strings.TrimSpace(req.Summary) == "" {
		return nil, domain.NewValidationError("summary is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, domain.NewValidationError("content is required")
	}

	existing, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		slugs[r.Slug] = struct{}{}
	}

	record := &domain.Record{
		Slug:         domain.GenerateSlug(req.Title, slugs),
		Title:        req.Title,
		Summary:      req.Summary,
		Content:      req.Content,
		Published:    req.Published == nil || *req.Published,
		DisplayFrom:  domain.NormalizeDate(req.DisplayFrom),
		DisplayUntil: domain.NormalizeDate(req.DisplayUntil),
	}

	if parsed := domain.NormalizeDate(req.Date); parsed != nil {
		record.Date = *parsed
	} else {
		record.Date = s.now().UTC()
	}

	if url := strings.TrimSpace(req.ImageURL); url != "" {
		record.ImageURL = &url
	}

	if err := validateSchedule(record); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// Update applies a partial update to the record stored under slug. Only
// fields present in req change; the schedule ordering invariant is checked
// against the merged result, so changing displayFrom alone must still
// respect the existing displayUntil.
func (s *Service) Update(ctx context.Context, slug string, req UpdateRecord) (*domain.Record, error) {
	existing, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}

	if req.empty() {
		return nil, domain.NewValidationError("nothing to update")
	}

	merged := existing.Clone()

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, domain.NewValidationError("title must not be empty")
		}
		merged.Title = *req.Title
	}
	if req.Summary != nil {
		if strings.TrimSpace(*req.Summary) == "" {
			return nil, domain.NewValidationError("summary must not be empty")
		}
		merged.Summary = *req.Summary
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, domain.NewValidationError("content must not be empty")
		}
		merged.Content = *req.Content
	}
	if req.Date != nil {
		// An unparseable date drops the change, it does not clear the
		// nominal date.
		if parsed := domain.NormalizeDate(*req.Date); parsed != nil {
			merged.Date = *parsed
		}
	}
	if req.Published != nil {
		merged.Published = *req.Published
	}
	if req.DisplayFrom != nil {
		merged.DisplayFrom = domain.NormalizeDate(*req.DisplayFrom)
	}
	if req.DisplayUntil != nil {
		merged.DisplayUntil = domain.NormalizeDate(*req.DisplayUntil)
	}
	if req.ImageURL != nil {
		if url := strings.TrimSpace(*req.ImageURL); url != "" {
			merged.ImageURL = &url
		} else {
			merged.ImageURL = nil
		}
	}

	if err := validateSchedule(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Replace(ctx, slug, merged); err != nil {
		return nil, err
	}

	return merged, nil
}

func (s *Service) Remove(ctx context.Context, slug string) error {
	return s.repo.RemoveBySlug(ctx, slug)
}

func validateSchedule(r *domain.Record) error {
	if r.DisplayFrom != nil && r.DisplayUntil != nil && r.DisplayFrom.After(*r.DisplayUntil) {
		return domain.NewValidationError("displayFrom must not be after displayUntil")
	}
	return nil
}
