package memory

import (
	"context"
	"sync"
	"time"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

type interventionKey struct {
	phone     string
	reference string
}

// InterventionStore is a simple in-memory implementation of domain.StorageGateway.
// It is NOT persistent and is only suitable for development / local mode.
type InterventionStore struct {
	mu      sync.RWMutex
	records map[interventionKey]*domain.Intervention
	byPhone map[string][]string // references in insertion order
	now     func() time.Time
}

// NewInterventionStore creates a new in-memory store.
func NewInterventionStore() *InterventionStore {
	return &InterventionStore{
		records: make(map[interventionKey]*domain.Intervention),
		byPhone: make(map[string][]string),
		now:     time.Now,
	}
}

// WithClock overrides the timestamp source (tests).
func (s *InterventionStore) WithClock(now func() time.Time) *InterventionStore {
	s.now = now
	return s
}

// insertLocked writes item unless an active record already holds the
// reference. Callers hold s.mu.
func (s *InterventionStore) insertLocked(phone string, item domain.InterventionItem, date string) (*domain.Intervention, error) {
	key := interventionKey{phone, item.Reference}
	existing, ok := s.records[key]
	if ok && existing.Active() {
		return nil, domain.ErrAlreadyExists
	}
	if !ok {
		s.byPhone[phone] = append(s.byPhone[phone], item.Reference)
	}

	now := s.now().UTC()
	rec := &domain.Intervention{
		Phone:     phone,
		Reference: item.Reference,
		Type:      item.Type,
		Date:      date,
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.records[key] = rec
	return clone(rec), nil
}

func (s *InterventionStore) Create(_ context.Context, phone string, item domain.InterventionItem, date string) (*domain.Intervention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(phone, item, date)
}

func (s *InterventionStore) CreateMany(
	_ context.Context,
	phone string,
	items []domain.InterventionItem,
	date string,
) ([]domain.InterventionItem, []domain.BulkItemError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		created []domain.InterventionItem
		errs    []domain.BulkItemError
	)
	for _, item := range items {
		if _, err := s.insertLocked(phone, item, date); err != nil {
			errs = append(errs, domain.BulkItemError{Reference: item.Reference, Error: err.Error()})
			continue
		}
		created = append(created, item)
	}
	return created, errs, nil
}

// activeLocked returns the live record or the lookup error.
func (s *InterventionStore) activeLocked(phone, reference string) (*domain.Intervention, error) {
	rec, ok := s.records[interventionKey{phone, reference}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !rec.Active() {
		return nil, domain.ErrDeleted
	}
	return rec, nil
}

func (s *InterventionStore) Get(_ context.Context, phone, reference string) (*domain.Intervention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.activeLocked(phone, reference)
	if err != nil {
		return nil, err
	}
	return clone(rec), nil
}

func (s *InterventionStore) List(_ context.Context, phone string, q domain.ListQuery) ([]*domain.Intervention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Intervention
	for _, ref := range s.byPhone[phone] {
		rec := s.records[interventionKey{phone, ref}]
		if rec.Active() && q.Match(rec.Date) {
			out = append(out, clone(rec))
		}
	}
	return out, nil
}

func (s *InterventionStore) Update(_ context.Context, phone, reference string, fields domain.UpdateFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.activeLocked(phone, reference)
	if err != nil {
		return err
	}
	if fields.Type != nil {
		rec.Type = *fields.Type
	}
	if fields.Date != nil {
		rec.Date = *fields.Date
	}
	rec.UpdatedAt = s.now().UTC()
	return nil
}

func (s *InterventionStore) SoftDelete(_ context.Context, phone, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[interventionKey{phone, reference}]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = domain.StatusDeleted
	rec.UpdatedAt = s.now().UTC()
	return nil
}

func (s *InterventionStore) AppendComment(_ context.Context, phone, reference, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.activeLocked(phone, reference)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	rec.Comments = append(rec.Comments, domain.Comment{Text: text, CreatedAt: now})
	rec.UpdatedAt = now
	return nil
}

func (s *InterventionStore) AppendImageRef(_ context.Context, phone, reference, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.activeLocked(phone, reference)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	rec.Images = append(rec.Images, domain.ImageRef{Key: key, UploadedAt: now})
	rec.UpdatedAt = now
	return nil
}

func (s *InterventionStore) ListImageRefs(_ context.Context, phone, reference string) ([]domain.ImageRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[interventionKey{phone, reference}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]domain.ImageRef(nil), rec.Images...), nil
}

// clone detaches a record from the store so callers cannot mutate it.
func clone(rec *domain.Intervention) *domain.Intervention {
	c := *rec
	c.Comments = append([]domain.Comment(nil), rec.Comments...)
	c.Images = append([]domain.ImageRef(nil), rec.Images...)
	return &c
}
