package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// NewStore creates a Firestore store.
// Uses the project passed (LYNKIA_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

// technicians/{phone}/interventions/{reference}
func (s *Store) interventionsCol(phone string) *firestore.CollectionRef {
	return s.client.Collection("technicians").Doc(phone).Collection("interventions")
}

func (s *Store) interventionDoc(phone, reference string) *firestore.DocumentRef {
	return s.interventionsCol(phone).Doc(reference)
}

// storeErr wraps a Firestore error, mapping transport failures to
// domain.ErrUnavailable and missing documents to domain.ErrNotFound.
func storeErr(op string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return domain.ErrNotFound
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("firestore %s: %w: %w", op, domain.ErrUnavailable, err)
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDeleted) || errors.Is(err, domain.ErrAlreadyExists) {
		return err
	}
	return fmt.Errorf("firestore %s: %w", op, err)
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type commentDoc struct {
	Text      string    `firestore:"text"`
	CreatedAt time.Time `firestore:"created_at"`
}

type imageDoc struct {
	Key        string    `firestore:"key"`
	UploadedAt time.Time `firestore:"uploaded_at"`
}

type interventionDoc struct {
	Phone     string       `firestore:"technician_phone"`
	Reference string       `firestore:"reference"`
	Type      string       `firestore:"type"`
	Date      string       `firestore:"date"`
	Status    string       `firestore:"status"`
	Comments  []commentDoc `firestore:"comments"`
	Images    []imageDoc   `firestore:"images"`
	CreatedAt time.Time    `firestore:"created_at"`
	UpdatedAt time.Time    `firestore:"updated_at"`
}

func newInterventionDoc(phone string, item domain.InterventionItem, date string, now time.Time) interventionDoc {
	return interventionDoc{
		Phone:     phone,
		Reference: item.Reference,
		Type:      item.Type,
		Date:      date,
		Status:    string(domain.StatusActive),
		Comments:  []commentDoc{},
		Images:    []imageDoc{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d interventionDoc) toDomain() *domain.Intervention {
	rec := &domain.Intervention{
		Phone:     d.Phone,
		Reference: d.Reference,
		Type:      d.Type,
		Date:      d.Date,
		Status:    domain.Status(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, c := range d.Comments {
		rec.Comments = append(rec.Comments, domain.Comment{Text: c.Text, CreatedAt: c.CreatedAt})
	}
	for _, img := range d.Images {
		rec.Images = append(rec.Images, domain.ImageRef{Key: img.Key, UploadedAt: img.UploadedAt})
	}
	return rec
}

func decode(snap *firestore.DocumentSnapshot) (*domain.Intervention, error) {
	var doc interventionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode interventionDoc: %w", err)
	}
	return doc.toDomain(), nil
}

// ─────────────────────────────────────────
// StorageGateway implementation
// ─────────────────────────────────────────

// Create inserts the record in a transaction, refusing an active one with
// the same reference. A soft-deleted record is overwritten.
func (s *Store) Create(ctx context.Context, phone string, item domain.InterventionItem, date string) (*domain.Intervention, error) {
	ref := s.interventionDoc(phone, item.Reference)
	doc := newInterventionDoc(phone, item, date, s.now().UTC())

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			var existing interventionDoc
			if err := snap.DataTo(&existing); err != nil {
				return err
			}
			if existing.Status == string(domain.StatusActive) {
				return domain.ErrAlreadyExists
			}
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		return nil, storeErr("Create", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) CreateMany(
	ctx context.Context,
	phone string,
	items []domain.InterventionItem,
	date string,
) ([]domain.InterventionItem, []domain.BulkItemError, error) {
	var (
		created []domain.InterventionItem
		errs    []domain.BulkItemError
	)
	for _, item := range items {
		if _, err := s.Create(ctx, phone, item, date); err != nil {
			if ctx.Err() != nil {
				return created, errs, ctx.Err()
			}
			errs = append(errs, domain.BulkItemError{Reference: item.Reference, Error: err.Error()})
			continue
		}
		created = append(created, item)
	}
	return created, errs, nil
}

func (s *Store) Get(ctx context.Context, phone, reference string) (*domain.Intervention, error) {
	snap, err := s.interventionDoc(phone, reference).Get(ctx)
	if err != nil {
		return nil, storeErr("Get", err)
	}
	rec, err := decode(snap)
	if err != nil {
		return nil, err
	}
	if !rec.Active() {
		return nil, domain.ErrDeleted
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context, phone string, q domain.ListQuery) ([]*domain.Intervention, error) {
	query := s.interventionsCol(phone).Where("status", "==", string(domain.StatusActive))
	switch {
	case q.Exact != "":
		query = query.Where("date", "==", q.Exact)
	case q.Since != "":
		query = query.Where("date", ">=", q.Since)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Intervention
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, storeErr("List", err)
		}

		rec, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// mutateActive runs updates against a record that must exist and be active.
func (s *Store) mutateActive(ctx context.Context, op, phone, reference string, updates []firestore.Update) error {
	ref := s.interventionDoc(phone, reference)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		st, err := snap.DataAt("status")
		if err != nil {
			return err
		}
		if st != string(domain.StatusActive) {
			return domain.ErrDeleted
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		return storeErr(op, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, phone, reference string, fields domain.UpdateFields) error {
	updates := []firestore.Update{{Path: "updated_at", Value: s.now().UTC()}}
	if fields.Type != nil {
		updates = append(updates, firestore.Update{Path: "type", Value: *fields.Type})
	}
	if fields.Date != nil {
		updates = append(updates, firestore.Update{Path: "date", Value: *fields.Date})
	}
	return s.mutateActive(ctx, "Update", phone, reference, updates)
}

func (s *Store) SoftDelete(ctx context.Context, phone, reference string) error {
	_, err := s.interventionDoc(phone, reference).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(domain.StatusDeleted)},
		{Path: "updated_at", Value: s.now().UTC()},
	})
	if err != nil {
		return storeErr("SoftDelete", err)
	}
	return nil
}

func (s *Store) AppendComment(ctx context.Context, phone, reference, text string) error {
	now := s.now().UTC()
	return s.mutateActive(ctx, "AppendComment", phone, reference, []firestore.Update{
		{Path: "comments", Value: firestore.ArrayUnion(commentDoc{Text: text, CreatedAt: now})},
		{Path: "updated_at", Value: now},
	})
}

func (s *Store) AppendImageRef(ctx context.Context, phone, reference, key string) error {
	now := s.now().UTC()
	return s.mutateActive(ctx, "AppendImageRef", phone, reference, []firestore.Update{
		{Path: "images", Value: firestore.ArrayUnion(imageDoc{Key: key, UploadedAt: now})},
		{Path: "updated_at", Value: now},
	})
}

func (s *Store) ListImageRefs(ctx context.Context, phone, reference string) ([]domain.ImageRef, error) {
	snap, err := s.interventionDoc(phone, reference).Get(ctx)
	if err != nil {
		return nil, storeErr("ListImageRefs", err)
	}
	rec, err := decode(snap)
	if err != nil {
		return nil, err
	}
	return rec.Images, nil
}
