package domain

import (
	"context"
	"time"
)

// StorageGateway defines intervention persistence, scoped by technician phone.
//
// Lookups on a soft-deleted record return ErrDeleted, unknown records
// ErrNotFound. Create is an insert-if-absent: it fails with ErrAlreadyExists
// when an active record with the same reference exists, and replaces a
// soft-deleted one.
type StorageGateway interface {
	Create(ctx context.Context, phone string, item InterventionItem, date string) (*Intervention, error)
	CreateMany(ctx context.Context, phone string, items []InterventionItem, date string) ([]InterventionItem, []BulkItemError, error)
	Get(ctx context.Context, phone, reference string) (*Intervention, error)
	List(ctx context.Context, phone string, q ListQuery) ([]*Intervention, error)
	Update(ctx context.Context, phone, reference string, fields UpdateFields) error
	SoftDelete(ctx context.Context, phone, reference string) error
	AppendComment(ctx context.Context, phone, reference, text string) error
	AppendImageRef(ctx context.Context, phone, reference, key string) error
	ListImageRefs(ctx context.Context, phone, reference string) ([]ImageRef, error)
}

// ObjectStore keeps image bytes.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, key, contentType string) error
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Delete removes an object; a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// MediaFetcher downloads an attachment announced by the messaging provider.
type MediaFetcher interface {
	FetchMedia(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// LanguageModelClassifier resolves messages the rule cascade could not.
// It returns the raw completion, which callers must treat as untrusted.
type LanguageModelClassifier interface {
	Classify(ctx context.Context, systemGrammar, phone, text string) (string, error)
}

// MessagingGateway delivers formatted replies back to the technician.
type MessagingGateway interface {
	Deliver(ctx context.Context, recipient, text string) error
}
