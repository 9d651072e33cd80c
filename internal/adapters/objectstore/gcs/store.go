package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

// Signer overrides the credentials used for V4 signed URLs. Zero value
// lets the client detect them (service account key or IAM signBlob).
type Signer struct {
	GoogleAccessID string
	SignBytes      func([]byte) ([]byte, error)
}

// Store is a domain.ObjectStore backed by one Cloud Storage bucket.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	signer Signer
	now    func() time.Time
}

func NewStore(ctx context.Context, bucket string, signer Signer, opts ...option.ClientOption) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required for GCS store")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &Store{
		client: client,
		bucket: client.Bucket(bucket),
		signer: signer,
		now:    time.Now,
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Upload(ctx context.Context, data []byte, key, contentType string) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return gcsErr("upload", key, err)
	}
	if err := w.Close(); err != nil {
		return gcsErr("upload", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return gcsErr("delete", key, err)
	}
	return nil
}

// Presign returns a V4 signed GET URL valid for ttl.
func (s *Store) Presign(_ context.Context, key string, ttl time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         http.MethodGet,
		Expires:        s.now().Add(ttl),
		GoogleAccessID: s.signer.GoogleAccessID,
		SignBytes:      s.signer.SignBytes,
	}
	url, err := s.bucket.SignedURL(key, opts)
	if err != nil {
		return "", gcsErr("presign", key, err)
	}
	return url, nil
}

func gcsErr(op, key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs %s %s: %w", op, key, domain.ErrNotFound)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError) {
		return fmt.Errorf("gcs %s %s: %w: %w", op, key, domain.ErrUnavailable, err)
	}
	return fmt.Errorf("gcs %s %s: %w", op, key, err)
}
