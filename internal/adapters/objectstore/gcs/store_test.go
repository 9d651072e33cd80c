package gcs_test

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/PabloGalante/lynkia-agent/internal/adapters/objectstore/gcs"
)

func TestPresignBuildsV4URL(t *testing.T) {
	ctx := context.Background()
	var signed []byte
	s, err := gcs.NewStore(ctx, "lynkia-images", gcs.Signer{
		GoogleAccessID: "lynkia@project.iam.gserviceaccount.com",
		SignBytes: func(b []byte) ([]byte, error) {
			signed = b
			return []byte("signature"), nil
		},
	}, option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	raw, err := s.Presign(ctx, "33600000000/149041830/20260102_093000_01234567.jpg", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u.Path, "/lynkia-images/33600000000/149041830/20260102_093000_01234567.jpg"), u.Path)
	q := u.Query()
	assert.Equal(t, "GOOG4-RSA-SHA256", q.Get("X-Goog-Algorithm"))
	assert.Contains(t, []string{"3599", "3600"}, q.Get("X-Goog-Expires"))
	assert.NotEmpty(t, q.Get("X-Goog-Signature"))
}

func TestNewStoreRequiresBucket(t *testing.T) {
	_, err := gcs.NewStore(context.Background(), "", gcs.Signer{}, option.WithoutAuthentication())
	assert.Error(t, err)
}

// Runs against a fake server only: STORAGE_EMULATOR_HOST=localhost:4443.
func TestUploadEmulator(t *testing.T) {
	if os.Getenv("STORAGE_EMULATOR_HOST") == "" {
		t.Skip("STORAGE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	s, err := gcs.NewStore(ctx, "lynkia-images", gcs.Signer{}, option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Upload(ctx, []byte("jpeg-bytes"), "test/149041830/a.jpg", "image/jpeg"))
	require.NoError(t, s.Delete(ctx, "test/149041830/a.jpg"))
	require.NoError(t, s.Delete(ctx, "test/149041830/a.jpg"), "missing object is not an error")
}
