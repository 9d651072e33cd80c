package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/lynkia-agent/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.ModeLocal, cfg.Mode)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.LLMMock, cfg.LLMProvider)
	assert.Equal(t, config.StorageMemory, cfg.StorageBackend)
	assert.Equal(t, config.ObjectStoreMemory, cfg.ObjectStoreBackend)
	assert.Equal(t, 10*time.Second, cfg.CollaboratorTimeout)
	assert.Equal(t, 20*time.Second, cfg.LLMTimeout)
	assert.Equal(t, time.Hour, cfg.PresignTTL)
	assert.False(t, cfg.TwilioConfigured())
}

func TestLoadGCP(t *testing.T) {
	t.Setenv("LYNKIA_MODE", "GCP")
	t.Setenv("LYNKIA_GCP_PROJECT", "lynkia-prod")
	t.Setenv("LYNKIA_STORAGE_BACKEND", "firestore")
	t.Setenv("LYNKIA_OBJECTSTORE_BACKEND", "gcs")
	t.Setenv("LYNKIA_GCS_BUCKET", "lynkia-images")
	t.Setenv("LYNKIA_PRESIGN_TTL", "30m")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.ModeGCP, cfg.Mode)
	assert.Equal(t, config.LLMGemini, cfg.LLMProvider)
	assert.Equal(t, 30*time.Minute, cfg.PresignTTL)
	assert.True(t, cfg.TwilioConfigured())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"gcp without project", map[string]string{"LYNKIA_MODE": "gcp"}, "LYNKIA_GCP_PROJECT"},
		{"unknown mode", map[string]string{"LYNKIA_MODE": "cloud"}, "LYNKIA_MODE"},
		{"openai without key", map[string]string{"LYNKIA_LLM_PROVIDER": "openai"}, "OPENAI_API_KEY"},
		{"unknown provider", map[string]string{"LYNKIA_LLM_PROVIDER": "claude"}, "LYNKIA_LLM_PROVIDER"},
		{"firestore without project", map[string]string{"LYNKIA_STORAGE_BACKEND": "firestore"}, "firestore"},
		{"gcs without bucket", map[string]string{"LYNKIA_OBJECTSTORE_BACKEND": "gcs"}, "LYNKIA_GCS_BUCKET"},
		{"bad duration", map[string]string{"LYNKIA_LLM_TIMEOUT": "soon"}, "parsing environment"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
