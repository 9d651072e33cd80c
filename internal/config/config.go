package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

// Backend choices.
const (
	LLMGemini = "gemini"
	LLMOpenAI = "openai"
	LLMMock   = "mock"
	LLMNone   = "none"

	StorageMemory    = "memory"
	StorageFirestore = "firestore"
	StorageSQLite    = "sqlite"

	ObjectStoreMemory = "memory"
	ObjectStoreGCS    = "gcs"
)

type Config struct {
	Mode  Mode   `env:"LYNKIA_MODE" envDefault:"local"`
	Port  string `env:"PORT" envDefault:"8080"`
	Debug bool   `env:"LYNKIA_DEBUG"`

	GCPProjectID string `env:"LYNKIA_GCP_PROJECT"`
	GCPLocation  string `env:"LYNKIA_GCP_LOCATION" envDefault:"europe-west1"`

	// LLMProvider defaults to mock in local mode and gemini in gcp mode.
	LLMProvider  string `env:"LYNKIA_LLM_PROVIDER"`
	GeminiAPIKey string `env:"LYNKIA_GEMINI_API_KEY"`
	ModelName    string `env:"LYNKIA_MODEL_NAME" envDefault:"gemini-2.5-flash"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"LYNKIA_OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	StorageBackend     string `env:"LYNKIA_STORAGE_BACKEND" envDefault:"memory"`
	SQLitePath         string `env:"LYNKIA_SQLITE_PATH" envDefault:"data/lynkia.db"`
	ObjectStoreBackend string `env:"LYNKIA_OBJECTSTORE_BACKEND" envDefault:"memory"`
	GCSBucket          string `env:"LYNKIA_GCS_BUCKET"`

	TwilioAccountSID     string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken      string `env:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppNumber string `env:"TWILIO_WHATSAPP_NUMBER"`

	CollaboratorTimeout time.Duration `env:"LYNKIA_COLLABORATOR_TIMEOUT" envDefault:"10s"`
	LLMTimeout          time.Duration `env:"LYNKIA_LLM_TIMEOUT" envDefault:"20s"`
	PresignTTL          time.Duration `env:"LYNKIA_PRESIGN_TTL" envDefault:"1h"`
}

// TwilioConfigured reports whether replies can be delivered.
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

// Load reads all env vars, fills the defaults and validates the result.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.Mode = Mode(strings.ToLower(string(cfg.Mode)))
	cfg.LLMProvider = strings.ToLower(cfg.LLMProvider)
	cfg.StorageBackend = strings.ToLower(cfg.StorageBackend)
	cfg.ObjectStoreBackend = strings.ToLower(cfg.ObjectStoreBackend)

	if cfg.LLMProvider == "" {
		cfg.LLMProvider = LLMMock
		if cfg.Mode == ModeGCP {
			cfg.LLMProvider = LLMGemini
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.Mode {
	case ModeLocal, ModeGCP:
	default:
		errs = append(errs, fmt.Errorf("LYNKIA_MODE must be local or gcp, got %q", c.Mode))
	}
	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		errs = append(errs, errors.New("LYNKIA_GCP_PROJECT must be set in gcp mode"))
	}

	switch c.LLMProvider {
	case LLMGemini:
		if c.GCPProjectID == "" && c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("gemini needs LYNKIA_GCP_PROJECT or LYNKIA_GEMINI_API_KEY"))
		}
	case LLMOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("openai needs OPENAI_API_KEY"))
		}
	case LLMMock, LLMNone:
	default:
		errs = append(errs, fmt.Errorf("unknown LYNKIA_LLM_PROVIDER %q", c.LLMProvider))
	}

	switch c.StorageBackend {
	case StorageMemory:
	case StorageFirestore:
		if c.GCPProjectID == "" {
			errs = append(errs, errors.New("firestore storage needs LYNKIA_GCP_PROJECT"))
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite storage needs LYNKIA_SQLITE_PATH"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LYNKIA_STORAGE_BACKEND %q", c.StorageBackend))
	}

	switch c.ObjectStoreBackend {
	case ObjectStoreMemory:
	case ObjectStoreGCS:
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("gcs object store needs LYNKIA_GCS_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LYNKIA_OBJECTSTORE_BACKEND %q", c.ObjectStoreBackend))
	}

	return errors.Join(errs...)
}
