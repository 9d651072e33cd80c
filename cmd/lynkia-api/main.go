package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/PabloGalante/lynkia-agent/internal/adapters/http"
	"github.com/PabloGalante/lynkia-agent/internal/adapters/llm"
	"github.com/PabloGalante/lynkia-agent/internal/adapters/objectstore/gcs"
	objmemory "github.com/PabloGalante/lynkia-agent/internal/adapters/objectstore/memory"
	firestorestore "github.com/PabloGalante/lynkia-agent/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/lynkia-agent/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/lynkia-agent/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/lynkia-agent/internal/adapters/twilio"
	"github.com/PabloGalante/lynkia-agent/internal/app/conversation"
	"github.com/PabloGalante/lynkia-agent/internal/app/executor"
	"github.com/PabloGalante/lynkia-agent/internal/app/fallback"
	"github.com/PabloGalante/lynkia-agent/internal/app/intent"
	"github.com/PabloGalante/lynkia-agent/internal/config"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
	"github.com/PabloGalante/lynkia-agent/internal/observability"
)

func main() {
	log := observability.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	observability.SetDebug(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	classifierLLM, err := newLanguageModel(ctx, cfg)
	if err != nil {
		log.Error("error initializing language model", "provider", cfg.LLMProvider, "error", err)
		os.Exit(1)
	}

	store, closeStore, err := newStorage(ctx, cfg)
	if err != nil {
		log.Error("error initializing storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		log.Error("error initializing object store", "backend", cfg.ObjectStoreBackend, "error", err)
		os.Exit(1)
	}

	// Twilio: one client, both delivery and media download
	var (
		messenger domain.MessagingGateway
		media     domain.MediaFetcher
	)
	if cfg.TwilioConfigured() {
		tw, err := twilio.NewClient(twilio.Config{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioWhatsAppNumber,
		})
		if err != nil {
			log.Error("error initializing twilio client", "error", err)
			os.Exit(1)
		}
		messenger, media = tw, tw
	} else {
		log.Warn("twilio not configured, replies will not be delivered")
	}

	exec := executor.New(store, objects, media, executor.Options{
		Timeout:    cfg.CollaboratorTimeout,
		PresignTTL: cfg.PresignTTL,
	})
	resolver := fallback.NewResolver(classifierLLM, llm.SystemGrammar(), cfg.LLMTimeout)
	svc := conversation.NewService(intent.NewClassifier(), resolver, exec)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpadapter.NewServer(svc, messenger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Lynkia API listening",
		"port", cfg.Port,
		"mode", cfg.Mode,
		"llm", cfg.LLMProvider,
		"storage", cfg.StorageBackend,
		"objectstore", cfg.ObjectStoreBackend,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

// newLanguageModel returns nil for the "none" provider: ambiguous messages
// then get the "assistant unavailable" answer.
func newLanguageModel(ctx context.Context, cfg *config.Config) (domain.LanguageModelClassifier, error) {
	log := observability.Logger()

	switch cfg.LLMProvider {
	case config.LLMGemini:
		gc := llm.GeminiConfig{APIKey: cfg.GeminiAPIKey, ModelName: cfg.ModelName}
		if cfg.Mode == config.ModeGCP {
			gc.Project, gc.Location = cfg.GCPProjectID, cfg.GCPLocation
		}
		log.Info("[LLM] Using Gemini classifier", "model", cfg.ModelName)
		return llm.NewGeminiClassifier(ctx, gc)
	case config.LLMOpenAI:
		log.Info("[LLM] Using OpenAI classifier", "model", cfg.OpenAIModel)
		return llm.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case config.LLMMock:
		log.Info("[LLM] Using MOCK classifier")
		return llm.NewMockClassifier(), nil
	default:
		log.Warn("[LLM] No language model, fallback disabled")
		return nil, nil
	}
}

func newStorage(ctx context.Context, cfg *config.Config) (domain.StorageGateway, func(), error) {
	log := observability.Logger()

	switch cfg.StorageBackend {
	case config.StorageFirestore:
		log.Info("[STORE] Using Firestore storage", "project", cfg.GCPProjectID)
		s, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StorageSQLite:
		log.Info("[STORE] Using SQLite storage", "path", cfg.SQLitePath)
		s, err := sqlitestore.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		log.Info("[STORE] Using in-memory storage")
		return memstore.NewInterventionStore(), func() {}, nil
	}
}

func newObjectStore(ctx context.Context, cfg *config.Config) (domain.ObjectStore, error) {
	log := observability.Logger()

	switch cfg.ObjectStoreBackend {
	case config.ObjectStoreGCS:
		log.Info("[IMAGES] Using Cloud Storage", "bucket", cfg.GCSBucket)
		return gcs.NewStore(ctx, cfg.GCSBucket, gcs.Signer{})
	default:
		log.Info("[IMAGES] Using in-memory object store")
		return objmemory.NewStore(""), nil
	}
}
