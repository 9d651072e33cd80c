package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/PabloGalante/lynkia-agent/internal/app/executor"
	"github.com/PabloGalante/lynkia-agent/internal/app/fallback"
	"github.com/PabloGalante/lynkia-agent/internal/app/format"
	"github.com/PabloGalante/lynkia-agent/internal/app/intent"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
	"github.com/PabloGalante/lynkia-agent/internal/observability"
)

// Service runs one technician message through the whole pipeline:
// cascade, language-model fallback, executor, formatter.
type Service struct {
	classifier *intent.Classifier
	resolver   *fallback.Resolver
	executor   *executor.Executor
	now        func() time.Time
}

func NewService(
	classifier *intent.Classifier,
	resolver *fallback.Resolver,
	exec *executor.Executor,
) *Service {
	if classifier == nil {
		classifier = intent.NewClassifier()
	}
	return &Service{
		classifier: classifier,
		resolver:   resolver,
		executor:   exec,
		now:        time.Now,
	}
}

type ProcessInput struct {
	Phone            string
	Text             string
	HasMedia         bool
	MediaURL         string
	MediaContentType string
}

type ProcessOutput struct {
	Response domain.Response
	// Reply is the formatted text for the technician.
	Reply string
	// Source is "rules" or "llm".
	Source string
}

// Process handles one incoming message. It never fails: every problem
// ends up as an ERROR response.
func (s *Service) Process(ctx context.Context, in ProcessInput) *ProcessOutput {
	phone := strings.TrimPrefix(strings.TrimSpace(in.Phone), "whatsapp:")
	ctx = observability.WithTechnician(ctx, phone)

	log := observability.LoggerFromContext(ctx).With("has_media", in.HasMedia)
	log.Info("processing message", "length", len(in.Text))

	start := s.now()

	outcome := s.classifier.Classify(in.Text, in.HasMedia)
	payload, source := outcome.Payload, "rules"
	if outcome.Ambiguous {
		log.Info("message ambiguous, asking language model")
		payload, source = s.resolver.Resolve(ctx, phone, in.Text), "llm"
	} else {
		log.Info("message classified", "action", outcome.Action(), "detector", outcome.Detector)
	}

	req := executor.Request{Phone: phone}
	if in.HasMedia && in.MediaURL != "" {
		req.Media = &executor.Media{URL: in.MediaURL, ContentType: in.MediaContentType}
	}

	var resp domain.Response
	if s.executor == nil {
		resp = domain.ErrorResponse(domain.MsgStorageUnavailable)
	} else {
		resp = s.executor.Execute(ctx, req, payload)
	}
	reply := format.Format(resp)

	log.Info("message processed",
		"action", resp.Action,
		"source", source,
		"elapsed_ms", s.now().Sub(start).Milliseconds(),
	)

	return &ProcessOutput{
		Response: resp,
		Reply:    reply,
		Source:   source,
	}
}
