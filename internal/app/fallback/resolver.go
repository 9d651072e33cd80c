package fallback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
	"github.com/PabloGalante/lynkia-agent/internal/observability"
)

const defaultTimeout = 20 * time.Second

// Resolver asks a language model to classify messages the rule cascade
// could not. It never returns an error: every failure is an ErrorPayload.
type Resolver struct {
	llm     domain.LanguageModelClassifier
	grammar string
	timeout time.Duration
}

// NewResolver builds a Resolver. llm may be nil when no model is
// configured; grammar is the system instruction sent with every call.
func NewResolver(llm domain.LanguageModelClassifier, grammar string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Resolver{
		llm:     llm,
		grammar: grammar,
		timeout: timeout,
	}
}

// Configured reports whether a model is available at all.
func (r *Resolver) Configured() bool {
	return r != nil && r.llm != nil
}

// Resolve classifies text for the given technician.
func (r *Resolver) Resolve(ctx context.Context, phone, text string) domain.Payload {
	log := observability.LoggerFromContext(ctx).With("stage", "fallback")

	if !r.Configured() {
		log.Warn("language model not configured")
		return domain.ErrorPayload{Message: domain.MsgAssistantUnavailable}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	content, err := r.llm.Classify(callCtx, r.grammar, phone, text)
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			log.Warn("language model unavailable", "error", err)
			return domain.ErrorPayload{Message: domain.MsgAssistantUnavailable}
		}
		if errors.Is(err, domain.ErrInvalidResponse) {
			log.Warn("language model returned no usable content", "error", err)
			return domain.ErrorPayload{Message: domain.MsgInvalidAIResponse}
		}
		log.Error("language model call failed", "error", err)
		return domain.ErrorPayload{Message: fmt.Sprintf("%s: %v", domain.MsgAIServiceError, err)}
	}

	p := Decode(content)
	log.Info("fallback classified message",
		"action", p.Action(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return p
}
