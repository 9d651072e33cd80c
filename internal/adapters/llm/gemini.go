package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	maxOutputTokens    = 500
)

// GeminiConfig selects the backend: Vertex AI when Project is set,
// the Gemini API with APIKey otherwise.
type GeminiConfig struct {
	Project   string
	Location  string
	APIKey    string
	ModelName string
}

type GeminiClassifier struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClassifier creates a LanguageModelClassifier backed by Gemini.
func NewGeminiClassifier(ctx context.Context, cfg GeminiConfig) (*GeminiClassifier, error) {
	modelName := cfg.ModelName
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Project != "" {
		if cfg.Location == "" {
			return nil, fmt.Errorf("gemini: location required with project %q", cfg.Project)
		}
		cc = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	} else if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: project or api key required")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClassifier{
		client:    client,
		modelName: modelName,
	}, nil
}

// Classify implements domain.LanguageModelClassifier. The model runs in
// JSON mode at temperature 0; the raw completion is returned undecoded.
func (g *GeminiClassifier) Classify(ctx context.Context, systemGrammar, phone, text string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(UserContent(phone, text), genai.RoleUser),
	}

	temp := float32(0)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemGrammar, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   maxOutputTokens,
		ResponseMIMEType:  "application/json",
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	out := res.Text()
	if out == "" {
		return "", fmt.Errorf("gemini returned empty text: %w", domain.ErrInvalidResponse)
	}
	return out, nil
}

// classifyGeminiError marks throttling, server-side failures and deadlines
// as domain.ErrUnavailable.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("gemini generate content: %s: %w", apiErr.Message, domain.ErrUnavailable)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gemini generate content: %w", domain.ErrUnavailable)
	}
	return fmt.Errorf("gemini generate content: %w", err)
}
