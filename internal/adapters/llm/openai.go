package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

const defaultOpenAIModel = openai.ChatModelGPT4oMini

type OpenAIClassifier struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAIClassifier creates a LanguageModelClassifier backed by the
// chat completions API. Extra options (base URL, retries) are appended.
func NewOpenAIClassifier(apiKey, model string, extra ...option.RequestOption) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key required")
	}
	opts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, extra...)

	m := openai.ChatModel(model)
	if model == "" {
		m = defaultOpenAIModel
	}
	return &OpenAIClassifier{
		client: openai.NewClient(opts...),
		model:  m,
	}, nil
}

// Classify implements domain.LanguageModelClassifier.
func (o *OpenAIClassifier) Classify(ctx context.Context, systemGrammar, phone, text string) (string, error) {
	res, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemGrammar),
			openai.UserMessage(UserContent(phone, text)),
		},
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(maxOutputTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) &&
			(apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError) {
			return "", fmt.Errorf("openai chat completion: %w: %w", domain.ErrUnavailable, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("openai chat completion: %w", domain.ErrUnavailable)
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(res.Choices) == 0 || res.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned no content: %w", domain.ErrInvalidResponse)
	}
	return res.Choices[0].Message.Content, nil
}
