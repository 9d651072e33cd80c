package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/lynkia-agent/internal/adapters/llm"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

func TestSystemGrammarListsEveryAction(t *testing.T) {
	grammar := llm.SystemGrammar()
	for _, a := range domain.Actions {
		assert.Contains(t, grammar, "- "+a.String()+": ", "grammar misses %s", a)
	}
}

func TestUserContentCarriesTechnician(t *testing.T) {
	assert.Equal(t, "[Technicien: +33600000000]\nbonjour", llm.UserContent("+33600000000", "bonjour"))
}

func TestMockClassifier(t *testing.T) {
	m := llm.NewMockClassifier().On("aide moi stp", `{"action":"HELP","data":{}}`)

	got, err := m.Classify(context.Background(), "grammar", "+33600000000", "  aide moi stp ")
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"HELP","data":{}}`, got)

	got, err = m.Classify(context.Background(), "grammar", "+33600000000", "???")
	require.NoError(t, err)
	assert.Contains(t, got, `"ERROR"`)
	assert.Equal(t, []string{"aide moi stp", "???"}, m.Calls())

	m.Err = domain.ErrUnavailable
	_, err = m.Classify(context.Background(), "grammar", "+33600000000", "x")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestNewOpenAIClassifierRequiresKey(t *testing.T) {
	_, err := llm.NewOpenAIClassifier("", "")
	assert.Error(t, err)
}

func TestOpenAIClassifierSendsJSONModeRequest(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1767340800,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"action\":\"SEARCH\",\"data\":{\"reference\":\"149041830\"}}"}
			}]
		}`))
	}))
	defer srv.Close()

	c, err := llm.NewOpenAIClassifier("sk-test", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	got, err := c.Classify(context.Background(), "GRAMMAR", "+33600000000", "où en est 149041830")
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"SEARCH","data":{"reference":"149041830"}}`, got)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.EqualValues(t, 0, body["temperature"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "GRAMMAR", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "[Technicien: +33600000000]\noù en est 149041830", msgs[1].(map[string]any)["content"])
}

func TestOpenAIClassifierMapsServerErrorsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer srv.Close()

	c, err := llm.NewOpenAIClassifier("sk-test", "gpt-4o-mini", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "GRAMMAR", "+33600000000", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}
