package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/lynkia-agent/internal/adapters/http"
	"github.com/PabloGalante/lynkia-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/lynkia-agent/internal/app/conversation"
	"github.com/PabloGalante/lynkia-agent/internal/app/executor"
	"github.com/PabloGalante/lynkia-agent/internal/app/intent"
)

type sentMessage struct {
	to, text string
}

type recordingMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (m *recordingMessenger) Deliver(_ context.Context, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{to, text})
	return nil
}

func newTestServer(t *testing.T) (http.Handler, *recordingMessenger) {
	t.Helper()

	store := memory.NewInterventionStore()
	exec := executor.New(store, nil, nil, executor.Options{})
	svc := conversation.NewService(intent.NewClassifier(), nil, exec)

	messenger := &recordingMessenger{}
	return httpadapter.NewServer(svc, messenger), messenger
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/whatsapp/health"} {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `{"status":"ok","service":"Agent Lynkia"}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestRootAndUnknownPath(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestWebhookProcessesAndDelivers(t *testing.T) {
	srv, messenger := newTestServer(t)

	form := url.Values{
		"From":       {"whatsapp:+33600000000"},
		"Body":       {"Rac immeuble 149041830"},
		"NumMedia":   {"0"},
		"MessageSid": {"SM1"},
	}
	req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`, w.Body.String())

	require.Len(t, messenger.sent, 1)
	assert.Equal(t, "whatsapp:+33600000000", messenger.sent[0].to)
	assert.Contains(t, messenger.sent[0].text, "✅ Intervention créée : RAC IMMEUBLE 149041830")
}

func TestWebhookRequiresFrom(t *testing.T) {
	srv, messenger := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader("Body=AIDE"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, messenger.sent)
}

func TestProcessReturnsCanonicalResponse(t *testing.T) {
	srv, messenger := newTestServer(t)

	post := func(body string) map[string]any {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/whatsapp/process", bytes.NewReader([]byte(body)))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var out map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out
	}

	out := post(`{"phone": "+33600000000", "message": "SAV 149041830"}`)
	assert.Equal(t, "CREATE_ONE", out["action"])
	data := out["data"].(map[string]any)
	assert.Equal(t, "SAV", data["type"])
	assert.Equal(t, "149041830", data["reference"])

	out = post(`{"phone": "+33600000000", "message": "AIDE"}`)
	assert.Equal(t, map[string]any{"action": "HELP", "data": map[string]any{}}, out)

	out = post(`{"phone": "+33600000000", "message": "SUPPRIMER 999999999"}`)
	assert.Equal(t, "ERROR", out["action"])
	assert.Equal(t, "Intervention 999999999 non trouvée", out["data"].(map[string]any)["message"])

	assert.Empty(t, messenger.sent, "the JSON endpoint does not deliver")
}

func TestProcessValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, body := range []string{`not json`, `{"message": "AIDE"}`} {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/whatsapp/process", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whatsapp/process", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestProcessRejectsOversizedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"phone": "+33600000000", "message": "` + strings.Repeat("a", 100<<10) + `"}`
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/whatsapp/process", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "too large")
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/whatsapp/process", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
