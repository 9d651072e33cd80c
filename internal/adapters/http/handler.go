package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PabloGalante/lynkia-agent/internal/app/conversation"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
	"github.com/PabloGalante/lynkia-agent/internal/observability"
)

const (
	serviceName     = "Agent Lynkia"
	deliveryTimeout = 15 * time.Second
	maxFormBytes    = 1 << 20
	maxJSONBytes    = 64 << 10
)

type Server struct {
	svc       *conversation.Service
	messenger domain.MessagingGateway
}

// NewServer wires the routes. messenger may be nil: replies are then only
// logged, not delivered.
func NewServer(svc *conversation.Service, messenger domain.MessagingGateway) http.Handler {
	s := &Server{svc: svc, messenger: messenger}
	mux := http.NewServeMux()

	// Twilio inbound messages (form-encoded) → TwiML
	mux.HandleFunc("/whatsapp/webhook", s.handleWebhook)

	// direct JSON integration → canonical response
	mux.HandleFunc("/whatsapp/process", s.handleProcess)

	mux.HandleFunc("/whatsapp/health", s.handleHealth)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	return chainMiddlewares(mux, withLogging, withRequestID, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type processRequest struct {
	Phone            string `json:"phone"`
	Message          string `json:"message"`
	HasMedia         bool   `json:"has_media"`
	MediaURL         string `json:"media_url,omitempty"`
	MediaContentType string `json:"media_content_type,omitempty"`
}

// emptyTwiML acknowledges a webhook without an inline reply.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		badRequest(w, "invalid form body")
		return
	}

	from := strings.TrimSpace(r.PostForm.Get("From"))
	if from == "" {
		badRequest(w, "From is required")
		return
	}
	numMedia, _ := strconv.Atoi(r.PostForm.Get("NumMedia"))

	ctx := r.Context()
	log := observability.LoggerFromContext(ctx).With("message_sid", r.PostForm.Get("MessageSid"))
	log.Info("webhook received", "num_media", numMedia)

	out := s.svc.Process(ctx, conversation.ProcessInput{
		Phone:            from,
		Text:             r.PostForm.Get("Body"),
		HasMedia:         numMedia > 0,
		MediaURL:         r.PostForm.Get("MediaUrl0"),
		MediaContentType: r.PostForm.Get("MediaContentType0"),
	})

	s.deliver(ctx, from, out.Reply)

	writeTwiML(w)
}

// deliver sends the reply; failures are logged, Twilio still gets its ack.
func (s *Server) deliver(ctx context.Context, to, text string) {
	log := observability.LoggerFromContext(ctx)
	if s.messenger == nil {
		log.Warn("messaging gateway not configured, reply dropped", "reply", text)
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	if err := s.messenger.Deliver(sendCtx, to, text); err != nil {
		log.Error("reply delivery failed", "error", err)
		return
	}
	log.Info("reply delivered")
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "request body too large",
			})
			return
		}
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		badRequest(w, "phone is required")
		return
	}

	out := s.svc.Process(r.Context(), conversation.ProcessInput{
		Phone:            req.Phone,
		Text:             req.Message,
		HasMedia:         req.HasMedia,
		MediaURL:         req.MediaURL,
		MediaContentType: req.MediaContentType,
	})

	writeJSON(w, http.StatusOK, out.Response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": serviceName,
		"status":  "running",
	})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeTwiML(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(emptyTwiML))
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
