package billing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/gatekit/pkg/webhook"
)

// DefaultSignatureHeader carries the provider's payload signature.
const DefaultSignatureHeader = "Webhook-Signature"

// DefaultMaxBodyBytes caps webhook payload size. Billing events are small;
// anything larger is hostile or broken.
const DefaultMaxBodyBytes int64 = 1 << 20

// Handler is the HTTP ingress for billing provider webhooks. It translates
// processing results into the acknowledgement contract providers expect:
// 2xx stops redelivery, 4xx refuses permanently, 5xx requests a retry.
type Handler struct {
	processor       *webhook.Processor
	logger          *slog.Logger
	signatureHeader string
	maxBodyBytes    int64
}

// Option configures optional handler behavior.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithSignatureHeader overrides the header the signature is read from.
func WithSignatureHeader(name string) Option {
	return func(h *Handler) {
		if name != "" {
			h.signatureHeader = name
		}
	}
}

// WithMaxBodyBytes overrides the payload size cap.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// NewHandler creates the webhook ingress.
// Panics if the processor is nil to fail fast during initialization.
func NewHandler(processor *webhook.Processor, opts ...Option) *Handler {
	if processor == nil {
		panic("billing: webhook processor is required")
	}

	h := &Handler{
		processor:       processor,
		logger:          slog.Default(),
		signatureHeader: DefaultSignatureHeader,
		maxBodyBytes:    DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle returns the router to mount, exposing POST /webhooks/billing.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/webhooks/billing", h.receiveWebhook)
	return r
}

type webhookResponse struct {
	Result webhook.ProcessingResult `json:"result"`
	Error  string                   `json:"error,omitempty"`
}

func (h *Handler) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, webhookResponse{
				Result: webhook.ResultRejected,
				Error:  "payload too large",
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, webhookResponse{
			Result: webhook.ResultRejected,
			Error:  "unreadable payload",
		})
		return
	}

	result, err := h.processor.Process(r.Context(), payload, r.Header.Get(h.signatureHeader))

	switch result {
	case webhook.ResultProcessed, webhook.ResultDuplicateIgnored:
		writeJSON(w, http.StatusOK, webhookResponse{Result: result})
	case webhook.ResultRejected:
		h.logger.WarnContext(r.Context(), "billing: webhook rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, webhookResponse{
			Result: result,
			Error:  "rejected",
		})
	default:
		// Transient failure: answer 5xx so the provider redelivers.
		h.logger.ErrorContext(r.Context(), "billing: webhook processing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, webhookResponse{
			Result: webhook.ResultFailed,
			Error:  "temporary failure, retry later",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body webhookResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
