package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/user/codehubnotify/pkg/logger"
)

const (
	maxWebhookBody   = 25 << 20
	deliveryTTL      = time.Hour
	defaultEventKind = "ping"
)

// ErrInvalidSignature is returned when a delivery is not signed with the shared secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// SignatureVerifier decides whether a delivery body matches its signature header.
type SignatureVerifier interface {
	Verify(signature string, body []byte) error
}

// HMACVerifier checks X-Hub-Signature-256 against a shared secret.
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier returns a verifier for secret, or nil when secret is empty.
func NewHMACVerifier(secret string) SignatureVerifier {
	if secret == "" {
		return nil
	}
	return &HMACVerifier{secret: []byte(secret)}
}

// Verify implements SignatureVerifier.
func (v *HMACVerifier) Verify(signature string, body []byte) error {
	if signature == "" {
		return fmt.Errorf("%w: missing %s header", ErrInvalidSignature, gh.SHA256SignatureHeader)
	}
	if err := gh.ValidateSignature(signature, body, v.secret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// EventHandler consumes parsed webhook events.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev *RepositoryEvent) error
}

// WebhookHandler accepts GitHub webhook deliveries.
type WebhookHandler struct {
	verifier SignatureVerifier
	handler  EventHandler
	now      func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewWebhookHandler creates a webhook handler. A nil verifier disables
// signature checks.
func NewWebhookHandler(verifier SignatureVerifier, handler EventHandler) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		handler:  handler,
		now:      time.Now,
		seen:     make(map[string]time.Time),
	}
}

// ServeHTTP handles incoming webhook requests.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		logger.Error().Err(err).Msg("Failed to read webhook body")
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	if h.verifier != nil {
		if err := h.verifier.Verify(r.Header.Get(gh.SHA256SignatureHeader), body); err != nil {
			logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Rejected webhook delivery")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	kind := r.Header.Get(gh.EventTypeHeader)
	if kind == "" {
		kind = defaultEventKind
	}

	deliveryID := r.Header.Get(gh.DeliveryIDHeader)
	if !h.claim(deliveryID) {
		logger.Info().Str("delivery", deliveryID).Msg("Duplicate delivery ignored")
		writeJSON(w, "duplicate")
		return
	}

	ev := ParseEvent(kind, body)
	ev.DeliveryID = deliveryID

	logger.Info().
		Str("kind", kind).
		Str("repo", ev.RepoFullName).
		Str("delivery", deliveryID).
		Msg("Webhook event received")

	if err := h.handler.HandleEvent(r.Context(), ev); err != nil {
		logger.Error().Err(err).Str("kind", kind).Str("repo", ev.RepoFullName).Msg("Failed to handle webhook event")
		h.release(deliveryID)
		http.Error(w, "Failed to handle event", http.StatusInternalServerError)
		return
	}

	writeJSON(w, "ok")
}

// claim reserves id for this request. It returns false when id was claimed
// within deliveryTTL, including by a request still in flight. Expired
// entries are pruned on the way.
func (h *WebhookHandler) claim(id string) bool {
	if id == "" {
		return true
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	for k, at := range h.seen {
		if now.Sub(at) > deliveryTTL {
			delete(h.seen, k)
		}
	}
	if _, ok := h.seen[id]; ok {
		return false
	}
	h.seen[id] = now
	return true
}

// release drops a claim so a redelivery of id is processed again.
func (h *WebhookHandler) release(id string) {
	if id == "" {
		return
	}
	h.mu.Lock()
	delete(h.seen, id)
	h.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
