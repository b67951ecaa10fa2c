package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/usecase"
	"github.com/memberops-lab/memberflow/pkg/utils/errutil"
	"github.com/memberops-lab/memberflow/pkg/utils/logging"
	"github.com/memberops-lab/memberflow/pkg/utils/safe"
)

// verifyWebhookSignature verifies the payment processor's request signature.
// This is a pure function that can be used independently for testing.
func verifyWebhookSignature(signingSecret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}

	if signature == "" {
		return goerr.New("missing signature")
	}

	// Check timestamp to prevent replay attacks (within 5 minutes)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}

	now := time.Now().Unix()
	if now-ts > 60*5 {
		return goerr.New("timestamp too old", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	baseString := fmt.Sprintf("v1:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expectedSignature := "v1=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// WebhookSignatureMiddleware creates a middleware that verifies webhook
// request signatures
func WebhookSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			defer safe.Close(ctx, r.Body)

			timestamp := r.Header.Get("X-Webhook-Timestamp")
			signature := r.Header.Get("X-Webhook-Signature")

			if err := verifyWebhookSignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "webhook signature verification failed"), http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewBuffer(body))
			next.ServeHTTP(w, r)
		})
	}
}

// IngestUseCase is the ingestion pipeline consumed by the webhook handler
type IngestUseCase interface {
	Ingest(ctx context.Context, raw []byte) (*usecase.IngestResult, error)
}

// WebhookHandler handles payment processor webhook deliveries
type WebhookHandler struct {
	uc IngestUseCase
}

// NewWebhookHandler creates a webhook handler over the ingestion pipeline
func NewWebhookHandler(uc IngestUseCase) *WebhookHandler {
	return &WebhookHandler{uc: uc}
}

type webhookResponse struct {
	Recorded  bool   `json:"recorded"`
	Duplicate bool   `json:"duplicate"`
	Notified  bool   `json:"notified"`
	Kind      string `json:"kind,omitempty"`
	EventKey  string `json:"event_key,omitempty"`
}

// ServeHTTP ingests one delivery. The processor retries on non-2xx, so the
// status reflects durability only: 200 once the event is recorded (or safely
// ignored), even when downstream notification failed.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		errutil.HandleHTTP(ctx, w, goerr.New("empty request body"), http.StatusBadRequest)
		return
	}

	result, err := h.uc.Ingest(ctx, body)
	if err != nil {
		if goerr.HasTag(err, usecase.StoreErrTag) {
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
			return
		}
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to ingest webhook"), http.StatusBadRequest)
		return
	}

	resp := webhookResponse{
		Recorded:  result.Recorded,
		Duplicate: result.Duplicate,
		Notified:  result.Notified,
		Kind:      result.Kind.String(),
	}
	if result.Event != nil {
		resp.EventKey = result.Event.EventKey
	}

	data, err := json.Marshal(resp)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	safe.Write(ctx, w, data)

	if result.NotifyError != "" {
		logging.From(ctx).Warn("event recorded but notification failed",
			"event_key", resp.EventKey, "error", result.NotifyError)
	}
}
