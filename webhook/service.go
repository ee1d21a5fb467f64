package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

// SignatureHeader carries the hex HMAC digest of the raw request body.
const SignatureHeader = "X-Razorpay-Signature"

// ServiceOptions contains the configuration for Service router
type ServiceOptions struct {
	WebhookManager *Manager
	Logger         *zap.Logger
}

// Service is the gateway webhook router
type Service struct {
	ServiceOptions
}

// NewService will create an instance of the webhook router
func NewService(option ServiceOptions) (*Service, error) {
	if option.WebhookManager == nil {
		return nil, fmt.Errorf("nil WebhookManager is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		ServiceOptions: option,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Service) handleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// the signature covers the exact bytes on the wire, so the body must
	// not pass through a decoder first
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		s.Logger.Error("Unable to read webhook body",
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Webhook failed",
		})
		return
	}

	result, err := s.WebhookManager.HandleEvent(ctx, rawBody, r.Header.Get(SignatureHeader))
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Invalid signature",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Webhook failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Router will return the routes under the webhook API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.handleEvent)

	return r
}
