package verification

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	resp "github.com/beenest/bmg/response"

	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

// ServiceOptions contains the configuration for Service router
type ServiceOptions struct {
	VerificationManager *Manager
	Logger              *zap.Logger
}

// Service is the payment verification API router
type Service struct {
	ServiceOptions
}

// NewService will create an instance of the verification API router
func NewService(option ServiceOptions) (*Service, error) {
	if option.VerificationManager == nil {
		return nil, fmt.Errorf("nil VerificationManager is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		ServiceOptions: option,
	}, nil
}

type verifyResponse struct {
	Success  bool `json:"success"`
	Metadata struct {
		Subscription *SubscriptionMetadata `json:"subscription"`
	} `json:"metadata"`
}

func (s *Service) verifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var c Confirmation
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}

	metadata, err := s.VerificationManager.VerifyAndActivate(ctx, c)
	if err != nil {
		var vErr *Error
		if errors.As(err, &vErr) {
			e := &resp.Error{
				StatusCode: vErr.HTTPStatus(),
				Message:    vErr.Message,
			}
			resp.WriteError(w, r, e)
			return
		}
		s.Logger.Error("Verification returned unexpected error",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected())
		return
	}

	body := verifyResponse{Success: true}
	body.Metadata.Subscription = metadata
	resp.WriteResponse(w, r, body)
}

// Router will return the routes under the verification API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.verifyPayment)

	return r
}
