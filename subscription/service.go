package subscription

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/beenest/bmg/config"
	"github.com/beenest/bmg/content"
	resp "github.com/beenest/bmg/response"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate *validator.Validate = validator.New()

// ServiceOptions contains the configuration for Service router
type ServiceOptions struct {
	Config              *config.Config
	SubscriptionManager *Manager
	Logger              *zap.Logger
}

// Service is the subscription API router
type Service struct {
	ServiceOptions
}

// NewService will create an instance of the subscription API router
func NewService(option ServiceOptions) (*Service, error) {
	if option.Config == nil {
		return nil, fmt.Errorf("nil Config is invalid")
	}
	if option.SubscriptionManager == nil {
		return nil, fmt.Errorf("nil SubscriptionManager is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		ServiceOptions: option,
	}, nil
}

// CreateRequest is the model of a subscription checkout request
type CreateRequest struct {
	PlanID        string `json:"planId" validate:"required"`
	ClerkID       string `json:"clerkId"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
}

// CreateResponse carries what the checkout frontend needs to open the
// gateway widget.
type CreateResponse struct {
	Success                bool   `json:"success"`
	RazorpaySubscriptionID string `json:"razorpaySubscriptionId"`
	Key                    string `json:"key"`
}

func (s *Service) createSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().WithMessage("Plan ID is required"))
		return
	}

	logger := s.Logger.With(
		zap.String("PlanID", req.PlanID),
		zap.String("ClerkID", req.ClerkID),
	)

	sub, err := s.SubscriptionManager.Create(ctx, CreateOption{
		PlanID:        req.PlanID,
		ClerkID:       req.ClerkID,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		logger.Error("Unable to create subscription",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Failed to create subscription"))
		return
	}

	resp.WriteResponse(w, r, CreateResponse{
		Success:                true,
		RazorpaySubscriptionID: sub.ID,
		Key:                    s.Config.RazorpayKeyID,
	})
}

// LookupRequest is the model of an active-membership lookup
type LookupRequest struct {
	ClerkID string `json:"clerkId" validate:"required"`
}

func (s *Service) getMemberships(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().WithMessage("clerkId is required"))
		return
	}

	memberships, err := s.SubscriptionManager.ActiveMemberships(ctx, req.ClerkID)
	if err != nil {
		s.Logger.Error("Unable to fetch memberships",
			zap.String("ClerkID", req.ClerkID),
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Cannot fetch memberships"))
		return
	}

	resp.WriteResponse(w, r, struct {
		Success     bool                 `json:"success"`
		Memberships []content.Membership `json:"memberships"`
	}{
		Success:     true,
		Memberships: memberships,
	})
}

func (s *Service) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriptionID := chi.URLParam(r, "id")

	if err := s.SubscriptionManager.Cancel(ctx, subscriptionID); err != nil {
		s.Logger.Error("Unable to cancel subscription",
			zap.String("SubscriptionID", subscriptionID),
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Failed to cancel subscription"))
		return
	}

	resp.WriteResponse(w, r, struct {
		Success bool `json:"success"`
	}{
		Success: true,
	})
}

// Router will return the routes under subscription API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.createSubscription)
	r.Post("/get", s.getMemberships)
	r.Post("/{id}/cancel", s.cancelSubscription)

	return r
}
