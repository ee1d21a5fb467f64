package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/beenest/bmg/config"
	"github.com/beenest/bmg/mailer"
	resp "github.com/beenest/bmg/response"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate *validator.Validate = validator.New()

// ServiceOptions contains the configuration for Service router
type ServiceOptions struct {
	Config       *config.Config
	OrderManager *Manager
	Mailer       *mailer.Mailer
	Logger       *zap.Logger
}

// Service is the order API router
type Service struct {
	ServiceOptions
}

// NewService will create an instance of the order API router
func NewService(option ServiceOptions) (*Service, error) {
	if option.Config == nil {
		return nil, fmt.Errorf("nil Config is invalid")
	}
	if option.OrderManager == nil {
		return nil, fmt.Errorf("nil OrderManager is invalid")
	}
	if option.Mailer == nil {
		return nil, fmt.Errorf("nil Mailer is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		ServiceOptions: option,
	}, nil
}

// MagazineRequest is the model of a single-magazine checkout
type MagazineRequest struct {
	MagazineID string `json:"magazineId" validate:"required"`
}

func (s *Service) createMagazineOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MagazineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().WithMessage("magazineId is required"))
		return
	}

	logger := s.Logger.With(zap.String("MagazineID", req.MagazineID))

	created, err := s.OrderManager.CreateMagazineOrder(ctx, req.MagazineID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			resp.WriteError(w, r, resp.ErrNotFound().WithMessage("Magazine not found"))
			return
		}
		logger.Error("Unable to create magazine order",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Failed to create order"))
		return
	}

	resp.WriteResponse(w, r, struct {
		Success       bool   `json:"success"`
		OrderID       string `json:"orderId"`
		Amount        int64  `json:"amount"`
		Key           string `json:"key"`
		MagazineTitle string `json:"magazineTitle"`
	}{
		Success:       true,
		OrderID:       created.OrderID,
		Amount:        created.Amount,
		Key:           s.Config.RazorpayKeyID,
		MagazineTitle: created.MagazineTitle,
	})
}

// CreateRequest is the model of a raw gateway order request. Amount is in
// the smallest currency unit.
type CreateRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

func (s *Service) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().WithMessage("amount must be positive"))
		return
	}

	created, err := s.OrderManager.CreateOrder(ctx, req.Amount)
	if err != nil {
		s.Logger.Error("Unable to create order",
			zap.Int64("Amount", req.Amount),
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Failed to create order"))
		return
	}

	resp.WriteResponse(w, r, struct {
		Success  bool   `json:"success"`
		OrderID  string `json:"orderId"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Key      string `json:"key"`
	}{
		Success:  true,
		OrderID:  created.ID,
		Amount:   created.Amount,
		Currency: created.Currency,
		Key:      s.Config.RazorpayKeyID,
	})
}

// PlaceRequest is the model of a full checkout submission
type PlaceRequest struct {
	ClerkID       string       `json:"clerkId" validate:"required"`
	ShippingInfo  ShippingInfo `json:"shippingInfo" validate:"required"`
	Total         int64        `json:"total" validate:"required,gt=0"`
	PaymentMethod string       `json:"paymentMethod" validate:"required,oneof=online cod"`
}

func (s *Service) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().WithMessage(err.Error()))
		return
	}

	logger := s.Logger.With(zap.String("ClerkID", req.ClerkID))

	placed, err := s.OrderManager.Place(ctx, PlaceOption{
		ClerkID:       req.ClerkID,
		Shipping:      req.ShippingInfo,
		Total:         req.Total,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			resp.WriteError(w, r, resp.ErrNotFound().WithMessage("Customer not found"))
			return
		}
		logger.Error("Unable to place order",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Failed to place order"))
		return
	}

	// emails settle after the order is written; failures are logged inside
	s.Mailer.SendOrderEmails(ctx, mailer.OrderNotification{
		OrderID:       placed.OrderID,
		CustomerName:  req.ShippingInfo.Name,
		CustomerEmail: req.ShippingInfo.Email,
		TotalAmount:   req.Total,
	})

	resp.WriteResponse(w, r, struct {
		Success         bool   `json:"success"`
		OrderID         string `json:"orderId"`
		OrderStatus     string `json:"orderStatus"`
		RazorpayOrderID string `json:"razorpayOrderId,omitempty"`
		Key             string `json:"key,omitempty"`
	}{
		Success:         true,
		OrderID:         placed.OrderID,
		OrderStatus:     placed.OrderStatus,
		RazorpayOrderID: placed.RazorpayOrderID,
		Key:             s.Config.RazorpayKeyID,
	})
}

// Router will return the routes under order API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.createOrder)
	r.Post("/magazine", s.createMagazineOrder)
	r.Post("/place", s.placeOrder)

	return r
}
