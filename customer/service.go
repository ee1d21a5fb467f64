package customer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/beenest/bmg/content"
	resp "github.com/beenest/bmg/response"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// fallbacks when a cart write arrives before the customer record exists
// and the frontend sent no profile fields
const (
	fallbackEmailDomain = "@beenest.local"
	fallbackName        = "Beenest User"
)

var validate *validator.Validate = validator.New()

// Options contains the configuration for Service router
type Options struct {
	ContentStore *content.Store
	Logger       *zap.Logger
}

// Service is the customer API router
type Service struct {
	Options
}

// NewService will create an instance of the customer API router
func NewService(option Options) (*Service, error) {
	if option.ContentStore == nil {
		return nil, fmt.Errorf("nil ContentStore is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		Options: option,
	}, nil
}

// CreateRequest is the model of an incoming Clerk user sync
type CreateRequest struct {
	ClerkID  string `json:"clerkId" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	ImageURL string `json:"imageUrl"`
}

func (s *Service) createCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().WithMessage(err.Error()))
		return
	}

	logger := s.Logger.With(zap.String("ClerkID", req.ClerkID))

	// "upsert" a customer
	existing, err := s.ContentStore.GetByClerkID(ctx, req.ClerkID)
	if err != nil {
		logger.Error("Unable to look up customer",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Cannot look up customer"))
		return
	}
	if existing != nil {
		resp.WriteResponse(w, r, existing)
		return
	}

	created, err := s.ContentStore.CreateCustomer(ctx, req.ClerkID, req.Email, req.Name, req.ImageURL)
	if err != nil {
		logger.Error("Unable to create customer",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Cannot create customer"))
		return
	}

	resp.WriteResponse(w, r, created)
}

// UpdateRequest is the model of a profile update
type UpdateRequest struct {
	ClerkID      string                 `json:"clerkId" validate:"required"`
	CustomerData content.CustomerFields `json:"customerData"`
}

func (s *Service) updateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().WithMessage(err.Error()))
		return
	}

	logger := s.Logger.With(zap.String("ClerkID", req.ClerkID))

	updated, err := s.ContentStore.UpdateCustomer(ctx, req.ClerkID, req.CustomerData)
	if err != nil {
		logger.Error("Unable to update customer",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Cannot update customer"))
		return
	}

	resp.WriteResponse(w, r, updated)
}

// getOrCreateCustomer resolves the content-store customer for a clerk id,
// creating a placeholder record from whatever profile fields came along.
func (s *Service) getOrCreateCustomer(ctx context.Context, clerkID, email, name, imageURL string) (*content.Customer, error) {
	existing, err := s.ContentStore.GetByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	safeEmail := strings.TrimSpace(email)
	if safeEmail == "" {
		safeEmail = clerkID + fallbackEmailDomain
	}
	safeName := strings.TrimSpace(name)
	if safeName == "" {
		safeName = fallbackName
	}
	return s.ContentStore.CreateCustomer(ctx, clerkID, safeEmail, safeName, imageURL)
}

// CartRequest is the model of a cart or like mutation. The profile fields
// only matter when the customer record does not exist yet.
type CartRequest struct {
	ClerkID    string `json:"clerkId" validate:"required"`
	MagazineID string `json:"magazineId" validate:"required"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	ImageURL   string `json:"imageUrl"`
}

func (s *Service) decodeCartRequest(w http.ResponseWriter, r *http.Request) (*CartRequest, bool) {
	var req CartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().WithMessage("clerkId and magazineId are required"))
		return nil, false
	}
	return &req, true
}

func (s *Service) addToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := s.decodeCartRequest(w, r)
	if !ok {
		return
	}

	logger := s.Logger.With(
		zap.String("ClerkID", req.ClerkID),
		zap.String("MagazineID", req.MagazineID),
	)

	cust, err := s.getOrCreateCustomer(ctx, req.ClerkID, req.Email, req.Name, req.ImageURL)
	if err != nil {
		logger.Error("Unable to resolve customer for cart",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Cannot resolve customer"))
		return
	}

	cart, err := s.ContentStore.AddToCart(ctx, cust.ID, req.MagazineID)
	if err != nil {
		logger.Error("Unable to add magazine to cart",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Failed to add to cart"))
		return
	}

	resp.WriteResponse(w, r, struct {
		Success       bool                   `json:"success"`
		CartMagazines []content.CartMagazine `json:"cartMagazines"`
	}{
		Success:       true,
		CartMagazines: cart,
	})
}

func (s *Service) removeFromCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := s.decodeCartRequest(w, r)
	if !ok {
		return
	}

	logger := s.Logger.With(
		zap.String("ClerkID", req.ClerkID),
		zap.String("MagazineID", req.MagazineID),
	)

	cust, err := s.ContentStore.GetByClerkID(ctx, req.ClerkID)
	if err != nil {
		logger.Error("Unable to look up customer",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Cannot look up customer"))
		return
	}
	if cust == nil {
		resp.WriteError(w, r, resp.ErrNotFound().WithMessage("Customer not found"))
		return
	}

	if err := s.ContentStore.RemoveFromCart(ctx, cust.ID, req.MagazineID); err != nil {
		logger.Error("Unable to remove magazine from cart",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Failed to remove from cart"))
		return
	}

	resp.WriteResponse(w, r, struct {
		Success bool `json:"success"`
	}{
		Success: true,
	})
}

func (s *Service) likeMagazine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := s.decodeCartRequest(w, r)
	if !ok {
		return
	}

	logger := s.Logger.With(
		zap.String("ClerkID", req.ClerkID),
		zap.String("MagazineID", req.MagazineID),
	)

	cust, err := s.ContentStore.GetByClerkID(ctx, req.ClerkID)
	if err != nil {
		logger.Error("Unable to look up customer",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Cannot look up customer"))
		return
	}
	if cust == nil {
		resp.WriteError(w, r, resp.ErrNotFound().WithMessage("Customer not found"))
		return
	}

	liked, err := s.ContentStore.LikeMagazine(ctx, cust.ID, req.MagazineID)
	if err != nil {
		logger.Error("Unable to like magazine",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Failed to like magazine"))
		return
	}

	resp.WriteResponse(w, r, struct {
		Success        bool                   `json:"success"`
		LikedMagazines []content.CartMagazine `json:"likedMagazines"`
	}{
		Success:        true,
		LikedMagazines: liked,
	})
}

// Router will return the routes under customer API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.createCustomer)
	r.Post("/update", s.updateCustomer)
	r.Post("/cart/add", s.addToCart)
	r.Post("/cart/remove", s.removeFromCart)
	r.Post("/like", s.likeMagazine)

	return r
}
