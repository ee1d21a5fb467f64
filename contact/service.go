// Package contact relays contact-form submissions to the admin inbox.
package contact

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/beenest/bmg/mailer"
	resp "github.com/beenest/bmg/response"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate *validator.Validate = validator.New()

// Options contains the configuration for Service router
type Options struct {
	Mailer *mailer.Mailer
	Logger *zap.Logger
}

// Service is the contact form API router
type Service struct {
	Options
}

// NewService will create an instance of the contact API router
func NewService(option Options) (*Service, error) {
	if option.Mailer == nil {
		return nil, fmt.Errorf("nil Mailer is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		Options: option,
	}, nil
}

// Request is the model of a contact form submission
type Request struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (s *Service) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().WithMessage(err.Error()))
		return
	}

	if err := s.Mailer.SendContactEmail(ctx, mailer.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	}); err != nil {
		s.Logger.Error("Unable to relay contact form",
			zap.String("Email", req.Email),
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Mail sending failed"))
		return
	}

	resp.WriteResponse(w, r, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{
		Success: true,
		Message: "Message sent successfully!",
	})
}

// Router will return the routes under contact API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.submit)

	return r
}
