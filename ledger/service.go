package ledger

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	resp "github.com/beenest/bmg/response"

	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

// ServiceOptions contains the configuration for Service router
type ServiceOptions struct {
	LedgerManager *Manager
	Logger        *zap.Logger
}

// Service is the admin reconciliation API router
type Service struct {
	ServiceOptions
}

// NewService will create an instance of the admin reconciliation router
func NewService(option ServiceOptions) (*Service, error) {
	if option.LedgerManager == nil {
		return nil, fmt.Errorf("nil LedgerManager is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		ServiceOptions: option,
	}, nil
}

// parseListQuery maps the admin listing query parameters onto a ListOption.
func parseListQuery(query url.Values) (ListOption, error) {
	opt := ListOption{
		ClerkID: query.Get("clerkId"),
		Limit:   50,
	}

	if v := query.Get("diverged"); v != "" {
		diverged, err := strconv.ParseBool(v)
		if err != nil {
			return ListOption{}, fmt.Errorf("invalid diverged param")
		}
		opt.OnlyDiverged = diverged
	}

	if v := query.Get("before"); v != "" {
		parsedTime, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return ListOption{}, fmt.Errorf("invalid before param")
		}
		opt.Before = parsedTime
	}

	return opt, nil
}

func (s *Service) listSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opt, err := parseListQuery(r.URL.Query())
	if err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().WithMessage("Invalid query parameters"))
		return
	}
	results, err := s.LedgerManager.List(ctx, opt)
	if err != nil {
		s.Logger.Error("Unable to list membership snapshots",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().WithMessage("Cannot list membership snapshots"))
		return
	}

	resp.WriteResponse(w, r, results)
}

// Router will return the routes under the admin reconciliation API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/memberships", s.listSnapshots)

	return r
}
