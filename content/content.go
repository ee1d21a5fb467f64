// Package content talks to the Hygraph content backend. Hygraph is the
// secondary system-of-record: customer, order, and membership records live
// there for reporting and admin views.
package content

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// StoreOptions contains the configuration for the content Store
type StoreOptions struct {
	Client *graphql.Client
	Token  string
	Logger *zap.Logger
}

// Store executes queries and mutations against Hygraph
type Store struct {
	StoreOptions
}

// NewStore will create a content Store backed by Hygraph
func NewStore(option StoreOptions) (*Store, error) {
	if option.Client == nil {
		return nil, fmt.Errorf("nil Client is invalid")
	}
	if len(option.Token) == 0 {
		return nil, fmt.Errorf("empty Token is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Store{
		StoreOptions: option,
	}, nil
}

func (s *Store) run(ctx context.Context, document string, vars map[string]interface{}, out interface{}) error {
	req := graphql.NewRequest(document)
	for k, v := range vars {
		req.Var(k, v)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	if err := s.Client.Run(ctx, req, out); err != nil {
		return errors.Wrap(err, "Hygraph request failed")
	}
	return nil
}
