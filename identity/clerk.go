package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ClerkStoreOptions contains the configuration for the Clerk-backed Store
type ClerkStoreOptions struct {
	Users  *user.Client
	Logger *zap.Logger
}

type clerkStore struct {
	ClerkStoreOptions
}

// NewClerkStore returns a Store backed by Clerk public user metadata.
func NewClerkStore(option ClerkStoreOptions) (Store, error) {
	if option.Users == nil {
		return nil, fmt.Errorf("nil Users is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &clerkStore{
		ClerkStoreOptions: option,
	}, nil
}

func (s *clerkStore) GetMetadata(ctx context.Context, userID string) (map[string]interface{}, error) {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot fetch user from Clerk")
	}
	metadata := make(map[string]interface{})
	if len(u.PublicMetadata) > 0 {
		if err := json.Unmarshal(u.PublicMetadata, &metadata); err != nil {
			return nil, errors.Wrap(err, "Cannot decode user metadata")
		}
	}
	return metadata, nil
}

// MergeMetadata merges locally then writes the full snapshot back, so the
// nested subscription key is replaced instead of deep-merged by the API.
func (s *clerkStore) MergeMetadata(ctx context.Context, userID string, partial map[string]interface{}) error {
	existing, err := s.GetMetadata(ctx, userID)
	if err != nil {
		return err
	}
	for k, v := range partial {
		existing[k] = v
	}
	raw, err := json.Marshal(existing)
	if err != nil {
		return errors.Wrap(err, "Cannot encode user metadata")
	}
	rawMessage := json.RawMessage(raw)
	if _, err := s.Users.UpdateMetadata(ctx, userID, &user.UpdateMetadataParams{
		PublicMetadata: &rawMessage,
	}); err != nil {
		return errors.Wrap(err, "Cannot update user metadata in Clerk")
	}
	s.Logger.Info("User metadata updated",
		zap.String("UserID", userID),
	)
	return nil
}
