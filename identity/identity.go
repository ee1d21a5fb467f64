// Package identity is the per-user metadata store read by the client
// facing UI for subscription status.
package identity

import "context"

// Store is the metadata capability. MergeMetadata performs a shallow merge
// at the top level: keys in partial overwrite existing keys wholesale
// (nested values are replaced, not merged).
type Store interface {
	GetMetadata(ctx context.Context, userID string) (map[string]interface{}, error)
	MergeMetadata(ctx context.Context, userID string, partial map[string]interface{}) error
}
