package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// clerkAPIStub mimics the two user endpoints the store touches and records
// what got written back.
type clerkAPIStub struct {
	metadata string

	getCalls   int
	patchCalls int
	patchBody  map[string]interface{}
}

func (c *clerkAPIStub) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users/user_1":
			c.getCalls++
			w.Write([]byte(`{"id":"user_1","object":"user","public_metadata":` + c.metadata + `}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/users/user_1/metadata":
			c.patchCalls++
			require.NoError(t, json.NewDecoder(r.Body).Decode(&c.patchBody))
			w.Write([]byte(`{"id":"user_1","object":"user"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"errors":[{"message":"not found"}]}`))
		}
	})
}

func newClerkStore(t *testing.T, stub *clerkAPIStub) Store {
	t.Helper()
	server := httptest.NewServer(stub.handler(t))
	t.Cleanup(server.Close)

	config := &clerk.ClientConfig{}
	config.Key = clerk.String("sk_test_1")
	config.URL = clerk.String(server.URL)

	store, err := NewClerkStore(ClerkStoreOptions{
		Users:  user.NewClient(config),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	return store
}

func TestGetMetadata(t *testing.T) {
	stub := &clerkAPIStub{metadata: `{"role":"member","subscription":{"status":"expired"}}`}
	store := newClerkStore(t, stub)

	metadata, err := store.GetMetadata(context.Background(), "user_1")
	require.NoError(t, err)
	require.Equal(t, "member", metadata["role"])
	require.Equal(t, 1, stub.getCalls)
}

func TestMergeMetadataReplacesSubscriptionKeepsSiblings(t *testing.T) {
	stub := &clerkAPIStub{
		metadata: `{"role":"member","subscription":{"status":"expired","planKey":"monthly","orderId":"order_old"}}`,
	}
	store := newClerkStore(t, stub)

	err := store.MergeMetadata(context.Background(), "user_1", map[string]interface{}{
		"subscription": map[string]interface{}{
			"status":  "active",
			"planKey": "annual",
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, stub.patchCalls)

	written, ok := stub.patchBody["public_metadata"].(map[string]interface{})
	require.True(t, ok)

	// untouched top-level keys survive the merge
	require.Equal(t, "member", written["role"])

	// the subscription object is replaced wholesale, not deep-merged
	sub, ok := written["subscription"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "active", sub["status"])
	require.Equal(t, "annual", sub["planKey"])
	require.NotContains(t, sub, "orderId")
}

func TestMergeMetadataEmptyExisting(t *testing.T) {
	stub := &clerkAPIStub{metadata: `{}`}
	store := newClerkStore(t, stub)

	err := store.MergeMetadata(context.Background(), "user_1", map[string]interface{}{
		"subscription": map[string]interface{}{"status": "active"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, stub.patchCalls)
	require.Contains(t, stub.patchBody["public_metadata"], "subscription")
}

func TestMergeMetadataFetchFailureSkipsWrite(t *testing.T) {
	stub := &clerkAPIStub{metadata: `{}`}
	store := newClerkStore(t, stub)

	err := store.MergeMetadata(context.Background(), "user_unknown", map[string]interface{}{
		"subscription": map[string]interface{}{"status": "active"},
	})
	require.Error(t, err)
	require.Zero(t, stub.patchCalls)
}
