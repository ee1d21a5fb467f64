package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/machinebox/graphql"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type graphqlCall struct {
	authorization string
	query         string
	variables     map[string]interface{}
}

// newTestStore spins up a stub GraphQL endpoint that records the request
// and replies with the given data payload.
func newTestStore(t *testing.T, data string, calls *[]graphqlCall) *Store {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*calls = append(*calls, graphqlCall{
			authorization: r.Header.Get("Authorization"),
			query:         req.Query,
			variables:     req.Variables,
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":` + data + `}`))
	}))
	t.Cleanup(server.Close)

	store, err := NewStore(StoreOptions{
		Client: graphql.NewClient(server.URL),
		Token:  "hygraph_token",
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	return store
}

func TestMagazineLookup(t *testing.T) {
	var calls []graphqlCall
	store := newTestStore(t, `{"magazine":{"id":"mag_1","title":"August Issue","price":250}}`, &calls)

	mag, err := store.Magazine(context.Background(), "mag_1")
	require.NoError(t, err)
	require.NotNil(t, mag)
	require.Equal(t, "August Issue", mag.Title)
	require.EqualValues(t, 250, mag.Price)

	require.Len(t, calls, 1)
	require.Equal(t, "Bearer hygraph_token", calls[0].authorization)
	require.Equal(t, "mag_1", calls[0].variables["id"])
}

func TestMagazineMissing(t *testing.T) {
	var calls []graphqlCall
	store := newTestStore(t, `{"magazine":null}`, &calls)

	mag, err := store.Magazine(context.Background(), "mag_gone")
	require.NoError(t, err)
	require.Nil(t, mag)
}

func TestUpsertMembershipVariables(t *testing.T) {
	var calls []graphqlCall
	store := newTestStore(t, `{"upsertMembership":{"id":"m_1"},"publishMembership":{"id":"m_1"}}`, &calls)

	end := "2026-09-01T00:00:00Z"
	err := store.UpsertMembership(context.Background(), MembershipUpsert{
		ClerkID:        "user_1",
		SubscriptionID: "sub_1",
		PaymentID:      "pay_1",
		PlanKey:        "annual",
		Status:         "active",
		Amount:         500,
		StartDate:      "2026-08-01T00:00:00Z",
		EndDate:        &end,
	})
	require.NoError(t, err)

	require.Len(t, calls, 1)
	vars := calls[0].variables
	require.Equal(t, "sub_1", vars["razorpaySubscriptionId"])
	require.Equal(t, "pay_1", vars["razorpayPaymentId"])
	require.Equal(t, "annual", vars["planId"])
	require.Equal(t, "active", vars["planStatus"])
	require.Equal(t, end, vars["endDate"])
}

func TestUpdateMembershipStatusVariables(t *testing.T) {
	var calls []graphqlCall
	store := newTestStore(t, `{"updateMembership":{"id":"m_1","planStatus":"cancelled"},"publishMembership":{"id":"m_1"}}`, &calls)

	end := "2026-08-15T00:00:00Z"
	err := store.UpdateMembershipStatus(context.Background(), "sub_1", "cancelled", &end)
	require.NoError(t, err)

	require.Len(t, calls, 1)
	vars := calls[0].variables
	require.Equal(t, "sub_1", vars["razorpaySubscriptionId"])
	require.Equal(t, "cancelled", vars["planStatus"])
	require.Equal(t, end, vars["endDate"])
}

func TestAddToCartReturnsCart(t *testing.T) {
	var calls []graphqlCall
	store := newTestStore(t, `{"updateCustomer":{"id":"cust_1","cartMagazines":[{"id":"mag_1","name":"August Issue"}]},"publishCustomer":{"id":"cust_1"}}`, &calls)

	cart, err := store.AddToCart(context.Background(), "cust_1", "mag_1")
	require.NoError(t, err)
	require.Len(t, cart, 1)
	require.Equal(t, "August Issue", cart[0].Name)

	require.Len(t, calls, 1)
	require.Contains(t, calls[0].query, "cartMagazines")
	require.Contains(t, calls[0].query, "publishCustomer")
	require.Equal(t, "cust_1", calls[0].variables["customerId"])
	require.Equal(t, "mag_1", calls[0].variables["magazineId"])
}

func TestRemoveFromCartVariables(t *testing.T) {
	var calls []graphqlCall
	store := newTestStore(t, `{"updateCustomer":{"id":"cust_1"},"publishCustomer":{"id":"cust_1"}}`, &calls)

	err := store.RemoveFromCart(context.Background(), "cust_1", "mag_1")
	require.NoError(t, err)

	require.Len(t, calls, 1)
	require.Contains(t, calls[0].query, "disconnect")
	require.Equal(t, "cust_1", calls[0].variables["customerId"])
	require.Equal(t, "mag_1", calls[0].variables["magazineId"])
}

func TestLikeMagazineReturnsLikedList(t *testing.T) {
	var calls []graphqlCall
	store := newTestStore(t, `{"updateCustomer":{"id":"cust_1","likedMagazines":[{"id":"mag_1","name":"August Issue"},{"id":"mag_2","name":"July Issue"}]},"publishCustomer":{"id":"cust_1"}}`, &calls)

	liked, err := store.LikeMagazine(context.Background(), "cust_1", "mag_1")
	require.NoError(t, err)
	require.Len(t, liked, 2)

	require.Len(t, calls, 1)
	require.Contains(t, calls[0].query, "likedMagazines")
	require.Equal(t, "mag_1", calls[0].variables["magazineId"])
}

func TestActiveMembershipsEmpty(t *testing.T) {
	var calls []graphqlCall
	store := newTestStore(t, `{"memberships":[]}`, &calls)

	memberships, err := store.ActiveMemberships(context.Background(), "user_1")
	require.NoError(t, err)
	require.NotNil(t, memberships)
	require.Empty(t, memberships)
}

func TestGraphqlErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errors":[{"message":"unauthorized"}]}`))
	}))
	t.Cleanup(server.Close)

	store, err := NewStore(StoreOptions{
		Client: graphql.NewClient(server.URL),
		Token:  "bad_token",
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	_, err = store.Magazine(context.Background(), "mag_1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unauthorized")
}
