package verification

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/beenest/bmg/config"
	"github.com/beenest/bmg/content"
	"github.com/beenest/bmg/gateway"
	"github.com/beenest/bmg/ledger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test_secret"

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

type fakeGateway struct {
	payment    *gateway.Payment
	paymentErr error
	sub        *gateway.Subscription
	subErr     error

	paymentCalls int
	subCalls     int
	fetchedSubID string
}

func (f *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error) {
	f.paymentCalls++
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	return f.payment, nil
}

func (f *fakeGateway) FetchSubscription(ctx context.Context, subscriptionID string) (*gateway.Subscription, error) {
	f.subCalls++
	f.fetchedSubID = subscriptionID
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.sub, nil
}

type fakeIdentity struct {
	metadata map[string]interface{}
	mergeErr error

	mergeCalls  int
	lastPartial map[string]interface{}
}

func (f *fakeIdentity) GetMetadata(ctx context.Context, userID string) (map[string]interface{}, error) {
	if f.metadata == nil {
		return map[string]interface{}{}, nil
	}
	return f.metadata, nil
}

func (f *fakeIdentity) MergeMetadata(ctx context.Context, userID string, partial map[string]interface{}) error {
	f.mergeCalls++
	f.lastPartial = partial
	if f.mergeErr != nil {
		return f.mergeErr
	}
	if f.metadata == nil {
		f.metadata = map[string]interface{}{}
	}
	for k, v := range partial {
		f.metadata[k] = v
	}
	return nil
}

type fakeContent struct {
	err   error
	calls int
	last  content.MembershipUpsert
}

func (f *fakeContent) UpsertMembership(ctx context.Context, m content.MembershipUpsert) error {
	f.calls++
	f.last = m
	return f.err
}

type fakeLedger struct {
	snaps []ledger.Snapshot
	err   error
}

func (f *fakeLedger) Record(ctx context.Context, snap ledger.Snapshot) error {
	f.snaps = append(f.snaps, snap)
	return f.err
}

type fixture struct {
	manager  *Manager
	gateway  *fakeGateway
	identity *fakeIdentity
	content  *fakeContent
	ledger   *fakeLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gateway: &fakeGateway{
			payment: &gateway.Payment{
				ID:             "pay_1",
				Status:         gateway.StatusCaptured,
				Amount:         50000,
				SubscriptionID: "sub_1",
			},
			sub: &gateway.Subscription{
				ID:           "sub_1",
				PlanID:       "plan_monthly",
				Status:       "active",
				CurrentStart: testNow.Unix(),
				CurrentEnd:   testNow.Add(10 * 24 * time.Hour).Unix(),
				CreatedAt:    testNow.Add(-time.Hour).Unix(),
			},
		},
		identity: &fakeIdentity{},
		content:  &fakeContent{},
		ledger:   &fakeLedger{},
	}
	manager, err := NewManager(ManagerOptions{
		Config: &config.Config{
			Mode:                  config.ModeTest,
			RazorpayTestKeySecret: testSecret,
		},
		Gateway:       f.gateway,
		IdentityStore: f.identity,
		ContentStore:  f.content,
		Ledger:        f.ledger,
		Logger:        zap.NewNop(),
	})
	require.NoError(t, err)
	manager.now = func() time.Time { return testNow }
	f.manager = manager
	return f
}

func subscriptionConfirmation() Confirmation {
	return Confirmation{
		ClerkID:        "user_1",
		PaymentID:      "pay_1",
		SubscriptionID: "sub_1",
		Signature:      sign("pay_1|sub_1"),
	}
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, kind, vErr.Kind)
}

func TestVerifyAndActivateSuccess(t *testing.T) {
	f := newFixture(t)

	metadata, err := f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
	require.NoError(t, err)

	require.Equal(t, "sub_1", metadata.SubscriptionID)
	require.Equal(t, "pay_1", metadata.PaymentID)
	require.Equal(t, StatusActive, metadata.Status)
	require.Equal(t, int64(500), metadata.Amount, "50000 paise floors to 500")
	require.Equal(t, "plan_monthly", metadata.PlanKey)
	require.Equal(t, testNow.Format(time.RFC3339), metadata.StartedAt)
	require.NotNil(t, metadata.ExpiresAt)
	require.Equal(t, testNow.Add(10*24*time.Hour).Format(time.RFC3339), *metadata.ExpiresAt)

	require.Equal(t, 1, f.identity.mergeCalls)
	require.Same(t, metadata, f.identity.lastPartial["subscription"],
		"subscription key must be replaced wholesale")
	require.Equal(t, 1, f.content.calls)
	require.Equal(t, "sub_1", f.content.last.SubscriptionID)
	require.Equal(t, StatusActive, f.content.last.Status)

	require.Len(t, f.ledger.snaps, 1)
	require.True(t, f.ledger.snaps[0].ContentSynced)
	require.Equal(t, ledger.SourceVerification, f.ledger.snaps[0].Source)
}

func TestVerifyAndActivateExpiredWindow(t *testing.T) {
	f := newFixture(t)
	f.gateway.sub.CurrentEnd = testNow.Add(-time.Hour).Unix()

	metadata, err := f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
	require.NoError(t, err)
	require.Equal(t, StatusExpired, metadata.Status)
}

func TestVerifyAndActivateNoExpiryNeverActive(t *testing.T) {
	f := newFixture(t)
	f.gateway.sub.CurrentEnd = 0
	f.gateway.sub.EndAt = 0
	f.gateway.sub.Status = "active" // the gateway's own claim does not override

	metadata, err := f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
	require.NoError(t, err)
	require.Equal(t, StatusExpired, metadata.Status)
	require.Nil(t, metadata.ExpiresAt)
}

func TestVerifyAndActivateCancelledStatus(t *testing.T) {
	f := newFixture(t)
	f.gateway.sub.Status = "cancelled"

	metadata, err := f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, metadata.Status)
}

func TestVerifyAndActivateInvalidSignatureNoSideEffects(t *testing.T) {
	f := newFixture(t)
	c := subscriptionConfirmation()
	c.Signature = sign("something|else")

	_, err := f.manager.VerifyAndActivate(context.Background(), c)
	requireKind(t, err, KindInvalidSignature)

	require.Zero(t, f.gateway.paymentCalls)
	require.Zero(t, f.identity.mergeCalls)
	require.Zero(t, f.content.calls)
	require.Empty(t, f.ledger.snaps)
}

func TestVerifyAndActivateMissingFields(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*Confirmation)
	}{
		{"no clerk id", func(c *Confirmation) { c.ClerkID = "" }},
		{"no payment id", func(c *Confirmation) { c.PaymentID = "" }},
		{"no signature", func(c *Confirmation) { c.Signature = "" }},
		{"neither order nor subscription id", func(c *Confirmation) {
			c.SubscriptionID = ""
			c.OrderID = ""
		}},
	}

	for _, tt := range tests {
		c := subscriptionConfirmation()
		tt.mutate(&c)
		_, err := f.manager.VerifyAndActivate(context.Background(), c)
		requireKind(t, err, KindMissingFields)
	}
	require.Zero(t, f.identity.mergeCalls)
}

func TestVerifyAndActivateServerMisconfigured(t *testing.T) {
	f := newFixture(t)
	f.manager.Config.RazorpayTestKeySecret = ""

	_, err := f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
	requireKind(t, err, KindServerMisconfigured)
}

func TestVerifyAndActivatePaymentNotCaptured(t *testing.T) {
	f := newFixture(t)
	f.gateway.payment.Status = "pending"

	_, err := f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
	requireKind(t, err, KindPaymentNotCaptured)
	require.Zero(t, f.identity.mergeCalls)
	require.Zero(t, f.content.calls)
}

func TestVerifyAndActivateGatewayLookupFailures(t *testing.T) {
	f := newFixture(t)
	f.gateway.paymentErr = fmt.Errorf("gateway down")
	_, err := f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
	requireKind(t, err, KindGatewayLookupFailed)

	f = newFixture(t)
	f.gateway.subErr = fmt.Errorf("gateway down")
	_, err = f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
	requireKind(t, err, KindGatewayLookupFailed)
}

func TestVerifyAndActivateResolvesSubscriptionFromPayment(t *testing.T) {
	f := newFixture(t)
	c := Confirmation{
		ClerkID:   "user_1",
		PaymentID: "pay_1",
		OrderID:   "order_1",
		Signature: sign("order_1|pay_1"),
	}

	metadata, err := f.manager.VerifyAndActivate(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, "sub_1", f.gateway.fetchedSubID, "payment's linked subscription is the fallback")
	require.Equal(t, "order_1", metadata.OrderID)
}

func TestVerifyAndActivateSubscriptionTakesPrecedence(t *testing.T) {
	f := newFixture(t)
	f.gateway.payment.SubscriptionID = "sub_other"
	c := subscriptionConfirmation()
	c.OrderID = "order_1"
	c.Signature = sign("order_1|pay_1") // any candidate match is enough

	_, err := f.manager.VerifyAndActivate(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, "sub_1", f.gateway.fetchedSubID, "client-submitted subscription id wins")
}

func TestVerifyAndActivateMissingSubscription(t *testing.T) {
	f := newFixture(t)
	f.gateway.payment.SubscriptionID = ""
	c := Confirmation{
		ClerkID:   "user_1",
		PaymentID: "pay_1",
		OrderID:   "order_1",
		Signature: sign("order_1|pay_1"),
	}

	_, err := f.manager.VerifyAndActivate(context.Background(), c)
	requireKind(t, err, KindMissingSubscription)
}

func TestVerifyAndActivateIdentityWriteFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.identity.mergeErr = fmt.Errorf("identity store down")

	_, err := f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
	requireKind(t, err, KindIdentityWriteFailed)
}

func TestVerifyAndActivateContentWriteFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.content.err = fmt.Errorf("content store down")

	metadata, err := f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
	require.NoError(t, err)
	require.Equal(t, StatusActive, metadata.Status)
	require.Equal(t, 1, f.identity.mergeCalls)

	require.Len(t, f.ledger.snaps, 1)
	require.False(t, f.ledger.snaps[0].ContentSynced, "divergence must be observable")
}

func TestVerifyAndActivateIsDeterministic(t *testing.T) {
	f := newFixture(t)
	c := subscriptionConfirmation()

	first, err := f.manager.VerifyAndActivate(context.Background(), c)
	require.NoError(t, err)
	second, err := f.manager.VerifyAndActivate(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCanonicalStateResolution(t *testing.T) {
	f := newFixture(t)

	t.Run("client amount wins", func(t *testing.T) {
		c := subscriptionConfirmation()
		amount := int64(999)
		c.Amount = &amount
		metadata, err := f.manager.VerifyAndActivate(context.Background(), c)
		require.NoError(t, err)
		require.Equal(t, int64(999), metadata.Amount)
	})

	t.Run("plan key resolution order", func(t *testing.T) {
		c := subscriptionConfirmation()
		c.PlanKey = "annual"
		c.PlanID = "plan_from_client"
		metadata, err := f.manager.VerifyAndActivate(context.Background(), c)
		require.NoError(t, err)
		require.Equal(t, "annual", metadata.PlanKey)

		c.PlanKey = ""
		metadata, err = f.manager.VerifyAndActivate(context.Background(), c)
		require.NoError(t, err)
		require.Equal(t, "plan_from_client", metadata.PlanKey)

		c.PlanID = ""
		metadata, err = f.manager.VerifyAndActivate(context.Background(), c)
		require.NoError(t, err)
		require.Equal(t, "plan_monthly", metadata.PlanKey)

		f.gateway.sub.PlanID = ""
		metadata, err = f.manager.VerifyAndActivate(context.Background(), c)
		require.NoError(t, err)
		require.Equal(t, "unknown", metadata.PlanKey)
	})

	t.Run("started at falls back through start and created", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.sub.CurrentStart = 0
		f.gateway.sub.StartAt = testNow.Add(-48 * time.Hour).Unix()
		metadata, err := f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
		require.NoError(t, err)
		require.Equal(t, testNow.Add(-48*time.Hour).Format(time.RFC3339), metadata.StartedAt)

		f.gateway.sub.StartAt = 0
		metadata, err = f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
		require.NoError(t, err)
		require.Equal(t, testNow.Add(-time.Hour).Format(time.RFC3339), metadata.StartedAt)

		f.gateway.sub.CreatedAt = 0
		metadata, err = f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
		require.NoError(t, err)
		require.Equal(t, testNow.Format(time.RFC3339), metadata.StartedAt)
	})

	t.Run("order id falls back to subscription id", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.payment.OrderID = ""
		metadata, err := f.manager.VerifyAndActivate(context.Background(), subscriptionConfirmation())
		require.NoError(t, err)
		require.Equal(t, "sub_1", metadata.OrderID)
	})
}
