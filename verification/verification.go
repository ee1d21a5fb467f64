// Package verification is the payment-verification and
// subscription-state-reconciliation core. It takes a client-submitted
// checkout confirmation, proves it was issued by the gateway, cross-checks
// it against the gateway's own records, computes the canonical
// subscription state, and fans it out to the identity and content stores.
package verification

import (
	"context"
	"time"

	"github.com/beenest/bmg/config"
	"github.com/beenest/bmg/content"
	"github.com/beenest/bmg/gateway"
	"github.com/beenest/bmg/identity"
	"github.com/beenest/bmg/ledger"
	"github.com/beenest/bmg/signature"

	"go.uber.org/zap"
)

// Canonical lifecycle states
const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const planKeyUnknown = "unknown"

// Confirmation is the client-submitted checkout confirmation. Field names
// follow the gateway's checkout callback payload.
type Confirmation struct {
	PaymentID      string `json:"razorpay_payment_id"`
	SubscriptionID string `json:"razorpay_subscription_id"`
	OrderID        string `json:"razorpay_order_id"`
	Signature      string `json:"razorpay_signature"`
	ClerkID        string `json:"clerkId"`
	PlanID         string `json:"planId"`
	PlanKey        string `json:"planKey"`
	Amount         *int64 `json:"amount"`
}

// SubscriptionMetadata is the canonical subscription snapshot computed
// from gateway ground truth. Timestamps are RFC3339.
type SubscriptionMetadata struct {
	SubscriptionID string  `json:"subscriptionId"`
	PaymentID      string  `json:"paymentId"`
	OrderID        string  `json:"orderId,omitempty"`
	PlanKey        string  `json:"planKey"`
	Status         string  `json:"status"`
	StartedAt      string  `json:"startedAt"`
	ExpiresAt      *string `json:"expiresAt"`
	Amount         int64   `json:"amount"`
}

// GatewayReader is the read-through slice of the gateway the core needs to
// establish ground truth.
type GatewayReader interface {
	FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error)
	FetchSubscription(ctx context.Context, subscriptionID string) (*gateway.Subscription, error)
}

// MembershipUpserter is the slice of the content store the core writes to.
type MembershipUpserter interface {
	UpsertMembership(ctx context.Context, m content.MembershipUpsert) error
}

// SnapshotRecorder keeps the local reconciliation ledger current.
type SnapshotRecorder interface {
	Record(ctx context.Context, snap ledger.Snapshot) error
}

// ManagerOptions contains the configuration for the verification Manager
type ManagerOptions struct {
	Config        *config.Config
	Gateway       GatewayReader
	IdentityStore identity.Store
	ContentStore  MembershipUpserter
	Ledger        SnapshotRecorder
	Logger        *zap.Logger
}

// Manager orchestrates one verification call end to end
type Manager struct {
	ManagerOptions
	now func() time.Time
}

// NewManager will create a verification Manager
func NewManager(option ManagerOptions) (*Manager, error) {
	if option.Config == nil {
		return nil, errNilOption("Config")
	}
	if option.Gateway == nil {
		return nil, errNilOption("Gateway")
	}
	if option.IdentityStore == nil {
		return nil, errNilOption("IdentityStore")
	}
	if option.ContentStore == nil {
		return nil, errNilOption("ContentStore")
	}
	if option.Logger == nil {
		return nil, errNilOption("Logger")
	}
	return &Manager{
		ManagerOptions: option,
		now:            time.Now,
	}, nil
}

// VerifyAndActivate runs the ordered verification gates and, once they all
// pass, projects the canonical state into the identity store (mandatory)
// and the content store (best-effort). No external state is mutated before
// the signature gate passes.
func (m *Manager) VerifyAndActivate(ctx context.Context, c Confirmation) (*SubscriptionMetadata, error) {
	logger := m.Logger.With(
		zap.String("ClerkID", c.ClerkID),
		zap.String("PaymentID", c.PaymentID),
	)

	if c.ClerkID == "" || c.PaymentID == "" || c.Signature == "" {
		return nil, errMissingFields()
	}

	secret := m.Config.CheckoutSecret()
	if secret == "" {
		logger.Error("Razorpay key secret is not configured")
		return nil, errServerMisconfigured()
	}

	candidates := signature.CheckoutCandidates(c.OrderID, c.PaymentID, c.SubscriptionID)
	if len(candidates) == 0 {
		return nil, errMissingFields()
	}

	// Trust boundary. Nothing below runs on unverified input.
	if !signature.Verify(secret, candidates, c.Signature) {
		logger.Warn("Checkout signature did not match any candidate payload")
		return nil, errInvalidSignature()
	}

	payment, err := m.Gateway.FetchPayment(ctx, c.PaymentID)
	if err != nil {
		logger.Error("Unable to fetch payment from gateway",
			zap.Error(err),
		)
		return nil, errGatewayLookupFailed()
	}

	// A validly signed confirmation can still reference a pending or
	// refunded payment.
	if payment.Status != gateway.StatusCaptured {
		logger.Warn("Payment is not captured",
			zap.String("PaymentStatus", payment.Status),
		)
		return nil, errPaymentNotCaptured()
	}

	subscriptionID := c.SubscriptionID
	if subscriptionID == "" {
		subscriptionID = payment.SubscriptionID
	}
	if subscriptionID == "" {
		return nil, errMissingSubscription()
	}
	logger = logger.With(zap.String("SubscriptionID", subscriptionID))

	sub, err := m.Gateway.FetchSubscription(ctx, subscriptionID)
	if err != nil {
		logger.Error("Unable to fetch subscription from gateway",
			zap.Error(err),
		)
		return nil, errGatewayLookupFailed()
	}

	metadata := m.canonicalState(c, payment, sub)

	// Mandatory write: the client-facing UI reads this store right after
	// the response, so the operation fails if this write fails.
	if err := m.IdentityStore.MergeMetadata(ctx, c.ClerkID, map[string]interface{}{
		"subscription": metadata,
	}); err != nil {
		logger.Error("Unable to merge subscription metadata into identity store",
			zap.Error(err),
		)
		return nil, errIdentityWriteFailed()
	}

	// Best-effort write: divergence here is an accepted, monitored
	// inconsistency window, reconciled by the next webhook event or
	// verification call.
	contentSynced := true
	if err := m.ContentStore.UpsertMembership(ctx, content.MembershipUpsert{
		ClerkID:        c.ClerkID,
		SubscriptionID: metadata.SubscriptionID,
		PaymentID:      metadata.PaymentID,
		OrderID:        metadata.OrderID,
		PlanKey:        metadata.PlanKey,
		Status:         metadata.Status,
		Amount:         metadata.Amount,
		StartDate:      metadata.StartedAt,
		EndDate:        metadata.ExpiresAt,
	}); err != nil {
		contentSynced = false
		logger.Error("Unable to upsert membership in content store",
			zap.Error(err),
		)
	}

	if m.Ledger != nil {
		if err := m.Ledger.Record(ctx, ledger.Snapshot{
			SubscriptionID: metadata.SubscriptionID,
			ClerkID:        c.ClerkID,
			PaymentID:      metadata.PaymentID,
			OrderID:        metadata.OrderID,
			PlanKey:        metadata.PlanKey,
			Status:         metadata.Status,
			StartedAt:      metadata.StartedAt,
			ExpiresAt:      metadata.ExpiresAt,
			Amount:         metadata.Amount,
			Source:         ledger.SourceVerification,
			ContentSynced:  contentSynced,
		}); err != nil {
			logger.Error("Unable to record membership snapshot",
				zap.Error(err),
			)
		}
	}

	logger.Info("Payment verified and subscription state propagated",
		zap.String("Status", metadata.Status),
	)

	return metadata, nil
}

// canonicalState resolves the subscription snapshot from gateway ground
// truth per the documented first-available-of rules.
func (m *Manager) canonicalState(c Confirmation, payment *gateway.Payment, sub *gateway.Subscription) *SubscriptionMetadata {
	now := m.now()

	startedAt := firstEpoch(sub.CurrentStart, sub.StartAt, sub.CreatedAt)
	started := now
	if startedAt != 0 {
		started = time.Unix(startedAt, 0)
	}

	var expires *time.Time
	if epoch := firstEpoch(sub.CurrentEnd, sub.EndAt); epoch != 0 {
		t := time.Unix(epoch, 0)
		expires = &t
	}

	var status string
	switch sub.Status {
	case StatusCancelled:
		status = StatusCancelled
	case StatusCompleted:
		status = StatusCompleted
	default:
		// active strictly requires a known, future expiry; the gateway's
		// own status string does not override this.
		if expires != nil && expires.After(now) {
			status = StatusActive
		} else {
			status = StatusExpired
		}
	}

	planKey := c.PlanKey
	if planKey == "" {
		planKey = c.PlanID
	}
	if planKey == "" {
		planKey = sub.PlanID
	}
	if planKey == "" {
		planKey = planKeyUnknown
	}

	amount := payment.Amount / 100 // paise to rupees, floored
	if c.Amount != nil {
		amount = *c.Amount
	}

	orderID := c.OrderID
	if orderID == "" {
		orderID = payment.OrderID
	}
	if orderID == "" {
		orderID = sub.ID
	}

	metadata := &SubscriptionMetadata{
		SubscriptionID: sub.ID,
		PaymentID:      payment.ID,
		OrderID:        orderID,
		PlanKey:        planKey,
		Status:         status,
		StartedAt:      started.UTC().Format(time.RFC3339),
		Amount:         amount,
	}
	if expires != nil {
		iso := expires.UTC().Format(time.RFC3339)
		metadata.ExpiresAt = &iso
	}
	return metadata
}

func firstEpoch(candidates ...int64) int64 {
	for _, epoch := range candidates {
		if epoch != 0 {
			return epoch
		}
	}
	return 0
}
