// Package webhook reconciles asynchronously pushed gateway events into the
// content store. It is the sibling of the verification core: the same
// HMAC trust boundary, but signed over the full raw request body, and the
// state transition applies to the content store only.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/beenest/bmg/config"
	"github.com/beenest/bmg/signature"
	"github.com/beenest/bmg/verification"

	"go.uber.org/zap"
)

// ErrInvalidSignature rejects the event without acknowledging it; the
// gateway will retry.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// transition maps a gateway event name to the membership state it implies.
// Events outside this table are acknowledged and ignored so the gateway
// does not retry them.
type transition struct {
	planStatus string
	terminal   bool // terminal events stamp endDate with the current time
}

var transitions = map[string]transition{
	"subscription.activated": {planStatus: verification.StatusActive},
	"subscription.charged":   {planStatus: verification.StatusActive},
	"subscription.cancelled": {planStatus: verification.StatusCancelled, terminal: true},
	"subscription.completed": {planStatus: verification.StatusExpired, terminal: true},
}

// envelope is the gateway-defined event body.
type envelope struct {
	Event   string `json:"event"`
	Payload struct {
		Subscription struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
}

// Result is the acknowledgement returned to the gateway.
type Result struct {
	Status string `json:"status"`
}

const (
	statusOK      = "ok"
	statusIgnored = "ignored"
)

// MembershipUpdater is the slice of the content store the reconciler
// writes to.
type MembershipUpdater interface {
	UpdateMembershipStatus(ctx context.Context, subscriptionID, planStatus string, endDate *string) error
}

// SnapshotUpdater keeps the local reconciliation ledger current.
type SnapshotUpdater interface {
	UpdateStatus(ctx context.Context, subscriptionID, status string, expiresAt *string) error
}

// ManagerOptions contains the configuration for the webhook Manager
type ManagerOptions struct {
	Config       *config.Config
	ContentStore MembershipUpdater
	Ledger       SnapshotUpdater
	Logger       *zap.Logger
}

// Manager applies gateway events to the content store
type Manager struct {
	ManagerOptions
	now func() time.Time
}

// NewManager will create a webhook Manager
func NewManager(option ManagerOptions) (*Manager, error) {
	if option.Config == nil {
		return nil, fmt.Errorf("nil Config is invalid")
	}
	if option.ContentStore == nil {
		return nil, fmt.Errorf("nil ContentStore is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Manager{
		ManagerOptions: option,
		now:            time.Now,
	}, nil
}

// HandleEvent verifies and applies one pushed gateway event. The HMAC is
// computed over the exact raw body bytes; altering a single byte without
// re-signing must reject. Repeated delivery of the same event is safe:
// the upsert is keyed by subscription id and fully overwrites planStatus
// and endDate.
func (m *Manager) HandleEvent(ctx context.Context, rawBody []byte, signatureHeader string) (*Result, error) {
	if !signature.Verify(m.Config.RazorpayWebhookSecret, []string{string(rawBody)}, signatureHeader) {
		m.Logger.Warn("Webhook signature mismatch")
		return nil, ErrInvalidSignature
	}

	var event envelope
	if err := json.Unmarshal(rawBody, &event); err != nil {
		// signed but unparseable; acknowledge so the gateway stops retrying
		m.Logger.Warn("Webhook body is not valid JSON",
			zap.Error(err),
		)
		return &Result{Status: statusIgnored}, nil
	}

	subscriptionID := event.Payload.Subscription.Entity.ID
	if event.Event == "" || subscriptionID == "" {
		return &Result{Status: statusIgnored}, nil
	}

	logger := m.Logger.With(
		zap.String("Event", event.Event),
		zap.String("SubscriptionID", subscriptionID),
	)

	t, ok := transitions[event.Event]
	if !ok {
		logger.Info("Ignoring webhook event outside the transition table")
		return &Result{Status: statusIgnored}, nil
	}

	var endDate *string
	if t.terminal {
		iso := m.now().UTC().Format(time.RFC3339)
		endDate = &iso
	}

	if err := m.ContentStore.UpdateMembershipStatus(ctx, subscriptionID, t.planStatus, endDate); err != nil {
		logger.Error("Unable to update membership in content store",
			zap.Error(err),
		)
		return nil, err
	}

	if m.Ledger != nil {
		if err := m.Ledger.UpdateStatus(ctx, subscriptionID, t.planStatus, endDate); err != nil {
			logger.Error("Unable to update membership snapshot",
				zap.Error(err),
			)
		}
	}

	logger.Info("Membership updated from webhook",
		zap.String("PlanStatus", t.planStatus),
	)
	return &Result{Status: statusOK}, nil
}
