package subscription

import (
	"context"
	"fmt"

	"github.com/beenest/bmg/content"
	"github.com/beenest/bmg/gateway"

	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// billing cycles to schedule when a subscription is created upstream
const defaultTotalCount = 12

// ManagerOptions contains the configuration for the subscription Manager
type ManagerOptions struct {
	Gateway      gateway.Client
	ContentStore *content.Store
	Logger       *zap.Logger
}

// Manager handles gateway subscriptions and their content-store views
type Manager struct {
	ManagerOptions
}

// NewManager will create a subscription Manager
func NewManager(option ManagerOptions) (*Manager, error) {
	if option.Gateway == nil {
		return nil, fmt.Errorf("nil Gateway is invalid")
	}
	if option.ContentStore == nil {
		return nil, fmt.Errorf("nil ContentStore is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Manager{
		ManagerOptions: option,
	}, nil
}

// CreateOption describes the subscription to open on the gateway. The
// contact fields travel as gateway notes so webhook events carry them
// back.
type CreateOption struct {
	PlanID        string
	ClerkID       string
	CustomerEmail string
	CustomerName  string
	CustomerPhone string
}

// Create opens a subscription on the gateway for the given plan.
func (m *Manager) Create(ctx context.Context, opt CreateOption) (*gateway.Subscription, error) {
	if len(opt.PlanID) == 0 {
		return nil, fmt.Errorf("CreateOption.PlanID is required")
	}
	sub, err := m.Gateway.CreateSubscription(ctx, gateway.SubscriptionSpec{
		PlanID:         opt.PlanID,
		TotalCount:     defaultTotalCount,
		Quantity:       1,
		CustomerNotify: true,
		Notes: map[string]interface{}{
			"clerkId": opt.ClerkID,
			"email":   opt.CustomerEmail,
			"name":    opt.CustomerName,
			"phone":   opt.CustomerPhone,
		},
	})
	if err != nil {
		m.Logger.Error("Unable to create subscription on gateway",
			zap.Error(err),
		)
		return nil, extErrors.Wrap(err, "Cannot create subscription")
	}
	return sub, nil
}

// Cancel cancels a subscription on the gateway.
func (m *Manager) Cancel(ctx context.Context, subscriptionID string) error {
	if len(subscriptionID) == 0 {
		return fmt.Errorf("subscriptionID is required")
	}
	if err := m.Gateway.CancelSubscription(ctx, subscriptionID); err != nil {
		m.Logger.Error("Unable to cancel subscription on gateway",
			zap.Error(err),
		)
		return extErrors.Wrap(err, "Cannot cancel subscription")
	}
	return nil
}

// ActiveMemberships lists the active memberships the content store holds
// for a customer.
func (m *Manager) ActiveMemberships(ctx context.Context, clerkID string) ([]content.Membership, error) {
	if len(clerkID) == 0 {
		return nil, fmt.Errorf("clerkID is required")
	}
	return m.ContentStore.ActiveMemberships(ctx, clerkID)
}
