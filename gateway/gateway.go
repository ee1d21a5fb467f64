package gateway

import "context"

// Payment is the gateway's authoritative record of a payment. Amount is in
// the smallest currency unit (paise).
type Payment struct {
	ID             string
	Status         string
	Amount         int64
	Currency       string
	OrderID        string
	SubscriptionID string
	Email          string
	Contact        string
}

// StatusCaptured is the only payment status that may activate anything.
// Authorized/pending/refunded payments carry valid signatures too.
const StatusCaptured = "captured"

// Subscription is the gateway's authoritative record of a subscription.
// All timestamps are gateway-native epoch seconds; zero means not set.
type Subscription struct {
	ID           string
	PlanID       string
	Status       string
	CurrentStart int64
	CurrentEnd   int64
	StartAt      int64
	EndAt        int64
	CreatedAt    int64
}

// OrderSpec describes an order to create on the gateway. Amount is in the
// smallest currency unit.
type OrderSpec struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]interface{}
}

// Order is the gateway's record of a created order.
type Order struct {
	ID       string
	Amount   int64
	Currency string
}

// SubscriptionSpec describes a subscription to create on the gateway.
type SubscriptionSpec struct {
	PlanID         string
	TotalCount     int64
	Quantity       int64
	CustomerNotify bool
	Notes          map[string]interface{}
}

// Client is the capability the rest of the system needs from the payment
// gateway.
type Client interface {
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	FetchSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CreateOrder(ctx context.Context, spec OrderSpec) (*Order, error)
	CreateSubscription(ctx context.Context, spec SubscriptionSpec) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}
