package gateway

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	razorpay "github.com/razorpay/razorpay-go"
)

// razorpayClient implements Client over the official SDK. The SDK speaks in
// map[string]interface{}; decoding into typed records happens here so the
// core never touches raw maps. The SDK does not take a context; requests
// run on its own HTTP client timeouts.
type razorpayClient struct {
	api *razorpay.Client
}

// NewRazorpayClient returns a Client backed by the Razorpay REST API.
func NewRazorpayClient(api *razorpay.Client) Client {
	return &razorpayClient{api: api}
}

func (c *razorpayClient) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	body, err := c.api.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot fetch payment from Razorpay")
	}
	return &Payment{
		ID:             asString(body, "id"),
		Status:         asString(body, "status"),
		Amount:         asInt64(body, "amount"),
		Currency:       asString(body, "currency"),
		OrderID:        asString(body, "order_id"),
		SubscriptionID: asString(body, "subscription_id"),
		Email:          asString(body, "email"),
		Contact:        asString(body, "contact"),
	}, nil
}

func (c *razorpayClient) FetchSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	body, err := c.api.Subscription.Fetch(subscriptionID, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot fetch subscription from Razorpay")
	}
	return decodeSubscription(body), nil
}

func (c *razorpayClient) CreateOrder(ctx context.Context, spec OrderSpec) (*Order, error) {
	data := map[string]interface{}{
		"amount":   spec.Amount,
		"currency": spec.Currency,
		"receipt":  spec.Receipt,
	}
	if len(spec.Notes) > 0 {
		data["notes"] = spec.Notes
	}
	body, err := c.api.Order.Create(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot create order on Razorpay")
	}
	return &Order{
		ID:       asString(body, "id"),
		Amount:   asInt64(body, "amount"),
		Currency: asString(body, "currency"),
	}, nil
}

func (c *razorpayClient) CreateSubscription(ctx context.Context, spec SubscriptionSpec) (*Subscription, error) {
	notify := 0
	if spec.CustomerNotify {
		notify = 1
	}
	data := map[string]interface{}{
		"plan_id":         spec.PlanID,
		"total_count":     spec.TotalCount,
		"customer_notify": notify,
	}
	if spec.Quantity > 0 {
		data["quantity"] = spec.Quantity
	}
	if len(spec.Notes) > 0 {
		data["notes"] = spec.Notes
	}
	body, err := c.api.Subscription.Create(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot create subscription on Razorpay")
	}
	return decodeSubscription(body), nil
}

func (c *razorpayClient) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if _, err := c.api.Subscription.Cancel(subscriptionID, nil, nil); err != nil {
		return errors.Wrap(err, "Cannot cancel subscription on Razorpay")
	}
	return nil
}

func decodeSubscription(body map[string]interface{}) *Subscription {
	return &Subscription{
		ID:           asString(body, "id"),
		PlanID:       asString(body, "plan_id"),
		Status:       asString(body, "status"),
		CurrentStart: asInt64(body, "current_start"),
		CurrentEnd:   asInt64(body, "current_end"),
		StartAt:      asInt64(body, "start_at"),
		EndAt:        asInt64(body, "end_at"),
		CreatedAt:    asInt64(body, "created_at"),
	}
}

func asString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// asInt64 tolerates the numeric shapes encoding/json produces for the
// SDK's untyped responses. Null and absent fields decode to zero.
func asInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
