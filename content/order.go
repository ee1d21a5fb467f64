package content

import "context"

// OrderItem is one line of a placed order.
type OrderItem struct {
	MagazineID string `json:"magazineId"`
	Title      string `json:"title"`
	Quantity   int64  `json:"quantity"`
	Price      int64  `json:"price"`
}

// OrderCreate describes an order record to persist after checkout.
type OrderCreate struct {
	ClerkID            string
	CustomerID         string
	TotalAmount        int64
	ShippingName       string
	ShippingEmail      string
	ShippingPhone      string
	ShippingAddress    string
	PaymentMethod      string
	OrderStatus        string
	RazorpayCheckoutID string
}

const createOrderDocument = `
mutation CreateOrder(
	$clerkId: String!
	$totalAmount: Int!
	$shippingName: String!
	$shippingEmail: String!
	$shippingPhone: String!
	$shippingAddress: String!
	$paymentMethod: PaymentMethod!
	$customerId: ID!
	$razorPayCheckoutId: String
	$orderStatus: OrderStatus!
) {
	createOrder(
		data: {
			clerkId: $clerkId
			totalAmount: $totalAmount
			shippingName: $shippingName
			shippingEmail: $shippingEmail
			shippingPhone: $shippingPhone
			shippingAddress: $shippingAddress
			paymentMethod: $paymentMethod
			orderStatus: $orderStatus
			razorPayCheckoutId: $razorPayCheckoutId
			customer: { connect: { id: $customerId } }
		}
	) {
		id
	}
	publishOrder(where: { clerkId: $clerkId }) {
		id
	}
}`

// CreateOrder persists a placed order and returns its record id.
func (s *Store) CreateOrder(ctx context.Context, o OrderCreate) (string, error) {
	var resp struct {
		CreateOrder struct {
			ID string `json:"id"`
		} `json:"createOrder"`
	}
	if err := s.run(ctx, createOrderDocument, map[string]interface{}{
		"clerkId":            o.ClerkID,
		"totalAmount":        o.TotalAmount,
		"shippingName":       o.ShippingName,
		"shippingEmail":      o.ShippingEmail,
		"shippingPhone":      o.ShippingPhone,
		"shippingAddress":    o.ShippingAddress,
		"paymentMethod":      o.PaymentMethod,
		"customerId":         o.CustomerID,
		"razorPayCheckoutId": o.RazorpayCheckoutID,
		"orderStatus":        o.OrderStatus,
	}, &resp); err != nil {
		return "", err
	}
	return resp.CreateOrder.ID, nil
}
