package content

import (
	"context"

	"go.uber.org/zap"
)

// Membership is the content-store projection of a subscription
type Membership struct {
	ID                     string  `json:"id"`
	PlanID                 string  `json:"planId"`
	RazorpaySubscriptionID string  `json:"razorpaySubscriptionId"`
	RazorpayPaymentID      string  `json:"razorpayPaymentId"`
	PlanStatus             string  `json:"planStatus"`
	StartDate              string  `json:"startDate"`
	EndDate                *string `json:"endDate"`
	Amount                 int64   `json:"amount"`
}

// MembershipUpsert is one create-or-update of a membership record, keyed
// by the gateway subscription id (a natural unique field in the schema).
type MembershipUpsert struct {
	ClerkID        string
	SubscriptionID string
	PaymentID      string
	OrderID        string
	PlanKey        string
	Status         string
	Amount         int64
	StartDate      string
	EndDate        *string
}

const upsertMembershipDocument = `
mutation UpsertMembership(
	$clerkId: String!,
	$razorpaySubscriptionId: String!,
	$razorpayPaymentId: String!,
	$planId: String!,
	$amount: Int!,
	$planStatus: UserPlanStatus!,
	$startDate: Date!,
	$endDate: DateTime
) {
	upsertMembership(
		where: { razorpaySubscriptionId: $razorpaySubscriptionId }
		upsert: {
			create: {
				razorpayPaymentId: $razorpayPaymentId,
				razorpaySubscriptionId: $razorpaySubscriptionId,
				planId: $planId,
				amount: $amount,
				planStatus: $planStatus,
				startDate: $startDate,
				endDate: $endDate,
				customer: { connect: { clerkId: $clerkId } }
			}
			update: {
				razorpayPaymentId: $razorpayPaymentId,
				planId: $planId,
				amount: $amount,
				planStatus: $planStatus,
				startDate: $startDate,
				endDate: $endDate
			}
		}
	) {
		id
	}
	publishMembership(where: { razorpaySubscriptionId: $razorpaySubscriptionId }) {
		id
	}
}`

// UpsertMembership creates or replaces the membership snapshot for a
// subscription. Repeated application with the same input is a no-op in
// effect.
func (s *Store) UpsertMembership(ctx context.Context, m MembershipUpsert) error {
	vars := map[string]interface{}{
		"clerkId":                m.ClerkID,
		"razorpaySubscriptionId": m.SubscriptionID,
		"razorpayPaymentId":      m.PaymentID,
		"planId":                 m.PlanKey,
		"amount":                 m.Amount,
		"planStatus":             m.Status,
		"startDate":              m.StartDate,
		"endDate":                m.EndDate,
	}
	var resp struct {
		UpsertMembership struct {
			ID string `json:"id"`
		} `json:"upsertMembership"`
	}
	if err := s.run(ctx, upsertMembershipDocument, vars, &resp); err != nil {
		return err
	}
	s.Logger.Info("Membership saved in content store",
		zap.String("SubscriptionID", m.SubscriptionID),
		zap.String("PlanStatus", m.Status),
	)
	return nil
}

const updateMembershipDocument = `
mutation UpdateMembership(
	$razorpaySubscriptionId: String!,
	$planStatus: UserPlanStatus,
	$endDate: DateTime
) {
	updateMembership(
		where: { razorpaySubscriptionId: $razorpaySubscriptionId }
		data: { planStatus: $planStatus, endDate: $endDate }
	) {
		id
		planStatus
	}
	publishMembership(where: { razorpaySubscriptionId: $razorpaySubscriptionId }) {
		id
	}
}`

// UpdateMembershipStatus overwrites planStatus and endDate on the
// membership keyed by subscription id.
func (s *Store) UpdateMembershipStatus(ctx context.Context, subscriptionID, planStatus string, endDate *string) error {
	vars := map[string]interface{}{
		"razorpaySubscriptionId": subscriptionID,
		"planStatus":             planStatus,
		"endDate":                endDate,
	}
	var resp struct {
		UpdateMembership struct {
			ID         string `json:"id"`
			PlanStatus string `json:"planStatus"`
		} `json:"updateMembership"`
	}
	return s.run(ctx, updateMembershipDocument, vars, &resp)
}

const activeMembershipsDocument = `
query GetMemberships($clerkId: String!) {
	memberships(
		where: { customer_some: { clerkId_in: [$clerkId] }, planStatus: active }
	) {
		id
		planId
		razorpaySubscriptionId
		planStatus
		startDate
		endDate
		amount
	}
}`

// ActiveMemberships returns the active memberships linked to a customer.
func (s *Store) ActiveMemberships(ctx context.Context, clerkID string) ([]Membership, error) {
	var resp struct {
		Memberships []Membership `json:"memberships"`
	}
	if err := s.run(ctx, activeMembershipsDocument, map[string]interface{}{
		"clerkId": clerkID,
	}, &resp); err != nil {
		return nil, err
	}
	if resp.Memberships == nil {
		return []Membership{}, nil
	}
	return resp.Memberships, nil
}
