package ledger

import "time"

// Snapshot is the locally persisted projection of a membership's canonical
// state. One row per gateway subscription id, overwritten on every
// verification call or webhook event. The ContentSynced flag is what makes
// divergence between the identity store and the content store observable
// to admin tooling.
type Snapshot struct {
	SubscriptionID string    `json:"subscriptionId" gorm:"primaryKey"`
	ClerkID        string    `json:"clerkId" gorm:"index"`
	PaymentID      string    `json:"paymentId"`
	OrderID        string    `json:"orderId"`
	PlanKey        string    `json:"planKey"`
	Status         string    `json:"status"`
	StartedAt      string    `json:"startedAt"`
	ExpiresAt      *string   `json:"expiresAt"`
	Amount         int64     `json:"amount"`
	Source         string    `json:"source"` // which flow wrote this row
	ContentSynced  bool      `json:"contentSynced"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

const (
	SourceVerification = "verification"
	SourceWebhook      = "webhook"
)
