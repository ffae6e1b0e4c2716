package models

import "time"

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// IsTerminal reports whether no further status transitions are allowed.
func (s PurchaseStatus) IsTerminal() bool {
	return s == PurchaseStatusCompleted || s == PurchaseStatusFailed
}

// CreditPurchase tracks a single Stripe Checkout session buying a credit
// bundle. Credits and AmountCents are snapshots of the bundle at purchase
// time so later catalog edits cannot change what was bought.
// StripeSessionID stays nil until the provider returns a session, so the
// unique index only constrains attached rows.
type CreditPurchase struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          string         `gorm:"index;not null" json:"user_id"`
	WalletID        uint           `gorm:"index;not null" json:"wallet_id"`
	CreditBundleID  uint           `gorm:"index;not null" json:"credit_bundle_id"`
	Credits         int64          `gorm:"not null" json:"credits"`
	AmountCents     int64          `gorm:"not null" json:"amount_cents"`
	StripeSessionID *string        `gorm:"uniqueIndex" json:"stripe_session_id,omitempty"`
	StripeChargeID  *string        `json:"stripe_charge_id,omitempty"`
	Status          PurchaseStatus `gorm:"index;not null;default:pending" json:"status"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
