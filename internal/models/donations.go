package models

import "time"

type DonationStatus string

const (
	DonationStatusPending DonationStatus = "pending"
	DonationStatusPaid    DonationStatus = "paid"
	DonationStatusFailed  DonationStatus = "failed"
)

func (s DonationStatus) IsTerminal() bool {
	return s == DonationStatusPaid || s == DonationStatusFailed
}

// Donation is the second Checkout-backed payment flow. It shares the
// pending-to-terminal discipline with CreditPurchase but never touches a
// wallet. UserID is empty for anonymous donations.
type Donation struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          string         `gorm:"index" json:"user_id,omitempty"`
	AmountCents     int64          `gorm:"not null" json:"amount_cents"`
	Message         string         `json:"message,omitempty"`
	StripeSessionID *string        `gorm:"uniqueIndex" json:"stripe_session_id,omitempty"`
	Status          DonationStatus `gorm:"index;not null;default:pending" json:"status"`
	PaidAt          *time.Time     `json:"paid_at,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
