package models

import "time"

type CreditTransactionType string

const (
	CreditTransactionPurchase CreditTransactionType = "purchase"
	CreditTransactionDebit    CreditTransactionType = "debit"
	CreditTransactionBonus    CreditTransactionType = "bonus"
)

// Wallet holds a user's spendable credit balance. The balance is a derived
// cache over the credit_transactions log: it must equal the signed sum of
// AmountCredits for the wallet at all times.
type Wallet struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         string    `gorm:"uniqueIndex;not null" json:"user_id"`
	BalanceCredits int64     `gorm:"not null;default:0" json:"balance_credits"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// CreditTransaction is an append-only audit row for a single balance change.
// AmountCredits is signed: purchases and bonuses are positive, debits negative.
type CreditTransaction struct {
	ID            uint                  `gorm:"primaryKey;autoIncrement" json:"id"`
	WalletID      uint                  `gorm:"index;not null" json:"wallet_id"`
	AmountCents   int64                 `gorm:"not null" json:"amount_cents"`
	AmountCredits int64                 `gorm:"not null" json:"amount_credits"`
	Type          CreditTransactionType `gorm:"index;not null" json:"type"`
	RelatedType   string                `gorm:"index:idx_credit_tx_related" json:"related_type,omitzero"`
	RelatedID     uint                  `gorm:"index:idx_credit_tx_related" json:"related_id,omitzero"`
	CreatedAt     time.Time             `gorm:"autoCreateTime;index" json:"created_at"`
}

// CreditBundle is a static catalog entry; the purchase flow only reads it.
type CreditBundle struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Credits    int64     `gorm:"not null" json:"credits"`
	PriceCents int64     `gorm:"not null" json:"price_cents"`
	IsActive   bool      `gorm:"index;not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type CreditCreditsParams struct {
	UserID        string
	AmountCredits int64
	AmountCents   int64
	Type          CreditTransactionType
	RelatedType   string
	RelatedID     uint
}

type DebitCreditsParams struct {
	UserID        string
	AmountCredits int64
	AmountCents   int64
	RelatedType   string
	RelatedID     uint
}
