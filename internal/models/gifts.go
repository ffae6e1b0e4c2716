package models

import "time"

type GiftStatus string

const (
	GiftStatusPending   GiftStatus = "pending"
	GiftStatusCompleted GiftStatus = "completed"
	GiftStatusFailed    GiftStatus = "failed"
)

func (s GiftStatus) IsTerminal() bool {
	return s == GiftStatusCompleted || s == GiftStatusFailed
}

// GiftType is the catalog of virtual items that can be gifted to a pet.
type GiftType struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	CreditsCost int64     `gorm:"not null" json:"credits_cost"`
	IsActive    bool      `gorm:"index;not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Gift records a credit-spending gift. The wallet debit happens at
// fulfillment time, not at creation: a pending gift holds no credits.
type Gift struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderUserID string     `gorm:"index;not null" json:"sender_user_id"`
	PetName      string     `gorm:"not null" json:"pet_name"`
	GiftTypeID   uint       `gorm:"index;not null" json:"gift_type_id"`
	Credits      int64      `gorm:"not null" json:"credits"`
	Message      string     `json:"message,omitempty"`
	Status       GiftStatus `gorm:"index;not null;default:pending" json:"status"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
