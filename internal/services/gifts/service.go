package gifts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petcove/petcove-api/internal/models"
	"github.com/petcove/petcove-api/internal/services/wallet"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service owns gift sending and fulfillment. Sending only validates the
// balance and records a pending gift; the wallet debit happens at
// fulfillment time on the worker pool, mirroring the purchase flow's
// pending-to-completed pattern.
type Service struct {
	db      *gorm.DB
	wallets *wallet.Service
}

func NewService(db *gorm.DB, wallets *wallet.Service) *Service {
	return &Service{db: db, wallets: wallets}
}

// GetActiveGiftType looks up a giftable item from the catalog.
func (s *Service) GetActiveGiftType(ctx context.Context, giftTypeID uint) (*models.GiftType, error) {
	var giftType models.GiftType
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", giftTypeID, true).
		First(&giftType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("gift type", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gift type: %w", err)
	}
	return &giftType, nil
}

// ListActiveGiftTypes returns the giftable catalog.
func (s *Service) ListActiveGiftTypes(ctx context.Context) ([]models.GiftType, error) {
	var giftTypes []models.GiftType
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("credits_cost ASC").
		Find(&giftTypes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list gift types: %w", err)
	}
	return giftTypes, nil
}

// CheckSufficientForGiftType resolves a gift type's credit cost and verifies
// the sender can cover it. An empty user id passes through: contextless
// validation (documentation generation and the like) is not a security
// boundary here.
func (s *Service) CheckSufficientForGiftType(ctx context.Context, userID string, giftTypeID uint) error {
	if userID == "" {
		return nil
	}

	giftType, err := s.GetActiveGiftType(ctx, giftTypeID)
	if err != nil {
		return err
	}

	return s.wallets.CheckSufficientCredits(ctx, userID, giftType.CreditsCost)
}

// SendGift validates the sender's balance and records a pending gift with
// the gift type's cost snapshotted onto it. The caller is expected to submit
// the gift to the fulfillment worker.
func (s *Service) SendGift(ctx context.Context, userID, petName, message string, giftTypeID uint) (*models.Gift, error) {
	if petName == "" {
		return nil, models.NewValidationError("pet_name", "pet_name is required")
	}

	giftType, err := s.GetActiveGiftType(ctx, giftTypeID)
	if err != nil {
		return nil, err
	}

	if err := s.wallets.CheckSufficientCredits(ctx, userID, giftType.CreditsCost); err != nil {
		return nil, err
	}

	if _, err := s.wallets.GetOrCreateWallet(ctx, userID); err != nil {
		return nil, err
	}

	gift := models.Gift{
		SenderUserID: userID,
		PetName:      petName,
		GiftTypeID:   giftType.ID,
		Credits:      giftType.CreditsCost,
		Message:      message,
		Status:       models.GiftStatusPending,
	}

	if err := s.db.WithContext(ctx).Create(&gift).Error; err != nil {
		return nil, fmt.Errorf("failed to create gift: %w", err)
	}

	return &gift, nil
}

// Fulfill debits the sender's wallet and completes the gift in one database
// transaction. If the balance no longer covers the gift, the gift is marked
// failed instead; the wallet is never overdrawn. Terminal gifts are a no-op.
func (s *Service) Fulfill(ctx context.Context, giftID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gift models.Gift
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", giftID).
			First(&gift).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("gift", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock gift: %w", err)
		}

		if gift.Status.IsTerminal() {
			return nil
		}

		_, err = s.wallets.DebitInTx(tx, models.DebitCreditsParams{
			UserID:        gift.SenderUserID,
			AmountCredits: gift.Credits,
			AmountCents:   gift.Credits * s.wallets.CentsPerCredit(),
			RelatedType:   "gift",
			RelatedID:     gift.ID,
		})
		if err != nil {
			if appErr, ok := models.AsAppError(err); ok && appErr.Type == models.ErrorTypeValidation {
				fiberlog.Warnf("Gift %d failed fulfillment: %v", gift.ID, err)
				return tx.Model(&models.Gift{}).
					Where("id = ?", gift.ID).
					Update("status", models.GiftStatusFailed).Error
			}
			return err
		}

		now := time.Now().UTC()
		if err := tx.Model(&models.Gift{}).
			Where("id = ?", gift.ID).
			Updates(map[string]any{
				"status":       models.GiftStatusCompleted,
				"completed_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to complete gift: %w", err)
		}

		return nil
	})
}

// GetForUser returns a gift only to its sender.
func (s *Service) GetForUser(ctx context.Context, giftID uint, userID string) (*models.Gift, error) {
	var gift models.Gift
	err := s.db.WithContext(ctx).
		Where("id = ?", giftID).
		First(&gift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("gift", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gift: %w", err)
	}

	if gift.SenderUserID != userID {
		return nil, models.NewAuthorizationError("gift belongs to another user")
	}

	return &gift, nil
}

// ListForUser returns a page of the user's sent gifts, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Gift, error) {
	var gifts []models.Gift
	query := s.db.WithContext(ctx).
		Where("sender_user_id = ?", userID).
		Order("created_at DESC, id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&gifts).Error; err != nil {
		return nil, fmt.Errorf("failed to list gifts: %w", err)
	}

	return gifts, nil
}

// ListStalePendingIDs returns ids of gifts still pending from before the
// cutoff. These are tasks the worker never finished, dropped on a full
// buffer or lost to a restart.
func (s *Service) ListStalePendingIDs(ctx context.Context, cutoff time.Time) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&models.Gift{}).
		Where("status = ? AND created_at < ?", models.GiftStatusPending, cutoff).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending gifts: %w", err)
	}
	return ids, nil
}
