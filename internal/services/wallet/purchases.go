package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petcove/petcove-api/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseService owns the CreditPurchase lifecycle: pending on checkout
// open, then exactly one transition to completed or failed.
type PurchaseService struct {
	db      *gorm.DB
	wallets *Service
}

func NewPurchaseService(db *gorm.DB, wallets *Service) *PurchaseService {
	return &PurchaseService{db: db, wallets: wallets}
}

// GetActiveBundle looks up a purchasable bundle from the catalog.
func (s *PurchaseService) GetActiveBundle(ctx context.Context, bundleID uint) (*models.CreditBundle, error) {
	var bundle models.CreditBundle
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", bundleID, true).
		First(&bundle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("credit bundle", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit bundle: %w", err)
	}
	return &bundle, nil
}

// ListActiveBundles returns the purchasable catalog.
func (s *PurchaseService) ListActiveBundles(ctx context.Context) ([]models.CreditBundle, error) {
	var bundles []models.CreditBundle
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price_cents ASC").
		Find(&bundles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list credit bundles: %w", err)
	}
	return bundles, nil
}

// CreatePending ensures the user has a wallet and records a pending purchase
// with the bundle's credits and price snapshotted onto it.
func (s *PurchaseService) CreatePending(ctx context.Context, userID string, bundle *models.CreditBundle) (*models.CreditPurchase, error) {
	wallet, err := s.wallets.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	purchase := models.CreditPurchase{
		UserID:         userID,
		WalletID:       wallet.ID,
		CreditBundleID: bundle.ID,
		Credits:        bundle.Credits,
		AmountCents:    bundle.PriceCents,
		Status:         models.PurchaseStatusPending,
	}

	if err := s.db.WithContext(ctx).Create(&purchase).Error; err != nil {
		return nil, fmt.Errorf("failed to create credit purchase: %w", err)
	}

	return &purchase, nil
}

// AttachSession persists the checkout session id returned by the provider.
func (s *PurchaseService) AttachSession(ctx context.Context, purchaseID uint, sessionID string) error {
	err := s.db.WithContext(ctx).
		Model(&models.CreditPurchase{}).
		Where("id = ?", purchaseID).
		Update("stripe_session_id", sessionID).Error
	if err != nil {
		return fmt.Errorf("failed to attach checkout session: %w", err)
	}
	return nil
}

// Complete transitions a purchase to completed, credits the wallet, and
// appends the purchase transaction row, all inside one database transaction
// with the purchase row locked. Re-delivery of the same session id and
// completion of an already-failed purchase are both non-mutating no-ops
// that return the record as it stands.
func (s *PurchaseService) Complete(ctx context.Context, sessionID string, chargeID *string) (*models.CreditPurchase, error) {
	var purchase models.CreditPurchase

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("stripe_session_id = ?", sessionID).
			First(&purchase).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("credit purchase", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock credit purchase: %w", err)
		}

		if purchase.Status == models.PurchaseStatusCompleted {
			// Already applied; webhook redelivery must not double-credit.
			return nil
		}
		if purchase.Status == models.PurchaseStatusFailed {
			// Out-of-order delivery: the expiry event landed first. Terminal
			// records stay untouched and the event is acked, not retried.
			fiberlog.Warnf("Purchase %d already failed, ignoring completion of session %s", purchase.ID, sessionID)
			return nil
		}

		if _, err := s.wallets.CreditInTx(tx, models.CreditCreditsParams{
			UserID:        purchase.UserID,
			AmountCredits: purchase.Credits,
			AmountCents:   purchase.Credits * s.wallets.CentsPerCredit(),
			Type:          models.CreditTransactionPurchase,
			RelatedType:   "credit_purchase",
			RelatedID:     purchase.ID,
		}); err != nil {
			return err
		}

		now := time.Now().UTC()
		purchase.Status = models.PurchaseStatusCompleted
		purchase.CompletedAt = &now
		purchase.StripeChargeID = chargeID

		updates := map[string]any{
			"status":       models.PurchaseStatusCompleted,
			"completed_at": now,
		}
		if chargeID != nil {
			updates["stripe_charge_id"] = *chargeID
		}

		if err := tx.Model(&models.CreditPurchase{}).
			Where("id = ?", purchase.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to complete credit purchase: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &purchase, nil
}

// Fail transitions a pending purchase to failed. No wallet or transaction
// side effects. Terminal purchases are left untouched.
func (s *PurchaseService) Fail(ctx context.Context, sessionID string) (*models.CreditPurchase, error) {
	var purchase models.CreditPurchase

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("stripe_session_id = ?", sessionID).
			First(&purchase).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("credit purchase", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock credit purchase: %w", err)
		}

		if purchase.Status.IsTerminal() {
			fiberlog.Debugf("Purchase %d already %s, ignoring expiry", purchase.ID, purchase.Status)
			return nil
		}

		purchase.Status = models.PurchaseStatusFailed
		if err := tx.Model(&models.CreditPurchase{}).
			Where("id = ?", purchase.ID).
			Update("status", models.PurchaseStatusFailed).Error; err != nil {
			return fmt.Errorf("failed to fail credit purchase: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &purchase, nil
}

// GetForUser returns a purchase only to its owner.
func (s *PurchaseService) GetForUser(ctx context.Context, purchaseID uint, userID string) (*models.CreditPurchase, error) {
	var purchase models.CreditPurchase
	err := s.db.WithContext(ctx).
		Where("id = ?", purchaseID).
		First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("credit purchase", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit purchase: %w", err)
	}

	if purchase.UserID != userID {
		return nil, models.NewAuthorizationError("credit purchase belongs to another user")
	}

	return &purchase, nil
}

// ListForUser returns a page of the user's purchases, newest first.
func (s *PurchaseService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.CreditPurchase, error) {
	var purchases []models.CreditPurchase
	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to list credit purchases: %w", err)
	}

	return purchases, nil
}
