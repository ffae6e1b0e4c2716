package donations

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

// Service owns the Donation lifecycle. Donations share the checkout-backed
// pending/paid/failed discipline with credit purchases but never touch a
// wallet.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreatePending records a donation before its checkout session is opened.
// UserID may be empty for anonymous donations.
func (s *Service) CreatePending(ctx context.Context, userID string, amountCents int64, message string) (*models.Donation, error) {
	if amountCents <= 0 {
		return nil, models.NewValidationError("amount_cents", "donation amount must be positive")
	}

	donation := models.Donation{
		UserID:      userID,
		AmountCents: amountCents,
		Message:     message,
		Status:      models.DonationStatusPending,
	}

	if err := s.db.WithContext(ctx).Create(&donation).Error; err != nil {
		return nil, fmt.Errorf("failed to create donation: %w", err)
	}

	return &donation, nil
}

// AttachSession persists the checkout session id returned by the provider.
func (s *Service) AttachSession(ctx context.Context, donationID uint, sessionID string) error {
	err := s.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ?", donationID).
		Update("stripe_session_id", sessionID).Error
	if err != nil {
		return fmt.Errorf("failed to attach checkout session: %w", err)
	}
	return nil
}

// MarkPaid transitions a pending donation to paid. Redelivered events for an
// already-paid donation are a no-op.
func (s *Service) MarkPaid(ctx context.Context, sessionID string) (*models.Donation, error) {
	return s.transition(ctx, sessionID, models.DonationStatusPaid)
}

// MarkFailed transitions a pending donation to failed on session expiry.
func (s *Service) MarkFailed(ctx context.Context, sessionID string) (*models.Donation, error) {
	return s.transition(ctx, sessionID, models.DonationStatusFailed)
}

func (s *Service) transition(ctx context.Context, sessionID string, target models.DonationStatus) (*models.Donation, error) {
	var donation models.Donation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("stripe_session_id = ?", sessionID).
			First(&donation).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("donation", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock donation: %w", err)
		}

		if donation.Status.IsTerminal() {
			fiberlog.Debugf("Donation %d already %s, ignoring %s", donation.ID, donation.Status, target)
			return nil
		}

		updates := map[string]any{"status": target}
		if target == models.DonationStatusPaid {
			now := time.Now().UTC()
			donation.PaidAt = &now
			updates["paid_at"] = now
		}
		donation.Status = target

		if err := tx.Model(&models.Donation{}).
			Where("id = ?", donation.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update donation: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &donation, nil
}

// ListForUser returns a page of the user's donations, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Donation, error) {
	var list []models.Donation
	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}

	return list, nil
}
