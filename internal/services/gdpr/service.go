package gdpr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/petcove/petcove-api/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Service implements the GDPR surface: data exports with expiry and full
// erasure of a user's wallet footprint.
type Service struct {
	db        *gorm.DB
	exportTTL time.Duration
}

func NewService(db *gorm.DB, exportTTL time.Duration) *Service {
	return &Service{db: db, exportTTL: exportTTL}
}

// RequestExport records a pending export. The document is assembled later by
// the job worker.
func (s *Service) RequestExport(ctx context.Context, userID string) (*models.DataExport, error) {
	export := models.DataExport{
		PublicID:  uuid.New().String(),
		UserID:    userID,
		Status:    models.DataExportStatusPending,
		ExpiresAt: time.Now().UTC().Add(s.exportTTL),
	}

	if err := s.db.WithContext(ctx).Create(&export).Error; err != nil {
		return nil, fmt.Errorf("failed to create data export: %w", err)
	}

	return &export, nil
}

// exportDocument is the JSON shape handed back to the user.
type exportDocument struct {
	UserID       string                     `json:"user_id"`
	GeneratedAt  time.Time                  `json:"generated_at"`
	Wallet       *models.Wallet             `json:"wallet,omitempty"`
	Transactions []models.CreditTransaction `json:"transactions"`
	Purchases    []models.CreditPurchase    `json:"purchases"`
	Gifts        []models.Gift              `json:"gifts"`
	Donations    []models.Donation          `json:"donations"`
}

// BuildExport assembles the export document and marks the export ready.
// Source tables are read concurrently; any read failure marks the export
// failed and surfaces the error so the job can be retried.
func (s *Service) BuildExport(ctx context.Context, exportID uint) error {
	var export models.DataExport
	err := s.db.WithContext(ctx).First(&export, exportID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("data export", err)
	}
	if err != nil {
		return fmt.Errorf("failed to load data export: %w", err)
	}

	if export.Status != models.DataExportStatusPending {
		return nil
	}

	doc := exportDocument{
		UserID:      export.UserID,
		GeneratedAt: time.Now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var wallet models.Wallet
		err := s.db.WithContext(gctx).Where("user_id = ?", export.UserID).First(&wallet).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read wallet: %w", err)
		}
		doc.Wallet = &wallet

		if err := s.db.WithContext(gctx).
			Where("wallet_id = ?", wallet.ID).
			Order("created_at ASC").
			Find(&doc.Transactions).Error; err != nil {
			return fmt.Errorf("failed to read transactions: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := s.db.WithContext(gctx).
			Where("user_id = ?", export.UserID).
			Order("created_at ASC").
			Find(&doc.Purchases).Error; err != nil {
			return fmt.Errorf("failed to read purchases: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := s.db.WithContext(gctx).
			Where("sender_user_id = ?", export.UserID).
			Order("created_at ASC").
			Find(&doc.Gifts).Error; err != nil {
			return fmt.Errorf("failed to read gifts: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := s.db.WithContext(gctx).
			Where("user_id = ?", export.UserID).
			Order("created_at ASC").
			Find(&doc.Donations).Error; err != nil {
			return fmt.Errorf("failed to read donations: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if updErr := s.db.WithContext(ctx).Model(&export).
			Update("status", models.DataExportStatusFailed).Error; updErr != nil {
			fiberlog.Errorf("Failed to mark export %d failed: %v", export.ID, updErr)
		}
		return err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	enc := json.NewEncoder(buf)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export document: %w", err)
	}

	document := append([]byte(nil), buf.B...)

	if err := s.db.WithContext(ctx).Model(&export).Updates(map[string]any{
		"status":   models.DataExportStatusReady,
		"document": document,
	}).Error; err != nil {
		return fmt.Errorf("failed to store export document: %w", err)
	}

	return nil
}

// GetExportForUser returns an export only to its owner.
func (s *Service) GetExportForUser(ctx context.Context, publicID, userID string) (*models.DataExport, error) {
	var export models.DataExport
	err := s.db.WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&export).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("data export", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data export: %w", err)
	}

	if export.UserID != userID {
		return nil, models.NewAuthorizationError("data export belongs to another user")
	}

	return &export, nil
}

// EraseUser deletes the user's wallet footprint in one transaction: gifts,
// purchases, donations, exports, the transaction log, and the wallet itself.
func (s *Service) EraseUser(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet models.Wallet
		err := tx.Where("user_id = ?", userID).First(&wallet).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up wallet: %w", err)
		}

		if err == nil {
			if err := tx.Where("wallet_id = ?", wallet.ID).
				Delete(&models.CreditTransaction{}).Error; err != nil {
				return fmt.Errorf("failed to delete transactions: %w", err)
			}
			if err := tx.Delete(&wallet).Error; err != nil {
				return fmt.Errorf("failed to delete wallet: %w", err)
			}
		}

		if err := tx.Where("sender_user_id = ?", userID).
			Delete(&models.Gift{}).Error; err != nil {
			return fmt.Errorf("failed to delete gifts: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).
			Delete(&models.CreditPurchase{}).Error; err != nil {
			return fmt.Errorf("failed to delete purchases: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).
			Delete(&models.Donation{}).Error; err != nil {
			return fmt.Errorf("failed to delete donations: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).
			Delete(&models.DataExport{}).Error; err != nil {
			return fmt.Errorf("failed to delete data exports: %w", err)
		}

		return nil
	})
}

// CleanupExpiredExports deletes expired export rows one at a time, logging
// and continuing past per-item failures so one bad row never wedges the
// batch. Returns the number of exports removed.
func (s *Service) CleanupExpiredExports(ctx context.Context) (int, error) {
	var expired []models.DataExport
	err := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now().UTC()).
		Find(&expired).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list expired exports: %w", err)
	}

	removed := 0
	for _, export := range expired {
		if err := s.db.WithContext(ctx).Delete(&models.DataExport{}, export.ID).Error; err != nil {
			fiberlog.Errorf("Failed to delete expired export %d: %v", export.ID, err)
			continue
		}
		removed++
	}

	return removed, nil
}
