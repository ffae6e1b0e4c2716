package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/petcove/petcove-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service owns the wallet balance and its append-only transaction log.
// Every balance mutation goes through CreditInTx or DebitInTx so the
// balance update and the audit row always commit together.
type Service struct {
	db             *gorm.DB
	centsPerCredit int64
}

func NewService(db *gorm.DB, centsPerCredit int64) *Service {
	return &Service{db: db, centsPerCredit: centsPerCredit}
}

// CentsPerCredit returns the fixed credit-to-cents conversion rate.
func (s *Service) CentsPerCredit() int64 {
	return s.centsPerCredit
}

// GetOrCreateWallet retrieves the wallet for a user, creating an empty one
// if it doesn't exist yet. Wallets are created lazily on first use.
func (s *Service) GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&wallet).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		wallet = models.Wallet{
			UserID:         userID,
			BalanceCredits: 0,
		}

		if err := s.db.WithContext(ctx).Create(&wallet).Error; err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}

		return &wallet, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &wallet, nil
}

// GetWallet retrieves a user's wallet without creating one.
func (s *Service) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("wallet", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &wallet, nil
}

// CheckSufficientCredits verifies a user can cover the required amount.
// A missing wallet fails any positive requirement. Pure read, no mutation;
// the actual debit happens later when the spend is fulfilled.
func (s *Service) CheckSufficientCredits(ctx context.Context, userID string, required int64) error {
	if required <= 0 {
		return nil
	}

	var wallet models.Wallet
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewValidationError("credits", "insufficient wallet balance")
	}
	if err != nil {
		return fmt.Errorf("failed to check wallet balance: %w", err)
	}

	if wallet.BalanceCredits < required {
		return models.NewValidationError("credits",
			fmt.Sprintf("insufficient wallet balance: have %d, need %d", wallet.BalanceCredits, required))
	}

	return nil
}

// CreditInTx increases a wallet balance and appends the matching transaction
// row. It must be called inside an open transaction; the wallet row is
// locked for the duration so concurrent mutations serialize.
func (s *Service) CreditInTx(tx *gorm.DB, params models.CreditCreditsParams) (*models.CreditTransaction, error) {
	var wallet models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", params.UserID).
		First(&wallet).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		wallet = models.Wallet{UserID: params.UserID, BalanceCredits: 0}
		if err := tx.Create(&wallet).Error; err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	newBalance := wallet.BalanceCredits + params.AmountCredits
	if err := tx.Model(&wallet).Update("balance_credits", newBalance).Error; err != nil {
		return nil, fmt.Errorf("failed to update wallet balance: %w", err)
	}

	transaction := models.CreditTransaction{
		WalletID:      wallet.ID,
		AmountCents:   params.AmountCents,
		AmountCredits: params.AmountCredits,
		Type:          params.Type,
		RelatedType:   params.RelatedType,
		RelatedID:     params.RelatedID,
	}

	if err := tx.Create(&transaction).Error; err != nil {
		return nil, fmt.Errorf("failed to create credit transaction: %w", err)
	}

	return &transaction, nil
}

// DebitInTx decreases a wallet balance and appends a debit transaction row.
// Must be called inside an open transaction. The balance is re-checked under
// the row lock, so a stale pre-flight check cannot overdraw the wallet.
func (s *Service) DebitInTx(tx *gorm.DB, params models.DebitCreditsParams) (*models.CreditTransaction, error) {
	var wallet models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", params.UserID).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewValidationError("credits", "insufficient wallet balance")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	if wallet.BalanceCredits < params.AmountCredits {
		return nil, models.NewValidationError("credits",
			fmt.Sprintf("insufficient wallet balance: have %d, need %d", wallet.BalanceCredits, params.AmountCredits))
	}

	newBalance := wallet.BalanceCredits - params.AmountCredits
	if err := tx.Model(&wallet).Update("balance_credits", newBalance).Error; err != nil {
		return nil, fmt.Errorf("failed to update wallet balance: %w", err)
	}

	transaction := models.CreditTransaction{
		WalletID:      wallet.ID,
		AmountCents:   -params.AmountCents,
		AmountCredits: -params.AmountCredits,
		Type:          models.CreditTransactionDebit,
		RelatedType:   params.RelatedType,
		RelatedID:     params.RelatedID,
	}

	if err := tx.Create(&transaction).Error; err != nil {
		return nil, fmt.Errorf("failed to create credit transaction: %w", err)
	}

	return &transaction, nil
}

// Credit applies a balance increase in its own transaction.
func (s *Service) Credit(ctx context.Context, params models.CreditCreditsParams) (*models.CreditTransaction, error) {
	var transaction *models.CreditTransaction

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.CreditInTx(tx, params)
		if err != nil {
			return err
		}
		transaction = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return transaction, nil
}

// GrantWelcomeBonus creates the user's wallet and records the signup bonus.
// A zero bonus only ensures the wallet exists.
func (s *Service) GrantWelcomeBonus(ctx context.Context, userID string, credits int64) error {
	if credits <= 0 {
		_, err := s.GetOrCreateWallet(ctx, userID)
		return err
	}

	_, err := s.Credit(ctx, models.CreditCreditsParams{
		UserID:        userID,
		AmountCredits: credits,
		AmountCents:   credits * s.centsPerCredit,
		Type:          models.CreditTransactionBonus,
		RelatedType:   "signup",
	})
	return err
}

// ListTransactions returns a page of the wallet's audit log, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]models.CreditTransaction, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	var transactions []models.CreditTransaction
	query := s.db.WithContext(ctx).
		Where("wallet_id = ?", wallet.ID).
		Order("created_at DESC, id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, nil
}
