package wallet

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/petcove/petcove-api/internal/models"
	"github.com/petcove/petcove-api/internal/services/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.New(models.DatabaseConfig{
		Type:     models.SQLite,
		FilePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db.DB
}

func TestGetOrCreateWallet(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 20)
	ctx := context.Background()

	wallet, err := svc.GetOrCreateWallet(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "user_1", wallet.UserID)
	assert.Equal(t, int64(0), wallet.BalanceCredits)

	again, err := svc.GetOrCreateWallet(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, again.ID)
}

func TestGetWalletNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 20)

	_, err := svc.GetWallet(context.Background(), "missing")
	require.Error(t, err)

	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorTypeNotFound, appErr.Type)
}

func TestCheckSufficientCredits(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 20)
	ctx := context.Background()

	// Zero requirement always passes, even without a wallet.
	require.NoError(t, svc.CheckSufficientCredits(ctx, "user_1", 0))

	// A missing wallet cannot cover a positive requirement.
	err := svc.CheckSufficientCredits(ctx, "user_1", 1)
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorTypeValidation, appErr.Type)

	_, err = svc.Credit(ctx, models.CreditCreditsParams{
		UserID:        "user_1",
		AmountCredits: 50,
		AmountCents:   1000,
		Type:          models.CreditTransactionPurchase,
	})
	require.NoError(t, err)

	assert.NoError(t, svc.CheckSufficientCredits(ctx, "user_1", 49))
	assert.NoError(t, svc.CheckSufficientCredits(ctx, "user_1", 50))
	assert.Error(t, svc.CheckSufficientCredits(ctx, "user_1", 51))
}

func TestCreditAndDebit(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 20)
	ctx := context.Background()

	_, err := svc.Credit(ctx, models.CreditCreditsParams{
		UserID:        "user_1",
		AmountCredits: 300,
		AmountCents:   6000,
		Type:          models.CreditTransactionPurchase,
	})
	require.NoError(t, err)

	for _, amount := range []int64{75, 100, 50} {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.DebitInTx(tx, models.DebitCreditsParams{
				UserID:        "user_1",
				AmountCredits: amount,
				AmountCents:   amount * 20,
			})
			return err
		})
		require.NoError(t, err)
	}

	wallet, err := svc.GetWallet(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(75), wallet.BalanceCredits)

	// The next debit exceeds the remaining balance and must be rejected
	// without touching the wallet or the log.
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.DebitInTx(tx, models.DebitCreditsParams{
			UserID:        "user_1",
			AmountCredits: 100,
			AmountCents:   2000,
		})
		return err
	})
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorTypeValidation, appErr.Type)

	wallet, err = svc.GetWallet(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(75), wallet.BalanceCredits)

	// Balance stays consistent with the signed sum of the log.
	var sum int64
	require.NoError(t, db.Model(&models.CreditTransaction{}).
		Where("wallet_id = ?", wallet.ID).
		Select("COALESCE(SUM(amount_credits), 0)").
		Scan(&sum).Error)
	assert.Equal(t, wallet.BalanceCredits, sum)

	var count int64
	require.NoError(t, db.Model(&models.CreditTransaction{}).
		Where("wallet_id = ?", wallet.ID).
		Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestDebitRecordsNegativeAmounts(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 20)
	ctx := context.Background()

	_, err := svc.Credit(ctx, models.CreditCreditsParams{
		UserID:        "user_1",
		AmountCredits: 10,
		AmountCents:   200,
		Type:          models.CreditTransactionBonus,
	})
	require.NoError(t, err)

	var debit *models.CreditTransaction
	err = db.Transaction(func(tx *gorm.DB) error {
		d, err := svc.DebitInTx(tx, models.DebitCreditsParams{
			UserID:        "user_1",
			AmountCredits: 4,
			AmountCents:   80,
			RelatedType:   "gift",
			RelatedID:     7,
		})
		debit = d
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, int64(-4), debit.AmountCredits)
	assert.Equal(t, int64(-80), debit.AmountCents)
	assert.Equal(t, models.CreditTransactionDebit, debit.Type)
	assert.Equal(t, "gift", debit.RelatedType)
	assert.Equal(t, uint(7), debit.RelatedID)
}

func TestGrantWelcomeBonus(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 20)
	ctx := context.Background()

	require.NoError(t, svc.GrantWelcomeBonus(ctx, "user_1", 10))

	wallet, err := svc.GetWallet(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), wallet.BalanceCredits)

	transactions, err := svc.ListTransactions(ctx, "user_1", 10, 0)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, models.CreditTransactionBonus, transactions[0].Type)
	assert.Equal(t, "signup", transactions[0].RelatedType)
	assert.Equal(t, int64(200), transactions[0].AmountCents)
}

func TestGrantWelcomeBonusZeroOnlyCreatesWallet(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 20)
	ctx := context.Background()

	require.NoError(t, svc.GrantWelcomeBonus(ctx, "user_1", 0))

	wallet, err := svc.GetWallet(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.BalanceCredits)

	transactions, err := svc.ListTransactions(ctx, "user_1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestListTransactionsPagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 20)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Credit(ctx, models.CreditCreditsParams{
			UserID:        "user_1",
			AmountCredits: int64(i + 1),
			AmountCents:   int64(i+1) * 20,
			Type:          models.CreditTransactionPurchase,
		})
		require.NoError(t, err)
	}

	page, err := svc.ListTransactions(ctx, "user_1", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	// Newest first.
	assert.Equal(t, int64(5), page[0].AmountCredits)
	assert.Equal(t, int64(4), page[1].AmountCredits)

	rest, err := svc.ListTransactions(ctx, "user_1", 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}
