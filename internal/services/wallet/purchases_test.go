package wallet

import (
	"context"
	"testing"

	"github.com/petcove/petcove-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedBundle(t *testing.T, db *gorm.DB, credits, priceCents int64) *models.CreditBundle {
	t.Helper()

	bundle := models.CreditBundle{
		Name:       "Test Bundle",
		Credits:    credits,
		PriceCents: priceCents,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&bundle).Error)
	return &bundle
}

func openPurchase(t *testing.T, svc *PurchaseService, userID, sessionID string, bundle *models.CreditBundle) *models.CreditPurchase {
	t.Helper()

	ctx := context.Background()
	purchase, err := svc.CreatePending(ctx, userID, bundle)
	require.NoError(t, err)
	require.NoError(t, svc.AttachSession(ctx, purchase.ID, sessionID))
	return purchase
}

func TestGetActiveBundle(t *testing.T) {
	db := newTestDB(t)
	wallets := NewService(db, 20)
	svc := NewPurchaseService(db, wallets)
	ctx := context.Background()

	bundle := seedBundle(t, db, 100, 2000)

	got, err := svc.GetActiveBundle(ctx, bundle.ID)
	require.NoError(t, err)
	assert.Equal(t, bundle.ID, got.ID)

	inactive := models.CreditBundle{Name: "Retired", Credits: 10, PriceCents: 200, IsActive: false}
	require.NoError(t, db.Create(&inactive).Error)

	_, err = svc.GetActiveBundle(ctx, inactive.ID)
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorTypeNotFound, appErr.Type)
}

func TestCreatePendingSnapshotsBundle(t *testing.T) {
	db := newTestDB(t)
	wallets := NewService(db, 20)
	svc := NewPurchaseService(db, wallets)

	bundle := seedBundle(t, db, 100, 2000)
	purchase := openPurchase(t, svc, "user_1", "cs_test_1", bundle)

	assert.Equal(t, models.PurchaseStatusPending, purchase.Status)
	assert.Equal(t, int64(100), purchase.Credits)
	assert.Equal(t, int64(2000), purchase.AmountCents)
	assert.NotZero(t, purchase.WalletID)

	// Opening a checkout must not credit anything yet.
	wallet, err := wallets.GetWallet(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.BalanceCredits)
}

func TestCompleteCreditsWallet(t *testing.T) {
	db := newTestDB(t)
	wallets := NewService(db, 20)
	svc := NewPurchaseService(db, wallets)
	ctx := context.Background()

	bundle := seedBundle(t, db, 100, 2000)
	openPurchase(t, svc, "user_1", "cs_test_1", bundle)

	chargeID := "ch_123"
	completed, err := svc.Complete(ctx, "cs_test_1", &chargeID)
	require.NoError(t, err)

	assert.Equal(t, models.PurchaseStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	wallet, err := wallets.GetWallet(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), wallet.BalanceCredits)

	transactions, err := wallets.ListTransactions(ctx, "user_1", 10, 0)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, models.CreditTransactionPurchase, transactions[0].Type)
	assert.Equal(t, int64(100), transactions[0].AmountCredits)
	assert.Equal(t, int64(2000), transactions[0].AmountCents)
	assert.Equal(t, "credit_purchase", transactions[0].RelatedType)
	assert.Equal(t, completed.ID, transactions[0].RelatedID)

	var stored models.CreditPurchase
	require.NoError(t, db.First(&stored, completed.ID).Error)
	require.NotNil(t, stored.StripeChargeID)
	assert.Equal(t, "ch_123", *stored.StripeChargeID)
}

func TestCompleteIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	wallets := NewService(db, 20)
	svc := NewPurchaseService(db, wallets)
	ctx := context.Background()

	bundle := seedBundle(t, db, 100, 2000)
	openPurchase(t, svc, "user_1", "cs_test_1", bundle)

	_, err := svc.Complete(ctx, "cs_test_1", nil)
	require.NoError(t, err)

	// Webhook redelivery: same session id, must not credit twice.
	again, err := svc.Complete(ctx, "cs_test_1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusCompleted, again.Status)

	wallet, err := wallets.GetWallet(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), wallet.BalanceCredits)

	var count int64
	require.NoError(t, db.Model(&models.CreditTransaction{}).
		Where("wallet_id = ?", wallet.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCompleteUnknownSession(t *testing.T) {
	db := newTestDB(t)
	wallets := NewService(db, 20)
	svc := NewPurchaseService(db, wallets)

	_, err := svc.Complete(context.Background(), "cs_missing", nil)
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorTypeNotFound, appErr.Type)
}

func TestFailLeavesWalletUntouched(t *testing.T) {
	db := newTestDB(t)
	wallets := NewService(db, 20)
	svc := NewPurchaseService(db, wallets)
	ctx := context.Background()

	bundle := seedBundle(t, db, 100, 2000)
	openPurchase(t, svc, "user_1", "cs_test_1", bundle)

	failed, err := svc.Fail(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusFailed, failed.Status)

	wallet, err := wallets.GetWallet(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.BalanceCredits)

	var count int64
	require.NoError(t, db.Model(&models.CreditTransaction{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	db := newTestDB(t)
	wallets := NewService(db, 20)
	svc := NewPurchaseService(db, wallets)
	ctx := context.Background()

	bundle := seedBundle(t, db, 100, 2000)
	openPurchase(t, svc, "user_1", "cs_test_1", bundle)

	_, err := svc.Complete(ctx, "cs_test_1", nil)
	require.NoError(t, err)

	// An expiry event after completion must not flip the status back.
	after, err := svc.Fail(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusCompleted, after.Status)
}

func TestCompleteAfterFailIsAckedNoOp(t *testing.T) {
	db := newTestDB(t)
	wallets := NewService(db, 20)
	svc := NewPurchaseService(db, wallets)
	ctx := context.Background()

	bundle := seedBundle(t, db, 100, 2000)
	openPurchase(t, svc, "user_1", "cs_test_1", bundle)

	_, err := svc.Fail(ctx, "cs_test_1")
	require.NoError(t, err)

	// Out-of-order delivery: the completion lands after the expiry. The
	// purchase stays failed, the wallet stays empty, and no error surfaces
	// that would make the provider retry.
	_, err = svc.Complete(ctx, "cs_test_1", nil)
	require.NoError(t, err)

	var stored models.CreditPurchase
	require.NoError(t, db.Where("stripe_session_id = ?", "cs_test_1").First(&stored).Error)
	assert.Equal(t, models.PurchaseStatusFailed, stored.Status)

	wallet, err := wallets.GetWallet(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.BalanceCredits)

	var count int64
	require.NoError(t, db.Model(&models.CreditTransaction{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreatePendingBeforeSessionAttaches(t *testing.T) {
	db := newTestDB(t)
	wallets := NewService(db, 20)
	svc := NewPurchaseService(db, wallets)
	ctx := context.Background()

	bundle := seedBundle(t, db, 100, 2000)

	// Several purchases can sit without a session id at once: a concurrent
	// request, or a row left behind by a failed checkout-session call.
	first, err := svc.CreatePending(ctx, "user_1", bundle)
	require.NoError(t, err)
	second, err := svc.CreatePending(ctx, "user_1", bundle)
	require.NoError(t, err)
	assert.Nil(t, first.StripeSessionID)
	assert.Nil(t, second.StripeSessionID)

	require.NoError(t, svc.AttachSession(ctx, first.ID, "cs_test_1"))

	var stored models.CreditPurchase
	require.NoError(t, db.First(&stored, first.ID).Error)
	require.NotNil(t, stored.StripeSessionID)
	assert.Equal(t, "cs_test_1", *stored.StripeSessionID)

	// Attached session ids stay unique.
	err = svc.AttachSession(ctx, second.ID, "cs_test_1")
	require.Error(t, err)
}

func TestGetForUserEnforcesOwnership(t *testing.T) {
	db := newTestDB(t)
	wallets := NewService(db, 20)
	svc := NewPurchaseService(db, wallets)
	ctx := context.Background()

	bundle := seedBundle(t, db, 100, 2000)
	purchase := openPurchase(t, svc, "user_1", "cs_test_1", bundle)

	got, err := svc.GetForUser(ctx, purchase.ID, "user_1")
	require.NoError(t, err)
	assert.Equal(t, purchase.ID, got.ID)

	_, err = svc.GetForUser(ctx, purchase.ID, "user_2")
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorTypeAuthorization, appErr.Type)
}

func TestListForUser(t *testing.T) {
	db := newTestDB(t)
	wallets := NewService(db, 20)
	svc := NewPurchaseService(db, wallets)
	ctx := context.Background()

	bundle := seedBundle(t, db, 100, 2000)
	openPurchase(t, svc, "user_1", "cs_test_1", bundle)
	openPurchase(t, svc, "user_1", "cs_test_2", bundle)
	openPurchase(t, svc, "user_2", "cs_test_3", bundle)

	list, err := svc.ListForUser(ctx, "user_1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
