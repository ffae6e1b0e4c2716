package gifts

import (
	"context"
	"testing"
	"time"

	"github.com/petcove/petcove-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerFulfillsSubmittedGifts(t *testing.T) {
	svc, wallets, db := newTestService(t)
	giftType := seedGiftType(t, db, 25)
	ctx := context.Background()

	fundWallet(t, wallets, "user_1", 100)

	gift, err := svc.SendGift(ctx, "user_1", "Biscuit", "", giftType.ID)
	require.NoError(t, err)

	worker := NewWorker(svc, 2, 8)
	defer worker.Stop()

	worker.Submit(gift.ID)

	require.Eventually(t, func() bool {
		var stored models.Gift
		if err := db.First(&stored, gift.ID).Error; err != nil {
			return false
		}
		return stored.Status == models.GiftStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	w, err := wallets.GetWallet(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(75), w.BalanceCredits)
}

func TestWorkerSubmitAfterStopIsSafe(t *testing.T) {
	svc, _, _ := newTestService(t)

	worker := NewWorker(svc, 1, 1)
	worker.Stop()
	worker.Stop()

	// Must not panic or block.
	worker.Submit(123)
}
