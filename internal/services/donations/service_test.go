package donations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/petcove/petcove-api/internal/models"
	"github.com/petcove/petcove-api/internal/services/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
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

	return NewService(db.DB)
}

func TestCreatePendingValidatesAmount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePending(ctx, "user_1", 0, "")
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorTypeValidation, appErr.Type)

	_, err = svc.CreatePending(ctx, "user_1", -500, "")
	require.Error(t, err)
}

func TestDonationLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	donation, err := svc.CreatePending(ctx, "user_1", 1500, "for the shelter")
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusPending, donation.Status)

	require.NoError(t, svc.AttachSession(ctx, donation.ID, "cs_don_1"))

	paid, err := svc.MarkPaid(ctx, "cs_don_1")
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// Redelivery is a no-op.
	again, err := svc.MarkPaid(ctx, "cs_don_1")
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusPaid, again.Status)

	// Expiry after payment must not flip the status.
	after, err := svc.MarkFailed(ctx, "cs_don_1")
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusPaid, after.Status)
}

func TestMarkFailed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	donation, err := svc.CreatePending(ctx, "", 500, "")
	require.NoError(t, err)
	require.NoError(t, svc.AttachSession(ctx, donation.ID, "cs_don_2"))

	failed, err := svc.MarkFailed(ctx, "cs_don_2")
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusFailed, failed.Status)
	assert.Nil(t, failed.PaidAt)
}

func TestCreatePendingBeforeSessionAttaches(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Multiple donations may be awaiting their checkout session at once.
	first, err := svc.CreatePending(ctx, "user_1", 500, "")
	require.NoError(t, err)
	second, err := svc.CreatePending(ctx, "", 700, "")
	require.NoError(t, err)
	assert.Nil(t, first.StripeSessionID)
	assert.Nil(t, second.StripeSessionID)

	require.NoError(t, svc.AttachSession(ctx, first.ID, "cs_don_1"))
	err = svc.AttachSession(ctx, second.ID, "cs_don_1")
	require.Error(t, err)
}

func TestTransitionUnknownSession(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.MarkPaid(context.Background(), "cs_missing")
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorTypeNotFound, appErr.Type)
}

func TestListForUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePending(ctx, "user_1", 500, "")
	require.NoError(t, err)
	_, err = svc.CreatePending(ctx, "user_1", 1000, "")
	require.NoError(t, err)
	_, err = svc.CreatePending(ctx, "user_2", 700, "")
	require.NoError(t, err)

	list, err := svc.ListForUser(ctx, "user_1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
