package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/petcove/petcove-api/internal/models"
	"github.com/petcove/petcove-api/internal/services/auth"
	"github.com/petcove/petcove-api/internal/services/database"
	"github.com/petcove/petcove-api/internal/services/donations"
	"github.com/petcove/petcove-api/internal/services/gdpr"
	"github.com/petcove/petcove-api/internal/services/gifts"
	"github.com/petcove/petcove-api/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStack struct {
	db        *database.DB
	wallets   *wallet.Service
	purchases *wallet.PurchaseService
	gifts     *gifts.Service
	gdpr      *gdpr.Service
}

func newTestStack(t *testing.T) *testStack {
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

	wallets := wallet.NewService(db.DB, 20)
	return &testStack{
		db:        db,
		wallets:   wallets,
		purchases: wallet.NewPurchaseService(db.DB, wallets),
		gifts:     gifts.NewService(db.DB, wallets),
		gdpr:      gdpr.NewService(db.DB, 72*time.Hour),
	}
}

// asUser injects an authenticated user id the way the auth middleware does.
func asUser(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID != "" {
			auth.SetUserID(c, userID)
		}
		return c.Next()
	}
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	parsed := map[string]json.RawMessage{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}

func TestGetBalance(t *testing.T) {
	stack := newTestStack(t)
	handler := NewCreditsHandler(stack.wallets, stack.purchases)

	app := fiber.New()
	app.Use(asUser("user_1"))
	app.Get("/api/credits/balance", handler.GetBalance)

	// No wallet yet: zero balance, not an error.
	resp, body := doJSON(t, app, "GET", "/api/credits/balance", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var balance int64
	require.NoError(t, json.Unmarshal(body["balance_credits"], &balance))
	assert.Equal(t, int64(0), balance)

	// Reading must not have created a wallet.
	var count int64
	require.NoError(t, stack.db.DB.Model(&models.Wallet{}).Count(&count).Error)
	assert.Zero(t, count)

	_, err := stack.wallets.Credit(context.Background(), models.CreditCreditsParams{
		UserID:        "user_1",
		AmountCredits: 42,
		AmountCents:   840,
		Type:          models.CreditTransactionPurchase,
	})
	require.NoError(t, err)

	resp, body = doJSON(t, app, "GET", "/api/credits/balance", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body["balance_credits"], &balance))
	assert.Equal(t, int64(42), balance)
}

func TestGetBalanceRequiresAuth(t *testing.T) {
	stack := newTestStack(t)
	handler := NewCreditsHandler(stack.wallets, stack.purchases)

	app := fiber.New()
	app.Use(asUser(""))
	app.Get("/api/credits/balance", handler.GetBalance)

	resp, _ := doJSON(t, app, "GET", "/api/credits/balance", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestListTransactionsEmptyWithoutWallet(t *testing.T) {
	stack := newTestStack(t)
	handler := NewCreditsHandler(stack.wallets, stack.purchases)

	app := fiber.New()
	app.Use(asUser("user_1"))
	app.Get("/api/credits/transactions", handler.ListTransactions)

	resp, body := doJSON(t, app, "GET", "/api/credits/transactions", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var transactions []TransactionItem
	require.NoError(t, json.Unmarshal(body["transactions"], &transactions))
	assert.Empty(t, transactions)
}

func TestListBundles(t *testing.T) {
	stack := newTestStack(t)
	handler := NewCreditsHandler(stack.wallets, stack.purchases)

	require.NoError(t, stack.db.DB.Create(&models.CreditBundle{
		Name: "Starter", Credits: 100, PriceCents: 2000, IsActive: true,
	}).Error)
	require.NoError(t, stack.db.DB.Create(&models.CreditBundle{
		Name: "Retired", Credits: 10, PriceCents: 200, IsActive: false,
	}).Error)

	app := fiber.New()
	app.Use(asUser("user_1"))
	app.Get("/api/credits/bundles", handler.ListBundles)

	resp, body := doJSON(t, app, "GET", "/api/credits/bundles", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var bundles []models.CreditBundle
	require.NoError(t, json.Unmarshal(body["bundles"], &bundles))
	require.Len(t, bundles, 1)
	assert.Equal(t, "Starter", bundles[0].Name)
}

func TestGetPurchaseOwnership(t *testing.T) {
	stack := newTestStack(t)

	bundle := models.CreditBundle{Name: "Starter", Credits: 100, PriceCents: 2000, IsActive: true}
	require.NoError(t, stack.db.DB.Create(&bundle).Error)

	purchase, err := stack.purchases.CreatePending(context.Background(), "owner", &bundle)
	require.NoError(t, err)

	handler := NewPurchasesHandler(nil, stack.purchases)

	ownerApp := fiber.New()
	ownerApp.Use(asUser("owner"))
	ownerApp.Get("/api/credits/purchases/:id", handler.GetPurchase)

	otherApp := fiber.New()
	otherApp.Use(asUser("intruder"))
	otherApp.Get("/api/credits/purchases/:id", handler.GetPurchase)

	target := fmt.Sprintf("/api/credits/purchases/%d", purchase.ID)

	resp, body := doJSON(t, ownerApp, "GET", target, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got models.CreditPurchase
	require.NoError(t, json.Unmarshal(body["purchase"], &got))
	assert.Equal(t, purchase.ID, got.ID)

	resp, _ = doJSON(t, otherApp, "GET", target, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSendGiftEndpoint(t *testing.T) {
	stack := newTestStack(t)

	giftType := models.GiftType{Name: "Treat Box", CreditsCost: 25, IsActive: true}
	require.NoError(t, stack.db.DB.Create(&giftType).Error)

	_, err := stack.wallets.Credit(context.Background(), models.CreditCreditsParams{
		UserID:        "user_1",
		AmountCredits: 100,
		AmountCents:   2000,
		Type:          models.CreditTransactionPurchase,
	})
	require.NoError(t, err)

	worker := gifts.NewWorker(stack.gifts, 1, 4)
	t.Cleanup(worker.Stop)

	handler := NewGiftsHandler(stack.gifts, worker)

	app := fiber.New()
	app.Use(asUser("user_1"))
	app.Post("/api/gifts", handler.SendGift)

	resp, body := doJSON(t, app, "POST", "/api/gifts", SendGiftRequest{
		GiftTypeID: giftType.ID,
		PetName:    "Biscuit",
		Message:    "good dog",
	})
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var gift models.Gift
	require.NoError(t, json.Unmarshal(body["gift"], &gift))
	assert.Equal(t, models.GiftStatusPending, gift.Status)

	// The worker eventually debits and completes the gift.
	require.Eventually(t, func() bool {
		var stored models.Gift
		if err := stack.db.DB.First(&stored, gift.ID).Error; err != nil {
			return false
		}
		return stored.Status == models.GiftStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSendGiftInsufficientBalance(t *testing.T) {
	stack := newTestStack(t)

	giftType := models.GiftType{Name: "Treat Box", CreditsCost: 25, IsActive: true}
	require.NoError(t, stack.db.DB.Create(&giftType).Error)

	worker := gifts.NewWorker(stack.gifts, 1, 4)
	t.Cleanup(worker.Stop)

	handler := NewGiftsHandler(stack.gifts, worker)

	app := fiber.New()
	app.Use(asUser("user_1"))
	app.Post("/api/gifts", handler.SendGift)

	resp, body := doJSON(t, app, "POST", "/api/gifts", SendGiftRequest{
		GiftTypeID: giftType.ID,
		PetName:    "Biscuit",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var appErr models.AppError
	require.NoError(t, json.Unmarshal(body["error"], &appErr))
	assert.Equal(t, models.ErrorTypeValidation, appErr.Type)
}

func TestExportEndpoints(t *testing.T) {
	stack := newTestStack(t)

	worker := gdpr.NewWorker(stack.gdpr, 1, 4)
	t.Cleanup(worker.Stop)

	handler := NewGDPRHandler(stack.gdpr, worker)

	app := fiber.New()
	app.Use(asUser("user_1"))
	app.Post("/api/gdpr/exports", handler.RequestExport)
	app.Get("/api/gdpr/exports/:id", handler.GetExport)

	resp, body := doJSON(t, app, "POST", "/api/gdpr/exports", nil)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var export models.DataExport
	require.NoError(t, json.Unmarshal(body["export"], &export))
	require.NotEmpty(t, export.PublicID)

	// Poll until the worker marks it ready, then fetch the document.
	require.Eventually(t, func() bool {
		var stored models.DataExport
		if err := stack.db.DB.Where("public_id = ?", export.PublicID).
			First(&stored).Error; err != nil {
			return false
		}
		return stored.Status == models.DataExportStatusReady
	}, 5*time.Second, 10*time.Millisecond)

	req := httptest.NewRequest("GET", "/api/gdpr/exports/"+export.PublicID, nil)
	readyResp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, readyResp.StatusCode)

	raw, err := io.ReadAll(readyResp.Body)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "user_1", doc["user_id"])

	// Another user cannot fetch it.
	otherApp := fiber.New()
	otherApp.Use(asUser("user_2"))
	otherApp.Get("/api/gdpr/exports/:id", handler.GetExport)

	resp, _ = doJSON(t, otherApp, "GET", "/api/gdpr/exports/"+export.PublicID, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCreateDonationAllowsAnonymous(t *testing.T) {
	stack := newTestStack(t)
	handler := NewDonationsHandler(nil, donations.NewService(stack.db.DB))

	// Mounted without auth middleware, as on the public donate route. An
	// anonymous request reaches request validation instead of a 401 gate.
	app := fiber.New()
	app.Post("/donations", handler.CreateDonation)

	resp, _ := doJSON(t, app, "POST", "/donations", CreateDonationRequest{
		AmountCents: 0,
		SuccessURL:  "https://example.com/ok",
		CancelURL:   "https://example.com/cancel",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	stack := newTestStack(t)

	handler := NewHealthHandler(stack.db, nil)

	app := fiber.New()
	app.Get("/health", handler.HealthCheck)

	resp, body := doJSON(t, app, "GET", "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var status string
	require.NoError(t, json.Unmarshal(body["status"], &status))
	assert.Equal(t, "healthy", status)
}
