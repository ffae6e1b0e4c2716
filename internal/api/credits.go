package api

import (
	"github.com/petcove/petcove-api/internal/models"
	"github.com/petcove/petcove-api/internal/services/auth"
	"github.com/petcove/petcove-api/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
)

type CreditsHandler struct {
	wallets   *wallet.Service
	purchases *wallet.PurchaseService
}

func NewCreditsHandler(wallets *wallet.Service, purchases *wallet.PurchaseService) *CreditsHandler {
	return &CreditsHandler{
		wallets:   wallets,
		purchases: purchases,
	}
}

// GetBalanceResponse represents the response for balance queries
type GetBalanceResponse struct {
	UserID         string `json:"user_id"`
	BalanceCredits int64  `json:"balance_credits"`
}

// GetBalance returns the current user's wallet balance. A user without a
// wallet simply has zero credits; the wallet is not created by reading.
func (h *CreditsHandler) GetBalance(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	response := GetBalanceResponse{UserID: userID}

	w, err := h.wallets.GetWallet(c.UserContext(), userID)
	if err != nil {
		if appErr, found := models.AsAppError(err); found && appErr.Type == models.ErrorTypeNotFound {
			return c.JSON(response)
		}
		return respondError(c, err)
	}

	response.BalanceCredits = w.BalanceCredits
	return c.JSON(response)
}

// TransactionItem represents a single audit-log entry
type TransactionItem struct {
	ID            uint   `json:"id"`
	AmountCents   int64  `json:"amount_cents"`
	AmountCredits int64  `json:"amount_credits"`
	Type          string `json:"type"`
	RelatedType   string `json:"related_type,omitempty"`
	RelatedID     uint   `json:"related_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// ListTransactionsResponse represents a page of the audit log
type ListTransactionsResponse struct {
	Transactions []TransactionItem `json:"transactions"`
	Limit        int               `json:"limit"`
	Offset       int               `json:"offset"`
}

// ListTransactions returns a page of the current user's transaction history.
func (h *CreditsHandler) ListTransactions(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	limit, offset := pagination(c)

	transactions, err := h.wallets.ListTransactions(c.UserContext(), userID, limit, offset)
	if err != nil {
		if appErr, found := models.AsAppError(err); found && appErr.Type == models.ErrorTypeNotFound {
			return c.JSON(ListTransactionsResponse{
				Transactions: []TransactionItem{},
				Limit:        limit,
				Offset:       offset,
			})
		}
		return respondError(c, err)
	}

	items := make([]TransactionItem, len(transactions))
	for i, tx := range transactions {
		items[i] = TransactionItem{
			ID:            tx.ID,
			AmountCents:   tx.AmountCents,
			AmountCredits: tx.AmountCredits,
			Type:          string(tx.Type),
			RelatedType:   tx.RelatedType,
			RelatedID:     tx.RelatedID,
			CreatedAt:     tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	return c.JSON(ListTransactionsResponse{
		Transactions: items,
		Limit:        limit,
		Offset:       offset,
	})
}

// ListBundles returns the active credit bundle catalog.
func (h *CreditsHandler) ListBundles(c *fiber.Ctx) error {
	bundles, err := h.purchases.ListActiveBundles(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"bundles": bundles,
	})
}
