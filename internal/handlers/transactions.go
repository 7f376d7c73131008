package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/umdsoft/biznespilot-billing/internal/models"
	"github.com/umdsoft/biznespilot-billing/internal/store"
	"github.com/umdsoft/biznespilot-billing/internal/utils"
)

// PaymentLister is the slice of the ledger the back-office listing needs.
// Implemented by store.Payments.
type PaymentLister interface {
	FindByOrderID(ctx context.Context, orderID string) (*models.PaymentTransaction, error)
	List(ctx context.Context, filter store.ListFilter) ([]models.PaymentTransaction, int64, error)
}

// TransactionsHandler exposes the payment audit trail for back-office use.
type TransactionsHandler struct {
	payments PaymentLister
}

func NewTransactionsHandler(payments PaymentLister) *TransactionsHandler {
	return &TransactionsHandler{payments: payments}
}

// List handles GET /api/transactions with optional provider, status and
// order_id filters.
func (h *TransactionsHandler) List(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	filter := store.ListFilter{
		Provider: strings.TrimSpace(c.Query("provider")),
		OrderID:  strings.TrimSpace(c.Query("order_id")),
		Limit:    pg.Limit,
		Offset:   pg.Offset,
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filter.Status = models.PaymentStatus(status)
	}

	txns, total, err := h.payments.List(c.UserContext(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    txns,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// Get handles GET /api/transactions/:orderID.
func (h *TransactionsHandler) Get(c *fiber.Ctx) error {
	txn, err := h.payments.FindByOrderID(c.UserContext(), c.Params("orderID"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "transaction not found")
	}
	return c.JSON(txn)
}
