package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/umdsoft/biznespilot-billing/internal/services"
)

// CheckoutHandler opens payments and returns provider checkout URLs.
type CheckoutHandler struct {
	checkout *services.CheckoutService
	invoices *services.ClickMerchantClient
	payments PaymentLister
}

func NewCheckoutHandler(checkout *services.CheckoutService, invoices *services.ClickMerchantClient, payments PaymentLister) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, invoices: invoices, payments: payments}
}

// Create handles POST /api/checkout.
func (h *CheckoutHandler) Create(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.checkout.CreatePayment(c.UserContext(), req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(result)
}

type clickInvoiceRequest struct {
	OrderID     string `json:"order_id"`
	PhoneNumber string `json:"phone_number"`
}

// CreateClickInvoice handles POST /api/checkout/invoice: it asks Click to
// bill the phone number for an already-opened order.
func (h *CheckoutHandler) CreateClickInvoice(c *fiber.Ctx) error {
	var req clickInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.OrderID) == "" || strings.TrimSpace(req.PhoneNumber) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "order_id and phone_number are required")
	}

	payment, err := h.payments.FindByOrderID(c.UserContext(), req.OrderID)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}

	invoice, err := h.invoices.CreateInvoice(c.UserContext(), payment.OrderID, float64(payment.Amount)/100, req.PhoneNumber)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"invoice_id": invoice.InvoiceID,
		"order_id":   payment.OrderID,
	})
}
