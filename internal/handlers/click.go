package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/umdsoft/biznespilot-billing/internal/services"
)

// ClickHandler serves the Click SHOP API webhook endpoints.
type ClickHandler struct {
	click *services.ClickService
}

func NewClickHandler(click *services.ClickService) *ClickHandler {
	return &ClickHandler{click: click}
}

// Prepare handles the Click prepare call on /api/payments/click/prepare.
func (h *ClickHandler) Prepare(c *fiber.Ctx) error {
	req := parseClickRequest(c)
	req.Action = services.ClickActionPrepare
	return c.JSON(h.click.Prepare(c.UserContext(), req))
}

// Complete handles the Click complete call on /api/payments/click/complete.
func (h *ClickHandler) Complete(c *fiber.Ctx) error {
	req := parseClickRequest(c)
	req.Action = services.ClickActionComplete
	return c.JSON(h.click.Complete(c.UserContext(), req))
}

func parseClickRequest(c *fiber.Ctx) services.ClickRequest {
	return services.ClickRequest{
		ClickTransID:      formInt64(c, "click_trans_id"),
		ServiceID:         formInt64(c, "service_id"),
		ClickPaydocID:     formInt64(c, "click_paydoc_id"),
		MerchantTransID:   c.FormValue("merchant_trans_id"),
		MerchantPrepareID: c.FormValue("merchant_prepare_id"),
		Amount:            formFloat(c, "amount"),
		Action:            int(formInt64(c, "action")),
		Error:             int(formInt64(c, "error")),
		ErrorNote:         c.FormValue("error_note"),
		SignTime:          c.FormValue("sign_time"),
		SignString:        c.FormValue("sign_string"),
	}
}

func formInt64(c *fiber.Ctx, key string) int64 {
	value, _ := strconv.ParseInt(c.FormValue(key), 10, 64)
	return value
}

func formFloat(c *fiber.Ctx, key string) float64 {
	value, _ := strconv.ParseFloat(c.FormValue(key), 64)
	return value
}
