package middleware

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/umdsoft/biznespilot-billing/internal/services"
)

// ClickSignMiddleware verifies the MD5 signature of a Click webhook call
// before it reaches the reconciler. The signed string is
//
//	Prepare:  click_trans_id + service_id + secret + merchant_trans_id + amount + action + sign_time
//	Complete: click_trans_id + service_id + secret + merchant_trans_id + merchant_prepare_id + amount + action + sign_time
func ClickSignMiddleware(serviceID int64, secretKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secretKey == "" {
			return writeClickSignError(c)
		}

		if reqServiceID, err := strconv.ParseInt(c.FormValue("service_id"), 10, 64); err != nil || reqServiceID != serviceID {
			return writeClickSignError(c)
		}

		action := c.FormValue("action")
		toSign := c.FormValue("click_trans_id") +
			c.FormValue("service_id") +
			secretKey +
			c.FormValue("merchant_trans_id")

		if action == strconv.Itoa(services.ClickActionComplete) {
			toSign += c.FormValue("merchant_prepare_id")
		}

		toSign += c.FormValue("amount") + action + c.FormValue("sign_time")

		sum := md5.Sum([]byte(toSign))
		if hex.EncodeToString(sum[:]) != c.FormValue("sign_string") {
			return writeClickSignError(c)
		}

		return c.Next()
	}
}

func writeClickSignError(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"click_trans_id":    c.FormValue("click_trans_id"),
		"merchant_trans_id": c.FormValue("merchant_trans_id"),
		"error":             services.ClickErrSignCheckFailed,
		"error_note":        services.ClickErrorNote(services.ClickErrSignCheckFailed),
	})
}
