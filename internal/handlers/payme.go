package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/umdsoft/biznespilot-billing/internal/services"
)

// PaymeHandler serves the Payme Merchant API JSON-RPC endpoint.
type PaymeHandler struct {
	payme *services.PaymeService
}

func NewPaymeHandler(payme *services.PaymeService) *PaymeHandler {
	return &PaymeHandler{payme: payme}
}

type paymeRPCRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     any             `json:"id"`
}

// Pay handles Payme JSON-RPC calls on /api/payments/payme.
func (h *PaymeHandler) Pay(c *fiber.Ctx) error {
	var req paymeRPCRequest
	if err := c.BodyParser(&req); err != nil || req.Method == "" {
		return writePaymeError(c, &services.TransactionError{Info: services.PaymeErrorInvalidJSONRPC, ID: req.ID})
	}

	ctx := c.UserContext()

	switch req.Method {
	case "CheckPerformTransaction":
		var params services.CheckPerformParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, &services.TransactionError{Info: services.PaymeErrorInvalidJSONRPC, ID: req.ID})
		}
		if err := h.payme.CheckPerformTransaction(ctx, params, req.ID); err != nil {
			return writePaymeError(c, err)
		}
		return c.JSON(fiber.Map{"result": fiber.Map{"allow": true}, "id": req.ID})
	case "CreateTransaction":
		var params services.CreateTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, &services.TransactionError{Info: services.PaymeErrorInvalidJSONRPC, ID: req.ID})
		}
		result, err := h.payme.CreateTransaction(ctx, params, req.ID)
		if err != nil {
			return writePaymeError(c, err)
		}
		return c.JSON(fiber.Map{"result": result, "id": req.ID})
	case "PerformTransaction":
		var params services.PerformTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, &services.TransactionError{Info: services.PaymeErrorInvalidJSONRPC, ID: req.ID})
		}
		result, err := h.payme.PerformTransaction(ctx, params, req.ID)
		if err != nil {
			return writePaymeError(c, err)
		}
		return c.JSON(fiber.Map{"result": result, "id": req.ID})
	case "CancelTransaction":
		var params services.CancelTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, &services.TransactionError{Info: services.PaymeErrorInvalidJSONRPC, ID: req.ID})
		}
		result, err := h.payme.CancelTransaction(ctx, params, req.ID)
		if err != nil {
			return writePaymeError(c, err)
		}
		return c.JSON(fiber.Map{"result": result, "id": req.ID})
	case "CheckTransaction":
		var params services.CheckTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, &services.TransactionError{Info: services.PaymeErrorInvalidJSONRPC, ID: req.ID})
		}
		result, err := h.payme.CheckTransaction(ctx, params, req.ID)
		if err != nil {
			return writePaymeError(c, err)
		}
		return c.JSON(fiber.Map{"result": result, "id": req.ID})
	case "GetStatement":
		var params services.StatementParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, &services.TransactionError{Info: services.PaymeErrorInvalidJSONRPC, ID: req.ID})
		}
		result, err := h.payme.GetStatement(ctx, params, req.ID)
		if err != nil {
			return writePaymeError(c, err)
		}
		return c.JSON(fiber.Map{"result": fiber.Map{"transactions": result}, "id": req.ID})
	default:
		return writePaymeError(c, &services.TransactionError{Info: services.PaymeErrorMethodNotFound, ID: req.ID})
	}
}

func writePaymeError(c *fiber.Ctx, err error) error {
	txErr, ok := err.(*services.TransactionError)
	if !ok {
		txErr = &services.TransactionError{Info: services.PaymeErrorInternalSystem}
	}

	info := txErr.Info
	return c.JSON(fiber.Map{
		"error": fiber.Map{
			"code": info.Code,
			"message": fiber.Map{
				"uz": info.Message["uz"],
				"ru": info.Message["ru"],
				"en": info.Message["en"],
			},
			"data": txErr.Data,
		},
		"id": txErr.ID,
	})
}
