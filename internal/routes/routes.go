package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/umdsoft/biznespilot-billing/internal/config"
	"github.com/umdsoft/biznespilot-billing/internal/handlers"
	"github.com/umdsoft/biznespilot-billing/internal/middleware"
	"github.com/umdsoft/biznespilot-billing/internal/services"
	"github.com/umdsoft/biznespilot-billing/internal/store"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	payments := store.NewPayments(db)

	paymeService := services.NewPaymeService(store.NewPayme(db), cfg.TransactionTimeout, cfg.LockWait)
	clickService := services.NewClickService(store.NewClick(db), cfg.TransactionTimeout, cfg.LockWait)
	checkoutService := services.NewCheckoutService(payments, cfg.PaymeMerchantID, cfg.ClickServiceID, cfg.ClickMerchantID, cfg.OrderTTL)
	clickClient := services.NewClickMerchantClient(cfg.ClickServiceID, cfg.ClickMerchantUserID, cfg.ClickSecretKey)

	paymeHandler := handlers.NewPaymeHandler(paymeService)
	clickHandler := handlers.NewClickHandler(clickService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, clickClient, payments)
	transactionsHandler := handlers.NewTransactionsHandler(payments)

	api := app.Group("/api")

	// Provider webhooks
	payme := api.Group("/payments/payme", middleware.PaymeAuthMiddleware(cfg.PaymeMerchantKey))
	payme.Post("/", paymeHandler.Pay)

	click := api.Group("/payments/click", middleware.ClickSignMiddleware(cfg.ClickServiceID, cfg.ClickSecretKey))
	click.Post("/prepare", clickHandler.Prepare)
	click.Post("/complete", clickHandler.Complete)

	// Checkout
	api.Post("/checkout", checkoutHandler.Create)
	api.Post("/checkout/invoice", checkoutHandler.CreateClickInvoice)

	// Audit trail
	api.Get("/transactions", transactionsHandler.List)
	api.Get("/transactions/:orderID", transactionsHandler.Get)
}
