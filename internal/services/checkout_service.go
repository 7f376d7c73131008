package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/umdsoft/biznespilot-billing/internal/models"
)

const (
	paymeCheckoutURL = "https://checkout.payme.uz"
	clickCheckoutURL = "https://my.click.uz/services/pay"
)

// PaymentCreator is the slice of the ledger the checkout flow needs.
// Implemented by store.Payments.
type PaymentCreator interface {
	Create(ctx context.Context, txn *models.PaymentTransaction) error
}

// CheckoutService opens parent payment transactions and builds
// provider-specific checkout URLs for them.
type CheckoutService struct {
	payments        PaymentCreator
	paymeMerchantID string
	clickServiceID  int64
	clickMerchantID string
	orderTTL        time.Duration
}

func NewCheckoutService(payments PaymentCreator, paymeMerchantID string, clickServiceID int64, clickMerchantID string, orderTTL time.Duration) *CheckoutService {
	return &CheckoutService{
		payments:        payments,
		paymeMerchantID: paymeMerchantID,
		clickServiceID:  clickServiceID,
		clickMerchantID: clickMerchantID,
		orderTTL:        orderTTL,
	}
}

type CheckoutRequest struct {
	Amount    int64  `json:"amount"` // tiyin
	Provider  string `json:"provider"`
	ReturnURL string `json:"return_url"`
}

type CheckoutResult struct {
	OrderID    string    `json:"order_id"`
	PaymentURL string    `json:"payment_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// CreatePayment opens a ledger record awaiting payment and returns the
// checkout URL for the requested provider.
func (s *CheckoutService) CreatePayment(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("invalid amount %d", req.Amount)
	}
	if req.Provider != models.ProviderPayme && req.Provider != models.ProviderClick {
		return nil, fmt.Errorf("unsupported provider %q", req.Provider)
	}

	expires := time.Now().Add(s.orderTTL)
	txn := &models.PaymentTransaction{
		OrderID:   generateOrderID(),
		Amount:    req.Amount,
		Currency:  "UZS",
		Provider:  req.Provider,
		Status:    models.PaymentStatusCreated,
		ExpiresAt: &expires,
	}

	if err := s.payments.Create(ctx, txn); err != nil {
		return nil, err
	}

	var paymentURL string
	if req.Provider == models.ProviderPayme {
		paymentURL = s.paymeURL(txn, req.ReturnURL)
	} else {
		paymentURL = s.clickURL(txn, req.ReturnURL)
	}

	return &CheckoutResult{
		OrderID:    txn.OrderID,
		PaymentURL: paymentURL,
		ExpiresAt:  expires,
	}, nil
}

// paymeURL builds the base64 checkout payload: m=<merchant>;ac.order_id=<order>;a=<tiyin>[;c=<return>].
func (s *CheckoutService) paymeURL(txn *models.PaymentTransaction, returnURL string) string {
	payload := fmt.Sprintf("m=%s;ac.order_id=%s;a=%d", s.paymeMerchantID, txn.OrderID, txn.Amount)
	if returnURL != "" {
		payload += ";c=" + strings.TrimRight(returnURL, "/")
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(payload))
	return paymeCheckoutURL + "/" + encoded
}

// clickURL builds the query-string checkout URL. Click expects the amount in
// so'm with two decimals.
func (s *CheckoutService) clickURL(txn *models.PaymentTransaction, returnURL string) string {
	params := url.Values{}
	params.Set("service_id", fmt.Sprintf("%d", s.clickServiceID))
	params.Set("merchant_id", s.clickMerchantID)
	params.Set("amount", fmt.Sprintf("%.2f", float64(txn.Amount)/100))
	params.Set("transaction_param", txn.OrderID)
	if returnURL != "" {
		params.Set("return_url", returnURL)
	}
	return clickCheckoutURL + "?" + params.Encode()
}

// generateOrderID produces a merchant order id: BP + timestamp + 4 random
// characters.
func generateOrderID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return "BP" + time.Now().Format("060102150405") + suffix
}
