package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umdsoft/biznespilot-billing/internal/models"
)

type fakePaymentCreator struct {
	created []*models.PaymentTransaction
	err     error
}

func (f *fakePaymentCreator) Create(_ context.Context, txn *models.PaymentTransaction) error {
	if f.err != nil {
		return f.err
	}
	txn.ID = uuid.New()
	f.created = append(f.created, txn)
	return nil
}

func newTestCheckoutService(payments PaymentCreator) *CheckoutService {
	return NewCheckoutService(payments, "merchant123", 12345, "m-9", 24*time.Hour)
}

func TestCheckoutCreatePaymentValidation(t *testing.T) {
	f := &fakePaymentCreator{}
	svc := newTestCheckoutService(f)

	_, err := svc.CreatePayment(context.Background(), CheckoutRequest{Amount: 0, Provider: models.ProviderPayme})
	assert.Error(t, err)

	_, err = svc.CreatePayment(context.Background(), CheckoutRequest{Amount: -100, Provider: models.ProviderPayme})
	assert.Error(t, err)

	_, err = svc.CreatePayment(context.Background(), CheckoutRequest{Amount: 50000, Provider: "stripe"})
	assert.Error(t, err)

	assert.Empty(t, f.created)
}

func TestCheckoutCreatePaymentPayme(t *testing.T) {
	f := &fakePaymentCreator{}
	svc := newTestCheckoutService(f)

	result, err := svc.CreatePayment(context.Background(), CheckoutRequest{
		Amount:    50000,
		Provider:  models.ProviderPayme,
		ReturnURL: "https://biznespilot.uz/paid/",
	})
	require.NoError(t, err)

	require.Len(t, f.created, 1)
	txn := f.created[0]
	assert.Equal(t, models.PaymentStatusCreated, txn.Status)
	assert.Equal(t, int64(50000), txn.Amount)
	require.NotNil(t, txn.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *txn.ExpiresAt, time.Minute)

	require.True(t, strings.HasPrefix(result.PaymentURL, "https://checkout.payme.uz/"))
	encoded := strings.TrimPrefix(result.PaymentURL, "https://checkout.payme.uz/")
	payload, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	expected := fmt.Sprintf("m=merchant123;ac.order_id=%s;a=50000;c=https://biznespilot.uz/paid", result.OrderID)
	assert.Equal(t, expected, string(payload))
}

func TestCheckoutCreatePaymentClick(t *testing.T) {
	f := &fakePaymentCreator{}
	svc := newTestCheckoutService(f)

	result, err := svc.CreatePayment(context.Background(), CheckoutRequest{
		Amount:    50050,
		Provider:  models.ProviderClick,
		ReturnURL: "https://biznespilot.uz/paid",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(result.PaymentURL)
	require.NoError(t, err)
	assert.Equal(t, "my.click.uz", parsed.Host)
	assert.Equal(t, "/services/pay", parsed.Path)

	q := parsed.Query()
	assert.Equal(t, "12345", q.Get("service_id"))
	assert.Equal(t, "m-9", q.Get("merchant_id"))
	assert.Equal(t, "500.50", q.Get("amount"), "amount is reported in so'm with two decimals")
	assert.Equal(t, result.OrderID, q.Get("transaction_param"))
	assert.Equal(t, "https://biznespilot.uz/paid", q.Get("return_url"))
}

func TestCheckoutOrderIDFormat(t *testing.T) {
	f := &fakePaymentCreator{}
	svc := newTestCheckoutService(f)

	pattern := regexp.MustCompile(`^BP\d{12}[0-9A-F]{4}$`)

	for i := 0; i < 10; i++ {
		result, err := svc.CreatePayment(context.Background(), CheckoutRequest{Amount: 1000, Provider: models.ProviderClick})
		require.NoError(t, err)
		assert.Regexp(t, pattern, result.OrderID)
	}
}
