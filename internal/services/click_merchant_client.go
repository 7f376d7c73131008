package services

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultClickAPIURL = "https://api.click.uz/v2/merchant"

// ClickMerchantClient calls the Click merchant API for outbound operations:
// invoice creation and payment status checks. Requests carry the digest
// Auth header merchant_user_id:sha1(timestamp+secret_key):timestamp.
type ClickMerchantClient struct {
	baseURL        string
	serviceID      int64
	merchantUserID string
	secretKey      string
	httpClient     *http.Client
}

func NewClickMerchantClient(serviceID int64, merchantUserID, secretKey string) *ClickMerchantClient {
	return &ClickMerchantClient{
		baseURL:        defaultClickAPIURL,
		serviceID:      serviceID,
		merchantUserID: merchantUserID,
		secretKey:      secretKey,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
	}
}

type clickInvoiceRequest struct {
	ServiceID       int64   `json:"service_id"`
	Amount          float64 `json:"amount"`
	PhoneNumber     string  `json:"phone_number"`
	MerchantTransID string  `json:"merchant_trans_id"`
}

// ClickInvoiceResult is the outcome of an invoice creation call.
type ClickInvoiceResult struct {
	ErrorCode int    `json:"error_code"`
	ErrorNote string `json:"error_note"`
	InvoiceID int64  `json:"invoice_id"`
}

// ClickPaymentStatus is the provider-side view of a payment.
type ClickPaymentStatus struct {
	ErrorCode     int    `json:"error_code"`
	ErrorNote     string `json:"error_note"`
	PaymentID     int64  `json:"payment_id"`
	PaymentStatus int    `json:"payment_status"`
}

// CreateInvoice asks Click to bill the given phone number for an order.
func (c *ClickMerchantClient) CreateInvoice(ctx context.Context, orderID string, amount float64, phoneNumber string) (*ClickInvoiceResult, error) {
	payload := clickInvoiceRequest{
		ServiceID:       c.serviceID,
		Amount:          amount,
		PhoneNumber:     phoneNumber,
		MerchantTransID: orderID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoice/create", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	var result ClickInvoiceResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}

	if result.ErrorCode != 0 {
		return nil, fmt.Errorf("click invoice create failed: %d %s", result.ErrorCode, result.ErrorNote)
	}

	return &result, nil
}

// PaymentStatus fetches the provider-side status of a payment.
func (c *ClickMerchantClient) PaymentStatus(ctx context.Context, paymentID int64) (*ClickPaymentStatus, error) {
	url := fmt.Sprintf("%s/payment/status/%d/%d", c.baseURL, c.serviceID, paymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	var result ClickPaymentStatus
	if err := c.do(req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *ClickMerchantClient) setHeaders(req *http.Request) {
	timestamp := time.Now().Unix()
	digest := sha1.Sum([]byte(strconv.FormatInt(timestamp, 10) + c.secretKey))

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Auth", fmt.Sprintf("%s:%s:%d", c.merchantUserID, hex.EncodeToString(digest[:]), timestamp))
}

func (c *ClickMerchantClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("click api status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	return json.Unmarshal(data, out)
}
