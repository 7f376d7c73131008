package models

import (
	"time"
)

// Payment providers supported by the billing service.
const (
	ProviderPayme = "payme"
	ProviderClick = "click"
)

// PaymentStatus is the application-level status of a payment transaction.
type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusWaiting   PaymentStatus = "waiting"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentTransaction is the ledger record of an amount owed. Provider
// transactions (Payme, Click) reference it and drive its status.
//
// Status flow:
//
//	created -> waiting -> paid
//	                   -> cancelled
//	                   -> failed
type PaymentTransaction struct {
	BaseModel
	OrderID               string        `gorm:"column:order_id;uniqueIndex" json:"order_id"`
	Amount                int64         `json:"amount"` // minor units (tiyin)
	Currency              string        `gorm:"default:UZS" json:"currency"`
	Provider              string        `gorm:"index" json:"provider"`
	Status                PaymentStatus `gorm:"index;default:created" json:"status"`
	ProviderTransactionID string        `gorm:"column:provider_transaction_id;index" json:"provider_transaction_id"`
	StatusCode            *int          `json:"status_code"`
	CancelReason          string        `json:"cancel_reason"`
	PerformedAt           *time.Time    `json:"performed_at"`
	CancelledAt           *time.Time    `json:"cancelled_at"`
	ExpiresAt             *time.Time    `json:"expires_at"`
}

// IsPaid reports whether the payment has been settled.
func (t *PaymentTransaction) IsPaid() bool {
	return t.Status == PaymentStatusPaid
}

// IsCancelled reports whether the payment was cancelled or failed.
func (t *PaymentTransaction) IsCancelled() bool {
	return t.Status == PaymentStatusCancelled || t.Status == PaymentStatusFailed
}

// IsExpired reports whether an unsettled payment is past its expiry.
func (t *PaymentTransaction) IsExpired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	if t.Status != PaymentStatusCreated && t.Status != PaymentStatusWaiting {
		return false
	}
	return t.ExpiresAt.Before(now)
}

// AcceptsPayment reports whether a provider may open a transaction against
// this payment.
func (t *PaymentTransaction) AcceptsPayment(now time.Time) bool {
	return !t.IsPaid() && !t.IsCancelled() && !t.IsExpired(now)
}
