package models

import (
	"errors"

	"github.com/google/uuid"
)

// PaymeState is the Payme Merchant API transaction state.
type PaymeState int

const (
	PaymeStateCreated                PaymeState = 1
	PaymeStateCompleted              PaymeState = 2
	PaymeStateCancelledAfterComplete PaymeState = -1
	PaymeStateCancelled              PaymeState = -2
)

// Payme cancellation reasons, fixed by the Merchant API.
const (
	PaymeReasonReceiverNotFound = 1
	PaymeReasonProcessingError  = 2
	PaymeReasonTransactionError = 3
	PaymeReasonTimeout          = 4
	PaymeReasonRefund           = 5
	PaymeReasonUnknown          = 10
)

// ErrInvalidTransition is returned when a state change would move a
// transaction backward or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid state transition")

// IsCancelled reports whether the state is one of the cancelled variants.
func (s PaymeState) IsCancelled() bool {
	return s == PaymeStateCancelled || s == PaymeStateCancelledAfterComplete
}

// Performed returns the state after a successful PerformTransaction.
func (s PaymeState) Performed() (PaymeState, error) {
	if s != PaymeStateCreated {
		return s, ErrInvalidTransition
	}
	return PaymeStateCompleted, nil
}

// Cancelled returns the cancelled variant reachable from the current state.
func (s PaymeState) Cancelled() (PaymeState, error) {
	switch s {
	case PaymeStateCreated:
		return PaymeStateCancelled, nil
	case PaymeStateCompleted:
		return PaymeStateCancelledAfterComplete, nil
	default:
		return s, ErrInvalidTransition
	}
}

// PaymeTransaction is one Payme-reported payment attempt against a
// PaymentTransaction. Rows are append-only audit records.
type PaymeTransaction struct {
	BaseModel
	PaymentTransactionID uuid.UUID           `gorm:"type:uuid;index" json:"payment_transaction_id"`
	PaymentTransaction   *PaymentTransaction `gorm:"foreignKey:PaymentTransactionID" json:"-"`
	PaymeID              string              `gorm:"column:payme_id;uniqueIndex" json:"payme_id"`
	PaymeTime            int64               `gorm:"column:payme_time" json:"payme_time"`
	State                PaymeState          `json:"state"`
	Reason               *int                `json:"reason"`
	CreateTime           int64               `json:"create_time"`
	PerformTime          int64               `json:"perform_time"`
	CancelTime           int64               `json:"cancel_time"`
}

// Expired reports whether the transaction sat unperformed past the window.
func (t *PaymeTransaction) Expired(nowMillis, windowMillis int64) bool {
	return t.State == PaymeStateCreated && nowMillis-t.CreateTime >= windowMillis
}
