package models

import (
	"github.com/google/uuid"
)

// ClickState is the stored state of a Click SHOP API transaction.
type ClickState int

const (
	ClickStateCreated              ClickState = 1
	ClickStateConfirmed            ClickState = 2
	ClickStateCancelledAfterConfirm ClickState = -1
	ClickStateCancelled            ClickState = -2
)

// IsCancelled reports whether the state is one of the cancelled variants.
func (s ClickState) IsCancelled() bool {
	return s == ClickStateCancelled || s == ClickStateCancelledAfterConfirm
}

// Confirmed returns the state after a successful Complete.
func (s ClickState) Confirmed() (ClickState, error) {
	if s != ClickStateCreated {
		return s, ErrInvalidTransition
	}
	return ClickStateConfirmed, nil
}

// Cancelled returns the cancelled variant reachable from the current state.
func (s ClickState) Cancelled() (ClickState, error) {
	switch s {
	case ClickStateCreated:
		return ClickStateCancelled, nil
	case ClickStateConfirmed:
		return ClickStateCancelledAfterConfirm, nil
	default:
		return s, ErrInvalidTransition
	}
}

// ClickTransaction is one Click-reported payment attempt against a
// PaymentTransaction. Rows are append-only audit records.
type ClickTransaction struct {
	BaseModel
	PaymentTransactionID uuid.UUID           `gorm:"type:uuid;index" json:"payment_transaction_id"`
	PaymentTransaction   *PaymentTransaction `gorm:"foreignKey:PaymentTransactionID" json:"-"`
	ClickTransID         int64               `gorm:"column:click_trans_id;uniqueIndex" json:"click_trans_id"`
	ClickPaydocID        int64               `gorm:"column:click_paydoc_id" json:"click_paydoc_id"`
	MerchantPrepareID    string              `gorm:"column:merchant_prepare_id" json:"merchant_prepare_id"`
	State                ClickState          `json:"state"`
	ErrorCode            int                 `json:"error_code"`
	ErrorNote            string              `json:"error_note"`
	SignTime             string              `json:"sign_time"`
	SignString           string              `json:"sign_string"`
	CreateTime           int64               `json:"create_time"`
	PerformTime          int64               `json:"perform_time"`
	CancelTime           int64               `json:"cancel_time"`
}

// Expired reports whether the transaction sat unconfirmed past the window.
func (t *ClickTransaction) Expired(nowMillis, windowMillis int64) bool {
	return t.State == ClickStateCreated && nowMillis-t.CreateTime >= windowMillis
}
