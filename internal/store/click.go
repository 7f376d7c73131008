package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/umdsoft/biznespilot-billing/internal/models"
)

// Click is the GORM store for Click provider transactions.
type Click struct {
	db *gorm.DB
}

func NewClick(db *gorm.DB) *Click {
	return &Click{db: db}
}

// FindByClickTransID looks up a provider transaction by the Click-assigned id.
func (s *Click) FindByClickTransID(ctx context.Context, clickTransID int64) (*models.ClickTransaction, error) {
	var txn models.ClickTransaction
	if err := s.db.WithContext(ctx).
		Preload("PaymentTransaction").
		Where("click_trans_id = ?", clickTransID).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// FindParentByOrderID looks up the parent payment by merchant order id.
func (s *Click) FindParentByOrderID(ctx context.Context, orderID string) (*models.PaymentTransaction, error) {
	var parent models.PaymentTransaction
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &parent, nil
}

// FindActiveByParent returns the non-cancelled provider transaction attached
// to a parent payment, if any. At most one can exist at a time.
func (s *Click) FindActiveByParent(ctx context.Context, parentID uuid.UUID) (*models.ClickTransaction, error) {
	var txn models.ClickTransaction
	if err := s.db.WithContext(ctx).
		Where("payment_transaction_id = ? AND state IN ?", parentID,
			[]models.ClickState{models.ClickStateCreated, models.ClickStateConfirmed}).
		Order("created_at desc").
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// CancelStale cancels a timed-out provider transaction without touching its
// parent payment, so the order can accept a replacement transaction.
func (s *Click) CancelStale(ctx context.Context, clickTransID int64, errorCode int, errorNote string, cancelTime int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.ClickTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("click_trans_id = ?", clickTransID).
			First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		next, err := txn.State.Cancelled()
		if err != nil {
			return err
		}

		return tx.Model(&models.ClickTransaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]any{
				"state":       next,
				"error_code":  errorCode,
				"error_note":  errorNote,
				"cancel_time": cancelTime,
			}).Error
	})
}

// Create inserts a provider transaction and moves the parent payment to
// waiting in the same database transaction. The unique index on
// click_trans_id rejects concurrent duplicate inserts.
func (s *Click) Create(ctx context.Context, txn *models.ClickTransaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		return tx.Model(&models.PaymentTransaction{}).
			Where("id = ?", txn.PaymentTransactionID).
			Updates(map[string]any{
				"status":                  models.PaymentStatusWaiting,
				"provider_transaction_id": txn.ClickTransID,
			}).Error
	})
}

// MarkConfirmed transitions a transaction to confirmed and marks the parent
// payment paid, atomically, re-reading the row under a lock so a racing
// transition resolves to exactly one outcome.
func (s *Click) MarkConfirmed(ctx context.Context, clickTransID, paydocID, performTime int64) (*models.ClickTransaction, error) {
	var txn models.ClickTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("click_trans_id = ?", clickTransID).
			First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		next, err := txn.State.Confirmed()
		if err != nil {
			return err
		}

		if err := tx.Model(&models.ClickTransaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]any{
				"state":           next,
				"click_paydoc_id": paydocID,
				"perform_time":    performTime,
			}).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.PaymentTransaction{}).
			Where("id = ?", txn.PaymentTransactionID).
			Updates(map[string]any{
				"status":       models.PaymentStatusPaid,
				"performed_at": &now,
			}).Error; err != nil {
			return err
		}

		txn.State = next
		txn.ClickPaydocID = paydocID
		txn.PerformTime = performTime
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// MarkCancelled transitions a transaction to the cancelled variant reachable
// from its current state and cancels the parent payment, atomically. The
// Click error code and note are recorded on the row for auditing.
func (s *Click) MarkCancelled(ctx context.Context, clickTransID int64, errorCode int, errorNote string, cancelTime int64) (*models.ClickTransaction, error) {
	var txn models.ClickTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("click_trans_id = ?", clickTransID).
			First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		next, err := txn.State.Cancelled()
		if err != nil {
			return err
		}

		if err := tx.Model(&models.ClickTransaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]any{
				"state":       next,
				"error_code":  errorCode,
				"error_note":  errorNote,
				"cancel_time": cancelTime,
			}).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.PaymentTransaction{}).
			Where("id = ?", txn.PaymentTransactionID).
			Updates(map[string]any{
				"status":        models.PaymentStatusCancelled,
				"cancelled_at":  &now,
				"cancel_reason": errorNote,
				"status_code":   errorCode,
			}).Error; err != nil {
			return err
		}

		txn.State = next
		txn.ErrorCode = errorCode
		txn.ErrorNote = errorNote
		txn.CancelTime = cancelTime
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
