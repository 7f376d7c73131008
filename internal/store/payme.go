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

// Payme is the GORM store for Payme provider transactions.
type Payme struct {
	db *gorm.DB
}

func NewPayme(db *gorm.DB) *Payme {
	return &Payme{db: db}
}

// FindByPaymeID looks up a provider transaction by the Payme-assigned id.
func (s *Payme) FindByPaymeID(ctx context.Context, paymeID string) (*models.PaymeTransaction, error) {
	var txn models.PaymeTransaction
	if err := s.db.WithContext(ctx).
		Preload("PaymentTransaction").
		Where("payme_id = ?", paymeID).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// FindParentByOrderID looks up the parent payment by merchant order id.
func (s *Payme) FindParentByOrderID(ctx context.Context, orderID string) (*models.PaymentTransaction, error) {
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
func (s *Payme) FindActiveByParent(ctx context.Context, parentID uuid.UUID) (*models.PaymeTransaction, error) {
	var txn models.PaymeTransaction
	if err := s.db.WithContext(ctx).
		Where("payment_transaction_id = ? AND state IN ?", parentID,
			[]models.PaymeState{models.PaymeStateCreated, models.PaymeStateCompleted}).
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
func (s *Payme) CancelStale(ctx context.Context, paymeID string, cancelTime int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.PaymeTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payme_id = ?", paymeID).
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

		return tx.Model(&models.PaymeTransaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]any{
				"state":       next,
				"reason":      models.PaymeReasonTimeout,
				"cancel_time": cancelTime,
			}).Error
	})
}

// Create inserts a provider transaction and moves the parent payment to
// waiting in the same database transaction. The unique index on payme_id
// rejects concurrent duplicate inserts.
func (s *Payme) Create(ctx context.Context, txn *models.PaymeTransaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		return tx.Model(&models.PaymentTransaction{}).
			Where("id = ?", txn.PaymentTransactionID).
			Updates(map[string]any{
				"status":                  models.PaymentStatusWaiting,
				"provider_transaction_id": txn.PaymeID,
			}).Error
	})
}

// MarkPerformed transitions a transaction to completed and marks the parent
// payment paid, atomically, re-reading the row under a lock so a racing
// transition resolves to exactly one outcome.
func (s *Payme) MarkPerformed(ctx context.Context, paymeID string, performTime int64) (*models.PaymeTransaction, error) {
	var txn models.PaymeTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payme_id = ?", paymeID).
			First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		next, err := txn.State.Performed()
		if err != nil {
			return err
		}

		if err := tx.Model(&models.PaymeTransaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]any{
				"state":        next,
				"perform_time": performTime,
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
		txn.PerformTime = performTime
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// MarkCancelled transitions a transaction to the cancelled variant reachable
// from its current state and cancels the parent payment, atomically.
func (s *Payme) MarkCancelled(ctx context.Context, paymeID string, reason int, cancelTime int64, note string) (*models.PaymeTransaction, error) {
	var txn models.PaymeTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payme_id = ?", paymeID).
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

		if err := tx.Model(&models.PaymeTransaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]any{
				"state":       next,
				"reason":      reason,
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
				"cancel_reason": note,
				"status_code":   reason,
			}).Error; err != nil {
			return err
		}

		txn.State = next
		txn.Reason = &reason
		txn.CancelTime = cancelTime
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Statement returns provider transactions created in the given window,
// oldest first, for the GetStatement reporting method.
func (s *Payme) Statement(ctx context.Context, from, to int64) ([]models.PaymeTransaction, error) {
	var txns []models.PaymeTransaction
	if err := s.db.WithContext(ctx).
		Preload("PaymentTransaction").
		Where("create_time >= ? AND create_time <= ?", from, to).
		Order("create_time asc").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
