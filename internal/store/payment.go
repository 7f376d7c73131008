package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/umdsoft/biznespilot-billing/internal/models"
)

// Payments is the GORM store for parent payment transactions.
type Payments struct {
	db *gorm.DB
}

func NewPayments(db *gorm.DB) *Payments {
	return &Payments{db: db}
}

// Create inserts a new payment transaction.
func (s *Payments) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	return s.db.WithContext(ctx).Create(txn).Error
}

// FindByOrderID looks up a payment by its merchant order id.
func (s *Payments) FindByOrderID(ctx context.Context, orderID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Provider string
	Status   models.PaymentStatus
	OrderID  string
	Limit    int
	Offset   int
}

// List returns payment history for back-office auditing, newest first.
func (s *Payments) List(ctx context.Context, filter ListFilter) ([]models.PaymentTransaction, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.PaymentTransaction{})

	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.PaymentTransaction
	if err := query.
		Order("created_at desc").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&txns).Error; err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}
