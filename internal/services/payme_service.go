package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/umdsoft/biznespilot-billing/internal/models"
	"github.com/umdsoft/biznespilot-billing/internal/store"
)

// PaymeLedger is the slice of the transaction ledger the Payme reconciler
// needs. Implemented by store.Payme.
type PaymeLedger interface {
	FindByPaymeID(ctx context.Context, paymeID string) (*models.PaymeTransaction, error)
	FindParentByOrderID(ctx context.Context, orderID string) (*models.PaymentTransaction, error)
	FindActiveByParent(ctx context.Context, parentID uuid.UUID) (*models.PaymeTransaction, error)
	Create(ctx context.Context, txn *models.PaymeTransaction) error
	CancelStale(ctx context.Context, paymeID string, cancelTime int64) error
	MarkPerformed(ctx context.Context, paymeID string, performTime int64) (*models.PaymeTransaction, error)
	MarkCancelled(ctx context.Context, paymeID string, reason int, cancelTime int64, note string) (*models.PaymeTransaction, error)
	Statement(ctx context.Context, from, to int64) ([]models.PaymeTransaction, error)
}

// PaymeService reconciles Payme Merchant API webhook calls against the
// transaction ledger. All mutating methods are serialized per payme_id.
type PaymeService struct {
	ledger   PaymeLedger
	locks    *txLocker
	window   time.Duration
	lockWait time.Duration
}

func NewPaymeService(ledger PaymeLedger, window, lockWait time.Duration) *PaymeService {
	return &PaymeService{
		ledger:   ledger,
		locks:    newTxLocker(),
		window:   window,
		lockWait: lockWait,
	}
}

type PaymeAccount struct {
	OrderID string `json:"order_id"`
}

type CheckPerformParams struct {
	Amount  int64        `json:"amount"`
	Account PaymeAccount `json:"account"`
}

type CreateTransactionParams struct {
	ID      string       `json:"id"`
	Time    int64        `json:"time"`
	Amount  int64        `json:"amount"`
	Account PaymeAccount `json:"account"`
}

type PerformTransactionParams struct {
	ID string `json:"id"`
}

type CancelTransactionParams struct {
	ID     string `json:"id"`
	Reason int    `json:"reason"`
}

type CheckTransactionParams struct {
	ID string `json:"id"`
}

type StatementParams struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

type CreateTransactionResult struct {
	CreateTime  int64             `json:"create_time"`
	Transaction string            `json:"transaction"`
	State       models.PaymeState `json:"state"`
}

type PerformTransactionResult struct {
	PerformTime int64             `json:"perform_time"`
	Transaction string            `json:"transaction"`
	State       models.PaymeState `json:"state"`
}

type CancelTransactionResult struct {
	CancelTime  int64             `json:"cancel_time"`
	Transaction string            `json:"transaction"`
	State       models.PaymeState `json:"state"`
}

type CheckTransactionResult struct {
	CreateTime  int64             `json:"create_time"`
	PerformTime int64             `json:"perform_time"`
	CancelTime  int64             `json:"cancel_time"`
	Transaction string            `json:"transaction"`
	State       models.PaymeState `json:"state"`
	Reason      *int              `json:"reason"`
}

type StatementTransaction struct {
	ID          string            `json:"id"`
	Time        int64             `json:"time"`
	Amount      int64             `json:"amount"`
	Account     PaymeAccount      `json:"account"`
	CreateTime  int64             `json:"create_time"`
	PerformTime int64             `json:"perform_time"`
	CancelTime  int64             `json:"cancel_time"`
	Transaction string            `json:"transaction"`
	State       models.PaymeState `json:"state"`
	Reason      *int              `json:"reason"`
}

// CheckPerformTransaction validates that the order exists, the amount
// matches it exactly and the order can still accept a payment. Pure read.
func (s *PaymeService) CheckPerformTransaction(ctx context.Context, params CheckPerformParams, id any) error {
	_, err := s.payableParent(ctx, params.Account.OrderID, params.Amount, id)
	return err
}

// CreateTransaction opens a Payme transaction for an order. A repeated call
// with a known payme_id is an idempotent replay: the stored outcome is
// returned unchanged and the amount is not re-validated.
func (s *PaymeService) CreateTransaction(ctx context.Context, params CreateTransactionParams, id any) (*CreateTransactionResult, error) {
	if err := s.lock(params.ID, id); err != nil {
		return nil, err
	}
	defer s.locks.release(paymeLockKey(params.ID))

	existing, err := s.ledger.FindByPaymeID(ctx, params.ID)
	if err == nil {
		return s.replayCreate(ctx, existing, id)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, s.internal(err, id)
	}

	parent, err := s.payableParent(ctx, params.Account.OrderID, params.Amount, id)
	if err != nil {
		return nil, err
	}

	// One active transaction per order. A competing id is rejected unless
	// the holder has already timed out, in which case it is replaced.
	if active, err := s.ledger.FindActiveByParent(ctx, parent.ID); err == nil {
		now := time.Now().UnixMilli()
		if !active.Expired(now, s.window.Milliseconds()) {
			return nil, &TransactionError{Info: PaymeErrorCantDoOperation, ID: id}
		}
		if err := s.ledger.CancelStale(ctx, active.PaymeID, now); err != nil {
			return nil, s.internal(err, id)
		}
		log.Printf("[Payme] stale transaction %s cancelled for order %s", active.PaymeID, parent.OrderID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, s.internal(err, id)
	}

	// The provider's clock is authoritative for create_time.
	txn := &models.PaymeTransaction{
		PaymentTransactionID: parent.ID,
		PaymeID:              params.ID,
		PaymeTime:            params.Time,
		State:                models.PaymeStateCreated,
		CreateTime:           params.Time,
	}

	if err := s.ledger.Create(ctx, txn); err != nil {
		return nil, s.internal(err, id)
	}

	log.Printf("[Payme] transaction %s created for order %s", params.ID, parent.OrderID)

	return &CreateTransactionResult{
		CreateTime:  txn.CreateTime,
		Transaction: txn.ID.String(),
		State:       txn.State,
	}, nil
}

// PerformTransaction confirms payment for a created transaction. Performing
// an already-completed transaction replays the stored outcome.
func (s *PaymeService) PerformTransaction(ctx context.Context, params PerformTransactionParams, id any) (*PerformTransactionResult, error) {
	if err := s.lock(params.ID, id); err != nil {
		return nil, err
	}
	defer s.locks.release(paymeLockKey(params.ID))

	txn, err := s.findTransaction(ctx, params.ID, id)
	if err != nil {
		return nil, err
	}

	if txn.State == models.PaymeStateCompleted {
		return &PerformTransactionResult{
			PerformTime: txn.PerformTime,
			Transaction: txn.ID.String(),
			State:       txn.State,
		}, nil
	}
	if txn.State.IsCancelled() {
		return nil, &TransactionError{Info: PaymeErrorCantDoOperation, ID: id}
	}
	// The order may already be paid through a different transaction; this
	// row must never become a second payment.
	if txn.PaymentTransaction != nil && txn.PaymentTransaction.IsPaid() {
		return nil, &TransactionError{Info: PaymeErrorAlreadyDone, ID: id}
	}

	now := time.Now().UnixMilli()

	if txn.Expired(now, s.window.Milliseconds()) {
		if _, err := s.ledger.MarkCancelled(ctx, params.ID, models.PaymeReasonTimeout, now, "transaction timeout"); err != nil {
			return nil, s.internal(err, id)
		}
		log.Printf("[Payme] transaction %s expired, cancelled", params.ID)
		return nil, &TransactionError{Info: PaymeErrorCantDoOperation, ID: id}
	}

	performed, err := s.ledger.MarkPerformed(ctx, params.ID, now)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return nil, &TransactionError{Info: PaymeErrorCantDoOperation, ID: id}
		}
		return nil, s.internal(err, id)
	}

	log.Printf("[Payme] transaction %s performed", params.ID)

	return &PerformTransactionResult{
		PerformTime: performed.PerformTime,
		Transaction: performed.ID.String(),
		State:       performed.State,
	}, nil
}

// CancelTransaction cancels a transaction. Created transactions move to
// CANCELLED, completed ones to CANCELLED_AFTER_COMPLETE. Repeated cancels
// replay the stored outcome.
func (s *PaymeService) CancelTransaction(ctx context.Context, params CancelTransactionParams, id any) (*CancelTransactionResult, error) {
	if err := s.lock(params.ID, id); err != nil {
		return nil, err
	}
	defer s.locks.release(paymeLockKey(params.ID))

	txn, err := s.findTransaction(ctx, params.ID, id)
	if err != nil {
		return nil, err
	}

	if txn.State.IsCancelled() {
		return &CancelTransactionResult{
			CancelTime:  txn.CancelTime,
			Transaction: txn.ID.String(),
			State:       txn.State,
		}, nil
	}

	now := time.Now().UnixMilli()

	cancelled, err := s.ledger.MarkCancelled(ctx, params.ID, params.Reason, now, cancelReasonText(params.Reason))
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return nil, &TransactionError{Info: PaymeErrorCouldNotCancel, ID: id}
		}
		return nil, s.internal(err, id)
	}

	log.Printf("[Payme] transaction %s cancelled, reason %d", params.ID, params.Reason)

	return &CancelTransactionResult{
		CancelTime:  cancelled.CancelTime,
		Transaction: cancelled.ID.String(),
		State:       cancelled.State,
	}, nil
}

// CheckTransaction returns the current state and timestamps without mutation.
func (s *PaymeService) CheckTransaction(ctx context.Context, params CheckTransactionParams, id any) (*CheckTransactionResult, error) {
	txn, err := s.findTransaction(ctx, params.ID, id)
	if err != nil {
		return nil, err
	}

	return &CheckTransactionResult{
		CreateTime:  txn.CreateTime,
		PerformTime: txn.PerformTime,
		CancelTime:  txn.CancelTime,
		Transaction: txn.ID.String(),
		State:       txn.State,
		Reason:      txn.Reason,
	}, nil
}

// GetStatement returns transactions created in the given time range.
func (s *PaymeService) GetStatement(ctx context.Context, params StatementParams, id any) ([]StatementTransaction, error) {
	txns, err := s.ledger.Statement(ctx, params.From, params.To)
	if err != nil {
		return nil, s.internal(err, id)
	}

	result := make([]StatementTransaction, 0, len(txns))
	for _, t := range txns {
		entry := StatementTransaction{
			ID:          t.PaymeID,
			Time:        t.PaymeTime,
			CreateTime:  t.CreateTime,
			PerformTime: t.PerformTime,
			CancelTime:  t.CancelTime,
			Transaction: t.ID.String(),
			State:       t.State,
			Reason:      t.Reason,
		}
		if t.PaymentTransaction != nil {
			entry.Amount = t.PaymentTransaction.Amount
			entry.Account = PaymeAccount{OrderID: t.PaymentTransaction.OrderID}
		}
		result = append(result, entry)
	}

	return result, nil
}

func (s *PaymeService) replayCreate(ctx context.Context, txn *models.PaymeTransaction, id any) (*CreateTransactionResult, error) {
	if txn.State == models.PaymeStateCompleted {
		return nil, &TransactionError{Info: PaymeErrorAlreadyDone, ID: id}
	}
	if txn.State != models.PaymeStateCreated {
		return nil, &TransactionError{Info: PaymeErrorCantDoOperation, ID: id}
	}

	now := time.Now().UnixMilli()
	if txn.Expired(now, s.window.Milliseconds()) {
		if _, err := s.ledger.MarkCancelled(ctx, txn.PaymeID, models.PaymeReasonTimeout, now, "transaction timeout"); err != nil {
			return nil, s.internal(err, id)
		}
		return nil, &TransactionError{Info: PaymeErrorCantDoOperation, ID: id}
	}

	return &CreateTransactionResult{
		CreateTime:  txn.CreateTime,
		Transaction: txn.ID.String(),
		State:       txn.State,
	}, nil
}

// payableParent validates order existence, exact amount match (in tiyin) and
// that the order still accepts a payment.
func (s *PaymeService) payableParent(ctx context.Context, orderID string, amount int64, id any) (*models.PaymentTransaction, error) {
	if orderID == "" {
		return nil, &TransactionError{Info: PaymeErrorOrderNotFound, ID: id}
	}

	parent, err := s.ledger.FindParentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &TransactionError{Info: PaymeErrorOrderNotFound, ID: id}
		}
		return nil, s.internal(err, id)
	}

	if parent.Amount != amount {
		return nil, &TransactionError{Info: PaymeErrorInvalidAmount, ID: id}
	}

	if parent.IsPaid() {
		return nil, &TransactionError{Info: PaymeErrorAlreadyDone, ID: id}
	}
	if !parent.AcceptsPayment(time.Now()) {
		return nil, &TransactionError{Info: PaymeErrorCantDoOperation, ID: id}
	}

	return parent, nil
}

func (s *PaymeService) findTransaction(ctx context.Context, paymeID string, id any) (*models.PaymeTransaction, error) {
	txn, err := s.ledger.FindByPaymeID(ctx, paymeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &TransactionError{Info: PaymeErrorTransactionNotFound, ID: id}
		}
		return nil, s.internal(err, id)
	}
	return txn, nil
}

func (s *PaymeService) lock(paymeID string, id any) error {
	if err := s.locks.acquire(paymeLockKey(paymeID), s.lockWait); err != nil {
		log.Printf("[Payme] lock wait timed out for transaction %s", paymeID)
		return &TransactionError{Info: PaymeErrorInternalSystem, ID: id}
	}
	return nil
}

func (s *PaymeService) internal(err error, id any) error {
	log.Printf("[Payme] ledger error: %v", err)
	return &TransactionError{Info: PaymeErrorInternalSystem, ID: id}
}

func paymeLockKey(paymeID string) string {
	return "payme:" + paymeID
}

func cancelReasonText(reason int) string {
	switch reason {
	case models.PaymeReasonReceiverNotFound:
		return "receiver not found"
	case models.PaymeReasonProcessingError:
		return "processing error"
	case models.PaymeReasonTransactionError:
		return "transaction error"
	case models.PaymeReasonTimeout:
		return "transaction timeout"
	case models.PaymeReasonRefund:
		return "refund requested"
	default:
		return "unknown reason"
	}
}
