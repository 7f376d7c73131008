package services

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/umdsoft/biznespilot-billing/internal/models"
	"github.com/umdsoft/biznespilot-billing/internal/store"
)

// Click SHOP API actions.
const (
	ClickActionPrepare  = 0
	ClickActionComplete = 1
)

// ClickLedger is the slice of the transaction ledger the Click reconciler
// needs. Implemented by store.Click.
type ClickLedger interface {
	FindByClickTransID(ctx context.Context, clickTransID int64) (*models.ClickTransaction, error)
	FindParentByOrderID(ctx context.Context, orderID string) (*models.PaymentTransaction, error)
	FindActiveByParent(ctx context.Context, parentID uuid.UUID) (*models.ClickTransaction, error)
	Create(ctx context.Context, txn *models.ClickTransaction) error
	CancelStale(ctx context.Context, clickTransID int64, errorCode int, errorNote string, cancelTime int64) error
	MarkConfirmed(ctx context.Context, clickTransID, paydocID, performTime int64) (*models.ClickTransaction, error)
	MarkCancelled(ctx context.Context, clickTransID int64, errorCode int, errorNote string, cancelTime int64) (*models.ClickTransaction, error)
}

// ClickRequest carries the flat POST fields of a Click webhook call.
type ClickRequest struct {
	ClickTransID      int64
	ServiceID         int64
	ClickPaydocID     int64
	MerchantTransID   string
	MerchantPrepareID string
	Amount            float64
	Action            int
	Error             int
	ErrorNote         string
	SignTime          string
	SignString        string
}

// ClickResponse is the webhook reply. Error is always one of the fixed
// Click error codes; validation failures are never reported out of band.
type ClickResponse struct {
	ClickTransID      int64  `json:"click_trans_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantPrepareID string `json:"merchant_prepare_id,omitempty"`
	MerchantConfirmID string `json:"merchant_confirm_id,omitempty"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
}

// ClickService reconciles Click SHOP API webhook calls against the
// transaction ledger. All mutating methods are serialized per
// click_trans_id.
type ClickService struct {
	ledger   ClickLedger
	locks    *txLocker
	window   time.Duration
	lockWait time.Duration
}

func NewClickService(ledger ClickLedger, window, lockWait time.Duration) *ClickService {
	return &ClickService{
		ledger:   ledger,
		locks:    newTxLocker(),
		window:   window,
		lockWait: lockWait,
	}
}

// HandleRequest dispatches a webhook call by action code.
func (s *ClickService) HandleRequest(ctx context.Context, req ClickRequest) *ClickResponse {
	switch req.Action {
	case ClickActionPrepare:
		return s.Prepare(ctx, req)
	case ClickActionComplete:
		return s.Complete(ctx, req)
	default:
		return s.errorResponse(req, ClickErrActionNotFound)
	}
}

// Prepare validates the order and opens a Click transaction. A repeated call
// with a known click_trans_id is an idempotent replay: the stored outcome is
// returned unchanged and the amount is not re-validated.
func (s *ClickService) Prepare(ctx context.Context, req ClickRequest) *ClickResponse {
	// Click reporting its own failure; echo it back without opening anything.
	if req.Error != 0 {
		log.Printf("[Click] prepare for %d carried error %d, ignored", req.ClickTransID, req.Error)
		return &ClickResponse{
			ClickTransID:    req.ClickTransID,
			MerchantTransID: req.MerchantTransID,
			Error:           req.Error,
			ErrorNote:       req.ErrorNote,
		}
	}

	if err := s.locks.acquire(clickLockKey(req.ClickTransID), s.lockWait); err != nil {
		log.Printf("[Click] lock wait timed out for transaction %d", req.ClickTransID)
		return s.errorResponse(req, ClickErrBadRequest)
	}
	defer s.locks.release(clickLockKey(req.ClickTransID))

	existing, err := s.ledger.FindByClickTransID(ctx, req.ClickTransID)
	if err == nil {
		return s.replayPrepare(req, existing)
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("[Click] ledger error: %v", err)
		return s.errorResponse(req, ClickErrBadRequest)
	}

	parent, code := s.payableParent(ctx, req.MerchantTransID, req.Amount)
	if code != ClickSuccess {
		return s.errorResponse(req, code)
	}

	// One active transaction per order. A competing id is rejected unless
	// the holder has already timed out, in which case it is replaced.
	if active, err := s.ledger.FindActiveByParent(ctx, parent.ID); err == nil {
		now := time.Now().UnixMilli()
		if !active.Expired(now, s.window.Milliseconds()) {
			return s.errorResponse(req, ClickErrTransactionCancelled)
		}
		if err := s.ledger.CancelStale(ctx, active.ClickTransID, ClickErrTransactionCancelled, "transaction expired", now); err != nil {
			log.Printf("[Click] ledger error: %v", err)
			return s.errorResponse(req, ClickErrBadRequest)
		}
		log.Printf("[Click] stale transaction %d cancelled for order %s", active.ClickTransID, parent.OrderID)
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("[Click] ledger error: %v", err)
		return s.errorResponse(req, ClickErrBadRequest)
	}

	txn := &models.ClickTransaction{
		PaymentTransactionID: parent.ID,
		ClickTransID:         req.ClickTransID,
		MerchantPrepareID:    parent.ID.String(),
		State:                models.ClickStateCreated,
		ErrorCode:            ClickSuccess,
		SignTime:             req.SignTime,
		SignString:           req.SignString,
		CreateTime:           time.Now().UnixMilli(),
	}

	if err := s.ledger.Create(ctx, txn); err != nil {
		log.Printf("[Click] ledger error: %v", err)
		return s.errorResponse(req, ClickErrBadRequest)
	}

	log.Printf("[Click] transaction %d prepared for order %s", req.ClickTransID, parent.OrderID)

	return &ClickResponse{
		ClickTransID:      req.ClickTransID,
		MerchantTransID:   req.MerchantTransID,
		MerchantPrepareID: txn.MerchantPrepareID,
		Error:             ClickSuccess,
		ErrorNote:         ClickErrorNote(ClickSuccess),
	}
}

// Complete confirms payment for a prepared transaction. A negative error
// field from Click cancels it instead. Completing an already-confirmed
// transaction replays the stored outcome.
func (s *ClickService) Complete(ctx context.Context, req ClickRequest) *ClickResponse {
	if err := s.locks.acquire(clickLockKey(req.ClickTransID), s.lockWait); err != nil {
		log.Printf("[Click] lock wait timed out for transaction %d", req.ClickTransID)
		return s.errorResponse(req, ClickErrBadRequest)
	}
	defer s.locks.release(clickLockKey(req.ClickTransID))

	txn, err := s.ledger.FindByClickTransID(ctx, req.ClickTransID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.errorResponse(req, ClickErrTransactionNotFound)
		}
		log.Printf("[Click] ledger error: %v", err)
		return s.errorResponse(req, ClickErrBadRequest)
	}

	if req.Error < 0 {
		return s.cancel(ctx, req, txn)
	}

	if txn.State == models.ClickStateConfirmed {
		return s.confirmResponse(req, txn)
	}
	if txn.State.IsCancelled() {
		return s.errorResponse(req, ClickErrTransactionCancelled)
	}
	// The order may already be paid through a different transaction; reply
	// idempotently without confirming a second row.
	if parent := txn.PaymentTransaction; parent != nil && parent.IsPaid() {
		return s.confirmResponse(req, txn)
	}

	if parent := txn.PaymentTransaction; parent != nil && parent.Amount != tiyin(req.Amount) {
		return s.errorResponse(req, ClickErrInvalidAmount)
	}

	now := time.Now().UnixMilli()

	if txn.Expired(now, s.window.Milliseconds()) {
		if _, err := s.ledger.MarkCancelled(ctx, req.ClickTransID, ClickErrTransactionCancelled, "transaction expired", now); err != nil {
			log.Printf("[Click] ledger error: %v", err)
			return s.errorResponse(req, ClickErrBadRequest)
		}
		log.Printf("[Click] transaction %d expired, cancelled", req.ClickTransID)
		return s.errorResponse(req, ClickErrTransactionCancelled)
	}

	confirmed, err := s.ledger.MarkConfirmed(ctx, req.ClickTransID, req.ClickPaydocID, now)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return s.errorResponse(req, ClickErrAlreadyDone)
		}
		log.Printf("[Click] ledger error: %v", err)
		return s.errorResponse(req, ClickErrBadRequest)
	}

	log.Printf("[Click] transaction %d confirmed", req.ClickTransID)

	return s.confirmResponse(req, confirmed)
}

func (s *ClickService) cancel(ctx context.Context, req ClickRequest, txn *models.ClickTransaction) *ClickResponse {
	if txn.State.IsCancelled() {
		return s.errorResponse(req, ClickErrTransactionCancelled)
	}

	note := req.ErrorNote
	if note == "" {
		note = "cancelled by click, code " + strconv.Itoa(req.Error)
	}

	if _, err := s.ledger.MarkCancelled(ctx, req.ClickTransID, req.Error, note, time.Now().UnixMilli()); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return s.errorResponse(req, ClickErrTransactionCancelled)
		}
		log.Printf("[Click] ledger error: %v", err)
		return s.errorResponse(req, ClickErrBadRequest)
	}

	log.Printf("[Click] transaction %d cancelled by click, code %d", req.ClickTransID, req.Error)

	return s.errorResponse(req, ClickErrTransactionCancelled)
}

func (s *ClickService) replayPrepare(req ClickRequest, txn *models.ClickTransaction) *ClickResponse {
	if txn.State.IsCancelled() {
		return s.errorResponse(req, ClickErrTransactionCancelled)
	}
	return &ClickResponse{
		ClickTransID:      req.ClickTransID,
		MerchantTransID:   req.MerchantTransID,
		MerchantPrepareID: txn.MerchantPrepareID,
		Error:             ClickSuccess,
		ErrorNote:         ClickErrorNote(ClickSuccess),
	}
}

func (s *ClickService) confirmResponse(req ClickRequest, txn *models.ClickTransaction) *ClickResponse {
	return &ClickResponse{
		ClickTransID:      req.ClickTransID,
		MerchantTransID:   req.MerchantTransID,
		MerchantConfirmID: txn.MerchantPrepareID,
		Error:             ClickSuccess,
		ErrorNote:         ClickErrorNote(ClickSuccess),
	}
}

// payableParent validates order existence, exact amount match and that the
// order still accepts a payment.
func (s *ClickService) payableParent(ctx context.Context, orderID string, amount float64) (*models.PaymentTransaction, int) {
	if orderID == "" {
		return nil, ClickErrUserNotFound
	}

	parent, err := s.ledger.FindParentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ClickErrUserNotFound
		}
		log.Printf("[Click] ledger error: %v", err)
		return nil, ClickErrBadRequest
	}

	if parent.Amount != tiyin(amount) {
		return nil, ClickErrInvalidAmount
	}

	if parent.IsPaid() {
		return nil, ClickErrAlreadyDone
	}
	if !parent.AcceptsPayment(time.Now()) {
		return nil, ClickErrTransactionCancelled
	}

	return parent, ClickSuccess
}

func (s *ClickService) errorResponse(req ClickRequest, code int) *ClickResponse {
	return &ClickResponse{
		ClickTransID:    req.ClickTransID,
		MerchantTransID: req.MerchantTransID,
		Error:           code,
		ErrorNote:       ClickErrorNote(code),
	}
}

func clickLockKey(clickTransID int64) string {
	return "click:" + strconv.FormatInt(clickTransID, 10)
}

// tiyin converts a Click amount, reported in so'm with decimals, to minor
// units for exact comparison against the ledger.
func tiyin(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
