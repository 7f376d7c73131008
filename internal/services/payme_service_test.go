package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umdsoft/biznespilot-billing/internal/models"
	"github.com/umdsoft/biznespilot-billing/internal/store"
)

type fakePaymeLedger struct {
	mu             sync.Mutex
	parents        map[string]*models.PaymentTransaction
	txns           map[string]*models.PaymeTransaction
	performedCalls int
}

func newFakePaymeLedger() *fakePaymeLedger {
	return &fakePaymeLedger{
		parents: make(map[string]*models.PaymentTransaction),
		txns:    make(map[string]*models.PaymeTransaction),
	}
}

func (f *fakePaymeLedger) addParent(orderID string, amount int64) *models.PaymentTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()

	parent := &models.PaymentTransaction{
		OrderID:  orderID,
		Amount:   amount,
		Currency: "UZS",
		Provider: models.ProviderPayme,
		Status:   models.PaymentStatusCreated,
	}
	parent.ID = uuid.New()
	f.parents[orderID] = parent
	return parent
}

func (f *fakePaymeLedger) parentByID(id uuid.UUID) *models.PaymentTransaction {
	for _, p := range f.parents {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (f *fakePaymeLedger) FindByPaymeID(_ context.Context, paymeID string) (*models.PaymeTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	txn, ok := f.txns[paymeID]
	if !ok {
		return nil, store.ErrNotFound
	}
	txn.PaymentTransaction = f.parentByID(txn.PaymentTransactionID)
	return txn, nil
}

func (f *fakePaymeLedger) FindParentByOrderID(_ context.Context, orderID string) (*models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parent, ok := f.parents[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return parent, nil
}

func (f *fakePaymeLedger) FindActiveByParent(_ context.Context, parentID uuid.UUID) (*models.PaymeTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, txn := range f.txns {
		if txn.PaymentTransactionID == parentID && !txn.State.IsCancelled() {
			return txn, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakePaymeLedger) CancelStale(_ context.Context, paymeID string, cancelTime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	txn, ok := f.txns[paymeID]
	if !ok {
		return store.ErrNotFound
	}

	next, err := txn.State.Cancelled()
	if err != nil {
		return err
	}

	reason := models.PaymeReasonTimeout
	txn.State = next
	txn.Reason = &reason
	txn.CancelTime = cancelTime
	return nil
}

func (f *fakePaymeLedger) Create(_ context.Context, txn *models.PaymeTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.txns[txn.PaymeID]; exists {
		return fmt.Errorf("duplicate payme_id %s", txn.PaymeID)
	}
	txn.ID = uuid.New()
	f.txns[txn.PaymeID] = txn

	if parent := f.parentByID(txn.PaymentTransactionID); parent != nil {
		parent.Status = models.PaymentStatusWaiting
		parent.ProviderTransactionID = txn.PaymeID
	}
	return nil
}

func (f *fakePaymeLedger) MarkPerformed(_ context.Context, paymeID string, performTime int64) (*models.PaymeTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	txn, ok := f.txns[paymeID]
	if !ok {
		return nil, store.ErrNotFound
	}

	next, err := txn.State.Performed()
	if err != nil {
		return nil, err
	}

	txn.State = next
	txn.PerformTime = performTime
	f.performedCalls++

	if parent := f.parentByID(txn.PaymentTransactionID); parent != nil {
		now := time.Now()
		parent.Status = models.PaymentStatusPaid
		parent.PerformedAt = &now
	}
	return txn, nil
}

func (f *fakePaymeLedger) MarkCancelled(_ context.Context, paymeID string, reason int, cancelTime int64, note string) (*models.PaymeTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	txn, ok := f.txns[paymeID]
	if !ok {
		return nil, store.ErrNotFound
	}

	next, err := txn.State.Cancelled()
	if err != nil {
		return nil, err
	}

	txn.State = next
	txn.Reason = &reason
	txn.CancelTime = cancelTime

	if parent := f.parentByID(txn.PaymentTransactionID); parent != nil {
		now := time.Now()
		parent.Status = models.PaymentStatusCancelled
		parent.CancelledAt = &now
		parent.CancelReason = note
	}
	return txn, nil
}

func (f *fakePaymeLedger) Statement(_ context.Context, from, to int64) ([]models.PaymeTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []models.PaymeTransaction
	for _, txn := range f.txns {
		if txn.CreateTime >= from && txn.CreateTime <= to {
			copied := *txn
			copied.PaymentTransaction = f.parentByID(txn.PaymentTransactionID)
			result = append(result, copied)
		}
	}
	return result, nil
}

func newTestPaymeService(ledger PaymeLedger) *PaymeService {
	return NewPaymeService(ledger, 12*time.Hour, 2*time.Second)
}

func paymeCode(t *testing.T, err error) int {
	t.Helper()
	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	return txErr.Info.Code
}

func TestPaymeCheckPerformTransaction(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fakePaymeLedger)
		params   CheckPerformParams
		wantCode int
	}{
		{
			name:   "order payable",
			setup:  func(f *fakePaymeLedger) { f.addParent("BP1", 50000) },
			params: CheckPerformParams{Amount: 50000, Account: PaymeAccount{OrderID: "BP1"}},
		},
		{
			name:     "order not found",
			setup:    func(f *fakePaymeLedger) {},
			params:   CheckPerformParams{Amount: 50000, Account: PaymeAccount{OrderID: "BP404"}},
			wantCode: PaymeErrorOrderNotFound.Code,
		},
		{
			name:     "missing order id",
			setup:    func(f *fakePaymeLedger) {},
			params:   CheckPerformParams{Amount: 50000},
			wantCode: PaymeErrorOrderNotFound.Code,
		},
		{
			name:     "amount mismatch",
			setup:    func(f *fakePaymeLedger) { f.addParent("BP1", 50000) },
			params:   CheckPerformParams{Amount: 49999, Account: PaymeAccount{OrderID: "BP1"}},
			wantCode: PaymeErrorInvalidAmount.Code,
		},
		{
			name: "already paid",
			setup: func(f *fakePaymeLedger) {
				f.addParent("BP1", 50000).Status = models.PaymentStatusPaid
			},
			params:   CheckPerformParams{Amount: 50000, Account: PaymeAccount{OrderID: "BP1"}},
			wantCode: PaymeErrorAlreadyDone.Code,
		},
		{
			name: "cancelled order",
			setup: func(f *fakePaymeLedger) {
				f.addParent("BP1", 50000).Status = models.PaymentStatusCancelled
			},
			params:   CheckPerformParams{Amount: 50000, Account: PaymeAccount{OrderID: "BP1"}},
			wantCode: PaymeErrorCantDoOperation.Code,
		},
		{
			name: "expired order",
			setup: func(f *fakePaymeLedger) {
				past := time.Now().Add(-time.Hour)
				f.addParent("BP1", 50000).ExpiresAt = &past
			},
			params:   CheckPerformParams{Amount: 50000, Account: PaymeAccount{OrderID: "BP1"}},
			wantCode: PaymeErrorCantDoOperation.Code,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakePaymeLedger()
			tc.setup(f)
			svc := newTestPaymeService(f)

			err := svc.CheckPerformTransaction(context.Background(), tc.params, 1)
			if tc.wantCode == 0 {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tc.wantCode, paymeCode(t, err))
			}
		})
	}
}

func TestPaymeCreateTransaction(t *testing.T) {
	t.Run("fresh id creates exactly one row", func(t *testing.T) {
		f := newFakePaymeLedger()
		f.addParent("BP1", 50000)
		svc := newTestPaymeService(f)

		params := CreateTransactionParams{
			ID:      "abc123",
			Time:    time.Now().UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP1"},
		}

		result, err := svc.CreateTransaction(context.Background(), params, 1)
		require.NoError(t, err)
		assert.Equal(t, models.PaymeStateCreated, result.State)
		assert.Equal(t, params.Time, result.CreateTime, "provider clock is authoritative for create_time")

		require.Len(t, f.txns, 1)
		assert.Equal(t, models.PaymentStatusWaiting, f.parents["BP1"].Status)
	})

	t.Run("duplicate id replays stored outcome", func(t *testing.T) {
		f := newFakePaymeLedger()
		f.addParent("BP1", 50000)
		svc := newTestPaymeService(f)

		params := CreateTransactionParams{
			ID:      "abc123",
			Time:    time.Now().UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP1"},
		}

		first, err := svc.CreateTransaction(context.Background(), params, 1)
		require.NoError(t, err)

		// The replay must not re-validate the amount.
		params.Amount = 999
		second, err := svc.CreateTransaction(context.Background(), params, 2)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, f.txns, 1)
	})

	t.Run("amount mismatch creates no row", func(t *testing.T) {
		f := newFakePaymeLedger()
		f.addParent("BP1", 50000)
		svc := newTestPaymeService(f)

		_, err := svc.CreateTransaction(context.Background(), CreateTransactionParams{
			ID:      "abc123",
			Time:    time.Now().UnixMilli(),
			Amount:  49000,
			Account: PaymeAccount{OrderID: "BP1"},
		}, 1)

		assert.Equal(t, PaymeErrorInvalidAmount.Code, paymeCode(t, err))
		assert.Empty(t, f.txns)
	})

	t.Run("unknown order creates no row", func(t *testing.T) {
		f := newFakePaymeLedger()
		svc := newTestPaymeService(f)

		_, err := svc.CreateTransaction(context.Background(), CreateTransactionParams{
			ID:      "abc123",
			Time:    time.Now().UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP404"},
		}, 1)

		assert.Equal(t, PaymeErrorOrderNotFound.Code, paymeCode(t, err))
		assert.Empty(t, f.txns)
	})

	t.Run("second id for the same order is rejected", func(t *testing.T) {
		f := newFakePaymeLedger()
		f.addParent("BP1", 50000)
		svc := newTestPaymeService(f)

		_, err := svc.CreateTransaction(context.Background(), CreateTransactionParams{
			ID:      "payme-A",
			Time:    time.Now().UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP1"},
		}, 1)
		require.NoError(t, err)

		_, err = svc.CreateTransaction(context.Background(), CreateTransactionParams{
			ID:      "payme-B",
			Time:    time.Now().UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP1"},
		}, 2)
		assert.Equal(t, PaymeErrorCantDoOperation.Code, paymeCode(t, err))

		require.Len(t, f.txns, 1)
		assert.Equal(t, models.PaymeStateCreated, f.txns["payme-A"].State)
	})

	t.Run("expired holder is replaced by a fresh id", func(t *testing.T) {
		f := newFakePaymeLedger()
		f.addParent("BP1", 50000)
		svc := newTestPaymeService(f)

		_, err := svc.CreateTransaction(context.Background(), CreateTransactionParams{
			ID:      "payme-A",
			Time:    time.Now().Add(-13 * time.Hour).UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP1"},
		}, 1)
		require.NoError(t, err)

		result, err := svc.CreateTransaction(context.Background(), CreateTransactionParams{
			ID:      "payme-B",
			Time:    time.Now().UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP1"},
		}, 2)
		require.NoError(t, err)
		assert.Equal(t, models.PaymeStateCreated, result.State)

		// The stale row is cancelled without killing the order.
		assert.Equal(t, models.PaymeStateCancelled, f.txns["payme-A"].State)
		require.NotNil(t, f.txns["payme-A"].Reason)
		assert.Equal(t, models.PaymeReasonTimeout, *f.txns["payme-A"].Reason)
		assert.Equal(t, models.PaymentStatusWaiting, f.parents["BP1"].Status)

		_, err = svc.PerformTransaction(context.Background(), PerformTransactionParams{ID: "payme-B"}, 3)
		require.NoError(t, err)
		assert.Equal(t, 1, f.performedCalls)
	})

	t.Run("replay of completed transaction reports already done", func(t *testing.T) {
		f := newFakePaymeLedger()
		f.addParent("BP1", 50000)
		svc := newTestPaymeService(f)

		params := CreateTransactionParams{
			ID:      "abc123",
			Time:    time.Now().UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP1"},
		}
		_, err := svc.CreateTransaction(context.Background(), params, 1)
		require.NoError(t, err)
		_, err = svc.PerformTransaction(context.Background(), PerformTransactionParams{ID: "abc123"}, 2)
		require.NoError(t, err)

		_, err = svc.CreateTransaction(context.Background(), params, 3)
		assert.Equal(t, PaymeErrorAlreadyDone.Code, paymeCode(t, err))
	})

	t.Run("stale created transaction is cancelled on replay", func(t *testing.T) {
		f := newFakePaymeLedger()
		f.addParent("BP1", 50000)
		svc := newTestPaymeService(f)

		params := CreateTransactionParams{
			ID:      "abc123",
			Time:    time.Now().Add(-13 * time.Hour).UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP1"},
		}

		_, err := svc.CreateTransaction(context.Background(), params, 1)
		require.NoError(t, err)

		_, err = svc.CreateTransaction(context.Background(), params, 2)
		assert.Equal(t, PaymeErrorCantDoOperation.Code, paymeCode(t, err))
		assert.Equal(t, models.PaymeStateCancelled, f.txns["abc123"].State)
		require.NotNil(t, f.txns["abc123"].Reason)
		assert.Equal(t, models.PaymeReasonTimeout, *f.txns["abc123"].Reason)
	})
}

func TestPaymePerformTransaction(t *testing.T) {
	seed := func(f *fakePaymeLedger, svc *PaymeService) {
		f.addParent("BP1", 50000)
		_, err := svc.CreateTransaction(context.Background(), CreateTransactionParams{
			ID:      "abc123",
			Time:    time.Now().UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP1"},
		}, 1)
		if err != nil {
			panic(err)
		}
	}

	t.Run("performs created transaction once", func(t *testing.T) {
		f := newFakePaymeLedger()
		svc := newTestPaymeService(f)
		seed(f, svc)

		result, err := svc.PerformTransaction(context.Background(), PerformTransactionParams{ID: "abc123"}, 1)
		require.NoError(t, err)
		assert.Equal(t, models.PaymeStateCompleted, result.State)
		assert.NotZero(t, result.PerformTime)
		assert.Equal(t, models.PaymentStatusPaid, f.parents["BP1"].Status)

		replay, err := svc.PerformTransaction(context.Background(), PerformTransactionParams{ID: "abc123"}, 2)
		require.NoError(t, err)
		assert.Equal(t, result.PerformTime, replay.PerformTime)
		assert.Equal(t, 1, f.performedCalls)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFakePaymeLedger()
		svc := newTestPaymeService(f)

		_, err := svc.PerformTransaction(context.Background(), PerformTransactionParams{ID: "nope"}, 1)
		assert.Equal(t, PaymeErrorTransactionNotFound.Code, paymeCode(t, err))
		assert.Empty(t, f.txns)
	})

	t.Run("cancelled transaction cannot be performed", func(t *testing.T) {
		f := newFakePaymeLedger()
		svc := newTestPaymeService(f)
		seed(f, svc)

		_, err := svc.CancelTransaction(context.Background(), CancelTransactionParams{ID: "abc123", Reason: models.PaymeReasonProcessingError}, 1)
		require.NoError(t, err)

		_, err = svc.PerformTransaction(context.Background(), PerformTransactionParams{ID: "abc123"}, 2)
		assert.Equal(t, PaymeErrorCantDoOperation.Code, paymeCode(t, err))
		assert.Equal(t, models.PaymeStateCancelled, f.txns["abc123"].State)
	})

	t.Run("expired transaction is cancelled, state otherwise unchanged", func(t *testing.T) {
		f := newFakePaymeLedger()
		svc := newTestPaymeService(f)
		f.addParent("BP1", 50000)
		_, err := svc.CreateTransaction(context.Background(), CreateTransactionParams{
			ID:      "abc123",
			Time:    time.Now().Add(-13 * time.Hour).UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP1"},
		}, 1)
		require.NoError(t, err)

		_, err = svc.PerformTransaction(context.Background(), PerformTransactionParams{ID: "abc123"}, 2)
		assert.Equal(t, PaymeErrorCantDoOperation.Code, paymeCode(t, err))

		txn := f.txns["abc123"]
		assert.Equal(t, models.PaymeStateCancelled, txn.State)
		assert.Zero(t, txn.PerformTime)
		require.NotNil(t, txn.Reason)
		assert.Equal(t, models.PaymeReasonTimeout, *txn.Reason)
	})

	t.Run("row for an already-paid order is never performed", func(t *testing.T) {
		f := newFakePaymeLedger()
		svc := newTestPaymeService(f)
		seed(f, svc)

		_, err := svc.PerformTransaction(context.Background(), PerformTransactionParams{ID: "abc123"}, 1)
		require.NoError(t, err)

		// A leftover CREATED row pointing at the paid order.
		orphan := &models.PaymeTransaction{
			PaymentTransactionID: f.parents["BP1"].ID,
			PaymeID:              "payme-B",
			State:                models.PaymeStateCreated,
			CreateTime:           time.Now().UnixMilli(),
		}
		orphan.ID = uuid.New()
		f.txns["payme-B"] = orphan

		_, err = svc.PerformTransaction(context.Background(), PerformTransactionParams{ID: "payme-B"}, 2)
		assert.Equal(t, PaymeErrorAlreadyDone.Code, paymeCode(t, err))
		assert.Equal(t, 1, f.performedCalls, "the order must not be paid twice")
	})

	t.Run("concurrent performs complete exactly once", func(t *testing.T) {
		f := newFakePaymeLedger()
		svc := newTestPaymeService(f)
		seed(f, svc)

		const n = 20
		times := make([]int64, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				result, err := svc.PerformTransaction(context.Background(), PerformTransactionParams{ID: "abc123"}, i)
				if !assert.NoError(t, err) {
					return
				}
				times[i] = result.PerformTime
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, f.performedCalls, "exactly one transition may apply")
		for i := 1; i < n; i++ {
			assert.Equal(t, times[0], times[i], "every caller must observe the same perform_time")
		}
	})
}

func TestPaymeCancelTransaction(t *testing.T) {
	seed := func(t *testing.T, f *fakePaymeLedger, svc *PaymeService) {
		t.Helper()
		f.addParent("BP1", 50000)
		_, err := svc.CreateTransaction(context.Background(), CreateTransactionParams{
			ID:      "abc123",
			Time:    time.Now().UnixMilli(),
			Amount:  50000,
			Account: PaymeAccount{OrderID: "BP1"},
		}, 1)
		require.NoError(t, err)
	}

	t.Run("cancel created", func(t *testing.T) {
		f := newFakePaymeLedger()
		svc := newTestPaymeService(f)
		seed(t, f, svc)

		result, err := svc.CancelTransaction(context.Background(), CancelTransactionParams{ID: "abc123", Reason: models.PaymeReasonReceiverNotFound}, 1)
		require.NoError(t, err)
		assert.Equal(t, models.PaymeStateCancelled, result.State)
		assert.NotZero(t, result.CancelTime)
		assert.Equal(t, models.PaymentStatusCancelled, f.parents["BP1"].Status)
	})

	t.Run("cancel completed goes to cancelled-after-complete", func(t *testing.T) {
		f := newFakePaymeLedger()
		svc := newTestPaymeService(f)
		seed(t, f, svc)

		_, err := svc.PerformTransaction(context.Background(), PerformTransactionParams{ID: "abc123"}, 1)
		require.NoError(t, err)

		result, err := svc.CancelTransaction(context.Background(), CancelTransactionParams{ID: "abc123", Reason: models.PaymeReasonRefund}, 2)
		require.NoError(t, err)
		assert.Equal(t, models.PaymeStateCancelledAfterComplete, result.State)

		// perform_time survives cancellation-after-complete
		assert.NotZero(t, f.txns["abc123"].PerformTime)
	})

	t.Run("repeated cancel is idempotent", func(t *testing.T) {
		f := newFakePaymeLedger()
		svc := newTestPaymeService(f)
		seed(t, f, svc)

		first, err := svc.CancelTransaction(context.Background(), CancelTransactionParams{ID: "abc123", Reason: models.PaymeReasonTimeout}, 1)
		require.NoError(t, err)

		second, err := svc.CancelTransaction(context.Background(), CancelTransactionParams{ID: "abc123", Reason: models.PaymeReasonRefund}, 2)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFakePaymeLedger()
		svc := newTestPaymeService(f)

		_, err := svc.CancelTransaction(context.Background(), CancelTransactionParams{ID: "nope", Reason: models.PaymeReasonUnknown}, 1)
		assert.Equal(t, PaymeErrorTransactionNotFound.Code, paymeCode(t, err))
	})
}

func TestPaymeCheckTransaction(t *testing.T) {
	f := newFakePaymeLedger()
	svc := newTestPaymeService(f)
	f.addParent("BP1", 50000)

	createTime := time.Now().UnixMilli()
	_, err := svc.CreateTransaction(context.Background(), CreateTransactionParams{
		ID:      "abc123",
		Time:    createTime,
		Amount:  50000,
		Account: PaymeAccount{OrderID: "BP1"},
	}, 1)
	require.NoError(t, err)

	result, err := svc.CheckTransaction(context.Background(), CheckTransactionParams{ID: "abc123"}, 2)
	require.NoError(t, err)
	assert.Equal(t, models.PaymeStateCreated, result.State)
	assert.Equal(t, createTime, result.CreateTime)
	assert.Zero(t, result.PerformTime)
	assert.Zero(t, result.CancelTime)

	_, err = svc.CheckTransaction(context.Background(), CheckTransactionParams{ID: "nope"}, 3)
	assert.Equal(t, PaymeErrorTransactionNotFound.Code, paymeCode(t, err))
}

func TestPaymeGetStatement(t *testing.T) {
	f := newFakePaymeLedger()
	svc := newTestPaymeService(f)
	f.addParent("BP1", 50000)

	now := time.Now().UnixMilli()
	_, err := svc.CreateTransaction(context.Background(), CreateTransactionParams{
		ID:      "abc123",
		Time:    now,
		Amount:  50000,
		Account: PaymeAccount{OrderID: "BP1"},
	}, 1)
	require.NoError(t, err)

	result, err := svc.GetStatement(context.Background(), StatementParams{From: now - 1000, To: now + 1000}, 2)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "abc123", result[0].ID)
	assert.Equal(t, int64(50000), result[0].Amount)
	assert.Equal(t, "BP1", result[0].Account.OrderID)

	empty, err := svc.GetStatement(context.Background(), StatementParams{From: now + 5000, To: now + 9000}, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
