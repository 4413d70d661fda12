package ledger

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/memory"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []models.LedgerEvent
}

func (p *capturePublisher) PublishLedgerEvent(_ context.Context, e models.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func setup(t *testing.T) (*Service, *capturePublisher, uuid.UUID) {
	t.Helper()
	store := memory.New()
	driverID := uuid.New()
	require.NoError(t, store.Drivers().Create(context.Background(), &models.Driver{ID: driverID, Email: "driver@fleet.kz"}))

	pub := &capturePublisher{}
	log := logger.New(io.Discard, "test", logger.LevelError)
	return NewService(store.Ledger(), store.Drivers(), pub, store, log), pub, driverID
}

// assertInvariant checks available = total - paid - awaiting.
func assertInvariant(t *testing.T, s *Service, driverID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	l, err := s.Earnings(ctx, driverID)
	require.NoError(t, err)

	payouts, _, err := s.ListPayouts(ctx, models.PayoutFilter{DriverID: &driverID, Filters: models.Filters{Page: 1, PageSize: 100}})
	require.NoError(t, err)
	var reserved float64
	for _, p := range payouts {
		reserved += p.Amount
	}
	assert.InDelta(t, l.TotalEarnings-reserved, l.AvailableBalance, 0.001)
	assert.GreaterOrEqual(t, l.AvailableBalance, 0.0)
}

func TestCreditIsIdempotentPerRide(t *testing.T) {
	ctx := context.Background()
	s, _, driverID := setup(t)
	rideID := uuid.New()

	ok, err := s.Credit(ctx, driverID, rideID, 20)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Credit(ctx, driverID, rideID, 20)
	require.NoError(t, err)
	assert.False(t, ok)

	l, err := s.Earnings(ctx, driverID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, l.TotalEarnings)
	assert.Len(t, l.Transactions, 1)
	assert.Equal(t, types.TransactionCompleted, l.Transactions[0].Status)
}

func TestCreditRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s, _, driverID := setup(t)

	_, err := s.Credit(ctx, driverID, uuid.Nil, 5)
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = s.Credit(ctx, driverID, uuid.New(), -5)
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = s.Credit(ctx, uuid.New(), uuid.New(), 5)
	assert.ErrorIs(t, err, types.ErrDriverNotFound)
}

func TestPayoutLifecycle(t *testing.T) {
	ctx := context.Background()
	s, pub, driverID := setup(t)
	_, err := s.Credit(ctx, driverID, uuid.New(), 50)
	require.NoError(t, err)

	payout, err := s.RequestPayout(ctx, driverID, 30)
	require.NoError(t, err)
	assert.Equal(t, types.PayoutAwaiting, payout.Status)
	assert.Equal(t, "driver@fleet.kz", payout.Email)
	assertInvariant(t, s, driverID)

	_, err = s.RequestPayout(ctx, driverID, 30)
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)

	paid, err := s.FinalizePayout(ctx, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PayoutPaid, paid.Status)
	assertInvariant(t, s, driverID)

	_, err = s.FinalizePayout(ctx, payout.ID)
	assert.ErrorIs(t, err, types.ErrPayoutAlreadyPaid)
	_, err = s.FinalizePayout(ctx, uuid.New())
	assert.ErrorIs(t, err, types.ErrPayoutNotFound)

	l, err := s.Earnings(ctx, driverID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, l.TotalEarnings)
	assert.Equal(t, 20.0, l.AvailableBalance)

	require.Len(t, pub.events, 2)
	assert.Equal(t, types.EventPayoutRequested, pub.events[0].Event)
	assert.Equal(t, types.EventPayoutPaid, pub.events[1].Event)
}

func TestRequestPayoutValidation(t *testing.T) {
	ctx := context.Background()
	s, _, driverID := setup(t)

	for _, amount := range []float64{0, -1, 0.001} {
		_, err := s.RequestPayout(ctx, driverID, amount)
		assert.ErrorIs(t, err, types.ErrValidation, "amount %v", amount)
	}
	_, err := s.RequestPayout(ctx, uuid.New(), 10)
	assert.ErrorIs(t, err, types.ErrDriverNotFound)
}

func TestConcurrentPayoutsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	s, _, driverID := setup(t)
	_, err := s.Credit(ctx, driverID, uuid.New(), 100)
	require.NoError(t, err)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.RequestPayout(ctx, driverID, 15); err == nil {
				ok.Add(1)
			} else {
				assert.ErrorIs(t, err, types.ErrInsufficientFunds)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(6), ok.Load())
	l, err := s.Earnings(ctx, driverID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, l.AvailableBalance)
	assertInvariant(t, s, driverID)
}

func TestListPayouts(t *testing.T) {
	ctx := context.Background()
	s, _, driverID := setup(t)
	_, err := s.Credit(ctx, driverID, uuid.New(), 100)
	require.NoError(t, err)
	for range 3 {
		_, err := s.RequestPayout(ctx, driverID, 10)
		require.NoError(t, err)
	}

	list, meta, err := s.ListPayouts(ctx, models.PayoutFilter{Status: types.PayoutAwaiting, Filters: models.Filters{Page: 1, PageSize: 2}})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 3, meta.TotalRecords)

	_, _, err = s.ListPayouts(ctx, models.PayoutFilter{Status: "LOST", Filters: models.DefaultFilters()})
	assert.ErrorIs(t, err, types.ErrValidation)

	missing := uuid.New()
	_, _, err = s.ListPayouts(ctx, models.PayoutFilter{DriverID: &missing, Filters: models.DefaultFilters()})
	assert.ErrorIs(t, err, types.ErrDriverNotFound)
}
