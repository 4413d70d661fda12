package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRide(riderID uuid.UUID) *models.Ride {
	now := time.Now().UTC()
	return &models.Ride{
		ID:        uuid.New(),
		RiderID:   riderID,
		Status:    types.RideProposed,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestDoRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	driverID := uuid.New()
	require.NoError(t, s.Drivers().Create(ctx, &models.Driver{ID: driverID, Name: "Aibek"}))

	boom := errors.New("boom")
	err := s.Do(ctx, func(ctx context.Context) error {
		rideID := uuid.New()
		ok, err := s.Ledger().Credit(ctx, driverID, models.Transaction{ID: uuid.New(), RideID: &rideID, Amount: 10, Type: types.TransactionEarning})
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, s.Drivers().AddCompletedRide(ctx, driverID, rideID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	l, err := s.Ledger().GetLedger(ctx, driverID)
	require.NoError(t, err)
	assert.Zero(t, l.TotalEarnings)
	assert.Empty(t, l.Transactions)

	d, err := s.Drivers().Get(ctx, driverID)
	require.NoError(t, err)
	assert.Empty(t, d.CompletedRides)
}

func TestDoRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := New()
	riderID := uuid.New()

	assert.Panics(t, func() {
		_ = s.Do(ctx, func(ctx context.Context) error {
			require.NoError(t, s.Riders().Create(ctx, &models.Rider{ID: riderID}))
			panic("halt")
		})
	})

	_, err := s.Riders().Get(ctx, riderID)
	assert.ErrorIs(t, err, types.ErrRiderNotFound)
}

func TestNestedDoJoinsOuter(t *testing.T) {
	ctx := context.Background()
	s := New()
	riderID := uuid.New()

	err := s.Do(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Do(ctx, func(ctx context.Context) error {
			return s.Riders().Create(ctx, &models.Rider{ID: riderID})
		}))
		return errors.New("outer failed")
	})
	require.Error(t, err)

	_, err = s.Riders().Get(ctx, riderID)
	assert.ErrorIs(t, err, types.ErrRiderNotFound)
}

func TestUpdateIfStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	repo := s.Rides()
	ride := newRide(uuid.New())
	require.NoError(t, repo.Create(ctx, ride))

	_, err := repo.SetPosition(ctx, ride.ID, types.PartyRider, models.Location{Latitude: 43.2, Longitude: 76.9})
	require.NoError(t, err)

	driverID := uuid.New()
	ride.DriverID = &driverID
	ride.Status = types.RideDriverSelected
	require.NoError(t, repo.UpdateIfStatus(ctx, ride, types.RideProposed))

	got, err := repo.Get(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RideDriverSelected, got.Status)
	require.NotNil(t, got.RiderPosition, "position must survive a status write")
	assert.Equal(t, 43.2, got.RiderPosition.Latitude)

	err = repo.UpdateIfStatus(ctx, ride, types.RideProposed)
	assert.ErrorIs(t, err, types.ErrRideStateChanged)

	missing := newRide(uuid.New())
	assert.ErrorIs(t, repo.UpdateIfStatus(ctx, missing, types.RideProposed), types.ErrRideNotFound)
}

func TestUpdateIfStatusSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := New()
	repo := s.Rides()
	ride := newRide(uuid.New())
	require.NoError(t, repo.Create(ctx, ride))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := ride.Clone()
			driverID := uuid.New()
			next.DriverID = &driverID
			next.Status = types.RideDriverSelected
			if repo.UpdateIfStatus(ctx, next, types.RideProposed) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	ride := newRide(uuid.New())
	require.NoError(t, s.Rides().Create(ctx, ride))

	got, err := s.Rides().Get(ctx, ride.ID)
	require.NoError(t, err)
	got.Status = types.RideFinished

	again, err := s.Rides().Get(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RideProposed, again.Status)
}

func TestRideListings(t *testing.T) {
	ctx := context.Background()
	s := New()
	repo := s.Rides()
	riderID := uuid.New()
	driverID := uuid.New()

	older := newRide(riderID)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := newRide(riderID)
	taken := newRide(uuid.New())
	taken.DriverID = &driverID
	taken.Status = types.RideDriverSelected
	for _, r := range []*models.Ride{older, newer, taken} {
		require.NoError(t, repo.Create(ctx, r))
	}

	open, err := repo.ListWithoutDriver(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, older.ID, open[0].ID)

	byDriver, err := repo.ListByDriver(ctx, driverID)
	require.NoError(t, err)
	require.Len(t, byDriver, 1)
	assert.Equal(t, taken.ID, byDriver[0].ID)

	latest, err := repo.LatestByRider(ctx, riderID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)

	_, err = repo.LatestByRider(ctx, uuid.New())
	assert.ErrorIs(t, err, types.ErrRideNotFound)
}

func TestLedgerCreditIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	driverID := uuid.New()
	require.NoError(t, s.Drivers().Create(ctx, &models.Driver{ID: driverID}))

	rideID := uuid.New()
	tx := models.Transaction{ID: uuid.New(), RideID: &rideID, Amount: 12.5, Type: types.TransactionEarning}
	ok, err := s.Ledger().Credit(ctx, driverID, tx)
	require.NoError(t, err)
	assert.True(t, ok)

	tx.ID = uuid.New()
	ok, err = s.Ledger().Credit(ctx, driverID, tx)
	require.NoError(t, err)
	assert.False(t, ok)

	l, err := s.Ledger().GetLedger(ctx, driverID)
	require.NoError(t, err)
	assert.Equal(t, 12.5, l.TotalEarnings)
	assert.Equal(t, 12.5, l.AvailableBalance)
	assert.Len(t, l.Transactions, 1)

	_, err = s.Ledger().Credit(ctx, uuid.New(), tx)
	assert.ErrorIs(t, err, types.ErrDriverNotFound)
}

func TestReserveAndPayouts(t *testing.T) {
	ctx := context.Background()
	s := New()
	driverID := uuid.New()
	require.NoError(t, s.Drivers().Create(ctx, &models.Driver{ID: driverID}))
	rideID := uuid.New()
	_, err := s.Ledger().Credit(ctx, driverID, models.Transaction{ID: uuid.New(), RideID: &rideID, Amount: 30, Type: types.TransactionEarning})
	require.NoError(t, err)

	require.NoError(t, s.Ledger().Reserve(ctx, driverID, 20))
	assert.ErrorIs(t, s.Ledger().Reserve(ctx, driverID, 20), types.ErrInsufficientFunds)

	payout := &models.Payout{ID: uuid.New(), DriverID: driverID, Amount: 20, Status: types.PayoutAwaiting, RequestedAt: time.Now()}
	require.NoError(t, s.Ledger().CreatePayout(ctx, payout, models.Transaction{
		ID: uuid.New(), PayoutID: &payout.ID, Amount: 20, Type: types.TransactionPayout, Status: types.TransactionPending,
	}))

	paid, err := s.Ledger().MarkPayoutPaid(ctx, payout.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, types.PayoutPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = s.Ledger().MarkPayoutPaid(ctx, payout.ID, time.Now())
	assert.ErrorIs(t, err, types.ErrPayoutAlreadyPaid)

	l, err := s.Ledger().GetLedger(ctx, driverID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, l.AvailableBalance)
	assert.Equal(t, types.TransactionCompleted, l.Transactions[1].Status)

	list, total, err := s.Ledger().ListPayouts(ctx, models.PayoutFilter{DriverID: &driverID, Filters: models.DefaultFilters()})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
}

func TestReceiptUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	repo := s.Receipts()
	rideID := uuid.New()

	first := &models.Receipt{ID: uuid.New(), RideID: rideID, ReceiptNumber: "FLEET-20260101-1234", IssuedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, first))

	sameRide := &models.Receipt{ID: uuid.New(), RideID: rideID, ReceiptNumber: "FLEET-20260101-9999"}
	assert.ErrorIs(t, repo.Create(ctx, sameRide), types.ErrReceiptExists)

	sameNumber := &models.Receipt{ID: uuid.New(), RideID: uuid.New(), ReceiptNumber: first.ReceiptNumber}
	assert.ErrorIs(t, repo.Create(ctx, sameNumber), types.ErrReceiptNumberTaken)

	got, err := repo.GetByRide(ctx, rideID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestDriverList(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()
	older := &models.Driver{ID: uuid.New(), Name: "Zhanna", CreatedAt: now.Add(-time.Hour)}
	newer := &models.Driver{ID: uuid.New(), Name: "Arman", CreatedAt: now}
	require.NoError(t, s.Drivers().Create(ctx, newer))
	require.NoError(t, s.Drivers().Create(ctx, older))

	d, err := s.Drivers().SetApproval(ctx, older.ID, true)
	require.NoError(t, err)
	assert.True(t, d.Approved)

	list, err := s.Drivers().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)
	assert.True(t, list[0].Approved)
	assert.Equal(t, newer.ID, list[1].ID)
	assert.False(t, list[1].Approved)

	list[0].Approved = false
	got, err := s.Drivers().Get(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)
}
