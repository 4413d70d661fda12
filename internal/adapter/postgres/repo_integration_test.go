package repo

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/postgres"
	"github.com/Temutjin2k/fleet-ledger/pkg/trm"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openDB connects to FLEET_TEST_DATABASE_DSN and applies the schema. Rows
// created by these tests use fresh ids and are left in place.
func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("FLEET_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("FLEET_TEST_DATABASE_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool, Migrations, MigrationsDir))
	return pool
}

func createDriver(t *testing.T, drivers *DriverRepo) *models.Driver {
	t.Helper()
	now := time.Now().UTC()
	d := &models.Driver{
		ID:        uuid.New(),
		Name:      "Arman",
		Email:     "arman@fleet.kz",
		Pricing:   models.Pricing{BaseFee: 2, PerKmRate: 1.5},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, drivers.Create(context.Background(), d))
	return d
}

func TestConfirmRaceHasOneWinner(t *testing.T) {
	ctx := context.Background()
	pool := openDB(t)
	rides, drivers := NewRideRepo(pool), NewDriverRepo(pool)

	now := time.Now().UTC()
	ride := &models.Ride{
		ID:         uuid.New(),
		RiderID:    uuid.New(),
		Status:     types.RideProposed,
		Start:      models.Location{Latitude: 43.25, Longitude: 76.95},
		End:        models.Location{Latitude: 43.24, Longitude: 76.89},
		DistanceKm: 10,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, rides.Create(ctx, ride))

	const contenders = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		won  []uuid.UUID
		errs []error
	)
	for range contenders {
		d := createDriver(t, drivers)
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := rides.Get(ctx, ride.ID)
			if err == nil {
				matched := time.Now().UTC()
				r.DriverID = &d.ID
				r.Status = types.RideDriverSelected
				r.MatchedAt = &matched
				err = rides.UpdateIfStatus(ctx, r, types.RideProposed)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			won = append(won, d.ID)
		}()
	}
	wg.Wait()

	require.Len(t, won, 1)
	require.Len(t, errs, contenders-1)
	for _, err := range errs {
		assert.ErrorIs(t, err, types.ErrRideStateChanged)
	}

	got, err := rides.Get(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RideDriverSelected, got.Status)
	require.NotNil(t, got.DriverID)
	assert.Equal(t, won[0], *got.DriverID)

	err = rides.UpdateIfStatus(ctx, &models.Ride{ID: uuid.New(), Status: types.RideDriverSelected}, types.RideProposed)
	assert.ErrorIs(t, err, types.ErrRideNotFound)
}

func TestReserveCannotOverdraw(t *testing.T) {
	ctx := context.Background()
	pool := openDB(t)
	ledger := NewLedgerRepo(pool)
	d := createDriver(t, NewDriverRepo(pool))

	rideID := uuid.New()
	earning := models.Transaction{
		ID:        uuid.New(),
		RideID:    &rideID,
		Amount:    20,
		Type:      types.TransactionEarning,
		Status:    types.TransactionCompleted,
		Timestamp: time.Now().UTC(),
	}
	credited, err := ledger.Credit(ctx, d.ID, earning)
	require.NoError(t, err)
	assert.True(t, credited)

	earning.ID = uuid.New()
	credited, err = ledger.Credit(ctx, d.ID, earning)
	require.NoError(t, err)
	assert.False(t, credited, "a ride is credited once")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reserved int
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.Reserve(ctx, d.ID, 8)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				reserved++
				return
			}
			assert.ErrorIs(t, err, types.ErrInsufficientFunds)
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, reserved)

	l, err := ledger.GetLedger(ctx, d.ID)
	require.NoError(t, err)
	assert.InDelta(t, 20, l.TotalEarnings, 0.001)
	assert.InDelta(t, 4, l.AvailableBalance, 0.001)

	assert.ErrorIs(t, ledger.Reserve(ctx, uuid.New(), 1), types.ErrDriverNotFound)
}

func TestReserveRollsBackWithTransaction(t *testing.T) {
	ctx := context.Background()
	pool := openDB(t)
	ledger := NewLedgerRepo(pool)
	d := createDriver(t, NewDriverRepo(pool))

	rideID := uuid.New()
	_, err := ledger.Credit(ctx, d.ID, models.Transaction{
		ID: uuid.New(), RideID: &rideID, Amount: 10,
		Type: types.TransactionEarning, Status: types.TransactionCompleted, Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	err = trm.New(pool).Do(ctx, func(ctx context.Context) error {
		if err := ledger.Reserve(ctx, d.ID, 6); err != nil {
			return err
		}
		return ledger.Reserve(ctx, d.ID, 6)
	})
	require.ErrorIs(t, err, types.ErrInsufficientFunds)

	l, err := ledger.GetLedger(ctx, d.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10, l.AvailableBalance, 0.001)
}

func TestReceiptDuplicates(t *testing.T) {
	ctx := context.Background()
	pool := openDB(t)
	receipts := NewReceiptRepo(pool)

	number := "FLEET-TEST-" + uuid.NewString()[:8]
	rc := &models.Receipt{
		ID:            uuid.New(),
		ReceiptNumber: number,
		RideID:        uuid.New(),
		RiderID:       uuid.New(),
		DriverID:      uuid.New(),
		Fare:          models.Fare{BaseFare: 2, DistanceFare: 15, TotalAmount: 17},
		Pickup:        "A",
		Dropoff:       "B",
		PaymentMethod: "Cash",
		Currency:      "USD",
		IssuedAt:      time.Now().UTC(),
	}
	require.NoError(t, receipts.Create(ctx, rc))

	sameRide := *rc
	sameRide.ID = uuid.New()
	sameRide.ReceiptNumber = number + "-B"
	assert.ErrorIs(t, receipts.Create(ctx, &sameRide), types.ErrReceiptExists)

	sameNumber := *rc
	sameNumber.ID = uuid.New()
	sameNumber.RideID = uuid.New()
	assert.ErrorIs(t, receipts.Create(ctx, &sameNumber), types.ErrReceiptNumberTaken)

	got, err := receipts.GetByRide(ctx, rc.RideID)
	require.NoError(t, err)
	assert.Equal(t, number, got.ReceiptNumber)
}

func TestDriverApprovalColumn(t *testing.T) {
	ctx := context.Background()
	pool := openDB(t)
	drivers := NewDriverRepo(pool)
	d := createDriver(t, drivers)

	got, err := drivers.SetApproval(ctx, d.ID, true)
	require.NoError(t, err)
	assert.True(t, got.Approved)

	list, err := drivers.List(ctx)
	require.NoError(t, err)
	var found bool
	for _, l := range list {
		if l.ID == d.ID {
			found = true
			assert.True(t, l.Approved)
		}
	}
	assert.True(t, found)

	_, err = drivers.SetApproval(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, types.ErrDriverNotFound)
}
