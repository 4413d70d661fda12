package receipt

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/memory"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var numberRX = regexp.MustCompile(`^FLEET-\d{8}-\d{4}$`)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	log := logger.New(io.Discard, "test", logger.LevelError)
	return NewService(store.Receipts(), store.Rides(), Config{NumberPrefix: "FLEET", MaxAttempts: 3, Currency: "USD"}, log), store
}

func finishedRide(t *testing.T, store *memory.Store) *models.Ride {
	t.Helper()
	driverID := uuid.New()
	started := time.Now().UTC().Add(-15 * time.Minute)
	finished := time.Now().UTC()
	ride := &models.Ride{
		ID:         uuid.New(),
		RiderID:    uuid.New(),
		DriverID:   &driverID,
		Start:      models.Location{Address: "Dostyk Ave 5"},
		DistanceKm: 10,
		Fare:       models.Fare{BaseFare: 2, DistanceFare: 15, TipAmount: 3, TotalAmount: 20},
		Status:     types.RideFinished,
		StartedAt:  &started,
		FinishedAt: &finished,
		CreatedAt:  started,
	}
	require.NoError(t, store.Rides().Create(context.Background(), ride))
	return ride
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)
	ride := finishedRide(t, store)

	rc, err := s.Generate(ctx, ride.ID, models.ReceiptFallback{})
	require.NoError(t, err)
	assert.Regexp(t, numberRX, rc.ReceiptNumber)
	assert.Equal(t, ride.Fare, rc.Fare)
	assert.Equal(t, *ride.DriverID, rc.DriverID)
	assert.Equal(t, "Dostyk Ave 5", rc.Pickup)
	assert.Equal(t, "Unknown", rc.Dropoff)
	assert.Equal(t, types.DefaultPaymentMethod, rc.PaymentMethod)
	assert.InDelta(t, 15, rc.DurationMinutes, 0.1)
	assert.Equal(t, "USD", rc.Currency)

	again, err := s.Generate(ctx, ride.ID, models.ReceiptFallback{PaymentMethod: "Cash"})
	require.NoError(t, err)
	assert.Equal(t, rc.ID, again.ID)
	assert.Equal(t, rc.ReceiptNumber, again.ReceiptNumber)
}

func TestGenerateFallbacks(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)

	driverID := uuid.New()
	ride := &models.Ride{ID: uuid.New(), RiderID: uuid.New(), DriverID: &driverID, Status: types.RideFinished}
	require.NoError(t, store.Rides().Create(ctx, ride))

	distance, minutes, base, perDistance := 4.0, 12.0, 2.5, 6.0
	rc, err := s.Generate(ctx, ride.ID, models.ReceiptFallback{
		PaymentMethod:   "Cash",
		Pickup:          "Airport",
		DistanceKm:      &distance,
		DurationMinutes: &minutes,
		BaseFare:        &base,
		DistanceFare:    &perDistance,
	})
	require.NoError(t, err)
	assert.Equal(t, "Cash", rc.PaymentMethod)
	assert.Equal(t, "Airport", rc.Pickup)
	assert.Equal(t, "Unknown", rc.Dropoff)
	assert.Equal(t, 4.0, rc.DistanceKm)
	assert.Equal(t, 12.0, rc.DurationMinutes)
	assert.Equal(t, models.Fare{BaseFare: 2.5, DistanceFare: 6, TotalAmount: 8.5}, rc.Fare)
}

func TestGenerateErrors(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)

	_, err := s.Generate(ctx, uuid.Nil, models.ReceiptFallback{})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = s.Generate(ctx, uuid.New(), models.ReceiptFallback{PaymentMethod: "Cash"})
	assert.ErrorIs(t, err, types.ErrValidation)

	open := &models.Ride{ID: uuid.New(), RiderID: uuid.New(), Status: types.RideInProgress}
	require.NoError(t, store.Rides().Create(ctx, open))
	_, err = s.Generate(ctx, open.ID, models.ReceiptFallback{})
	assert.ErrorIs(t, err, types.ErrRideNotFinished)
}

func TestGenerateWithoutRideRecord(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	rideID, riderID, driverID := uuid.New(), uuid.New(), uuid.New()
	base, perDistance := 2.0, 15.0
	fallback := models.ReceiptFallback{
		RiderID:       riderID,
		DriverID:      driverID,
		PaymentMethod: "Cash",
		Pickup:        "A",
		Dropoff:       "B",
		BaseFare:      &base,
		DistanceFare:  &perDistance,
	}

	rc, err := s.Generate(ctx, rideID, fallback)
	require.NoError(t, err)
	assert.Regexp(t, numberRX, rc.ReceiptNumber)
	assert.Equal(t, rideID, rc.RideID)
	assert.Equal(t, riderID, rc.RiderID)
	assert.Equal(t, driverID, rc.DriverID)
	assert.Equal(t, "Cash", rc.PaymentMethod)
	assert.Equal(t, "A", rc.Pickup)
	assert.Equal(t, "B", rc.Dropoff)
	assert.Equal(t, models.Fare{BaseFare: 2, DistanceFare: 15, TotalAmount: 17}, rc.Fare)

	again, err := s.Generate(ctx, rideID, models.ReceiptFallback{})
	require.NoError(t, err)
	assert.Equal(t, rc.ReceiptNumber, again.ReceiptNumber)

	byRider, err := s.ListByRider(ctx, riderID)
	require.NoError(t, err)
	assert.Len(t, byRider, 1)
}

func TestNumberCollisionRetries(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)

	suffixes := []int{1234, 1234, 5678}
	s.suffix = func() int {
		n := suffixes[0]
		suffixes = suffixes[1:]
		return n
	}

	first, err := s.Generate(ctx, finishedRide(t, store).ID, models.ReceiptFallback{})
	require.NoError(t, err)
	second, err := s.Generate(ctx, finishedRide(t, store).ID, models.ReceiptFallback{})
	require.NoError(t, err)

	assert.True(t, len(first.ReceiptNumber) > 4 && first.ReceiptNumber[len(first.ReceiptNumber)-4:] == "1234")
	assert.Equal(t, "5678", second.ReceiptNumber[len(second.ReceiptNumber)-4:])
}

func TestNumberCollisionGivesUp(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)
	s.suffix = func() int { return 4242 }

	_, err := s.Generate(ctx, finishedRide(t, store).ID, models.ReceiptFallback{})
	require.NoError(t, err)
	_, err = s.Generate(ctx, finishedRide(t, store).ID, models.ReceiptFallback{})
	assert.ErrorIs(t, err, types.ErrReceiptNumberTaken)
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)
	ride := finishedRide(t, store)
	_, err := s.IssueForRide(ctx, ride)
	require.NoError(t, err)

	byRider, err := s.ListByRider(ctx, ride.RiderID)
	require.NoError(t, err)
	assert.Len(t, byRider, 1)

	byDriver, err := s.ListByDriver(ctx, *ride.DriverID)
	require.NoError(t, err)
	assert.Len(t, byDriver, 1)

	_, err = s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, types.ErrReceiptNotFound)
}
