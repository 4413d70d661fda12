package ride

import (
	"context"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/google/uuid"
)

type RideRepo interface {
	Create(ctx context.Context, ride *models.Ride) error
	Get(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	// UpdateIfStatus persists ride only while the stored status still equals
	// expected, and returns types.ErrRideStateChanged otherwise.
	UpdateIfStatus(ctx context.Context, ride *models.Ride, expected types.RideStatus) error
	// SetPosition records one party's last known position and returns the fresh ride.
	SetPosition(ctx context.Context, rideID uuid.UUID, party types.Party, loc models.Location) (*models.Ride, error)
	ListWithoutDriver(ctx context.Context) ([]*models.Ride, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*models.Ride, error)
	LatestByRider(ctx context.Context, riderID uuid.UUID) (*models.Ride, error)
}

type DriverRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	AddCompletedRide(ctx context.Context, driverID, rideID uuid.UUID) error
}

type RiderRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Rider, error)
	AddCompletedRide(ctx context.Context, riderID, rideID uuid.UUID) error
}

type FareCalculator interface {
	ComputeFare(distanceKm, baseFee, perKmRate, tip float64) (models.Fare, error)
}

// Geolocator supplies the distance between two points in metres.
type Geolocator interface {
	DistanceMeters(a, b models.Location) float64
}

type LedgerCrediter interface {
	Credit(ctx context.Context, driverID, rideID uuid.UUID, amount float64) (bool, error)
	// Credited is called after the crediting transaction commits.
	Credited(ctx context.Context, driverID, rideID uuid.UUID, amount float64)
}

type ReceiptIssuer interface {
	IssueForRide(ctx context.Context, ride *models.Ride) (*models.Receipt, error)
}

// AddressResolver turns coordinates into a human readable address.
type AddressResolver interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

type EventPublisher interface {
	PublishRideStatus(ctx context.Context, update models.RideStatusUpdate) error
}

// Notifier pushes ride updates to connected clients.
type Notifier interface {
	NotifyUsers(ctx context.Context, userIDs []uuid.UUID, msg models.StatusUpdateWebSocketMessage)
}
