package receipt

import (
	"context"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/google/uuid"
)

type Repo interface {
	// Create fails with types.ErrReceiptExists when the ride already has a
	// receipt and types.ErrReceiptNumberTaken when the number is in use.
	Create(ctx context.Context, receipt *models.Receipt) error
	Get(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	GetByRide(ctx context.Context, rideID uuid.UUID) (*models.Receipt, error)
	ListByRider(ctx context.Context, riderID uuid.UUID) ([]*models.Receipt, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*models.Receipt, error)
}

type RideReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Ride, error)
}
