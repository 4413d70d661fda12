package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/google/uuid"
)

type RideRepo struct {
	s *Store
}

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.rides[ride.ID]; ok {
		return fmt.Errorf("%w: ride %s already exists", types.ErrConflict, ride.ID)
	}
	r.s.rides[ride.ID] = ride.Clone()
	return nil
}

func (r *RideRepo) Get(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	defer r.s.lock(ctx)()

	ride, ok := r.s.rides[id]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	return ride.Clone(), nil
}

// UpdateIfStatus is the conditional write: positions are owned by SetPosition
// and survive the update.
func (r *RideRepo) UpdateIfStatus(ctx context.Context, ride *models.Ride, expected types.RideStatus) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.rides[ride.ID]
	if !ok {
		return types.ErrRideNotFound
	}
	if cur.Status != expected {
		return types.ErrRideStateChanged
	}

	next := ride.Clone()
	next.RiderPosition = cur.RiderPosition
	next.DriverPosition = cur.DriverPosition
	r.s.rides[ride.ID] = next
	return nil
}

func (r *RideRepo) SetPosition(ctx context.Context, rideID uuid.UUID, party types.Party, loc models.Location) (*models.Ride, error) {
	defer r.s.lock(ctx)()

	ride, ok := r.s.rides[rideID]
	if !ok {
		return nil, types.ErrRideNotFound
	}

	switch party {
	case types.PartyRider:
		ride.RiderPosition = &loc
	case types.PartyDriver:
		ride.DriverPosition = &loc
	default:
		return nil, fmt.Errorf("%w: unknown party %q", types.ErrValidation, party)
	}
	ride.UpdatedAt = time.Now().UTC()
	return ride.Clone(), nil
}

func (r *RideRepo) ListWithoutDriver(ctx context.Context) ([]*models.Ride, error) {
	rides := r.filter(ctx, func(ride *models.Ride) bool {
		return ride.Status == types.RideProposed && ride.DriverID == nil
	})
	sort.Slice(rides, func(i, j int) bool { return rides[i].CreatedAt.Before(rides[j].CreatedAt) })
	return rides, nil
}

func (r *RideRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*models.Ride, error) {
	rides := r.filter(ctx, func(ride *models.Ride) bool {
		return ride.DriverID != nil && *ride.DriverID == driverID
	})
	sort.Slice(rides, func(i, j int) bool { return rides[i].CreatedAt.After(rides[j].CreatedAt) })
	return rides, nil
}

func (r *RideRepo) LatestByRider(ctx context.Context, riderID uuid.UUID) (*models.Ride, error) {
	rides := r.filter(ctx, func(ride *models.Ride) bool { return ride.RiderID == riderID })
	if len(rides) == 0 {
		return nil, types.ErrRideNotFound
	}
	sort.Slice(rides, func(i, j int) bool { return rides[i].CreatedAt.After(rides[j].CreatedAt) })
	return rides[0], nil
}

func (r *RideRepo) filter(ctx context.Context, keep func(*models.Ride) bool) []*models.Ride {
	defer r.s.lock(ctx)()

	out := make([]*models.Ride, 0)
	for _, ride := range r.s.rides {
		if keep(ride) {
			out = append(out, ride.Clone())
		}
	}
	return out
}
