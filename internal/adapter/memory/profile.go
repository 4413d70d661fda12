package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/google/uuid"
)

type DriverRepo struct {
	s *Store
}

// Create stores the driver together with an empty ledger.
func (r *DriverRepo) Create(ctx context.Context, d *models.Driver) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.drivers[d.ID]; ok {
		return types.ErrDriverRegistered
	}
	r.s.drivers[d.ID] = d.Clone()
	r.s.ledgers[d.ID] = &models.Ledger{DriverID: d.ID, Transactions: []models.Transaction{}}
	return nil
}

func (r *DriverRepo) Get(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	defer r.s.lock(ctx)()

	d, ok := r.s.drivers[id]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	return d.Clone(), nil
}

func (r *DriverRepo) UpdatePricing(ctx context.Context, id uuid.UUID, p models.Pricing) (*models.Driver, error) {
	return r.mutate(ctx, id, func(d *models.Driver) { d.Pricing = p })
}

func (r *DriverRepo) SetOnline(ctx context.Context, id uuid.UUID, online bool) (*models.Driver, error) {
	return r.mutate(ctx, id, func(d *models.Driver) { d.IsOnline = online })
}

func (r *DriverRepo) SetApproval(ctx context.Context, id uuid.UUID, approved bool) (*models.Driver, error) {
	return r.mutate(ctx, id, func(d *models.Driver) { d.Approved = approved })
}

func (r *DriverRepo) mutate(ctx context.Context, id uuid.UUID, fn func(*models.Driver)) (*models.Driver, error) {
	defer r.s.lock(ctx)()

	d, ok := r.s.drivers[id]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	fn(d)
	d.UpdatedAt = time.Now().UTC()
	return d.Clone(), nil
}

func (r *DriverRepo) ListOnline(ctx context.Context) ([]*models.Driver, error) {
	defer r.s.lock(ctx)()

	out := make([]*models.Driver, 0)
	for _, d := range r.s.drivers {
		if d.IsOnline {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// List returns every driver, oldest registration first.
func (r *DriverRepo) List(ctx context.Context) ([]*models.Driver, error) {
	defer r.s.lock(ctx)()

	out := make([]*models.Driver, 0, len(r.s.drivers))
	for _, d := range r.s.drivers {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// AddCompletedRide is idempotent.
func (r *DriverRepo) AddCompletedRide(ctx context.Context, driverID, rideID uuid.UUID) error {
	defer r.s.lock(ctx)()

	d, ok := r.s.drivers[driverID]
	if !ok {
		return types.ErrDriverNotFound
	}
	if !slices.Contains(d.CompletedRides, rideID) {
		d.CompletedRides = append(d.CompletedRides, rideID)
	}
	return nil
}

type RiderRepo struct {
	s *Store
}

func (r *RiderRepo) Create(ctx context.Context, rider *models.Rider) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.riders[rider.ID]; ok {
		return types.ErrRiderRegistered
	}
	r.s.riders[rider.ID] = rider.Clone()
	return nil
}

func (r *RiderRepo) Get(ctx context.Context, id uuid.UUID) (*models.Rider, error) {
	defer r.s.lock(ctx)()

	rider, ok := r.s.riders[id]
	if !ok {
		return nil, types.ErrRiderNotFound
	}
	return rider.Clone(), nil
}

// AddCompletedRide is idempotent.
func (r *RiderRepo) AddCompletedRide(ctx context.Context, riderID, rideID uuid.UUID) error {
	defer r.s.lock(ctx)()

	rider, ok := r.s.riders[riderID]
	if !ok {
		return types.ErrRiderNotFound
	}
	if !slices.Contains(rider.CompletedRides, rideID) {
		rider.CompletedRides = append(rider.CompletedRides, rideID)
	}
	return nil
}

type SettingsRepo struct {
	s *Store
}

func (r *SettingsRepo) Get(ctx context.Context) (models.Settings, error) {
	defer r.s.lock(ctx)()
	return r.s.settings, nil
}

func (r *SettingsRepo) Save(ctx context.Context, st models.Settings) error {
	defer r.s.lock(ctx)()
	r.s.settings = st
	return nil
}
