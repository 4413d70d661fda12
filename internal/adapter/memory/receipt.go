package memory

import (
	"context"
	"sort"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/google/uuid"
)

type ReceiptRepo struct {
	s *Store
}

func (r *ReceiptRepo) Create(ctx context.Context, receipt *models.Receipt) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.receipts {
		if existing.RideID == receipt.RideID {
			return types.ErrReceiptExists
		}
		if existing.ReceiptNumber == receipt.ReceiptNumber {
			return types.ErrReceiptNumberTaken
		}
	}
	c := *receipt
	r.s.receipts[receipt.ID] = &c
	return nil
}

func (r *ReceiptRepo) Get(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	defer r.s.lock(ctx)()

	receipt, ok := r.s.receipts[id]
	if !ok {
		return nil, types.ErrReceiptNotFound
	}
	c := *receipt
	return &c, nil
}

func (r *ReceiptRepo) GetByRide(ctx context.Context, rideID uuid.UUID) (*models.Receipt, error) {
	list := r.filter(ctx, func(rc *models.Receipt) bool { return rc.RideID == rideID })
	if len(list) == 0 {
		return nil, types.ErrReceiptNotFound
	}
	return list[0], nil
}

func (r *ReceiptRepo) ListByRider(ctx context.Context, riderID uuid.UUID) ([]*models.Receipt, error) {
	return r.filter(ctx, func(rc *models.Receipt) bool { return rc.RiderID == riderID }), nil
}

func (r *ReceiptRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*models.Receipt, error) {
	return r.filter(ctx, func(rc *models.Receipt) bool { return rc.DriverID == driverID }), nil
}

// filter returns copies of the matching receipts, newest first.
func (r *ReceiptRepo) filter(ctx context.Context, keep func(*models.Receipt) bool) []*models.Receipt {
	defer r.s.lock(ctx)()

	out := make([]*models.Receipt, 0)
	for _, rc := range r.s.receipts {
		if keep(rc) {
			c := *rc
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out
}
