package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/google/uuid"
)

type LedgerRepo struct {
	s *Store
}

func (r *LedgerRepo) Credit(ctx context.Context, driverID uuid.UUID, tx models.Transaction) (bool, error) {
	defer r.s.lock(ctx)()

	l, ok := r.s.ledgers[driverID]
	if !ok {
		return false, types.ErrDriverNotFound
	}
	for _, existing := range l.Transactions {
		if existing.Type == types.TransactionEarning && existing.RideID != nil && tx.RideID != nil && *existing.RideID == *tx.RideID {
			return false, nil
		}
	}

	l.Transactions = append(l.Transactions, tx)
	l.TotalEarnings = models.RoundMoney(l.TotalEarnings + tx.Amount)
	l.AvailableBalance = models.RoundMoney(l.AvailableBalance + tx.Amount)
	return true, nil
}

func (r *LedgerRepo) Reserve(ctx context.Context, driverID uuid.UUID, amount float64) error {
	defer r.s.lock(ctx)()

	l, ok := r.s.ledgers[driverID]
	if !ok {
		return types.ErrDriverNotFound
	}
	if l.AvailableBalance < amount {
		return types.ErrInsufficientFunds
	}
	l.AvailableBalance = models.RoundMoney(l.AvailableBalance - amount)
	return nil
}

func (r *LedgerRepo) CreatePayout(ctx context.Context, payout *models.Payout, tx models.Transaction) error {
	defer r.s.lock(ctx)()

	l, ok := r.s.ledgers[payout.DriverID]
	if !ok {
		return types.ErrDriverNotFound
	}
	r.s.payouts[payout.ID] = payout.Clone()
	l.Transactions = append(l.Transactions, tx)
	return nil
}

func (r *LedgerRepo) MarkPayoutPaid(ctx context.Context, payoutID uuid.UUID, paidAt time.Time) (*models.Payout, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.payouts[payoutID]
	if !ok {
		return nil, types.ErrPayoutNotFound
	}
	if p.Status == types.PayoutPaid {
		return nil, types.ErrPayoutAlreadyPaid
	}

	p.Status = types.PayoutPaid
	p.PaidAt = &paidAt

	if l, ok := r.s.ledgers[p.DriverID]; ok {
		for i := range l.Transactions {
			t := &l.Transactions[i]
			if t.PayoutID != nil && *t.PayoutID == payoutID {
				t.Status = types.TransactionCompleted
			}
		}
	}
	return p.Clone(), nil
}

func (r *LedgerRepo) GetLedger(ctx context.Context, driverID uuid.UUID) (*models.Ledger, error) {
	defer r.s.lock(ctx)()

	l, ok := r.s.ledgers[driverID]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	return l.Clone(), nil
}

func (r *LedgerRepo) GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.payouts[payoutID]
	if !ok {
		return nil, types.ErrPayoutNotFound
	}
	return p.Clone(), nil
}

// ListPayouts returns a page of matching payouts, newest first, and the total match count.
func (r *LedgerRepo) ListPayouts(ctx context.Context, f models.PayoutFilter) ([]*models.Payout, int, error) {
	defer r.s.lock(ctx)()

	matched := make([]*models.Payout, 0)
	for _, p := range r.s.payouts {
		if f.DriverID != nil && p.DriverID != *f.DriverID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		matched = append(matched, p.Clone())
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].RequestedAt.After(matched[j].RequestedAt) })

	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.Limit(), total)
	return matched[start:end], total, nil
}
