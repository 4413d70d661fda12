package ledger

import (
	"context"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/google/uuid"
)

type Repo interface {
	// Credit appends an earning transaction and raises both totals. It reports
	// false, without changes, when the ride was already credited.
	Credit(ctx context.Context, driverID uuid.UUID, tx models.Transaction) (bool, error)
	// Reserve atomically lowers the available balance by amount, failing with
	// types.ErrInsufficientFunds when the balance is too small.
	Reserve(ctx context.Context, driverID uuid.UUID, amount float64) error
	CreatePayout(ctx context.Context, payout *models.Payout, tx models.Transaction) error
	// MarkPayoutPaid moves an awaiting payout to PAID and completes its transaction.
	MarkPayoutPaid(ctx context.Context, payoutID uuid.UUID, paidAt time.Time) (*models.Payout, error)
	GetLedger(ctx context.Context, driverID uuid.UUID) (*models.Ledger, error)
	GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, int, error)
}

type DriverRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Driver, error)
}

type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event models.LedgerEvent) error
}
