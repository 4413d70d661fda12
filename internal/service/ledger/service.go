package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/metrics"
	"github.com/Temutjin2k/fleet-ledger/pkg/trm"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	"github.com/google/uuid"
)

// Service keeps driver ledgers. Invariant per driver:
// available = total earnings - paid payouts - awaiting payouts, never below zero.
type Service struct {
	repo      Repo
	drivers   DriverRepo
	publisher EventPublisher // optional
	trm       trm.TxManager
	log       logger.Logger
}

func NewService(repo Repo, drivers DriverRepo, publisher EventPublisher, trm trm.TxManager, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		drivers:   drivers,
		publisher: publisher,
		trm:       trm,
		log:       log,
	}
}

func validAmount(amount float64) bool {
	return validator.Finite(amount) && amount >= 0
}

// Credit books a ride's fare as a completed earning. Crediting the same ride
// twice is a no-op that reports false.
func (s *Service) Credit(ctx context.Context, driverID, rideID uuid.UUID, amount float64) (bool, error) {
	ctx = wrap.WithAction(wrap.WithDriverID(ctx, driverID.String()), types.ActionLedgerCredited)
	ctx = wrap.WithRideID(ctx, rideID.String())

	if rideID == uuid.Nil || !validAmount(amount) {
		return false, wrap.Error(ctx, fmt.Errorf("%w: credit needs a ride id and a non-negative amount", types.ErrValidation))
	}

	tx := models.Transaction{
		ID:        uuid.New(),
		RideID:    &rideID,
		Amount:    models.RoundMoney(amount),
		Type:      types.TransactionEarning,
		Status:    types.TransactionCompleted,
		Timestamp: time.Now().UTC(),
	}

	var credited bool
	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		credited, err = s.repo.Credit(ctx, driverID, tx)
		return err
	})
	if err != nil {
		return false, wrap.Error(ctx, err)
	}

	if !credited {
		s.log.Warn(ctx, "ride already credited, skipping")
		return false, nil
	}

	s.log.Info(ctx, "ledger credited", "amount", tx.Amount)
	return true, nil
}

// Credited announces an earning once the transaction that booked it has
// committed. Credit may run inside a caller's transaction, so it cannot do
// this itself.
func (s *Service) Credited(ctx context.Context, driverID, rideID uuid.UUID, amount float64) {
	amount = models.RoundMoney(amount)
	metrics.RecordLedgerCredit(amount)
	s.publish(ctx, models.LedgerEvent{
		Event:     types.EventEarningCredited,
		DriverID:  driverID,
		RideID:    &rideID,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	})
}

// RequestPayout reserves amount from the available balance and opens a payout
// awaiting an administrator. The balance check and decrement are one atomic
// store operation.
func (s *Service) RequestPayout(ctx context.Context, driverID uuid.UUID, amount float64) (*models.Payout, error) {
	ctx = wrap.WithAction(wrap.WithDriverID(ctx, driverID.String()), types.ActionPayoutRequested)

	if !validAmount(amount) || models.RoundMoney(amount) <= 0 {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: payout amount must be a positive number", types.ErrValidation))
	}
	amount = models.RoundMoney(amount)

	var payout *models.Payout
	err := s.trm.Do(ctx, func(ctx context.Context) error {
		driver, err := s.drivers.Get(ctx, driverID)
		if err != nil {
			return err
		}

		if err := s.repo.Reserve(ctx, driverID, amount); err != nil {
			return err
		}

		now := time.Now().UTC()
		payout = &models.Payout{
			ID:          uuid.New(),
			DriverID:    driverID,
			Amount:      amount,
			Email:       driver.Email,
			Status:      types.PayoutAwaiting,
			RequestedAt: now,
		}
		tx := models.Transaction{
			ID:        uuid.New(),
			PayoutID:  &payout.ID,
			Amount:    amount,
			Type:      types.TransactionPayout,
			Status:    types.TransactionPending,
			Timestamp: now,
		}
		return s.repo.CreatePayout(ctx, payout, tx)
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ctx = wrap.WithPayoutID(ctx, payout.ID.String())
	metrics.RecordPayout(string(types.PayoutAwaiting), amount)
	s.log.Info(ctx, "payout requested", "amount", amount)
	s.publish(ctx, models.LedgerEvent{
		Event:     types.EventPayoutRequested,
		DriverID:  driverID,
		PayoutID:  &payout.ID,
		Amount:    amount,
		Timestamp: payout.RequestedAt,
	})
	return payout, nil
}

// FinalizePayout marks an awaiting payout as paid. Administrative action.
func (s *Service) FinalizePayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	ctx = wrap.WithAction(wrap.WithPayoutID(ctx, payoutID.String()), types.ActionPayoutFinalized)

	var payout *models.Payout
	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		payout, err = s.repo.MarkPayoutPaid(ctx, payoutID, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ctx = wrap.WithDriverID(ctx, payout.DriverID.String())
	metrics.RecordPayout(string(types.PayoutPaid), payout.Amount)
	s.log.Info(ctx, "payout finalized", "amount", payout.Amount)
	s.publish(ctx, models.LedgerEvent{
		Event:     types.EventPayoutPaid,
		DriverID:  payout.DriverID,
		PayoutID:  &payout.ID,
		Amount:    payout.Amount,
		Timestamp: *payout.PaidAt,
	})
	return payout, nil
}

// Earnings returns the driver's ledger snapshot.
func (s *Service) Earnings(ctx context.Context, driverID uuid.UUID) (*models.Ledger, error) {
	ctx = wrap.WithAction(wrap.WithDriverID(ctx, driverID.String()), "fetch_earnings")

	ledger, err := s.repo.GetLedger(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return ledger, nil
}

func (s *Service) GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	payout, err := s.repo.GetPayout(ctx, payoutID)
	if err != nil {
		return nil, wrap.Error(wrap.WithPayoutID(ctx, payoutID.String()), err)
	}
	return payout, nil
}

func (s *Service) ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, models.Metadata, error) {
	ctx = wrap.WithAction(ctx, "list_payouts")

	v := validator.New()
	filter.Filters.Validate(v)
	v.Check(filter.Status == "" || validator.PermittedValue(filter.Status, types.PayoutAwaiting, types.PayoutPaid), "status", "must be AWAITING_PAYOUT or PAID")
	if !v.Valid() {
		return nil, models.Metadata{}, wrap.Error(ctx, types.NewValidationError(v.Errors))
	}

	if filter.DriverID != nil {
		if _, err := s.drivers.Get(ctx, *filter.DriverID); err != nil {
			return nil, models.Metadata{}, wrap.Error(ctx, err)
		}
	}

	payouts, total, err := s.repo.ListPayouts(ctx, filter)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, err)
	}
	return payouts, models.CalculateMetadata(total, filter.Page, filter.PageSize), nil
}

func (s *Service) publish(ctx context.Context, event models.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		s.log.Error(wrap.WithAction(ctx, types.ActionEventPublishFailed), "failed to publish ledger event", err, "event", event.Event)
	}
}
