package receipt

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/google/uuid"
)

const unknownPlace = "Unknown"

type Config struct {
	NumberPrefix string
	MaxAttempts  int
	Currency     string
}

type Service struct {
	repo  Repo
	rides RideReader
	cfg   Config
	log   logger.Logger

	// suffix returns the random part of a receipt number, 1000-9999.
	suffix func() int
}

func NewService(repo Repo, rides RideReader, cfg Config, log logger.Logger) *Service {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.NumberPrefix == "" {
		cfg.NumberPrefix = "FLEET"
	}
	return &Service{
		repo:   repo,
		rides:  rides,
		cfg:    cfg,
		log:    log,
		suffix: func() int { return 1000 + rand.IntN(9000) },
	}
}

// Generate returns the receipt of a finished ride, creating it on first call.
// Fields the ride record lacks are taken from fallback. A ride the store has
// no record of is receipted from fallback alone, which must name the rider.
func (s *Service) Generate(ctx context.Context, rideID uuid.UUID, fallback models.ReceiptFallback) (*models.Receipt, error) {
	ctx = wrap.WithAction(ctx, types.ActionReceiptGenerated)
	if rideID == uuid.Nil {
		return nil, wrap.Error(ctx, types.NewValidationError(map[string]string{"ride_id": "must be provided"}))
	}
	ctx = wrap.WithRideID(ctx, rideID.String())

	if existing, err := s.repo.GetByRide(ctx, rideID); err == nil {
		return existing, nil
	} else if !errors.Is(err, types.ErrReceiptNotFound) {
		return nil, wrap.Error(ctx, err)
	}

	ride, err := s.rides.Get(ctx, rideID)
	switch {
	case err == nil:
	case errors.Is(err, types.ErrRideNotFound):
		if ride, err = detachedRide(rideID, fallback); err != nil {
			return nil, wrap.Error(ctx, err)
		}
		s.log.Warn(ctx, "ride has no record, receipt built from caller values", "rider_id", fallback.RiderID)
	default:
		return nil, wrap.Error(ctx, err)
	}

	return s.issue(ctx, ride, fallback)
}

// detachedRide stands in for a ride that was never stored here, e.g. one
// imported from another system.
func detachedRide(rideID uuid.UUID, fb models.ReceiptFallback) (*models.Ride, error) {
	if fb.RiderID == uuid.Nil {
		return nil, types.NewValidationError(map[string]string{"rider_id": "must be provided for a ride without a record"})
	}

	ride := &models.Ride{ID: rideID, RiderID: fb.RiderID, Status: types.RideFinished}
	if fb.DriverID != uuid.Nil {
		driverID := fb.DriverID
		ride.DriverID = &driverID
	}
	return ride, nil
}

// IssueForRide creates the receipt of a ride that has just finished.
func (s *Service) IssueForRide(ctx context.Context, ride *models.Ride) (*models.Receipt, error) {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, ride.ID.String()), types.ActionReceiptGenerated)

	if existing, err := s.repo.GetByRide(ctx, ride.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, types.ErrReceiptNotFound) {
		return nil, wrap.Error(ctx, err)
	}

	return s.issue(ctx, ride, models.ReceiptFallback{})
}

func (s *Service) issue(ctx context.Context, ride *models.Ride, fallback models.ReceiptFallback) (*models.Receipt, error) {
	if ride.Status != types.RideFinished {
		return nil, wrap.Error(ctx, fmt.Errorf("%w (%s)", types.ErrRideNotFinished, ride.Status))
	}

	receipt := s.build(ride, fallback)

	// Numbers collide when two receipts of one day draw the same suffix; the
	// store rejects the duplicate and a fresh suffix is drawn.
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		receipt.ReceiptNumber = s.number(receipt.IssuedAt)

		err := s.repo.Create(ctx, receipt)
		switch {
		case err == nil:
			s.log.Info(ctx, "receipt issued", "receipt_number", receipt.ReceiptNumber)
			return receipt, nil
		case errors.Is(err, types.ErrReceiptExists):
			existing, getErr := s.repo.GetByRide(ctx, ride.ID)
			if getErr != nil {
				return nil, wrap.Error(ctx, getErr)
			}
			return existing, nil
		case errors.Is(err, types.ErrReceiptNumberTaken):
			s.log.Warn(wrap.WithAction(ctx, types.ActionReceiptCollision), "receipt number taken, retrying",
				"receipt_number", receipt.ReceiptNumber, "attempt", attempt)
		default:
			return nil, wrap.Error(ctx, fmt.Errorf("could not save receipt: %w", err))
		}
	}

	return nil, wrap.Error(ctx, fmt.Errorf("%w after %d attempts", types.ErrReceiptNumberTaken, s.cfg.MaxAttempts))
}

func (s *Service) number(day time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", s.cfg.NumberPrefix, day.Format("20060102"), s.suffix())
}

func (s *Service) build(ride *models.Ride, fb models.ReceiptFallback) *models.Receipt {
	r := &models.Receipt{
		ID:            uuid.New(),
		RideID:        ride.ID,
		RiderID:       ride.RiderID,
		Fare:          ride.Fare,
		DistanceKm:    ride.DistanceKm,
		Pickup:        firstNonEmpty(ride.Start.Address, fb.Pickup, unknownPlace),
		Dropoff:       firstNonEmpty(ride.End.Address, fb.Dropoff, unknownPlace),
		PaymentMethod: firstNonEmpty(fb.PaymentMethod, types.DefaultPaymentMethod),
		Currency:      s.cfg.Currency,
		IssuedAt:      time.Now().UTC(),
	}
	if ride.DriverID != nil {
		r.DriverID = *ride.DriverID
	}

	if d := ride.Duration(); d > 0 {
		r.DurationMinutes = models.RoundMoney(d.Minutes())
	} else {
		r.DurationMinutes = orZero(fb.DurationMinutes)
	}
	if r.DistanceKm == 0 {
		r.DistanceKm = orZero(fb.DistanceKm)
	}

	if r.Fare == (models.Fare{}) {
		r.Fare = models.Fare{
			BaseFare:     orZero(fb.BaseFare),
			DistanceFare: orZero(fb.DistanceFare),
			TipAmount:    orZero(fb.TipAmount),
		}
		r.Fare.TotalAmount = models.RoundMoney(r.Fare.BaseFare + r.Fare.DistanceFare + r.Fare.TipAmount)
	}
	return r
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return r, nil
}

func (s *Service) GetByRide(ctx context.Context, rideID uuid.UUID) (*models.Receipt, error) {
	r, err := s.repo.GetByRide(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(wrap.WithRideID(ctx, rideID.String()), err)
	}
	return r, nil
}

func (s *Service) ListByRider(ctx context.Context, riderID uuid.UUID) ([]*models.Receipt, error) {
	list, err := s.repo.ListByRider(ctx, riderID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return list, nil
}

func (s *Service) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*models.Receipt, error) {
	list, err := s.repo.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(wrap.WithDriverID(ctx, driverID.String()), err)
	}
	return list, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return models.RoundMoney(*p)
}
