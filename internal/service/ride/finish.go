package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	ridecalc "github.com/Temutjin2k/fleet-ledger/internal/service/calculator"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	"github.com/google/uuid"
)

// Finish completes a ride in progress. The final fare (quote plus tip) is
// credited to the driver ledger, the ride is appended to both parties'
// completed lists, the status moves to FINISHED and a receipt is issued,
// all inside one transaction. The ledger credit goes first and is keyed by
// ride id, so a retry after a partial failure converges.
func (s *RideService) Finish(ctx context.Context, rideID uuid.UUID, tip float64) (*models.Ride, error) {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, rideID.String()), types.ActionRideFinished)

	if !validator.Finite(tip) || tip < 0 {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: tip must be a non-negative number", types.ErrValidation))
	}

	var (
		finished *models.Ride
		credited bool
	)
	err := s.Trm.Do(ctx, func(ctx context.Context) error {
		ride, err := s.Rides.Get(ctx, rideID)
		if err != nil {
			return err
		}
		if ride.Status != types.RideInProgress {
			return types.InvalidTransition(ride.Status, types.RideFinished)
		}
		if ride.DriverID == nil {
			return types.InvalidTransition(ride.Status, types.RideFinished)
		}
		driverID := *ride.DriverID
		ctx = wrap.WithDriverID(ctx, driverID.String())

		fare, err := s.finalFare(ctx, ride, tip)
		if err != nil {
			return err
		}

		credited, err = s.Ledger.Credit(ctx, driverID, ride.ID, fare.TotalAmount)
		if err != nil {
			return fmt.Errorf("credit ledger: %w", err)
		}
		if err := s.Drivers.AddCompletedRide(ctx, driverID, ride.ID); err != nil {
			return fmt.Errorf("driver completed rides: %w", err)
		}
		if err := s.Riders.AddCompletedRide(ctx, ride.RiderID, ride.ID); err != nil {
			if !errors.Is(err, types.ErrRiderNotFound) {
				return fmt.Errorf("rider completed rides: %w", err)
			}
			s.logger.Warn(ctx, "rider of finished ride not found", "rider_id", ride.RiderID)
		}

		now := time.Now().UTC()
		ride.Fare = fare
		ride.Status = types.RideFinished
		ride.FinishedAt = &now
		ride.UpdatedAt = now
		if err := s.Rides.UpdateIfStatus(ctx, ride, types.RideInProgress); err != nil {
			return err
		}

		if _, err := s.Receipts.IssueForRide(ctx, ride); err != nil {
			return fmt.Errorf("issue receipt: %w", err)
		}

		finished = ride
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.logger.Info(ctx, "ride finished", "total_fare", finished.Fare.TotalAmount, "tip", finished.Fare.TipAmount)
	if credited {
		s.Ledger.Credited(ctx, *finished.DriverID, finished.ID, finished.Fare.TotalAmount)
	}
	s.afterTransition(ctx, types.EventRideCompleted, finished)
	return finished, nil
}

// finalFare adds the tip to the fare quoted at confirmation. Rides without a
// quote are priced from the driver's current rates.
func (s *RideService) finalFare(ctx context.Context, ride *models.Ride, tip float64) (models.Fare, error) {
	if ride.Fare != (models.Fare{}) {
		return ridecalc.WithTip(ride.Fare, tip)
	}

	driver, err := s.Drivers.Get(ctx, *ride.DriverID)
	if err != nil {
		return models.Fare{}, err
	}
	return s.Fares.ComputeFare(ride.DistanceKm, driver.Pricing.BaseFee, driver.Pricing.PerKmRate, tip)
}

// UpdateGPS records a party's position. When auto-completion is enabled and
// both parties are within the arrival radius of the destination, the ride is
// finished through the same path as an explicit Finish.
func (s *RideService) UpdateGPS(ctx context.Context, rideID uuid.UUID, party types.Party, loc models.Location) (*models.Ride, bool, error) {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, rideID.String()), types.ActionLocationUpdated)

	v := validator.New()
	v.Check(party == types.PartyRider || party == types.PartyDriver, "party", "must be RIDER or DRIVER")
	v.Check(validator.ValidLatitude(loc.Latitude), "latitude", "must be between -90 and 90")
	v.Check(validator.ValidLongitude(loc.Longitude), "longitude", "must be between -180 and 180")
	if !v.Valid() {
		return nil, false, wrap.Error(ctx, types.NewValidationError(v.Errors))
	}

	current, err := s.Rides.Get(ctx, rideID)
	if err != nil {
		return nil, false, wrap.Error(ctx, err)
	}
	if current.Status.IsTerminal() {
		return nil, false, wrap.Error(ctx, fmt.Errorf("%w (%s)", types.ErrRideClosed, current.Status))
	}

	ride, err := s.Rides.SetPosition(ctx, rideID, party, loc)
	if err != nil {
		return nil, false, wrap.Error(ctx, err)
	}

	if !s.shouldAutoComplete(ride) {
		return ride, false, nil
	}

	ctx = wrap.WithAction(ctx, types.ActionRideAutoCompleted)
	finished, err := s.Finish(ctx, rideID, 0)
	if err != nil {
		if !isStateError(err) {
			return nil, false, err
		}
		// another request closed the ride first
		latest, getErr := s.Rides.Get(ctx, rideID)
		if getErr != nil {
			return nil, false, wrap.Error(ctx, getErr)
		}
		return latest, false, nil
	}

	s.logger.Info(ctx, "ride auto-completed at destination")
	return finished, true, nil
}

func (s *RideService) shouldAutoComplete(ride *models.Ride) bool {
	if !s.policy.AutoComplete || ride.Status != types.RideInProgress {
		return false
	}
	if ride.RiderPosition == nil || ride.DriverPosition == nil {
		return false
	}
	radius := s.policy.ArrivalRadiusMeters
	return s.Geo.DistanceMeters(*ride.RiderPosition, ride.End) <= radius &&
		s.Geo.DistanceMeters(*ride.DriverPosition, ride.End) <= radius
}
