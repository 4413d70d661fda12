package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	ridecalc "github.com/Temutjin2k/fleet-ledger/internal/service/calculator"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/metrics"
	"github.com/Temutjin2k/fleet-ledger/pkg/trm"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	"github.com/google/uuid"
)

// Policy configures GPS based auto-completion.
type Policy struct {
	AutoComplete        bool
	ArrivalRadiusMeters float64
	// RequireApproval keeps drivers off rides until an admin approves them.
	RequireApproval bool
}

type Deps struct {
	Rides     RideRepo
	Drivers   DriverRepo
	Riders    RiderRepo
	Fares     FareCalculator
	Geo       Geolocator
	Ledger    LedgerCrediter
	Receipts  ReceiptIssuer
	Addresses AddressResolver // optional
	Publisher EventPublisher  // optional
	Notifier  Notifier        // optional
	Trm       trm.TxManager
}

// RideService is the ride state machine:
// PROPOSED -> DRIVER_SELECTED -> IN_PROGRESS -> FINISHED, and CANCELLED from any open state.
type RideService struct {
	Deps
	policy Policy
	logger logger.Logger
}

func NewRideService(deps Deps, policy Policy, logger logger.Logger) *RideService {
	return &RideService{
		Deps:   deps,
		policy: policy,
		logger: logger,
	}
}

type CreateInput struct {
	RiderID  uuid.UUID
	Start    *models.Location
	End      *models.Location
	Distance string
}

func (in CreateInput) validate() (float64, error) {
	v := validator.New()
	v.Check(in.RiderID != uuid.Nil, "rider_id", "must be provided")
	v.Check(in.Start != nil, "start_location", "must be provided")
	v.Check(in.End != nil, "end_location", "must be provided")
	for key, loc := range map[string]*models.Location{"start_location": in.Start, "end_location": in.End} {
		if loc != nil {
			v.Check(validator.ValidLatitude(loc.Latitude), key, "latitude must be between -90 and 90")
			v.Check(validator.ValidLongitude(loc.Longitude), key, "longitude must be between -180 and 180")
		}
	}

	distance, err := ridecalc.ParseDistance(in.Distance)
	if err != nil {
		v.AddError("distance", "must be a non-negative number")
	}

	if !v.Valid() {
		return 0, types.NewValidationError(v.Errors)
	}
	return distance, nil
}

// Create proposes a new ride for a rider.
func (s *RideService) Create(ctx context.Context, in CreateInput) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, types.ActionRideCreated)

	distance, err := in.validate()
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if _, err := s.Riders.Get(ctx, in.RiderID); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	now := time.Now().UTC()
	ride := &models.Ride{
		ID:                uuid.New(),
		RiderID:           in.RiderID,
		Start:             *in.Start,
		End:               *in.End,
		DistanceKm:        distance,
		Status:            types.RideProposed,
		CancellationActor: types.PartyNone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.resolveAddresses(ctx, ride)

	ctx = wrap.WithRideID(ctx, ride.ID.String())
	if err := s.Rides.Create(ctx, ride); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not create ride: %w", err))
	}

	s.logger.Info(ctx, "ride proposed", "rider_id", ride.RiderID, "distance_km", ride.DistanceKm)
	s.afterTransition(ctx, types.EventRideRequested, ride)
	return ride, nil
}

// resolveAddresses fills missing addresses; receipts use them as pickup/dropoff descriptors.
func (s *RideService) resolveAddresses(ctx context.Context, ride *models.Ride) {
	if s.Addresses == nil {
		return
	}
	for _, loc := range []*models.Location{&ride.Start, &ride.End} {
		if loc.Address != "" {
			continue
		}
		addr, err := s.Addresses.ReverseGeocode(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			s.logger.Warn(wrap.WithAction(ctx, types.ActionExternalServiceFailed), "reverse geocoding failed", "error", err.Error())
			continue
		}
		loc.Address = addr
	}
}

// ConfirmDriver assigns a driver to a proposed ride and fixes the quoted fare.
// Concurrent confirmations race on a conditional write; exactly one wins.
func (s *RideService) ConfirmDriver(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, rideID.String()), types.ActionDriverConfirmed)
	ctx = wrap.WithDriverID(ctx, driverID.String())

	ride, err := s.Rides.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	driver, err := s.Drivers.Get(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if s.policy.RequireApproval && !driver.Approved {
		return nil, wrap.Error(ctx, types.ErrDriverNotApproved)
	}

	if ride.DriverID != nil {
		return nil, wrap.Error(ctx, types.ErrRideAlreadyAssigned)
	}
	if ride.Status != types.RideProposed {
		return nil, wrap.Error(ctx, types.InvalidTransition(ride.Status, types.RideDriverSelected))
	}

	quote, err := s.Fares.ComputeFare(ride.DistanceKm, driver.Pricing.BaseFee, driver.Pricing.PerKmRate, 0)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("driver pricing: %w", err))
	}

	now := time.Now().UTC()
	ride.DriverID = &driver.ID
	ride.Status = types.RideDriverSelected
	ride.Fare = quote
	ride.MatchedAt = &now
	ride.UpdatedAt = now

	if err := s.Rides.UpdateIfStatus(ctx, ride, types.RideProposed); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.logger.Info(ctx, "driver confirmed", "quoted_fare", quote.TotalAmount)
	s.afterTransition(ctx, types.EventDriverMatched, ride)
	return ride, nil
}

// Start moves a ride with a confirmed driver into progress.
func (s *RideService) Start(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, rideID.String()), types.ActionRideStarted)

	ride, err := s.Rides.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if ride.Status != types.RideDriverSelected {
		return nil, wrap.Error(ctx, types.InvalidTransition(ride.Status, types.RideInProgress))
	}

	now := time.Now().UTC()
	ride.Status = types.RideInProgress
	ride.StartedAt = &now
	ride.UpdatedAt = now

	if err := s.Rides.UpdateIfStatus(ctx, ride, types.RideDriverSelected); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.logger.Info(ctx, "ride started")
	s.afterTransition(ctx, types.EventRideStarted, ride)
	return ride, nil
}

// Cancel closes an open ride on behalf of the rider or the driver.
func (s *RideService) Cancel(ctx context.Context, rideID uuid.UUID, actor types.Party) (*models.Ride, error) {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, rideID.String()), types.ActionRideCancelled)

	if actor != types.PartyRider && actor != types.PartyDriver {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: cancellation actor must be RIDER or DRIVER", types.ErrValidation))
	}

	ride, err := s.Rides.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !ride.Status.CanTransitionTo(types.RideCancelled) {
		return nil, wrap.Error(ctx, types.InvalidTransition(ride.Status, types.RideCancelled))
	}

	prev := ride.Status
	now := time.Now().UTC()
	ride.Status = types.RideCancelled
	ride.CancellationActor = actor
	ride.CancelledAt = &now
	ride.UpdatedAt = now

	if err := s.Rides.UpdateIfStatus(ctx, ride, prev); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.logger.Info(ctx, "ride cancelled", "actor", actor, "previous_status", prev)
	s.afterTransition(ctx, types.EventRideCancelled, ride)
	return ride, nil
}

func (s *RideService) Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	ride, err := s.Rides.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(wrap.WithRideID(ctx, rideID.String()), err)
	}
	return ride, nil
}

// ListWithoutDriver returns proposed rides waiting for a driver, oldest first.
func (s *RideService) ListWithoutDriver(ctx context.Context) ([]*models.Ride, error) {
	rides, err := s.Rides.ListWithoutDriver(ctx)
	if err != nil {
		return nil, wrap.Error(wrap.WithAction(ctx, "list_rides_without_driver"), err)
	}
	return rides, nil
}

func (s *RideService) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*models.Ride, error) {
	ctx = wrap.WithDriverID(ctx, driverID.String())
	if _, err := s.Drivers.Get(ctx, driverID); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	rides, err := s.Rides.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return rides, nil
}

// RecentRide returns the rider's latest ride, NotFound when there is none.
func (s *RideService) RecentRide(ctx context.Context, riderID uuid.UUID) (*models.Ride, error) {
	ride, err := s.Rides.LatestByRider(ctx, riderID)
	if err != nil {
		return nil, wrap.Error(wrap.WithAction(ctx, "recent_ride"), err)
	}
	return ride, nil
}

// afterTransition fans a committed transition out to metrics, the broker and
// websocket subscribers. Delivery failures are logged, the transition stands.
func (s *RideService) afterTransition(ctx context.Context, event types.RideEvent, ride *models.Ride) {
	metrics.RecordRideTransition(ride.Status.String())

	update := models.NewRideStatusUpdate(event, ride, wrap.GetRequestID(ctx))
	if s.Publisher != nil {
		if err := s.Publisher.PublishRideStatus(ctx, update); err != nil {
			s.logger.Error(wrap.WithAction(ctx, types.ActionEventPublishFailed), "failed to publish ride status", err, "event", event)
		}
	}

	if s.Notifier != nil {
		recipients := []uuid.UUID{ride.RiderID}
		if ride.DriverID != nil {
			recipients = append(recipients, *ride.DriverID)
		}
		s.Notifier.NotifyUsers(ctx, recipients, models.StatusUpdateWebSocketMessage{EventType: event, Data: update})
	}
}

func isStateError(err error) bool {
	return errors.Is(err, types.ErrInvalidState)
}
