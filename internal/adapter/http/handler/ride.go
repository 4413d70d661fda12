package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/internal/service/ride"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	"github.com/google/uuid"
)

type RideService interface {
	Create(ctx context.Context, in ride.CreateInput) (*models.Ride, error)
	ConfirmDriver(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
	Start(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
	Finish(ctx context.Context, rideID uuid.UUID, tip float64) (*models.Ride, error)
	Cancel(ctx context.Context, rideID uuid.UUID, actor types.Party) (*models.Ride, error)
	UpdateGPS(ctx context.Context, rideID uuid.UUID, party types.Party, loc models.Location) (*models.Ride, bool, error)

	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
	ListWithoutDriver(ctx context.Context) ([]*models.Ride, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*models.Ride, error)
	RecentRide(ctx context.Context, riderID uuid.UUID) (*models.Ride, error)
}

type Ride struct {
	service RideService
	l       logger.Logger
}

func NewRide(service RideService, l logger.Logger) *Ride {
	return &Ride{
		service: service,
		l:       l,
	}
}

// CreateRide godoc
// @Summary      Propose a ride
// @Tags         rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.CreateRideRequest  true  "Ride proposal"
// @Success      201      {object}  models.Ride
// @Failure      400      {object}  map[string]string
// @Failure      422      {object}  map[string]interface{}
// @Router       /rides [post]
func (h *Ride) CreateRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_ride")
	user := models.UserFromContext(ctx)

	var req dto.CreateRideRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err.Error())
		badRequestResponse(w, err.Error())
		return
	}

	created, err := h.service.Create(ctx, req.ToInput(user.ID))
	if err != nil {
		serviceError(ctx, w, h.l, "failed to create ride", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"ride": created})
}

// GetRide godoc
// @Summary      Get a ride
// @Description  Available to the rider and driver of the ride and to admins.
// @Tags         rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "Ride ID"
// @Success      200      {object}  models.Ride
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /rides/{ride_id} [get]
func (h *Ride) GetRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_ride")

	found, _, ok := h.participant(ctx, w, r, true)
	if !ok {
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"ride": found})
}

// ListWithoutDriver godoc
// @Summary      Rides waiting for a driver
// @Tags         rides
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Ride
// @Router       /rides/without-driver [get]
func (h *Ride) ListWithoutDriver(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_rides_without_driver")

	rides, err := h.service.ListWithoutDriver(ctx)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to list rides", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"rides": rides})
}

// ConfirmRide godoc
// @Summary      Accept a proposed ride
// @Description  The calling driver takes the ride. Exactly one of several concurrent drivers wins; the others get 409.
// @Tags         rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "Ride ID"
// @Success      200      {object}  models.Ride
// @Failure      404      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /rides/{ride_id}/confirm [post]
func (h *Ride) ConfirmRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "confirm_ride")
	user := models.UserFromContext(ctx)

	rideID, err := pathID(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	confirmed, err := h.service.ConfirmDriver(ctx, rideID, user.ID)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to confirm ride", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"ride": confirmed})
}

// StartRide godoc
// @Summary      Start a ride
// @Tags         rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "Ride ID"
// @Success      200      {object}  models.Ride
// @Failure      403      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /rides/{ride_id}/start [post]
func (h *Ride) StartRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "start_ride")

	found, party, ok := h.participant(ctx, w, r, false)
	if !ok {
		return
	}
	if party != types.PartyDriver {
		forbiddenResponse(w)
		return
	}

	started, err := h.service.Start(ctx, found.ID)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to start ride", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"ride": started})
}

// FinishRide godoc
// @Summary      Finish a ride
// @Description  Fixes the final fare, credits the driver and issues the receipt.
// @Tags         rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string                  true   "Ride ID"
// @Param        request  body      dto.FinishRideRequest  false  "Optional tip"
// @Success      200      {object}  models.Ride
// @Failure      403      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /rides/{ride_id}/finish [post]
func (h *Ride) FinishRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "finish_ride")

	var req dto.FinishRideRequest
	if err := readOptionalJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err.Error())
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	found, party, ok := h.participant(ctx, w, r, false)
	if !ok {
		return
	}
	if party != types.PartyDriver {
		forbiddenResponse(w)
		return
	}

	finished, err := h.service.Finish(ctx, found.ID, req.TipAmount())
	if err != nil {
		serviceError(ctx, w, h.l, "failed to finish ride", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"ride": finished})
}

// CancelRide godoc
// @Summary      Cancel a ride
// @Description  The cancelling party is taken from the caller's side of the ride.
// @Tags         rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "Ride ID"
// @Success      200      {object}  models.Ride
// @Failure      403      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /rides/{ride_id}/cancel [post]
func (h *Ride) CancelRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "cancel_ride")

	found, party, ok := h.participant(ctx, w, r, false)
	if !ok {
		return
	}

	cancelled, err := h.service.Cancel(ctx, found.ID, party)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to cancel ride", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"ride": cancelled})
}

// UpdateLocation godoc
// @Summary      Push a position
// @Description  Records the caller's position. The ride finishes on its own once both parties reach the destination.
// @Tags         rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string                     true  "Ride ID"
// @Param        request  body      dto.LocationUpdateRequest  true  "Position"
// @Success      200      {object}  map[string]interface{}
// @Failure      403      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /rides/{ride_id}/location [post]
func (h *Ride) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_location")

	var req dto.LocationUpdateRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err.Error())
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	found, party, ok := h.participant(ctx, w, r, false)
	if !ok {
		return
	}

	updated, completed, err := h.service.UpdateGPS(ctx, found.ID, party, req.ToModel())
	if err != nil {
		serviceError(ctx, w, h.l, "failed to update location", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{
		"ride":               updated,
		"completed":          completed,
		"location_frequency": models.SettingsFromContext(ctx).LocationFrequency,
	})
}

// ListDriverRides godoc
// @Summary      Rides of a driver
// @Tags         drivers
// @Produce      json
// @Security     BearerAuth
// @Param        driver_id  path      string  true  "Driver ID"
// @Success      200        {array}   models.Ride
// @Failure      403        {object}  map[string]string
// @Router       /drivers/{driver_id}/rides [get]
func (h *Ride) ListDriverRides(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_driver_rides")

	driverID, ok := ownedPathID(w, r, "driver_id")
	if !ok {
		return
	}

	rides, err := h.service.ListByDriver(ctx, driverID)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to list driver rides", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"rides": rides})
}

// RecentRide godoc
// @Summary      Latest ride of a rider
// @Tags         riders
// @Produce      json
// @Security     BearerAuth
// @Param        rider_id  path      string  true  "Rider ID"
// @Success      200       {object}  models.Ride
// @Failure      404       {object}  map[string]string
// @Router       /riders/{rider_id}/recent-ride [get]
func (h *Ride) RecentRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "recent_ride")

	riderID, ok := ownedPathID(w, r, "rider_id")
	if !ok {
		return
	}

	recent, err := h.service.RecentRide(ctx, riderID)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to get recent ride", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"ride": recent})
}

// participant loads the ride named in the path and resolves the caller's
// side of it. Admins pass only when allowAdmin is set, with PartyNone.
func (h *Ride) participant(ctx context.Context, w http.ResponseWriter, r *http.Request, allowAdmin bool) (*models.Ride, types.Party, bool) {
	rideID, err := pathID(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return nil, "", false
	}

	found, err := h.service.Get(ctx, rideID)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to get ride", err)
		return nil, "", false
	}

	user := models.UserFromContext(ctx)
	party := found.PartyOf(user.ID)
	if party == types.PartyNone && !(allowAdmin && user.IsAdmin()) {
		forbiddenResponse(w)
		return nil, "", false
	}
	return found, party, true
}
