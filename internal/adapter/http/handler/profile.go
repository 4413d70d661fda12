package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/service/profile"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	"github.com/google/uuid"
)

type ProfileService interface {
	RegisterRider(ctx context.Context, id uuid.UUID, c profile.Contact) (*models.Rider, error)
	RegisterDriver(ctx context.Context, id uuid.UUID, c profile.Contact, pricing *models.Pricing) (*models.Driver, error)
	GetRider(ctx context.Context, id uuid.UUID) (*models.Rider, error)
	GetDriver(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	UpdateFare(ctx context.Context, driverID uuid.UUID, p models.Pricing) (*models.Driver, error)
	SetOnline(ctx context.Context, driverID uuid.UUID, online bool) (*models.Driver, error)
	ListOnlineDrivers(ctx context.Context) ([]*models.Driver, error)
	ListDrivers(ctx context.Context) ([]*models.Driver, error)
	SetApproval(ctx context.Context, driverID uuid.UUID, approved bool) (*models.Driver, error)
}

// Profile serves rider and driver profiles. The profile id is always the
// id of the token that created it.
type Profile struct {
	service ProfileService
	l       logger.Logger
}

func NewProfile(service ProfileService, l logger.Logger) *Profile {
	return &Profile{
		service: service,
		l:       l,
	}
}

// RegisterRider godoc
// @Summary      Create the caller's rider profile
// @Tags         riders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.RegisterRiderRequest  true  "Profile"
// @Success      201      {object}  models.Rider
// @Failure      409      {object}  map[string]string
// @Failure      422      {object}  map[string]interface{}
// @Router       /riders [post]
func (h *Profile) RegisterRider(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register_rider")
	user := models.UserFromContext(ctx)

	var req dto.RegisterRiderRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err.Error())
		badRequestResponse(w, err.Error())
		return
	}

	rider, err := h.service.RegisterRider(ctx, user.ID, req.ToContact())
	if err != nil {
		serviceError(ctx, w, h.l, "failed to register rider", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"rider": rider})
}

// GetRider godoc
// @Summary      Get a rider profile
// @Tags         riders
// @Produce      json
// @Security     BearerAuth
// @Param        rider_id  path      string  true  "Rider ID"
// @Success      200       {object}  models.Rider
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /riders/{rider_id} [get]
func (h *Profile) GetRider(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_rider")

	riderID, ok := ownedPathID(w, r, "rider_id")
	if !ok {
		return
	}

	rider, err := h.service.GetRider(ctx, riderID)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to get rider", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"rider": rider})
}

// RegisterDriver godoc
// @Summary      Create the caller's driver profile
// @Description  Rates default to the configured fare when omitted.
// @Tags         drivers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.RegisterDriverRequest  true  "Profile"
// @Success      201      {object}  models.Driver
// @Failure      409      {object}  map[string]string
// @Failure      422      {object}  map[string]interface{}
// @Router       /drivers [post]
func (h *Profile) RegisterDriver(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register_driver")
	user := models.UserFromContext(ctx)

	var req dto.RegisterDriverRequest
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

	driver, err := h.service.RegisterDriver(ctx, user.ID, req.ToContact(), req.Pricing())
	if err != nil {
		serviceError(ctx, w, h.l, "failed to register driver", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"driver": driver})
}

// GetDriver godoc
// @Summary      Get a driver profile
// @Tags         drivers
// @Produce      json
// @Security     BearerAuth
// @Param        driver_id  path      string  true  "Driver ID"
// @Success      200        {object}  models.Driver
// @Failure      404        {object}  map[string]string
// @Router       /drivers/{driver_id} [get]
func (h *Profile) GetDriver(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_driver")

	driverID, err := pathID(r, "driver_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	driver, err := h.service.GetDriver(ctx, driverID)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to get driver", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"driver": driver})
}

// ListOnlineDrivers godoc
// @Summary      Drivers currently online
// @Tags         drivers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Driver
// @Router       /drivers/online [get]
func (h *Profile) ListOnlineDrivers(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_online_drivers")

	drivers, err := h.service.ListOnlineDrivers(ctx)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to list online drivers", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"drivers": drivers})
}

// UpdateFare godoc
// @Summary      Set the driver's rates
// @Description  Applies to rides confirmed afterwards; quotes already fixed on rides do not change.
// @Tags         drivers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        driver_id  path      string                 true  "Driver ID"
// @Param        request    body      dto.UpdateFareRequest  true  "Rates"
// @Success      200        {object}  models.Driver
// @Failure      403        {object}  map[string]string
// @Failure      422        {object}  map[string]interface{}
// @Router       /drivers/{driver_id}/fare [put]
func (h *Profile) UpdateFare(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_fare")

	driverID, ok := selfPathID(w, r, "driver_id")
	if !ok {
		return
	}

	var req dto.UpdateFareRequest
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

	driver, err := h.service.UpdateFare(ctx, driverID, req.ToModel())
	if err != nil {
		serviceError(ctx, w, h.l, "failed to update fare", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"driver": driver})
}

// SetOnline godoc
// @Summary      Go online or offline
// @Tags         drivers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        driver_id  path      string                true  "Driver ID"
// @Param        request    body      dto.SetOnlineRequest  true  "Availability"
// @Success      200        {object}  models.Driver
// @Failure      403        {object}  map[string]string
// @Router       /drivers/{driver_id}/online [put]
func (h *Profile) SetOnline(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "set_online")

	driverID, ok := selfPathID(w, r, "driver_id")
	if !ok {
		return
	}

	var req dto.SetOnlineRequest
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

	driver, err := h.service.SetOnline(ctx, driverID, *req.Online)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to set availability", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"driver": driver})
}

// ListDrivers godoc
// @Summary      List every driver with the approval status
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Driver
// @Failure      403  {object}  map[string]string
// @Router       /admin/drivers [get]
func (h *Profile) ListDrivers(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_drivers")

	drivers, err := h.service.ListDrivers(ctx)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to list drivers", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"drivers": drivers})
}

// SetApproval godoc
// @Summary      Approve or revoke a driver application
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        driver_id  path      string                  true  "Driver ID"
// @Param        request    body      dto.SetApprovalRequest  true  "Decision"
// @Success      200        {object}  models.Driver
// @Failure      404        {object}  map[string]string
// @Router       /admin/drivers/{driver_id}/approval [put]
func (h *Profile) SetApproval(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "set_approval")

	driverID, err := pathID(r, "driver_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.SetApprovalRequest
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

	driver, err := h.service.SetApproval(ctx, driverID, *req.Approved)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to set driver approval", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"driver": driver})
}
