package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	"github.com/google/uuid"
)

type ReceiptService interface {
	Generate(ctx context.Context, rideID uuid.UUID, fallback models.ReceiptFallback) (*models.Receipt, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	GetByRide(ctx context.Context, rideID uuid.UUID) (*models.Receipt, error)
	ListByRider(ctx context.Context, riderID uuid.UUID) ([]*models.Receipt, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*models.Receipt, error)
}

type RideGetter interface {
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
}

type Receipt struct {
	service ReceiptService
	rides   RideGetter
	l       logger.Logger
}

func NewReceipt(service ReceiptService, rides RideGetter, l logger.Logger) *Receipt {
	return &Receipt{
		service: service,
		rides:   rides,
		l:       l,
	}
}

// GenerateReceipt godoc
// @Summary      Issue the receipt of a finished ride
// @Description  Idempotent: a ride has one receipt and repeated calls return it unchanged.
// @Description  A ride without a record is receipted from the body; rider_id defaults to a calling rider.
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.GenerateReceiptRequest  true  "Ride and fallback values"
// @Success      200      {object}  models.Receipt
// @Failure      403      {object}  map[string]string
// @Failure      409      {object}  map[string]string  "Ride is not finished"
// @Failure      422      {object}  map[string]interface{}
// @Router       /receipts [post]
func (h *Receipt) GenerateReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "generate_receipt")

	var req dto.GenerateReceiptRequest
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

	user := models.UserFromContext(ctx)
	fallback := req.Fallback()
	if req.RideID != uuid.Nil {
		ride, err := h.rides.Get(ctx, req.RideID)
		switch {
		case err == nil:
			if !user.IsAdmin() && ride.PartyOf(user.ID) == types.PartyNone {
				forbiddenResponse(w)
				return
			}
		case errors.Is(err, types.ErrRideNotFound):
			fallback = withCaller(user, fallback)
			if !user.IsAdmin() && fallback.RiderID != user.ID && fallback.DriverID != user.ID {
				forbiddenResponse(w)
				return
			}
		default:
			serviceError(ctx, w, h.l, "failed to get ride", err)
			return
		}
	}

	receipt, err := h.service.Generate(ctx, req.RideID, fallback)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to generate receipt", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"receipt": receipt})
}

// withCaller fills the caller's own party id into a receipt for a ride without a record.
func withCaller(user *models.User, fb models.ReceiptFallback) models.ReceiptFallback {
	switch user.Role {
	case types.RoleRider:
		if fb.RiderID == uuid.Nil {
			fb.RiderID = user.ID
		}
	case types.RoleDriver:
		if fb.DriverID == uuid.Nil {
			fb.DriverID = user.ID
		}
	}
	return fb
}

// GetReceipt godoc
// @Summary      Get a receipt
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        receipt_id  path      string  true  "Receipt ID"
// @Success      200         {object}  models.Receipt
// @Failure      404         {object}  map[string]string
// @Router       /receipts/{receipt_id} [get]
func (h *Receipt) GetReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_receipt")

	id, err := pathID(r, "receipt_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	h.one(ctx, w, func() (*models.Receipt, error) { return h.service.Get(ctx, id) })
}

// GetRideReceipt godoc
// @Summary      Receipt of a ride
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "Ride ID"
// @Success      200      {object}  models.Receipt
// @Failure      404      {object}  map[string]string
// @Router       /receipts/rides/{ride_id} [get]
func (h *Receipt) GetRideReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_ride_receipt")

	rideID, err := pathID(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	h.one(ctx, w, func() (*models.Receipt, error) { return h.service.GetByRide(ctx, rideID) })
}

// ListRiderReceipts godoc
// @Summary      Receipts of a rider
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        rider_id  path      string  true  "Rider ID"
// @Success      200       {array}   models.Receipt
// @Failure      403       {object}  map[string]string
// @Router       /receipts/riders/{rider_id} [get]
func (h *Receipt) ListRiderReceipts(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_rider_receipts")

	riderID, ok := ownedPathID(w, r, "rider_id")
	if !ok {
		return
	}

	h.many(ctx, w, func() ([]*models.Receipt, error) { return h.service.ListByRider(ctx, riderID) })
}

// ListDriverReceipts godoc
// @Summary      Receipts of a driver
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        driver_id  path      string  true  "Driver ID"
// @Success      200        {array}   models.Receipt
// @Failure      403        {object}  map[string]string
// @Router       /receipts/drivers/{driver_id} [get]
func (h *Receipt) ListDriverReceipts(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_driver_receipts")

	driverID, ok := ownedPathID(w, r, "driver_id")
	if !ok {
		return
	}

	h.many(ctx, w, func() ([]*models.Receipt, error) { return h.service.ListByDriver(ctx, driverID) })
}

func (h *Receipt) one(ctx context.Context, w http.ResponseWriter, get func() (*models.Receipt, error)) {
	receipt, err := get()
	if err != nil {
		serviceError(ctx, w, h.l, "failed to get receipt", err)
		return
	}
	respond(ctx, w, h.l, http.StatusOK, envelope{"receipt": receipt})
}

func (h *Receipt) many(ctx context.Context, w http.ResponseWriter, list func() ([]*models.Receipt, error)) {
	receipts, err := list()
	if err != nil {
		serviceError(ctx, w, h.l, "failed to list receipts", err)
		return
	}
	respond(ctx, w, h.l, http.StatusOK, envelope{"receipts": receipts})
}
