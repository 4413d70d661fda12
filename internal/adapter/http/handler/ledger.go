package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	"github.com/google/uuid"
)

type LedgerService interface {
	Earnings(ctx context.Context, driverID uuid.UUID) (*models.Ledger, error)
	RequestPayout(ctx context.Context, driverID uuid.UUID, amount float64) (*models.Payout, error)
	FinalizePayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, models.Metadata, error)
}

type Ledger struct {
	service LedgerService
	l       logger.Logger
}

func NewLedger(service LedgerService, l logger.Logger) *Ledger {
	return &Ledger{
		service: service,
		l:       l,
	}
}

// GetEarnings godoc
// @Summary      Driver ledger snapshot
// @Description  Total earnings, available balance and the ordered transaction log.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        driver_id  path      string  true  "Driver ID"
// @Success      200        {object}  models.Ledger
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /drivers/{driver_id}/earnings [get]
func (h *Ledger) GetEarnings(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_earnings")

	driverID, ok := ownedPathID(w, r, "driver_id")
	if !ok {
		return
	}

	ledger, err := h.service.Earnings(ctx, driverID)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to get earnings", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"ledger": ledger})
}

// RequestPayout godoc
// @Summary      Request a payout
// @Description  Reserves the amount from the available balance until an admin marks the payout paid.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        driver_id  path      string             true  "Driver ID"
// @Param        request    body      dto.PayoutRequest  true  "Amount"
// @Success      201        {object}  models.Payout
// @Failure      403        {object}  map[string]string
// @Failure      422        {object}  map[string]interface{}  "Validation error or insufficient funds"
// @Router       /drivers/{driver_id}/payouts [post]
func (h *Ledger) RequestPayout(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "request_payout")

	driverID, ok := selfPathID(w, r, "driver_id")
	if !ok {
		return
	}

	var req dto.PayoutRequest
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

	payout, err := h.service.RequestPayout(ctx, driverID, *req.Amount)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to request payout", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"payout": payout})
}

// ListDriverPayouts godoc
// @Summary      Payouts of a driver
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        driver_id  path      string  true   "Driver ID"
// @Param        page       query     int     false  "Page"
// @Param        page_size  query     int     false  "Page size"
// @Success      200        {object}  map[string]interface{}
// @Failure      403        {object}  map[string]string
// @Router       /drivers/{driver_id}/payouts [get]
func (h *Ledger) ListDriverPayouts(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_driver_payouts")

	driverID, ok := ownedPathID(w, r, "driver_id")
	if !ok {
		return
	}

	filter, err := payoutFilter(r)
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	filter.DriverID = &driverID

	h.listPayouts(ctx, w, filter)
}

// ListPayouts godoc
// @Summary      All payouts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "AWAITING_PAYOUT or PAID"
// @Param        page       query     int     false  "Page"
// @Param        page_size  query     int     false  "Page size"
// @Success      200        {object}  map[string]interface{}
// @Failure      422        {object}  map[string]interface{}
// @Router       /admin/payouts [get]
func (h *Ledger) ListPayouts(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_payouts")

	filter, err := payoutFilter(r)
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	filter.Status = types.PayoutStatus(r.URL.Query().Get("status"))

	h.listPayouts(ctx, w, filter)
}

func (h *Ledger) listPayouts(ctx context.Context, w http.ResponseWriter, filter models.PayoutFilter) {
	payouts, metadata, err := h.service.ListPayouts(ctx, filter)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to list payouts", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"payouts": payouts, "metadata": metadata})
}

// FinalizePayout godoc
// @Summary      Mark a payout paid
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        payout_id  path      string  true  "Payout ID"
// @Success      200        {object}  models.Payout
// @Failure      404        {object}  map[string]string
// @Failure      409        {object}  map[string]string  "Already paid"
// @Router       /admin/payouts/{payout_id}/finalize [post]
func (h *Ledger) FinalizePayout(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "finalize_payout")

	payoutID, err := pathID(r, "payout_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	payout, err := h.service.FinalizePayout(ctx, payoutID)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to finalize payout", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"payout": payout})
}

func payoutFilter(r *http.Request) (models.PayoutFilter, error) {
	filters := models.DefaultFilters()

	var err error
	if filters.Page, err = queryInt(r, "page", filters.Page); err != nil {
		return models.PayoutFilter{}, err
	}
	if filters.PageSize, err = queryInt(r, "page_size", filters.PageSize); err != nil {
		return models.PayoutFilter{}, err
	}
	return models.PayoutFilter{Filters: filters}, nil
}
