package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/service/settings"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
)

type SettingsService interface {
	Get(ctx context.Context) (models.Settings, error)
	Update(ctx context.Context, upd settings.Update) (models.Settings, error)
}

// Admin serves the runtime settings. Payout administration lives on Ledger.
type Admin struct {
	settings SettingsService
	l        logger.Logger
}

func NewAdmin(settings SettingsService, l logger.Logger) *Admin {
	return &Admin{
		settings: settings,
		l:        l,
	}
}

// GetSettings godoc
// @Summary      Runtime settings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Settings
// @Router       /admin/settings [get]
func (h *Admin) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_settings")

	st, err := h.settings.Get(ctx)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to get settings", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"settings": st})
}

// UpdateSettings godoc
// @Summary      Change runtime settings
// @Description  Maintenance mode answers 503 on every non-admin route until switched off.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.UpdateSettingsRequest  true  "Settings to change"
// @Success      200      {object}  models.Settings
// @Failure      422      {object}  map[string]interface{}
// @Router       /admin/settings [put]
func (h *Admin) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_settings")

	var req dto.UpdateSettingsRequest
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

	st, err := h.settings.Update(ctx, req.ToUpdate())
	if err != nil {
		serviceError(ctx, w, h.l, "failed to update settings", err)
		return
	}

	h.l.Info(ctx, "settings updated", "maintenance_mode", st.MaintenanceMode, "location_frequency", st.LocationFrequency)
	respond(ctx, w, h.l, http.StatusOK, envelope{"settings": st})
}
