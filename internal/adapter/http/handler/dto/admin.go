package dto

import (
	"github.com/Temutjin2k/fleet-ledger/internal/service/settings"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
)

type UpdateSettingsRequest struct {
	MaintenanceMode   *bool `json:"maintenance_mode,omitempty" example:"false"`
	LocationFrequency *int  `json:"location_frequency,omitempty" example:"5"`
}

func (r *UpdateSettingsRequest) Validate(v *validator.Validator) {
	v.Check(r.MaintenanceMode != nil || r.LocationFrequency != nil, "settings", "at least one setting must be provided")
}

func (r *UpdateSettingsRequest) ToUpdate() settings.Update {
	return settings.Update{MaintenanceMode: r.MaintenanceMode, LocationFrequency: r.LocationFrequency}
}
