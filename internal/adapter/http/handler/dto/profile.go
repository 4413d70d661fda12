package dto

import (
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/service/profile"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
)

type RegisterRiderRequest struct {
	Name  string `json:"name" example:"Aigerim"`
	Email string `json:"email" example:"aigerim@example.com"`
	Phone string `json:"phone,omitempty"`
}

func (r *RegisterRiderRequest) ToContact() profile.Contact {
	return profile.Contact{Name: r.Name, Email: r.Email, Phone: r.Phone}
}

type RegisterDriverRequest struct {
	Name      string   `json:"name" example:"Nurlan"`
	Email     string   `json:"email" example:"nurlan@example.com"`
	Phone     string   `json:"phone,omitempty"`
	Vehicle   string   `json:"vehicle,omitempty" example:"Toyota Camry"`
	BaseFee   *float64 `json:"base_fee,omitempty" example:"2"`
	PerKmRate *float64 `json:"per_km_rate,omitempty" example:"1.5"`
}

// Validate only checks that rates come in pairs; their values are checked by the profile service.
func (r *RegisterDriverRequest) Validate(v *validator.Validator) {
	v.Check((r.BaseFee == nil) == (r.PerKmRate == nil), "pricing", "base_fee and per_km_rate must be provided together")
}

func (r *RegisterDriverRequest) ToContact() profile.Contact {
	return profile.Contact{Name: r.Name, Email: r.Email, Phone: r.Phone, Vehicle: r.Vehicle}
}

// Pricing returns nil when the driver takes the default rates.
func (r *RegisterDriverRequest) Pricing() *models.Pricing {
	if r.BaseFee == nil || r.PerKmRate == nil {
		return nil
	}
	return &models.Pricing{BaseFee: *r.BaseFee, PerKmRate: *r.PerKmRate}
}

type UpdateFareRequest struct {
	BaseFee   *float64 `json:"base_fee" example:"2.5"`
	PerKmRate *float64 `json:"per_km_rate" example:"1.2"`
}

func (r *UpdateFareRequest) Validate(v *validator.Validator) {
	v.Check(r.BaseFee != nil, "base_fee", "must be provided")
	v.Check(r.PerKmRate != nil, "per_km_rate", "must be provided")
}

func (r *UpdateFareRequest) ToModel() models.Pricing {
	return models.Pricing{BaseFee: *r.BaseFee, PerKmRate: *r.PerKmRate}
}

type SetOnlineRequest struct {
	Online *bool `json:"is_online" example:"true"`
}

func (r *SetOnlineRequest) Validate(v *validator.Validator) {
	v.Check(r.Online != nil, "is_online", "must be provided")
}

type SetApprovalRequest struct {
	Approved *bool `json:"approved" example:"true"`
}

func (r *SetApprovalRequest) Validate(v *validator.Validator) {
	v.Check(r.Approved != nil, "approved", "must be provided")
}
