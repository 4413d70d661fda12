package dto

import (
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	"github.com/google/uuid"
)

// GenerateReceiptRequest names the ride; every other field is used only
// where the ride record has no value of its own. The party ids are read only
// for rides the store has no record of.
type GenerateReceiptRequest struct {
	RideID          uuid.UUID `json:"ride_id"`
	RiderID         uuid.UUID `json:"rider_id,omitzero"`
	DriverID        uuid.UUID `json:"driver_id,omitzero"`
	PaymentMethod   string    `json:"payment_method,omitempty" example:"Cash"`
	Pickup          string    `json:"pickup,omitempty"`
	Dropoff         string    `json:"dropoff,omitempty"`
	DistanceKm      *float64  `json:"distance_km,omitempty"`
	DurationMinutes *float64  `json:"duration_minutes,omitempty"`
	BaseFare        *float64  `json:"base_fare,omitempty"`
	DistanceFare    *float64  `json:"distance_fare,omitempty"`
	TipAmount       *float64  `json:"tip_amount,omitempty"`
}

func (r *GenerateReceiptRequest) Validate(v *validator.Validator) {
	v.Check(len(r.PaymentMethod) <= 50, "payment_method", "must not be more than 50 bytes long")
	for key, p := range map[string]*float64{
		"distance_km":      r.DistanceKm,
		"duration_minutes": r.DurationMinutes,
		"base_fare":        r.BaseFare,
		"distance_fare":    r.DistanceFare,
		"tip_amount":       r.TipAmount,
	} {
		if p != nil {
			v.Check(validator.Finite(*p) && *p >= 0, key, "must be a non-negative number")
		}
	}
}

func (r *GenerateReceiptRequest) Fallback() models.ReceiptFallback {
	return models.ReceiptFallback{
		RiderID:         r.RiderID,
		DriverID:        r.DriverID,
		PaymentMethod:   r.PaymentMethod,
		Pickup:          r.Pickup,
		Dropoff:         r.Dropoff,
		DistanceKm:      r.DistanceKm,
		DurationMinutes: r.DurationMinutes,
		BaseFare:        r.BaseFare,
		DistanceFare:    r.DistanceFare,
		TipAmount:       r.TipAmount,
	}
}
