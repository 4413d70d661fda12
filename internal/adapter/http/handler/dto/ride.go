package dto

import (
	"strconv"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/service/ride"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	"github.com/google/uuid"
)

type CreateRideRequest struct {
	StartLocation *models.Location `json:"start_location"`
	EndLocation   *models.Location `json:"end_location"`

	// Distance in kilometres, as a number or a string such as "12.5 km".
	Distance any `json:"distance" swaggertype:"string" example:"12.5"`
}

// ToInput builds the ride proposal of the calling rider. Field checks are
// done by the ride service, which owns the distance format.
func (r *CreateRideRequest) ToInput(riderID uuid.UUID) ride.CreateInput {
	return ride.CreateInput{
		RiderID:  riderID,
		Start:    r.StartLocation,
		End:      r.EndLocation,
		Distance: distanceString(r.Distance),
	}
}

func distanceString(d any) string {
	switch v := d.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "invalid"
	}
}

type FinishRideRequest struct {
	Tip *float64 `json:"tip,omitempty" example:"3"`
}

func (r *FinishRideRequest) Validate(v *validator.Validator) {
	if r.Tip != nil {
		v.Check(validator.Finite(*r.Tip) && *r.Tip >= 0, "tip", "must be a non-negative number")
	}
}

func (r *FinishRideRequest) TipAmount() float64 {
	if r.Tip == nil {
		return 0
	}
	return *r.Tip
}

type LocationUpdateRequest struct {
	Latitude  *float64 `json:"latitude" example:"43.238949"`
	Longitude *float64 `json:"longitude" example:"76.889709"`
}

func (r *LocationUpdateRequest) Validate(v *validator.Validator) {
	v.Check(r.Latitude != nil, "latitude", "must be provided")
	v.Check(r.Longitude != nil, "longitude", "must be provided")
	if r.Latitude != nil {
		v.Check(validator.ValidLatitude(*r.Latitude), "latitude", "must be between -90 and 90")
	}
	if r.Longitude != nil {
		v.Check(validator.ValidLongitude(*r.Longitude), "longitude", "must be between -180 and 180")
	}
}

func (r *LocationUpdateRequest) ToModel() models.Location {
	return models.Location{Latitude: *r.Latitude, Longitude: *r.Longitude}
}
