package dto

import (
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	"github.com/google/uuid"
)

const TypeLocation = "location"

// ClientMessage is a frame sent by a rider or driver app over the socket.
type ClientMessage struct {
	Type      string    `json:"type"`
	RideID    uuid.UUID `json:"ride_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

func (m *ClientMessage) Validate(v *validator.Validator) {
	v.Check(validator.PermittedValue(m.Type, TypeLocation), "type", "must be: location")
	v.Check(m.RideID != uuid.Nil, "ride_id", "must be provided")
	v.Check(validator.ValidLatitude(m.Latitude), "latitude", "must be between -90 and 90")
	v.Check(validator.ValidLongitude(m.Longitude), "longitude", "must be between -180 and 180")
}

// ServerMessage is any frame the server pushes besides ride status updates.
type ServerMessage struct {
	Type              string            `json:"type"`
	LocationFrequency int               `json:"location_frequency,omitempty"`
	RideID            *uuid.UUID        `json:"ride_id,omitempty"`
	Completed         bool              `json:"completed,omitempty"`
	Error             any               `json:"error,omitempty"`
	Fields            map[string]string `json:"fields,omitempty"`
}
