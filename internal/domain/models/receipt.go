package models

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is an immutable snapshot of a finished ride.
type Receipt struct {
	ID              uuid.UUID `json:"id"`
	ReceiptNumber   string    `json:"receipt_number"`
	RideID          uuid.UUID `json:"ride_id"`
	RiderID         uuid.UUID `json:"rider_id"`
	DriverID        uuid.UUID `json:"driver_id"`
	Fare            Fare      `json:"fare"`
	DistanceKm      float64   `json:"distance_km"`
	DurationMinutes float64   `json:"duration_minutes"`
	Pickup          string    `json:"pickup"`
	Dropoff         string    `json:"dropoff"`
	PaymentMethod   string    `json:"payment_method"`
	Currency        string    `json:"currency"`
	IssuedAt        time.Time `json:"issued_at"`
}

// ReceiptFallback carries caller-supplied values used where the ride record is
// incomplete. RiderID and DriverID only count when no ride record exists.
type ReceiptFallback struct {
	RiderID         uuid.UUID
	DriverID        uuid.UUID
	PaymentMethod   string
	Pickup          string
	Dropoff         string
	DistanceKm      *float64
	DurationMinutes *float64
	BaseFare        *float64
	DistanceFare    *float64
	TipAmount       *float64
}
