package models

import (
	"math"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/google/uuid"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Fare is the breakdown of a ride price. It is quoted when a driver is
// confirmed and becomes final, tip included, when the ride finishes.
type Fare struct {
	BaseFare     float64 `json:"base_fare"`
	DistanceFare float64 `json:"distance_fare"`
	TipAmount    float64 `json:"tip_amount"`
	TotalAmount  float64 `json:"total_amount"`
}

// RoundMoney rounds an amount to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

type Ride struct {
	ID       uuid.UUID  `json:"id"`
	RiderID  uuid.UUID  `json:"rider_id"`
	DriverID *uuid.UUID `json:"driver_id,omitempty"`

	Start      Location `json:"start_location"`
	End        Location `json:"end_location"`
	DistanceKm float64  `json:"distance_km"`
	Fare       Fare     `json:"fare"`

	Status            types.RideStatus `json:"status"`
	CancellationActor types.Party      `json:"cancellation_actor"`

	// Last known positions, pushed by the parties while the ride is active.
	RiderPosition  *Location `json:"rider_position,omitempty"`
	DriverPosition *Location `json:"driver_position,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	MatchedAt   *time.Time `json:"matched_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// PartyOf reports which side of the ride the user is on.
func (r *Ride) PartyOf(userID uuid.UUID) types.Party {
	switch {
	case r.RiderID == userID:
		return types.PartyRider
	case r.DriverID != nil && *r.DriverID == userID:
		return types.PartyDriver
	default:
		return types.PartyNone
	}
}

// Duration is the time between start and finish, zero while the ride is open.
func (r *Ride) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// Clone returns a deep copy so stores never share pointers with callers.
func (r *Ride) Clone() *Ride {
	c := *r
	c.DriverID = clonePtr(r.DriverID)
	c.RiderPosition = clonePtr(r.RiderPosition)
	c.DriverPosition = clonePtr(r.DriverPosition)
	c.MatchedAt = clonePtr(r.MatchedAt)
	c.StartedAt = clonePtr(r.StartedAt)
	c.FinishedAt = clonePtr(r.FinishedAt)
	c.CancelledAt = clonePtr(r.CancelledAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// RideStatusUpdate is published to the broker and pushed over websocket on every transition.
type RideStatusUpdate struct {
	Event             types.RideEvent  `json:"event"`
	RideID            uuid.UUID        `json:"ride_id"`
	RiderID           uuid.UUID        `json:"rider_id"`
	DriverID          *uuid.UUID       `json:"driver_id,omitempty"`
	Status            types.RideStatus `json:"status"`
	CancellationActor types.Party      `json:"cancellation_actor,omitempty"`
	TotalFare         float64          `json:"total_fare,omitempty"`
	Timestamp         time.Time        `json:"timestamp"`
	CorrelationID     string           `json:"correlation_id,omitempty"`
}

func NewRideStatusUpdate(event types.RideEvent, ride *Ride, correlationID string) RideStatusUpdate {
	u := RideStatusUpdate{
		Event:         event,
		RideID:        ride.ID,
		RiderID:       ride.RiderID,
		DriverID:      ride.DriverID,
		Status:        ride.Status,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
	if ride.Status == types.RideCancelled {
		u.CancellationActor = ride.CancellationActor
	}
	if ride.Status == types.RideFinished {
		u.TotalFare = ride.Fare.TotalAmount
	}
	return u
}

// LocationUpdateMessage is a position pushed through the broker instead of HTTP.
type LocationUpdateMessage struct {
	RideID   uuid.UUID   `json:"ride_id"`
	Party    types.Party `json:"party"`
	Location Location    `json:"location"`
}
