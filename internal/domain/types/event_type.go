package types

type RideEvent string

func (s RideEvent) String() string {
	return string(s)
}

const (
	EventRideRequested   RideEvent = "RIDE_REQUESTED"
	EventDriverMatched   RideEvent = "DRIVER_MATCHED"
	EventRideStarted     RideEvent = "RIDE_STARTED"
	EventRideCompleted   RideEvent = "RIDE_COMPLETED"
	EventRideCancelled   RideEvent = "RIDE_CANCELLED"
	EventLocationUpdated RideEvent = "LOCATION_UPDATED"
)

type LedgerEvent string

const (
	EventEarningCredited LedgerEvent = "EARNING_CREDITED"
	EventPayoutRequested LedgerEvent = "PAYOUT_REQUESTED"
	EventPayoutPaid      LedgerEvent = "PAYOUT_PAID"
)
