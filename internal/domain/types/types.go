package types

import "strings"

type ServiceMode string

// ride   - riders, rides, receipts and live status push
// driver - driver profiles, earnings and payouts
// admin  - payout finalization and runtime settings
// all    - every route group in one process
const (
	ModeRide   ServiceMode = "ride"
	ModeDriver ServiceMode = "driver"
	ModeAdmin  ServiceMode = "admin"
	ModeAll    ServiceMode = "all"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RoleRider  UserRole = "RIDER"
	RoleDriver UserRole = "DRIVER"
	RoleAdmin  UserRole = "ADMIN"
)

// ParseRole resolves a claim value into a role once, at the boundary.
func ParseRole(s string) (UserRole, bool) {
	switch r := UserRole(strings.ToUpper(s)); r {
	case RoleRider, RoleDriver, RoleAdmin:
		return r, true
	case "PASSENGER":
		return RoleRider, true
	default:
		return "", false
	}
}

type RideStatus string

func (s RideStatus) String() string {
	return string(s)
}

const (
	RideProposed       RideStatus = "PROPOSED"
	RideDriverSelected RideStatus = "DRIVER_SELECTED"
	RideInProgress     RideStatus = "IN_PROGRESS"
	RideFinished       RideStatus = "FINISHED"
	RideCancelled      RideStatus = "CANCELLED"
)

// rideTransitions lists every legal move of the ride state machine.
var rideTransitions = map[RideStatus][]RideStatus{
	RideProposed:       {RideDriverSelected, RideCancelled},
	RideDriverSelected: {RideInProgress, RideCancelled},
	RideInProgress:     {RideFinished, RideCancelled},
}

// CanTransitionTo reports whether the ride may move from s to next.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	for _, allowed := range rideTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s RideStatus) IsTerminal() bool {
	return s == RideFinished || s == RideCancelled
}

// Party is the side of a ride acting on it: the rider or the driver.
type Party string

const (
	PartyNone   Party = "NONE"
	PartyRider  Party = "RIDER"
	PartyDriver Party = "DRIVER"
)

// PartyFromRole maps an authenticated role onto the ride party it acts as.
func PartyFromRole(r UserRole) Party {
	switch r {
	case RoleRider:
		return PartyRider
	case RoleDriver:
		return PartyDriver
	default:
		return PartyNone
	}
}

type TransactionType string

const (
	TransactionEarning TransactionType = "EARNING"
	TransactionPayout  TransactionType = "PAYOUT"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

type PayoutStatus string

const (
	PayoutAwaiting PayoutStatus = "AWAITING_PAYOUT"
	PayoutPaid     PayoutStatus = "PAID"
)

const DefaultPaymentMethod = "Credit Card"
