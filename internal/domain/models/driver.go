package models

import (
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/google/uuid"
)

type Pricing struct {
	BaseFee   float64 `json:"base_fee"`
	PerKmRate float64 `json:"per_km_rate"`
}

type Driver struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone,omitempty"`
	Vehicle        string      `json:"vehicle,omitempty"`
	IsOnline       bool        `json:"is_online"`
	Approved       bool        `json:"approved"`
	Pricing        Pricing     `json:"pricing"`
	CompletedRides []uuid.UUID `json:"completed_rides"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (d *Driver) Clone() *Driver {
	c := *d
	c.CompletedRides = append([]uuid.UUID(nil), d.CompletedRides...)
	return &c
}

// Ledger is a driver's earnings record.
type Ledger struct {
	DriverID         uuid.UUID     `json:"driver_id"`
	TotalEarnings    float64       `json:"total_earnings"`
	AvailableBalance float64       `json:"available_balance"`
	Transactions     []Transaction `json:"transactions"`
}

func (l *Ledger) Clone() *Ledger {
	c := *l
	c.Transactions = make([]Transaction, len(l.Transactions))
	for i, t := range l.Transactions {
		c.Transactions[i] = t
		c.Transactions[i].RideID = clonePtr(t.RideID)
		c.Transactions[i].PayoutID = clonePtr(t.PayoutID)
	}
	return &c
}

// Transaction is one ledger entry. Earnings reference a ride, payouts a payout.
type Transaction struct {
	ID        uuid.UUID               `json:"id"`
	RideID    *uuid.UUID              `json:"ride_id,omitempty"`
	PayoutID  *uuid.UUID              `json:"payout_id,omitempty"`
	Amount    float64                 `json:"amount"`
	Type      types.TransactionType   `json:"type"`
	Status    types.TransactionStatus `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
}

type Payout struct {
	ID          uuid.UUID          `json:"id"`
	DriverID    uuid.UUID          `json:"driver_id"`
	Amount      float64            `json:"amount"`
	Email       string             `json:"email"`
	Status      types.PayoutStatus `json:"status"`
	RequestedAt time.Time          `json:"requested_at"`
	PaidAt      *time.Time         `json:"paid_at,omitempty"`
}

func (p *Payout) Clone() *Payout {
	c := *p
	c.PaidAt = clonePtr(p.PaidAt)
	return &c
}

type PayoutFilter struct {
	DriverID *uuid.UUID
	Status   types.PayoutStatus
	Filters
}

// LedgerEvent is published to the broker whenever money moves.
type LedgerEvent struct {
	Event     types.LedgerEvent `json:"event"`
	DriverID  uuid.UUID         `json:"driver_id"`
	RideID    *uuid.UUID        `json:"ride_id,omitempty"`
	PayoutID  *uuid.UUID        `json:"payout_id,omitempty"`
	Amount    float64           `json:"amount"`
	Timestamp time.Time         `json:"timestamp"`
}
