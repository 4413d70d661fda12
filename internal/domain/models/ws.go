package models

import "github.com/Temutjin2k/fleet-ledger/internal/domain/types"

// StatusUpdateWebSocketMessage is the frame pushed to subscribed riders and drivers.
type StatusUpdateWebSocketMessage struct {
	EventType types.RideEvent `json:"event_type"`
	Data      any             `json:"data"`
}
