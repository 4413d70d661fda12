package wshandler

import (
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/ws/dto"
	hub "github.com/Temutjin2k/fleet-ledger/pkg/wsHub"
)

func errorResponse(conn *hub.Conn, message string) error {
	return conn.Send(dto.ServerMessage{Type: "error", Error: message})
}

func failedValidationResponse(conn *hub.Conn, errors map[string]string) error {
	return conn.Send(dto.ServerMessage{Type: "error", Error: "validation failed", Fields: errors})
}
