package wshandler

import (
	"context"
	"errors"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	hub "github.com/Temutjin2k/fleet-ledger/pkg/wsHub"
	"github.com/google/uuid"
)

// Notifier pushes ride status updates to whichever parties are connected.
type Notifier struct {
	connections *hub.ConnectionHub
	l           logger.Logger
}

func NewNotifier(connections *hub.ConnectionHub, l logger.Logger) *Notifier {
	return &Notifier{
		connections: connections,
		l:           l,
	}
}

func (n *Notifier) NotifyUsers(ctx context.Context, userIDs []uuid.UUID, msg models.StatusUpdateWebSocketMessage) {
	ctx = wrap.WithAction(ctx, "ws_notify")

	for _, id := range userIDs {
		err := n.connections.SendTo(id, msg)
		switch {
		case err == nil:
		case errors.Is(err, hub.ErrConnIsNotFound):
			// user is offline
		default:
			n.l.Warn(wrap.WithUserID(ctx, id.String()), "failed to push ride update", "error", err.Error())
		}
	}
}
