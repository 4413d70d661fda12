package wshandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/handler"
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/ws/dto"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	hub "github.com/Temutjin2k/fleet-ledger/pkg/wsHub"
	"github.com/google/uuid"
)

type RideTracker interface {
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
	UpdateGPS(ctx context.Context, rideID uuid.UUID, party types.Party, loc models.Location) (*models.Ride, bool, error)
}

// Handler upgrades authenticated requests to a WebSocket. The socket receives
// status updates of the user's rides and accepts location frames.
type Handler struct {
	connections *hub.ConnectionHub
	rides       RideTracker
	upgrader    websocket.Upgrader
	l           logger.Logger
}

func NewHandler(connections *hub.ConnectionHub, rides RideTracker, l logger.Logger) *Handler {
	return &Handler{
		connections: connections,
		rides:       rides,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		l: l,
	}
}

// ServeHTTP godoc
// @Summary      Subscribe to ride updates
// @Description  Upgrades to a WebSocket. Frames out: ride status updates. Frames in: {"type":"location",...}.
// @Tags         realtime
// @Security     BearerAuth
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /ws [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := models.UserFromContext(r.Context())
	if user.IsAnonymous() {
		http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
		return
	}

	ctx := wrap.WithAction(wrap.WithUserID(context.WithoutCancel(r.Context()), user.ID.String()), "ws_session")
	settings := models.SettingsFromContext(r.Context())

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Error(ctx, "websocket upgrade failed", err)
		return
	}

	conn := hub.NewConn(ctx, user.ID, wsConn)
	if err := h.connections.Add(conn); err != nil {
		h.l.Error(ctx, "failed to register connection", err)
		_ = conn.Close()
		return
	}
	defer h.connections.Remove(conn)

	h.l.Info(ctx, "websocket connected", "role", user.Role)
	if err := conn.Send(dto.ServerMessage{Type: "connected", LocationFrequency: settings.LocationFrequency}); err != nil {
		h.l.Warn(ctx, "failed to greet client", "error", err.Error())
		return
	}

	err = hub.Listen(conn, func(msg dto.ClientMessage) error {
		return h.handleMessage(ctx, conn, user, msg)
	})
	if err != nil && !errors.Is(err, hub.ErrConnClosed) {
		h.l.Debug(ctx, "websocket session ended", "reason", err.Error())
	}
}

// handleMessage answers bad frames on the socket; only write failures end the session.
func (h *Handler) handleMessage(ctx context.Context, conn *hub.Conn, user *models.User, msg dto.ClientMessage) error {
	v := validator.New()
	msg.Validate(v)
	if !v.Valid() {
		return failedValidationResponse(conn, v.Errors)
	}

	ctx = wrap.WithRideID(ctx, msg.RideID.String())
	ride, err := h.rides.Get(ctx, msg.RideID)
	if err != nil {
		return h.serviceError(ctx, conn, "failed to get ride", err)
	}
	party := ride.PartyOf(user.ID)
	if party == types.PartyNone {
		return h.serviceError(ctx, conn, "location for a foreign ride", types.ErrForbidden)
	}

	ride, completed, err := h.rides.UpdateGPS(ctx, msg.RideID, party, models.Location{Latitude: msg.Latitude, Longitude: msg.Longitude})
	if err != nil {
		return h.serviceError(ctx, conn, "failed to update location", err)
	}
	return conn.Send(dto.ServerMessage{Type: "location_ack", RideID: &ride.ID, Completed: completed})
}

// serviceError answers a failed frame the way the HTTP handlers answer a
// failed request: server errors are logged and replaced by a generic message.
func (h *Handler) serviceError(ctx context.Context, conn *hub.Conn, msg string, err error) error {
	if handler.GetCode(err) == http.StatusInternalServerError {
		h.l.Error(wrap.ErrorCtx(ctx, err), msg, err)
		return errorResponse(conn, handler.InternalErrorMessage)
	}

	h.l.Warn(ctx, msg, "error", err.Error())
	return errorResponse(conn, err.Error())
}
