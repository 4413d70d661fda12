package wshandler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/handler"
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/ws/dto"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	hub "github.com/Temutjin2k/fleet-ledger/pkg/wsHub"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRides struct {
	rides     map[uuid.UUID]*models.Ride
	updateErr error
}

func (f *fakeRides) Get(_ context.Context, rideID uuid.UUID) (*models.Ride, error) {
	ride, ok := f.rides[rideID]
	if !ok {
		return nil, fmt.Errorf("RideRepo.Get: %w", types.ErrRideNotFound)
	}
	return ride, nil
}

func (f *fakeRides) UpdateGPS(_ context.Context, rideID uuid.UUID, _ types.Party, _ models.Location) (*models.Ride, bool, error) {
	if f.updateErr != nil {
		return nil, false, f.updateErr
	}
	return f.rides[rideID], false, nil
}

// connect serves h to user and returns a client past the greeting frame.
func connect(t *testing.T, h *Handler, user *models.User) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(models.WithUser(r.Context(), user)))
	}))
	t.Cleanup(srv.Close)

	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	var hello dto.ServerMessage
	require.NoError(t, c.ReadJSON(&hello))
	require.Equal(t, "connected", hello.Type)
	return c
}

func sendLocation(t *testing.T, c *websocket.Conn, rideID uuid.UUID) dto.ServerMessage {
	t.Helper()
	require.NoError(t, c.WriteJSON(dto.ClientMessage{Type: dto.TypeLocation, RideID: rideID, Latitude: 43.2, Longitude: 76.9}))

	var reply dto.ServerMessage
	require.NoError(t, c.ReadJSON(&reply))
	return reply
}

func TestLocationFrameErrors(t *testing.T) {
	log := logger.New(io.Discard, "test", logger.LevelError)
	rider := &models.User{ID: uuid.New(), Role: types.RoleRider}
	own := &models.Ride{ID: uuid.New(), RiderID: rider.ID, Status: types.RideInProgress}
	foreign := &models.Ride{ID: uuid.New(), RiderID: uuid.New(), Status: types.RideInProgress}

	rides := &fakeRides{rides: map[uuid.UUID]*models.Ride{own.ID: own, foreign.ID: foreign}}
	c := connect(t, NewHandler(hub.NewConnHub(log), rides, log), rider)

	reply := sendLocation(t, c, uuid.New())
	assert.Equal(t, "error", reply.Type)
	assert.Contains(t, reply.Error, "ride not found")

	reply = sendLocation(t, c, foreign.ID)
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, types.ErrForbidden.Error(), reply.Error)

	reply = sendLocation(t, c, own.ID)
	assert.Equal(t, "location_ack", reply.Type)
	require.NotNil(t, reply.RideID)
	assert.Equal(t, own.ID, *reply.RideID)
}

func TestLocationFrameHidesStoreErrors(t *testing.T) {
	log := logger.New(io.Discard, "test", logger.LevelError)
	rider := &models.User{ID: uuid.New(), Role: types.RoleRider}
	own := &models.Ride{ID: uuid.New(), RiderID: rider.ID, Status: types.RideInProgress}

	rides := &fakeRides{
		rides:     map[uuid.UUID]*models.Ride{own.ID: own},
		updateErr: errors.New("RideRepo.SetPosition: conn closed"),
	}
	c := connect(t, NewHandler(hub.NewConnHub(log), rides, log), rider)

	reply := sendLocation(t, c, own.ID)
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, handler.InternalErrorMessage, reply.Error)
	assert.NotContains(t, fmt.Sprint(reply.Error), "SetPosition")
}
