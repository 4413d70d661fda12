package profile

import (
	"context"
	"io"
	"testing"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/memory"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *Service {
	store := memory.New()
	return NewService(store.Drivers(), store.Riders(), models.Pricing{BaseFee: 2, PerKmRate: 1.5}, logger.New(io.Discard, "test", logger.LevelError))
}

func TestRegisterDriver(t *testing.T) {
	ctx := context.Background()
	s := newService()
	id := uuid.New()

	d, err := s.RegisterDriver(ctx, id, Contact{Name: " Arman ", Email: "arman@fleet.kz"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Arman", d.Name)
	assert.Equal(t, models.Pricing{BaseFee: 2, PerKmRate: 1.5}, d.Pricing)

	_, err = s.RegisterDriver(ctx, id, Contact{Name: "Arman", Email: "arman@fleet.kz"}, nil)
	assert.ErrorIs(t, err, types.ErrConflict)

	_, err = s.RegisterDriver(ctx, uuid.New(), Contact{Name: "", Email: "nope"}, &models.Pricing{BaseFee: -1})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}

func TestDriverUpdates(t *testing.T) {
	ctx := context.Background()
	s := newService()
	id := uuid.New()
	_, err := s.RegisterDriver(ctx, id, Contact{Name: "Arman", Email: "arman@fleet.kz"}, nil)
	require.NoError(t, err)

	d, err := s.UpdateFare(ctx, id, models.Pricing{BaseFee: 3, PerKmRate: 2})
	require.NoError(t, err)
	assert.Equal(t, 3.0, d.Pricing.BaseFee)

	_, err = s.UpdateFare(ctx, uuid.New(), models.Pricing{BaseFee: 3, PerKmRate: 2})
	assert.ErrorIs(t, err, types.ErrDriverNotFound)

	_, err = s.SetOnline(ctx, id, true)
	require.NoError(t, err)
	online, err := s.ListOnlineDrivers(ctx)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, id, online[0].ID)
}

func TestDriverApproval(t *testing.T) {
	ctx := context.Background()
	s := newService()
	first, second := uuid.New(), uuid.New()
	_, err := s.RegisterDriver(ctx, first, Contact{Name: "Arman", Email: "arman@fleet.kz"}, nil)
	require.NoError(t, err)
	d, err := s.RegisterDriver(ctx, second, Contact{Name: "Bolat", Email: "bolat@fleet.kz"}, nil)
	require.NoError(t, err)
	assert.False(t, d.Approved)

	d, err = s.SetApproval(ctx, second, true)
	require.NoError(t, err)
	assert.True(t, d.Approved)

	list, err := s.ListDrivers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	approved := map[uuid.UUID]bool{}
	for _, d := range list {
		approved[d.ID] = d.Approved
	}
	assert.Equal(t, map[uuid.UUID]bool{first: false, second: true}, approved)

	d, err = s.SetApproval(ctx, second, false)
	require.NoError(t, err)
	assert.False(t, d.Approved)

	_, err = s.SetApproval(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, types.ErrDriverNotFound)
}

func TestRegisterRider(t *testing.T) {
	ctx := context.Background()
	s := newService()
	id := uuid.New()

	_, err := s.RegisterRider(ctx, id, Contact{Name: "Dana", Email: "dana@fleet.kz"})
	require.NoError(t, err)

	got, err := s.GetRider(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dana", got.Name)
	assert.Empty(t, got.CompletedRides)

	_, err = s.GetRider(ctx, uuid.New())
	assert.ErrorIs(t, err, types.ErrRiderNotFound)
}
