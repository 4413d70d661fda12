package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRideTransitions(t *testing.T) {
	all := []RideStatus{RideProposed, RideDriverSelected, RideInProgress, RideFinished, RideCancelled}
	legal := map[[2]RideStatus]bool{
		{RideProposed, RideDriverSelected}:   true,
		{RideDriverSelected, RideInProgress}: true,
		{RideInProgress, RideFinished}:       true,
		{RideProposed, RideCancelled}:        true,
		{RideDriverSelected, RideCancelled}:  true,
		{RideInProgress, RideCancelled}:      true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]RideStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrRideStateChanged, ErrConflict)
	assert.ErrorIs(t, ErrRideStateChanged, ErrInvalidState)
	assert.ErrorIs(t, ErrDriverNotFound, ErrNotFound)
	assert.True(t, IsOneOf(ErrPayoutAlreadyPaid, ErrNotFound, ErrInvalidState))
	assert.False(t, IsOneOf(errors.New("other"), ErrNotFound))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("passenger")
	assert.True(t, ok)
	assert.Equal(t, RoleRider, r)

	_, ok = ParseRole("guest")
	assert.False(t, ok)
	assert.Equal(t, PartyDriver, PartyFromRole(RoleDriver))
	assert.Equal(t, PartyNone, PartyFromRole(RoleAdmin))
}
