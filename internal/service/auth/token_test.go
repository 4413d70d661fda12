package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(secret string) *TokenService {
	return NewTokenService(secret, logger.New(io.Discard, "test", logger.LevelError))
}

func TestRoleCheck(t *testing.T) {
	s := newService("secret")
	user := &models.User{ID: uuid.New(), Role: types.RoleDriver}

	token, err := s.Sign(user, time.Minute)
	require.NoError(t, err)

	got, err := s.RoleCheck(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestRoleCheckRejects(t *testing.T) {
	s := newService("secret")
	user := &models.User{ID: uuid.New(), Role: types.RoleRider}

	expired, err := s.Sign(user, -time.Minute)
	require.NoError(t, err)
	_, err = s.RoleCheck(context.Background(), expired)
	assert.ErrorIs(t, err, ErrExpToken)

	foreign, err := newService("other").Sign(user, time.Minute)
	require.NoError(t, err)
	_, err = s.RoleCheck(context.Background(), foreign)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, CustomClaims{
		TokenType: AccessToken,
		UserID:    user.ID.String(),
		Role:      "SUPERUSER",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = s.RoleCheck(context.Background(), badRole)
	assert.ErrorIs(t, err, types.ErrInvalidToken)

	_, err = s.RoleCheck(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}
