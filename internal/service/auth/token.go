package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const AccessToken = "access"

var ErrExpToken = fmt.Errorf("%w: expired token", types.ErrUnauthorized)

// CustomClaims are the claims the service trusts: who the caller is and which role they act in.
type CustomClaims struct {
	TokenType string `json:"typ"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService validates HS256 access tokens issued by the identity provider.
type TokenService struct {
	secret []byte
	log    logger.Logger
}

func NewTokenService(secret string, log logger.Logger) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		log:    log,
	}
}

// RoleCheck resolves a bearer token into the caller identity.
func (s *TokenService) RoleCheck(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.Validate(ctx, token)
	if err != nil {
		s.log.Debug(ctx, "token rejected", "reason", err.Error())
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: invalid 'user_id' in token claims", types.ErrInvalidToken))
	}

	role, ok := types.ParseRole(claims.Role)
	if !ok {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: unknown role %q", types.ErrInvalidToken, claims.Role))
	}

	return &models.User{ID: userID, Role: role}, nil
}

// Validate validates the given JWT token string, returning the custom claims if valid.
func (s *TokenService) Validate(ctx context.Context, token string) (*CustomClaims, error) {
	ctx = wrap.WithAction(ctx, "validate_token")

	claims := &CustomClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, wrap.Error(ctx, ErrExpToken)
		}
		return nil, wrap.Error(ctx, fmt.Errorf("%w: %v", types.ErrInvalidToken, err))
	}
	if !parsed.Valid {
		return nil, wrap.Error(ctx, types.ErrInvalidToken)
	}

	if claims.TokenType != AccessToken {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: unexpected token type %q", types.ErrInvalidToken, claims.TokenType))
	}

	return claims, nil
}

// Sign issues an access token for user. Tokens are normally minted by the
// identity provider; this exists for the seed command and tests.
func (s *TokenService) Sign(user *models.User, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := CustomClaims{
		TokenType: AccessToken,
		UserID:    user.ID.String(),
		Role:      user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
