package middleware

import (
	"context"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
)

type (
	AuthService interface {
		RoleCheck(ctx context.Context, token string) (*models.User, error)
	}

	SettingsLoader interface {
		Get(ctx context.Context) (models.Settings, error)
	}

	Middleware struct {
		auth     AuthService
		settings SettingsLoader
		log      logger.Logger
	}
)

func NewMiddleware(auth AuthService, settings SettingsLoader, log logger.Logger) *Middleware {
	return &Middleware{
		auth:     auth,
		settings: settings,
		log:      log,
	}
}
