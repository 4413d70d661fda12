package settings

import (
	"context"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
)

type Repo interface {
	Get(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, s models.Settings) error
}

// Service owns the runtime settings admins can flip without a redeploy.
type Service struct {
	repo Repo
	log  logger.Logger
}

func NewService(repo Repo, log logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Get(ctx context.Context) (models.Settings, error) {
	st, err := s.repo.Get(ctx)
	if err != nil {
		return models.Settings{}, wrap.Error(wrap.WithAction(ctx, "get_settings"), err)
	}
	return st, nil
}

type Update struct {
	MaintenanceMode   *bool
	LocationFrequency *int
}

func (s *Service) Update(ctx context.Context, upd Update) (models.Settings, error) {
	ctx = wrap.WithAction(ctx, types.ActionSettingsUpdated)

	if upd.LocationFrequency != nil {
		v := validator.New()
		v.Check(*upd.LocationFrequency >= 1 && *upd.LocationFrequency <= 3600, "location_frequency", "must be between 1 and 3600 seconds")
		if !v.Valid() {
			return models.Settings{}, wrap.Error(ctx, types.NewValidationError(v.Errors))
		}
	}

	st, err := s.repo.Get(ctx)
	if err != nil {
		return models.Settings{}, wrap.Error(ctx, err)
	}
	if upd.MaintenanceMode != nil {
		st.MaintenanceMode = *upd.MaintenanceMode
	}
	if upd.LocationFrequency != nil {
		st.LocationFrequency = *upd.LocationFrequency
	}
	st.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, st); err != nil {
		return models.Settings{}, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "settings updated", "maintenance_mode", st.MaintenanceMode, "location_frequency", st.LocationFrequency)
	return st, nil
}
