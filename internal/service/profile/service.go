package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
	"github.com/google/uuid"
)

type DriverRepo interface {
	Create(ctx context.Context, d *models.Driver) error
	Get(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	UpdatePricing(ctx context.Context, id uuid.UUID, p models.Pricing) (*models.Driver, error)
	SetOnline(ctx context.Context, id uuid.UUID, online bool) (*models.Driver, error)
	ListOnline(ctx context.Context) ([]*models.Driver, error)
	SetApproval(ctx context.Context, id uuid.UUID, approved bool) (*models.Driver, error)
	List(ctx context.Context) ([]*models.Driver, error)
}

type RiderRepo interface {
	Create(ctx context.Context, r *models.Rider) error
	Get(ctx context.Context, id uuid.UUID) (*models.Rider, error)
}

// Service manages rider and driver profiles. Identities come from the token;
// profiles only add the data rides and ledgers need.
type Service struct {
	drivers        DriverRepo
	riders         RiderRepo
	defaultPricing models.Pricing
	log            logger.Logger
}

func NewService(drivers DriverRepo, riders RiderRepo, defaultPricing models.Pricing, log logger.Logger) *Service {
	return &Service{
		drivers:        drivers,
		riders:         riders,
		defaultPricing: defaultPricing,
		log:            log,
	}
}

type Contact struct {
	Name    string
	Email   string
	Phone   string
	Vehicle string
}

func (c Contact) validate(v *validator.Validator) {
	v.Check(strings.TrimSpace(c.Name) != "", "name", "must be provided")
	v.Check(len(c.Name) <= 200, "name", "must not be more than 200 bytes long")
	v.Check(validator.Matches(c.Email, validator.EmailRX), "email", "must be a valid email address")
}

func (s *Service) RegisterRider(ctx context.Context, id uuid.UUID, c Contact) (*models.Rider, error) {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, id.String()), "register_rider")

	v := validator.New()
	c.validate(v)
	if !v.Valid() {
		return nil, wrap.Error(ctx, types.NewValidationError(v.Errors))
	}

	rider := &models.Rider{
		ID:             id,
		Name:           strings.TrimSpace(c.Name),
		Email:          c.Email,
		Phone:          c.Phone,
		CompletedRides: []uuid.UUID{},
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.riders.Create(ctx, rider); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "rider registered")
	return rider, nil
}

// RegisterDriver creates a driver profile. Missing rates fall back to the configured defaults.
func (s *Service) RegisterDriver(ctx context.Context, id uuid.UUID, c Contact, pricing *models.Pricing) (*models.Driver, error) {
	ctx = wrap.WithAction(wrap.WithDriverID(ctx, id.String()), "register_driver")

	p := s.defaultPricing
	if pricing != nil {
		p = *pricing
	}

	v := validator.New()
	c.validate(v)
	validatePricing(v, p)
	if !v.Valid() {
		return nil, wrap.Error(ctx, types.NewValidationError(v.Errors))
	}

	now := time.Now().UTC()
	driver := &models.Driver{
		ID:             id,
		Name:           strings.TrimSpace(c.Name),
		Email:          c.Email,
		Phone:          c.Phone,
		Vehicle:        c.Vehicle,
		Pricing:        p,
		CompletedRides: []uuid.UUID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.drivers.Create(ctx, driver); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "driver registered", "base_fee", p.BaseFee, "per_km_rate", p.PerKmRate)
	return driver, nil
}

func validatePricing(v *validator.Validator, p models.Pricing) {
	v.Check(validator.Finite(p.BaseFee) && p.BaseFee >= 0, "base_fee", "must be a non-negative number")
	v.Check(validator.Finite(p.PerKmRate) && p.PerKmRate >= 0, "per_km_rate", "must be a non-negative number")
}

// UpdateFare changes the rates quoted to rides confirmed from now on.
func (s *Service) UpdateFare(ctx context.Context, driverID uuid.UUID, p models.Pricing) (*models.Driver, error) {
	ctx = wrap.WithAction(wrap.WithDriverID(ctx, driverID.String()), "update_fare")

	v := validator.New()
	validatePricing(v, p)
	if !v.Valid() {
		return nil, wrap.Error(ctx, types.NewValidationError(v.Errors))
	}

	d, err := s.drivers.UpdatePricing(ctx, driverID, p)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not update pricing: %w", err))
	}
	return d, nil
}

func (s *Service) SetOnline(ctx context.Context, driverID uuid.UUID, online bool) (*models.Driver, error) {
	ctx = wrap.WithAction(wrap.WithDriverID(ctx, driverID.String()), "set_online")

	d, err := s.drivers.SetOnline(ctx, driverID, online)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	s.log.Info(ctx, "driver availability changed", "is_online", online)
	return d, nil
}

func (s *Service) ListOnlineDrivers(ctx context.Context) ([]*models.Driver, error) {
	list, err := s.drivers.ListOnline(ctx)
	if err != nil {
		return nil, wrap.Error(wrap.WithAction(ctx, "list_online_drivers"), err)
	}
	return list, nil
}

// SetApproval records an admin decision on a driver application. Revoking
// does not touch rides the driver already holds.
func (s *Service) SetApproval(ctx context.Context, driverID uuid.UUID, approved bool) (*models.Driver, error) {
	ctx = wrap.WithAction(wrap.WithDriverID(ctx, driverID.String()), "set_approval")

	d, err := s.drivers.SetApproval(ctx, driverID, approved)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	s.log.Info(ctx, "driver approval changed", "approved", approved)
	return d, nil
}

func (s *Service) ListDrivers(ctx context.Context) ([]*models.Driver, error) {
	list, err := s.drivers.List(ctx)
	if err != nil {
		return nil, wrap.Error(wrap.WithAction(ctx, "list_drivers"), err)
	}
	return list, nil
}

func (s *Service) GetDriver(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	d, err := s.drivers.Get(ctx, id)
	if err != nil {
		return nil, wrap.Error(wrap.WithDriverID(ctx, id.String()), err)
	}
	return d, nil
}

func (s *Service) GetRider(ctx context.Context, id uuid.UUID) (*models.Rider, error) {
	r, err := s.riders.Get(ctx, id)
	if err != nil {
		return nil, wrap.Error(wrap.WithUserID(ctx, id.String()), err)
	}
	return r, nil
}
