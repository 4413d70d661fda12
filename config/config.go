package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/configparser"
)

// Flags
var (
	modeFlag = flag.String("mode", string(types.ModeAll), "application mode: ride, driver, admin or all")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
	ErrInvalidStore    = errors.New("unknown store driver")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode     types.ServiceMode `ignored:"true"`
		LogLevel string            `envconfig:"LOG_LEVEL" default:"INFO"`

		Store             StoreConfig       `envconfig:"STORE"`
		Database          DatabaseConfig    `envconfig:"DATABASE"`
		RabbitMQ          RabbitMQConfig    `envconfig:"RABBITMQ"`
		ExternalAPIConfig ExternalAPIConfig `envconfig:"EXTERNAL"`
		Services          ServicesConfig    `envconfig:"SERVICES"`
		Auth              Auth              `envconfig:"AUTH"`
		Ride              RidePolicy        `envconfig:"RIDE"`
		Fare              FareDefaults      `envconfig:"FARE"`
		Receipt           ReceiptPolicy     `envconfig:"RECEIPT"`
	}

	StoreConfig struct {
		Driver string `envconfig:"DRIVER" default:"postgres"` // postgres | memory
	}

	DatabaseConfig struct {
		Host     string `envconfig:"HOST" default:"localhost"`
		Port     string `envconfig:"PORT" default:"5432"`
		User     string `envconfig:"USER" default:"fleet_user"`
		Password string `envconfig:"PASSWORD" default:"fleet_pass"`
		Database string `envconfig:"DATABASE" default:"fleet_db"`

		MaxConns        int32         `envconfig:"MAXCONNS" default:"20"`
		MinConns        int32         `envconfig:"MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `envconfig:"MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `envconfig:"MAXCONNIDLETIME" default:"5m"`
		Migrate         bool          `envconfig:"MIGRATE" default:"true"`
	}

	ExternalAPIConfig struct {
		LocationIQapiKey string        `envconfig:"LOCATIONIQ_API_KEY"`
		Timeout          time.Duration `envconfig:"TIMEOUT" default:"3s"`
	}

	RabbitMQConfig struct {
		Enabled  bool   `envconfig:"ENABLED" default:"false"`
		Host     string `envconfig:"HOST" default:"localhost"`
		Port     string `envconfig:"PORT" default:"5672"`
		User     string `envconfig:"USER" default:"guest"`
		Password string `envconfig:"PASSWORD" default:"guest"`
	}

	ServicesConfig struct {
		RideService   string `envconfig:"RIDE_SERVICE" default:"3000"`
		DriverService string `envconfig:"DRIVER_SERVICE" default:"3001"`
		AdminService  string `envconfig:"ADMIN_SERVICE" default:"3004"`
		AllServices   string `envconfig:"ALL_SERVICES" default:"8080"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET" default:"supersecretkey"`
	}

	// RidePolicy holds the knobs of the GPS auto-completion policy and the
	// driver approval gate.
	RidePolicy struct {
		AutoComplete        bool    `envconfig:"AUTO_COMPLETE" default:"true"`
		ArrivalRadiusMeters float64 `envconfig:"ARRIVAL_RADIUS_METERS" default:"50"`
		RequireApproval     bool    `envconfig:"REQUIRE_APPROVAL" default:"false"`
	}

	// FareDefaults are applied to drivers registering without their own rates.
	FareDefaults struct {
		BaseFee  float64 `envconfig:"BASE_FEE" default:"2.00"`
		PerKm    float64 `envconfig:"PER_KM" default:"1.50"`
		Currency string  `envconfig:"CURRENCY" default:"USD"`
	}

	ReceiptPolicy struct {
		NumberPrefix string `envconfig:"NUMBER_PREFIX" default:"FLEET"`
		MaxAttempts  int    `envconfig:"MAX_ATTEMPTS" default:"5"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)

	return nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case types.StorePostgres, types.StoreMemory:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStore, c.Store.Driver)
	}
	if c.Ride.ArrivalRadiusMeters <= 0 {
		return errors.New("ride arrival radius must be positive")
	}
	if c.Receipt.MaxAttempts < 1 {
		return errors.New("receipt max attempts must be at least 1")
	}
	return nil
}

// Port returns the HTTP port the given mode listens on.
func (c *Config) Port(mode types.ServiceMode) string {
	switch mode {
	case types.ModeRide:
		return c.Services.RideService
	case types.ModeDriver:
		return c.Services.DriverService
	case types.ModeAdmin:
		return c.Services.AdminService
	default:
		return c.Services.AllServices
	}
}

func (c DatabaseConfig) PoolLimits() (int32, int32, time.Duration, time.Duration) {
	return c.MaxConns, c.MinConns, c.MaxConnLifetime, c.MaxConnIdleTime
}
