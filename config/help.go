package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
)

const HelpMessage = `
Fleet ride lifecycle and ledger service.

Usage:
  fleet [--mode=<mode>] [--config-path=<path>]
  fleet --help

Options:
  --mode          Service mode: ride, driver, admin or all (default all)
  --config-path   Path to the YAML config file (default config.yaml)
  --help          Show this screen

Every config key can be overridden by an environment variable, e.g.
database.host -> DATABASE_HOST, ride.arrival_radius_meters -> RIDE_ARRIVAL_RADIUS_METERS.
`

func PrintHelp() {
	fmt.Print(HelpMessage)
}

// PrintConfig writes the effective configuration with secrets masked.
func PrintConfig(w io.Writer, cfg *Config) {
	var b strings.Builder
	fmt.Fprintf(&b, "mode=%s store=%s log_level=%s\n", cfg.Mode, cfg.Store.Driver, cfg.LogLevel)
	if cfg.Store.Driver == types.StorePostgres {
		fmt.Fprintf(&b, "database=%s@%s:%s/%s\n", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}
	fmt.Fprintf(&b, "rabbitmq.enabled=%t host=%s:%s\n", cfg.RabbitMQ.Enabled, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	fmt.Fprintf(&b, "ride.auto_complete=%t ride.arrival_radius_meters=%.0f ride.require_approval=%t\n",
		cfg.Ride.AutoComplete, cfg.Ride.ArrivalRadiusMeters, cfg.Ride.RequireApproval)
	fmt.Fprintf(&b, "fare.base_fee=%.2f fare.per_km=%.2f receipt.prefix=%s\n", cfg.Fare.BaseFee, cfg.Fare.PerKm, cfg.Receipt.NumberPrefix)
	fmt.Fprintf(&b, "auth.jwt_secret=%s locationiq=%t\n", mask(cfg.Auth.JWTSecret), cfg.ExternalAPIConfig.LocationIQapiKey != "")
	_, _ = io.WriteString(w, b.String())
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-2)
}
