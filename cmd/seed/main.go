// Command seed registers a demo rider and driver in the Postgres store and
// prints access tokens for them and for an admin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Temutjin2k/fleet-ledger/config"
	repo "github.com/Temutjin2k/fleet-ledger/internal/adapter/postgres"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/internal/service/auth"
	"github.com/Temutjin2k/fleet-ledger/internal/service/profile"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	"github.com/Temutjin2k/fleet-ledger/pkg/postgres"
	"github.com/google/uuid"
)

var (
	configPath = flag.String("config-path", "config.yaml", "Path to the config yaml file")
	tokenTTL   = flag.Duration("token-ttl", 24*time.Hour, "Lifetime of the printed tokens")
)

var (
	riderID  = uuid.MustParse("8f6f2d1e-2b4a-4c61-9a1d-6c0f5b1e7a01")
	driverID = uuid.MustParse("3c2b9d7a-5e41-4f0b-8d6a-2a9e4c7b1f02")
	adminID  = uuid.MustParse("b7e4a0c3-91d2-4e5f-a6b8-0d1c2e3f4a03")
)

func main() {
	flag.Parse()

	// short timeout for seed operations
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	l := logger.InitLogger("fleet-seed", cfg.LogLevel)

	client, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Pool.Close()

	if err := postgres.Migrate(ctx, client.Pool, repo.Migrations, repo.MigrationsDir); err != nil {
		log.Fatalf("seed: migrate: %v", err)
	}

	profiles := profile.NewService(repo.NewDriverRepo(client.Pool), repo.NewRiderRepo(client.Pool), models.Pricing{
		BaseFee:   cfg.Fare.BaseFee,
		PerKmRate: cfg.Fare.PerKm,
	}, l)

	_, err = profiles.RegisterRider(ctx, riderID, profile.Contact{Name: "Beka", Email: "beka@fleet.kz", Phone: "+77010000001"})
	ensure("rider", err)
	_, err = profiles.RegisterDriver(ctx, driverID, profile.Contact{Name: "Mans", Email: "mans@fleet.kz", Phone: "+77010000002", Vehicle: "Toyota Camry 777ABC02"}, nil)
	ensure("driver", err)
	if _, err := profiles.SetApproval(ctx, driverID, true); err != nil {
		log.Fatalf("seed: approve driver: %v", err)
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, l)
	for _, u := range []models.User{
		{ID: riderID, Role: types.RoleRider},
		{ID: driverID, Role: types.RoleDriver},
		{ID: adminID, Role: types.RoleAdmin},
	} {
		token, err := tokens.Sign(&u, *tokenTTL)
		if err != nil {
			log.Fatalf("seed: sign %s token: %v", u.Role, err)
		}
		fmt.Printf("%-6s %s\n%s\n\n", u.Role, u.ID, token)
	}
}

// ensure tolerates profiles left by an earlier run.
func ensure(what string, err error) {
	switch {
	case err == nil:
		log.Printf("seed: %s registered", what)
	case errors.Is(err, types.ErrConflict):
		log.Printf("seed: %s already exists", what)
	default:
		log.Fatalf("seed: register %s: %v", what, err)
	}
}
