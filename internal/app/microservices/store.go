package microservices

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/fleet-ledger/config"
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/handler"
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/memory"
	repo "github.com/Temutjin2k/fleet-ledger/internal/adapter/postgres"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/internal/service/ledger"
	"github.com/Temutjin2k/fleet-ledger/internal/service/profile"
	"github.com/Temutjin2k/fleet-ledger/internal/service/receipt"
	"github.com/Temutjin2k/fleet-ledger/internal/service/ride"
	"github.com/Temutjin2k/fleet-ledger/internal/service/settings"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	"github.com/Temutjin2k/fleet-ledger/pkg/postgres"
	"github.com/Temutjin2k/fleet-ledger/pkg/trm"
)

type driverStore interface {
	ride.DriverRepo
	profile.DriverRepo
}

type riderStore interface {
	ride.RiderRepo
	profile.RiderRepo
}

// entityStore is the set of repositories every service draws from, backed
// either by Postgres or by the in-process store.
type entityStore struct {
	rides    ride.RideRepo
	drivers  driverStore
	riders   riderStore
	ledger   ledger.Repo
	receipts receipt.Repo
	settings settings.Repo
	trm      trm.TxManager
	pinger   handler.Pinger

	postgresDB *postgres.PostgreDB
}

func openStore(ctx context.Context, cfg config.Config, log logger.Logger) (*entityStore, error) {
	switch cfg.Store.Driver {
	case types.StoreMemory:
		log.Warn(ctx, "using in-memory store, data is lost on restart")
		s := memory.New()
		return &entityStore{
			rides:    s.Rides(),
			drivers:  s.Drivers(),
			riders:   s.Riders(),
			ledger:   s.Ledger(),
			receipts: s.Receipts(),
			settings: s.Settings(),
			trm:      s,
			pinger:   s,
		}, nil
	case types.StorePostgres:
		db, err := postgres.New(ctx, cfg.Database)
		if err != nil {
			log.Error(ctx, "Failed to setup database", err)
			return nil, err
		}

		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db.Pool, repo.Migrations, repo.MigrationsDir); err != nil {
				db.Pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info(ctx, "database schema is up to date")
		}

		return &entityStore{
			rides:      repo.NewRideRepo(db.Pool),
			drivers:    repo.NewDriverRepo(db.Pool),
			riders:     repo.NewRiderRepo(db.Pool),
			ledger:     repo.NewLedgerRepo(db.Pool),
			receipts:   repo.NewReceiptRepo(db.Pool),
			settings:   repo.NewSettingsRepo(db.Pool),
			trm:        trm.New(db.Pool),
			pinger:     db.Pool,
			postgresDB: db,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidStore, cfg.Store.Driver)
	}
}

func (s *entityStore) close() {
	if s.postgresDB != nil && s.postgresDB.Pool != nil {
		s.postgresDB.Pool.Close()
	}
}
