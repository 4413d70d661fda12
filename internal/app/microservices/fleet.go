package microservices

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Temutjin2k/fleet-ledger/config"
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/handler"
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/middleware"
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/server"
	wshandler "github.com/Temutjin2k/fleet-ledger/internal/adapter/http/ws"
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/locationIQ"
	rabbitadapter "github.com/Temutjin2k/fleet-ledger/internal/adapter/rabbit"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/internal/service/auth"
	ridecalc "github.com/Temutjin2k/fleet-ledger/internal/service/calculator"
	"github.com/Temutjin2k/fleet-ledger/internal/service/ledger"
	"github.com/Temutjin2k/fleet-ledger/internal/service/profile"
	"github.com/Temutjin2k/fleet-ledger/internal/service/receipt"
	"github.com/Temutjin2k/fleet-ledger/internal/service/ride"
	"github.com/Temutjin2k/fleet-ledger/internal/service/settings"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/rabbit"
	hub "github.com/Temutjin2k/fleet-ledger/pkg/wsHub"
)

// FleetService runs one HTTP surface of the fleet: the ride API, the driver
// API, the admin API or all of them at once. The mode only decides which
// routes are mounted and which port is used; every mode shares the same
// store, services and broker wiring.
type FleetService struct {
	mode types.ServiceMode

	store      *entityStore
	rabbit     *rabbit.RabbitMQ
	connHub    *hub.ConnectionHub
	httpServer *server.API

	rides    *ride.RideService
	consumer *rabbitadapter.LocationConsumer
	wg       sync.WaitGroup

	cfg config.Config
	log logger.Logger
}

func NewFleet(ctx context.Context, cfg config.Config, log logger.Logger) (*FleetService, error) {
	s := &FleetService{
		mode: cfg.Mode,
		cfg:  cfg,
		log:  log,
	}

	if err := s.init(ctx); err != nil {
		s.close(ctx)
		return nil, err
	}

	return s, nil
}

func (s *FleetService) init(ctx context.Context) error {
	store, err := openStore(ctx, s.cfg, s.log)
	if err != nil {
		return err
	}
	s.store = store

	var (
		ridePublisher   ride.EventPublisher
		ledgerPublisher ledger.EventPublisher
	)
	if s.cfg.RabbitMQ.Enabled {
		s.rabbit, err = rabbit.New(ctx, s.cfg.RabbitMQ.GetDSN(), s.log)
		if err != nil {
			s.log.Error(ctx, "Failed to connect to rabbitmq", err)
			return err
		}
		if err := s.rabbit.DeclareTopology(rabbitadapter.Exchanges, rabbitadapter.Bindings); err != nil {
			s.log.Error(ctx, "Failed to declare rabbitmq topology", err)
			return err
		}

		producer := rabbitadapter.NewProducer(s.rabbit, s.log)
		ridePublisher = producer
		ledgerPublisher = producer
		if s.servesRides() {
			s.consumer = rabbitadapter.NewLocationConsumer(s.rabbit, s.log)
		}
	}

	var addresses ride.AddressResolver
	if key := s.cfg.ExternalAPIConfig.LocationIQapiKey; key != "" {
		addresses = locationIQ.New(key, s.cfg.ExternalAPIConfig.Timeout)
	}

	s.connHub = hub.NewConnHub(s.log)
	calculator := ridecalc.New()

	ledgerService := ledger.NewService(store.ledger, store.drivers, ledgerPublisher, store.trm, s.log)
	receiptService := receipt.NewService(store.receipts, store.rides, receipt.Config{
		NumberPrefix: s.cfg.Receipt.NumberPrefix,
		MaxAttempts:  s.cfg.Receipt.MaxAttempts,
		Currency:     s.cfg.Fare.Currency,
	}, s.log)
	s.rides = ride.NewRideService(ride.Deps{
		Rides:     store.rides,
		Drivers:   store.drivers,
		Riders:    store.riders,
		Fares:     calculator,
		Geo:       calculator,
		Ledger:    ledgerService,
		Receipts:  receiptService,
		Addresses: addresses,
		Publisher: ridePublisher,
		Notifier:  wshandler.NewNotifier(s.connHub, s.log),
		Trm:       store.trm,
	}, ride.Policy{
		AutoComplete:        s.cfg.Ride.AutoComplete,
		ArrivalRadiusMeters: s.cfg.Ride.ArrivalRadiusMeters,
		RequireApproval:     s.cfg.Ride.RequireApproval,
	}, s.log)
	profileService := profile.NewService(store.drivers, store.riders, models.Pricing{
		BaseFee:   s.cfg.Fare.BaseFee,
		PerKmRate: s.cfg.Fare.PerKm,
	}, s.log)
	settingsService := settings.NewService(store.settings, s.log)
	tokens := auth.NewTokenService(s.cfg.Auth.JWTSecret, s.log)

	s.httpServer, err = server.New(s.mode, s.cfg.Port(s.mode), server.Handlers{
		Health:  handler.NewHealth("fleet-"+string(s.mode), store.pinger, s.log),
		Profile: handler.NewProfile(profileService, s.log),
		Ride:    handler.NewRide(s.rides, s.log),
		Ledger:  handler.NewLedger(ledgerService, s.log),
		Receipt: handler.NewReceipt(receiptService, s.rides, s.log),
		Admin:   handler.NewAdmin(settingsService, s.log),
		WS:      wshandler.NewHandler(s.connHub, s.rides, s.log),
	}, middleware.NewMiddleware(tokens, settingsService, s.log), s.log)
	if err != nil {
		s.log.Error(ctx, "Failed to setup http server", err)
		return err
	}

	return nil
}

func (s *FleetService) servesRides() bool {
	return s.mode == types.ModeRide || s.mode == types.ModeAll
}

func (s *FleetService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	s.startConsumer(ctx)
	defer func() {
		cancel()
		s.wg.Wait()
		s.close(ctx)
		s.log.Info(ctx, "fleet service closed", "mode", s.mode)
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "fleet service started", "mode", s.mode, "store", s.cfg.Store.Driver, "rabbitmq", s.rabbit != nil)

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

// startConsumer feeds broker location updates into the same state machine
// the HTTP and WebSocket paths use.
func (s *FleetService) startConsumer(ctx context.Context) {
	if s.consumer == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.consumer.Consume(ctx, func(ctx context.Context, msg models.LocationUpdateMessage) error {
			_, _, err := s.rides.UpdateGPS(ctx, msg.RideID, msg.Party, msg.Location)
			return err
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error(wrap.WithAction(ctx, "location_consumer"), "location consumer stopped", err)
		}
	}()
}

func (s *FleetService) close(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if s.connHub != nil {
		s.connHub.Close()
	}

	if s.rabbit != nil {
		if err := s.rabbit.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to close rabbitmq connection", "error", err.Error())
		}
	}

	if s.store != nil {
		s.store.close()
	}
}
