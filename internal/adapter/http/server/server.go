package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/handler"
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/middleware"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
)

const serverIPAddress = "%s:%s"

type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes Handlers
	m      *middleware.Middleware

	name string
	addr string
	log  logger.Logger
}

// Handlers are the route groups the API can serve. Groups outside the
// configured mode may be left nil.
type Handlers struct {
	Health  *handler.Health
	Profile *handler.Profile
	Ride    *handler.Ride
	Ledger  *handler.Ledger
	Receipt *handler.Receipt
	Admin   *handler.Admin
	WS      http.Handler
}

func New(mode types.ServiceMode, port string, routes Handlers, m *middleware.Middleware, log logger.Logger) (*API, error) {
	if routes.Health == nil {
		return nil, errors.New("health handler is required")
	}
	if m == nil {
		return nil, errors.New("middleware is required")
	}

	api := &API{
		mode:   mode,
		mux:    http.NewServeMux(),
		routes: routes,
		m:      m,
		name:   "fleet-" + string(mode),
		addr:   fmt.Sprintf(serverIPAddress, "0.0.0.0", port),
		log:    log,
	}

	if err := api.setupRoutes(); err != nil {
		return nil, err
	}

	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.withMiddleware(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}

	return api, nil
}

// Handler is the full middleware chain in front of the routes.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr, "mode", a.mode)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// withMiddleware applies middlewares to the mux. Maintenance runs after Auth
// so the settings it injects sit next to the caller identity.
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(
		a.m.RequestID(
			a.m.Logging(
				a.m.Metrics(a.name)(
					a.m.Auth(
						a.m.Maintenance(
							middleware.Route(a.mux),
						),
					),
				),
			),
		),
	)
}
