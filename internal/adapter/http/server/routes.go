package server

import (
	"fmt"

	_ "github.com/Temutjin2k/fleet-ledger/docs"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

const swaggerInstance = "fleet"

// setupRoutes - setups http routes
func (a *API) setupRoutes() error {
	a.mux.HandleFunc("GET /health", a.routes.Health.HealthCheck)
	a.mux.Handle("GET /metrics", promhttp.Handler())
	a.mux.HandleFunc("/swagger/", httpSwagger.Handler(httpSwagger.InstanceName(swaggerInstance)))

	switch a.mode {
	case types.ModeRide:
		return a.setupRideRoutes()
	case types.ModeDriver:
		return a.setupDriverRoutes()
	case types.ModeAdmin:
		return a.setupAdminRoutes()
	case types.ModeAll:
		for _, setup := range []func() error{a.setupRideRoutes, a.setupDriverRoutes, a.setupAdminRoutes} {
			if err := setup(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("invalid mode: %s", a.mode)
	}
}

// setupRideRoutes setups riders, rides, receipts and the live status socket
func (a *API) setupRideRoutes() error {
	h, m := a.routes, a.m
	if h.Profile == nil || h.Ride == nil || h.Receipt == nil || h.WS == nil {
		return fmt.Errorf("mode %s: profile, ride, receipt and websocket handlers are required", a.mode)
	}

	a.mux.Handle("POST /riders", m.RequireRoles(h.Profile.RegisterRider, types.RoleRider))
	a.mux.Handle("GET /riders/{rider_id}", m.RequireRoles(h.Profile.GetRider, types.RoleRider, types.RoleAdmin))
	a.mux.Handle("GET /riders/{rider_id}/recent-ride", m.RequireRoles(h.Ride.RecentRide, types.RoleRider, types.RoleAdmin))

	a.mux.Handle("POST /rides", m.RequireRoles(h.Ride.CreateRide, types.RoleRider))
	a.mux.Handle("GET /rides/without-driver", m.RequireRoles(h.Ride.ListWithoutDriver, types.RoleDriver))
	a.mux.Handle("GET /rides/{ride_id}", m.RequireRoles(h.Ride.GetRide))
	a.mux.Handle("POST /rides/{ride_id}/confirm", m.RequireRoles(h.Ride.ConfirmRide, types.RoleDriver))
	a.mux.Handle("POST /rides/{ride_id}/start", m.RequireRoles(h.Ride.StartRide, types.RoleDriver))
	a.mux.Handle("POST /rides/{ride_id}/finish", m.RequireRoles(h.Ride.FinishRide, types.RoleDriver))
	a.mux.Handle("POST /rides/{ride_id}/cancel", m.RequireRoles(h.Ride.CancelRide, types.RoleRider, types.RoleDriver))
	a.mux.Handle("POST /rides/{ride_id}/location", m.RequireRoles(h.Ride.UpdateLocation, types.RoleRider, types.RoleDriver))

	a.mux.Handle("POST /receipts", m.RequireRoles(h.Receipt.GenerateReceipt))
	a.mux.Handle("GET /receipts/{receipt_id}", m.RequireRoles(h.Receipt.GetReceipt))
	a.mux.Handle("GET /receipts/rides/{ride_id}", m.RequireRoles(h.Receipt.GetRideReceipt))
	a.mux.Handle("GET /receipts/riders/{rider_id}", m.RequireRoles(h.Receipt.ListRiderReceipts, types.RoleRider, types.RoleAdmin))

	a.mux.Handle("GET /ws", m.RequireRoles(h.WS.ServeHTTP, types.RoleRider, types.RoleDriver))
	return nil
}

// setupDriverRoutes setups driver profiles, availability, earnings and payouts
func (a *API) setupDriverRoutes() error {
	h, m := a.routes, a.m
	if h.Profile == nil || h.Ride == nil || h.Ledger == nil || h.Receipt == nil {
		return fmt.Errorf("mode %s: profile, ride, ledger and receipt handlers are required", a.mode)
	}

	a.mux.Handle("POST /drivers", m.RequireRoles(h.Profile.RegisterDriver, types.RoleDriver))
	a.mux.Handle("GET /drivers/online", m.RequireRoles(h.Profile.ListOnlineDrivers, types.RoleRider, types.RoleAdmin))
	a.mux.Handle("GET /drivers/{driver_id}", m.RequireRoles(h.Profile.GetDriver))
	a.mux.Handle("PUT /drivers/{driver_id}/fare", m.RequireRoles(h.Profile.UpdateFare, types.RoleDriver))
	a.mux.Handle("PUT /drivers/{driver_id}/online", m.RequireRoles(h.Profile.SetOnline, types.RoleDriver))
	a.mux.Handle("GET /drivers/{driver_id}/rides", m.RequireRoles(h.Ride.ListDriverRides, types.RoleDriver, types.RoleAdmin))

	a.mux.Handle("GET /drivers/{driver_id}/earnings", m.RequireRoles(h.Ledger.GetEarnings, types.RoleDriver, types.RoleAdmin))
	a.mux.Handle("POST /drivers/{driver_id}/payouts", m.RequireRoles(h.Ledger.RequestPayout, types.RoleDriver))
	a.mux.Handle("GET /drivers/{driver_id}/payouts", m.RequireRoles(h.Ledger.ListDriverPayouts, types.RoleDriver, types.RoleAdmin))

	a.mux.Handle("GET /receipts/drivers/{driver_id}", m.RequireRoles(h.Receipt.ListDriverReceipts, types.RoleDriver, types.RoleAdmin))
	return nil
}

// setupAdminRoutes setups driver approval, payout finalization and runtime settings
func (a *API) setupAdminRoutes() error {
	h, m := a.routes, a.m
	if h.Profile == nil || h.Ledger == nil || h.Admin == nil {
		return fmt.Errorf("mode %s: profile, ledger and admin handlers are required", a.mode)
	}

	a.mux.Handle("GET /admin/drivers", m.RequireRoles(h.Profile.ListDrivers, types.RoleAdmin))
	a.mux.Handle("PUT /admin/drivers/{driver_id}/approval", m.RequireRoles(h.Profile.SetApproval, types.RoleAdmin))

	a.mux.Handle("GET /admin/payouts", m.RequireRoles(h.Ledger.ListPayouts, types.RoleAdmin))
	a.mux.Handle("POST /admin/payouts/{payout_id}/finalize", m.RequireRoles(h.Ledger.FinalizePayout, types.RoleAdmin))
	a.mux.Handle("GET /admin/settings", m.RequireRoles(h.Admin.GetSettings, types.RoleAdmin))
	a.mux.Handle("PUT /admin/settings", m.RequireRoles(h.Admin.UpdateSettings, types.RoleAdmin))
	return nil
}
