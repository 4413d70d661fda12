package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/handler"
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/http/middleware"
	wshandler "github.com/Temutjin2k/fleet-ledger/internal/adapter/http/ws"
	"github.com/Temutjin2k/fleet-ledger/internal/adapter/memory"
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
	hub "github.com/Temutjin2k/fleet-ledger/pkg/wsHub"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	tokens  *auth.TokenService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := logger.New(io.Discard, "test", logger.LevelError)
	store := memory.New()
	tokens := auth.NewTokenService("test-secret", log)

	ledgerService := ledger.NewService(store.Ledger(), store.Drivers(), nil, store, log)
	receiptService := receipt.NewService(store.Receipts(), store.Rides(), receipt.Config{NumberPrefix: "FLEET", MaxAttempts: 3, Currency: "USD"}, log)
	rideService := ride.NewRideService(ride.Deps{
		Rides:    store.Rides(),
		Drivers:  store.Drivers(),
		Riders:   store.Riders(),
		Fares:    ridecalc.New(),
		Geo:      ridecalc.New(),
		Ledger:   ledgerService,
		Receipts: receiptService,
		Trm:      store,
	}, ride.Policy{AutoComplete: true, ArrivalRadiusMeters: 50}, log)
	profileService := profile.NewService(store.Drivers(), store.Riders(), models.Pricing{BaseFee: 2, PerKmRate: 1.5}, log)
	settingsService := settings.NewService(store.Settings(), log)

	api, err := New(types.ModeAll, "0", Handlers{
		Health:  handler.NewHealth("fleet-all", store, log),
		Profile: handler.NewProfile(profileService, log),
		Ride:    handler.NewRide(rideService, log),
		Ledger:  handler.NewLedger(ledgerService, log),
		Receipt: handler.NewReceipt(receiptService, rideService, log),
		Admin:   handler.NewAdmin(settingsService, log),
		WS:      wshandler.NewHandler(hub.NewConnHub(log), rideService, log),
	}, middleware.NewMiddleware(tokens, settingsService, log), log)
	require.NoError(t, err)

	return &testAPI{t: t, handler: api.Handler(), tokens: tokens}
}

func (a *testAPI) user(role types.UserRole) *models.User {
	return &models.User{ID: uuid.New(), Role: role}
}

func (a *testAPI) do(method, path string, user *models.User, body any) (int, map[string]any) {
	a.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		js, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(js)
	}

	req := httptest.NewRequest(method, path, reader)
	if user != nil {
		token, err := a.tokens.Sign(user, time.Hour)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func field(m map[string]any, keys ...string) any {
	var v any = m
	for _, k := range keys {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = obj[k]
	}
	return v
}

// register creates a rider and a driver with the default rates.
func (a *testAPI) register() (*models.User, *models.User) {
	a.t.Helper()
	rider, driver := a.user(types.RoleRider), a.user(types.RoleDriver)

	code, _ := a.do(http.MethodPost, "/riders", rider, map[string]any{"name": "Dana", "email": "dana@example.com"})
	require.Equal(a.t, http.StatusCreated, code)
	code, _ = a.do(http.MethodPost, "/drivers", driver, map[string]any{"name": "Arman", "email": "arman@example.com", "vehicle": "Camry"})
	require.Equal(a.t, http.StatusCreated, code)
	return rider, driver
}

func (a *testAPI) propose(rider *models.User) string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/rides", rider, map[string]any{
		"start_location": map[string]any{"latitude": 43.25, "longitude": 76.92, "address": "Dostyk Ave 5"},
		"end_location":   map[string]any{"latitude": 43.238949, "longitude": 76.889709, "address": "Abay Ave 1"},
		"distance":       "10 km",
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	return field(body, "ride", "id").(string)
}

func TestRideLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	rider, driver := api.register()
	rideID := api.propose(rider)

	code, body := api.do(http.MethodGet, "/rides/without-driver", driver, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["rides"], 1)

	code, body = api.do(http.MethodPost, "/rides/"+rideID+"/confirm", driver, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "DRIVER_SELECTED", field(body, "ride", "status"))
	assert.Equal(t, 17.0, field(body, "ride", "fare", "total_amount"))

	code, _ = api.do(http.MethodPost, "/rides/"+rideID+"/start", driver, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = api.do(http.MethodPost, "/rides/"+rideID+"/finish", driver, map[string]any{"tip": 3})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "FINISHED", field(body, "ride", "status"))
	assert.Equal(t, 20.0, field(body, "ride", "fare", "total_amount"))

	code, body = api.do(http.MethodGet, "/drivers/"+driver.ID.String()+"/earnings", driver, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 20.0, field(body, "ledger", "total_earnings"))
	assert.Equal(t, 20.0, field(body, "ledger", "available_balance"))

	code, first := api.do(http.MethodPost, "/receipts", rider, map[string]any{"ride_id": rideID})
	require.Equal(t, http.StatusOK, code, first)
	number, _ := field(first, "receipt", "receipt_number").(string)
	assert.Regexp(t, regexp.MustCompile(`^FLEET-\d{8}-\d{4}$`), number)

	_, second := api.do(http.MethodPost, "/receipts", rider, map[string]any{"ride_id": rideID})
	assert.Equal(t, number, field(second, "receipt", "receipt_number"))

	code, body = api.do(http.MethodGet, "/receipts/rides/"+rideID, driver, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Dostyk Ave 5", field(body, "receipt", "pickup"))

	code, body = api.do(http.MethodPost, "/rides/"+rideID+"/cancel", rider, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.NotEmpty(t, body["error"])
}

func TestReceiptForRideWithoutRecord(t *testing.T) {
	api := newTestAPI(t)
	rider, driver := api.register()
	rideID := uuid.NewString()

	code, _ := api.do(http.MethodPost, "/receipts", rider, map[string]any{"ride_id": rideID, "rider_id": uuid.NewString()})
	assert.Equal(t, http.StatusForbidden, code, "a rider cannot receipt someone else's ride")

	code, body := api.do(http.MethodPost, "/receipts", rider, map[string]any{
		"ride_id":        rideID,
		"driver_id":      driver.ID,
		"payment_method": "Cash",
		"pickup":         "A",
		"dropoff":        "B",
		"base_fare":      2,
		"distance_fare":  15,
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, rider.ID.String(), field(body, "receipt", "rider_id"))
	assert.Equal(t, driver.ID.String(), field(body, "receipt", "driver_id"))
	assert.Equal(t, 17.0, field(body, "receipt", "fare", "total_amount"))

	code, body = api.do(http.MethodGet, "/receipts/drivers/"+driver.ID.String(), driver, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["receipts"], 1)
}

func TestDriverApprovalOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	_, driver := api.register()
	admin := api.user(types.RoleAdmin)

	code, body := api.do(http.MethodGet, "/admin/drivers", admin, nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["drivers"], 1)
	assert.Equal(t, false, field(body["drivers"].([]any)[0].(map[string]any), "approved"))

	path := "/admin/drivers/" + driver.ID.String() + "/approval"
	code, _ = api.do(http.MethodPut, path, driver, map[string]any{"approved": true})
	assert.Equal(t, http.StatusForbidden, code, "drivers cannot approve themselves")

	code, _ = api.do(http.MethodPut, path, admin, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, body = api.do(http.MethodPut, path, admin, map[string]any{"approved": true})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, field(body, "driver", "approved"))

	code, _ = api.do(http.MethodPut, "/admin/drivers/"+uuid.NewString()+"/approval", admin, map[string]any{"approved": true})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAccessControl(t *testing.T) {
	api := newTestAPI(t)
	rider, driver := api.register()
	rideID := api.propose(rider)

	code, _ := api.do(http.MethodGet, "/rides/"+rideID, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	req := httptest.NewRequest(http.MethodGet, "/rides/"+rideID, nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	code, _ = api.do(http.MethodPost, "/rides", driver, map[string]any{})
	assert.Equal(t, http.StatusForbidden, code, "drivers cannot propose rides")

	code, _ = api.do(http.MethodGet, "/rides/"+rideID, api.user(types.RoleRider), nil)
	assert.Equal(t, http.StatusForbidden, code, "strangers cannot read the ride")

	code, _ = api.do(http.MethodGet, "/rides/"+rideID, api.user(types.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodPost, "/rides/"+rideID+"/confirm", driver, nil)
	require.Equal(t, http.StatusOK, code)

	other := api.user(types.RoleDriver)
	code, _ = api.do(http.MethodPost, "/rides/"+rideID+"/start", other, nil)
	assert.Equal(t, http.StatusForbidden, code, "only the assigned driver starts the ride")

	code, _ = api.do(http.MethodGet, "/drivers/"+driver.ID.String()+"/earnings", other, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodPut, "/drivers/"+driver.ID.String()+"/fare", api.user(types.RoleAdmin), map[string]any{"base_fee": 1, "per_km_rate": 1})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRequestErrors(t *testing.T) {
	api := newTestAPI(t)
	rider, driver := api.register()

	code, body := api.do(http.MethodPost, "/rides", rider, `{"distance": `)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "badly-formed JSON")

	code, body = api.do(http.MethodPost, "/rides", rider, map[string]any{"distance": "far"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	errs, _ := body["error"].(map[string]any)
	assert.Contains(t, errs, "distance")
	assert.Contains(t, errs, "start_location")

	code, _ = api.do(http.MethodPost, "/rides/not-a-uuid/confirm", driver, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodPost, "/rides/"+uuid.NewString()+"/confirm", driver, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodPost, "/riders", rider, map[string]any{"name": "Dana", "email": "dana@example.com"})
	assert.Equal(t, http.StatusConflict, code)

	rideID := api.propose(rider)
	code, _ = api.do(http.MethodPost, "/rides/"+rideID+"/finish", driver, nil)
	assert.Equal(t, http.StatusForbidden, code, "driver is not on the ride yet")
}

func TestPayoutsOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	rider, driver := api.register()
	rideID := api.propose(rider)
	for _, step := range []string{"confirm", "start", "finish"} {
		code, body := api.do(http.MethodPost, "/rides/"+rideID+"/"+step, driver, nil)
		require.Equal(t, http.StatusOK, code, body)
	}
	payouts := "/drivers/" + driver.ID.String() + "/payouts"

	code, _ := api.do(http.MethodPost, payouts, driver, map[string]any{"amount": 50})
	assert.Equal(t, http.StatusUnprocessableEntity, code, "17 earned, 50 requested")

	code, body := api.do(http.MethodPost, payouts, driver, map[string]any{"amount": 10})
	require.Equal(t, http.StatusCreated, code, body)
	payoutID := field(body, "payout", "id").(string)
	assert.Equal(t, "AWAITING_PAYOUT", field(body, "payout", "status"))

	admin := api.user(types.RoleAdmin)
	code, body = api.do(http.MethodGet, "/admin/payouts?status=AWAITING_PAYOUT", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["payouts"], 1)
	assert.Equal(t, 1.0, field(body, "metadata", "total_records"))

	code, _ = api.do(http.MethodGet, "/admin/payouts?page=0", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, body = api.do(http.MethodPost, "/admin/payouts/"+payoutID+"/finalize", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PAID", field(body, "payout", "status"))

	code, _ = api.do(http.MethodPost, "/admin/payouts/"+payoutID+"/finalize", admin, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, body = api.do(http.MethodGet, "/drivers/"+driver.ID.String()+"/earnings", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 17.0, field(body, "ledger", "total_earnings"))
	assert.Equal(t, 7.0, field(body, "ledger", "available_balance"))
}

func TestMaintenanceMode(t *testing.T) {
	api := newTestAPI(t)
	rider, _ := api.register()
	admin := api.user(types.RoleAdmin)

	code, _ := api.do(http.MethodPut, "/admin/settings", admin, map[string]any{"maintenance_mode": true})
	require.Equal(t, http.StatusOK, code)

	code, body := api.do(http.MethodGet, "/riders/"+rider.ID.String(), rider, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, types.ErrMaintenance.Error(), body["error"])

	code, _ = api.do(http.MethodGet, "/admin/settings", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodPut, "/admin/settings", admin, map[string]any{"maintenance_mode": false, "location_frequency": 10})
	require.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodGet, "/riders/"+rider.ID.String(), rider, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestLocationUpdatesFinishRide(t *testing.T) {
	api := newTestAPI(t)
	rider, driver := api.register()
	rideID := api.propose(rider)
	for _, step := range []string{"confirm", "start"} {
		code, _ := api.do(http.MethodPost, "/rides/"+rideID+"/"+step, driver, nil)
		require.Equal(t, http.StatusOK, code)
	}
	at := map[string]any{"latitude": 43.238949, "longitude": 76.889709}

	code, body := api.do(http.MethodPost, "/rides/"+rideID+"/location", rider, at)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, false, body["completed"])
	assert.Equal(t, 5.0, body["location_frequency"])

	code, body = api.do(http.MethodPost, "/rides/"+rideID+"/location", driver, at)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["completed"])
	assert.Equal(t, "FINISHED", field(body, "ride", "status"))

	code, _ = api.do(http.MethodPost, "/rides/"+rideID+"/location", driver, at)
	assert.Equal(t, http.StatusConflict, code)
}

func TestModeSelectsRoutes(t *testing.T) {
	log := logger.New(io.Discard, "test", logger.LevelError)
	store := memory.New()
	settingsService := settings.NewService(store.Settings(), log)
	ledgerService := ledger.NewService(store.Ledger(), store.Drivers(), nil, store, log)
	profileService := profile.NewService(store.Drivers(), store.Riders(), models.Pricing{BaseFee: 2, PerKmRate: 1.5}, log)

	_, err := New(types.ModeAdmin, "0", Handlers{
		Health: handler.NewHealth("fleet-admin", store, log),
		Ledger: handler.NewLedger(ledgerService, log),
		Admin:  handler.NewAdmin(settingsService, log),
	}, middleware.NewMiddleware(auth.NewTokenService("s", log), settingsService, log), log)
	assert.Error(t, err, "admin mode without the profile handler")

	api, err := New(types.ModeAdmin, "0", Handlers{
		Health:  handler.NewHealth("fleet-admin", store, log),
		Profile: handler.NewProfile(profileService, log),
		Ledger:  handler.NewLedger(ledgerService, log),
		Admin:   handler.NewAdmin(settingsService, log),
	}, middleware.NewMiddleware(auth.NewTokenService("s", log), settingsService, log), log)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rides/without-driver", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err = New(types.ModeRide, "0", Handlers{Health: handler.NewHealth("fleet-ride", store, log)},
		middleware.NewMiddleware(auth.NewTokenService("s", log), settingsService, log), log)
	assert.Error(t, err, "ride mode without ride handlers")
}
