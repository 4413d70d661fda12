package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/internal/service/auth"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSettings struct {
	st  models.Settings
	err error
}

func (s staticSettings) Get(context.Context) (models.Settings, error) {
	return s.st, s.err
}

func newMiddleware(st staticSettings) (*Middleware, *auth.TokenService) {
	log := logger.New(io.Discard, "test", logger.LevelError)
	tokens := auth.NewTokenService("secret", log)
	return NewMiddleware(tokens, st, log), tokens
}

func TestAuthInjectsUser(t *testing.T) {
	m, tokens := newMiddleware(staticSettings{})
	user := &models.User{ID: uuid.New(), Role: types.RoleDriver}
	token, err := tokens.Sign(user, time.Minute)
	require.NoError(t, err)

	var got *models.User
	h := m.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = models.UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, types.RoleDriver, got.Role)

	rec := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token "+token)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoles(t *testing.T) {
	m, _ := newMiddleware(staticSettings{})
	h := m.RequireRoles(func(w http.ResponseWriter, r *http.Request) {}, types.RoleAdmin)

	serve := func(u *models.User) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h.ServeHTTP(rec, req.WithContext(models.WithUser(req.Context(), u)))
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(models.AnonymousUser()))
	assert.Equal(t, http.StatusForbidden, serve(&models.User{ID: uuid.New(), Role: types.RoleRider}))
	assert.Equal(t, http.StatusOK, serve(&models.User{ID: uuid.New(), Role: types.RoleAdmin}))
}

func TestMaintenance(t *testing.T) {
	m, _ := newMiddleware(staticSettings{st: models.Settings{MaintenanceMode: true, LocationFrequency: 7}})

	var freq int
	h := m.Maintenance(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		freq = models.SettingsFromContext(r.Context()).LocationFrequency
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rides/without-driver", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/settings", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, freq)
}

func TestMaintenanceFallsBackToDefaults(t *testing.T) {
	m, _ := newMiddleware(staticSettings{err: errors.New("store down")})

	var st models.Settings
	h := m.Maintenance(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st = models.SettingsFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rides/without-driver", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultSettings(), st)
}

func TestRequestID(t *testing.T) {
	m, _ := newMiddleware(staticSettings{})

	var seen string
	h := m.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = wrap.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestRecover(t *testing.T) {
	m, _ := newMiddleware(staticSettings{})
	h := m.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "nil map")
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	m, _ := newMiddleware(staticSettings{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rides/{ride_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	var route string
	capture := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			route = *r.Context().Value(routeCtxKey{}).(*string)
		})
	}

	rec := httptest.NewRecorder()
	m.Metrics("test")(capture(Route(mux))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rides/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "GET /rides/{ride_id}", route)
}
