package middleware

import (
	"net/http"
	"strings"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
)

// always reachable, even in maintenance mode
var maintenanceExempt = []string{"/admin/", "/health", "/metrics", "/swagger/"}

// Maintenance loads the runtime settings once per request and injects them into
// the context. While maintenance mode is on, every route outside the admin
// surface answers 503.
func (m *Middleware) Maintenance(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		settings, err := m.settings.Get(ctx)
		if err != nil {
			m.log.Error(wrap.ErrorCtx(wrap.WithAction(ctx, "load_settings"), err), "failed to load settings, using defaults", err)
			settings = models.DefaultSettings()
		}

		if settings.MaintenanceMode && !exempt(r.URL.Path) {
			w.Header().Set("Retry-After", "120")
			errorResponse(w, http.StatusServiceUnavailable, types.ErrMaintenance.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(models.WithSettings(ctx, settings)))
	})
}

func exempt(path string) bool {
	for _, prefix := range maintenanceExempt {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
