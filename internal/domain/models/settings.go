package models

import (
	"context"
	"time"
)

// Settings are runtime switches editable by admins.
type Settings struct {
	MaintenanceMode   bool      `json:"maintenance_mode"`
	LocationFrequency int       `json:"location_frequency"` // seconds between location pushes
	UpdatedAt         time.Time `json:"updated_at"`
}

func DefaultSettings() Settings {
	return Settings{LocationFrequency: 5}
}

type settingsCtxKey struct{}

// WithSettings stores the settings snapshot loaded for the current request.
func WithSettings(ctx context.Context, s Settings) context.Context {
	return context.WithValue(ctx, settingsCtxKey{}, s)
}

// SettingsFromContext returns the request's settings snapshot or the defaults.
func SettingsFromContext(ctx context.Context) Settings {
	if s, ok := ctx.Value(settingsCtxKey{}).(Settings); ok {
		return s
	}
	return DefaultSettings()
}
