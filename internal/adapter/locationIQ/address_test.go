package locationIQ

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/reverse", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "43.238949", r.URL.Query().Get("lat"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"display_name":"Abay Ave 1, Almaty"}`))
	}))
	defer srv.Close()

	c := New("secret", time.Second).WithDomain(srv.URL)
	addr, err := c.ReverseGeocode(context.Background(), 43.238949, 76.889709)
	require.NoError(t, err)
	assert.Equal(t, "Abay Ave 1, Almaty", addr)
}

func TestReverseGeocodeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "0" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New("secret", time.Second).WithDomain(srv.URL)

	_, err := c.ReverseGeocode(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrLocationNotFound)

	_, err = c.ReverseGeocode(context.Background(), 1, 1)
	assert.ErrorContains(t, err, "429")
}
