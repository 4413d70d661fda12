package locationIQ

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
)

var (
	ErrLocationNotFound = errors.New("location not found")
)

const defaultDomain = "https://us1.locationiq.com"

// LocationIQClient resolves addresses for ride endpoints.
type LocationIQClient struct {
	apiKey string
	domain string
	http   *http.Client
}

func New(apiKey string, timeout time.Duration) *LocationIQClient {
	return &LocationIQClient{
		apiKey: apiKey,
		domain: defaultDomain,
		http:   &http.Client{Timeout: timeout},
	}
}

// WithDomain points the client at another host, e.g. a regional endpoint.
func (c *LocationIQClient) WithDomain(domain string) *LocationIQClient {
	c.domain = domain
	return c
}

type AddressPayload struct {
	Address string `json:"display_name"`
}

// ReverseGeocode returns the display name of the place at the coordinates.
func (c *LocationIQClient) ReverseGeocode(ctx context.Context, latitude, longitude float64) (string, error) {
	const op = "LocationIQClient.ReverseGeocode"
	ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("format", "json")

	var payload AddressPayload
	if err := c.get(ctx, "/v1/reverse?"+q.Encode(), &payload); err != nil {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	if payload.Address == "" {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, ErrLocationNotFound))
	}
	return payload.Address, nil
}

func (c *LocationIQClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.domain+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request to LocationIQ: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrLocationNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected response status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode data from LocationIQ response: %w", err)
	}
	return nil
}
