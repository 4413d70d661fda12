package ridecalc

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/validator"
)

const earthRadiusM = 6371000.0

type CalculatorImpl struct{}

func New() *CalculatorImpl {
	return &CalculatorImpl{}
}

// ComputeFare prices a trip: base fee plus distance times the per-km rate plus tip.
// Every component and the total are rounded to cents.
func (c *CalculatorImpl) ComputeFare(distanceKm, baseFee, perKmRate, tip float64) (models.Fare, error) {
	return ComputeFare(distanceKm, baseFee, perKmRate, tip)
}

func ComputeFare(distanceKm, baseFee, perKmRate, tip float64) (models.Fare, error) {
	switch {
	case !validator.Finite(distanceKm) || distanceKm < 0:
		return models.Fare{}, fmt.Errorf("%w: distance must be a non-negative number", types.ErrValidation)
	case !validator.Finite(baseFee) || baseFee < 0:
		return models.Fare{}, fmt.Errorf("%w: base fee must be a non-negative number", types.ErrValidation)
	case !validator.Finite(perKmRate) || perKmRate < 0:
		return models.Fare{}, fmt.Errorf("%w: per-km rate must be a non-negative number", types.ErrValidation)
	case !validator.Finite(tip) || tip < 0:
		return models.Fare{}, fmt.Errorf("%w: tip must be a non-negative number", types.ErrValidation)
	}

	base := models.RoundMoney(baseFee)
	distanceFare := models.RoundMoney(distanceKm * perKmRate)
	tip = models.RoundMoney(tip)

	return models.Fare{
		BaseFare:     base,
		DistanceFare: distanceFare,
		TipAmount:    tip,
		TotalAmount:  models.RoundMoney(base + distanceFare + tip),
	}, nil
}

// WithTip re-totals a quoted fare with the given tip.
func WithTip(quote models.Fare, tip float64) (models.Fare, error) {
	if !validator.Finite(tip) || tip < 0 {
		return models.Fare{}, fmt.Errorf("%w: tip must be a non-negative number", types.ErrValidation)
	}
	tip = models.RoundMoney(tip)
	return models.Fare{
		BaseFare:     quote.BaseFare,
		DistanceFare: quote.DistanceFare,
		TipAmount:    tip,
		TotalAmount:  models.RoundMoney(quote.BaseFare + quote.DistanceFare + tip),
	}, nil
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-eE+]`)

// ParseDistance accepts "12.5", "12.5 km" or "12,5km" and returns kilometres.
func ParseDistance(raw string) (float64, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	s = strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(s), "km"), "kms")
	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" {
		return 0, fmt.Errorf("%w: distance must be provided", types.ErrValidation)
	}

	d, err := strconv.ParseFloat(s, 64)
	if err != nil || !validator.Finite(d) {
		return 0, fmt.Errorf("%w: distance %q is not a number", types.ErrValidation, raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: distance must be non-negative", types.ErrValidation)
	}
	return d, nil
}

// DistanceMeters is the haversine distance between two points in metres.
func (c *CalculatorImpl) DistanceMeters(p1, p2 models.Location) float64 {
	lat1 := p1.Latitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	dLat := (p2.Latitude - p1.Latitude) * math.Pi / 180
	dLng := (p2.Longitude - p1.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
