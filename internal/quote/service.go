// README: Fare quote orchestration: city resolution, driving distance, tariff
// composition.
package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"swiftcab/internal/cities"
	"swiftcab/internal/fare"
	"swiftcab/internal/geo"
	"swiftcab/internal/types"
)

var ErrValidation = errors.New("invalid quote request")

// Request is a fare quote inquiry. Locations may carry coordinates directly
// or just a city name for registry lookup.
type Request struct {
	Pickup   types.LocationPoint
	Drop     types.LocationPoint
	CabType  fare.CabType
	TripType fare.TripType
}

// Quote is the itemised fare plus distance provenance and a duration
// estimate.
type Quote struct {
	DistanceKm             float64        `json:"distance_km"`
	DistanceRouted         bool           `json:"distance_routed"`
	DistanceSource         string         `json:"distance_source"`
	EstimatedDurationHours float64        `json:"estimated_duration_hours"`
	Fare                   fare.Breakdown `json:"fare"`
	CabType                fare.CabType   `json:"cab_type"`
	TripType               fare.TripType  `json:"trip_type"`
}

type Service struct {
	registry  *cities.Registry
	estimator *geo.Estimator
	log       *slog.Logger
}

func NewService(registry *cities.Registry, estimator *geo.Estimator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{registry: registry, estimator: estimator, log: log}
}

// Quote prices a prospective trip. It does not touch booking state.
func (s *Service) Quote(ctx context.Context, req Request) (*Quote, error) {
	if !req.TripType.Valid() {
		return nil, fmt.Errorf("%w: trip_type must be one-way or round-trip", ErrValidation)
	}
	tariff, ok := fare.TariffFor(req.CabType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown cab_type %q", ErrValidation, req.CabType)
	}

	origin, err := s.resolve(ctx, req.Pickup)
	if err != nil {
		return nil, fmt.Errorf("%w: pickup: %v", ErrValidation, err)
	}
	dest, err := s.resolve(ctx, req.Drop)
	if err != nil {
		return nil, fmt.Errorf("%w: drop: %v", ErrValidation, err)
	}

	est := s.estimator.Estimate(ctx, origin, dest)
	breakdown := fare.Compose(est.Km, tariff.PricePerKm, tariff.BasePrice, req.TripType)

	return &Quote{
		DistanceKm:             est.Km,
		DistanceRouted:         est.Routed,
		DistanceSource:         est.Source,
		EstimatedDurationHours: round2(est.Km / tariff.AvgSpeedKmph),
		Fare:                   breakdown,
		CabType:                req.CabType,
		TripType:               req.TripType,
	}, nil
}

// QuoteTrip satisfies the booking service's fare dependency.
func (s *Service) QuoteTrip(ctx context.Context, pickup, drop types.LocationPoint, cab fare.CabType, trip fare.TripType) (fare.Breakdown, geo.DrivingEstimate, error) {
	q, err := s.Quote(ctx, Request{Pickup: pickup, Drop: drop, CabType: cab, TripType: trip})
	if err != nil {
		return fare.Breakdown{}, geo.DrivingEstimate{}, err
	}
	est := geo.DrivingEstimate{Km: q.DistanceKm, Routed: q.DistanceRouted, Source: q.DistanceSource}
	return q.Fare, est, nil
}

// resolve returns the point's coordinate, falling back to a city-registry
// lookup when none is present. The zero coordinate is treated as unset.
func (s *Service) resolve(ctx context.Context, p types.LocationPoint) (types.Coordinate, error) {
	if p.Coord != (types.Coordinate{}) {
		if err := p.Coord.Validate(); err != nil {
			return types.Coordinate{}, err
		}
		return p.Coord, nil
	}
	if p.City == "" {
		return types.Coordinate{}, fmt.Errorf("coordinates or city name required")
	}
	if s.registry == nil {
		return types.Coordinate{}, fmt.Errorf("no city registry to resolve %q", p.City)
	}
	c, err := s.registry.Resolve(ctx, p.City)
	if err != nil {
		return types.Coordinate{}, err
	}
	return c.Coord, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
