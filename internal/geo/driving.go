// README: Driving distance estimation; routed via Google Maps when available,
// road-factor approximation otherwise.
package geo

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"swiftcab/internal/types"
)

// DefaultRoadFactor approximates road distance over the straight line when no
// routing backend is reachable.
const DefaultRoadFactor = 1.3

const (
	SourceRoadFactor = "road_factor"
	SourceGoogleMaps = "google_maps"
)

// DrivingEstimate is a driving distance with its provenance. Routed is true
// only for a real routed distance; a road-factor approximation is a degraded
// mode and must stay distinguishable in output.
type DrivingEstimate struct {
	Km     float64 `json:"distance_km"`
	Routed bool    `json:"routed"`
	Source string  `json:"source"`
}

// Router resolves driving distance between two coordinates.
type Router interface {
	DrivingKm(ctx context.Context, origin, dest types.Coordinate) (float64, error)
}

// Estimator computes driving estimates, degrading to a road-factor multiple of
// the great-circle distance when no router is configured or the router fails.
type Estimator struct {
	router     Router
	roadFactor float64
}

func NewEstimator(router Router, roadFactor float64) *Estimator {
	if roadFactor <= 0 {
		roadFactor = DefaultRoadFactor
	}
	return &Estimator{router: router, roadFactor: roadFactor}
}

func (e *Estimator) Estimate(ctx context.Context, origin, dest types.Coordinate) DrivingEstimate {
	if e.router != nil {
		if km, err := e.router.DrivingKm(ctx, origin, dest); err == nil {
			return DrivingEstimate{Km: round2(km), Routed: true, Source: SourceGoogleMaps}
		}
	}
	straight := DistanceKm(origin, dest)
	return DrivingEstimate{Km: round2(straight * e.roadFactor), Routed: false, Source: SourceRoadFactor}
}

// MapsRouter resolves routed driving distance through the Google Maps
// Directions API.
type MapsRouter struct {
	client *maps.Client
}

func NewMapsRouter(apiKey string) (*MapsRouter, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &MapsRouter{client: client}, nil
}

func (r *MapsRouter) DrivingKm(ctx context.Context, origin, dest types.Coordinate) (float64, error) {
	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", dest.Lat, dest.Lng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := r.client.Directions(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}

	meters := 0
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
	}
	return float64(meters) / 1000.0, nil
}
