package ports

import (
	"context"

	"thientai/internal/domain/risk"
)

// WeatherSource fetches already-computed meteorological aggregates for a
// point. Retry and timeout policy live behind this interface, not in the
// core; a failed fetch simply means no data this cycle.
type WeatherSource interface {
	FetchWeather(ctx context.Context, lat, lon float64) (risk.WeatherInput, error)
}

// StormTrack is one active storm as reported by the track source.
type StormTrack struct {
	ID          string
	Lat         float64
	Lon         float64
	WindKmh     float64
	AlertLevel  int
	Description string
}

// StormSource fetches the active storm tracks used for the storm
// sub-score.
type StormSource interface {
	FetchStormTracks(ctx context.Context) ([]StormTrack, error)
}

// Geocoder resolves coordinates to display labels. Optional; the core
// only uses it to title new locations.
type Geocoder interface {
	ResolveAddress(ctx context.Context, lat, lon float64) (title, subtitle string, err error)
}
