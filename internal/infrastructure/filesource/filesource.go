package filesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"thientai/internal/domain/risk"
	"thientai/internal/errs"
	"thientai/internal/ports"
)

// FileSource serves weather observations and storm tracks from a local
// JSON document. It stands in for the live data-source clients, which are
// external collaborators of the engine; the file layout mirrors what
// those clients would deliver.
type FileSource struct {
	path string
}

var (
	_ ports.WeatherSource = (*FileSource)(nil)
	_ ports.StormSource   = (*FileSource)(nil)
	_ ports.Geocoder      = (*FileSource)(nil)
)

func New(path string) *FileSource {
	return &FileSource{path: path}
}

type document struct {
	Observations []observation `json:"observations"`
	Storms       []stormTrack  `json:"storms"`
}

type observation struct {
	Name     string        `json:"name"`
	Province string        `json:"province"`
	Lat      float64       `json:"lat"`
	Lon      float64       `json:"lon"`
	Weather  weatherFields `json:"weather"`
}

type weatherFields struct {
	Temp           float64     `json:"temp"`
	FeelsLike      float64     `json:"feels_like"`
	TempMin        float64     `json:"temp_min"`
	TempMax        float64     `json:"temp_max"`
	Humidity       float64     `json:"humidity"`
	PressureSea    float64     `json:"pressure_sea"`
	PressureGround float64     `json:"pressure_ground"`
	WindSpeed      float64     `json:"wind_speed"`
	WindDir        float64     `json:"wind_dir"`
	WindGusts      float64     `json:"wind_gusts"`
	CloudCover     float64     `json:"cloud_cover"`
	UVIndex        float64     `json:"uv_index"`
	SoilMoisture   float64     `json:"soil_moisture"`
	Rain           rainWindows `json:"rain"`
}

type rainWindows struct {
	H1  float64 `json:"h1"`
	H2  float64 `json:"h2"`
	H3  float64 `json:"h3"`
	H5  float64 `json:"h5"`
	H12 float64 `json:"h12"`
	H24 float64 `json:"h24"`
	D3  float64 `json:"d3"`
	D7  float64 `json:"d7"`
	D14 float64 `json:"d14"`
}

type stormTrack struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	WindKmh     float64 `json:"wind_kmh"`
	AlertLevel  int     `json:"alert_level"`
	Description string  `json:"description"`
}

func (f *FileSource) load() (document, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return document{}, errs.Wrapf(err, "read data file %q", f.path)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return document{}, errs.Wrapf(err, "decode data file %q", f.path)
	}
	return doc, nil
}

// FetchWeather returns the observation closest to the requested point.
func (f *FileSource) FetchWeather(ctx context.Context, lat, lon float64) (risk.WeatherInput, error) {
	if ctx == nil {
		return risk.WeatherInput{}, errors.New("context is required")
	}

	doc, err := f.load()
	if err != nil {
		return risk.WeatherInput{}, err
	}
	if len(doc.Observations) == 0 {
		return risk.WeatherInput{}, fmt.Errorf("no observations in %q", f.path)
	}

	best := doc.Observations[0]
	bestDist := risk.Haversine(lat, lon, best.Lat, best.Lon)
	for _, obs := range doc.Observations[1:] {
		if d := risk.Haversine(lat, lon, obs.Lat, obs.Lon); d < bestDist {
			best = obs
			bestDist = d
		}
	}

	w := best.Weather
	return risk.WeatherInput{
		Temp:           w.Temp,
		FeelsLike:      w.FeelsLike,
		TempMin:        w.TempMin,
		TempMax:        w.TempMax,
		Humidity:       w.Humidity,
		PressureSea:    w.PressureSea,
		PressureGround: w.PressureGround,
		WindSpeed:      w.WindSpeed,
		WindDir:        w.WindDir,
		WindGusts:      w.WindGusts,
		CloudCover:     w.CloudCover,
		UVIndex:        w.UVIndex,
		SoilMoisture:   w.SoilMoisture,
		Rain: risk.RainWindows{
			H1:  w.Rain.H1,
			H2:  w.Rain.H2,
			H3:  w.Rain.H3,
			H5:  w.Rain.H5,
			H12: w.Rain.H12,
			H24: w.Rain.H24,
			D3:  w.Rain.D3,
			D7:  w.Rain.D7,
			D14: w.Rain.D14,
		},
	}, nil
}

// ResolveAddress labels a point with the nearest named observation.
// Unnamed observations are weather-only rows and skipped.
func (f *FileSource) ResolveAddress(ctx context.Context, lat, lon float64) (string, string, error) {
	if ctx == nil {
		return "", "", errors.New("context is required")
	}

	doc, err := f.load()
	if err != nil {
		return "", "", err
	}

	var (
		title    string
		subtitle string
		bestDist = math.MaxFloat64
	)
	for _, obs := range doc.Observations {
		if obs.Name == "" {
			continue
		}
		if d := risk.Haversine(lat, lon, obs.Lat, obs.Lon); d < bestDist {
			title, subtitle, bestDist = obs.Name, obs.Province, d
		}
	}
	if title == "" {
		return "", "", fmt.Errorf("no named observations in %q", f.path)
	}
	return title, subtitle, nil
}

// FetchStormTracks returns every storm in the document.
func (f *FileSource) FetchStormTracks(ctx context.Context) ([]ports.StormTrack, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	doc, err := f.load()
	if err != nil {
		return nil, err
	}

	tracks := make([]ports.StormTrack, 0, len(doc.Storms))
	for _, s := range doc.Storms {
		tracks = append(tracks, ports.StormTrack{
			ID:          s.ID,
			Lat:         s.Lat,
			Lon:         s.Lon,
			WindKmh:     s.WindKmh,
			AlertLevel:  s.AlertLevel,
			Description: s.Description,
		})
	}
	return tracks, nil
}
