package filesource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleDocument = `{
  "observations": [
    {
      "name": "Thành phố Huế", "province": "Thừa Thiên Huế",
      "lat": 16.46, "lon": 107.59,
      "weather": {
        "temp": 25.1, "humidity": 92, "pressure_sea": 996,
        "wind_speed": 55, "wind_gusts": 85, "soil_moisture": 0.84,
        "rain": {"h1": 32, "h3": 61, "h24": 140, "d3": 260}
      }
    },
    {
      "lat": 21.02, "lon": 105.85,
      "weather": {
        "temp": 29.0, "humidity": 60, "pressure_sea": 1010,
        "wind_speed": 8,
        "rain": {"h1": 0}
      }
    }
  ],
  "storms": [
    {"id": "bão số 5", "lat": 17.2, "lon": 110.5, "wind_kmh": 150, "alert_level": 3, "description": "đang mạnh lên"}
  ]
}`

func writeSample(t *testing.T) *FileSource {
	t.Helper()

	path := filepath.Join(t.TempDir(), "observations.json")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return New(path)
}

func TestFetchWeatherPicksNearestObservation(t *testing.T) {
	t.Parallel()

	src := writeSample(t)
	ctx := context.Background()

	near, err := src.FetchWeather(ctx, 16.50, 107.60)
	if err != nil {
		t.Fatalf("FetchWeather() error = %v", err)
	}
	if near.Rain.H24 != 140 {
		t.Fatalf("h24 = %v, want the Huế observation's 140", near.Rain.H24)
	}
	if near.SoilMoisture != 0.84 {
		t.Fatalf("soil moisture = %v, want 0.84", near.SoilMoisture)
	}

	far, err := src.FetchWeather(ctx, 21.00, 105.80)
	if err != nil {
		t.Fatalf("FetchWeather() error = %v", err)
	}
	if far.Rain.H24 != 0 || far.WindSpeed != 8 {
		t.Fatalf("weather = %+v, want the Hà Nội observation", far)
	}
}

func TestResolveAddressUsesNearestNamedObservation(t *testing.T) {
	t.Parallel()

	src := writeSample(t)
	ctx := context.Background()

	// Hà Nội is closer but unnamed; the Huế observation carries the label.
	title, subtitle, err := src.ResolveAddress(ctx, 21.00, 105.80)
	if err != nil {
		t.Fatalf("ResolveAddress() error = %v", err)
	}
	if title != "Thành phố Huế" || subtitle != "Thừa Thiên Huế" {
		t.Fatalf("ResolveAddress() = %q, %q, want the Huế label", title, subtitle)
	}

	nameless := filepath.Join(t.TempDir(), "nameless.json")
	if err := os.WriteFile(nameless, []byte(`{"observations": [{"lat": 16, "lon": 107, "weather": {}}]}`), 0o644); err != nil {
		t.Fatalf("write nameless: %v", err)
	}
	if _, _, err := New(nameless).ResolveAddress(ctx, 16, 107); err == nil {
		t.Fatalf("ResolveAddress(no named observations) error = nil, want error")
	}
}

func TestFetchStormTracks(t *testing.T) {
	t.Parallel()

	src := writeSample(t)
	tracks, err := src.FetchStormTracks(context.Background())
	if err != nil {
		t.Fatalf("FetchStormTracks() error = %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(tracks))
	}
	if tracks[0].ID != "bão số 5" || tracks[0].WindKmh != 150 {
		t.Fatalf("track = %+v", tracks[0])
	}
}

func TestFetchWeatherErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	missing := New(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := missing.FetchWeather(ctx, 16, 107); err == nil {
		t.Fatalf("FetchWeather(missing file) error = nil, want error")
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, []byte(`{"observations": []}`), 0o644); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	if _, err := New(empty).FetchWeather(ctx, 16, 107); err == nil {
		t.Fatalf("FetchWeather(no observations) error = nil, want error")
	}

	garbage := filepath.Join(t.TempDir(), "garbage.json")
	if err := os.WriteFile(garbage, []byte(`not json`), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if _, err := New(garbage).FetchStormTracks(ctx); err == nil {
		t.Fatalf("FetchStormTracks(garbage) error = nil, want error")
	}
}
