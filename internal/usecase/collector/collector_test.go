package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"

	domainrisk "thientai/internal/domain/risk"
	"thientai/internal/infrastructure/persistence/schema"
	"thientai/internal/observability"
	"thientai/internal/ports"
	riskuc "thientai/internal/usecase/risk"
)

type fakeWeather struct {
	weather domainrisk.WeatherInput
	err     error
	calls   atomic.Int32
}

func (f *fakeWeather) FetchWeather(context.Context, float64, float64) (domainrisk.WeatherInput, error) {
	f.calls.Add(1)
	if f.err != nil {
		return domainrisk.WeatherInput{}, f.err
	}
	return f.weather, nil
}

type fakeStorms struct {
	tracks []ports.StormTrack
	err    error
}

func (f *fakeStorms) FetchStormTracks(context.Context) ([]ports.StormTrack, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tracks, nil
}

func testWatchpoints() []schema.Watchpoint {
	return []schema.Watchpoint{
		{Name: "Huế", Province: "Thừa Thiên Huế", Lat: 16.46, Lon: 107.59, Elevation: 10},
		{Name: "Đà Lạt", Province: "Lâm Đồng", Lat: 11.94, Lon: 108.44, Elevation: 1500},
	}
}

// degradedService runs without a store so scan cycles exercise the full
// fetch-score-cluster path with no database behind them.
func degradedService(clock clockwork.Clock) *riskuc.Service {
	return riskuc.NewService(nil, nil, nil, riskuc.Options{Clock: clock})
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	svc := degradedService(clock)

	if _, err := New(nil, nil, nil, nil, clock, nil, Config{ScanInterval: time.Minute, RetentionInterval: time.Hour}); err == nil {
		t.Fatalf("New(nil service) error = nil, want error")
	}
	if _, err := New(svc, nil, nil, nil, clock, nil, Config{RetentionInterval: time.Hour}); err == nil {
		t.Fatalf("New(zero scan interval) error = nil, want error")
	}
	if _, err := New(svc, nil, nil, nil, clock, nil, Config{ScanInterval: time.Minute}); err == nil {
		t.Fatalf("New(zero retention interval) error = nil, want error")
	}
}

func TestScanOnceProducesAlertsFromWatchpoints(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC))
	metrics := observability.NewMetricsForTesting()
	weather := &fakeWeather{weather: domainrisk.WeatherInput{
		Rain: domainrisk.RainWindows{H1: 60, H3: 90, H24: 130, D3: 200},
	}}
	storms := &fakeStorms{tracks: []ports.StormTrack{
		{ID: "bão số 5", Lat: 17.0, Lon: 110.0, WindKmh: 140},
	}}

	c, err := New(degradedService(clock), weather, storms, metrics, clock, testWatchpoints(), Config{
		ScanInterval:      time.Minute,
		RetentionInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.ScanOnce(context.Background()); err != nil {
		t.Fatalf("ScanOnce() error = %v", err)
	}

	if got := weather.calls.Load(); got != 2 {
		t.Fatalf("weather fetches = %d, want one per watchpoint", got)
	}
	if got := testutil.ToFloat64(metrics.ScansTotal); got != 1 {
		t.Fatalf("scans_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.AnalysesTotal); got != 2 {
		t.Fatalf("analyses_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.ScanErrorsTotal); got != 0 {
		t.Fatalf("scan_errors_total = %v, want 0", got)
	}
	// Extreme rain at both watchpoints: each becomes an alert, and they
	// are ~550 km apart so clustering keeps them separate.
	if got := testutil.ToFloat64(metrics.ActiveAlerts); got != 2 {
		t.Fatalf("active_alerts = %v, want 2", got)
	}
}

func TestScanOnceSurvivesStormFetchFailure(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	weather := &fakeWeather{}
	storms := &fakeStorms{err: errors.New("upstream down")}

	c, err := New(degradedService(clock), weather, storms, nil, clock, testWatchpoints(), Config{
		ScanInterval:      time.Minute,
		RetentionInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.ScanOnce(context.Background()); err != nil {
		t.Fatalf("ScanOnce() error = %v, want storm failure tolerated", err)
	}
}

func TestScanOnceFailsWhenNoWatchpointProducesData(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	metrics := observability.NewMetricsForTesting()
	weather := &fakeWeather{err: errors.New("timeout")}

	c, err := New(degradedService(clock), weather, nil, metrics, clock, testWatchpoints(), Config{
		ScanInterval:      time.Minute,
		RetentionInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.ScanOnce(context.Background()); err == nil {
		t.Fatalf("ScanOnce() error = nil, want failure with zero analyzed watchpoints")
	}
	if got := testutil.ToFloat64(metrics.ScanErrorsTotal); got != 1 {
		t.Fatalf("scan_errors_total = %v, want 1", got)
	}
}

func TestRunLoopScansOnTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	weather := &fakeWeather{}

	c, err := New(degradedService(clock), weather, nil, nil, clock, testWatchpoints(), Config{
		ScanInterval:      time.Minute,
		RetentionInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	// Wait for both tickers before advancing the clock.
	blockCtx, blockCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer blockCancel()
	if err := clock.BlockUntilContext(blockCtx, 2); err != nil {
		t.Fatalf("waiting for tickers: %v", err)
	}

	clock.Advance(time.Minute)
	waitFor(t, func() bool { return weather.calls.Load() == 2 })

	clock.Advance(time.Minute)
	waitFor(t, func() bool { return weather.calls.Load() == 4 })
}

func TestStartTwiceFails(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c, err := New(degradedService(clock), &fakeWeather{}, nil, nil, clock, nil, Config{
		ScanInterval:      time.Minute,
		RetentionInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := c.Start(ctx); err == nil {
		t.Fatalf("second Start() error = nil, want already started")
	}
	c.Stop()
	// Stop on a stopped collector is a no-op.
	c.Stop()
}

type blockingWeather struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingWeather) FetchWeather(ctx context.Context, _, _ float64) (domainrisk.WeatherInput, error) {
	b.calls.Add(1)
	select {
	case b.started <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return domainrisk.WeatherInput{}, nil
}

func TestScanOnceSkipsWhileInFlight(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	weather := &blockingWeather{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}

	c, err := New(degradedService(clock), weather, nil, nil, clock, testWatchpoints(), Config{
		ScanInterval:      time.Minute,
		RetentionInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	first := make(chan error, 1)
	go func() {
		first <- c.ScanOnce(ctx)
	}()

	select {
	case <-weather.started:
	case <-time.After(5 * time.Second):
		t.Fatalf("first scan never reached the weather fetch")
	}

	// A second trigger while the first cycle is in flight is a no-op.
	if err := c.ScanOnce(ctx); err != nil {
		t.Fatalf("overlapping ScanOnce() error = %v, want skip", err)
	}
	if got := weather.calls.Load(); got != 1 {
		t.Fatalf("weather fetches = %d, want the overlapping scan skipped", got)
	}

	close(weather.release)
	if err := <-first; err != nil {
		t.Fatalf("first ScanOnce() error = %v", err)
	}
}

func TestHazardType(t *testing.T) {
	t.Parallel()

	if got := hazardType(domainrisk.Assessment{StormScore: 80, WeatherScore: 40}); got != "bão" {
		t.Fatalf("hazardType(storm dominant) = %q, want bão", got)
	}
	if got := hazardType(domainrisk.Assessment{WeatherScore: 60, TerrainScore: 70, Saturation: 0.85}); got != "sạt lở" {
		t.Fatalf("hazardType(steep saturated) = %q, want sạt lở", got)
	}
	if got := hazardType(domainrisk.Assessment{WeatherScore: 60}); got != "lũ lụt" {
		t.Fatalf("hazardType(rain dominant) = %q, want lũ lụt", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}
