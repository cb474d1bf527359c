package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"thientai/internal/bootstrap/logging"
	domainrisk "thientai/internal/domain/risk"
	"thientai/internal/errs"
	"thientai/internal/infrastructure/persistence/schema"
	"thientai/internal/observability"
	"thientai/internal/ports"
	riskuc "thientai/internal/usecase/risk"
)

// Config holds the two loop intervals. The retention sweep runs much
// coarser than the scan.
type Config struct {
	ScanInterval      time.Duration
	RetentionInterval time.Duration
}

// Collector drives the periodic fetch-score-cluster-persist cycle and
// the retention sweeps. Both jobs share one lifecycle and are cancelled
// as a unit; a tick is skipped while the previous run of the same job is
// still in flight.
type Collector struct {
	svc         *riskuc.Service
	weather     ports.WeatherSource
	storms      ports.StormSource
	metrics     *observability.Metrics
	clock       clockwork.Clock
	watchpoints []schema.Watchpoint
	cfg         Config

	scanBusy  atomic.Bool
	sweepBusy atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(
	svc *riskuc.Service,
	weather ports.WeatherSource,
	storms ports.StormSource,
	metrics *observability.Metrics,
	clock clockwork.Clock,
	watchpoints []schema.Watchpoint,
	cfg Config,
) (*Collector, error) {
	if svc == nil {
		return nil, errors.New("risk service is required")
	}
	if cfg.ScanInterval <= 0 {
		return nil, errors.New("scan interval must be positive")
	}
	if cfg.RetentionInterval <= 0 {
		return nil, errors.New("retention interval must be positive")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Collector{
		svc:         svc,
		weather:     weather,
		storms:      storms,
		metrics:     metrics,
		clock:       clock,
		watchpoints: watchpoints,
		cfg:         cfg,
	}, nil
}

// Start launches the background loop. It returns immediately; Stop tears
// the loop down and waits for an in-flight run to finish.
func (c *Collector) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return errors.New("collector already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(loopCtx)

	logging.Info(ctx, "collector started",
		slog.Duration("scan_interval", c.cfg.ScanInterval),
		slog.Duration("retention_interval", c.cfg.RetentionInterval),
		slog.Int("watchpoints", len(c.watchpoints)))
	return nil
}

// Stop cancels the loop and blocks until it has drained. In-flight work
// runs to completion; nothing is left half-committed.
func (c *Collector) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)

	scanTicker := c.clock.NewTicker(c.cfg.ScanInterval)
	defer scanTicker.Stop()
	retentionTicker := c.clock.NewTicker(c.cfg.RetentionInterval)
	defer retentionTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info(ctx, "collector stopping", slog.String("reason", ctx.Err().Error()))
			return
		case <-scanTicker.Chan():
			if err := c.ScanOnce(ctx); err != nil {
				logging.Error(ctx, "scan cycle failed", slog.Any("err", errs.Loggable(err)))
			}
		case <-retentionTicker.Chan():
			c.sweepOnce(ctx)
		}
	}
}

// ScanOnce runs one national scan cycle: fetch storm tracks, analyze
// every watchpoint, turn non-safe outcomes into raw alert events, then
// cluster and persist them. A failed fetch means no data this cycle for
// that input, never a crash.
func (c *Collector) ScanOnce(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	// One scan at a time: a tick or manual trigger arriving while a
	// cycle is in flight is skipped, not queued.
	if !c.scanBusy.CompareAndSwap(false, true) {
		logging.Warn(ctx, "scan skipped, previous run still in flight")
		return nil
	}
	defer c.scanBusy.Store(false)

	if c.metrics != nil {
		c.metrics.ScansTotal.Inc()
	}
	start := c.clock.Now()

	var tracks []ports.StormTrack
	if c.storms != nil {
		fetched, err := c.storms.FetchStormTracks(ctx)
		if err != nil {
			logging.Warn(ctx, "storm track fetch failed, no storm data this cycle",
				slog.Any("err", errs.Loggable(err)))
		} else {
			tracks = fetched
			if payload, marshalErr := json.Marshal(tracks); marshalErr == nil {
				c.svc.CacheStormPayload(ctx, string(payload))
			}
		}
	}

	var rawEvents []domainrisk.AlertEvent
	analyzed := 0
	for _, wp := range c.watchpoints {
		if ctx.Err() != nil {
			return errs.Wrap(ctx.Err(), "scan cancelled")
		}
		if c.weather == nil {
			break
		}

		weather, err := c.weather.FetchWeather(ctx, wp.Lat, wp.Lon)
		if err != nil {
			logging.Warn(ctx, "weather fetch failed, skipping watchpoint",
				slog.String("watchpoint", wp.Name), slog.Any("err", errs.Loggable(err)))
			continue
		}

		storm := riskuc.NearestStorm(tracks, wp.Lat, wp.Lon)
		result, err := c.svc.Analyze(ctx, riskuc.AnalyzeInput{
			Location: ports.LocationRecord{
				Lat:       wp.Lat,
				Lon:       wp.Lon,
				Title:     wp.Name,
				Province:  wp.Province,
				Elevation: wp.Elevation,
			},
			Weather: weather,
			Storm:   storm,
		})
		if err != nil {
			logging.Error(ctx, "watchpoint analysis failed",
				slog.String("watchpoint", wp.Name), slog.Any("err", errs.Loggable(err)))
			continue
		}
		analyzed++
		if c.metrics != nil {
			c.metrics.AnalysesTotal.Inc()
		}

		if result.Assessment.Level >= domainrisk.LevelMinor {
			rawEvents = append(rawEvents, domainrisk.AlertEvent{
				ID:           fmt.Sprintf("wp:%s", wp.Name),
				LocationName: wp.Name,
				Province:     wp.Province,
				Level:        result.Assessment.Level,
				Type:         hazardType(result.Assessment),
				Lat:          wp.Lat,
				Lon:          wp.Lon,
				RainMm:       weather.Rain.H24,
				WindKmh:      weather.WindSpeed,
				Description:  result.Assessment.Label,
			})
		}
	}

	if len(c.watchpoints) > 0 && analyzed == 0 {
		if c.metrics != nil {
			c.metrics.ScanErrorsTotal.Inc()
		}
		return errors.New("no watchpoint produced data this cycle")
	}

	clustered, err := c.svc.ScanAndCluster(ctx, rawEvents)
	if err != nil {
		if c.metrics != nil {
			c.metrics.ScanErrorsTotal.Inc()
		}
		return errs.Wrap(err, "cluster and persist alerts")
	}

	if c.metrics != nil {
		c.metrics.ActiveAlerts.Set(float64(len(clustered)))
		c.metrics.ScanDuration.Observe(c.clock.Since(start).Seconds())
	}

	logging.Info(ctx, "scan cycle completed",
		slog.Int("watchpoints", analyzed),
		slog.Int("raw_events", len(rawEvents)),
		slog.Int("alerts", len(clustered)))
	return nil
}

func (c *Collector) sweepOnce(ctx context.Context) {
	if !c.sweepBusy.CompareAndSwap(false, true) {
		logging.Warn(ctx, "retention sweep skipped, previous sweep still in flight")
		return
	}
	defer c.sweepBusy.Store(false)

	expired, err := c.svc.ClearExpiredAlerts(ctx)
	if err != nil {
		logging.Warn(ctx, "clear expired alerts failed", slog.Any("err", errs.Loggable(err)))
	} else if c.metrics != nil {
		c.metrics.RetentionSwept.WithLabelValues("alerts").Add(float64(expired))
	}

	pruned, err := c.svc.PruneHistory(ctx)
	if err != nil {
		logging.Warn(ctx, "prune history failed", slog.Any("err", errs.Loggable(err)))
	} else if c.metrics != nil {
		c.metrics.RetentionSwept.WithLabelValues("history").Add(float64(pruned))
	}

	logging.Info(ctx, "retention sweep completed",
		slog.Int64("expired_alerts", expired), slog.Int64("pruned_history", pruned))
}

// hazardType names the dominant signal for an alert row.
func hazardType(a domainrisk.Assessment) string {
	switch {
	case a.StormScore >= a.WeatherScore && a.StormScore > 0:
		return "bão"
	case a.TerrainScore > 50 && a.Saturation >= 0.6:
		return "sạt lở"
	default:
		return "lũ lụt"
	}
}
