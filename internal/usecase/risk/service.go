package risk

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"thientai/internal/bootstrap/logging"
	domainrisk "thientai/internal/domain/risk"
	"thientai/internal/errs"
	"thientai/internal/ports"
)

// Options tune retention and clustering. Zero values fall back to the
// defaults below.
type Options struct {
	ClusterRadiusKm float64
	AlertTTL        time.Duration
	HistoryKeepDays int
	ProvinceRainCap int
	Clock           clockwork.Clock
}

func (o Options) withDefaults() Options {
	if o.ClusterRadiusKm <= 0 {
		o.ClusterRadiusKm = 50
	}
	if o.AlertTTL <= 0 {
		o.AlertTTL = 3 * time.Hour
	}
	if o.HistoryKeepDays <= 0 {
		o.HistoryKeepDays = 30
	}
	if o.ProvinceRainCap <= 0 {
		o.ProvinceRainCap = 100
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

// Service exposes the risk engine to its caller: scoring plus the
// persisted decision trail. A nil repository puts the service in
// degraded, stateless mode: writes short-circuit with
// domainrisk.ErrStoreUnavailable and reads return empty collections.
type Service struct {
	repo  ports.RiskRepository
	uow   ports.UnitOfWork
	cache ports.Cache
	opts  Options
}

func NewService(repo ports.RiskRepository, uow ports.UnitOfWork, cache ports.Cache, opts Options) *Service {
	return &Service{
		repo:  repo,
		uow:   uow,
		cache: cache,
		opts:  opts.withDefaults(),
	}
}

func (s *Service) storeAvailable() bool {
	return s.repo != nil
}

// AnalyzeInput carries one location pick with its fetched inputs.
type AnalyzeInput struct {
	Location ports.LocationRecord
	Weather  domainrisk.WeatherInput
	Storm    domainrisk.StormInput
}

// AnalyzeResult is the computed assessment plus what was persisted.
// Persisted is false in degraded mode; the assessment is still valid.
type AnalyzeResult struct {
	Assessment domainrisk.Assessment
	Persisted  bool
	AnalysisID uint64
	HistoryID  *uint64
}

// Analyze scores one location and commits the full decision trail as one
// transaction: location, weather snapshot, rain stats, analysis with
// reasons, history (level >= 2) and the province rain sample.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (AnalyzeResult, error) {
	if ctx == nil {
		return AnalyzeResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return AnalyzeResult{}, errs.Wrap(err, "check context")
	}

	assessment := domainrisk.ComputeRisk(in.Weather, in.Storm, domainrisk.TerrainInput{
		ElevationM: in.Location.Elevation,
	})
	result := AnalyzeResult{Assessment: assessment}

	if !s.storeAvailable() {
		logging.Warn(ctx, "store unavailable, analysis not persisted",
			slog.Float64("score", assessment.Score), slog.Int("level", assessment.Level))
		return result, nil
	}

	reasons := make([]ports.ReasonRecord, 0, len(assessment.Reasons))
	for _, reason := range assessment.Reasons {
		reasons = append(reasons, ports.ReasonRecord{
			Code:        reason.Code,
			Score:       reason.Score,
			Description: reason.Description,
			Source:      reason.Source,
		})
	}

	saved, err := s.repo.SaveCompleteAnalysis(ctx, ports.AnalysisSave{
		Location: in.Location,
		Weather: ports.WeatherRecord{
			Temp:           in.Weather.Temp,
			FeelsLike:      in.Weather.FeelsLike,
			TempMin:        in.Weather.TempMin,
			TempMax:        in.Weather.TempMax,
			Humidity:       in.Weather.Humidity,
			PressureSea:    in.Weather.PressureSea,
			PressureGround: in.Weather.PressureGround,
			WindSpeed:      in.Weather.WindSpeed,
			WindDir:        in.Weather.WindDir,
			WindGusts:      in.Weather.WindGusts,
			CloudCover:     in.Weather.CloudCover,
			UVIndex:        in.Weather.UVIndex,
			SoilMoisture:   in.Weather.SoilMoisture,
		},
		Rain: ports.RainStats{
			H1:  in.Weather.Rain.H1,
			H2:  in.Weather.Rain.H2,
			H3:  in.Weather.Rain.H3,
			H5:  in.Weather.Rain.H5,
			H12: in.Weather.Rain.H12,
			H24: in.Weather.Rain.H24,
			D3:  in.Weather.Rain.D3,
			D7:  in.Weather.Rain.D7,
			D14: in.Weather.Rain.D14,
		},
		Analysis: ports.AnalysisRecord{
			Level:       assessment.Level,
			Label:       assessment.Label,
			Score:       assessment.Score,
			Confidence:  assessment.Confidence,
			TerrainKind: assessment.TerrainKind,
			SoilKind:    assessment.SoilKind,
			Saturation:  assessment.Saturation,
		},
		Reasons: reasons,
	}, s.opts.Clock.Now().UTC(), s.opts.ProvinceRainCap)
	if err != nil {
		return AnalyzeResult{}, errs.Wrap(err, "save complete analysis")
	}

	result.Persisted = true
	result.AnalysisID = saved.AnalysisID
	result.HistoryID = saved.HistoryID
	return result, nil
}

// ScanAndCluster deduplicates the raw national-scan events and replaces
// the active alert set. Returns the clustered alerts even when the store
// is down.
func (s *Service) ScanAndCluster(ctx context.Context, rawEvents []domainrisk.AlertEvent) ([]domainrisk.AlertEvent, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	clustered := domainrisk.ClusterAlerts(rawEvents, s.opts.ClusterRadiusKm)

	if !s.storeAvailable() {
		logging.Warn(ctx, "store unavailable, alerts not persisted", slog.Int("count", len(clustered)))
		return clustered, nil
	}

	now := s.opts.Clock.Now().UTC()
	expiry := now.Add(s.opts.AlertTTL)

	records := make([]ports.AlertRecord, 0, len(clustered))
	for _, event := range clustered {
		externalID := event.ID
		if externalID == "" {
			externalID = uuid.NewString()
		}
		expiresAt := event.ExpiresAt
		if expiresAt == nil {
			e := expiry
			expiresAt = &e
		}
		records = append(records, ports.AlertRecord{
			ExternalID:   externalID,
			LocationName: event.LocationName,
			Province:     event.Province,
			Level:        event.Level,
			Type:         event.Type,
			Lat:          event.Lat,
			Lon:          event.Lon,
			RainMm:       event.RainMm,
			WindKmh:      event.WindKmh,
			Description:  event.Description,
			IsCluster:    event.IsCluster,
			Count:        event.Count,
			ExpiresAt:    expiresAt,
		})
	}

	if err := s.repo.ReplaceAlerts(ctx, records, now); err != nil {
		return nil, errs.Wrap(err, "replace alerts")
	}
	return clustered, nil
}

// ClearExpiredAlerts drops alerts whose expiry has passed.
func (s *Service) ClearExpiredAlerts(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if !s.storeAvailable() {
		return 0, domainrisk.ErrStoreUnavailable
	}
	deleted, err := s.repo.ClearExpiredAlerts(ctx, s.opts.Clock.Now().UTC())
	if err != nil {
		return 0, errs.Wrap(err, "clear expired alerts")
	}
	return deleted, nil
}

// PruneHistory removes non-favorited entries older than the configured
// keep window.
func (s *Service) PruneHistory(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if !s.storeAvailable() {
		return 0, domainrisk.ErrStoreUnavailable
	}
	cutoff := s.opts.Clock.Now().UTC().AddDate(0, 0, -s.opts.HistoryKeepDays)
	deleted, err := s.repo.DeleteOldHistory(ctx, cutoff)
	if err != nil {
		return 0, errs.Wrap(err, "delete old history")
	}
	return deleted, nil
}

// ToggleFavorite flips the pinned flag on a history entry, exempting it
// from retention. Returns the new state; false for unknown ids.
func (s *Service) ToggleFavorite(ctx context.Context, historyID uint64) (bool, error) {
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if !s.storeAvailable() {
		return false, domainrisk.ErrStoreUnavailable
	}
	return s.repo.ToggleFavorite(ctx, historyID)
}

// DeleteHistory removes one entry by id.
func (s *Service) DeleteHistory(ctx context.Context, historyID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if !s.storeAvailable() {
		return domainrisk.ErrStoreUnavailable
	}
	if err := s.repo.DeleteHistory(ctx, historyID); err != nil {
		return errs.Wrapf(err, "delete history %d", historyID)
	}
	return nil
}

// CacheStormPayload keeps the last successful storm fetch for later
// inspection. Best effort; failures are logged, not returned.
func (s *Service) CacheStormPayload(ctx context.Context, payload string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, stormPayloadKey, payload, 0); err != nil {
		logging.Warn(ctx, "cache storm payload failed", slog.Any("err", errs.Loggable(err)))
	}
}

// LastStormPayload returns the most recent cached storm fetch, if any.
func (s *Service) LastStormPayload(ctx context.Context) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	value, found, err := s.cache.Get(ctx, stormPayloadKey)
	if err != nil {
		logging.Warn(ctx, "read storm payload cache failed", slog.Any("err", errs.Loggable(err)))
		return "", false
	}
	return value, found
}

const stormPayloadKey = "storm:last_payload"

// NearestStorm reduces fetched tracks to the storm input for a point:
// distance to the closest centre and that storm's wind. With no tracks
// it returns the out-of-range no-storm input, never a zero distance; a
// storm sitting exactly on the point is the worst case, not a miss.
func NearestStorm(tracks []ports.StormTrack, lat, lon float64) domainrisk.StormInput {
	if len(tracks) == 0 {
		return domainrisk.NoStorm()
	}

	best := domainrisk.StormInput{DistanceKm: -1}
	for _, track := range tracks {
		d := domainrisk.Haversine(lat, lon, track.Lat, track.Lon)
		if best.DistanceKm < 0 || d < best.DistanceKm {
			best = domainrisk.StormInput{DistanceKm: d, WindKmh: track.WindKmh}
		}
	}
	return best
}
