package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	domainrisk "thientai/internal/domain/risk"
	"thientai/internal/ports"
)

// fakeRepo records calls and returns canned values. Only the methods a
// test exercises carry behavior.
type fakeRepo struct {
	savedInput  ports.AnalysisSave
	savedNow    time.Time
	savedCap    int
	saveResult  ports.SavedAnalysis
	saveErr     error
	replaced    []ports.AlertRecord
	replacedNow time.Time
	replaceErr  error
	cleared     time.Time
	pruneCutoff time.Time
}

func (f *fakeRepo) SaveCompleteAnalysis(_ context.Context, in ports.AnalysisSave, now time.Time, cap int) (ports.SavedAnalysis, error) {
	f.savedInput = in
	f.savedNow = now
	f.savedCap = cap
	return f.saveResult, f.saveErr
}

func (f *fakeRepo) RecordProvinceRain(context.Context, string, ports.RainStats, time.Time, int) error {
	return nil
}

func (f *fakeRepo) FindLocationNear(context.Context, float64, float64) (ports.LocationRecord, error) {
	return ports.LocationRecord{}, domainrisk.ErrNotFound
}

func (f *fakeRepo) ReplaceAlerts(_ context.Context, alerts []ports.AlertRecord, now time.Time) error {
	f.replaced = alerts
	f.replacedNow = now
	return f.replaceErr
}

func (f *fakeRepo) ListAlerts(context.Context) ([]ports.AlertRecord, error) {
	return f.replaced, nil
}

func (f *fakeRepo) ClearExpiredAlerts(_ context.Context, now time.Time) (int64, error) {
	f.cleared = now
	return 2, nil
}

func (f *fakeRepo) GetHistory(context.Context, int) ([]ports.HistoryRecord, error) {
	return nil, nil
}

func (f *fakeRepo) GetHistoryDetail(context.Context, uint64) (ports.HistoryDetail, error) {
	return ports.HistoryDetail{}, domainrisk.ErrNotFound
}

func (f *fakeRepo) DeleteHistory(context.Context, uint64) error { return nil }

func (f *fakeRepo) DeleteOldHistory(_ context.Context, cutoff time.Time) (int64, error) {
	f.pruneCutoff = cutoff
	return 3, nil
}

func (f *fakeRepo) ToggleFavorite(context.Context, uint64) (bool, error) { return true, nil }

func (f *fakeRepo) GetProvinceRainHistory(context.Context, string, int) ([]ports.ProvinceRainRecord, error) {
	return nil, nil
}

func (f *fakeRepo) GetHistoricProvinceRecords(context.Context, string) ([]ports.ProvinceRainRecord, error) {
	return nil, nil
}

func (f *fakeRepo) GetShelters(context.Context) ([]ports.ShelterRecord, error) { return nil, nil }

func TestAnalyzePersistsDecisionTrail(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	historyID := uint64(7)
	repo := &fakeRepo{saveResult: ports.SavedAnalysis{
		LocationID: 1, WeatherID: 2, AnalysisID: 3, HistoryID: &historyID,
	}}
	svc := NewService(repo, nil, nil, Options{
		ProvinceRainCap: 42,
		Clock:           clockwork.NewFakeClockAt(now),
	})

	result, err := svc.Analyze(context.Background(), AnalyzeInput{
		Location: ports.LocationRecord{Lat: 16.46, Lon: 107.59, Title: "Huế", Province: "Thừa Thiên Huế"},
		Weather:  domainrisk.WeatherInput{Rain: domainrisk.RainWindows{H1: 25, H24: 80}},
		Storm:    domainrisk.NoStorm(),
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !result.Persisted || result.AnalysisID != 3 {
		t.Fatalf("result = %+v, want persisted analysis 3", result)
	}
	if result.HistoryID == nil || *result.HistoryID != historyID {
		t.Fatalf("history id = %v, want %d", result.HistoryID, historyID)
	}

	if repo.savedCap != 42 {
		t.Fatalf("province cap = %d, want 42", repo.savedCap)
	}
	if !repo.savedNow.Equal(now) {
		t.Fatalf("save time = %v, want fake clock %v", repo.savedNow, now)
	}
	if repo.savedInput.Analysis.Level != result.Assessment.Level {
		t.Fatalf("persisted level %d != computed %d", repo.savedInput.Analysis.Level, result.Assessment.Level)
	}
	if len(repo.savedInput.Reasons) != len(result.Assessment.Reasons) {
		t.Fatalf("persisted %d reasons, computed %d", len(repo.savedInput.Reasons), len(result.Assessment.Reasons))
	}
}

func TestAnalyzeDegradedMode(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, nil, nil, Options{})

	result, err := svc.Analyze(context.Background(), AnalyzeInput{
		Weather: domainrisk.WeatherInput{Rain: domainrisk.RainWindows{H1: 60, H24: 120}},
		Storm:   domainrisk.NoStorm(),
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v, want nil in degraded mode", err)
	}
	if result.Persisted {
		t.Fatalf("result persisted = true, want false without a store")
	}
	if result.Assessment.Level < domainrisk.LevelWarning {
		t.Fatalf("assessment level = %d, still expected a real score", result.Assessment.Level)
	}
}

func TestAnalyzeSurfacesStoreFailure(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{saveErr: errors.New("disk full")}
	svc := NewService(repo, nil, nil, Options{})

	if _, err := svc.Analyze(context.Background(), AnalyzeInput{}); err == nil {
		t.Fatalf("Analyze() error = nil, want store failure")
	}
}

func TestScanAndClusterFillsIdentityAndExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 25, 6, 0, 0, 0, time.UTC)
	repo := &fakeRepo{}
	svc := NewService(repo, nil, nil, Options{
		AlertTTL: 2 * time.Hour,
		Clock:    clockwork.NewFakeClockAt(now),
	})

	events := []domainrisk.AlertEvent{
		{LocationName: "Huế", Province: "Thừa Thiên Huế", Level: domainrisk.LevelWarning, Lat: 16.46, Lon: 107.59},
		{ID: "wp:Vinh", LocationName: "Vinh", Province: "Nghệ An", Level: domainrisk.LevelMinor, Lat: 18.67, Lon: 105.69},
	}
	clustered, err := svc.ScanAndCluster(context.Background(), events)
	if err != nil {
		t.Fatalf("ScanAndCluster() error = %v", err)
	}
	if len(clustered) != 2 {
		t.Fatalf("clustered = %d, want 2 distant events kept apart", len(clustered))
	}
	if len(repo.replaced) != 2 {
		t.Fatalf("persisted = %d alerts, want 2", len(repo.replaced))
	}

	wantExpiry := now.Add(2 * time.Hour)
	for _, rec := range repo.replaced {
		if rec.ExternalID == "" {
			t.Fatalf("record %+v has empty external id", rec)
		}
		if rec.ExpiresAt == nil || !rec.ExpiresAt.Equal(wantExpiry) {
			t.Fatalf("record expiry = %v, want %v", rec.ExpiresAt, wantExpiry)
		}
	}
}

func TestScanAndClusterDegradedStillClusters(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, nil, nil, Options{})
	events := []domainrisk.AlertEvent{
		{ID: "a", Province: "Lào Cai", Level: domainrisk.LevelDanger, Lat: 22.48, Lon: 103.97},
		{ID: "b", Province: "Lào Cai", Level: domainrisk.LevelWarning, Lat: 22.50, Lon: 103.99},
	}
	clustered, err := svc.ScanAndCluster(context.Background(), events)
	if err != nil {
		t.Fatalf("ScanAndCluster() error = %v, want nil in degraded mode", err)
	}
	if len(clustered) != 1 || !clustered[0].IsCluster {
		t.Fatalf("clustered = %+v, want one merged record", clustered)
	}
}

func TestPruneHistoryUsesConfiguredWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{}
	svc := NewService(repo, nil, nil, Options{
		HistoryKeepDays: 10,
		Clock:           clockwork.NewFakeClockAt(now),
	})

	pruned, err := svc.PruneHistory(context.Background())
	if err != nil {
		t.Fatalf("PruneHistory() error = %v", err)
	}
	if pruned != 3 {
		t.Fatalf("pruned = %d, want 3", pruned)
	}
	want := now.AddDate(0, 0, -10)
	if !repo.pruneCutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", repo.pruneCutoff, want)
	}
}

func TestWriteOpsFailWithoutStore(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, nil, nil, Options{})
	ctx := context.Background()

	if _, err := svc.ClearExpiredAlerts(ctx); !errors.Is(err, domainrisk.ErrStoreUnavailable) {
		t.Fatalf("ClearExpiredAlerts() error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := svc.PruneHistory(ctx); !errors.Is(err, domainrisk.ErrStoreUnavailable) {
		t.Fatalf("PruneHistory() error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := svc.ToggleFavorite(ctx, 1); !errors.Is(err, domainrisk.ErrStoreUnavailable) {
		t.Fatalf("ToggleFavorite() error = %v, want ErrStoreUnavailable", err)
	}
	if err := svc.DeleteHistory(ctx, 1); !errors.Is(err, domainrisk.ErrStoreUnavailable) {
		t.Fatalf("DeleteHistory() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestReadOpsReturnEmptyWithoutStore(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, nil, nil, Options{})
	ctx := context.Background()

	history, err := svc.GetHistory(ctx, 10)
	if err != nil || len(history) != 0 {
		t.Fatalf("GetHistory() = %v, %v, want empty, nil", history, err)
	}
	alerts, err := svc.ListAlerts(ctx)
	if err != nil || len(alerts) != 0 {
		t.Fatalf("ListAlerts() = %v, %v, want empty, nil", alerts, err)
	}
	shelters, err := svc.GetShelters(ctx)
	if err != nil || len(shelters) != 0 {
		t.Fatalf("GetShelters() = %v, %v, want empty, nil", shelters, err)
	}
	rain, err := svc.GetProvinceRainHistory(ctx, "Huế", 5)
	if err != nil || len(rain) != 0 {
		t.Fatalf("GetProvinceRainHistory() = %v, %v, want empty, nil", rain, err)
	}
}

type fakeCache struct {
	values map[string]string
}

func (f *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	delete(f.values, key)
	return nil
}

func TestStormPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := &fakeCache{}
	svc := NewService(nil, nil, cache, Options{})

	if _, found := svc.LastStormPayload(ctx); found {
		t.Fatalf("LastStormPayload() found = true before any write")
	}

	svc.CacheStormPayload(ctx, `[{"id":"bão số 5"}]`)
	payload, found := svc.LastStormPayload(ctx)
	if !found || payload != `[{"id":"bão số 5"}]` {
		t.Fatalf("LastStormPayload() = %q, %v", payload, found)
	}

	// Without a cache adapter both sides are silent no-ops.
	plain := NewService(nil, nil, nil, Options{})
	plain.CacheStormPayload(ctx, "x")
	if _, found := plain.LastStormPayload(ctx); found {
		t.Fatalf("LastStormPayload() found = true with no cache")
	}
}

func TestNearestStorm(t *testing.T) {
	t.Parallel()

	empty := NearestStorm(nil, 16.0, 108.0)
	if score, _ := domainrisk.StormScore(empty); score != 0 {
		t.Fatalf("StormScore(no tracks) = %v via %+v, want 0", score, empty)
	}

	// A storm sitting on the point is maximal proximity, not absence.
	centre := NearestStorm([]ports.StormTrack{{ID: "tâm bão", Lat: 16.0, Lon: 108.0, WindKmh: 150}}, 16.0, 108.0)
	if centre.DistanceKm != 0 {
		t.Fatalf("NearestStorm(track at point) distance = %v, want 0", centre.DistanceKm)
	}
	if score, _ := domainrisk.StormScore(centre); score < 90 {
		t.Fatalf("StormScore(track at point) = %v, want >= 90", score)
	}

	tracks := []ports.StormTrack{
		{ID: "xa", Lat: 20.0, Lon: 120.0, WindKmh: 180},
		{ID: "gần", Lat: 16.5, Lon: 109.0, WindKmh: 120},
	}
	got := NearestStorm(tracks, 16.0, 108.0)
	if got.WindKmh != 120 {
		t.Fatalf("NearestStorm() wind = %v, want the closer storm's 120", got.WindKmh)
	}
	if got.DistanceKm <= 0 || got.DistanceKm > 200 {
		t.Fatalf("NearestStorm() distance = %v, want ~120 km", got.DistanceKm)
	}
}
