package ports

import (
	"context"
	"time"
)

// LocationRecord is a physical point of interest. Two points within
// 0.0001 degrees on both axes are treated as the same location.
type LocationRecord struct {
	LocationID uint64
	Lat        float64
	Lon        float64
	Title      string
	Subtitle   string
	Province   string
	Elevation  float64
}

// WeatherRecord is one point-in-time reading, created once per analysis
// and never mutated.
type WeatherRecord struct {
	WeatherID      uint64
	Temp           float64
	FeelsLike      float64
	TempMin        float64
	TempMax        float64
	Humidity       float64
	PressureSea    float64
	PressureGround float64
	WindSpeed      float64
	WindDir        float64
	WindGusts      float64
	CloudCover     float64
	UVIndex        float64
	SoilMoisture   float64
}

// RainStats holds cumulative precipitation per trailing window (mm).
type RainStats struct {
	H1  float64
	H2  float64
	H3  float64
	H5  float64
	H12 float64
	H24 float64
	D3  float64
	D7  float64
	D14 float64
}

// AnalysisRecord is one scored risk decision.
type AnalysisRecord struct {
	AnalysisID  uint64
	LocationID  uint64
	WeatherID   *uint64
	Level       int
	Label       string
	Score       float64
	Confidence  float64
	TerrainKind string
	SoilKind    string
	Saturation  float64
	CreatedAt   time.Time
}

// ReasonRecord is one contributing factor to an analysis.
type ReasonRecord struct {
	Code        string
	Score       float64
	Description string
	Source      string
}

// AlertRecord is a deduplicated hazard event. A nil ExpiresAt never
// auto-expires.
type AlertRecord struct {
	ExternalID   string
	LocationName string
	Province     string
	Level        int
	Type         string
	Lat          float64
	Lon          float64
	RainMm       float64
	WindKmh      float64
	Description  string
	IsCluster    bool
	Count        int
	ExpiresAt    *time.Time
}

// HistoryRecord is a durable note that a risk event occurred. Parent refs
// are nullable: deleting the location or analysis keeps the history row.
type HistoryRecord struct {
	HistoryID  uint64
	LocationID *uint64
	AnalysisID *uint64
	RiskLevel  int
	RiskType   string
	Favorite   bool
	CreatedAt  time.Time
	Title      string
	Province   string
}

// HistoryDetail joins a history row with whatever related records still
// exist.
type HistoryDetail struct {
	History  HistoryRecord
	Location *LocationRecord
	Analysis *AnalysisRecord
	Weather  *WeatherRecord
	Rain     *RainStats
	Reasons  []ReasonRecord
}

// ProvinceRainRecord is one rolling per-province precipitation sample.
// Seeded baseline rows carry a non-nil Source; operator-collected rows do
// not.
type ProvinceRainRecord struct {
	SampleID   uint64
	Province   string
	H1         float64
	H3         float64
	H24        float64
	D3         float64
	D7         float64
	D14        float64
	RecordedAt time.Time
	Note       *string
	Source     *string
}

// ShelterRecord is static safe-haven reference data.
type ShelterRecord struct {
	ShelterID uint64
	Name      string
	Province  string
	Address   string
	Lat       float64
	Lon       float64
	Capacity  int
	Contact   string
	Status    string
}

// AnalysisSave bundles the five effects of one completed analysis.
type AnalysisSave struct {
	Location LocationRecord
	Weather  WeatherRecord
	Rain     RainStats
	Analysis AnalysisRecord
	Reasons  []ReasonRecord
}

// SavedAnalysis reports the ids produced by SaveCompleteAnalysis.
type SavedAnalysis struct {
	LocationID uint64
	WeatherID  uint64
	AnalysisID uint64
	HistoryID  *uint64
}

// RiskRepository is the persistence contract for the risk engine. Write
// operations participate in a context-carried transaction when one is
// present (see UnitOfWork); composite operations open their own.
type RiskRepository interface {
	// SaveCompleteAnalysis commits location dedup/create, weather snapshot,
	// rain stats, analysis with reasons, the history entry (level >= 2
	// only) and a province rain sample as one atomic unit.
	SaveCompleteAnalysis(ctx context.Context, in AnalysisSave, now time.Time, provinceCap int) (SavedAnalysis, error)

	// RecordProvinceRain inserts a sample and evicts everything past the
	// most recent cap rows for that province in the same transaction.
	RecordProvinceRain(ctx context.Context, province string, stats RainStats, now time.Time, cap int) error

	FindLocationNear(ctx context.Context, lat, lon float64) (LocationRecord, error)

	ReplaceAlerts(ctx context.Context, alerts []AlertRecord, now time.Time) error
	ListAlerts(ctx context.Context) ([]AlertRecord, error)
	ClearExpiredAlerts(ctx context.Context, now time.Time) (int64, error)

	GetHistory(ctx context.Context, limit int) ([]HistoryRecord, error)
	GetHistoryDetail(ctx context.Context, historyID uint64) (HistoryDetail, error)
	DeleteHistory(ctx context.Context, historyID uint64) error
	DeleteOldHistory(ctx context.Context, cutoff time.Time) (int64, error)
	ToggleFavorite(ctx context.Context, historyID uint64) (bool, error)

	GetProvinceRainHistory(ctx context.Context, province string, limit int) ([]ProvinceRainRecord, error)
	GetHistoricProvinceRecords(ctx context.Context, province string) ([]ProvinceRainRecord, error)
	GetShelters(ctx context.Context) ([]ShelterRecord, error)
}
