package risk

import "time"

// Risk levels, lowest to highest. Labels are the operator-facing
// Vietnamese strings; they are persisted as-is.
const (
	LevelSafe    = 1
	LevelMinor   = 2
	LevelWarning = 3
	LevelDanger  = 4
)

func LevelLabel(level int) string {
	switch level {
	case LevelDanger:
		return "Nguy hiểm"
	case LevelWarning:
		return "Cảnh báo"
	case LevelMinor:
		return "Nhẹ"
	default:
		return "An toàn"
	}
}

// RainWindows holds cumulative precipitation in millimetres over fixed
// trailing windows. Monotonicity across windows is not enforced; values
// are scored as received.
type RainWindows struct {
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

// WeatherInput is one meteorological reading for a point. Missing optional
// fields stay zero and contribute nothing to the score.
type WeatherInput struct {
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
	Rain           RainWindows
}

// StormInput describes the nearest active storm relative to the point.
type StormInput struct {
	DistanceKm float64
	WindKmh    float64
}

// TerrainInput carries the static geometry of the point. Slope, when zero,
// is approximated from elevation bands (see SlopeFromElevation).
type TerrainInput struct {
	ElevationM float64
	SlopeDeg   float64
}

// Reason is one contributing factor behind an assessment, ordered by
// score descending when persisted.
type Reason struct {
	Code        string
	Score       float64
	Description string
	Source      string
}

// Assessment is the full output of a risk computation.
type Assessment struct {
	Score        float64
	Level        int
	Label        string
	WeatherScore float64
	StormScore   float64
	TerrainScore float64
	Confidence   float64
	Saturation   float64
	TerrainKind  string
	SoilKind     string
	Reasons      []Reason
}

// AlertEvent is a raw or clustered hazard event shown to an operator.
type AlertEvent struct {
	ID           string
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
