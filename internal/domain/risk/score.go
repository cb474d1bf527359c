package risk

import (
	"fmt"
	"math"
	"sort"
)

// Rain window weights sum to 1 within the rain component. Short windows
// weigh highest for immediacy.
const (
	rainWeightH1  = 0.30
	rainWeightH3  = 0.20
	rainWeightH12 = 0.15
	rainWeightH24 = 0.10
	rainWeightD3  = 0.25

	weightRain     = 0.45
	weightWind     = 0.35
	weightHumidity = 0.05
	weightSoil     = 0.10
	weightPressure = 0.05

	weightWeather = 0.50
	weightStorm   = 0.40
	weightTerrain = 0.10

	stormIgnoreKm    = 800.0
	stormInfluenceKm = 300.0
	stormNearCoreKm  = 100.0
)

// Norm linearly maps x into [0,100] over [lo,hi], clamping outside the
// range rather than extrapolating.
func Norm(x, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	v := (x - lo) / (hi - lo) * 100
	return math.Max(0, math.Min(100, v))
}

// WeatherScore blends rain, wind, humidity, soil saturation and pressure
// drop into a 0-100 score with floor overrides for significant rain and
// gusts. Returns the score with the reasons that fired.
func WeatherScore(w WeatherInput) (float64, []Reason) {
	rain := rainWeightH1*Norm(w.Rain.H1, 5, 150) +
		rainWeightH3*Norm(w.Rain.H3, 10, 200) +
		rainWeightH12*Norm(w.Rain.H12, 20, 250) +
		rainWeightH24*Norm(w.Rain.H24, 30, 350) +
		rainWeightD3*Norm(w.Rain.D3, 50, 500)

	wind := 0.7*Norm(w.WindSpeed, 30, 200) + 0.3*Norm(w.WindGusts, 50, 260)
	humidity := Norm(w.Humidity, 60, 100)
	soil := Norm(w.SoilMoisture, 0.4, 0.9)

	// A zero pressure reading means the field is absent, not a total
	// pressure collapse; missing inputs contribute nothing.
	pressure := 0.0
	if w.PressureSea > 0 {
		pressure = 100 - Norm(w.PressureSea, 880, 1010)
	}

	score := weightRain*rain +
		weightWind*wind +
		weightHumidity*humidity +
		weightSoil*soil +
		weightPressure*pressure

	var reasons []Reason

	// Floor overrides keep significant rain from being averaged away.
	if w.Rain.H1 > 10 || w.Rain.H3 > 20 || w.Rain.H24 > 50 {
		score = math.Max(score, 40)
		reasons = append(reasons, Reason{
			Code:        "heavy_rain",
			Score:       rain,
			Description: fmt.Sprintf("Mưa lớn: %.0f mm/1h, %.0f mm/3h, %.0f mm/24h", w.Rain.H1, w.Rain.H3, w.Rain.H24),
			Source:      "weather",
		})
	}
	if w.WindGusts >= 60 {
		score = math.Max(score, 50)
		reasons = append(reasons, Reason{
			Code:        "strong_gust",
			Score:       Norm(w.WindGusts, 50, 260),
			Description: fmt.Sprintf("Gió giật mạnh %.0f km/h", w.WindGusts),
			Source:      "weather",
		})
	}
	// Extreme multi-window rain is an immediate flood signal on its own.
	if w.Rain.H1 >= 50 || w.Rain.H3 >= 80 || w.Rain.H24 >= 110 {
		score = math.Max(score, 90)
		reasons = append(reasons, Reason{
			Code:        "extreme_rain",
			Score:       score,
			Description: fmt.Sprintf("Mưa cực lớn: %.0f mm trong 1 giờ, %.0f mm trong 24 giờ", w.Rain.H1, w.Rain.H24),
			Source:      "weather",
		})
	}

	return score, reasons
}

// NoStorm is the storm input for a cycle with no active track. Its
// distance sits past the ignore cutoff, so it scores zero.
func NoStorm() StormInput {
	return StormInput{DistanceKm: stormIgnoreKm + 1}
}

// StormScore combines proximity to the storm centre with its sustained
// wind. Beyond 800 km the storm does not contribute at all; inside
// 100 km, distance zero included, the score is floored at 90.
func StormScore(s StormInput) (float64, []Reason) {
	if s.DistanceKm > stormIgnoreKm {
		return 0, nil
	}

	proximity := Norm(stormInfluenceKm-s.DistanceKm, 0, stormInfluenceKm)
	wind := Norm(s.WindKmh, 40, 240)
	score := 0.60*proximity + 0.40*wind

	reasons := []Reason{{
		Code:        "storm_proximity",
		Score:       proximity,
		Description: fmt.Sprintf("Bão cách %.0f km, gió %.0f km/h", s.DistanceKm, s.WindKmh),
		Source:      "storm",
	}}

	if s.DistanceKm < stormNearCoreKm {
		score = math.Max(score, 90)
		reasons[0].Code = "storm_near_core"
		reasons[0].Score = score
	}

	return score, reasons
}

// SlopeFromElevation approximates slope from coarse elevation bands.
// This is a documented placeholder, not real terrain data; replacing it
// with a DEM lookup would change the scoring contract.
func SlopeFromElevation(elevM float64) float64 {
	switch {
	case elevM < 50:
		return 5
	case elevM < 200:
		return 12
	case elevM < 500:
		return 20
	case elevM < 1000:
		return 30
	default:
		return 40
	}
}

// TerrainScore normalizes slope over [0,60] degrees.
func TerrainScore(t TerrainInput) float64 {
	slope := t.SlopeDeg
	if slope == 0 {
		slope = SlopeFromElevation(t.ElevationM)
	}
	return Norm(slope, 0, 60)
}

func terrainKind(elevM float64) string {
	switch {
	case elevM < 50:
		return "đồng bằng"
	case elevM < 500:
		return "đồi"
	default:
		return "núi"
	}
}

func soilKind(saturation float64) string {
	switch {
	case saturation >= 0.8:
		return "bão hòa"
	case saturation >= 0.6:
		return "ẩm"
	default:
		return "khô"
	}
}

// ComputeRisk produces the composite assessment from the three sub-scores.
// Missing optional inputs contribute zero; nothing here errors.
func ComputeRisk(w WeatherInput, s StormInput, t TerrainInput) Assessment {
	weather, weatherReasons := WeatherScore(w)
	storm, stormReasons := StormScore(s)
	terrain := TerrainScore(t)
	saturation := w.SoilMoisture

	total := weightWeather*weather + weightStorm*storm + weightTerrain*terrain

	reasons := append(weatherReasons, stormReasons...)

	// Saturated soil on steep ground compounds landslide risk.
	if terrain > 50 && saturation > 0 {
		total += saturation * 30 * 0.2
		reasons = append(reasons, Reason{
			Code:        "soil_terrain",
			Score:       terrain,
			Description: fmt.Sprintf("Đất %s trên địa hình dốc (độ bão hòa %.2f)", soilKind(saturation), saturation),
			Source:      "terrain",
		})
	}

	// Veto floors: either sub-signal alone is enough to escalate.
	if storm >= 80 {
		total = math.Max(total, 90)
	}
	if weather >= 90 {
		total = math.Max(total, 85)
	}
	total = math.Min(total, 100)

	level := levelFor(total)

	sort.SliceStable(reasons, func(i, j int) bool {
		return reasons[i].Score > reasons[j].Score
	})

	return Assessment{
		Score:        total,
		Level:        level,
		Label:        LevelLabel(level),
		WeatherScore: weather,
		StormScore:   storm,
		TerrainScore: terrain,
		Confidence:   confidenceFor(weather, storm, terrain, len(reasons)),
		Saturation:   saturation,
		TerrainKind:  terrainKind(t.ElevationM),
		SoilKind:     soilKind(saturation),
		Reasons:      reasons,
	}
}

func levelFor(score float64) int {
	switch {
	case score >= 85:
		return LevelDanger
	case score >= 65:
		return LevelWarning
	case score >= 35:
		return LevelMinor
	default:
		return LevelSafe
	}
}

// confidenceFor is deterministic in which signals fired so the stored
// value can be reproduced from the inputs.
func confidenceFor(weather, storm, terrain float64, firedReasons int) float64 {
	c := 0.55
	if weather >= 40 {
		c += 0.10
	}
	if storm > 0 {
		c += 0.10
	}
	if terrain > 50 {
		c += 0.05
	}
	c += 0.05 * float64(firedReasons)
	return math.Min(c, 0.95)
}
