package model

import "time"

type WeatherSnapshot struct {
	WeatherID      uint64    `gorm:"column:weather_id;primaryKey;autoIncrement"`
	LocationID     uint64    `gorm:"column:location_id;not null;index"`
	Location       *Location `gorm:"foreignKey:LocationID;references:LocationID;constraint:OnDelete:CASCADE"`
	Temp           float64   `gorm:"column:temp"`
	FeelsLike      float64   `gorm:"column:feels_like"`
	TempMin        float64   `gorm:"column:temp_min"`
	TempMax        float64   `gorm:"column:temp_max"`
	Humidity       float64   `gorm:"column:humidity"`
	PressureSea    float64   `gorm:"column:pressure_sea"`
	PressureGround float64   `gorm:"column:pressure_ground"`
	WindSpeed      float64   `gorm:"column:wind_speed"`
	WindDir        float64   `gorm:"column:wind_dir"`
	WindGusts      float64   `gorm:"column:wind_gusts"`
	CloudCover     float64   `gorm:"column:cloud_cover"`
	UVIndex        float64   `gorm:"column:uv_index"`
	SoilMoisture   float64   `gorm:"column:soil_moisture"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (WeatherSnapshot) TableName() string {
	return "weather_snapshots"
}

type RainWindowStats struct {
	RainID    uint64           `gorm:"column:rain_id;primaryKey;autoIncrement"`
	WeatherID uint64           `gorm:"column:weather_id;not null;uniqueIndex"`
	Weather   *WeatherSnapshot `gorm:"foreignKey:WeatherID;references:WeatherID;constraint:OnDelete:CASCADE"`
	H1        float64          `gorm:"column:h1"`
	H2        float64          `gorm:"column:h2"`
	H3        float64          `gorm:"column:h3"`
	H5        float64          `gorm:"column:h5"`
	H12       float64          `gorm:"column:h12"`
	H24       float64          `gorm:"column:h24"`
	D3        float64          `gorm:"column:d3"`
	D7        float64          `gorm:"column:d7"`
	D14       float64          `gorm:"column:d14"`
}

func (RainWindowStats) TableName() string {
	return "rain_window_stats"
}
