package model

import "time"

type RiskAnalysis struct {
	AnalysisID  uint64           `gorm:"column:analysis_id;primaryKey;autoIncrement"`
	LocationID  uint64           `gorm:"column:location_id;not null;index"`
	Location    *Location        `gorm:"foreignKey:LocationID;references:LocationID;constraint:OnDelete:CASCADE"`
	WeatherID   *uint64          `gorm:"column:weather_id"`
	Weather     *WeatherSnapshot `gorm:"foreignKey:WeatherID;references:WeatherID;constraint:OnDelete:SET NULL"`
	Level       int              `gorm:"column:level;not null"`
	Label       string           `gorm:"column:label;type:text;not null"`
	Score       float64          `gorm:"column:score;not null"`
	Confidence  float64          `gorm:"column:confidence"`
	TerrainKind string           `gorm:"column:terrain_kind;type:text"`
	SoilKind    string           `gorm:"column:soil_kind;type:text"`
	Saturation  float64          `gorm:"column:saturation"`
	CreatedAt   time.Time        `gorm:"column:created_at;not null;autoCreateTime;index"`
}

func (RiskAnalysis) TableName() string {
	return "risk_analyses"
}

type RiskReason struct {
	ReasonID    uint64        `gorm:"column:reason_id;primaryKey;autoIncrement"`
	AnalysisID  uint64        `gorm:"column:analysis_id;not null;index"`
	Analysis    *RiskAnalysis `gorm:"foreignKey:AnalysisID;references:AnalysisID;constraint:OnDelete:CASCADE"`
	Code        string        `gorm:"column:code;type:text;not null"`
	Score       float64       `gorm:"column:score;not null"`
	Description string        `gorm:"column:description;type:text"`
	Source      string        `gorm:"column:source;type:text"`
}

func (RiskReason) TableName() string {
	return "risk_reasons"
}
