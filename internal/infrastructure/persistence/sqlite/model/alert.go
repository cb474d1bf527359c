package model

import "time"

// AlertEvent rows live on a scan-cycle lifecycle, independent of any
// single-location analysis. A NULL expires_at never auto-expires.
type AlertEvent struct {
	AlertID      uint64     `gorm:"column:alert_id;primaryKey;autoIncrement"`
	ExternalID   string     `gorm:"column:external_id;type:text;not null;uniqueIndex"`
	LocationName string     `gorm:"column:location_name;type:text;not null"`
	Province     string     `gorm:"column:province;type:text;index"`
	Level        int        `gorm:"column:level;not null"`
	Type         string     `gorm:"column:type;type:text"`
	Lat          float64    `gorm:"column:lat"`
	Lon          float64    `gorm:"column:lon"`
	RainMm       float64    `gorm:"column:rain_mm"`
	WindKmh      float64    `gorm:"column:wind_kmh"`
	Description  string     `gorm:"column:description;type:text"`
	IsCluster    bool       `gorm:"column:is_cluster;not null;default:0"`
	Count        int        `gorm:"column:count;not null;default:0"`
	ExpiresAt    *time.Time `gorm:"column:expires_at;index"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
}

func (AlertEvent) TableName() string {
	return "alert_events"
}
