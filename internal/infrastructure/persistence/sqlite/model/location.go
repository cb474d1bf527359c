package model

import "time"

type Location struct {
	LocationID uint64    `gorm:"column:location_id;primaryKey;autoIncrement"`
	Lat        float64   `gorm:"column:lat;not null;index:idx_locations_lat_lon"`
	Lon        float64   `gorm:"column:lon;not null;index:idx_locations_lat_lon"`
	Title      string    `gorm:"column:title;type:text;not null"`
	Subtitle   string    `gorm:"column:subtitle;type:text"`
	Province   string    `gorm:"column:province;type:text;index"`
	Elevation  float64   `gorm:"column:elevation"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (Location) TableName() string {
	return "locations"
}
