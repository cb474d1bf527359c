package model

import "time"

// ProvinceRainSample is a rolling per-province precipitation sample,
// capped by recency on insert. Seeded baseline rows carry a non-NULL
// source; operator-collected rows do not.
type ProvinceRainSample struct {
	SampleID   uint64    `gorm:"column:sample_id;primaryKey;autoIncrement"`
	Province   string    `gorm:"column:province;type:text;not null;index"`
	H1         float64   `gorm:"column:h1"`
	H3         float64   `gorm:"column:h3"`
	H24        float64   `gorm:"column:h24"`
	D3         float64   `gorm:"column:d3"`
	D7         float64   `gorm:"column:d7"`
	D14        float64   `gorm:"column:d14"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null;index"`
	Note       *string   `gorm:"column:note;type:text"`
	Source     *string   `gorm:"column:source;type:text;index"`
}

func (ProvinceRainSample) TableName() string {
	return "province_rain_samples"
}
