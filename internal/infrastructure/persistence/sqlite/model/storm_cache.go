package model

// StormCacheKV backs the last-known-good cache for external fetch
// payloads.
type StormCacheKV struct {
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (StormCacheKV) TableName() string {
	return "storm_cache"
}
