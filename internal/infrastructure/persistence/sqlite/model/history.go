package model

import "time"

// HistoryEntry keeps a durable record that a risk event occurred. Parent
// refs go NULL when the location or analysis is deleted; the history row
// itself survives.
type HistoryEntry struct {
	HistoryID  uint64        `gorm:"column:history_id;primaryKey;autoIncrement"`
	LocationID *uint64       `gorm:"column:location_id;index"`
	Location   *Location     `gorm:"foreignKey:LocationID;references:LocationID;constraint:OnDelete:SET NULL"`
	AnalysisID *uint64       `gorm:"column:analysis_id"`
	Analysis   *RiskAnalysis `gorm:"foreignKey:AnalysisID;references:AnalysisID;constraint:OnDelete:SET NULL"`
	RiskLevel  int           `gorm:"column:risk_level;not null"`
	RiskType   string        `gorm:"column:risk_type;type:text"`
	Title      string        `gorm:"column:title;type:text"`
	Province   string        `gorm:"column:province;type:text"`
	Favorite   bool          `gorm:"column:favorite;not null;default:0"`
	CreatedAt  time.Time     `gorm:"column:created_at;not null;index"`
}

func (HistoryEntry) TableName() string {
	return "history_entries"
}
