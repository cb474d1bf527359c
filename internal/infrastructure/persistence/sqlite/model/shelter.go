package model

type Shelter struct {
	ShelterID uint64  `gorm:"column:shelter_id;primaryKey;autoIncrement"`
	Name      string  `gorm:"column:name;type:text;not null"`
	Province  string  `gorm:"column:province;type:text;index"`
	Address   string  `gorm:"column:address;type:text"`
	Lat       float64 `gorm:"column:lat"`
	Lon       float64 `gorm:"column:lon"`
	Capacity  int     `gorm:"column:capacity"`
	Contact   string  `gorm:"column:contact;type:text"`
	Status    string  `gorm:"column:status;type:text"`
}

func (Shelter) TableName() string {
	return "shelters"
}
