package db

import "time"

type AssetModel struct {
	ID              string    `gorm:"primaryKey"`
	Fingerprint     string    `gorm:"uniqueIndex;not null"`
	Content         string    `gorm:"type:text;not null"`
	Description     string    `gorm:"not null"`
	Creator         string    `gorm:"not null"`
	Publisher       string    `gorm:"not null"`
	Latitude        float64   `gorm:"not null"`
	Longitude       float64   `gorm:"not null"`
	Timestamp       time.Time `gorm:"not null"`
	LedgerReference string    `gorm:"not null"`
	Verified        bool      `gorm:"index;not null"`
	CreatedAt       time.Time `gorm:"not null"`
}

func (AssetModel) TableName() string {
	return "assets"
}
