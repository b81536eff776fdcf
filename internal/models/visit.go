package models

import "time"

// VisitTableName is the name of the visit table.
const VisitTableName = "trackit_trackings"

// Visit is one recorded page view or tracked element interaction.
// Rows are written once and never updated.
type Visit struct {
	ID                  uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	VisitedAt           time.Time `gorm:"not null;index" json:"visited_at"`
	SourceURL           string    `gorm:"size:255;not null;default:''" json:"source_url"`
	SourceCustomElement string    `gorm:"size:55;not null;default:''" json:"source_custom_element"`
}

// TableName pins the table name.
func (Visit) TableName() string {
	return VisitTableName
}
