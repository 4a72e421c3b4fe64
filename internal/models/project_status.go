package models

// MaxStatusNameLength bounds ProjectStatus.Name in runes.
const MaxStatusNameLength = 32

type ProjectStatus struct {
	ID        uint64 `gorm:"primarykey" json:"id"`
	ProjectID uint64 `gorm:"not null;uniqueIndex:uk_project_status_name;uniqueIndex:uk_project_status_position" json:"project_id"`
	Name      string `gorm:"type:varchar(32);not null;uniqueIndex:uk_project_status_name" json:"name"`
	Position  int    `gorm:"not null;uniqueIndex:uk_project_status_position" json:"position"`
}
