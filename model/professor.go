package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Professor is the person being reviewed
type Professor struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	UniversityID uint           `gorm:"not null;index" json:"university_id"`
	FirstName    string         `gorm:"type:varchar(100);not null" json:"first_name"`
	MiddleName   string         `gorm:"type:varchar(100)" json:"middle_name,omitempty"`
	LastName     string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Department   string         `gorm:"type:varchar(255)" json:"department"`

	// Relationships
	Reviews []Review `gorm:"foreignKey:ProfessorID;constraint:OnDelete:CASCADE" json:"-"`
}

// FullName returns the listing form of the name, "Last, First"
func (p Professor) FullName() string {
	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)
	switch {
	case last == "":
		return first
	case first == "":
		return last
	}
	return last + ", " + first
}
