package model

import (
	"time"

	"gorm.io/gorm"
)

// University represents an institution students can search for and review professors at
type University struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null;index" json:"name"`
	Country      string         `gorm:"type:varchar(120)" json:"country"`
	Location     string         `gorm:"type:varchar(255)" json:"location"` // e.g., "Miami, FL"
	Website      string         `gorm:"type:varchar(255)" json:"website"`
	ContactEmail string         `gorm:"type:varchar(255)" json:"contact_email,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Courses    []Course    `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
	Professors []Professor `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"-"`
}
