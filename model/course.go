package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a course offered at a university (e.g., "COP 3530")
type Course struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	UniversityID uint           `gorm:"not null;index" json:"university_id"`
	Code         string         `gorm:"column:course_code;type:varchar(50);not null" json:"course_code"`
}
