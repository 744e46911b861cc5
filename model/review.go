package model

import (
	"time"

	"gorm.io/datatypes"
)

// Grades accepted for GradeReceived
var Grades = []string{"A", "B", "C", "D", "F"}

// Review is a single student's evaluation of a professor for one course.
// Reviews are never edited after creation.
type Review struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	ProfessorID      uint      `gorm:"not null;index" json:"professor_id"`
	CourseID         uint      `gorm:"not null;index" json:"course_id"`
	Rating           float64   `gorm:"not null" json:"rating"`
	Difficulty       float64   `gorm:"not null" json:"difficulty"`
	WouldTakeAgain   *bool     `json:"would_take_again"` // nil means the student did not answer
	ForCredit        *bool     `json:"for_credit"`
	TextbookRequired *bool     `json:"textbook_required"`
	Attendance       *bool     `json:"attendance"`
	GradeReceived    string    `gorm:"type:varchar(20)" json:"grade_received"`
	Body             string    `gorm:"column:text_review;type:text" json:"text_review"`

	// Tags holds the raw stored form; use ratings.NormalizeTags to read it
	Tags datatypes.JSON `json:"-"`
}
