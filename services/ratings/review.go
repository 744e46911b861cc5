package ratings

import (
	"time"

	"github.com/sahilchouksey/prof-ratings/model"
	"go.uber.org/zap"
)

// Review is a stored review with its tags normalized
type Review struct {
	ID               uint      `json:"id"`
	ProfessorID      uint      `json:"professor_id"`
	CourseID         uint      `json:"course_id"`
	Rating           float64   `json:"rating"`
	Difficulty       float64   `json:"difficulty"`
	WouldTakeAgain   *bool     `json:"would_take_again"`
	ForCredit        *bool     `json:"for_credit"`
	TextbookRequired *bool     `json:"textbook_required"`
	Attendance       *bool     `json:"attendance"`
	GradeReceived    string    `json:"grade_received"`
	Body             string    `json:"text_review"`
	Tags             []string  `json:"tags"`
	CreatedAt        time.Time `json:"created_at"`
}

// FromModel converts stored reviews, normalizing each tag field. The input
// order is kept.
func FromModel(rows []model.Review, logger *zap.Logger) []Review {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := make([]Review, len(rows))
	for i, row := range rows {
		out[i] = Review{
			ID:               row.ID,
			ProfessorID:      row.ProfessorID,
			CourseID:         row.CourseID,
			Rating:           row.Rating,
			Difficulty:       row.Difficulty,
			WouldTakeAgain:   row.WouldTakeAgain,
			ForCredit:        row.ForCredit,
			TextbookRequired: row.TextbookRequired,
			Attendance:       row.Attendance,
			GradeReceived:    row.GradeReceived,
			Body:             row.Body,
			Tags:             NormalizeTags(row.Tags, logger.With(zap.Uint("review_id", row.ID))),
			CreatedAt:        row.CreatedAt,
		}
	}
	return out
}
