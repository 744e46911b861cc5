package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sahilchouksey/prof-ratings/model"
)

var ErrNotFound = errors.New("record not found")

// SortOrder orders reviews by creation time
type SortOrder string

const (
	NewestFirst SortOrder = "desc"
	OldestFirst SortOrder = "asc"
)

// ParseSortOrder maps a query parameter to a SortOrder, newest first by default
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(OldestFirst)) {
		return OldestFirst
	}
	return NewestFirst
}

// DataStore is every query the rating and search services make. A limit of
// zero or less means no limit.
type DataStore interface {
	// Universities
	GetUniversity(ctx context.Context, id uint) (*model.University, error)
	SearchUniversities(ctx context.Context, text string, limit int) ([]model.University, error)
	ListUniversities(ctx context.Context, search string, page, limit int) ([]model.University, int64, error)
	FindUniversityByName(ctx context.Context, name string) (*model.University, error)
	CreateUniversity(ctx context.Context, u *model.University) error

	// Professors
	GetProfessor(ctx context.Context, id uint) (*model.Professor, error)
	SearchProfessors(ctx context.Context, universityID uint, text string, limit int) ([]model.Professor, error)
	FindProfessorByName(ctx context.Context, universityID uint, firstName, lastName string) (*model.Professor, error)
	CreateProfessor(ctx context.Context, p *model.Professor) error

	// Courses
	GetCourse(ctx context.Context, id uint) (*model.Course, error)
	ListCoursesByUniversity(ctx context.Context, universityID uint) ([]model.Course, error)
	ListCoursesByIDs(ctx context.Context, ids []uint) ([]model.Course, error)
	CreateCourse(ctx context.Context, c *model.Course) error

	// Reviews
	ListReviewsByProfessor(ctx context.Context, professorID uint, order SortOrder) ([]model.Review, error)
	ListReviewsByProfessors(ctx context.Context, professorIDs []uint) ([]model.Review, error)
	CreateReview(ctx context.Context, r *model.Review) error
	CountReviewsSince(ctx context.Context, since time.Time) (int64, error)
}

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	DataStore

	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error
}

// containsPattern builds a LIKE pattern matching text anywhere, for use with
// LOWER(column) LIKE ? ESCAPE '\'
func containsPattern(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(text))) + "%"
}

// pageOffset normalises page and limit the way list endpoints expect
func pageOffset(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return (page - 1) * limit, limit
}
