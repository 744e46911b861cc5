package database

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sahilchouksey/prof-ratings/model"
)

const (
	universityColumns = `id, name, COALESCE(country, ''), COALESCE(location, ''), COALESCE(website, ''), COALESCE(contact_email, ''), created_at, updated_at`
	professorColumns  = `id, created_at, updated_at, university_id, first_name, COALESCE(middle_name, ''), last_name, COALESCE(department, '')`
	courseColumns     = `id, created_at, updated_at, university_id, course_code`
	reviewColumns     = `id, created_at, professor_id, course_id, rating, difficulty, would_take_again, for_credit, textbook_required, attendance, COALESCE(grade_received, ''), COALESCE(text_review, ''), tags`
)

type rowScanner interface {
	Scan(dest ...any) error
}

// rowIterator is the part of *sql.Rows that collect reads
type rowIterator interface {
	rowScanner
	Next() bool
	Err() error
	Close() error
}

func scanIntoUniversity(row rowScanner) (*model.University, error) {
	u := new(model.University)
	err := row.Scan(&u.ID, &u.Name, &u.Country, &u.Location, &u.Website, &u.ContactEmail, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanIntoProfessor(row rowScanner) (*model.Professor, error) {
	p := new(model.Professor)
	err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.UniversityID, &p.FirstName, &p.MiddleName, &p.LastName, &p.Department)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanIntoCourse(row rowScanner) (*model.Course, error) {
	c := new(model.Course)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.UniversityID, &c.Code); err != nil {
		return nil, err
	}
	return c, nil
}

func scanIntoReview(row rowScanner) (*model.Review, error) {
	r := new(model.Review)
	err := row.Scan(
		&r.ID,
		&r.CreatedAt,
		&r.ProfessorID,
		&r.CourseID,
		&r.Rating,
		&r.Difficulty,
		&r.WouldTakeAgain,
		&r.ForCredit,
		&r.TextbookRequired,
		&r.Attendance,
		&r.GradeReceived,
		&r.Body,
		&r.Tags,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// collect scans every row with scan
func collect[T any](rows rowIterator, scan func(rowScanner) (*T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func single[T any](row rowScanner, scan func(rowScanner) (*T, error)) (*T, error) {
	item, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

func limitClause(limit int) string {
	if limit > 0 {
		return " LIMIT " + strconv.Itoa(limit)
	}
	return ""
}

func (s *PostgreSQLStore) GetUniversity(ctx context.Context, id uint) (*model.University, error) {
	query := `SELECT ` + universityColumns + ` FROM universities WHERE id = $1 AND deleted_at IS NULL`
	return single(s.db.QueryRowContext(ctx, query, id), scanIntoUniversity)
}

func (s *PostgreSQLStore) SearchUniversities(ctx context.Context, text string, limit int) ([]model.University, error) {
	query := `SELECT ` + universityColumns + ` FROM universities
		WHERE deleted_at IS NULL AND LOWER(name) LIKE $1 ESCAPE '\'
		ORDER BY name ASC` + limitClause(limit)
	rows, err := s.db.QueryContext(ctx, query, containsPattern(text))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanIntoUniversity)
}

func (s *PostgreSQLStore) ListUniversities(ctx context.Context, search string, page, limit int) ([]model.University, int64, error) {
	where := `deleted_at IS NULL`
	args := []any{}
	if strings.TrimSpace(search) != "" {
		where += ` AND (LOWER(name) LIKE $1 ESCAPE '\' OR LOWER(location) LIKE $1 ESCAPE '\')`
		args = append(args, containsPattern(search))
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM universities WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset, size := pageOffset(page, limit)
	query := `SELECT ` + universityColumns + ` FROM universities WHERE ` + where +
		` ORDER BY name ASC, id ASC LIMIT ` + strconv.Itoa(size) + ` OFFSET ` + strconv.Itoa(offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	universities, err := collect(rows, scanIntoUniversity)
	if err != nil {
		return nil, 0, err
	}
	return universities, total, nil
}

func (s *PostgreSQLStore) FindUniversityByName(ctx context.Context, name string) (*model.University, error) {
	query := `SELECT ` + universityColumns + ` FROM universities
		WHERE deleted_at IS NULL AND LOWER(name) = $1 ORDER BY id LIMIT 1`
	return single(s.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(name))), scanIntoUniversity)
}

func (s *PostgreSQLStore) CreateUniversity(ctx context.Context, u *model.University) error {
	now := time.Now().UTC()
	query := `INSERT INTO universities (name, country, location, website, contact_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`
	if err := s.db.QueryRowContext(ctx, query, u.Name, u.Country, u.Location, u.Website, u.ContactEmail, now).Scan(&u.ID); err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (s *PostgreSQLStore) GetProfessor(ctx context.Context, id uint) (*model.Professor, error) {
	query := `SELECT ` + professorColumns + ` FROM professors WHERE id = $1 AND deleted_at IS NULL`
	return single(s.db.QueryRowContext(ctx, query, id), scanIntoProfessor)
}

func (s *PostgreSQLStore) SearchProfessors(ctx context.Context, universityID uint, text string, limit int) ([]model.Professor, error) {
	query := `SELECT ` + professorColumns + ` FROM professors
		WHERE deleted_at IS NULL AND university_id = $1
		AND (LOWER(first_name) LIKE $2 ESCAPE '\' OR LOWER(last_name) LIKE $2 ESCAPE '\')
		ORDER BY last_name ASC, first_name ASC` + limitClause(limit)
	rows, err := s.db.QueryContext(ctx, query, universityID, containsPattern(text))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanIntoProfessor)
}

func (s *PostgreSQLStore) FindProfessorByName(ctx context.Context, universityID uint, firstName, lastName string) (*model.Professor, error) {
	query := `SELECT ` + professorColumns + ` FROM professors
		WHERE deleted_at IS NULL AND university_id = $1 AND LOWER(first_name) = $2 AND LOWER(last_name) = $3
		ORDER BY id LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, universityID,
		strings.ToLower(strings.TrimSpace(firstName)),
		strings.ToLower(strings.TrimSpace(lastName)))
	return single(row, scanIntoProfessor)
}

func (s *PostgreSQLStore) CreateProfessor(ctx context.Context, p *model.Professor) error {
	now := time.Now().UTC()
	query := `INSERT INTO professors (created_at, updated_at, university_id, first_name, middle_name, last_name, department)
		VALUES ($1, $1, $2, $3, $4, $5, $6) RETURNING id`
	if err := s.db.QueryRowContext(ctx, query, now, p.UniversityID, p.FirstName, p.MiddleName, p.LastName, p.Department).Scan(&p.ID); err != nil {
		return err
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

func (s *PostgreSQLStore) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 AND deleted_at IS NULL`
	return single(s.db.QueryRowContext(ctx, query, id), scanIntoCourse)
}

func (s *PostgreSQLStore) ListCoursesByUniversity(ctx context.Context, universityID uint) ([]model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses
		WHERE deleted_at IS NULL AND university_id = $1 ORDER BY course_code ASC`
	rows, err := s.db.QueryContext(ctx, query, universityID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanIntoCourse)
}

func (s *PostgreSQLStore) ListCoursesByIDs(ctx context.Context, ids []uint) ([]model.Course, error) {
	if len(ids) == 0 {
		return []model.Course{}, nil
	}
	query := `SELECT ` + courseColumns + ` FROM courses WHERE deleted_at IS NULL AND id = ANY($1)`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(toInt64s(ids)))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanIntoCourse)
}

func (s *PostgreSQLStore) CreateCourse(ctx context.Context, c *model.Course) error {
	now := time.Now().UTC()
	query := `INSERT INTO courses (created_at, updated_at, university_id, course_code)
		VALUES ($1, $1, $2, $3) RETURNING id`
	if err := s.db.QueryRowContext(ctx, query, now, c.UniversityID, c.Code).Scan(&c.ID); err != nil {
		return err
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (s *PostgreSQLStore) ListReviewsByProfessor(ctx context.Context, professorID uint, order SortOrder) ([]model.Review, error) {
	direction := "DESC"
	if order == OldestFirst {
		direction = "ASC"
	}
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE professor_id = $1
		ORDER BY created_at ` + direction + `, id ` + direction
	rows, err := s.db.QueryContext(ctx, query, professorID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanIntoReview)
}

func (s *PostgreSQLStore) ListReviewsByProfessors(ctx context.Context, professorIDs []uint) ([]model.Review, error) {
	if len(professorIDs) == 0 {
		return []model.Review{}, nil
	}
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE professor_id = ANY($1)
		ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(toInt64s(professorIDs)))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanIntoReview)
}

func (s *PostgreSQLStore) CreateReview(ctx context.Context, r *model.Review) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO reviews (created_at, professor_id, course_id, rating, difficulty, would_take_again,
			for_credit, textbook_required, attendance, grade_received, text_review, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	return s.db.QueryRowContext(ctx, query,
		r.CreatedAt,
		r.ProfessorID,
		r.CourseID,
		r.Rating,
		r.Difficulty,
		r.WouldTakeAgain,
		r.ForCredit,
		r.TextbookRequired,
		r.Attendance,
		r.GradeReceived,
		r.Body,
		r.Tags,
	).Scan(&r.ID)
}

func (s *PostgreSQLStore) CountReviewsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE created_at >= $1`, since).Scan(&count)
	return count, err
}

func toInt64s(ids []uint) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
