package database

import (
	"strings"

	"go.uber.org/zap"
)

func (s *PostgreSQLStore) Initialize() error {
	// Init all tables
	s.log.Info("initializing PostgreSQL database", zap.String("step", "tables"))
	if err := s.InitTables(); err != nil {
		return err
	}
	// Print relationships
	s.log.Info("initializing PostgreSQL database", zap.String("step", "relationships"))
	s.PrintAllRelationships()
	return nil
}

// InitTables creates the tables backing the model package
func (s *PostgreSQLStore) InitTables() error {
	universities_table := `
	CREATE TABLE IF NOT EXISTS universities (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		country VARCHAR(120),
		location VARCHAR(255),
		website VARCHAR(255),
		contact_email VARCHAR(255),
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_universities_name ON universities (name);
	CREATE INDEX IF NOT EXISTS idx_universities_deleted_at ON universities (deleted_at);
	`

	courses_table := `
	CREATE TABLE IF NOT EXISTS courses (
		id BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ,
		university_id BIGINT NOT NULL REFERENCES universities(id) ON DELETE CASCADE,
		course_code VARCHAR(50) NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_courses_university_id ON courses (university_id);
	CREATE INDEX IF NOT EXISTS idx_courses_deleted_at ON courses (deleted_at);
	`

	professors_table := `
	CREATE TABLE IF NOT EXISTS professors (
		id BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ,
		university_id BIGINT NOT NULL REFERENCES universities(id) ON DELETE CASCADE,
		first_name VARCHAR(100) NOT NULL,
		middle_name VARCHAR(100),
		last_name VARCHAR(100) NOT NULL,
		department VARCHAR(255)
	);
	CREATE INDEX IF NOT EXISTS idx_professors_university_id ON professors (university_id);
	CREATE INDEX IF NOT EXISTS idx_professors_deleted_at ON professors (deleted_at);
	`

	reviews_table := `
	CREATE TABLE IF NOT EXISTS reviews (
		id BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ,
		professor_id BIGINT NOT NULL REFERENCES professors(id) ON DELETE CASCADE,
		course_id BIGINT NOT NULL,
		rating DOUBLE PRECISION NOT NULL,
		difficulty DOUBLE PRECISION NOT NULL,
		would_take_again BOOLEAN,
		for_credit BOOLEAN,
		textbook_required BOOLEAN,
		attendance BOOLEAN,
		grade_received VARCHAR(20),
		text_review TEXT,
		tags JSONB
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_created_at ON reviews (created_at);
	CREATE INDEX IF NOT EXISTS idx_reviews_professor_id ON reviews (professor_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_course_id ON reviews (course_id);
	`

	all_tables := strings.Join([]string{universities_table, courses_table, professors_table, reviews_table}, "")

	_, err := s.db.Exec(all_tables)
	return err
}

func (s *PostgreSQLStore) PrintAllRelationships() {
	relationships := map[string]string{
		"courses":    "university_id -> universities(id)",
		"professors": "university_id -> universities(id)",
		"reviews":    "professor_id -> professors(id), course_id -> courses(id)",
	}

	for table, relationship := range relationships {
		s.log.Debug("table relationships", zap.String("table", table), zap.String("references", relationship))
	}
}
