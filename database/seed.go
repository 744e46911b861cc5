package database

import (
	"fmt"
	"time"

	"github.com/sahilchouksey/prof-ratings/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{db: db, log: log, now: time.Now}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	s.log.Info("starting database seeding")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedUniversities(); err != nil {
		return fmt.Errorf("failed to seed universities: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	if err := s.SeedProfessors(); err != nil {
		return fmt.Errorf("failed to seed professors: %w", err)
	}

	if err := s.SeedReviews(); err != nil {
		return fmt.Errorf("failed to seed reviews: %w", err)
	}

	s.log.Info("database seeding completed")
	return nil
}

// alreadySeeded reports whether table of m has rows
func (s *Seeder) alreadySeeded(m any, name string) (bool, error) {
	var count int64
	if err := s.db.Model(m).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		s.log.Info("already seeded, skipping", zap.String("table", name), zap.Int64("rows", count))
		return true, nil
	}
	return false, nil
}

// SeedUniversities creates sample universities
func (s *Seeder) SeedUniversities() error {
	if done, err := s.alreadySeeded(&model.University{}, "universities"); done || err != nil {
		return err
	}

	universities := []model.University{
		{Name: "Florida University", Country: "United States", Location: "Miami, FL", Website: "https://www.fu.example.edu"},
		{Name: "University of Florida", Country: "United States", Location: "Gainesville, FL", Website: "https://www.ufl.edu"},
		{Name: "Florida State University", Country: "United States", Location: "Tallahassee, FL", Website: "https://www.fsu.edu"},
		{Name: "Université de Montréal", Country: "Canada", Location: "Montréal, QC", Website: "https://www.umontreal.ca"},
	}

	if err := s.db.Create(&universities).Error; err != nil {
		return err
	}

	s.log.Info("created universities", zap.Int("count", len(universities)))
	return nil
}

// SeedCourses creates sample courses for every university
func (s *Seeder) SeedCourses() error {
	if done, err := s.alreadySeeded(&model.Course{}, "courses"); done || err != nil {
		return err
	}

	var universities []model.University
	if err := s.db.Order("id").Find(&universities).Error; err != nil {
		return err
	}
	if len(universities) == 0 {
		return fmt.Errorf("no universities found, seed universities first")
	}

	codes := []string{"COP 3530", "MAC 2311", "PHY 2048", "ENC 1101"}
	var courses []model.Course
	for _, u := range universities {
		for _, code := range codes {
			courses = append(courses, model.Course{UniversityID: u.ID, Code: code})
		}
	}

	if err := s.db.Create(&courses).Error; err != nil {
		return err
	}

	s.log.Info("created courses", zap.Int("count", len(courses)))
	return nil
}

// SeedProfessors creates sample professors at the first universities
func (s *Seeder) SeedProfessors() error {
	if done, err := s.alreadySeeded(&model.Professor{}, "professors"); done || err != nil {
		return err
	}

	var universities []model.University
	if err := s.db.Order("id").Limit(2).Find(&universities).Error; err != nil {
		return err
	}
	if len(universities) < 2 {
		return fmt.Errorf("need at least two universities, seed universities first")
	}

	professors := []model.Professor{
		{UniversityID: universities[0].ID, FirstName: "Jane", LastName: "Smith", Department: "Computer Science"},
		{UniversityID: universities[0].ID, FirstName: "Carlos", LastName: "Smithson", Department: "Mathematics"},
		{UniversityID: universities[0].ID, FirstName: "José", LastName: "Álvarez", Department: "Physics"},
		{UniversityID: universities[1].ID, FirstName: "John", LastName: "Smith", Department: "English"},
	}

	if err := s.db.Create(&professors).Error; err != nil {
		return err
	}

	s.log.Info("created professors", zap.Int("count", len(professors)))
	return nil
}

// SeedReviews creates sample reviews for the seeded professors
func (s *Seeder) SeedReviews() error {
	if done, err := s.alreadySeeded(&model.Review{}, "reviews"); done || err != nil {
		return err
	}

	var professors []model.Professor
	if err := s.db.Order("id").Find(&professors).Error; err != nil {
		return err
	}

	yes, no := true, false
	samples := []struct {
		rating, difficulty float64
		again              *bool
		grade              string
		tags               string
		body               string
	}{
		{5, 3, &yes, "A", `["Caring","Amazing Lectures"]`, "Clear lectures and fair exams."},
		{3, 3, &no, "B", `["Caring","Tough Grader"]`, "Cares about students but grades hard."},
		{4, 2, nil, "A", `["Respected"]`, "Good class overall."},
		{2, 5, &no, "C", `["Lots Of Homework","Tough Grader","Test Heavy"]`, "Weekly problem sets take forever."},
	}

	var reviews []model.Review
	created := s.now().Add(-time.Duration(len(professors)*len(samples)) * time.Hour)
	for _, p := range professors {
		var courses []model.Course
		if err := s.db.Where("university_id = ?", p.UniversityID).Order("id").Find(&courses).Error; err != nil {
			return err
		}
		if len(courses) == 0 {
			continue
		}
		for i, sample := range samples {
			created = created.Add(time.Hour)
			reviews = append(reviews, model.Review{
				CreatedAt:      created,
				ProfessorID:    p.ID,
				CourseID:       courses[i%len(courses)].ID,
				Rating:         sample.rating,
				Difficulty:     sample.difficulty,
				WouldTakeAgain: sample.again,
				GradeReceived:  sample.grade,
				Body:           sample.body,
				Tags:           datatypes.JSON(sample.tags),
			})
		}
	}

	if len(reviews) == 0 {
		return nil
	}
	if err := s.db.Create(&reviews).Error; err != nil {
		return err
	}

	s.log.Info("created reviews", zap.Int("count", len(reviews)))
	return nil
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB, log *zap.Logger) error {
	return NewSeeder(db, log).SeedAll()
}
