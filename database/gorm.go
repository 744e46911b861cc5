package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sahilchouksey/prof-ratings/config"
	"github.com/sahilchouksey/prof-ratings/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GORMStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// StartGORM opens a GORM connection using the configured driver, PostgreSQL
// or SQLite
func StartGORM(getEnv *config.EnviornmentVariable, log *zap.Logger) (*GORMStore, error) {
	var dialector gorm.Dialector
	switch getEnv.DB_DRIVER {
	case "sqlite":
		dialector = sqlite.Open(getEnv.SQLITE_PATH)
	default:
		// Build DSN (Data Source Name)
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			getEnv.DB_HOST,
			getEnv.DB_USER_NAME,
			getEnv.DB_PASSWORD,
			getEnv.DB_NAME,
			getEnv.DB_PORT,
			getEnv.DB_SSL_MODE,
		)
		dialector = postgres.Open(dsn)
	}

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		log.Error("unable to open database with GORM", zap.String("driver", getEnv.DB_DRIVER), zap.Error(err))
		return nil, err
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if getEnv.DB_DRIVER == "sqlite" {
		// one writer at a time
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("connected to database with GORM", zap.String("driver", getEnv.DB_DRIVER))

	return NewGORMStore(db, log), nil
}

// NewGORMStore wraps an open connection
func NewGORMStore(db *gorm.DB, log *zap.Logger) *GORMStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &GORMStore{db: db, log: log}
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	s.log.Info("running GORM AutoMigrate")

	err := s.db.AutoMigrate(
		&model.University{},
		&model.Course{},
		&model.Professor{},
		&model.Review{},
	)
	if err != nil {
		s.log.Error("error running AutoMigrate", zap.Error(err))
		return err
	}

	s.log.Info("GORM AutoMigrate completed")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	s.log.Info("closing GORM connection")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the GORM DB instance, used by the seeder
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GORMStore) GetUniversity(ctx context.Context, id uint) (*model.University, error) {
	var u model.University
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *GORMStore) SearchUniversities(ctx context.Context, text string, limit int) ([]model.University, error) {
	query := s.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(text)).
		Order("name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var universities []model.University
	err := query.Find(&universities).Error
	return universities, err
}

func (s *GORMStore) ListUniversities(ctx context.Context, search string, page, limit int) ([]model.University, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.University{})
	if strings.TrimSpace(search) != "" {
		pattern := containsPattern(search)
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(location) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, size := pageOffset(page, limit)
	var universities []model.University
	if err := query.Order("name ASC").Order("id ASC").
		Limit(size).
		Offset(offset).
		Find(&universities).Error; err != nil {
		return nil, 0, err
	}
	return universities, total, nil
}

func (s *GORMStore) FindUniversityByName(ctx context.Context, name string) (*model.University, error) {
	var u model.University
	err := s.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *GORMStore) CreateUniversity(ctx context.Context, u *model.University) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *GORMStore) GetProfessor(ctx context.Context, id uint) (*model.Professor, error) {
	var p model.Professor
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GORMStore) SearchProfessors(ctx context.Context, universityID uint, text string, limit int) ([]model.Professor, error) {
	pattern := containsPattern(text)
	query := s.db.WithContext(ctx).
		Where("university_id = ?", universityID).
		Where(`LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("last_name ASC").Order("first_name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var professors []model.Professor
	err := query.Find(&professors).Error
	return professors, err
}

func (s *GORMStore) FindProfessorByName(ctx context.Context, universityID uint, firstName, lastName string) (*model.Professor, error) {
	var p model.Professor
	err := s.db.WithContext(ctx).
		Where("university_id = ? AND LOWER(first_name) = ? AND LOWER(last_name) = ?",
			universityID,
			strings.ToLower(strings.TrimSpace(firstName)),
			strings.ToLower(strings.TrimSpace(lastName))).
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GORMStore) CreateProfessor(ctx context.Context, p *model.Professor) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GORMStore) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	var c model.Course
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *GORMStore) ListCoursesByUniversity(ctx context.Context, universityID uint) ([]model.Course, error) {
	var courses []model.Course
	err := s.db.WithContext(ctx).
		Where("university_id = ?", universityID).
		Order("course_code ASC").
		Find(&courses).Error
	return courses, err
}

func (s *GORMStore) ListCoursesByIDs(ctx context.Context, ids []uint) ([]model.Course, error) {
	courses := []model.Course{}
	if len(ids) == 0 {
		return courses, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&courses).Error
	return courses, err
}

func (s *GORMStore) CreateCourse(ctx context.Context, c *model.Course) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *GORMStore) ListReviewsByProfessor(ctx context.Context, professorID uint, order SortOrder) ([]model.Review, error) {
	direction := "DESC"
	if order == OldestFirst {
		direction = "ASC"
	}

	var reviews []model.Review
	err := s.db.WithContext(ctx).
		Where("professor_id = ?", professorID).
		Order("created_at " + direction).Order("id " + direction).
		Find(&reviews).Error
	return reviews, err
}

func (s *GORMStore) ListReviewsByProfessors(ctx context.Context, professorIDs []uint) ([]model.Review, error) {
	reviews := []model.Review{}
	if len(professorIDs) == 0 {
		return reviews, nil
	}
	err := s.db.WithContext(ctx).
		Where("professor_id IN ?", professorIDs).
		Order("created_at DESC").Order("id DESC").
		Find(&reviews).Error
	return reviews, err
}

func (s *GORMStore) CreateReview(ctx context.Context, r *model.Review) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GORMStore) CountReviewsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}
