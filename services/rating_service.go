package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sahilchouksey/prof-ratings/database"
	"github.com/sahilchouksey/prof-ratings/model"
	"github.com/sahilchouksey/prof-ratings/services/ratings"
	"github.com/sahilchouksey/prof-ratings/services/search"
	"github.com/sahilchouksey/prof-ratings/utils/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrCourseNotAtUniversity = errors.New("course is not offered at the professor's university")
	ErrDuplicate             = errors.New("record already exists")
)

// RatingService builds the professor views and runs the add flows
type RatingService struct {
	store  database.DataStore
	logger *zap.Logger
}

// NewRatingService creates a new rating service
func NewRatingService(store database.DataStore, logger *zap.Logger) *RatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingService{store: store, logger: logger}
}

// ProfessorView is everything the professor page shows. A lookup that failed
// leaves its part unloaded; the rest of the view is still filled in.
type ProfessorView struct {
	Professor        model.Professor         `json:"professor"`
	DisplayName      string                  `json:"display_name"`
	University       *model.University       `json:"university"`
	UniversityLoaded bool                    `json:"university_loaded"`
	Aggregate        ratings.Aggregate       `json:"aggregate"`
	SelectedCourse   string                  `json:"selected_course"`
	CourseOptions    []string                `json:"course_options"`
	CoursesLoaded    bool                    `json:"courses_loaded"`
	Reviews          []ratings.LabeledReview `json:"reviews"`
	ReviewsLoaded    bool                    `json:"reviews_loaded"`
}

// GetProfessorView loads a professor with their university, aggregate and
// the reviews for the selected course. The aggregate always covers every
// review; only the listed reviews follow the course selector.
func (s *RatingService) GetProfessorView(ctx context.Context, professorID uint, selector string, order database.SortOrder) (*ProfessorView, error) {
	professor, err := s.store.GetProfessor(ctx, professorID)
	if err != nil {
		return nil, fmt.Errorf("professor %d: %w", professorID, err)
	}

	log := s.logger.With(zap.Uint("professor_id", professorID))
	view := &ProfessorView{
		Professor:      *professor,
		DisplayName:    professor.FullName(),
		SelectedCourse: ratings.AllCourses,
		CourseOptions:  []string{ratings.AllCourses},
		Reviews:        []ratings.LabeledReview{},
	}
	if !ratings.IsAllCourses(selector) {
		view.SelectedCourse = selector
	}

	var (
		reviews []ratings.Review
		courses ratings.CourseMap
	)

	// failures are logged and leave their part unloaded, so no goroutine
	// returns an error
	var g errgroup.Group
	g.Go(func() error {
		university, err := s.store.GetUniversity(ctx, professor.UniversityID)
		if err != nil {
			log.Warn("failed to load university", zap.Uint("university_id", professor.UniversityID), zap.Error(err))
			return nil
		}
		view.University = university
		view.UniversityLoaded = true
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.ListReviewsByProfessor(ctx, professorID, order)
		if err != nil {
			log.Warn("failed to load reviews", zap.Error(err))
			return nil
		}
		reviews = ratings.FromModel(rows, log)
		view.ReviewsLoaded = true

		// course codes are only needed for courses that have reviews
		found, err := s.store.ListCoursesByIDs(ctx, courseIDs(reviews))
		if err != nil {
			log.Warn("failed to load courses", zap.Error(err))
			return nil
		}
		courses = ratings.NewCourseMap(found)
		view.CoursesLoaded = true
		return nil
	})
	_ = g.Wait()

	view.Aggregate = ratings.Compute(chronological(reviews))
	if view.CoursesLoaded {
		view.CourseOptions = ratings.CourseOptions(courses)
	}
	filtered := ratings.FilterByCourse(reviews, courses, selector)
	view.Reviews = ratings.LabelReviews(filtered, courses)
	return view, nil
}

// chronological returns reviews oldest first, so tag ties in the aggregate
// do not depend on the order the page lists reviews in
func chronological(reviews []ratings.Review) []ratings.Review {
	out := make([]ratings.Review, len(reviews))
	copy(out, reviews)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func courseIDs(reviews []ratings.Review) []uint {
	seen := make(map[uint]struct{}, len(reviews))
	ids := make([]uint, 0, len(reviews))
	for _, r := range reviews {
		if _, ok := seen[r.CourseID]; ok {
			continue
		}
		seen[r.CourseID] = struct{}{}
		ids = append(ids, r.CourseID)
	}
	return ids
}

// ProfessorResult is one row of the professor results page
type ProfessorResult struct {
	Professor   model.Professor   `json:"professor"`
	DisplayName string            `json:"display_name"`
	Aggregate   ratings.Aggregate `json:"aggregate"`
}

// ProfessorResults lists the professors at a university matching a query
type ProfessorResults struct {
	University model.University  `json:"university"`
	Query      string            `json:"query"`
	Results    []ProfessorResult `json:"results"`
}

// ListProfessorResults finds professors at universityID whose first or last
// name contains query, each with its own aggregate. Closer name matches come
// first, then professors with more reviews.
func (s *RatingService) ListProfessorResults(ctx context.Context, universityID uint, query string) (*ProfessorResults, error) {
	university, err := s.store.GetUniversity(ctx, universityID)
	if err != nil {
		return nil, fmt.Errorf("university %d: %w", universityID, err)
	}

	professors, err := s.store.SearchProfessors(ctx, universityID, query, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to search professors: %w", err)
	}

	ids := make([]uint, len(professors))
	for i, p := range professors {
		ids[i] = p.ID
	}

	byProfessor := make(map[uint][]ratings.Review, len(professors))
	rows, err := s.store.ListReviewsByProfessors(ctx, ids)
	if err != nil {
		// the list still renders, every aggregate shows N/A
		s.logger.Warn("failed to load reviews for results", zap.Uint("university_id", universityID), zap.Error(err))
	} else {
		for _, r := range ratings.FromModel(rows, s.logger) {
			byProfessor[r.ProfessorID] = append(byProfessor[r.ProfessorID], r)
		}
	}

	results := make([]ProfessorResult, len(professors))
	scores := make(map[uint]int, len(professors))
	for i, p := range professors {
		results[i] = ProfessorResult{
			Professor:   p,
			DisplayName: p.FullName(),
			Aggregate:   ratings.Compute(chronological(byProfessor[p.ID])),
		}
		scores[p.ID] = search.ProfessorScore(p, query)
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if scores[a.Professor.ID] != scores[b.Professor.ID] {
			return scores[a.Professor.ID] < scores[b.Professor.ID]
		}
		if a.Aggregate.ReviewCount != b.Aggregate.ReviewCount {
			return a.Aggregate.ReviewCount > b.Aggregate.ReviewCount
		}
		return search.Fold(a.DisplayName) < search.Fold(b.DisplayName)
	})

	return &ProfessorResults{University: *university, Query: query, Results: results}, nil
}

// ListUniversities is the school results page: schools whose name or
// location contains query, one page at a time
func (s *RatingService) ListUniversities(ctx context.Context, query string, page, limit int) ([]model.University, int64, error) {
	return s.store.ListUniversities(ctx, query, page, limit)
}

// GetUniversity returns one university with its courses
func (s *RatingService) GetUniversity(ctx context.Context, id uint) (*model.University, error) {
	university, err := s.store.GetUniversity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("university %d: %w", id, err)
	}
	courses, err := s.store.ListCoursesByUniversity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load courses: %w", err)
	}
	university.Courses = courses
	return university, nil
}

// ListCoursesForProfessor lists the courses at the professor's university,
// the choices on the review form
func (s *RatingService) ListCoursesForProfessor(ctx context.Context, professorID uint) ([]model.Course, error) {
	professor, err := s.store.GetProfessor(ctx, professorID)
	if err != nil {
		return nil, fmt.Errorf("professor %d: %w", professorID, err)
	}
	return s.store.ListCoursesByUniversity(ctx, professor.UniversityID)
}

// UniversityInput is the add-school form
type UniversityInput struct {
	Name         string   `json:"name" validate:"required,min=3,max=255"`
	Country      string   `json:"country" validate:"omitempty,max=120"`
	Location     string   `json:"location" validate:"required,min=2,max=255"`
	Website      string   `json:"website" validate:"omitempty,url,max=255"`
	ContactEmail string   `json:"contact_email" validate:"omitempty,email,max=255"`
	Courses      []string `json:"courses" validate:"omitempty,max=50,dive,required,max=50"`
}

// CreateUniversity adds a school and its course codes. A school with the
// same name already existing is ErrDuplicate.
func (s *RatingService) CreateUniversity(ctx context.Context, in UniversityInput) (*model.University, error) {
	name := validation.SanitizeString(in.Name)
	if _, err := s.store.FindUniversityByName(ctx, name); err == nil {
		return nil, fmt.Errorf("university %q: %w", name, ErrDuplicate)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	university := &model.University{
		Name:         name,
		Country:      validation.SanitizeString(in.Country),
		Location:     validation.SanitizeString(in.Location),
		Website:      validation.SanitizeString(in.Website),
		ContactEmail: validation.SanitizeString(in.ContactEmail),
	}
	if err := s.store.CreateUniversity(ctx, university); err != nil {
		return nil, fmt.Errorf("failed to create university: %w", err)
	}

	seen := make(map[string]struct{}, len(in.Courses))
	for _, code := range in.Courses {
		code = validation.SanitizeString(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		course := &model.Course{UniversityID: university.ID, Code: code}
		if err := s.store.CreateCourse(ctx, course); err != nil {
			return nil, fmt.Errorf("failed to create course %q: %w", code, err)
		}
		university.Courses = append(university.Courses, *course)
	}

	s.logger.Info("university created", zap.Uint("university_id", university.ID), zap.Int("courses", len(university.Courses)))
	return university, nil
}

// ProfessorInput is the add-professor form
type ProfessorInput struct {
	UniversityID uint   `json:"university_id" validate:"required"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	MiddleName   string `json:"middle_name" validate:"omitempty,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Department   string `json:"department" validate:"omitempty,max=255"`
}

// CreateProfessor adds a professor to an existing university. The same first
// and last name at the same university is ErrDuplicate.
func (s *RatingService) CreateProfessor(ctx context.Context, in ProfessorInput) (*model.Professor, error) {
	if _, err := s.store.GetUniversity(ctx, in.UniversityID); err != nil {
		return nil, fmt.Errorf("university %d: %w", in.UniversityID, err)
	}

	first := validation.SanitizeString(in.FirstName)
	last := validation.SanitizeString(in.LastName)
	if _, err := s.store.FindProfessorByName(ctx, in.UniversityID, first, last); err == nil {
		return nil, fmt.Errorf("professor %s %s: %w", first, last, ErrDuplicate)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	professor := &model.Professor{
		UniversityID: in.UniversityID,
		FirstName:    first,
		MiddleName:   validation.SanitizeString(in.MiddleName),
		LastName:     last,
		Department:   validation.SanitizeString(in.Department),
	}
	if err := s.store.CreateProfessor(ctx, professor); err != nil {
		return nil, fmt.Errorf("failed to create professor: %w", err)
	}

	s.logger.Info("professor created", zap.Uint("professor_id", professor.ID), zap.Uint("university_id", professor.UniversityID))
	return professor, nil
}

// ReviewInput is the rate-professor form
type ReviewInput struct {
	CourseID         uint     `json:"course_id" validate:"required"`
	Rating           float64  `json:"rating" validate:"required,gte=1,lte=5"`
	Difficulty       float64  `json:"difficulty" validate:"required,gte=1,lte=5"`
	WouldTakeAgain   *bool    `json:"would_take_again"`
	ForCredit        *bool    `json:"for_credit"`
	TextbookRequired *bool    `json:"textbook_required"`
	Attendance       *bool    `json:"attendance"`
	GradeReceived    string   `json:"grade_received" validate:"grade"`
	Tags             []string `json:"tags" validate:"max=3,unique,dive,review_tag"`
	Body             string   `json:"text_review" validate:"max=350"`
}

// CreateReview stores a review for professorID. in must already have passed
// validation; the course must be offered at the professor's university.
func (s *RatingService) CreateReview(ctx context.Context, professorID uint, in ReviewInput) (*ratings.Review, error) {
	professor, err := s.store.GetProfessor(ctx, professorID)
	if err != nil {
		return nil, fmt.Errorf("professor %d: %w", professorID, err)
	}
	course, err := s.store.GetCourse(ctx, in.CourseID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && course.UniversityID != professor.UniversityID) {
		return nil, fmt.Errorf("course %d: %w", in.CourseID, ErrCourseNotAtUniversity)
	}
	if err != nil {
		return nil, err
	}

	tags := make([]ratings.Tag, 0, len(in.Tags))
	for _, label := range in.Tags {
		if tag, ok := ratings.ParseTag(label); ok {
			tags = append(tags, tag)
		}
	}

	row := model.Review{
		ProfessorID:      professorID,
		CourseID:         course.ID,
		Rating:           in.Rating,
		Difficulty:       in.Difficulty,
		WouldTakeAgain:   in.WouldTakeAgain,
		ForCredit:        in.ForCredit,
		TextbookRequired: in.TextbookRequired,
		Attendance:       in.Attendance,
		GradeReceived:    in.GradeReceived,
		Body:             validation.StripMarkup(in.Body),
		Tags:             ratings.EncodeTags(tags),
	}
	if err := s.store.CreateReview(ctx, &row); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info("review created",
		zap.Uint("review_id", row.ID),
		zap.Uint("professor_id", professorID),
		zap.Uint("course_id", course.ID))

	created := ratings.FromModel([]model.Review{row}, s.logger)[0]
	return &created, nil
}
