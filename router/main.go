package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/prof-ratings/database"
	"github.com/sahilchouksey/prof-ratings/handlers"
	course_handlers "github.com/sahilchouksey/prof-ratings/handlers/course"
	professor_handlers "github.com/sahilchouksey/prof-ratings/handlers/professor"
	search_handlers "github.com/sahilchouksey/prof-ratings/handlers/search"
	university_handlers "github.com/sahilchouksey/prof-ratings/handlers/university"
	"github.com/sahilchouksey/prof-ratings/services"
	"github.com/sahilchouksey/prof-ratings/services/search"
	"github.com/sahilchouksey/prof-ratings/utils"
	"github.com/sahilchouksey/prof-ratings/utils/middleware"
	"go.uber.org/zap"
)

const searchPrefix = "/api/v1/search/"

// Deps is what the routes are built from
type Deps struct {
	Store    database.Storage
	Sessions search.SessionStore
	Logger   *zap.Logger
	Security middleware.SecurityConfig
}

// SetupRoutes applies the security middleware and registers every route
func SetupRoutes(app *fiber.App, deps Deps) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ratingService := services.NewRatingService(deps.Store, log.Named("ratings"))
	searchService := services.NewSearchService(deps.Sessions, deps.Store, log.Named("search"))

	universityHandler := university_handlers.NewUniversityHandler(ratingService, log)
	professorHandler := professor_handlers.NewProfessorHandler(ratingService, log)
	courseHandler := course_handlers.NewCourseHandler(ratingService, log)
	searchHandler := search_handlers.NewSearchHandler(searchService, log)

	security := deps.Security
	if security.SearchRateLimit > 0 {
		// search sessions get their own, larger budget
		security.RateLimitSkip = append(security.RateLimitSkip, searchPrefix)
	}
	middleware.SetupSecurity(app, security)

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, deps.Store))

	// API v1 group
	api := app.Group("/api/v1")

	api.Get("/tags", handlers.HandleListTags)

	// Universities routes
	universities := api.Group("/universities")
	universities.Get("/", universityHandler.ListUniversities)
	universities.Get("/:id", universityHandler.GetUniversity)
	universities.Post("/", universityHandler.CreateUniversity)
	universities.Get("/:id/professors", universityHandler.ListProfessors)

	// Professors routes
	professors := api.Group("/professors")
	professors.Post("/", professorHandler.CreateProfessor)
	professors.Get("/:id", professorHandler.GetProfessor)
	professors.Get("/:id/courses", courseHandler.ListProfessorCourses)
	professors.Post("/:id/reviews", professorHandler.CreateReview)

	// Search session routes
	sessions := app.Group(searchPrefix + "sessions")
	if security.SearchRateLimit > 0 {
		sessions.Use(middleware.RateLimit(security.SearchRateLimit, time.Minute))
	}
	sessions.Post("/", searchHandler.StartSession)
	sessions.Get("/:id", searchHandler.GetSession)
	sessions.Delete("/:id", searchHandler.DeleteSession)
	sessions.Post("/:id/institution", searchHandler.TypeInstitution)
	sessions.Post("/:id/institution/pick", searchHandler.PickInstitution)
	sessions.Post("/:id/person", searchHandler.TypePerson)
	sessions.Post("/:id/person/pick", searchHandler.PickPerson)
	sessions.Post("/:id/reset", searchHandler.Reset)
	sessions.Post("/:id/submit", searchHandler.Submit)
}
