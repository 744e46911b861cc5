package course

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/prof-ratings/database"
	"github.com/sahilchouksey/prof-ratings/services"
	"github.com/sahilchouksey/prof-ratings/utils/response"
	"go.uber.org/zap"
)

// CourseHandler serves the course choices of the review form
type CourseHandler struct {
	service *services.RatingService
	logger  *zap.Logger
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(service *services.RatingService, logger *zap.Logger) *CourseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseHandler{service: service, logger: logger}
}

// ListProfessorCourses handles GET /api/v1/professors/:id/courses
func (h *CourseHandler) ListProfessorCourses(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid professor ID")
	}

	courses, err := h.service.ListCoursesForProfessor(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Professor not found")
		}
		h.logger.Error("failed to list courses", zap.Uint64("professor_id", id), zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Success(c, courses)
}
