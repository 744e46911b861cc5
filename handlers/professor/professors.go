package professor

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/prof-ratings/database"
	"github.com/sahilchouksey/prof-ratings/services"
	"github.com/sahilchouksey/prof-ratings/utils/response"
	"github.com/sahilchouksey/prof-ratings/utils/validation"
	"go.uber.org/zap"
)

// ProfessorHandler serves the professor page and the add and rate forms
type ProfessorHandler struct {
	service   *services.RatingService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewProfessorHandler creates a new professor handler
func NewProfessorHandler(service *services.RatingService, logger *zap.Logger) *ProfessorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfessorHandler{
		service:   service,
		validator: validation.NewValidator(),
		logger:    logger,
	}
}

func parseID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// GetProfessor handles GET /api/v1/professors/:id
//
// Query parameters:
//   - course: course code to list reviews for, "All courses" or empty for every review
//   - order: "asc" for oldest first; anything else lists newest first
func (h *ProfessorHandler) GetProfessor(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return response.BadRequest(c, "Invalid professor ID")
	}

	order := database.ParseSortOrder(c.Query("order", ""))
	view, err := h.service.GetProfessorView(c.UserContext(), id, c.Query("course", ""), order)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Professor not found")
		}
		h.logger.Error("failed to load professor", zap.Uint("professor_id", id), zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch professor")
	}

	return response.Success(c, view)
}

// CreateProfessor handles POST /api/v1/professors
func (h *ProfessorHandler) CreateProfessor(c *fiber.Ctx) error {
	var req services.ProfessorInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	professor, err := h.service.CreateProfessor(c.UserContext(), req)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return response.NotFound(c, "University not found")
	case errors.Is(err, services.ErrDuplicate):
		return response.Conflict(c, "This professor is already listed at this university")
	case err != nil:
		h.logger.Error("failed to create professor", zap.Error(err))
		return response.InternalServerError(c, "Failed to create professor")
	}

	return response.Created(c, professor)
}

// CreateReview handles POST /api/v1/professors/:id/reviews
func (h *ProfessorHandler) CreateReview(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return response.BadRequest(c, "Invalid professor ID")
	}

	var req services.ReviewInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	review, err := h.service.CreateReview(c.UserContext(), id, req)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return response.NotFound(c, "Professor not found")
	case errors.Is(err, services.ErrCourseNotAtUniversity):
		return response.ValidationError(c, map[string]string{
			"course_id": "Please select a course offered at this professor's university",
		})
	case err != nil:
		h.logger.Error("failed to create review", zap.Uint("professor_id", id), zap.Error(err))
		return response.InternalServerError(c, "Failed to submit review")
	}

	return response.Created(c, review)
}
