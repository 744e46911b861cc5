package university

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

// UniversityHandler handles university-related requests
type UniversityHandler struct {
	service   *services.RatingService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewUniversityHandler creates a new university handler
func NewUniversityHandler(service *services.RatingService, logger *zap.Logger) *UniversityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UniversityHandler{
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

// ListUniversities handles GET /api/v1/universities
func (h *UniversityHandler) ListUniversities(c *fiber.Ctx) error {
	// Parse query parameters
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search", "")

	universities, total, err := h.service.ListUniversities(c.UserContext(), search, page, limit)
	if err != nil {
		h.logger.Error("failed to list universities", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch universities")
	}

	return response.Paginated(c, universities, response.CalculatePagination(page, limit, total))
}

// GetUniversity handles GET /api/v1/universities/:id
func (h *UniversityHandler) GetUniversity(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return response.BadRequest(c, "Invalid university ID")
	}

	university, err := h.service.GetUniversity(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "University not found")
		}
		h.logger.Error("failed to fetch university", zap.Uint("university_id", id), zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch university")
	}

	return response.Success(c, university)
}

// CreateUniversity handles POST /api/v1/universities
func (h *UniversityHandler) CreateUniversity(c *fiber.Ctx) error {
	var req services.UniversityInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	university, err := h.service.CreateUniversity(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, services.ErrDuplicate) {
			return response.Conflict(c, "University with this name already exists")
		}
		h.logger.Error("failed to create university", zap.Error(err))
		return response.InternalServerError(c, "Failed to create university")
	}

	return response.Created(c, university)
}

// ListProfessors handles GET /api/v1/universities/:id/professors
func (h *UniversityHandler) ListProfessors(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return response.BadRequest(c, "Invalid university ID")
	}

	results, err := h.service.ListProfessorResults(c.UserContext(), id, c.Query("search", ""))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "University not found")
		}
		h.logger.Error("failed to list professors", zap.Uint("university_id", id), zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch professors")
	}

	return response.Success(c, results)
}
