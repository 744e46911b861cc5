package search

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/prof-ratings/services"
	"github.com/sahilchouksey/prof-ratings/services/search"
	"github.com/sahilchouksey/prof-ratings/utils/response"
	"github.com/sahilchouksey/prof-ratings/utils/validation"
	"go.uber.org/zap"
)

// SearchHandler exposes the two-stage search box as a session resource
type SearchHandler struct {
	service   *services.SearchService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service *services.SearchService, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{
		service:   service,
		validator: validation.NewValidator(),
		logger:    logger,
	}
}

// TypeRequest is one keystroke in a search box. Seq orders keystrokes; zero
// lets the server number it.
type TypeRequest struct {
	Text string `json:"text" validate:"max=255"`
	Seq  uint64 `json:"seq"`
}

// PickRequest selects one of the current suggestions
type PickRequest struct {
	ID uint `json:"id" validate:"required"`
}

// SubmitResponse is the result of pressing enter in the search box
type SubmitResponse struct {
	Navigation *search.Navigation      `json:"navigation"`
	Session    *services.SearchSession `json:"session"`
}

func (h *SearchHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, search.ErrSessionNotFound):
		return response.NotFound(c, "Search session not found or expired")
	case errors.Is(err, search.ErrNoInstitution):
		return response.Error(c, fiber.StatusConflict, "Choose a school first", "NO_INSTITUTION")
	case errors.Is(err, search.ErrUnknownSuggestion):
		return response.Error(c, fiber.StatusConflict, "Selection is not among the current suggestions", "UNKNOWN_SUGGESTION")
	}
	h.logger.Error("search session failed", zap.String("session", c.Params("id")), zap.Error(err))
	return response.InternalServerError(c, "Search failed")
}

// StartSession handles POST /api/v1/search/sessions
func (h *SearchHandler) StartSession(c *fiber.Ctx) error {
	session, err := h.service.StartSession(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return response.Created(c, session)
}

// GetSession handles GET /api/v1/search/sessions/:id
func (h *SearchHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, session)
}

// DeleteSession handles DELETE /api/v1/search/sessions/:id
func (h *SearchHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.service.DeleteSession(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return response.NoContent(c)
}

// bind parses and validates the body into req. When ok is false a response
// has been written and err is what the handler should return.
func (h *SearchHandler) bind(c *fiber.Ctx, req any) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return false, response.ValidationError(c, validation.FormatValidationErrors(err))
	}
	return true, nil
}

// TypeInstitution handles POST /api/v1/search/sessions/:id/institution
func (h *SearchHandler) TypeInstitution(c *fiber.Ctx) error {
	var req TypeRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	session, err := h.service.TypeInstitution(c.UserContext(), c.Params("id"), req.Text, req.Seq)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, session)
}

// TypePerson handles POST /api/v1/search/sessions/:id/person
func (h *SearchHandler) TypePerson(c *fiber.Ctx) error {
	var req TypeRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	session, err := h.service.TypePerson(c.UserContext(), c.Params("id"), req.Text, req.Seq)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, session)
}

// PickInstitution handles POST /api/v1/search/sessions/:id/institution/pick
func (h *SearchHandler) PickInstitution(c *fiber.Ctx) error {
	var req PickRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	session, err := h.service.PickInstitution(c.UserContext(), c.Params("id"), req.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, session)
}

// PickPerson handles POST /api/v1/search/sessions/:id/person/pick
func (h *SearchHandler) PickPerson(c *fiber.Ctx) error {
	var req PickRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	session, err := h.service.PickPerson(c.UserContext(), c.Params("id"), req.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, session)
}

// Reset handles POST /api/v1/search/sessions/:id/reset
func (h *SearchHandler) Reset(c *fiber.Ctx) error {
	session, err := h.service.Reset(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, session)
}

// Submit handles POST /api/v1/search/sessions/:id/submit. A null navigation
// means the search box is not specific enough to go anywhere yet.
func (h *SearchHandler) Submit(c *fiber.Ctx) error {
	nav, session, err := h.service.Submit(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, SubmitResponse{Navigation: nav, Session: session})
}
