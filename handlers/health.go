package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/prof-ratings/database"
	"github.com/sahilchouksey/prof-ratings/services/ratings"
	"github.com/sahilchouksey/prof-ratings/utils/response"
)

// HandleCheckHealth handles GET /ping
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database is not reachable")
	}
	return response.Success(c, fiber.Map{"status": "ok"})
}

// HandleListTags handles GET /api/v1/tags
func HandleListTags(c *fiber.Ctx) error {
	return response.Success(c, fiber.Map{
		"tags":     ratings.Vocabulary,
		"max_tags": ratings.MaxTagsPerReview,
	})
}
