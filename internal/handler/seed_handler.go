package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/terraed/terra-api/internal/service"
	"github.com/terraed/terra-api/internal/utils"
)

// SeedHandler exposes the demo data seeding endpoint for development.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler builds a seed handler instance.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/demo", h.seedDemo)
}

func (h *SeedHandler) seedDemo(c *fiber.Ctx) error {
	users, quests, err := h.service.SeedDemo(c.Context())
	if err != nil {
		if errors.Is(err, service.ErrSeedDisabled) {
			return utils.SendError(c, fiber.StatusForbidden, "seeding is disabled")
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "demo data seeded", fiber.Map{
		"users":  users,
		"quests": quests,
	})
}
