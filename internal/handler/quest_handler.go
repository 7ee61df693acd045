package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/terraed/terra-api/internal/dto"
	"github.com/terraed/terra-api/internal/service"
	"github.com/terraed/terra-api/internal/utils"
)

// QuestHandler manages the quest catalog endpoints.
type QuestHandler struct {
	service   service.QuestService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewQuestHandler builds a quest handler instance.
func NewQuestHandler(service service.QuestService, validator *validator.Validate, logger zerolog.Logger) *QuestHandler {
	return &QuestHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "quest_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *QuestHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Post("/generate", h.generate)
	router.Get("/:id", h.get)
}

func (h *QuestHandler) list(c *fiber.Ctx) error {
	filter := dto.QuestFilter{}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		filter.Difficulty = &difficulty
	}
	if err := h.validator.Struct(filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	includeExpired := c.QueryBool("include_expired")

	quests, err := h.service.List(c.Context(), filter, includeExpired)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "quests retrieved", quests)
}

func (h *QuestHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quest id")
	}

	quest, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "quest retrieved", quest)
}

func (h *QuestHandler) create(c *fiber.Ctx) error {
	var payload dto.QuestCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	quest, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quest created", quest)
}

func (h *QuestHandler) generate(c *fiber.Ctx) error {
	var payload dto.QuestGenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	quest, err := h.service.Generate(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quest generated", quest)
}

func (h *QuestHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrQuestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quest not found")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
