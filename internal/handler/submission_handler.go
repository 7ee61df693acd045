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

// SubmissionHandler manages evidence submission endpoints.
type SubmissionHandler struct {
	service   service.SubmissionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, validator *validator.Validate, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Post("/:id/review", h.review)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	filter := dto.SubmissionFilter{}
	if questID, err := parseQueryUint(c, "quest_id"); err == nil && questID != nil {
		filter.QuestID = questID
	}
	if userID, err := parseQueryUint(c, "user_id"); err == nil && userID != nil {
		filter.UserID = userID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if err := h.validator.Struct(filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	submission, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	questID, err := parseFormUint(c, "quest_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "quest_id is required")
	}
	userID, err := parseFormUint(c, "user_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "user_id is required")
	}

	payload := dto.SubmissionCreateRequest{
		QuestID: questID,
		UserID:  userID,
		Caption: c.FormValue("caption"),
	}

	if lat, err := parseFormFloat(c, "gps_lat"); err == nil {
		payload.GPSLat = lat
	} else {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid gps_lat")
	}
	if lng, err := parseFormFloat(c, "gps_lng"); err == nil {
		payload.GPSLng = lng
	} else {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid gps_lng")
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	// The photo is optional; image-less submissions end up in manual review.
	file, err := c.FormFile("photo")
	if err != nil {
		file = nil
	}

	submission, err := h.service.Create(c.Context(), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	var payload dto.SubmissionReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Review(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission reviewed", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrQuestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quest not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrQuestExpired):
		return utils.SendError(c, fiber.StatusConflict, "quest no longer accepts submissions")
	case errors.Is(err, service.ErrEvidenceTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "evidence photo too large")
	case errors.Is(err, service.ErrEvidenceTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "evidence photo type not allowed")
	case errors.Is(err, service.ErrNotReviewable):
		return utils.SendError(c, fiber.StatusConflict, "submission is not awaiting review")
	case errors.Is(err, service.ErrReviewerNotTeacher):
		return utils.SendError(c, fiber.StatusForbidden, "reviewer must be a teacher")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
