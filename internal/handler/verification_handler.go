package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/terraed/terra-api/internal/middleware"
	"github.com/terraed/terra-api/internal/utils"
	"github.com/terraed/terra-api/internal/verification"
)

// livePollInterval is how often the live endpoint samples pipeline state.
const livePollInterval = 500 * time.Millisecond

// VerificationHandler exposes pipeline status, including a websocket stream
// of snapshots while a pipeline is running.
type VerificationHandler struct {
	verifier *verification.Service
	logger   zerolog.Logger
}

// NewVerificationHandler builds a verification handler instance.
func NewVerificationHandler(verifier *verification.Service, logger zerolog.Logger) *VerificationHandler {
	return &VerificationHandler{
		verifier: verifier,
		logger:   logger.With().Str("component", "verification_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *VerificationHandler) Register(router fiber.Router) {
	router.Use("/:pipelineID/live", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/:pipelineID/live", websocket.New(h.live))
	router.Get("/:pipelineID", h.status)
}

func (h *VerificationHandler) status(c *fiber.Ctx) error {
	pipelineID := c.Params("pipelineID")

	snapshot, err := h.verifier.GetPipelineStatus(c.Context(), pipelineID)
	if err != nil {
		if errors.Is(err, verification.ErrPipelineNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "pipeline not found")
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "pipeline status retrieved", snapshot)
}

// live streams pipeline snapshots until the pipeline reaches a terminal
// state or the client disconnects.
func (h *VerificationHandler) live(conn *websocket.Conn) {
	defer conn.Close()

	pipelineID := conn.Params("pipelineID")
	ctx, ok := conn.Locals("request_ctx").(context.Context)
	if !ok || ctx == nil {
		ctx = context.Background()
	}

	h.logger.Info().Str("pipeline_id", pipelineID).Msg("verification stream connected")

	ticker := time.NewTicker(livePollInterval)
	defer ticker.Stop()

	for {
		snapshot, err := h.verifier.GetPipelineStatus(ctx, pipelineID)
		if err != nil {
			if errors.Is(err, verification.ErrPipelineNotFound) {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "pipeline not found"))
			}
			return
		}

		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}
		if snapshot.IsTerminal() {
			h.logger.Info().Str("pipeline_id", pipelineID).Str("status", snapshot.OverallStatus).Msg("verification stream finished")
			return
		}

		<-ticker.C
	}
}
