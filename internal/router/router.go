package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/terraed/terra-api/internal/config"
	"github.com/terraed/terra-api/internal/handler"
	"github.com/terraed/terra-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	QuestHandler        *handler.QuestHandler
	SubmissionHandler   *handler.SubmissionHandler
	VerificationHandler *handler.VerificationHandler
	WalletHandler       *handler.WalletHandler
	LeaderboardHandler  *handler.LeaderboardHandler
	SeedHandler         *handler.SeedHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & metrics
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.QuestHandler != nil {
		quests := app.Group("/api/v2/quests", jwtMiddleware)
		deps.QuestHandler.Register(quests)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v2/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.VerificationHandler != nil {
		verifications := app.Group("/api/v2/verifications", jwtMiddleware)
		deps.VerificationHandler.Register(verifications)
	}

	if deps.WalletHandler != nil {
		wallet := app.Group("/api/v2/wallet", jwtMiddleware)
		deps.WalletHandler.Register(wallet)
	}

	if deps.LeaderboardHandler != nil {
		leaderboard := app.Group("/api/v2/leaderboard", jwtMiddleware)
		deps.LeaderboardHandler.Register(leaderboard)

		impact := app.Group("/api/v2/impact", jwtMiddleware)
		deps.LeaderboardHandler.RegisterImpact(impact)
	}

	// Seeding stays unauthenticated; the service refuses outside development.
	if deps.SeedHandler != nil {
		seed := app.Group("/api/v2/seed")
		deps.SeedHandler.Register(seed)
	}
}
