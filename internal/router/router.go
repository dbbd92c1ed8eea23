package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/config"
	"github.com/noah-isme/codeassess-api/internal/handler"
	"github.com/noah-isme/codeassess-api/internal/middleware"
	"github.com/noah-isme/codeassess-api/internal/observability"
)

// Dependencies groups router dependencies for registration. Nil handlers leave their routes out.
type Dependencies struct {
	DB                *gorm.DB
	SessionHandler    *handler.SessionHandler
	ResultHandler     *handler.ResultHandler
	ScoringHandler    *handler.ScoringHandler
	InvitationHandler *handler.InvitationHandler
	AssessmentHandler *handler.AssessmentHandler
	SubmissionHandler *handler.SubmissionHandler
	JWTMiddleware     fiber.Handler
	ScoringRateLimit  int
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}
	authenticated := middleware.Guard(middleware.AuthOptions{Role: middleware.AuthRoleAny})
	recruiter := middleware.Guard(middleware.AuthOptions{Role: middleware.AuthRoleRecruiter})

	// Candidate flow
	if deps.SessionHandler != nil {
		sessions := api.Group("/sessions", jwtMiddleware, authenticated)
		deps.SessionHandler.Register(sessions)
	}

	// Results must be registered ahead of the recruiter-only assessment routes sharing the prefix.
	assessments := api.Group("/assessments", jwtMiddleware, authenticated)
	if deps.ResultHandler != nil {
		deps.ResultHandler.Register(assessments)
	}

	// Recruiter tooling
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.Register(assessments.Group("", recruiter))
	}

	if deps.InvitationHandler != nil {
		invitations := api.Group("/invitations", jwtMiddleware, recruiter)
		deps.InvitationHandler.Register(invitations)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware, recruiter)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.ScoringHandler != nil {
		scoring := api.Group("/scoring", jwtMiddleware, recruiter, middleware.RateLimit("scoring", deps.ScoringRateLimit, time.Minute))
		deps.ScoringHandler.Register(scoring)
	}
}
