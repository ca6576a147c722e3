package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edudefi-go-api/internal/config"
	"github.com/noah-isme/edudefi-go-api/internal/handler"
	"github.com/noah-isme/edudefi-go-api/internal/middleware"
	"github.com/noah-isme/edudefi-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	MarketplaceHandler *handler.MarketplaceHandler
	ProfileHandler     *handler.ProfileHandler
	TransactionHandler *handler.TransactionHandler
	DocumentHandler    *handler.DocumentHandler
	DemoHandler        *handler.DemoHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v2", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	limit := func(identifier string) fiber.Handler {
		return middleware.RateLimit(identifier, cfg.RateLimitPerMinute, time.Minute)
	}

	// Without a JWT middleware every wallet-scoped route answers 401 through WithWallet.
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.MarketplaceHandler != nil {
		deps.MarketplaceHandler.Register(api.Group("/marketplace"))
	}

	if deps.ProfileHandler != nil {
		profiles := api.Group("/profiles")
		deps.ProfileHandler.Register(profiles)
		profiles.Post("/:address/refresh",
			jwtMiddleware,
			limit("profile_refresh"),
			middleware.WithWallet(deps.ProfileHandler.Refresh, middleware.WalletOptions{MatchParam: "address"}),
		)
	}

	if deps.TransactionHandler != nil {
		transactions := api.Group("/transactions", jwtMiddleware, limit("transactions"))
		deps.TransactionHandler.Register(transactions)
	}

	if deps.DocumentHandler != nil {
		documents := api.Group("/documents", jwtMiddleware, limit("documents"))
		deps.DocumentHandler.Register(documents)
	}

	if deps.DemoHandler != nil {
		demo := api.Group("/demo/sessions", jwtMiddleware, limit("demo"))
		deps.DemoHandler.Register(demo)
	}
}
