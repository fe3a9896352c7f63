package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ingeniar/bizgen/api/http/handlers"
	"github.com/ingeniar/bizgen/pkg/business"
)

// Register wires all HTTP routes onto given Fiber app. authMW may be nil when
// authentication is disabled.
func Register(app *fiber.App, catalog *business.Catalog, health *handlers.HealthHandler, modes *handlers.ModesHandler, gen *handlers.GenerateHandler, authMW fiber.Handler) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", health.Health)
	v1.Get("/ready", health.Ready)

	// Form descriptions are public; generation may require a token
	v1.Get("/modes", modes.List)

	protect := func(h fiber.Handler) []fiber.Handler {
		if authMW == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{authMW, h}
	}
	for _, m := range catalog.Modes {
		v1.Post(m.Path, protect(gen.Mode(m.ID))...)
	}
	v1.Post("/generate/:mode", protect(gen.Generate)...)
}
