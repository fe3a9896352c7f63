// @title         IngenIAr business generator API
// @version       1.0
// @description   Genera ideas de negocio, modelos Canvas, planes financieros y validaciones de ideas con un modelo de lenguaje.
// @description   Business ideas, Canvas business models, financial plans and idea validation generated by a language model.
// @BasePath      /api/v1
// @schemes       http
// @host          localhost:8080
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Token de acceso / access token: "Bearer <JWT>" o "<JWT>".
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	swagger "github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// internal imports
	"github.com/ingeniar/bizgen/api/http"
	"github.com/ingeniar/bizgen/api/http/handlers"
	_ "github.com/ingeniar/bizgen/docs"
	"github.com/ingeniar/bizgen/pkg/business"
	"github.com/ingeniar/bizgen/pkg/config"
	"github.com/ingeniar/bizgen/pkg/health"
	"github.com/ingeniar/bizgen/pkg/health/checkers"
	"github.com/ingeniar/bizgen/pkg/llm"
	"github.com/ingeniar/bizgen/pkg/llm/gemini"
	"github.com/ingeniar/bizgen/pkg/llm/openrouter"
	"github.com/ingeniar/bizgen/pkg/security/jwt"
)

type pingableModel interface {
	llm.TextModel
	llm.Pinger
}

func main() {
	// Load configuration from env/.env
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	catalog, err := business.DefaultCatalog()
	if err != nil {
		logger.Error("load catalog", "err", err)
		os.Exit(1)
	}
	if err := catalog.SetDefaultLocale(cfg.DefaultLocale); err != nil {
		logger.Error("default locale", "err", err)
		os.Exit(1)
	}

	model := newModel(cfg)
	logger.Info("language model configured", "provider", cfg.LLMProvider, "model", model.ModelName(), "timeout", cfg.LLMTimeout)

	// Wire dependencies
	generationSvc := business.NewService(catalog, model, logger, cfg.MaxDocumentChars)
	readiness := health.NewService(checkers.NewModelChecker(cfg.LLMProvider, model))

	healthHandler := handlers.NewHealthHandler(readiness)
	modesHandler := handlers.NewModesHandler(catalog)
	generateHandler := handlers.NewGenerateHandler(generationSvc, cfg.MaxUploadBytes)

	// JWT auth middleware for generation routes, only when a secret is set
	var authMW fiber.Handler
	if cfg.AuthEnabled() {
		authMW = jwt.NewAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer)
		logger.Info("jwt authentication enabled", "issuer", cfg.JWTIssuer)
	}

	app := fiber.New(fiber.Config{
		AppName: "bizgen",
		// multipart overhead on top of the largest accepted document
		BodyLimit:             int(cfg.MaxUploadBytes) + 1<<20,
		DisableStartupMessage: true,
	})
	app.Use(requestid.New())
	app.Use(http.Observe(logger))
	app.Use(recover.New())

	// Register routes
	http.Register(app, catalog, healthHandler, modesHandler, generateHandler, authMW)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI
	app.Get("/swagger/*", swagger.HandlerDefault)

	go func() {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}

func newModel(cfg config.Config) pingableModel {
	if cfg.LLMProvider == config.ProviderOpenRouter {
		return openrouter.New(
			cfg.OpenRouterAPIKey,
			cfg.OpenRouterBase,
			cfg.OpenRouterModel,
			cfg.OpenRouterAppTitle,
			cfg.OpenRouterReferer,
			cfg.LLMTimeout,
		)
	}
	return gemini.New(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel, cfg.LLMTimeout)
}
