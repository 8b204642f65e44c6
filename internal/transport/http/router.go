package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/znakly/agent/internal/core/services"
	"github.com/znakly/agent/internal/infrastructure/certs"
	"github.com/znakly/agent/internal/infrastructure/logger"
	"github.com/znakly/agent/internal/infrastructure/storage"
	"github.com/znakly/agent/internal/transport/http/handlers"
)

type RouterConfig struct {
	Directory  certs.Directory
	Auth       *services.AuthService
	Dispatcher *services.DispatchService
	Poller     *services.PollerService
	Stats      *services.StatsService
	Store      *storage.Store
	Logger     *logger.Logger
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) {
	certificateHandler := handlers.NewCertificateHandler(cfg.Directory, cfg.Logger)
	authHandler := handlers.NewAuthHandler(cfg.Auth, cfg.Directory, cfg.Logger)
	taskHandler := handlers.NewTaskHandler(cfg.Dispatcher, cfg.Poller, cfg.Logger)
	statusHandler := handlers.NewStatusHandler(cfg.Store, cfg.Poller, cfg.Stats)
	streamHandler := handlers.NewTaskStreamHandler(cfg.Poller, cfg.Logger)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Task status stream for the UI
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws/tasks", websocket.New(streamHandler.Handle))

	// API v1 routes
	api := app.Group("/api/v1")
	api.Get("/status", statusHandler.GetStatus)
	api.Get("/certificates", certificateHandler.GetCertificates)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/tasks/submit", taskHandler.Submit)
	api.Get("/tasks/status", taskHandler.GetStatus)
}
