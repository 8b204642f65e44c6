package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/znakly/agent/internal/config"
	"github.com/znakly/agent/internal/core/services"
	"github.com/znakly/agent/internal/infrastructure/certs"
	"github.com/znakly/agent/internal/infrastructure/logger"
	"github.com/znakly/agent/internal/infrastructure/platform"
	"github.com/znakly/agent/internal/infrastructure/signing"
	"github.com/znakly/agent/internal/infrastructure/storage"
	transporthttp "github.com/znakly/agent/internal/transport/http"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	store, err := storage.New(cfg.Storage.BaseDir)
	if err != nil {
		panic("failed to prepare data directory: " + err.Error())
	}

	log, err := logger.New(cfg.Logger, store.LogPath())
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Infow("starting znakly agent",
		"version", config.Version,
		"platform", cfg.Platform.BaseURL,
		"data_dir", store.BaseDir(),
	)

	directory := certs.NewFileDirectory(cfg.Certificates.Dir, log)
	signer := signing.NewCryptcp(cfg.Signing, log)
	retryer := platform.NewRetryer(cfg.Retry, log)
	client := platform.NewClient(platform.ClientConfig{
		Platform: cfg.Platform,
		Retry:    retryer,
		Logger:   log,
	})

	registry := services.NewTaskRegistry()
	dispatcher := services.NewDispatchService(services.DispatchServiceConfig{
		Client:   client,
		Store:    store,
		Registry: registry,
		Logger:   log,
		Config:   cfg.Dispenser,
	})
	poller := services.NewPollerService(services.PollerServiceConfig{
		Client:   client,
		Store:    store,
		Registry: registry,
		Logger:   log,
		Config:   cfg.Dispenser,
	})
	authService := services.NewAuthService(services.AuthServiceConfig{
		Client:     client,
		Signer:     signer,
		Store:      store,
		Dispatcher: dispatcher,
		Poller:     poller,
		Logger:     log,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		DisableStartupMessage: true,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:3000",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST",
	}))

	transporthttp.SetupRoutes(app, transporthttp.RouterConfig{
		Directory:  directory,
		Auth:       authService,
		Dispatcher: dispatcher,
		Poller:     poller,
		Stats:      services.NewStatsService(),
		Store:      store,
		Logger:     log,
	})

	go func() {
		if err := app.Listen(cfg.Server.Address()); err != nil {
			log.Fatalf("server failed to start: %v", err)
		}
	}()
	log.Infof("server started on %s", cfg.Server.Address())

	gracefulShutdown(app, poller, log)
}

func defaultConfigPath() string {
	for _, p := range []string{"config/config.yaml", "../config/config.yaml"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func gracefulShutdown(app *fiber.App, poller *services.PollerService, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Infow("shutting down", "signal", sig.String())

	poller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}

	log.Info("agent exited gracefully")
}
