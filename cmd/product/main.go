package main

import (
	"context"
	"log"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/fortest/myorders/internal/config"
	"github.com/fortest/myorders/internal/db"
	"github.com/fortest/myorders/internal/models"
	"github.com/fortest/myorders/internal/operation"
	"github.com/fortest/myorders/internal/rabbitmq"
	"github.com/fortest/myorders/internal/server"
	"github.com/fortest/myorders/internal/store"
	"github.com/fortest/myorders/internal/telemetry"
	"go.uber.org/zap"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on" short:"p" default:"8082"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	shutdownTracer, err := telemetry.SetupTracer(context.Background(), "product-service", cfg.Env, cfg.Tracing.Endpoint)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}

	gormDB, pool, err := db.Init(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB, &models.Product{}); err != nil {
		logger.Fatal("failed to migrate", zap.Error(err))
	}

	var publisher *rabbitmq.Publisher
	closeBroker := func() {}
	if cfg.RabbitMQ.Disabled {
		logger.Info("DISABLE_RABBITMQ=true, events are not published")
	} else {
		conn, ch, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Warn("rabbitmq unavailable, events are not published", zap.Error(err))
		} else {
			publisher = rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange, logger)
			closeBroker = func() {
				ch.Close()
				conn.Close()
			}
		}
	}

	reg := server.NewRegistry()
	repo := store.NewGorm[models.Product](gormDB)

	// Create a CLI app which takes a port option.
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		router := server.NewRouter(reg)
		api := server.NewAPI(router, "Products")

		operation.RegisterHealthRoute(api, pool)
		operation.RegisterProductRoutes(api, repo, publisher)

		server.Run(hooks, options.Port, "product-service", router, logger,
			closeBroker,
			pool.Close,
			func() { _ = shutdownTracer(context.Background()) },
		)
	})

	// Run the CLI. When passed no commands, it starts the server.
	cli.Run()
}
