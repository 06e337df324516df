package main

import (
	"context"
	"log"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/fortest/myorders/internal/config"
	"github.com/fortest/myorders/internal/db"
	"github.com/fortest/myorders/internal/metrics"
	"github.com/fortest/myorders/internal/models"
	"github.com/fortest/myorders/internal/operation"
	"github.com/fortest/myorders/internal/ordering"
	"github.com/fortest/myorders/internal/rabbitmq"
	"github.com/fortest/myorders/internal/remote"
	"github.com/fortest/myorders/internal/server"
	"github.com/fortest/myorders/internal/store"
	"github.com/fortest/myorders/internal/telemetry"
	"go.uber.org/zap"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on" short:"p" default:"8083"`
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

	ctx, cancel := context.WithCancel(context.Background())

	shutdownTracer, err := telemetry.SetupTracer(ctx, "order-service", cfg.Env, cfg.Tracing.Endpoint)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}

	gormDB, pool, err := db.Init(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB, &models.Order{}, &models.OrderItem{}); err != nil {
		logger.Fatal("failed to migrate", zap.Error(err))
	}

	orders := store.NewOrders(gormDB)

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

			consumeCh, err := rabbitmq.ConsumerChannel(conn, 10)
			if err != nil {
				logger.Fatal("failed to open consumer channel", zap.Error(err))
			}
			eventRouter := rabbitmq.SetupOrderEventHandlers(orders, logger)
			if err := rabbitmq.StartListening(ctx, consumeCh, cfg.RabbitMQ.Exchange, "order-service.references", eventRouter, logger); err != nil {
				logger.Fatal("failed to start event listener", zap.Error(err))
			}
			closeBroker = func() {
				consumeCh.Close()
				ch.Close()
				conn.Close()
			}
		}
	}

	reg := server.NewRegistry()

	checker := remote.NewChecker(
		remote.SettingsFromConfig(cfg),
		logger,
		metrics.NewChecks(reg),
		remote.Target{Name: "customer", BaseURL: cfg.Services.CustomerURL},
		remote.Target{Name: "product", BaseURL: cfg.Services.ProductURL},
	)

	svc := ordering.NewService(orders, checker, ordering.Endpoints{
		Customers: cfg.Services.CustomerURL,
		Products:  cfg.Services.ProductURL,
	}, publisher, logger)

	// Create a CLI app which takes a port option.
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		router := server.NewRouter(reg)
		api := server.NewAPI(router, "Orders")

		operation.RegisterHealthRoute(api, pool)
		operation.RegisterOrderRoutes(api, svc)

		server.Run(hooks, options.Port, "order-service", router, logger,
			cancel,
			closeBroker,
			pool.Close,
			func() { _ = shutdownTracer(context.Background()) },
		)
	})

	// Run the CLI. When passed no commands, it starts the server.
	cli.Run()
}
