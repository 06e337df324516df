package main

import (
	"context"
	"log"
	"net/url"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/fortest/myorders/internal/config"
	"github.com/fortest/myorders/internal/gateway"
	"github.com/fortest/myorders/internal/operation"
	"github.com/fortest/myorders/internal/server"
	"github.com/fortest/myorders/internal/telemetry"
	"go.uber.org/zap"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on" short:"p" default:"8080"`
}

func prefix(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
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

	shutdownTracer, err := telemetry.SetupTracer(context.Background(), "gateway", cfg.Env, cfg.Tracing.Endpoint)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}

	reg := server.NewRegistry()

	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		router := server.NewRouter(reg)
		api := server.NewAPI(router, "Gateway")
		operation.RegisterHealthRoute(api, nil)

		err := gateway.Mount(router, logger,
			gateway.Route{Prefix: prefix(cfg.Services.CustomerURL), BaseURL: cfg.Services.CustomerURL},
			gateway.Route{Prefix: prefix(cfg.Services.ProductURL), BaseURL: cfg.Services.ProductURL},
			gateway.Route{Prefix: prefix(cfg.Services.OrderURL), BaseURL: cfg.Services.OrderURL},
		)
		if err != nil {
			logger.Fatal("invalid upstream", zap.Error(err))
		}

		server.Run(hooks, options.Port, "gateway", router, logger,
			func() { _ = shutdownTracer(context.Background()) },
		)
	})

	cli.Run()
}
