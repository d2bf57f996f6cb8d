package main

import (
	"github.com/suteetoe/orgdesk/internal/stub"
	"github.com/suteetoe/orgdesk/pkg/config"
	"github.com/suteetoe/orgdesk/pkg/logger"
	"github.com/suteetoe/orgdesk/prometheus"

	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("stubd")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting stub backend...", cfg.LogConfig()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics()
	log.Info("Prometheus metrics initialized")

	server := stub.NewServer(cfg, log)

	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
