package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sabateri/water-quality/internal/adapter/discodata"
	"github.com/sabateri/water-quality/internal/adapter/httpapi"
	kafkaadapter "github.com/sabateri/water-quality/internal/adapter/kafka"
	"github.com/sabateri/water-quality/internal/adapter/nominatim"
	"github.com/sabateri/water-quality/internal/config"
	"github.com/sabateri/water-quality/internal/observability"
	"github.com/sabateri/water-quality/internal/pipeline"
	"github.com/sabateri/water-quality/internal/thresholds"
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	source := discodata.NewClient(cfg.DiscoDataBaseURL, cfg.DiscoDataTimeout, logger, metrics)
	geocoder := nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent, cfg.NominatimTimeout, logger, metrics)
	limits := thresholds.File{Path: cfg.ThresholdsPath}

	// Report publishing is feature-flagged via KAFKA_ENABLED.
	var sink pipeline.ReportSink
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		sink = publisher
		logger.Info("kafka report publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka report publishing disabled")
	}

	analyzer := pipeline.New(source, geocoder, limits, sink, logger, metrics)
	srv := httpapi.New(cfg.HTTPAddr, analyzer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server", "addr", cfg.HTTPAddr)
	if err := srv.Run(ctx, cfg.ShutdownTimeout); err != nil {
		logger.Error("http server error", "error", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
