package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"

	"github.com/moshipping/labelbridge/internal/config"
	"github.com/moshipping/labelbridge/internal/docstore"
	"github.com/moshipping/labelbridge/internal/labels"
	"github.com/moshipping/labelbridge/internal/orderstore"
	"github.com/moshipping/labelbridge/internal/telemetry"
	"github.com/moshipping/labelbridge/pkg/carrier/smsa"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

// pipeline bundles the constructed components handed to the server.
type pipeline struct {
	client       *smsa.Client
	orchestrator *labels.Orchestrator
	orders       orderstore.Store
}

func initPipeline(cfg *config.Config, logger *otelzap.Logger) (*pipeline, error) {
	client := smsa.New(smsa.Config{
		AccountNumber: cfg.SMSAAccountNumber,
		Username:      cfg.SMSAUsername,
		Password:      cfg.SMSAPassword,
		BaseURL:       cfg.SMSABaseURL,
		UseMock:       cfg.SMSAUseMock,
	}, logger, nil)

	docs, err := docstore.New(cfg.LabelDir, cfg.LabelBaseURL, logger)
	if err != nil {
		return nil, err
	}

	var orders orderstore.Store
	switch cfg.OrderStore {
	case "redis":
		orders = orderstore.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "memory":
		orders = orderstore.NewMemory()
	default:
		return nil, fmt.Errorf("unknown order store backend %q", cfg.OrderStore)
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	orchestrator := labels.New(client, docs, orders, logger, metrics, cfg.FetchConcurrency)

	return &pipeline{
		client:       client,
		orchestrator: orchestrator,
		orders:       orders,
	}, nil
}
