package main

import (
	"github.com/aquaguard/water-quality-worker/internal/config"
	"github.com/aquaguard/water-quality-worker/internal/logging"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName, cfg.Debug)
}
