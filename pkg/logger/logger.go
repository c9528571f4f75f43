// Package logger builds the structured loggers used throughout ignitedb.
// Every subsystem takes a *zap.SugaredLogger in its Config rather than
// constructing its own, so a single call here configures logging for the
// whole store.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-configured, JSON-encoded *zap.SugaredLogger
// tagged with the given service name. The returned logger is safe for
// concurrent use and is shared by the engine, storage, index, and
// compaction subsystems.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		// Config.Build only fails on a misconfigured encoder/level, which
		// NewProductionConfig never produces; fall back rather than panic.
		log = zap.NewNop()
	}

	return log.Sugar().With("service", service).Named("ignitedb")
}

// NewNop returns a logger that discards all output, useful for tests and
// for callers that want ignitedb silent.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
