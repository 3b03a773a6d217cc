// Package logging builds the application's zap logger from configuration.
package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-di/framework/config"
)

// New creates a structured logger appropriate for the environment.
// Production uses JSON output; local, testing and debug runs use the console
// encoder. LOG_LEVEL overrides the environment's default level.
func New(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.App.Env == "production" && !cfg.App.Debug {
		zc = zap.NewProductionConfig()
	}

	if cfg.Log.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid LOG_LEVEL %q", cfg.Log.Level)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}
	return logger.With(zap.String("app", cfg.App.Name)), nil
}
