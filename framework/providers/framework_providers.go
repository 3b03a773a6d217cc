package providers

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-di/framework/config"
	"github.com/km-arc/go-di/framework/container"
	"github.com/km-arc/go-di/framework/logging"
	"github.com/km-arc/go-di/framework/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration.
//
// Bound identifiers:
//   - container.KeyOf[*config.Config]()  → *config.Config (singleton)
//   - "config"                           → reference to the above
//
// When Config is nil the configuration is loaded from EnvFiles on first use.
type ConfigServiceProvider struct {
	container.BaseProvider
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	key := container.KeyOf[*config.Config]()
	if p.Config != nil {
		if err := app.SetSingleton(key, p.Config); err != nil {
			return err
		}
	} else {
		envFiles := p.EnvFiles
		if err := app.SetSingleton(key, func() *config.Config {
			return config.Load(envFiles...)
		}); err != nil {
			return err
		}
	}
	return app.Set("config", container.Ref(key))
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the application logger.
//
// Bound identifiers:
//   - container.KeyOf[*zap.Logger]()  → *zap.Logger (singleton)
//   - "logger"                        → reference to the above
//
// Without a Logger one is built from the bound *config.Config by logging.New.
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	key := container.KeyOf[*zap.Logger]()
	var def any = logging.New
	if p.Logger != nil {
		def = p.Logger
	}
	if err := app.SetSingleton(key, def); err != nil {
		return err
	}
	return app.Set("logger", container.Ref(key))
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router. Routes it serves by
// identifier are resolved from the same container. With APP_DEBUG on, failed
// resolutions report their error in the response body.
//
// Bound identifiers:
//   - container.KeyOf[*routing.Router]()  → *routing.Router (singleton)
//   - "router"                            → reference to the above
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	key := container.KeyOf[*routing.Router]()
	if err := app.SetSingleton(key, func(c container.ContainerInterface, logger *zap.Logger, cfg *config.Config) *routing.Router {
		return routing.New(c, routing.WithLogger(logger), routing.WithDebug(cfg.App.Debug))
	}); err != nil {
		return err
	}
	return app.Set("router", container.Ref(key))
}
