package app

import (
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-di/framework/config"
	"github.com/km-arc/go-di/framework/container"
	"github.com/km-arc/go-di/framework/logging"
	"github.com/km-arc/go-di/framework/providers"
	"github.com/km-arc/go-di/framework/routing"
)

// Application is the top-level application container.
// It embeds the Container and ProviderRegistry so user code can call
// app.Set(), app.SetSingleton(), app.Register() directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
}

// New loads configuration from envFiles, builds the logger and container,
// and registers the framework providers.
func New(envFiles ...string) (*Application, error) {
	cfg := config.Load(envFiles...)
	logger, err := logging.New(cfg)
	if err != nil {
		return nil, err
	}

	opts := []container.Option{container.WithLogger(logger)}
	if !cfg.Container.Autowire {
		opts = append(opts, container.WithoutAutowiring())
	}
	c := container.New(opts...)

	a := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
	}

	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LoggingServiceProvider{Logger: logger},
		&providers.RoutingServiceProvider{},
	} {
		if err := a.Register(p); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.MustResolve[*config.Config](a.Container, "config")
}

// Logger resolves *zap.Logger from the container.
func (a *Application) Logger() *zap.Logger {
	return container.MustResolve[*zap.Logger](a.Container, "logger")
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.MustResolve[*routing.Router](a.Container, "router")
}

// Handler boots the application (if needed) and returns the router, ready to
// be mounted on any server.
func (a *Application) Handler() (http.Handler, error) {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return nil, errors.Wrap(err, "booting application")
		}
	}
	router, err := container.Resolve[*routing.Router](a.Container, "router")
	if err != nil {
		return nil, err
	}
	return router, nil
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
func (a *Application) Version() string     { return "0.1.0" }
