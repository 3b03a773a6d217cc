package container

import "github.com/pkg/errors"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related registrations.
//
// Boot() is called after ALL providers have been registered, making it safe
// to resolve other entries inside Boot().
//
//	type MailProvider struct{ container.BaseProvider }
//
//	func (p *MailProvider) Register(app *container.Container) error {
//	    return app.SetSingleton("mailer", container.Fn(NewMailer, container.Param("dsn")))
//	}
type ServiceProvider interface {
	// Register adds definitions to the container.
	// Do NOT resolve other entries here, use Boot() for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides returns the identifiers a deferred provider registers.
	Provides() []string

	// IsDeferred returns true if the provider should be registered lazily,
	// when one of its Provides() identifiers is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(app *container.Container) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
type ProviderRegistry struct {
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // id → provider
	booted     bool
	registered map[ServiceProvider]bool
	loaded     map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
		loaded:     make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register() method (unless deferred).
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, id := range provider.Provides() {
			r.deferred[id] = provider
			r.app.deferTo(id, r.loader(provider))
		}
		return nil
	}

	if err := provider.Register(r.app); err != nil {
		return errors.Wrapf(err, "registering %T", provider)
	}
	r.eager = append(r.eager, provider)

	// If already booted, boot this provider immediately
	if r.booted {
		if err := provider.Boot(r.app); err != nil {
			return errors.Wrapf(err, "booting %T", provider)
		}
	}
	return nil
}

// loader registers a deferred provider for real. The container calls it on
// the first lookup of any identifier the provider provides. When Register
// fails, whatever it defined under those identifiers is cleared and they stay
// deferred, so a later lookup tries again.
func (r *ProviderRegistry) loader(provider ServiceProvider) func() error {
	var load func() error
	load = func() error {
		if r.loaded[provider] {
			return nil
		}
		if err := provider.Register(r.app); err != nil {
			for _, id := range provider.Provides() {
				r.app.Clear(id)
				r.app.deferTo(id, load)
			}
			return errors.Wrapf(err, "registering deferred %T", provider)
		}
		r.loaded[provider] = true
		for _, id := range provider.Provides() {
			delete(r.deferred, id)
			delete(r.app.deferred, id)
		}
		if r.booted {
			if err := provider.Boot(r.app); err != nil {
				return errors.Wrapf(err, "booting deferred %T", provider)
			}
		}
		return nil
	}
	return load
}

// Boot calls Boot() on all eager providers.
// Must be called after ALL providers have been registered.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.eager {
		if err := provider.Boot(r.app); err != nil {
			return errors.Wrapf(err, "booting %T", provider)
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }

// Deferred returns the identifiers still waiting on a deferred provider.
func (r *ProviderRegistry) Deferred() []string {
	out := make([]string, 0, len(r.deferred))
	for id := range r.deferred {
		out = append(out, id)
	}
	return out
}
