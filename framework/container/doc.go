// Package container provides a string-keyed dependency-injection container
// with autowiring, and a Service Provider system on top of it.
//
// # Overview
//
// The container maps identifiers to definitions and builds objects from them.
// An identifier is either a class identifier, the package-qualified name of a
// Go type as returned by KeyOf, or any other string used as an alias.
//
// Go reflection does not expose parameter names, so classes are declared in
// a class table together with their constructor and the names of its
// parameters. Parameter types that are themselves classes (named structs,
// pointers to them and named interfaces) are discovered automatically and can
// be autowired without a declaration of their own.
//
// # Container Lifecycle
//
//  1. Create: c := container.New(container.WithLogger(logger))
//  2. Declare classes: c.Declare(container.NewClass[*Car](NewCar, container.Param("engine")))
//  3. Register definitions or providers: c.Set(...), registry.Register(&MyProvider{})
//  4. Boot: registry.Boot()
//  5. Resolve: c.Get(id)
//
// # Definitions
//
//	// Autowire the class itself
//	c.Set(container.KeyOf[*Car](), nil)
//
//	// Bind an interface to a class
//	c.Set(container.KeyOf[EngineInterface](), container.KeyOf[*EngineMarkOne]())
//
//	// Configure construction, properties and method calls, in order
//	c.Set("car.red", container.ConfigOf(
//	    "class", container.KeyOf[*Car](),
//	    "__construct()", container.Named("color", "red"),
//	    "Owner", "Ana",
//	    "SetMileage()", []any{12000},
//	))
//
//	// Factory function, parameters autowired
//	c.SetSingleton("db", func(cfg *config.Config) (*sql.DB, error) { ... })
//
//	// Ready-made value
//	c.SetSingleton("clock", realClock{})
//
// # Resolving
//
//	raw, err := c.Get("car.red")
//
//	// Generic, keyed by type
//	car, err := container.Get[*Car](c)
//
//	// Generic, keyed by id
//	car, err := container.Resolve[*Car](c, "car.red")
//
//	// One-off construction that bypasses definitions and singletons
//	car, err := c.Create(container.KeyOf[*Car](), container.ConfigOf("Owner", "Bo"))
//
// # Contextual Binding
//
//	c.When(container.KeyOf[*PhotoController]()).
//	    Needs(container.KeyOf[Filesystem]()).
//	    Give(container.KeyOf[*S3Filesystem]())
//
// # Tags
//
//	c.Tag([]string{"report.cpu", "report.memory"}, "reports")
//	reports, err := c.Tagged("reports")
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.SetSingleton("mailer", NewMailer)
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//	func (p *HeavyProvider) Register(app *container.Container) error {
//	    return app.SetSingleton("heavy", heavySetup) // only called on first c.Get("heavy")
//	}
package container
