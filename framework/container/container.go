package container

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ContainerInterface is the read side of a container: enough to look entries
// up, which is all handlers and delegates need.
type ContainerInterface interface {
	Get(id string) (any, error)
	Has(id string) bool
}

// instance is a built singleton. A nil *instance in Container.singletons
// marks an entry flagged as singleton but not built yet.
type instance struct {
	value any
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container maps identifiers to definitions and builds objects from them,
// autowiring constructor, method and callable parameters.
//
// It supports:
//   - Set / SetSingleton / SetDefinitions / SetSingletons
//   - Get / Make / Has / HasSingleton / Create / Invoke
//   - Autowiring of declared and discovered classes
//   - Tags, contextual bindings and resolved callbacks
//   - Deferred service providers and delegate lookup
//
// A Container is not safe for concurrent use. Callers that share one between
// goroutines synchronize around it.
type Container struct {
	// id → normalized definition
	definitions map[string]Definition

	// id → built singleton; nil value means flagged but unbuilt
	singletons map[string]*instance

	classes  *reflectionCache
	resolver *resolver
	builder  *builder

	// ids currently being resolved, for cycle detection
	stack *dependencyStack

	// tag → []id
	tags map[string][]string

	// contextual: when[class][needs] = definition
	contextual map[string]map[string]Definition

	// id → loader registering a deferred provider
	deferred map[string]func() error

	afterResolving []func(string, any)

	delegate ContainerInterface
	autowire bool
	logger   *zap.Logger
}

// Option configures a Container.
type Option func(*Container) error

var (
	selfID      = KeyOf[*Container]()
	interfaceID = KeyOf[ContainerInterface]()
)

// New creates an empty container. It panics if an option fails, which only
// happens for invalid class declarations.
func New(opts ...Option) *Container {
	c := &Container{
		definitions: make(map[string]Definition),
		singletons:  make(map[string]*instance),
		classes:     newReflectionCache(selfID, interfaceID),
		stack:       &dependencyStack{},
		tags:        make(map[string][]string),
		contextual:  make(map[string]map[string]Definition),
		deferred:    make(map[string]func() error),
		autowire:    true,
		logger:      zap.NewNop(),
	}
	c.resolver = &resolver{c: c}
	c.builder = &builder{c: c}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err.Error())
		}
	}
	return c
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithDelegate consults d for identifiers the container cannot resolve itself.
func WithDelegate(d ContainerInterface) Option {
	return func(c *Container) error {
		c.delegate = d
		return nil
	}
}

// WithClasses declares classes up front.
func WithClasses(classes ...*Class) Option {
	return func(c *Container) error {
		return c.Declare(classes...)
	}
}

// WithoutAutowiring limits Get to explicit definitions. Has no longer
// reports undefined classes.
func WithoutAutowiring() Option {
	return func(c *Container) error {
		c.autowire = false
		return nil
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Declare adds classes to the class table.
//
//	c.Declare(
//	    container.Interface[EngineInterface](),
//	    container.NewClass[*Car](NewCar, container.Param("engine"), container.Param("color", container.Default("red"))),
//	)
func (c *Container) Declare(classes ...*Class) error {
	for _, class := range classes {
		if err := c.classes.declare(class); err != nil {
			return err
		}
	}
	return nil
}

// Set registers a transient definition. Any singleton built for id is
// dropped.
//
//	c.Set(container.KeyOf[EngineInterface](), container.KeyOf[*EngineMarkOne]())
//	c.Set("car.red", container.ConfigOf("class", container.KeyOf[*Car](), "Color", "red"))
func (c *Container) Set(id string, definition any) error {
	if err := c.store(id, definition); err != nil {
		return err
	}
	delete(c.singletons, id)
	return nil
}

// SetSingleton registers a definition whose first result is reused.
func (c *Container) SetSingleton(id string, definition any) error {
	if err := c.store(id, definition); err != nil {
		return err
	}
	c.singletons[id] = nil
	return nil
}

// SetDefinitions calls Set for every entry, in sorted id order.
func (c *Container) SetDefinitions(defs map[string]any) error {
	for _, id := range sortedKeys(defs) {
		if err := c.Set(id, defs[id]); err != nil {
			return err
		}
	}
	return nil
}

// SetSingletons calls SetSingleton for every entry, in sorted id order.
func (c *Container) SetSingletons(defs map[string]any) error {
	for _, id := range sortedKeys(defs) {
		if err := c.SetSingleton(id, defs[id]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) store(id string, definition any) error {
	if id == "" {
		return &InvalidDefinitionError{Reason: "identifier is empty"}
	}
	if id == selfID || id == interfaceID {
		return &InvalidDefinitionError{ID: id, Reason: "identifier is reserved by the container"}
	}
	def, err := c.normalize(id, definition)
	if err != nil {
		return err
	}
	c.definitions[id] = def
	delete(c.deferred, id)
	return nil
}

// deferTo registers load to run the first time id is needed.
func (c *Container) deferTo(id string, load func() error) {
	c.deferred[id] = load
}

// ── Contextual Binding ────────────────────────────────────────────────────────

// When starts a contextual binding chain.
//
//	c.When(container.KeyOf[*PhotoController]()).
//	    Needs(container.KeyOf[Filesystem]()).
//	    Give(container.KeyOf[*S3Filesystem]())
func (c *Container) When(class string) *ContextualBuilder {
	return &ContextualBuilder{container: c, class: class}
}

func (c *Container) contextualFor(class, needs string) (Definition, bool) {
	def, ok := c.contextual[class][needs]
	return def, ok
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates identifiers under a named group.
//
//	c.Tag([]string{"report.cpu", "report.memory"}, "reports")
func (c *Container) Tag(ids []string, tag string) {
	c.tags[tag] = append(c.tags[tag], ids...)
}

// Tagged resolves every identifier registered under tag, in registration
// order.
func (c *Container) Tagged(tag string) ([]any, error) {
	ids := c.tags[tag]
	result := make([]any, 0, len(ids))
	for _, id := range ids {
		v, err := c.Get(id)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving tag %q", tag)
		}
		result = append(result, v)
	}
	return result, nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves id.
//
//	v, err := c.Get(container.KeyOf[*Car]())
func (c *Container) Get(id string) (any, error) {
	return c.get(id)
}

// Make resolves id and panics on failure.
func (c *Container) Make(id string) any {
	v, err := c.get(id)
	if err != nil {
		panic(fmt.Sprintf("container: could not resolve [%s]: %v", id, err))
	}
	return v
}

func (c *Container) get(id string) (any, error) {
	return c.resolve(id, nil, nil, nil)
}

// resolve looks id up through the singleton cache, the definition store,
// deferred providers, autowiring and the delegate, in that order.
func (c *Container) resolve(id string, layers []Args, steps []Step, invoke *Args) (any, error) {
	if id == selfID || id == interfaceID {
		return c, nil
	}
	if slot := c.singletons[id]; slot != nil {
		c.logger.Debug("singleton cache hit", zap.String("id", id))
		return slot.value, nil
	}

	if err := c.stack.push(id); err != nil {
		return nil, err
	}
	defer c.stack.pop()

	value, err := c.resolveUncached(id, layers, steps, invoke)
	if err != nil {
		return nil, err
	}
	if _, flagged := c.singletons[id]; flagged {
		c.singletons[id] = &instance{value: value}
	}
	for _, cb := range c.afterResolving {
		cb(id, value)
	}
	return value, nil
}

func (c *Container) resolveUncached(id string, layers []Args, steps []Step, invoke *Args) (any, error) {
	def, ok := c.definitions[id]
	if !ok {
		if load, deferred := c.deferred[id]; deferred {
			if err := load(); err != nil {
				return nil, errors.Wrapf(err, "loading deferred provider for [%s]", id)
			}
			delete(c.deferred, id)
			def, ok = c.definitions[id]
		}
	}
	if ok {
		return c.resolveDefinition(id, def, layers, steps, invoke)
	}

	switch {
	case c.autowire && c.classes.instantiable(id):
		return c.builder.build(id, layers, steps, invoke)
	case c.delegate != nil && c.delegate.Has(id):
		c.logger.Debug("resolving through delegate", zap.String("id", id))
		return c.delegate.Get(id)
	case c.autowire && c.classes.known(id):
		return c.builder.build(id, layers, steps, invoke)
	}
	return nil, &NotInstantiableError{ID: id, Reason: "no definition and no class with this identifier"}
}

// resolveDefinition produces a value from def. layers and steps come from
// definitions further out and apply on top of def's own.
func (c *Container) resolveDefinition(id string, def Definition, layers []Args, steps []Step, invoke *Args) (any, error) {
	switch d := def.(type) {
	case ClassRef:
		if d.Class == id {
			return c.builder.build(id, layers, steps, invoke)
		}
		return c.resolve(d.Class, layers, steps, invoke)

	case ClassConfig:
		layers = append(layers[:len(layers):len(layers)], d.Construct)
		merged := make([]Step, 0, len(d.Steps)+len(steps))
		merged = append(append(merged, d.Steps...), steps...)
		if invoke == nil {
			invoke = d.Invoke
		}
		if d.Class == id {
			return c.builder.build(id, layers, merged, invoke)
		}
		return c.resolve(d.Class, layers, merged, invoke)

	case *Callable:
		desc := c.classes.describeFunc(d.fn, id, d.params)
		args, err := mergeLayers(layers, desc)
		if err != nil {
			return nil, err
		}
		values, err := c.resolver.resolveParameters(desc, args)
		if err != nil {
			return nil, err
		}
		v, err := c.resolver.call(desc, d.fn, values)
		if err != nil || len(steps) == 0 || isNil(v) {
			return v, err
		}
		return c.builder.configure(id, v, steps)

	case Instance:
		if len(layers) > 0 || len(steps) > 0 || invoke != nil {
			return nil, &InvalidDefinitionError{ID: id, Reason: "an instance definition can not be configured"}
		}
		return d.Value, nil
	}
	return nil, &InvalidDefinitionError{ID: id, Reason: fmt.Sprintf("unsupported definition %T", def)}
}

// Create builds className with config, bypassing the definition store and the
// singleton cache. config accepts the same keys as a definition map except
// "class".
//
//	car, err := c.Create(container.KeyOf[*Car](), container.ConfigOf(
//	    "__construct()", container.Named("color", "blue"),
//	))
func (c *Container) Create(className string, config any) (any, error) {
	cfg, ok := toConfig(config)
	if !ok {
		return nil, &InvalidDefinitionError{ID: className, Reason: "config must be a Config or a string-keyed map, got " + typeNameOf(config)}
	}
	cc, err := parseConfig(className, cfg)
	if err != nil {
		return nil, err
	}
	if cc.Class != "" {
		return nil, &InvalidDefinitionError{ID: className, Reason: "Create does not accept a class option"}
	}

	if err := c.stack.push(className); err != nil {
		return nil, err
	}
	defer c.stack.pop()
	return c.builder.build(className, []Args{cc.Construct}, cc.Steps, cc.Invoke)
}

// ResolveCallableDependencies returns the values fn would be called with.
// fn is a function, a *Callable or an object with an Invoke method.
func (c *Container) ResolveCallableDependencies(fn any, args any) ([]any, error) {
	desc, _, err := c.describeCallable(fn)
	if err != nil {
		return nil, err
	}
	a, err := ParseArgs(args)
	if err != nil {
		return nil, err
	}
	return c.resolver.resolveParameters(desc, a)
}

// Invoke calls fn with autowired parameters and returns its first result.
// A trailing error result is returned as the error.
//
//	total, err := c.Invoke(func(cart *Cart, tax float64) float64 { ... }, container.Named("arg1", 0.2))
func (c *Container) Invoke(fn any, args any) (any, error) {
	desc, fv, err := c.describeCallable(fn)
	if err != nil {
		return nil, err
	}
	a, err := ParseArgs(args)
	if err != nil {
		return nil, err
	}
	values, err := c.resolver.resolveParameters(desc, a)
	if err != nil {
		return nil, err
	}
	return c.resolver.call(desc, fv, values)
}

func (c *Container) describeCallable(fn any) (*callableDescriptor, reflect.Value, error) {
	if cb, ok := fn.(*Callable); ok {
		if err := cb.validate(""); err != nil {
			return nil, reflect.Value{}, err
		}
		return c.classes.describeFunc(cb.fn, "", cb.params), cb.fn, nil
	}
	fv := reflect.ValueOf(fn)
	switch {
	case !fv.IsValid():
		return nil, reflect.Value{}, &InvalidDefinitionError{Reason: "nil is not callable"}
	case fv.Kind() == reflect.Func:
		if fv.IsNil() {
			return nil, reflect.Value{}, &InvalidDefinitionError{Reason: "nil function is not callable"}
		}
		return c.classes.describeFunc(fv, "", nil), fv, nil
	}
	owner := keyOfType(fv.Type())
	desc, name, ok := c.classes.describeMethod(fv.Type(), owner, "Invoke")
	if !ok {
		return nil, reflect.Value{}, &InvalidDefinitionError{Reason: typeName(fv.Type()) + " is not callable"}
	}
	return desc, fv.MethodByName(name), nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

// Has reports whether Get can be attempted for id: it is defined, flagged as
// singleton, provided by a deferred provider, an autowirable class or known
// to the delegate. A true result does not promise that resolution succeeds.
func (c *Container) Has(id string) bool {
	if id == selfID || id == interfaceID {
		return true
	}
	if _, ok := c.definitions[id]; ok {
		return true
	}
	if _, ok := c.singletons[id]; ok {
		return true
	}
	if _, ok := c.deferred[id]; ok {
		return true
	}
	if c.autowire && c.classes.instantiable(id) {
		return true
	}
	return c.delegate != nil && c.delegate.Has(id)
}

// HasSingleton reports whether id is flagged as a singleton. With checkBuilt
// it also requires the instance to have been built.
func (c *Container) HasSingleton(id string, checkBuilt bool) bool {
	slot, ok := c.singletons[id]
	if !checkBuilt {
		return ok
	}
	return ok && slot != nil
}

// Definitions returns a copy of the definition store.
func (c *Container) Definitions() map[string]Definition {
	out := make(map[string]Definition, len(c.definitions))
	for id, def := range c.definitions {
		out[id] = def
	}
	return out
}

// Clear removes the definition and singleton registered for id.
func (c *Container) Clear(id string) {
	delete(c.definitions, id)
	delete(c.singletons, id)
}

// Flush removes every definition, singleton, tag, contextual binding and
// deferred provider. Declared classes are kept.
func (c *Container) Flush() {
	c.definitions = make(map[string]Definition)
	c.singletons = make(map[string]*instance)
	c.tags = make(map[string][]string)
	c.contextual = make(map[string]map[string]Definition)
	c.deferred = make(map[string]func() error)
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired after an identifier is resolved
// through the store or by autowiring. Singleton cache hits do not fire it.
func (c *Container) AfterResolving(cb func(id string, value any)) {
	c.afterResolving = append(c.afterResolving, cb)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve gets id and type-asserts the result.
//
//	car, err := container.Resolve[*Car](c, "car.red")
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T
	v, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("container: Resolve[%s]: [%s] resolved to %s",
			typeName(reflect.TypeOf((*T)(nil)).Elem()), id, typeNameOf(v))
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure.
func MustResolve[T any](c *Container, id string) T {
	typed, err := Resolve[T](c, id)
	if err != nil {
		panic(err.Error())
	}
	return typed
}

// Get resolves the entry registered under KeyOf[T](), discovering T as a
// class first so it can be autowired without a declaration.
//
//	car, err := container.Get[*Car](c)
func Get[T any](c *Container) (T, error) {
	c.classes.discover(reflect.TypeOf((*T)(nil)).Elem())
	return Resolve[T](c, KeyOf[T]())
}
