package container_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-di/framework/container"
)

// ── Autowiring ────────────────────────────────────────────────────────────────

func TestGet_AutowiresConstructorDependency(t *testing.T) {
	c := newCars(t)

	v, err := c.Get(carID)
	require.NoError(t, err)
	car, ok := v.(*Car)
	require.True(t, ok)
	require.NotNil(t, car.Engine)

	again, err := c.Get(carID)
	require.NoError(t, err)
	assert.NotSame(t, car, again, "definitions are transient unless flagged singleton")
	assert.NotSame(t, car.Engine, again.(*Car).Engine)
}

func TestGet_DiscoveredClassNeedsNoDeclaration(t *testing.T) {
	c := newCars(t)

	assert.True(t, c.Has(engineID), "*Engine is discovered from NewCar's parameters")
	engine, err := container.Get[*Engine](c)
	require.NoError(t, err)
	assert.NotNil(t, engine)
}

func TestGet_GenericDiscoversType(t *testing.T) {
	c := container.New()

	bike, err := container.Get[*Bike](c)
	require.NoError(t, err)
	assert.Equal(t, 0, bike.Gears)
}

func TestHas(t *testing.T) {
	c := newCars(t)

	assert.True(t, c.Has(carID))
	assert.False(t, c.Has("unknown"))
	assert.False(t, c.Has(ifaceID), "interfaces are not autowirable")

	require.NoError(t, c.Set(ifaceID, markOneID))
	assert.True(t, c.Has(ifaceID))
}

func TestGet_InterfaceBinding(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.Set(ifaceID, markOneID))

	v, err := c.Get(sedanID)
	require.NoError(t, err)
	sedan := v.(*Sedan)
	assert.Equal(t, "Mark One", sedan.Engine.Name())
	assert.Equal(t, "silver", sedan.Color, "default applies when nothing is supplied")
}

func TestGet_UnboundInterface(t *testing.T) {
	c := newCars(t)

	_, err := c.Get(sedanID)
	require.Error(t, err)
	var notInstantiable *container.NotInstantiableError
	require.True(t, errors.As(err, &notInstantiable))
	assert.Equal(t, ifaceID, notInstantiable.ID)

	_, err = c.Get(ifaceID)
	require.True(t, errors.As(err, &notInstantiable))
}

func TestGet_UnknownID(t *testing.T) {
	c := newCars(t)

	_, err := c.Get("nope")
	var notInstantiable *container.NotInstantiableError
	require.True(t, errors.As(err, &notInstantiable))
	assert.Equal(t, "nope", notInstantiable.ID)
	assert.Panics(t, func() { c.Make("nope") })
}

func TestGet_MissingScalar(t *testing.T) {
	c := newCars(t)

	_, err := c.Get(container.KeyOf[*Clock]())
	var missing *container.MissingRequiredParameterError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "zone", missing.Param)
	assert.Contains(t, missing.Function, container.KeyOf[*Clock]())
}

func TestGet_UnionTriesAlternativesInOrder(t *testing.T) {
	c := newCars(t)

	v, err := c.Get(container.KeyOf[*Garage]())
	require.NoError(t, err)
	assert.IsType(t, &Car{}, v.(*Garage).Vehicle)
}

func TestGet_UnionFallsBackToDefault(t *testing.T) {
	c := container.New(container.WithClasses(
		container.NewClass[*Garage](NewGarage,
			container.Param("vehicle", container.OneOf(container.KeyOf[*Bike]()), container.Default("walk")),
		),
	))

	v, err := c.Get(container.KeyOf[*Garage]())
	require.NoError(t, err)
	assert.Equal(t, "walk", v.(*Garage).Vehicle)
}

func TestGet_IntersectionTriesEveryAlternative(t *testing.T) {
	c := container.New(container.WithClasses(pipeClasses()...))
	require.NoError(t, c.Set(container.KeyOf[Writer](), container.KeyOf[*Tape]()))

	v, err := c.Get(container.KeyOf[*Pipe]())
	require.NoError(t, err)
	assert.IsType(t, &Tape{}, v.(*Pipe).IO)
}

func TestGet_IntersectionCandidateMissingAnInterface(t *testing.T) {
	c := container.New(container.WithClasses(pipeClasses()...))
	require.NoError(t, c.Set(container.KeyOf[Writer](), container.KeyOf[*Pen]()))

	_, err := c.Get(container.KeyOf[*Pipe]())
	var invalid *container.InvalidArgumentError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "io", invalid.Param)
}

func TestGet_UnionOnUntypedParameterKeepsCause(t *testing.T) {
	c := container.New(container.WithClasses(
		container.Interface[EngineInterface](),
		container.NewClass[*Garage](NewGarage,
			container.Param("vehicle", container.OneOf(container.KeyOf[EngineInterface]())),
		),
	))

	_, err := c.Get(container.KeyOf[*Garage]())
	require.Error(t, err)
	var notInstantiable *container.NotInstantiableError
	require.True(t, errors.As(err, &notInstantiable))
	assert.Equal(t, container.KeyOf[EngineInterface](), notInstantiable.ID)
	assert.Contains(t, err.Error(), `resolving parameter "vehicle"`)
}

func TestGet_TransientInstancesAreDistinct(t *testing.T) {
	c := newCars(t)

	a, err := c.Get(markOneID)
	require.NoError(t, err)
	b, err := c.Get(markOneID)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestGet_OptionalResolvesToNil(t *testing.T) {
	c := newCars(t)

	v, err := c.Get(container.KeyOf[*Parking]())
	require.NoError(t, err)
	assert.Nil(t, v.(*Parking).Engine)

	require.NoError(t, c.Set(ifaceID, markTwoID))
	v, err = c.Get(container.KeyOf[*Parking]())
	require.NoError(t, err)
	assert.Equal(t, "Mark Two", v.(*Parking).Engine.Name())
}

// ── Circular dependencies ─────────────────────────────────────────────────────

func TestGet_CircularDependency(t *testing.T) {
	c := newCars(t)

	_, err := c.Get(cycleAID)
	var circular *container.CircularDependencyError
	require.True(t, errors.As(err, &circular))
	assert.Equal(t, []string{cycleAID, cycleBID, cycleCID, cycleAID}, circular.Path)
	assert.Contains(t, err.Error(), cycleAID+" -> "+cycleBID)

	_, err = c.Create(cycleAID, nil)
	require.True(t, errors.As(err, &circular))

	// the stack is unwound after a failure
	_, err = c.Get(carID)
	assert.NoError(t, err)
}

func TestGet_AliasCycle(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Set("a", container.Ref("b")))
	require.NoError(t, c.Set("b", container.Ref("a")))

	_, err := c.Get("a")
	var circular *container.CircularDependencyError
	require.True(t, errors.As(err, &circular))
	assert.Equal(t, []string{"a", "b", "a"}, circular.Path)
}

// ── Singletons ────────────────────────────────────────────────────────────────

func TestSetSingleton_SameInstance(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.SetSingleton(carID, nil))

	assert.True(t, c.HasSingleton(carID, false))
	assert.False(t, c.HasSingleton(carID, true))

	first, err := c.Get(carID)
	require.NoError(t, err)
	second, err := c.Get(carID)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.True(t, c.HasSingleton(carID, true))
}

func TestSetSingleton_CachesNil(t *testing.T) {
	c := container.New()
	calls := 0
	require.NoError(t, c.SetSingleton("nothing", func() any {
		calls++
		return nil
	}))

	for i := 0; i < 2; i++ {
		v, err := c.Get("nothing")
		require.NoError(t, err)
		assert.Nil(t, v)
	}
	assert.Equal(t, 1, calls)
	assert.True(t, c.HasSingleton("nothing", true))
}

func TestSet_DropsSingleton(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.SetSingleton(carID, nil))
	_, err := c.Get(carID)
	require.NoError(t, err)

	require.NoError(t, c.Set(carID, nil))
	assert.False(t, c.HasSingleton(carID, false))
}

func TestSetSingletons(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.SetSingletons(map[string]any{
		ifaceID: markOneID,
		"clock": &Clock{Zone: "UTC"},
	}))

	a, err := c.Get(ifaceID)
	require.NoError(t, err)
	b, err := c.Get(ifaceID)
	require.NoError(t, err)
	assert.Same(t, a, b)

	clock, err := container.Resolve[*Clock](c, "clock")
	require.NoError(t, err)
	assert.Equal(t, "UTC", clock.Zone)
}

// ── Arguments ─────────────────────────────────────────────────────────────────

func TestCreate_PositionalAndNamedAreEquivalent(t *testing.T) {
	c := newCars(t)
	engine := &EngineMarkTwo{Power: 300}

	forms := map[string]any{
		"positional":   container.Positional(engine, "blue"),
		"named":        container.Named("color", "blue", "engine", engine),
		"slice":        []any{engine, "blue"},
		"map":          map[string]any{"engine": engine, "color": "blue"},
		"indexed map":  map[int]any{1: "blue", 0: engine},
		"named, mixed": container.Named("engine", engine, "color", "blue"),
	}
	for name, args := range forms {
		t.Run(name, func(t *testing.T) {
			v, err := c.Create(sedanID, container.ConfigOf("__construct()", args))
			require.NoError(t, err)
			sedan := v.(*Sedan)
			assert.Same(t, engine, sedan.Engine)
			assert.Equal(t, "blue", sedan.Color)
		})
	}
}

func TestMixedArgumentKeysRejected(t *testing.T) {
	c := newCars(t)
	mixed := map[any]any{"color": "red", 0: &EngineMarkOne{}}
	var mixedErr *container.DependenciesIndexNamePositionError

	err := c.Set("sedan.red", container.ConfigOf("class", sedanID, "__construct()", mixed))
	assert.True(t, errors.As(err, &mixedErr), "Set: %v", err)

	_, err = c.Create(sedanID, container.ConfigOf("__construct()", mixed))
	assert.True(t, errors.As(err, &mixedErr), "Create: %v", err)

	_, err = c.Invoke(func(color string) string { return color }, mixed)
	assert.True(t, errors.As(err, &mixedErr), "Invoke: %v", err)

	_, err = c.ResolveCallableDependencies(func(color string) {}, mixed)
	assert.True(t, errors.As(err, &mixedErr), "ResolveCallableDependencies: %v", err)
}

func TestCreate_ExplicitArgumentBeatsAutowiring(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.Set(ifaceID, markOneID))
	mine := &EngineMarkTwo{Power: 1}

	v, err := c.Create(sedanID, container.ConfigOf("__construct()", container.Named("engine", mine)))
	require.NoError(t, err)
	assert.Same(t, mine, v.(*Sedan).Engine)

	_, err = c.Create(sedanID, container.ConfigOf("__construct()", container.Named("engine", "not an engine")))
	var invalid *container.InvalidArgumentError
	require.True(t, errors.As(err, &invalid), "a mismatched value is passed through, not replaced: %v", err)
	assert.Equal(t, "engine", invalid.Param)
}

func TestCreate_LeftoverArguments(t *testing.T) {
	c := newCars(t)
	engine := &EngineMarkOne{}
	var invalid *container.InvalidArgumentError

	_, err := c.Create(sedanID, container.ConfigOf("__construct()", container.Named("engine", engine, "wheels", 4)))
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "wheels", invalid.Param)

	_, err = c.Create(sedanID, container.ConfigOf("__construct()", []any{engine, "red", 4}))
	assert.True(t, errors.As(err, &invalid))
}

func TestGet_DefinitionLayers(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.Set(sedanID, container.ConfigOf(
		"__construct()", container.Named("color", "red"),
	)))
	require.NoError(t, c.Set("engine.v2", markTwoID))
	require.NoError(t, c.Set("sedan.fast", container.ConfigOf(
		"class", sedanID,
		"__construct()", container.Named("engine", container.Ref("engine.v2")),
		"Owner", "Ana",
	)))

	v, err := c.Get("sedan.fast")
	require.NoError(t, err)
	sedan := v.(*Sedan)
	assert.Equal(t, "red", sedan.Color)
	assert.Equal(t, "Mark Two", sedan.Engine.Name())
	assert.Equal(t, "Ana", sedan.Owner)
}

// ── Variadic parameters ───────────────────────────────────────────────────────

func TestGet_VariadicEmptyWithoutBinding(t *testing.T) {
	c := newCars(t)

	v, err := c.Get(storageID)
	require.NoError(t, err)
	assert.Empty(t, v.(*EngineStorage).Engines)
}

func TestGet_VariadicUsesContainerValue(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.Set(ifaceID, markOneID))

	v, err := c.Get(storageID)
	require.NoError(t, err)
	engines := v.(*EngineStorage).Engines
	require.Len(t, engines, 1)
	assert.Equal(t, "Mark One", engines[0].Name())
}

func TestCreate_VariadicSupplied(t *testing.T) {
	c := newCars(t)
	one, two := &EngineMarkOne{}, &EngineMarkTwo{}

	v, err := c.Create(storageID, container.ConfigOf("__construct()", []any{one, two}))
	require.NoError(t, err)
	assert.Equal(t, []EngineInterface{one, two}, v.(*EngineStorage).Engines)

	v, err = c.Create(storageID, container.ConfigOf("__construct()",
		container.Named("engines", []EngineInterface{two, one})))
	require.NoError(t, err)
	assert.Equal(t, []EngineInterface{two, one}, v.(*EngineStorage).Engines, "a slice under the parameter name is spread")

	v, err = c.Create(storageID, container.ConfigOf("__construct()",
		container.Named("engines", one, "spare", two)))
	require.NoError(t, err)
	assert.Equal(t, []EngineInterface{one, two}, v.(*EngineStorage).Engines, "unknown names feed the variadic parameter")
}

// ── Configuration steps ───────────────────────────────────────────────────────

func TestCreate_AppliesStepsInOrder(t *testing.T) {
	c := newCars(t)

	v, err := c.Create(sedanID, container.ConfigOf(
		"__construct()", container.Named("engine", &EngineMarkOne{}),
		"setMileage()", []any{100},
		"WithColor()", []any{"blue"},
		"SetMileage()", container.Named("km", 42),
		"owner", "Ana",
	))
	require.NoError(t, err)
	sedan := v.(*Sedan)
	assert.Equal(t, "blue", sedan.Color, "the wither's result replaced the object")
	assert.Equal(t, 42, sedan.Mileage)
	assert.Equal(t, "Ana", sedan.Owner)
}

func TestCreate_SkipsReservedMethods(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := newCars(t, container.WithLogger(zap.New(core)))

	v, err := c.Create(sedanID, container.ConfigOf(
		"__construct()", container.Named("engine", &EngineMarkOne{}),
		"Close()", []any{},
	))
	require.NoError(t, err)
	assert.False(t, v.(*Sedan).Closed())
	assert.Equal(t, 1, logs.FilterMessage("skipped reserved method in definition").Len())
}

func TestCreate_UnknownMethodOrProperty(t *testing.T) {
	c := newCars(t)
	var invalid *container.InvalidDefinitionError

	_, err := c.Create(carID, container.ConfigOf("Paint()", []any{"red"}))
	assert.True(t, errors.As(err, &invalid))

	_, err = c.Create(carID, container.ConfigOf("Wheels", 4))
	assert.True(t, errors.As(err, &invalid))
}

func TestCreate_PropertyTypeMismatch(t *testing.T) {
	c := newCars(t)

	_, err := c.Create(carID, container.ConfigOf("Color", 42))
	var invalid *container.InvalidArgumentError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "Color", invalid.Param)
}

func TestCreate_PropertyReference(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.SetSingleton("engine.v2", markTwoID))

	v, err := c.Create(sedanID, container.ConfigOf(
		"__construct()", container.Named("engine", &EngineMarkOne{}),
		"Engine", container.Ref("engine.v2"),
	))
	require.NoError(t, err)
	shared, err := c.Get("engine.v2")
	require.NoError(t, err)
	assert.Same(t, shared, v.(*Sedan).Engine)
}

func TestCreate_InvokeBucket(t *testing.T) {
	c := newCars(t)

	v, err := c.Create(container.KeyOf[*Multiplier](), container.ConfigOf(
		"Factor", 3,
		"__invoke()", container.Named("x", 5),
	))
	require.NoError(t, err)
	assert.Equal(t, 15, v)

	require.NoError(t, c.Set("triple", container.ConfigOf(
		"class", container.KeyOf[*Multiplier](),
		"Factor", 3,
		"__invoke()", []any{7},
	)))
	v, err = c.Get("triple")
	require.NoError(t, err)
	assert.Equal(t, 21, v)

	_, err = c.Create(carID, container.ConfigOf("__invoke()", []any{}))
	var invalid *container.InvalidDefinitionError
	assert.True(t, errors.As(err, &invalid), "a class without Invoke can not take an invoke bucket")
}

func TestCreate_CapabilityInterfaces(t *testing.T) {
	c := newCars(t)

	v, err := c.Create(container.KeyOf[*Recorder](), container.ConfigOf(
		"anything", 1,
		"Do()", []any{"x", container.Ref(engineID)},
	))
	require.NoError(t, err)
	rec := v.(*Recorder)
	assert.Equal(t, map[string]any{"anything": 1}, rec.Fields)
	require.Len(t, rec.Calls, 1)
	assert.Contains(t, rec.Calls[0], "Do[x ")
}

func TestCreate_NotCached(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.SetSingleton(carID, nil))

	a, err := c.Create(carID, nil)
	require.NoError(t, err)
	b, err := c.Create(carID, map[string]any{})
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.False(t, c.HasSingleton(carID, true))

	_, err = c.Create("github.com/acme/nowhere.Thing", nil)
	var notInstantiable *container.NotInstantiableError
	assert.True(t, errors.As(err, &notInstantiable))
}

// ── Definitions ───────────────────────────────────────────────────────────────

func TestSet_InvalidDefinitions(t *testing.T) {
	c := newCars(t)
	cases := map[string]struct {
		id  string
		def any
	}{
		"scalar":             {"x", 42},
		"unknown class":      {"x", "github.com/acme/nowhere.Thing"},
		"list":               {"x", []any{1, 2}},
		"config no class":    {"alias", container.ConfigOf("Color", "red")},
		"class not a string": {"x", container.ConfigOf("class", 1)},
		"reserved id":        {container.KeyOf[*container.Container](), nil},
		"empty id":           {"", nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var invalid *container.InvalidDefinitionError
			err := c.Set(tc.id, tc.def)
			assert.True(t, errors.As(err, &invalid), "got %v", err)
		})
	}
}

func TestSet_QualifiedIDWithoutClass(t *testing.T) {
	c := newCars(t)

	require.NoError(t, c.Set("github.com/acme/paint.Red", container.ConfigOf("Color", "red")))
	def := c.Definitions()["github.com/acme/paint.Red"]
	assert.Equal(t, "github.com/acme/paint.Red", def.(container.ClassConfig).Class)
}

func TestDefinitions_Normalized(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.Set(ifaceID, markOneID))
	require.NoError(t, c.Set(carID, nil))
	require.NoError(t, c.Set("car.red", container.ConfigOf(
		"class", carID,
		"Color", "red",
		"SetOwner()", []any{"Ana"},
	)))
	require.NoError(t, c.Set("clock", &Clock{}))
	require.NoError(t, c.Set("factory", func() *Clock { return &Clock{} }))

	defs := c.Definitions()
	assert.Equal(t, container.ClassRef{Class: markOneID}, defs[ifaceID])
	assert.Equal(t, container.ClassRef{Class: carID}, defs[carID])
	assert.IsType(t, container.Instance{}, defs["clock"])
	assert.IsType(t, &container.Callable{}, defs["factory"])

	cfg, ok := defs["car.red"].(container.ClassConfig)
	require.True(t, ok)
	assert.Equal(t, carID, cfg.Class)
	require.Len(t, cfg.Steps, 2)
	assert.Equal(t, container.Step{Name: "Color", Value: "red"}, cfg.Steps[0])
	assert.True(t, cfg.Steps[1].Call)
	assert.Equal(t, "SetOwner", cfg.Steps[1].Name)
}

func TestClearAndFlush(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.SetSingleton("clock", &Clock{}))
	require.NoError(t, c.Set("other", &Clock{}))

	c.Clear("clock")
	assert.False(t, c.Has("clock"))
	assert.True(t, c.Has("other"))

	c.Flush()
	assert.False(t, c.Has("other"))
	assert.True(t, c.Has(carID), "declared classes survive a flush")
}

// ── Callables ─────────────────────────────────────────────────────────────────

func TestInvoke_AutowiresParameters(t *testing.T) {
	c := newCars(t)

	v, err := c.Invoke(func(car *Car, self *container.Container, ci container.ContainerInterface) bool {
		return car.Engine != nil && self == c && ci == container.ContainerInterface(c)
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestInvoke_NamedArguments(t *testing.T) {
	c := container.New()

	v, err := c.Invoke(container.Fn(
		func(a, b int) int { return a - b },
		container.Param("a"), container.Param("b"),
	), container.Named("b", 1, "a", 10))
	require.NoError(t, err)
	assert.Equal(t, 9, v)

	// parameters without a declared name are arg0, arg1, ...
	v, err = c.Invoke(func(a int) int { return a }, container.Named("arg0", 7))
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = c.Invoke(func(a int) int { return a }, container.Named("arg0", 1, "z", 2))
	var invalid *container.InvalidArgumentError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "z", invalid.Param)

	_, err = c.Invoke(func(a int) int { return a }, container.Named("z", 1))
	var missing *container.MissingRequiredParameterError
	assert.True(t, errors.As(err, &missing))
}

func TestInvoke_NumericConversion(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		arg  any
		want any
	}{
		{"int to int8", func(n int8) int8 { return n }, 100, int8(100)},
		{"int to uint8 max", func(n uint8) uint8 { return n }, 255, uint8(255)},
		{"whole float to int", func(n int) int { return n }, 3.0, 3},
		{"int to float", func(f float64) float64 { return f }, 7, 7.0},
		{"uint to int64", func(n int64) int64 { return n }, uint(42), int64(42)},
		{"float64 to float32", func(f float32) float32 { return f }, 1.5, float32(1.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := container.New().Invoke(tt.fn, container.Positional(tt.arg))
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestInvoke_NumericConversionRejectsLoss(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		arg  any
	}{
		{"int8 overflow", func(n int8) int8 { return n }, 300},
		{"negative to uint", func(n uint) uint { return n }, -1},
		{"fraction to int", func(n int) int { return n }, 3.7},
		{"negative float to uint", func(n uint) uint { return n }, -2.0},
		{"uint64 above int64", func(n int64) int64 { return n }, uint64(1 << 63)},
		{"float32 overflow", func(f float32) float32 { return f }, 1e300},
		{"uint16 overflow from uint", func(n uint16) uint16 { return n }, uint(70000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := container.New().Invoke(tt.fn, container.Positional(tt.arg))
			var invalid *container.InvalidArgumentError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, "arg0", invalid.Param)
		})
	}
}

func TestCreate_PropertyNumericOverflow(t *testing.T) {
	c := newCars(t)

	_, err := c.Create(markOneID, container.ConfigOf("Power", 1.5))
	var invalid *container.InvalidArgumentError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "Power", invalid.Param)

	v, err := c.Create(markOneID, container.ConfigOf("Power", int64(450)))
	require.NoError(t, err)
	assert.Equal(t, 450, v.(*EngineMarkOne).Power)
}

func TestInvoke_ReturnsError(t *testing.T) {
	c := container.New()

	_, err := c.Invoke(func() (int, error) { return 0, errors.New("engine stalled") }, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine stalled")
}

func TestInvoke_InvokableObject(t *testing.T) {
	c := newCars(t)

	v, err := c.Invoke(&Multiplier{Factor: 2}, container.Named("x", 4))
	require.NoError(t, err)
	assert.Equal(t, 8, v)

	_, err = c.Invoke(&Car{}, nil)
	var invalid *container.InvalidDefinitionError
	assert.True(t, errors.As(err, &invalid))
}

func TestResolveCallableDependencies(t *testing.T) {
	c := newCars(t)

	values, err := c.ResolveCallableDependencies(func(e *Engine, n int, list []any) {},
		[]any{nil, 3, []any{container.Ref(engineID), "x"}})
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Nil(t, values[0], "a supplied nil is kept")
	assert.Equal(t, 3, values[1])
	list := values[2].([]any)
	assert.IsType(t, &Engine{}, list[0], "references nested in lists are resolved")
	assert.Equal(t, "x", list[1])

	values, err = c.ResolveCallableDependencies(func(e *Engine) {}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Engine{}, values[0])
}

func TestCallableDefinition(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.Set("car.green", func(car *Car) *Car {
		car.Color = "green"
		return car
	}))

	v, err := c.Get("car.green")
	require.NoError(t, err)
	assert.Equal(t, "green", v.(*Car).Color)
}

// ── Contextual bindings, tags, callbacks ──────────────────────────────────────

func TestContextualBinding(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.Set(ifaceID, markOneID))
	require.NoError(t, c.When(sedanID).Needs(ifaceID).Give(markTwoID))

	v, err := c.Get(sedanID)
	require.NoError(t, err)
	assert.Equal(t, "Mark Two", v.(*Sedan).Engine.Name())

	engine, err := c.Get(ifaceID)
	require.NoError(t, err)
	assert.Equal(t, "Mark One", engine.(EngineInterface).Name())
}

func TestContextualBinding_GiveValue(t *testing.T) {
	c := newCars(t)
	mine := &EngineMarkTwo{Power: 9}
	require.NoError(t, c.When(container.KeyOf[*Parking]()).Needs(ifaceID).GiveValue(mine))

	v, err := c.Get(container.KeyOf[*Parking]())
	require.NoError(t, err)
	assert.Same(t, mine, v.(*Parking).Engine)
}

func TestTagged(t *testing.T) {
	c := newCars(t)
	require.NoError(t, c.Set("one", markOneID))
	require.NoError(t, c.Set("two", markTwoID))
	c.Tag([]string{"two", "one"}, "engines")

	engines, err := c.Tagged("engines")
	require.NoError(t, err)
	require.Len(t, engines, 2)
	assert.IsType(t, &EngineMarkTwo{}, engines[0])
	assert.IsType(t, &EngineMarkOne{}, engines[1])

	c.Tag([]string{"missing"}, "broken")
	_, err = c.Tagged("broken")
	assert.Error(t, err)
}

func TestAfterResolving(t *testing.T) {
	c := newCars(t)
	var seen []string
	c.AfterResolving(func(id string, _ any) { seen = append(seen, id) })

	_, err := c.Get(carID)
	require.NoError(t, err)
	assert.Equal(t, []string{engineID, carID}, seen)
}

// ── Options ───────────────────────────────────────────────────────────────────

func TestWithDelegate(t *testing.T) {
	remote := container.New()
	require.NoError(t, remote.Set("remote", func() string { return "r" }))
	c := container.New(container.WithDelegate(remote))

	assert.True(t, c.Has("remote"))
	v, err := c.Get("remote")
	require.NoError(t, err)
	assert.Equal(t, "r", v)
}

func TestWithoutAutowiring(t *testing.T) {
	c := newCars(t, container.WithoutAutowiring())

	assert.False(t, c.Has(carID))
	_, err := c.Get(carID)
	var notInstantiable *container.NotInstantiableError
	require.True(t, errors.As(err, &notInstantiable))

	require.NoError(t, c.Set(carID, nil))
	_, err = c.Get(carID)
	require.Error(t, err, "*Engine is not defined either")

	require.NoError(t, c.Set(engineID, nil))
	_, err = c.Get(carID)
	assert.NoError(t, err)
}

func TestSelfResolution(t *testing.T) {
	c := container.New()

	self, err := c.Get(container.KeyOf[*container.Container]())
	require.NoError(t, err)
	assert.Same(t, c, self)

	ci, err := c.Get(container.KeyOf[container.ContainerInterface]())
	require.NoError(t, err)
	assert.Same(t, c, ci)
	assert.True(t, c.Has(container.KeyOf[container.ContainerInterface]()))
}

func TestResolve_TypeMismatch(t *testing.T) {
	c := newCars(t)

	_, err := container.Resolve[*Sedan](c, carID)
	assert.Error(t, err)
	assert.Panics(t, func() { container.MustResolve[*Sedan](c, carID) })
	assert.NotPanics(t, func() { container.MustResolve[*Car](c, carID) })
}
