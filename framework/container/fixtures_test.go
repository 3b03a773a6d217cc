package container_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-di/framework/container"
)

// ── cars ──────────────────────────────────────────────────────────────────────

type Engine struct {
	Serial string
}

type Car struct {
	Engine *Engine
	Color  string
}

func NewCar(engine *Engine) *Car { return &Car{Engine: engine} }

type EngineInterface interface {
	Name() string
}

type EngineMarkOne struct {
	Power int
}

func (e *EngineMarkOne) Name() string { return "Mark One" }

type EngineMarkTwo struct {
	Power int
}

func (e *EngineMarkTwo) Name() string { return "Mark Two" }

type Sedan struct {
	Engine  EngineInterface
	Color   string
	Owner   string
	Mileage int
	closed  bool
}

func NewSedan(engine EngineInterface, color string) *Sedan {
	return &Sedan{Engine: engine, Color: color}
}

// WithColor returns a copy with a different color.
func (s *Sedan) WithColor(color string) *Sedan {
	cp := *s
	cp.Color = color
	return &cp
}

func (s *Sedan) SetMileage(km int) { s.Mileage = km }

func (s *Sedan) Close() error {
	s.closed = true
	return nil
}

func (s *Sedan) Closed() bool { return s.closed }

type EngineStorage struct {
	Engines []EngineInterface
}

func NewEngineStorage(engines ...EngineInterface) *EngineStorage {
	return &EngineStorage{Engines: engines}
}

type Bike struct {
	Gears int
}

type Garage struct {
	Vehicle any
}

func NewGarage(vehicle any) *Garage { return &Garage{Vehicle: vehicle} }

type Parking struct {
	Engine EngineInterface
}

func NewParking(engine EngineInterface) *Parking { return &Parking{Engine: engine} }

// ── intersections ────────────────────────────────────────────────────────────

type Reader interface{ Read() string }
type Writer interface{ Write(s string) }

type ReadWriter interface {
	Reader
	Writer
}

// Tape is both a Reader and a Writer.
type Tape struct{ data string }

func (t *Tape) Read() string   { return t.data }
func (t *Tape) Write(s string) { t.data += s }

// Pen only writes.
type Pen struct{ ink int }

func (p *Pen) Write(string) { p.ink-- }

type Pipe struct {
	IO ReadWriter
}

func NewPipe(rw ReadWriter) *Pipe { return &Pipe{IO: rw} }

func pipeClasses() []*container.Class {
	return []*container.Class{
		container.Interface[Reader](),
		container.Interface[Writer](),
		container.NewClass[*Tape](nil),
		container.NewClass[*Pen](nil),
		container.NewClass[*Pipe](NewPipe,
			container.Param("io", container.AllOf(container.KeyOf[Reader](), container.KeyOf[Writer]())),
		),
	}
}

// ── cycles ────────────────────────────────────────────────────────────────────

type CycleA struct{ B *CycleB }
type CycleB struct{ C *CycleC }
type CycleC struct{ A *CycleA }

func NewCycleA(b *CycleB) *CycleA { return &CycleA{B: b} }
func NewCycleB(c *CycleC) *CycleB { return &CycleB{C: c} }
func NewCycleC(a *CycleA) *CycleC { return &CycleC{A: a} }

// ── misc ──────────────────────────────────────────────────────────────────────

type Clock struct {
	Zone string
}

func NewClock(zone string) *Clock { return &Clock{Zone: zone} }

type Multiplier struct {
	Factor int
}

func (m *Multiplier) Invoke(x int) int { return m.Factor * x }

// Recorder handles property assignments and method calls itself.
type Recorder struct {
	Fields map[string]any
	Calls  []string
}

func (r *Recorder) SetField(name string, value any) error {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[name] = value
	return nil
}

func (r *Recorder) CallMethod(name string, args []any) (any, error) {
	r.Calls = append(r.Calls, fmt.Sprintf("%s%v", name, args))
	return nil, nil
}

var (
	carID     = container.KeyOf[*Car]()
	engineID  = container.KeyOf[*Engine]()
	ifaceID   = container.KeyOf[EngineInterface]()
	markOneID = container.KeyOf[*EngineMarkOne]()
	markTwoID = container.KeyOf[*EngineMarkTwo]()
	sedanID   = container.KeyOf[*Sedan]()
	storageID = container.KeyOf[*EngineStorage]()
	cycleAID  = container.KeyOf[*CycleA]()
	cycleBID  = container.KeyOf[*CycleB]()
	cycleCID  = container.KeyOf[*CycleC]()
)

func carClasses() []*container.Class {
	return []*container.Class{
		container.NewClass[*Car](NewCar, container.Param("engine")),
		container.Interface[EngineInterface](),
		container.NewClass[*EngineMarkOne](nil),
		container.NewClass[*EngineMarkTwo](nil),
		container.NewClass[*Sedan](NewSedan,
			container.Param("engine"),
			container.Param("color", container.Default("silver")),
		).
			Method("WithColor", container.Param("color")).
			Method("SetMileage", container.Param("km")),
		container.NewClass[*EngineStorage](NewEngineStorage, container.Param("engines")),
		container.NewClass[*CycleA](NewCycleA, container.Param("b")),
		container.NewClass[*CycleB](NewCycleB, container.Param("c")),
		container.NewClass[*CycleC](NewCycleC, container.Param("a")),
		container.NewClass[*Clock](NewClock, container.Param("zone")),
		container.NewClass[*Garage](NewGarage,
			container.Param("vehicle", container.OneOf(container.KeyOf[*Bike](), carID)),
		),
		container.NewClass[*Parking](NewParking, container.Param("engine", container.Optional())),
		container.NewClass[*Multiplier](nil).Method("Invoke", container.Param("x")),
		container.NewClass[*Recorder](nil),
	}
}

func newCars(t *testing.T, opts ...container.Option) *container.Container {
	t.Helper()
	c := container.New(opts...)
	require.NoError(t, c.Declare(carClasses()...))
	return c
}
