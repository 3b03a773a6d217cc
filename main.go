package main

import (
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/km-arc/go-di/framework/app"
	"github.com/km-arc/go-di/framework/config"
	"github.com/km-arc/go-di/framework/container"
)

// ── Domain ───────────────────────────────────────────────────────────────────

type Engine interface {
	Name() string
}

type V8 struct{ Cylinders int }

func (e *V8) Name() string { return fmt.Sprintf("V%d", e.Cylinders) }

type Electric struct{}

func (e *Electric) Name() string { return "electric" }

type Car struct {
	Engine  Engine
	Color   string
	Mileage int
}

func NewCar(engine Engine, color string) *Car {
	return &Car{Engine: engine, Color: color}
}

func (c *Car) SetMileage(km int) { c.Mileage = km }

type Fleet struct {
	Cars []*Car
}

func NewFleet(cars ...*Car) *Fleet { return &Fleet{Cars: cars} }

// ── Wiring ───────────────────────────────────────────────────────────────────

type ShowroomProvider struct {
	container.BaseProvider
}

func (p *ShowroomProvider) Register(c *container.Container) error {
	if err := c.Declare(
		container.Interface[Engine](),
		container.NewClass[V8](func() *V8 { return &V8{Cylinders: 8} }),
		container.NewClass[Electric](nil),
		container.NewClass[Car](NewCar,
			container.Param("engine"),
			container.Param("color", container.Default("silver")),
		).Method("SetMileage", container.Param("km")),
	); err != nil {
		return err
	}

	if err := c.Set(container.KeyOf[Engine](), container.RefOf[*V8]()); err != nil {
		return err
	}
	if err := c.Set("car.red", container.ConfigOf(
		"class", container.KeyOf[*Car](),
		"__construct()", container.Named("color", "red"),
		"setMileage()", container.Positional(1200),
	)); err != nil {
		return err
	}
	if err := c.When(container.KeyOf[*Car]()).Needs(container.KeyOf[Engine]()).GiveValue(&Electric{}); err != nil {
		return err
	}

	fleetSize := config.GetInt("FLEET_SIZE", 2)
	return c.SetSingleton("fleet", container.Fn(func(c *container.Container) (*Fleet, error) {
		cars := make([]*Car, 0, fleetSize)
		for i := 0; i < fleetSize; i++ {
			car, err := container.Get[*Car](c)
			if err != nil {
				return nil, err
			}
			cars = append(cars, car)
		}
		return NewFleet(cars...), nil
	}))
}

func main() {
	a, err := app.New(os.Args[1:]...)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	if err := a.Register(&ShowroomProvider{}); err != nil {
		log.Fatalf("register: %v", err)
	}
	if err := a.Boot(); err != nil {
		log.Fatalf("boot: %v", err)
	}

	logger := a.Logger()
	defer func() { _ = logger.Sync() }()

	red, err := container.Resolve[*Car](a.Container, "car.red")
	if err != nil {
		logger.Fatal("resolving car.red", zap.Error(err))
	}
	logger.Info("car built",
		zap.String("color", red.Color),
		zap.String("engine", red.Engine.Name()),
		zap.Int("mileage", red.Mileage),
	)

	engine, err := container.Resolve[Engine](a.Container, container.KeyOf[Engine]())
	if err != nil {
		logger.Fatal("resolving engine", zap.Error(err))
	}
	logger.Info("default engine", zap.String("engine", engine.Name()))

	fleet, err := container.Resolve[*Fleet](a.Container, "fleet")
	if err != nil {
		logger.Fatal("resolving fleet", zap.Error(err))
	}
	logger.Info("fleet ready", zap.Int("cars", len(fleet.Cars)), zap.String("env", a.Environment()))
}
