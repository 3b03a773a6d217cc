package container

import (
	"fmt"
	"reflect"
)

// ── Class declarations ───────────────────────────────────────────────────────

// ParamSpec describes one parameter of a constructor, method or callable.
// Go reflection carries no parameter names, so they are declared here in
// parameter order.
type ParamSpec struct {
	Name         string
	value        any
	hasDefault   bool
	alternatives []string
	optional     bool
}

// ParamOption configures a ParamSpec.
type ParamOption func(*ParamSpec)

// Param declares a parameter name with optional metadata.
//
//	container.Param("color", container.Default("red"))
func Param(name string, opts ...ParamOption) ParamSpec {
	p := ParamSpec{Name: name}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Default gives the parameter a default value, used when nothing is supplied
// and the container cannot resolve one of its class types.
func Default(v any) ParamOption {
	return func(p *ParamSpec) {
		p.value = v
		p.hasDefault = true
	}
}

// OneOf declares a union of class identifiers tried in order.
func OneOf(ids ...string) ParamOption {
	return func(p *ParamSpec) {
		p.alternatives = append([]string(nil), ids...)
	}
}

// AllOf declares an intersection. The identifiers are tried in order like
// OneOf; a value that does not satisfy the parameter type fails when the
// function is called.
func AllOf(ids ...string) ParamOption {
	return OneOf(ids...)
}

// Optional lets the parameter resolve to nil when nothing else applies.
func Optional() ParamOption {
	return func(p *ParamSpec) { p.optional = true }
}

// Class is an entry of the class table: a named type, how to construct it and
// the parameter names of its constructor and methods.
type Class struct {
	name     string
	typ      reflect.Type
	ctor     any
	params   []ParamSpec
	methods  map[string][]ParamSpec
	abstract bool
	implicit bool
}

// NewClass declares T. ctor is a constructor function returning T (and
// optionally an error); pass nil to build a zero value of a struct type.
//
// Instances of a zero-size struct (struct{} or a struct of only zero-size
// fields) may share one address, so transient lookups of such a class are
// not distinguishable by pointer. Give the type a field when identity matters.
//
//	container.NewClass[*Car](NewCar, container.Param("engine"), container.Param("color", container.Default("red")))
func NewClass[T any](ctor any, params ...ParamSpec) *Class {
	return newClass(reflect.TypeOf((*T)(nil)).Elem(), ctor, params)
}

// Interface declares an abstract class. Resolving it without a binding fails
// with NotInstantiableError.
func Interface[T any]() *Class {
	c := newClass(reflect.TypeOf((*T)(nil)).Elem(), nil, nil)
	c.abstract = true
	return c
}

func newClass(t reflect.Type, ctor any, params []ParamSpec) *Class {
	if t.Kind() == reflect.Struct {
		t = reflect.PointerTo(t)
	}
	c := &Class{
		name:    keyOfType(t),
		typ:     t,
		ctor:    ctor,
		params:  params,
		methods: make(map[string][]ParamSpec),
	}
	if t.Kind() == reflect.Interface && ctor == nil {
		c.abstract = true
	}
	return c
}

// implicitClass is the entry added for a class-like type found in a
// parameter list.
func implicitClass(t reflect.Type) *Class {
	c := newClass(t, nil, nil)
	c.implicit = true
	return c
}

// Named overrides the class identifier. Unnamed types need it.
func (c *Class) Named(name string) *Class {
	c.name = name
	return c
}

// Method declares the parameter names of a method.
func (c *Class) Method(name string, params ...ParamSpec) *Class {
	c.methods[name] = params
	return c
}

// Abstract marks the class as not instantiable on its own.
func (c *Class) Abstract() *Class {
	c.abstract = true
	return c
}

// Name returns the class identifier.
func (c *Class) Name() string { return c.name }

// Type returns the reflected type of instances.
func (c *Class) Type() reflect.Type { return c.typ }

// IsAbstract reports whether the class is an interface or marked abstract.
func (c *Class) IsAbstract() bool { return c.abstract }

func (c *Class) validate() error {
	if c.name == "" {
		return &InvalidDefinitionError{Reason: fmt.Sprintf("class %s has no name", typeName(c.typ))}
	}
	if c.ctor == nil {
		if c.abstract || (c.typ.Kind() == reflect.Ptr && c.typ.Elem().Kind() == reflect.Struct) {
			if len(c.params) > 0 {
				return &InvalidDefinitionError{ID: c.name, Reason: "parameters declared without a constructor"}
			}
			return nil
		}
		return &InvalidDefinitionError{ID: c.name, Reason: "a constructor is required for " + typeName(c.typ)}
	}

	ft := reflect.TypeOf(c.ctor)
	if ft.Kind() != reflect.Func {
		return &InvalidDefinitionError{ID: c.name, Reason: "constructor must be a function, got " + typeName(ft)}
	}
	switch {
	case ft.NumOut() == 0 || ft.NumOut() > 2:
		return &InvalidDefinitionError{ID: c.name, Reason: "constructor must return the instance and optionally an error"}
	case ft.NumOut() == 2 && ft.Out(1) != errorType:
		return &InvalidDefinitionError{ID: c.name, Reason: "constructor's second result must be an error"}
	case !ft.Out(0).AssignableTo(c.typ):
		return &InvalidDefinitionError{
			ID:     c.name,
			Reason: fmt.Sprintf("constructor returns %s, not %s", typeName(ft.Out(0)), typeName(c.typ)),
		}
	case len(c.params) > ft.NumIn():
		return &InvalidDefinitionError{
			ID:     c.name,
			Reason: fmt.Sprintf("%d parameters declared for a constructor taking %d", len(c.params), ft.NumIn()),
		}
	}
	return nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
