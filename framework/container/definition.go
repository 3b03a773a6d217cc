package container

import (
	"fmt"
	"reflect"
	"strings"
)

// ── Definitions ──────────────────────────────────────────────────────────────

const (
	constructKey = "__construct()"
	invokeKey    = "__invoke()"
)

// Definition is the normalized form of whatever was registered for an
// identifier: ClassRef, ClassConfig, *Callable or Instance.
type Definition interface {
	definition()
}

// ClassRef builds Class, or defers to the entry registered for it when it
// differs from the identifier being resolved.
type ClassRef struct {
	Class string
}

// ClassConfig builds Class with constructor arguments, post-construction
// steps and an optional Invoke call whose result replaces the object.
type ClassConfig struct {
	Class     string
	Construct Args
	Steps     []Step
	Invoke    *Args
}

// Callable is a factory function. Its parameters are resolved like a
// constructor's.
type Callable struct {
	fn     reflect.Value
	params []ParamSpec
}

// Fn wraps a function with parameter names so it can be registered as a
// definition or called through Invoke with named arguments.
//
//	c.Set("mailer", container.Fn(NewMailer, container.Param("dsn", container.Default("smtp://localhost"))))
func Fn(fn any, params ...ParamSpec) *Callable {
	return &Callable{fn: reflect.ValueOf(fn), params: params}
}

// Instance is a ready-made value returned as is.
type Instance struct {
	Value any
}

func (ClassRef) definition()    {}
func (ClassConfig) definition() {}
func (*Callable) definition()   {}
func (Instance) definition()    {}

func (c *Callable) validate(id string) error {
	if !c.fn.IsValid() || c.fn.Kind() != reflect.Func || c.fn.IsNil() {
		return &InvalidDefinitionError{ID: id, Reason: "callable definition does not wrap a function"}
	}
	if len(c.params) > c.fn.Type().NumIn() {
		return &InvalidDefinitionError{
			ID:     id,
			Reason: fmt.Sprintf("%d parameters declared for a function taking %d", len(c.params), c.fn.Type().NumIn()),
		}
	}
	return nil
}

// normalize converts a raw definition into a Definition.
func (c *Container) normalize(id string, raw any) (Definition, error) {
	switch d := raw.(type) {
	case nil:
		return ClassRef{Class: id}, nil
	case string:
		if !c.classes.known(d) {
			return nil, &InvalidDefinitionError{ID: id, Reason: fmt.Sprintf("%q is not a known class or interface", d)}
		}
		return ClassRef{Class: d}, nil
	case Reference:
		return ClassRef{Class: d.ID}, nil
	case *Reference:
		if d == nil {
			return nil, &InvalidDefinitionError{ID: id, Reason: "nil reference"}
		}
		return ClassRef{Class: d.ID}, nil
	case *Callable:
		if err := d.validate(id); err != nil {
			return nil, err
		}
		return d, nil
	case Definition:
		return d, nil
	case Config:
		return c.normalizeConfig(id, d)
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Func:
		cb := &Callable{fn: rv}
		if err := cb.validate(id); err != nil {
			return nil, err
		}
		return cb, nil
	case reflect.Map:
		if cfg, ok := toConfig(raw); ok {
			return c.normalizeConfig(id, cfg)
		}
	case reflect.Ptr, reflect.Struct, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return Instance{Value: raw}, nil
	}
	return nil, &InvalidDefinitionError{ID: id, Reason: "unsupported definition type " + typeName(rv.Type())}
}

func (c *Container) normalizeConfig(id string, cfg Config) (Definition, error) {
	if len(cfg) == 0 {
		return ClassRef{Class: id}, nil
	}
	cc, err := parseConfig(id, cfg)
	if err != nil {
		return nil, err
	}
	if cc.Class == "" {
		if !c.classes.known(id) && !looksQualified(id) {
			return nil, &InvalidDefinitionError{ID: id, Reason: `a definition without a class requires a "class" option`}
		}
		cc.Class = id
	}
	return cc, nil
}

// parseConfig sorts config entries into the class, constructor arguments,
// Invoke arguments and ordered steps.
func parseConfig(id string, cfg Config) (ClassConfig, error) {
	var cc ClassConfig
	for _, e := range cfg {
		switch {
		case e.Key == "class" || e.Key == "__class":
			s, ok := e.Value.(string)
			if !ok || s == "" {
				return ClassConfig{}, &InvalidDefinitionError{ID: id, Reason: fmt.Sprintf("option %q must be a class identifier", e.Key)}
			}
			cc.Class = s
		case e.Key == constructKey:
			args, err := parseStepArgs(id, e)
			if err != nil {
				return ClassConfig{}, err
			}
			cc.Construct = args
		case e.Key == invokeKey:
			args, err := parseStepArgs(id, e)
			if err != nil {
				return ClassConfig{}, err
			}
			cc.Invoke = &args
		case strings.HasSuffix(e.Key, "()"):
			name := strings.TrimSuffix(e.Key, "()")
			if name == "" {
				return ClassConfig{}, &InvalidDefinitionError{ID: id, Reason: `method call "()" has no name`}
			}
			args, err := parseStepArgs(id, e)
			if err != nil {
				return ClassConfig{}, err
			}
			cc.Steps = append(cc.Steps, Step{Name: name, Call: true, Args: args})
		case e.Key == "":
			return ClassConfig{}, &InvalidDefinitionError{ID: id, Reason: "property name is empty"}
		default:
			cc.Steps = append(cc.Steps, Step{Name: e.Key, Value: e.Value})
		}
	}
	return cc, nil
}

func parseStepArgs(id string, e Entry) (Args, error) {
	args, err := ParseArgs(e.Value)
	switch err := err.(type) {
	case nil:
		return args, nil
	case *DependenciesIndexNamePositionError:
		err.Context = fmt.Sprintf("%s of [%s]", e.Key, id)
		return Args{}, err
	case *InvalidDefinitionError:
		err.ID = id
		return Args{}, err
	default:
		return Args{}, err
	}
}
