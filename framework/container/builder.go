package container

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// FieldSetter lets a type take property assignments from definitions itself,
// instead of having its exported fields set by reflection.
type FieldSetter interface {
	SetField(name string, value any) error
}

// MethodCaller lets a type dispatch method calls from definitions itself.
type MethodCaller interface {
	CallMethod(name string, args []any) (any, error)
}

// skippedMethods are never called from a definition. They release resources,
// copy the object or take part in formatting and serialization.
var skippedMethods = map[string]bool{
	"Clone":           true,
	"Close":           true,
	"Dispose":         true,
	"String":          true,
	"GoString":        true,
	"Format":          true,
	"Error":           true,
	"MarshalJSON":     true,
	"UnmarshalJSON":   true,
	"MarshalText":     true,
	"UnmarshalText":   true,
	"MarshalBinary":   true,
	"UnmarshalBinary": true,
	"GobEncode":       true,
	"GobDecode":       true,
	"SetField":        true,
	"CallMethod":      true,
}

// Step is a property assignment or method call applied after construction.
type Step struct {
	Name  string
	Call  bool
	Args  Args
	Value any
}

// builder instantiates classes and applies definition steps.
type builder struct {
	c *Container
}

// build instantiates className. layers are constructor argument lists ordered
// from the caller inwards.
func (b *builder) build(className string, layers []Args, steps []Step, invoke *Args) (any, error) {
	desc, err := b.c.classes.describeClass(className)
	if err != nil {
		return nil, err
	}
	args, err := mergeLayers(layers, desc.ctor)
	if err != nil {
		return nil, err
	}

	var values []any
	switch {
	case desc.ctor != nil:
		if values, err = b.c.resolver.resolveParameters(desc.ctor, args); err != nil {
			return nil, err
		}
	case !args.Empty():
		return nil, &InvalidArgumentError{Function: className, Reason: "class has no constructor but arguments were supplied"}
	}

	if desc.class.abstract {
		reason := "class is abstract"
		if desc.class.typ.Kind() == reflect.Interface {
			reason = "interface has no concrete binding"
		}
		return nil, &NotInstantiableError{ID: className, Reason: reason}
	}

	obj, err := b.instantiate(desc, values)
	if err != nil {
		return nil, err
	}
	b.c.logger.Debug("built class", zap.String("class", className), zap.Int("depth", b.c.stack.depth()))

	if obj, err = b.configure(className, obj, steps); err != nil {
		return nil, err
	}
	if invoke != nil {
		return b.invoke(className, obj, *invoke)
	}
	return obj, nil
}

func (b *builder) instantiate(desc *classDescriptor, values []any) (any, error) {
	if desc.ctor == nil {
		return reflect.New(desc.class.typ.Elem()).Interface(), nil
	}
	obj, err := b.c.resolver.call(desc.ctor, reflect.ValueOf(desc.class.ctor), values)
	if err != nil {
		return nil, err
	}
	if isNil(obj) {
		return nil, &NotInstantiableError{ID: desc.class.name, Reason: "constructor returned nil"}
	}
	return obj, nil
}

// configure applies steps in order. A method returning a non-nil value of the
// object's own type replaces the object for the remaining steps.
func (b *builder) configure(className string, obj any, steps []Step) (any, error) {
	cur := reflect.ValueOf(obj)
	for _, s := range steps {
		if !s.Call {
			if err := b.setProperty(className, cur, s); err != nil {
				return nil, err
			}
			continue
		}
		if skippedMethods[s.Name] || skippedMethods[upperFirst(s.Name)] {
			b.c.logger.Warn("skipped reserved method in definition",
				zap.String("class", className), zap.String("method", s.Name))
			continue
		}
		res, err := b.callMethod(className, cur, s)
		if err != nil {
			return nil, err
		}
		if res.IsValid() && res.Type() == cur.Type() && !isNil(res.Interface()) {
			cur = res
		}
	}
	return cur.Interface(), nil
}

func (b *builder) callMethod(className string, cur reflect.Value, s Step) (reflect.Value, error) {
	if caller, ok := cur.Interface().(MethodCaller); ok {
		if s.Args.IsNamed() {
			return reflect.Value{}, &InvalidArgumentError{
				Function: className + "." + s.Name,
				Reason:   "named arguments are not supported by CallMethod",
			}
		}
		resolved, err := b.c.resolver.resolvePlaceholders(s.Args.Values())
		if err != nil {
			return reflect.Value{}, err
		}
		out, err := caller.CallMethod(s.Name, resolved.([]any))
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(out), nil
	}

	desc, name, ok := b.c.classes.describeMethod(cur.Type(), className, s.Name)
	if !ok {
		return reflect.Value{}, &InvalidDefinitionError{
			ID:     className,
			Reason: fmt.Sprintf("method %q does not exist on %s", s.Name, typeName(cur.Type())),
		}
	}
	values, err := b.c.resolver.resolveParameters(desc, s.Args)
	if err != nil {
		return reflect.Value{}, err
	}
	out, err := b.c.resolver.call(desc, cur.MethodByName(name), values)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(out), nil
}

func (b *builder) setProperty(className string, cur reflect.Value, s Step) error {
	value, err := b.c.resolver.resolvePlaceholders(s.Value)
	if err != nil {
		return err
	}
	if setter, ok := cur.Interface().(FieldSetter); ok {
		return setter.SetField(s.Name, value)
	}

	elem := cur
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct || !elem.CanSet() {
		return &InvalidDefinitionError{
			ID:     className,
			Reason: fmt.Sprintf("can not set property %q on %s", s.Name, typeName(cur.Type())),
		}
	}
	fields := b.c.classes.fieldsOf(elem.Type())
	idx, ok := fields[s.Name]
	if !ok {
		idx, ok = fields[upperFirst(s.Name)]
	}
	if !ok {
		return &InvalidDefinitionError{
			ID:     className,
			Reason: fmt.Sprintf("property %q does not exist on %s", s.Name, typeName(cur.Type())),
		}
	}
	field := elem.FieldByIndex(idx)
	rv, err := coerce(value, field.Type())
	if err != nil {
		return &InvalidArgumentError{Function: className, Param: s.Name, Reason: err.Error()}
	}
	field.Set(rv)
	return nil
}

// invoke calls the object's Invoke method and returns its result.
func (b *builder) invoke(className string, obj any, args Args) (any, error) {
	rv := reflect.ValueOf(obj)
	desc, name, ok := b.c.classes.describeMethod(rv.Type(), className, "Invoke")
	if !ok {
		return nil, &InvalidDefinitionError{
			ID:     className,
			Reason: fmt.Sprintf("%s does not expose an Invoke method", typeName(rv.Type())),
		}
	}
	values, err := b.c.resolver.resolveParameters(desc, args)
	if err != nil {
		return nil, err
	}
	return b.c.resolver.call(desc, rv.MethodByName(name), values)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
