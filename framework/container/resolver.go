package container

import (
	"fmt"
	"math"
	"reflect"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// resolver binds argument values to parameters and calls functions.
type resolver struct {
	c *Container
}

// resolveParameters returns one value per parameter, with a variadic
// parameter's values appended individually.
func (r *resolver) resolveParameters(fn *callableDescriptor, supplied Args) ([]any, error) {
	values := make([]any, 0, len(fn.params))
	consumed := make(map[string]bool, supplied.Len())
	variadic := false

	for i, p := range fn.params {
		if p.variadic {
			variadic = true
			rest, err := r.variadic(fn, p, i, supplied, consumed)
			if err != nil {
				return nil, err
			}
			values = append(values, rest...)
			break
		}
		if v, ok := lookup(supplied, p, i); ok {
			consumed[p.name] = true
			values = append(values, v)
			continue
		}
		v, err := r.autowire(fn, p)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	if err := leftovers(fn, supplied, consumed, variadic); err != nil {
		return nil, err
	}

	for i, v := range values {
		resolved, err := r.resolvePlaceholders(v)
		if err != nil {
			return nil, err
		}
		values[i] = resolved
	}
	return values, nil
}

func lookup(supplied Args, p paramDescriptor, i int) (any, bool) {
	if supplied.IsNamed() {
		return supplied.Lookup(p.name)
	}
	if i < len(supplied.positional) {
		return supplied.positional[i], true
	}
	return nil, false
}

func (r *resolver) variadic(fn *callableDescriptor, p paramDescriptor, i int, supplied Args, consumed map[string]bool) ([]any, error) {
	if !supplied.IsNamed() {
		if i < len(supplied.positional) {
			return append([]any(nil), supplied.positional[i:]...), nil
		}
	} else {
		var rest []any
		if v, ok := supplied.Lookup(p.name); ok {
			consumed[p.name] = true
			rest = append(rest, spread(v)...)
		}
		known := make(map[string]bool, len(fn.params))
		for _, q := range fn.params {
			known[q.name] = true
		}
		for _, name := range supplied.names {
			if !known[name] {
				consumed[name] = true
				rest = append(rest, supplied.named[name])
			}
		}
		if len(rest) > 0 {
			return rest, nil
		}
	}

	for _, id := range p.classes {
		if !r.c.Has(id) {
			continue
		}
		v, err := r.c.get(id)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving variadic parameter %q of %s", p.name, fn.name)
		}
		return []any{v}, nil
	}
	return nil, nil
}

func spread(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// autowire produces a value for a parameter nothing was supplied for.
func (r *resolver) autowire(fn *callableDescriptor, p paramDescriptor) (any, error) {
	if len(p.classes) > 0 {
		var lastErr error
		for _, id := range p.classes {
			if def, ok := r.c.contextualFor(fn.owner, id); ok {
				return r.c.resolveDefinition(id, def, nil, nil, nil)
			}
			if p.hasDefault && !r.c.Has(id) {
				return p.value, nil
			}
			v, err := r.c.get(id)
			if err == nil {
				return v, nil
			}
			if isCircular(err) {
				return nil, err
			}
			r.c.logger.Debug("parameter alternative failed",
				zap.String("function", fn.name),
				zap.String("param", p.name),
				zap.String("class", id),
				zap.Error(err))
			lastErr = err
		}
		switch {
		case p.hasDefault:
			return p.value, nil
		case p.optional:
			return nil, nil
		case lastErr != nil:
			return nil, errors.Wrapf(lastErr, "resolving parameter %q of %s", p.name, fn.name)
		}
	}
	switch {
	case p.hasDefault:
		return p.value, nil
	case p.optional:
		return nil, nil
	}
	return nil, &MissingRequiredParameterError{Param: p.name, Function: fn.name}
}

func leftovers(fn *callableDescriptor, supplied Args, consumed map[string]bool, variadic bool) error {
	if supplied.IsNamed() {
		for _, name := range supplied.names {
			if !consumed[name] {
				return &InvalidArgumentError{Function: fn.name, Param: name, Reason: "unknown parameter"}
			}
		}
		return nil
	}
	if !variadic && len(supplied.positional) > len(fn.params) {
		return &InvalidArgumentError{
			Function: fn.name,
			Reason:   fmt.Sprintf("too many arguments: %d given, %d expected", len(supplied.positional), len(fn.params)),
		}
	}
	return nil
}

// resolvePlaceholders replaces references with container values, descending
// into []any and map[string]any.
func (r *resolver) resolvePlaceholders(v any) (any, error) {
	switch x := v.(type) {
	case Reference:
		return r.c.get(x.ID)
	case *Reference:
		if x == nil {
			return nil, nil
		}
		return r.c.get(x.ID)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			resolved, err := r.resolvePlaceholders(item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			resolved, err := r.resolvePlaceholders(item)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	}
	return v, nil
}

// call coerces values to the parameter types of fn and calls fv.
func (r *resolver) call(fn *callableDescriptor, fv reflect.Value, values []any) (any, error) {
	in := make([]reflect.Value, len(values))
	for i, v := range values {
		t, name := fn.paramType(i)
		rv, err := coerce(v, t)
		if err != nil {
			return nil, &InvalidArgumentError{Function: fn.name, Param: name, Reason: err.Error()}
		}
		in[i] = rv
	}
	return unpack(fn, fv.Call(in))
}

// unpack returns the first result and the trailing error, if any.
func unpack(fn *callableDescriptor, out []reflect.Value) (any, error) {
	n := len(out)
	if fn.returnsError {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return nil, errors.Wrapf(err, "%s failed", fn.name)
		}
		n--
	}
	if n == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// coerce converts v to t. nil becomes the zero value, a non-nil pointer is
// dereferenced when its element fits, and numbers convert between kinds when
// the value is representable in the target kind.
func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Type().Elem().AssignableTo(t):
		return rv.Elem(), nil
	case numberClass(rv.Kind()) != 0 && numberClass(t.Kind()) != 0:
		return convertNumber(rv, t)
	}
	return reflect.Value{}, errors.Errorf("%s is not assignable to %s", typeName(rv.Type()), typeName(t))
}

const (
	numSigned = iota + 1
	numUnsigned
	numFloat
)

func numberClass(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return numSigned
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return numUnsigned
	case reflect.Float32, reflect.Float64:
		return numFloat
	}
	return 0
}

// convertNumber converts rv to t, refusing values that overflow t, negative
// values for unsigned targets and fractions for integer targets.
func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	fail := func() (reflect.Value, error) {
		return reflect.Value{}, errors.Errorf("%v (%s) does not fit in %s", rv.Interface(), typeName(rv.Type()), typeName(t))
	}

	switch numberClass(rv.Kind()) {
	case numSigned:
		i := rv.Int()
		switch numberClass(t.Kind()) {
		case numSigned:
			if out.OverflowInt(i) {
				return fail()
			}
			out.SetInt(i)
		case numUnsigned:
			if i < 0 || out.OverflowUint(uint64(i)) {
				return fail()
			}
			out.SetUint(uint64(i))
		case numFloat:
			out.SetFloat(float64(i))
		}

	case numUnsigned:
		u := rv.Uint()
		switch numberClass(t.Kind()) {
		case numSigned:
			if u > math.MaxInt64 || out.OverflowInt(int64(u)) {
				return fail()
			}
			out.SetInt(int64(u))
		case numUnsigned:
			if out.OverflowUint(u) {
				return fail()
			}
			out.SetUint(u)
		case numFloat:
			out.SetFloat(float64(u))
		}

	case numFloat:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			if numberClass(t.Kind()) != numFloat {
				return fail()
			}
			out.SetFloat(f)
			return out, nil
		}
		switch numberClass(t.Kind()) {
		case numSigned:
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 || out.OverflowInt(int64(f)) {
				return fail()
			}
			out.SetInt(int64(f))
		case numUnsigned:
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 || out.OverflowUint(uint64(f)) {
				return fail()
			}
			out.SetUint(uint64(f))
		case numFloat:
			if out.OverflowFloat(f) {
				return fail()
			}
			out.SetFloat(f)
		}
	}
	return out, nil
}
