package container

import (
	"fmt"
	"reflect"
	"sort"
)

// ── Argument lists ───────────────────────────────────────────────────────────

// Args is an argument list for a constructor, method or callable. It is
// either positional (bound by index) or named (bound by parameter name),
// never both.
type Args struct {
	positional []any
	names      []string
	named      map[string]any
}

// Positional builds a positional argument list.
//
//	container.Positional(engine, "red")
func Positional(values ...any) Args {
	return Args{positional: values}
}

// Named builds a named argument list from alternating name/value pairs. The
// pair order is kept. It panics on an odd count or a non-string name.
//
//	container.Named("color", "red", "engine", container.Ref("engine.v8"))
func Named(pairs ...any) Args {
	if len(pairs)%2 != 0 {
		panic("container: Named expects name/value pairs")
	}
	a := Args{named: make(map[string]any, len(pairs)/2)}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("container: Named expects a string name at position %d, got %s", i, typeNameOf(pairs[i])))
		}
		a.set(name, pairs[i+1])
	}
	return a
}

// IsNamed reports whether the list binds by parameter name.
func (a Args) IsNamed() bool { return a.named != nil }

// Empty reports whether the list carries no values.
func (a Args) Empty() bool { return len(a.positional) == 0 && len(a.named) == 0 }

// Len returns the number of values in the list.
func (a Args) Len() int {
	if a.IsNamed() {
		return len(a.names)
	}
	return len(a.positional)
}

// Values returns the positional values, or the named values in insertion order.
func (a Args) Values() []any {
	if !a.IsNamed() {
		return append([]any(nil), a.positional...)
	}
	out := make([]any, 0, len(a.names))
	for _, name := range a.names {
		out = append(out, a.named[name])
	}
	return out
}

// Names returns the parameter names of a named list in insertion order.
func (a Args) Names() []string { return append([]string(nil), a.names...) }

// Lookup returns the named value for name.
func (a Args) Lookup(name string) (any, bool) {
	v, ok := a.named[name]
	return v, ok
}

func (a *Args) set(name string, v any) {
	if a.named == nil {
		a.named = make(map[string]any)
	}
	if _, exists := a.named[name]; !exists {
		a.names = append(a.names, name)
	}
	a.named[name] = v
}

// overlay returns a named list holding a's values replaced and extended by b's.
func (a Args) overlay(b Args) Args {
	out := Args{named: make(map[string]any, len(a.names)+len(b.names))}
	for _, name := range a.names {
		out.set(name, a.named[name])
	}
	for _, name := range b.names {
		out.set(name, b.named[name])
	}
	return out
}

// ParseArgs converts a raw argument list into Args. Accepted forms are Args,
// slices and arrays (positional), maps keyed by strings (named, applied in
// sorted key order) and maps keyed by integers, which must be indexed 0..n-1.
// A map mixing string and integer keys is rejected with a
// DependenciesIndexNamePositionError.
func ParseArgs(raw any) (Args, error) {
	switch v := raw.(type) {
	case nil:
		return Args{}, nil
	case Args:
		return v, nil
	case *Args:
		if v == nil {
			return Args{}, nil
		}
		return *v, nil
	case []any:
		return Positional(v...), nil
	case map[string]any:
		return namedFromMap(v), nil
	case map[int]any:
		return positionalFromIndex(v)
	case map[any]any:
		return parseMixedMap(v)
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		values := make([]any, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
		return Positional(values...), nil
	case reflect.Map:
		m := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().Interface()] = iter.Value().Interface()
		}
		return parseMixedMap(m)
	}
	return Args{}, &InvalidDefinitionError{Reason: "unsupported argument list type " + typeName(rv.Type())}
}

func namedFromMap(m map[string]any) Args {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	a := Args{named: make(map[string]any, len(m))}
	for _, k := range keys {
		a.set(k, m[k])
	}
	return a
}

func positionalFromIndex(m map[int]any) (Args, error) {
	values := make([]any, len(m))
	for i := range values {
		v, ok := m[i]
		if !ok {
			return Args{}, &InvalidDefinitionError{
				Reason: fmt.Sprintf("positional arguments must be indexed 0..%d without gaps, index %d is missing", len(m)-1, i),
			}
		}
		values[i] = v
	}
	return Positional(values...), nil
}

func parseMixedMap(m map[any]any) (Args, error) {
	named := make(map[string]any)
	indexed := make(map[int]any)
	for k, v := range m {
		if s, ok := k.(string); ok {
			named[s] = v
			continue
		}
		kv := reflect.ValueOf(k)
		switch kv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			indexed[int(kv.Int())] = v
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			indexed[int(kv.Uint())] = v
		case reflect.String:
			named[kv.String()] = v
		default:
			return Args{}, &InvalidDefinitionError{Reason: "unsupported argument key type " + typeNameOf(k)}
		}
	}
	if len(named) > 0 && len(indexed) > 0 {
		return Args{}, &DependenciesIndexNamePositionError{}
	}
	if len(named) > 0 {
		return namedFromMap(named), nil
	}
	return positionalFromIndex(indexed)
}

// mergeArgs combines an argument list declared on a definition with one
// supplied by the caller. A positional supply replaces the declared values
// position by position; a named supply overrides them name by name. When the
// two modes differ, the positional side is projected onto parameter names.
func mergeArgs(declared, supplied Args, fn *callableDescriptor) (Args, error) {
	if supplied.Empty() {
		return declared, nil
	}
	if declared.Empty() {
		return supplied, nil
	}
	switch {
	case !declared.IsNamed() && !supplied.IsNamed():
		out := append([]any(nil), supplied.positional...)
		if len(declared.positional) > len(out) {
			out = append(out, declared.positional[len(out):]...)
		}
		return Positional(out...), nil
	case declared.IsNamed() && supplied.IsNamed():
		return declared.overlay(supplied), nil
	case declared.IsNamed():
		projected, err := projectNames(supplied, fn)
		if err != nil {
			return Args{}, err
		}
		return declared.overlay(projected), nil
	default:
		projected, err := projectNames(declared, fn)
		if err != nil {
			return Args{}, err
		}
		return projected.overlay(supplied), nil
	}
}

// mergeLayers folds argument lists ordered from the caller inwards, so the
// outermost layer wins.
func mergeLayers(layers []Args, fn *callableDescriptor) (Args, error) {
	var merged Args
	for i := len(layers) - 1; i >= 0; i-- {
		var err error
		if merged, err = mergeArgs(merged, layers[i], fn); err != nil {
			return Args{}, err
		}
	}
	return merged, nil
}

func projectNames(a Args, fn *callableDescriptor) (Args, error) {
	out := Args{named: make(map[string]any, len(a.positional))}
	var params []paramDescriptor
	name := "constructor"
	if fn != nil {
		params = fn.params
		name = fn.name
	}
	for i, v := range a.positional {
		if i < len(params) && params[i].variadic {
			out.set(params[i].name, append([]any(nil), a.positional[i:]...))
			break
		}
		if i >= len(params) {
			return Args{}, &InvalidArgumentError{
				Function: name,
				Reason:   fmt.Sprintf("positional argument %d has no matching parameter", i),
			}
		}
		out.set(params[i].name, v)
	}
	return out, nil
}
