package container

import (
	"fmt"
	"reflect"
	"sort"
)

// Entry is one key/value pair of a definition Config.
type Entry struct {
	Key   string
	Value any
}

// Config is an ordered definition map. Its entries are applied in order,
// which matters for property assignments and method calls.
//
//	container.ConfigOf(
//	    "class", container.KeyOf[*Car](),
//	    "__construct()", container.Named("color", "red"),
//	    "SetOwner()", []any{"Ana"},
//	    "Mileage", 0,
//	)
type Config []Entry

// ConfigOf builds a Config from alternating key/value pairs. It panics on an
// odd count or a non-string key.
func ConfigOf(pairs ...any) Config {
	if len(pairs)%2 != 0 {
		panic("container: ConfigOf expects key/value pairs")
	}
	cfg := make(Config, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("container: ConfigOf expects a string key at position %d, got %s", i, typeNameOf(pairs[i])))
		}
		cfg = append(cfg, Entry{Key: key, Value: pairs[i+1]})
	}
	return cfg
}

// Get returns the value of the last entry named key.
func (c Config) Get(key string) (any, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Key == key {
			return c[i].Value, true
		}
	}
	return nil, false
}

// toConfig accepts a Config or any string-keyed map. Maps are applied in
// sorted key order.
func toConfig(raw any) (Config, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, true
	case Config:
		return v, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	cfg := make(Config, 0, len(keys))
	for _, k := range keys {
		v := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
		cfg = append(cfg, Entry{Key: k, Value: v.Interface()})
	}
	return cfg, true
}
