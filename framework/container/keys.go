package container

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/muir/reflectutils"
)

// TypeKey returns the string key for a value's type, useful for type-based
// bindings. Pointers are dereferenced, so *Car and Car share a key.
//
//	c.Set(container.TypeKey(&MyService{}), &MyService{})
func TypeKey(v any) string {
	if v == nil {
		return ""
	}
	return keyOfType(reflect.TypeOf(v))
}

// KeyOf returns the identifier the container uses for T. Interfaces are keyed
// by their own name, which makes KeyOf[Logger]() the natural id to bind a
// Logger implementation to.
func KeyOf[T any]() string {
	return keyOfType(reflect.TypeOf((*T)(nil)).Elem())
}

func keyOfType(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return ""
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// classLike reports whether values of t are class instances: named structs,
// pointers to them and named interfaces.
func classLike(t reflect.Type) (string, bool) {
	switch t.Kind() {
	case reflect.Interface:
		if t.Name() == "" || t.PkgPath() == "" {
			return "", false
		}
	case reflect.Ptr:
		if t.Elem().Kind() != reflect.Struct || t.Elem().Name() == "" {
			return "", false
		}
	case reflect.Struct:
		if t.Name() == "" {
			return "", false
		}
	default:
		return "", false
	}
	return keyOfType(t), true
}

// looksQualified reports whether id reads like a type key, "pkg/path.Name".
func looksQualified(id string) bool {
	dot := strings.LastIndexByte(id, '.')
	if dot <= 0 || dot == len(id)-1 || strings.ContainsAny(id, " \t") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(id[dot+1:])
	return unicode.IsUpper(r)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return reflectutils.TypeName(t)
}

func typeNameOf(v any) string {
	return typeName(reflect.TypeOf(v))
}
