package container

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/muir/reflectutils"
)

// paramDescriptor is the resolved view of one parameter.
type paramDescriptor struct {
	name     string
	typ      reflect.Type // element type for a variadic parameter
	variadic bool
	// classes are the class identifiers the container may resolve for this
	// parameter, in order.
	classes    []string
	hasDefault bool
	value      any
	optional   bool
}

// callableDescriptor describes a constructor, method or function.
type callableDescriptor struct {
	name         string
	owner        string
	fnType       reflect.Type
	offset       int
	params       []paramDescriptor
	returnsError bool
}

// paramType returns the type a value at index i is coerced to.
func (d *callableDescriptor) paramType(i int) (reflect.Type, string) {
	if i >= len(d.params) {
		last := d.params[len(d.params)-1]
		return last.typ, last.name
	}
	return d.params[i].typ, d.params[i].name
}

type classDescriptor struct {
	class *Class
	ctor  *callableDescriptor
}

type methodKey struct {
	typ  reflect.Type
	name string
}

type methodEntry struct {
	desc *callableDescriptor
	name string
}

// reflectionCache owns the class table and memoizes everything derived from
// it. Entries never expire: classes do not change while the process runs.
type reflectionCache struct {
	classes     map[string]*Class
	descriptors map[string]*classDescriptor
	methods     map[methodKey]*methodEntry
	fields      map[reflect.Type]map[string][]int
	reserved    map[string]bool
}

func newReflectionCache(reserved ...string) *reflectionCache {
	rc := &reflectionCache{
		classes:     make(map[string]*Class),
		descriptors: make(map[string]*classDescriptor),
		methods:     make(map[methodKey]*methodEntry),
		fields:      make(map[reflect.Type]map[string][]int),
		reserved:    make(map[string]bool, len(reserved)),
	}
	for _, id := range reserved {
		rc.reserved[id] = true
	}
	return rc
}

func (rc *reflectionCache) declare(class *Class) error {
	if err := class.validate(); err != nil {
		return err
	}
	if rc.reserved[class.name] {
		return &InvalidDefinitionError{ID: class.name, Reason: "identifier is reserved by the container"}
	}
	rc.classes[class.name] = class
	delete(rc.descriptors, class.name)
	if class.ctor != nil {
		ft := reflect.TypeOf(class.ctor)
		for i := 0; i < ft.NumIn(); i++ {
			rc.discover(ft.In(i))
		}
	}
	return nil
}

// discover adds an implicit class for a class-like type seen in a parameter
// list, so it can be autowired without being declared.
func (rc *reflectionCache) discover(t reflect.Type) {
	if t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	key, ok := classLike(t)
	if !ok || rc.reserved[key] {
		return
	}
	if _, exists := rc.classes[key]; !exists {
		rc.classes[key] = implicitClass(t)
	}
}

func (rc *reflectionCache) known(id string) bool {
	_, ok := rc.classes[id]
	return ok
}

func (rc *reflectionCache) instantiable(id string) bool {
	class, ok := rc.classes[id]
	return ok && !class.abstract
}

func (rc *reflectionCache) describeClass(id string) (*classDescriptor, error) {
	if d, ok := rc.descriptors[id]; ok {
		return d, nil
	}
	class, ok := rc.classes[id]
	if !ok {
		return nil, &NotInstantiableError{ID: id, Reason: "class does not exist"}
	}
	d := &classDescriptor{class: class}
	if class.ctor != nil {
		fv := reflect.ValueOf(class.ctor)
		d.ctor = rc.describe(id, id, fv.Type(), 0, class.params)
	}
	rc.descriptors[id] = d
	return d, nil
}

// describeMethod looks name up on t, then retries with the first letter
// upper-cased. The result is cached, including a miss.
func (rc *reflectionCache) describeMethod(t reflect.Type, owner, name string) (*callableDescriptor, string, bool) {
	key := methodKey{typ: t, name: name}
	if e, ok := rc.methods[key]; ok {
		if e == nil {
			return nil, "", false
		}
		return e.desc, e.name, true
	}
	resolved := name
	m, ok := t.MethodByName(resolved)
	if !ok {
		resolved = upperFirst(name)
		m, ok = t.MethodByName(resolved)
	}
	if !ok {
		rc.methods[key] = nil
		return nil, "", false
	}
	var specs []ParamSpec
	if class, ok := rc.classes[keyOfType(t)]; ok {
		specs = class.methods[resolved]
	}
	offset := 1
	if t.Kind() == reflect.Interface {
		offset = 0
	}
	desc := rc.describe(owner+"."+resolved, owner, m.Type, offset, specs)
	rc.methods[key] = &methodEntry{desc: desc, name: resolved}
	return desc, resolved, true
}

// describeFunc describes a free-standing function. Function descriptors are
// not cached since closures share types but not parameter specs.
func (rc *reflectionCache) describeFunc(fv reflect.Value, owner string, specs []ParamSpec) *callableDescriptor {
	name := "closure"
	if f := runtime.FuncForPC(fv.Pointer()); f != nil {
		name = f.Name()
	}
	return rc.describe(name, owner, fv.Type(), 0, specs)
}

func (rc *reflectionCache) describe(name, owner string, ft reflect.Type, offset int, specs []ParamSpec) *callableDescriptor {
	d := &callableDescriptor{
		name:   name,
		owner:  owner,
		fnType: ft,
		offset: offset,
	}
	if n := ft.NumOut(); n > 0 && ft.Out(n-1) == errorType {
		d.returnsError = true
	}
	for i := offset; i < ft.NumIn(); i++ {
		pos := i - offset
		p := paramDescriptor{
			name: fmt.Sprintf("arg%d", pos),
			typ:  ft.In(i),
		}
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			p.variadic = true
			p.typ = p.typ.Elem()
		}
		var spec ParamSpec
		if pos < len(specs) {
			spec = specs[pos]
			if spec.Name != "" {
				p.name = spec.Name
			}
		}
		p.hasDefault, p.value, p.optional = spec.hasDefault, spec.value, spec.optional
		if len(spec.alternatives) > 0 {
			p.classes = spec.alternatives
		}
		if key, ok := classLike(p.typ); ok {
			if len(p.classes) == 0 {
				p.classes = []string{key}
			}
			rc.discover(p.typ)
		}
		d.params = append(d.params, p)
	}
	return d
}

// fieldsOf indexes the exported fields of a struct, descending into embedded
// structs.
func (rc *reflectionCache) fieldsOf(t reflect.Type) map[string][]int {
	if f, ok := rc.fields[t]; ok {
		return f
	}
	fields := make(map[string][]int)
	if t.Kind() == reflect.Struct {
		reflectutils.WalkStructElements(t, func(f reflect.StructField) bool {
			if f.IsExported() {
				if _, dup := fields[f.Name]; !dup {
					fields[f.Name] = f.Index
				}
			}
			return f.Anonymous && f.Type.Kind() == reflect.Struct
		})
	}
	rc.fields[t] = fields
	return fields
}
