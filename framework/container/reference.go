package container

// Reference is a placeholder for another container entry. It is resolved when
// the argument, property or method call that holds it is applied.
type Reference struct {
	ID string
}

// Ref refers to the entry registered under id.
//
//	c.Set("car", container.ConfigOf(
//	    "class", container.KeyOf[*Car](),
//	    "__construct()", container.Named("engine", container.Ref("engine.v8")),
//	))
func Ref(id string) Reference {
	return Reference{ID: id}
}

// RefOf refers to the entry registered under KeyOf[T]().
func RefOf[T any]() Reference {
	return Reference{ID: KeyOf[T]()}
}

func (r Reference) String() string { return "ref(" + r.ID + ")" }
