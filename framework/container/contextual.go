package container

// ContextualBuilder implements the fluent contextual binding API: when a
// class's constructor or methods need one identifier, give them another
// definition instead of the container-wide one.
//
//	c.When(container.KeyOf[*PhotoController]()).
//	    Needs(container.KeyOf[Filesystem]()).
//	    Give(container.KeyOf[*S3Filesystem]())
type ContextualBuilder struct {
	container *Container
	class     string
	needs     string
}

// Needs specifies which identifier the class depends on.
func (b *ContextualBuilder) Needs(id string) *ContextualBuilder {
	b.needs = id
	return b
}

// Give registers the definition used when the class resolves the needed
// identifier. It accepts every definition form Set does.
func (b *ContextualBuilder) Give(definition any) error {
	def, err := b.container.normalize(b.needs, definition)
	if err != nil {
		return err
	}
	if _, ok := b.container.contextual[b.class]; !ok {
		b.container.contextual[b.class] = make(map[string]Definition)
	}
	b.container.contextual[b.class][b.needs] = def
	return nil
}

// GiveValue is a shorthand for Give with a ready-made value.
//
//	c.When(container.KeyOf[*Uploader]()).Needs(container.KeyOf[*Bucket]()).GiveValue(bucket)
func (b *ContextualBuilder) GiveValue(value any) error {
	return b.Give(Instance{Value: value})
}
