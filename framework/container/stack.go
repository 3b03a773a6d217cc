package container

// dependencyStack holds the identifiers being resolved, outermost first.
type dependencyStack struct {
	ids []string
}

// push fails with the cycle path when id is already being resolved.
func (s *dependencyStack) push(id string) error {
	for i, cur := range s.ids {
		if cur == id {
			path := make([]string, 0, len(s.ids)-i+1)
			path = append(path, s.ids[i:]...)
			return &CircularDependencyError{Path: append(path, id)}
		}
	}
	s.ids = append(s.ids, id)
	return nil
}

func (s *dependencyStack) pop() {
	if len(s.ids) > 0 {
		s.ids = s.ids[:len(s.ids)-1]
	}
}

func (s *dependencyStack) depth() int { return len(s.ids) }
