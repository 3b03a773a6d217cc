package container

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ── Errors ───────────────────────────────────────────────────────────────────

// InvalidDefinitionError reports a definition the container cannot accept:
// an unknown class string, a config map without a class, a non-callable value
// or an unsupported shape.
type InvalidDefinitionError struct {
	ID     string
	Reason string
}

func (e *InvalidDefinitionError) Error() string {
	if e.ID == "" {
		return "container: invalid definition: " + e.Reason
	}
	return fmt.Sprintf("container: invalid definition for [%s]: %s", e.ID, e.Reason)
}

// MissingRequiredParameterError reports a parameter that has no supplied
// value, no default and cannot be autowired.
type MissingRequiredParameterError struct {
	Param    string
	Function string
}

func (e *MissingRequiredParameterError) Error() string {
	return fmt.Sprintf("container: missing required parameter %q when calling %s", e.Param, e.Function)
}

// DependenciesIndexNamePositionError reports an argument list that mixes
// named and positional keys.
type DependenciesIndexNamePositionError struct {
	Context string
}

func (e *DependenciesIndexNamePositionError) Error() string {
	msg := "container: dependencies indexed by name and by position in the same array are not allowed"
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// NotInstantiableError reports an identifier that names no known class, or an
// abstract class or interface without a concrete binding.
type NotInstantiableError struct {
	ID     string
	Reason string
}

func (e *NotInstantiableError) Error() string {
	return fmt.Sprintf("container: can not instantiate [%s]: %s", e.ID, e.Reason)
}

// CircularDependencyError reports a cycle found while resolving. Path starts
// and ends with the identifier that closed the cycle.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return "container: circular dependency detected: " + strings.Join(e.Path, " -> ")
}

// InvalidArgumentError reports a value that cannot be passed to a parameter,
// or arguments left over after every parameter was bound.
type InvalidArgumentError struct {
	Function string
	Param    string
	Reason   string
}

func (e *InvalidArgumentError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("container: invalid argument for %s: %s", e.Function, e.Reason)
	}
	return fmt.Sprintf("container: invalid argument %q for %s: %s", e.Param, e.Function, e.Reason)
}

func isCircular(err error) bool {
	var circular *CircularDependencyError
	return errors.As(err, &circular)
}
