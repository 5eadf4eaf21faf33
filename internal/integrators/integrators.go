package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/fessim/internal/dynamo"
)

var constructors = map[string]func() dynamo.Integrator{
	"euler": func() dynamo.Integrator { return NewEuler() },
	"rk4":   func() dynamo.Integrator { return NewRK4() },
	"rk45":  func() dynamo.Integrator { return NewRK45() },
}

// New returns a fresh integrator by name. Integrators may keep scratch state,
// so callers running in parallel need one each.
func New(name string) (dynamo.Integrator, error) {
	c, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator %q (have %v)", name, Names())
	}
	return c(), nil
}

func Names() []string {
	out := make([]string, 0, len(constructors))
	for k := range constructors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
