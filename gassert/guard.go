package gassert

import (
	"errors"

	"github.com/gordian-engine/invariants/ginvariant"
)

// Guard enforces a rule at a named assertion path,
// only when its [Environment] enables that path.
type Guard[S any] struct {
	env  *Environment
	path string
	rule ginvariant.Rule[S]
}

// NewGuard returns a guard asserting r at path under env.
// A nil env is allowed and disables the guard.
func NewGuard[S any](env *Environment, path string, r ginvariant.Rule[S]) *Guard[S] {
	if r == nil {
		panic(errors.New("BUG: NewGuard called with nil rule"))
	}
	if path == "" {
		panic(errors.New("BUG: NewGuard called with empty path"))
	}
	return &Guard[S]{env: env, path: path, rule: r}
}

// Path returns the assertion path of g.
func (g *Guard[S]) Path() string { return g.path }

// Enabled reports whether g's path is enabled in its environment.
func (g *Guard[S]) Enabled() bool {
	return g.env.Enabled(g.path)
}

// Check asserts the rule against subject if g is enabled,
// returning the violation, if any, without handling it.
func (g *Guard[S]) Check(subject S) error {
	if !g.Enabled() {
		return nil
	}
	return ginvariant.Check(g.rule, subject)
}

// Assert is like Check, but a failure is passed to
// [*Environment.HandleFailure], which panics unless the environment only logs failures.
// Assert reports whether subject passed (or the guard is disabled).
func (g *Guard[S]) Assert(subject S) bool {
	err := g.Check(subject)
	if err == nil {
		return true
	}
	g.env.HandleFailure(g.path, err)
	return false
}
