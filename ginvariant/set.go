package ginvariant

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"slices"
)

// Set is an ordered collection of rules for subjects of type S.
//
// A Set is itself a [Rule] and an [Asserter],
// so a set for one subject type may be used inside a rule for another
// (see [Each]).
//
// Sets must not be modified concurrently,
// nor modified while being asserted;
// a fully populated set may be asserted from many goroutines.
type Set[S any] struct {
	rules []Rule[S]

	// Implementation types already added through discovery.
	discovered map[reflect.Type]struct{}
}

// NewSet returns an empty set.
func NewSet[S any]() *Set[S] {
	return &Set[S]{
		discovered: map[reflect.Type]struct{}{},
	}
}

// DiscoverSet returns a new set populated with every rule in p
// discoverable for S that satisfies all of filters.
func DiscoverSet[S any](p *Pool, filters ...func(*Implementation) bool) *Set[S] {
	return NewSet[S]().AddDiscoveredFrom(p, filters...)
}

// Add appends rules to the set, in order.
// The same rule may be added more than once.
// Add panics if any rule is nil.
func (s *Set[S]) Add(rules ...Rule[S]) *Set[S] {
	for i, r := range rules {
		if r == nil {
			panic(fmt.Errorf("BUG: Add called with nil rule at index %d", i))
		}
	}
	s.rules = append(s.rules, rules...)
	return s
}

// AddDiscoveredFrom instantiates and adds every implementation
// from [FindCandidates] over p that satisfies all of filters.
//
// Implementations already added to s by an earlier call are skipped,
// so repeated discovery against the same pool adds each implementation once.
// An implementation rejected by a filter is not recorded,
// and a later call with different filters may still add it.
//
// AddDiscoveredFrom panics if p or any filter is nil.
func (s *Set[S]) AddDiscoveredFrom(p *Pool, filters ...func(*Implementation) bool) *Set[S] {
	if p == nil {
		panic(errors.New("BUG: AddDiscoveredFrom called with nil pool"))
	}
	for i, f := range filters {
		if f == nil {
			panic(fmt.Errorf("BUG: AddDiscoveredFrom called with nil filter at index %d", i))
		}
	}

	if s.discovered == nil {
		s.discovered = map[reflect.Type]struct{}{}
	}

CANDIDATES:
	for impl := range FindCandidates[S](p) {
		if _, ok := s.discovered[impl.Type]; ok {
			continue
		}

		for _, f := range filters {
			if !f(impl) {
				continue CANDIDATES
			}
		}

		s.rules = append(s.rules, instantiate[S](impl))
		s.discovered[impl.Type] = struct{}{}
	}

	return s
}

func instantiate[S any](impl *Implementation) Rule[S] {
	raw, erased := impl.construct()
	if r, ok := raw.(Rule[S]); ok {
		return r
	}
	return Adapt[S](erased)
}

// AssertSatisfiedBy asserts each rule in registration order
// through [AssertSatisfied], returning the first violation.
func (s *Set[S]) AssertSatisfiedBy(subject S) error {
	for _, r := range s.rules {
		if err := AssertSatisfied(r, subject); err != nil {
			return err
		}
	}
	return nil
}

// IsSatisfiedBy reports whether subject satisfies every rule in the set,
// stopping at the first unsatisfied rule.
// Rules that do not apply to subject are satisfied.
// No violation is constructed.
func (s *Set[S]) IsSatisfiedBy(subject S) bool {
	for _, r := range s.rules {
		if !Satisfied(r, subject) {
			return false
		}
	}
	return true
}

// Len returns the number of rules in the set.
func (s *Set[S]) Len() int {
	return len(s.rules)
}

// Rules iterates the rules in registration order.
func (s *Set[S]) Rules() iter.Seq[Rule[S]] {
	return slices.Values(s.rules)
}

// Discovered reports whether the given implementation type
// has been added to s through discovery.
func (s *Set[S]) Discovered(t reflect.Type) bool {
	_, ok := s.discovered[t]
	return ok
}

func (s *Set[S]) String() string {
	return fmt.Sprintf("Set[%s](%d rules)", reflect.TypeFor[S](), len(s.rules))
}
