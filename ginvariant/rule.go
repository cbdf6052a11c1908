package ginvariant

import (
	"errors"
	"fmt"
	"reflect"
)

// Rule is an invariant that must hold on subjects of type S.
//
// IsSatisfiedBy is the bare predicate.
// Callers wanting the full assertion behavior,
// including applicability and custom assertion,
// should use [Check] or [AssertSatisfied] rather than calling IsSatisfiedBy directly.
type Rule[S any] interface {
	IsSatisfiedBy(subject S) bool
}

// Gate is an optional interface for a [Rule]
// that only applies to some subjects of its type.
// A rule that does not apply to a subject is vacuously satisfied by it.
// Rules that do not implement Gate apply to every subject.
type Gate[S any] interface {
	AppliesTo(subject S) bool
}

// Asserter is an optional interface for a [Rule]
// that controls its own assertion.
//
// Composite rules backed by a nested [Set] implement Asserter
// so that a failure inside the nested set is returned as-is,
// allowing [AssertSatisfied] to wrap it with the composite rule.
// AssertSatisfiedBy must return nil or a [*Violation].
type Asserter[S any] interface {
	AssertSatisfiedBy(subject S) error
}

// Applies reports whether r applies to subject,
// which is true unless r implements [Gate] and reports otherwise.
func Applies[S any](r Rule[S], subject S) bool {
	g, ok := r.(Gate[S])
	return !ok || g.AppliesTo(subject)
}

// Satisfied reports whether subject satisfies r,
// treating an inapplicable rule as satisfied.
// Satisfied never constructs a violation.
func Satisfied[S any](r Rule[S], subject S) bool {
	return !Applies(r, subject) || r.IsSatisfiedBy(subject)
}

// Check asserts the single rule r against subject.
//
// If r does not apply to subject, Check returns nil.
// If r is an [Asserter], its own assertion is returned.
// Otherwise, Check returns a [*Violation] naming r and subject
// when r is not satisfied.
//
// Check does not wrap violations produced by nested sets;
// use [AssertSatisfied] for that.
func Check[S any](r Rule[S], subject S) error {
	if r == nil {
		panic(errors.New("BUG: Check called with nil rule"))
	}

	if !Applies(r, subject) {
		return nil
	}

	if a, ok := r.(Asserter[S]); ok {
		return a.AssertSatisfiedBy(subject)
	}

	if !r.IsSatisfiedBy(subject) {
		return &Violation{Rule: r, Subject: subject}
	}

	return nil
}

// Filter returns the subjects that satisfy r, in their original order.
func Filter[S any](r Rule[S], subjects []S) []S {
	var out []S
	for _, s := range subjects {
		if Satisfied(r, s) {
			out = append(out, s)
		}
	}
	return out
}

// Func returns a rule named name that is satisfied when pred returns true.
// The name is used when describing the rule in a violation.
func Func[S any](name string, pred func(S) bool) Rule[S] {
	if pred == nil {
		panic(fmt.Errorf("BUG: Func %q created with nil predicate", name))
	}
	return &funcRule[S]{name: name, pred: pred}
}

type funcRule[S any] struct {
	name string
	pred func(S) bool
}

func (r *funcRule[S]) IsSatisfiedBy(subject S) bool { return r.pred(subject) }

func (r *funcRule[S]) String() string { return r.name }

// Each returns a composite rule over S that asserts set
// against every element returned by elems.
//
// A failing element produces the nested set's violation unchanged,
// so that a set containing the returned rule reports the composite rule
// with the element's violation as its cause.
func Each[S, E any](set *Set[E], elems func(S) []E) Rule[S] {
	if set == nil {
		panic(errors.New("BUG: Each called with nil set"))
	}
	if elems == nil {
		panic(errors.New("BUG: Each called with nil element function"))
	}
	return &eachRule[S, E]{set: set, elems: elems}
}

type eachRule[S, E any] struct {
	set   *Set[E]
	elems func(S) []E
}

func (r *eachRule[S, E]) IsSatisfiedBy(subject S) bool {
	for _, e := range r.elems(subject) {
		if !r.set.IsSatisfiedBy(e) {
			return false
		}
	}
	return true
}

func (r *eachRule[S, E]) AssertSatisfiedBy(subject S) error {
	for _, e := range r.elems(subject) {
		if err := r.set.AssertSatisfiedBy(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *eachRule[S, E]) String() string {
	return "each " + r.set.String()
}

// Adapt presents r, a rule over T, as a rule over S.
//
// A subject that does not hold a T is outside the domain of r,
// so the adapted rule does not apply to it.
// This serves both directions of subtyping:
// a rule for an interface type adapted to a concrete type that implements it,
// and a rule for one concrete type placed in a set for a broader interface type.
//
// Violations raised through the adapter name r itself,
// and [AssertSatisfied] treats the adapter and r as the same rule.
// If r is already a Rule[S], it is returned unchanged.
func Adapt[S, T any](r Rule[T]) Rule[S] {
	if r == nil {
		panic(errors.New("BUG: Adapt called with nil rule"))
	}
	if same, ok := any(r).(Rule[S]); ok {
		return same
	}
	return adapted[S, T]{r: r}
}

type adapted[S, T any] struct {
	r Rule[T]
}

func (a adapted[S, T]) AppliesTo(subject S) bool {
	t, ok := any(subject).(T)
	return ok && Applies(a.r, t)
}

func (a adapted[S, T]) IsSatisfiedBy(subject S) bool {
	t, ok := any(subject).(T)
	return !ok || a.r.IsSatisfiedBy(t)
}

func (a adapted[S, T]) AssertSatisfiedBy(subject S) error {
	t, ok := any(subject).(T)
	if !ok {
		return nil
	}
	return Check(a.r, t)
}

func (a adapted[S, T]) underlying() any { return a.r }

func (a adapted[S, T]) String() string { return Describe(a.r) }

// wrapper is implemented by rules that stand in for another rule.
type wrapper interface {
	underlying() any
}

// identity resolves r through any adapters to the rule it stands for.
func identity(r any) any {
	for {
		w, ok := r.(wrapper)
		if !ok {
			return r
		}
		r = w.underlying()
	}
}

// SameRule reports whether a and b are the same rule,
// looking through rules created by [Adapt].
// Comparable rules compare by value (pointer rules, therefore, by address).
// Rules whose values cannot be compared are the same
// when they share an implementation type.
func SameRule(a, b any) bool {
	a, b = identity(a), identity(b)

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return !va.IsValid() && !vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	if !va.Comparable() || !vb.Comparable() {
		return true
	}
	return a == b
}
