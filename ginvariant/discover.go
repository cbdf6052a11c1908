package ginvariant

import (
	"errors"
	"iter"
	"slices"
)

// FindCandidates returns the implementations in p
// that can be discovered for subjects of type S:
// those that are concrete, declared for the kind of S or one of its supertypes,
// and constructible without arguments.
//
// The pool is scanned lazily, in registration order,
// each time the returned sequence is iterated.
// Nothing is instantiated.
//
// FindCandidates panics immediately if p is nil.
func FindCandidates[S any](p *Pool) iter.Seq[*Implementation] {
	if p == nil {
		panic(errors.New("BUG: FindCandidates called with nil pool"))
	}
	return find[S](p, true)
}

// FindRules is like [FindCandidates] but includes parametrized implementations.
func FindRules[S any](p *Pool) iter.Seq[*Implementation] {
	if p == nil {
		panic(errors.New("BUG: FindRules called with nil pool"))
	}
	return find[S](p, false)
}

func find[S any](p *Pool, unparametrized bool) iter.Seq[*Implementation] {
	return func(yield func(*Implementation) bool) {
		kinds := p.Ancestry(KindOf[S]())
		for _, impl := range p.impls {
			if !matches(impl, kinds, unparametrized) {
				continue
			}
			if !yield(impl) {
				return
			}
		}
	}
}

// IsCandidateFor reports whether impl would be yielded by FindCandidates[S](p).
func IsCandidateFor[S any](p *Pool, impl *Implementation) bool {
	if impl == nil {
		panic(errors.New("BUG: IsCandidateFor called with nil implementation"))
	}
	return matches(impl, p.Ancestry(KindOf[S]()), true)
}

// IsRuleFor reports whether impl would be yielded by FindRules[S](p).
func IsRuleFor[S any](p *Pool, impl *Implementation) bool {
	if impl == nil {
		panic(errors.New("BUG: IsRuleFor called with nil implementation"))
	}
	return matches(impl, p.Ancestry(KindOf[S]()), false)
}

func matches(impl *Implementation, kinds []Kind, unparametrized bool) bool {
	if impl.Abstract {
		return false
	}
	if unparametrized && !impl.Unparametrized() {
		return false
	}
	return slices.Contains(kinds, impl.Subject)
}
