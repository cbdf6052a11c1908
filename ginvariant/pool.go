package ginvariant

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"slices"
)

// Kind is a tag identifying a subject type for discovery.
// Use [KindOf] to derive the kind of a Go type.
type Kind string

// KindOf returns the kind of T,
// qualified by T's package path so that equally named types do not collide.
func KindOf[T any]() Kind {
	return kindOf(reflect.TypeFor[T]())
}

func kindOf(t reflect.Type) Kind {
	if t.Kind() == reflect.Pointer && t.Name() == "" {
		return "*" + kindOf(t.Elem())
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return Kind(t.PkgPath() + "." + t.Name())
	}
	return Kind(t.String())
}

// Implementation describes a rule implementation registered in a [Pool].
type Implementation struct {
	// The implementation type, which is the identity of the implementation.
	Type reflect.Type

	// The kind of subject the implementation declares itself a rule for.
	Subject Kind

	// Whether the implementation type is an interface,
	// in which case it can never be discovered.
	Abstract bool

	// Nil for parametrized implementations.
	// Otherwise returns the new rule,
	// and the same rule presented over any subject.
	construct func() (raw any, erased Rule[any])
}

// Unparametrized reports whether the implementation
// can be constructed without arguments,
// which is a requirement for discovery.
func (i *Implementation) Unparametrized() bool {
	return i.construct != nil
}

func (i *Implementation) String() string {
	return i.Type.String()
}

// Pool is the set of rule implementations visible to discovery,
// along with the declared supertypes of subject kinds.
//
// A Pool is normally populated once, by registration calls during initialization,
// and only read afterwards.
// The zero value is ready to use.
type Pool struct {
	impls  []*Implementation
	byType map[reflect.Type]*Implementation

	supers map[Kind][]Kind
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return new(Pool)
}

// Register records R as an unparametrized rule implementation for subjects of type T,
// constructed by newFn during discovery.
//
// If R is an interface type, the implementation is recorded as abstract
// and will never be discovered.
//
// Register panics if p or newFn is nil,
// or if R has already been registered in p.
func Register[T any, R Rule[T]](p *Pool, newFn func() R) *Implementation {
	if newFn == nil {
		panic(fmt.Errorf(
			"BUG: Register called with nil constructor for %s", reflect.TypeFor[R](),
		))
	}

	impl := newImplementation[T, R]()
	impl.construct = func() (any, Rule[any]) {
		r := newFn()
		return r, Adapt[any, T](r)
	}
	p.add(impl)
	return impl
}

// RegisterParametrized records R as a rule implementation for subjects of type T
// that requires construction arguments.
// It is visible to [FindRules] but never to [FindCandidates],
// so instances must be added to sets manually.
//
// RegisterParametrized panics if p is nil or if R has already been registered in p.
func RegisterParametrized[T any, R Rule[T]](p *Pool) *Implementation {
	impl := newImplementation[T, R]()
	p.add(impl)
	return impl
}

func newImplementation[T any, R Rule[T]]() *Implementation {
	rt := reflect.TypeFor[R]()
	return &Implementation{
		Type:     rt,
		Subject:  KindOf[T](),
		Abstract: rt.Kind() == reflect.Interface,
	}
}

func (p *Pool) add(impl *Implementation) {
	if p == nil {
		panic(fmt.Errorf("BUG: attempted to register %s in nil pool", impl.Type))
	}

	if _, ok := p.byType[impl.Type]; ok {
		panic(fmt.Errorf("BUG: rule implementation %s registered twice", impl.Type))
	}

	if p.byType == nil {
		p.byType = map[reflect.Type]*Implementation{}
	}
	p.byType[impl.Type] = impl
	p.impls = append(p.impls, impl)
}

// DeclareSubtype declares the kind of T to be a subtype of the kind of U,
// so that rules registered for U are discovered for sets over T.
//
// The declaration is independent of Go's own type relationships,
// but subjects of type T should be convertible to U
// for discovered rules to evaluate them;
// a subject that is not a U is outside the domain of a rule for U.
func DeclareSubtype[T, U any](p *Pool) {
	p.DeclareKind(KindOf[T](), KindOf[U]())
}

// DeclareKind declares supers as direct supertypes of k.
// Supertype relationships are transitive.
func (p *Pool) DeclareKind(k Kind, supers ...Kind) {
	if p == nil {
		panic(errors.New("BUG: DeclareKind called on nil pool"))
	}

	if p.supers == nil {
		p.supers = map[Kind][]Kind{}
	}
	for _, s := range supers {
		if s == k || slices.Contains(p.supers[k], s) {
			continue
		}
		p.supers[k] = append(p.supers[k], s)
	}
}

// Ancestry returns k followed by all of its declared supertypes,
// nearest first, without duplicates.
func (p *Pool) Ancestry(k Kind) []Kind {
	if p == nil {
		panic(errors.New("BUG: Ancestry called on nil pool"))
	}

	out := []Kind{k}
	for i := 0; i < len(out); i++ {
		for _, s := range p.supers[out[i]] {
			if !slices.Contains(out, s) {
				out = append(out, s)
			}
		}
	}
	return out
}

// Lookup returns the implementation registered for the given type.
func (p *Pool) Lookup(t reflect.Type) (*Implementation, bool) {
	if p == nil {
		panic(errors.New("BUG: Lookup called on nil pool"))
	}
	impl, ok := p.byType[t]
	return impl, ok
}

// All iterates every registered implementation in registration order.
func (p *Pool) All() iter.Seq[*Implementation] {
	if p == nil {
		panic(errors.New("BUG: All called on nil pool"))
	}
	return slices.Values(p.impls)
}

// Len returns the number of registered implementations.
func (p *Pool) Len() int {
	if p == nil {
		panic(errors.New("BUG: Len called on nil pool"))
	}
	return len(p.impls)
}
