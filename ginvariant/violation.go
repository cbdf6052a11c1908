package ginvariant

import (
	"errors"
)

// Violation is the error reported when a subject does not satisfy a rule.
//
// When the failure originated inside a nested [Set],
// Cause holds the violation reported by the nested set,
// forming a chain from the rule the caller asserted
// down to the leaf rule that failed.
// Violations are not modified after construction.
type Violation struct {
	// The rule that declared the failure.
	Rule any

	// The subject that failed Rule.
	Subject any

	// The violation that caused this one, or nil
	// if Rule itself was not satisfied.
	Cause *Violation
}

// Error renders the rule and subject through [Describe].
func (v *Violation) Error() string {
	return "invariant " + Describe(v.Rule) + " violated by subject: " + Describe(v.Subject)
}

// Unwrap returns the cause, so that [errors.As] and [errors.Is]
// can traverse the chain.
func (v *Violation) Unwrap() error {
	if v.Cause == nil {
		return nil
	}
	return v.Cause
}

// Root returns the innermost violation in the chain,
// which is v itself when v has no cause.
func (v *Violation) Root() *Violation {
	for v.Cause != nil {
		v = v.Cause
	}
	return v
}

// Chain returns every violation from v to its root, outermost first.
func (v *Violation) Chain() []*Violation {
	var out []*Violation
	for ; v != nil; v = v.Cause {
		out = append(out, v)
	}
	return out
}

// AsViolation reports the outermost [*Violation] in err's tree, if any.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
