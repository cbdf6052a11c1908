package ginvariant

// AssertSatisfied asserts r against subject on behalf of a caller
// that registered r directly, such as a [Set].
//
// If [Check] reports a [*Violation] naming r, it is returned unchanged.
// If the violation names any other rule,
// r must have delegated to a nested set and the failure happened there;
// AssertSatisfied then returns a new violation naming r and subject,
// whose Cause is the nested violation.
// Errors that are not violations are returned unchanged.
//
// The outermost violation returned therefore always names r,
// and walking Cause reaches the leaf rule that failed.
func AssertSatisfied[S any](r Rule[S], subject S) error {
	err := Check(r, subject)
	if err == nil {
		return nil
	}

	v, ok := err.(*Violation)
	if !ok {
		return err
	}
	if v == nil {
		// An Asserter returned a typed nil.
		return nil
	}

	if SameRule(v.Rule, r) {
		return v
	}

	return &Violation{
		Rule:    identity(r),
		Subject: subject,
		Cause:   v,
	}
}
