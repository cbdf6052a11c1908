// Package ginvariant (Gordian invariant) provides rules over typed subjects,
// ordered sets of rules, and violations that preserve the causal chain
// when a rule delegates its evaluation to a nested set.
//
// A [Rule] is anything with an IsSatisfiedBy method for its subject type.
// Rules may optionally implement [Gate] to restrict the subjects they apply to,
// and [Asserter] to take control of their own assertion
// (which is how composite rules delegate to nested sets).
//
// A [Set] is an ordered collection of rules for one subject type.
// Sets are rules themselves, so they nest.
// Asserting a set stops at the first failure and returns a [*Violation].
// When that failure came from inside a nested set,
// the returned violation names the rule registered directly in the outer set,
// and its Cause chain leads to the leaf rule that actually failed.
//
// Rules constructible without arguments ("unparametrized" rules)
// may be registered in a [Pool], and a set may populate itself from a pool
// via [*Set.AddDiscoveredFrom].
// Discovery matches rules declared for the set's subject [Kind]
// or for any supertype declared through [DeclareSubtype].
//
// Sets and pools are not safe for concurrent mutation.
// Once populated, a set may be asserted concurrently,
// as assertion never modifies the set.
package ginvariant
