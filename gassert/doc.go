// Package gassert (Gordian assert) decides at runtime
// which invariant checks are enforced.
//
// Validating every invariant at every boundary may be too expensive in production.
// But when unexpected behavior is observed,
// enabling the relevant checks may immediately reveal the problem.
// Each check is identified by a dot-separated path such as "fleet.vehicle.wheels",
// and an [Environment] holds the selectors that enable paths.
// A [Guard] ties a path to a [ginvariant.Rule] (usually a [ginvariant.Set])
// and only asserts it when the environment enables the path.
//
// Selector behavior is as follows:
//   - No paths are enabled by default, and a nil *Environment enables nothing.
//   - A selector of "*" (wildcard) enables all paths.
//   - The "*" wildcard may only occur as the last segment of a dot-separated selector,
//     so "foo.bar.*" is valid but "foo.*.bar" is not.
//     "foo.*" enables "foo.bar" and "foo.bar.baz", but not "foo" itself.
//   - A selector with a leading "!" excludes an exact path from a wildcard match,
//     so "foo.bar.*,!foo.bar.baz" enables "foo.bar.quux" but not "foo.bar.baz".
//   - Any other selector enables exactly that path,
//     so "foo.bar.baz" does not enable "foo.bar.baz_quux".
//   - [EnvironmentFromString] expects a comma-separated list of selectors.
//   - [ParseEnvironment] reads one selector per line from an [io.Reader],
//     ignoring blank lines and lines whose first character is "#".
//
// By default an enforced failure panics.
// [*Environment.OnlyLogFailures] switches to logging failures instead.
package gassert
