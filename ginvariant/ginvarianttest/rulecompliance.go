package ginvarianttest

import (
	"testing"

	"github.com/gordian-engine/invariants/ginvariant"
	"github.com/stretchr/testify/require"
)

// RuleCases holds the subjects used by [TestRuleCompliance].
type RuleCases[S any] struct {
	// Subjects that apply to and satisfy the rule.
	Satisfying []S

	// Subjects that apply to and violate the rule directly,
	// i.e. not through a nested set.
	Violating []S

	// Subjects the rule does not apply to.
	Inapplicable []S
}

// TestRuleCompliance checks that r honors the assertion contract
// for each of the given subjects:
// satisfying and inapplicable subjects pass every form of assertion,
// and violating subjects produce a [*ginvariant.Violation] naming r and the subject,
// with no cause.
func TestRuleCompliance[S any](t *testing.T, r ginvariant.Rule[S], cases RuleCases[S]) {
	t.Helper()

	t.Run("satisfying subjects", func(t *testing.T) {
		for _, s := range cases.Satisfying {
			require.True(t, ginvariant.Applies(r, s))
			require.True(t, ginvariant.Satisfied(r, s))
			require.NoError(t, ginvariant.Check(r, s))
			require.NoError(t, ginvariant.AssertSatisfied(r, s))
		}
	})

	t.Run("violating subjects", func(t *testing.T) {
		for _, s := range cases.Violating {
			require.True(t, ginvariant.Applies(r, s))
			require.False(t, ginvariant.Satisfied(r, s))

			err := ginvariant.AssertSatisfied(r, s)
			require.Error(t, err)

			v, ok := ginvariant.AsViolation(err)
			require.True(t, ok)
			require.True(t, ginvariant.SameRule(r, v.Rule), "violation names %s, not %s", ginvariant.Describe(v.Rule), ginvariant.Describe(r))
			require.Equal(t, s, v.Subject)
			require.Nil(t, v.Cause)

			// Rendering must not fail for any violation.
			require.NotEmpty(t, v.Error())
		}
	})

	t.Run("inapplicable subjects", func(t *testing.T) {
		for _, s := range cases.Inapplicable {
			require.False(t, ginvariant.Applies(r, s))
			require.True(t, ginvariant.Satisfied(r, s))
			require.NoError(t, ginvariant.Check(r, s))
		}
	})
}
