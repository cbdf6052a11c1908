package ginvariant_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gordian-engine/invariants/ginvariant"
	"github.com/gordian-engine/invariants/ginvariant/ginvarianttest"
	"github.com/stretchr/testify/require"
)

func TestViolation_Error(t *testing.T) {
	t.Parallel()

	v := &ginvariant.Violation{
		Rule:    ginvarianttest.VehicleHasNonNegativeWeight{},
		Subject: &ginvarianttest.Wreck{},
	}
	require.Equal(
		t,
		"invariant ginvarianttest.VehicleHasNonNegativeWeight violated by subject: *ginvarianttest.Wreck",
		v.Error(),
	)

	v = &ginvariant.Violation{}
	require.Equal(t, "invariant <nil> violated by subject: <nil>", v.Error())
}

func TestViolation_chain(t *testing.T) {
	t.Parallel()

	leaf := &ginvariant.Violation{Rule: "leaf", Subject: 1}
	mid := &ginvariant.Violation{Rule: "mid", Subject: 2, Cause: leaf}
	top := &ginvariant.Violation{Rule: "top", Subject: 3, Cause: mid}

	require.Equal(t, []*ginvariant.Violation{top, mid, leaf}, top.Chain())
	require.Same(t, leaf, top.Root())
	require.Same(t, leaf, leaf.Root())

	require.Same(t, mid, errors.Unwrap(top))
	require.Nil(t, errors.Unwrap(leaf))
	require.True(t, errors.Is(top, leaf))
}

func TestViolation_subjectIsSubject(t *testing.T) {
	t.Parallel()

	truck := &ginvarianttest.Truck{VehicleInfo: ginvarianttest.VehicleInfo{Weight: -1}}
	err := ginvariant.Check[ginvarianttest.Vehicle](ginvarianttest.VehicleHasNonNegativeWeight{}, truck)

	v, ok := ginvariant.AsViolation(err)
	require.True(t, ok)
	require.Equal(t, truck, v.Subject)
	require.Equal(t, ginvarianttest.VehicleHasNonNegativeWeight{}, v.Rule)
}

func TestAsViolation(t *testing.T) {
	t.Parallel()

	_, ok := ginvariant.AsViolation(errors.New("plain"))
	require.False(t, ok)

	_, ok = ginvariant.AsViolation(nil)
	require.False(t, ok)

	want := &ginvariant.Violation{Rule: "r"}
	got, ok := ginvariant.AsViolation(fmt.Errorf("wrapped: %w", want))
	require.True(t, ok)
	require.Same(t, want, got)
}

type failingAsserter struct {
	err error
}

func (failingAsserter) IsSatisfiedBy(int) bool { return false }

func (a failingAsserter) AssertSatisfiedBy(int) error { return a.err }

func TestAssertSatisfied_nonViolationErrorsPassThrough(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	err := ginvariant.AssertSatisfied[int](failingAsserter{err: boom}, 1)
	require.Same(t, boom, err)

	s := ginvariant.NewSet[int]().Add(failingAsserter{err: boom})
	require.ErrorIs(t, s.AssertSatisfiedBy(1), boom)
}

func TestAssertSatisfied_typedNilViolation(t *testing.T) {
	t.Parallel()

	var v *ginvariant.Violation
	require.NoError(t, ginvariant.AssertSatisfied[int](failingAsserter{err: v}, 1))
}
