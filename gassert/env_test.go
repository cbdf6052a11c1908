package gassert_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/gordian-engine/invariants/gassert"
	"github.com/stretchr/testify/require"
)

func TestEnvironment_parsing(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		in   []string
		test func(t *testing.T, e *gassert.Environment)
	}{
		{
			name: "rootWildcard",
			in:   []string{"*"},
			test: func(t *testing.T, e *gassert.Environment) {
				require.True(t, e.Enabled("fleet"))
				require.True(t, e.Enabled("fleet.vehicle"))
				require.True(t, e.Enabled("fleet.vehicle.wheels"))
			},
		},
		{
			name: "rootedWildcard",
			in:   []string{"fleet.*"},
			test: func(t *testing.T, e *gassert.Environment) {
				require.False(t, e.Enabled("fleet"))

				require.True(t, e.Enabled("fleet.vehicle"))
				require.True(t, e.Enabled("fleet.vehicle.wheels"))

				require.False(t, e.Enabled("depot"))
			},
		},
		{
			name: "exact",
			in:   []string{"fleet.vehicle", "fleet.wheel"},
			test: func(t *testing.T, e *gassert.Environment) {
				require.True(t, e.Enabled("fleet.vehicle"))
				require.False(t, e.Enabled("fleet.car"))
				require.True(t, e.Enabled("fleet.wheel"))
				require.False(t, e.Enabled("fleet.vehicle.wheels"))
			},
		},
		{
			name: "exclusionsOfDifferentLengths",
			in:   []string{"!fleet.vehicle.wheels", "fleet.*", "!fleet.car"},
			test: func(t *testing.T, e *gassert.Environment) {
				require.True(t, e.Enabled("fleet.vehicle"))
				require.False(t, e.Enabled("fleet.car"))
				require.False(t, e.Enabled("fleet.vehicle.wheels"))
				require.True(t, e.Enabled("fleet.vehicle.weight"))
			},
		},
		{
			name: "longerExactBeforeShorter",
			in:   []string{"a.b.c", "a.b"},
			test: func(t *testing.T, e *gassert.Environment) {
				require.True(t, e.Enabled("a.b"))
				require.True(t, e.Enabled("a.b.c"))
				require.False(t, e.Enabled("a"))
			},
		},
		{
			name: "emptyInput",
			in:   nil,
			test: func(t *testing.T, e *gassert.Environment) {
				require.False(t, e.Enabled("fleet.vehicle"))
			},
		},
	} {
		t.Run("EnvironmentFromString:"+tc.name, func(t *testing.T) {
			t.Parallel()

			e, err := gassert.EnvironmentFromString(strings.Join(tc.in, ","))
			require.NoError(t, err)
			tc.test(t, e)
		})

		t.Run("ParseEnvironment:"+tc.name, func(t *testing.T) {
			t.Parallel()

			e, err := gassert.ParseEnvironment(strings.NewReader(strings.Join(tc.in, "\n")))
			require.NoError(t, err)
			tc.test(t, e)
		})

		t.Run("cached:"+tc.name, func(t *testing.T) {
			t.Parallel()

			e, err := gassert.EnvironmentFromString(strings.Join(tc.in, ","))
			require.NoError(t, err)
			e.UseCaching()

			// Run twice so the second pass is served from the cache.
			tc.test(t, e)
			tc.test(t, e)
		})
	}
}

func TestEnvironment_parseErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		"fleet..vehicle",
		".fleet",
		"fleet.*.vehicle",
		"f*t.vehicle",
		"fleet.*.*",
		"fleet!vehicle",
		"!fleet.*",
		"fleet.",
		"!*",
		"!!fleet",
		"!",
	} {
		e, err := gassert.EnvironmentFromString(input)
		require.Error(t, err, input)
		require.Nil(t, e)

		e, err = gassert.ParseEnvironment(strings.NewReader(input))
		require.Error(t, err, input)
		require.Nil(t, e)
	}
}

func TestParseEnvironment_allowances(t *testing.T) {
	t.Parallel()

	e, err := gassert.ParseEnvironment(strings.NewReader(`# Comment. (Then a blank line.)

fleet.vehicle
depot.*
!depot.audit
`))
	require.NoError(t, err)

	require.True(t, e.Enabled("fleet.vehicle"))
	require.True(t, e.Enabled("depot.fleet"))
	require.False(t, e.Enabled("depot.audit"))
}

func TestParseEnvironment_errorLimit(t *testing.T) {
	t.Parallel()

	_, err := gassert.ParseEnvironment(strings.NewReader(strings.Repeat("a..b\n", 10)))
	require.ErrorContains(t, err, "line 1:")
	require.ErrorContains(t, err, "stopped parsing after 5 errors")
	require.NotContains(t, err.Error(), "line 6:")
}

func TestEnvironment_nil(t *testing.T) {
	t.Parallel()

	var e *gassert.Environment
	require.False(t, e.Enabled("anything"))
	require.Panics(t, func() {
		e.HandleFailure("anything", errors.New("bad"))
	})
}

func TestEnvironment_UseCaching_twicePanics(t *testing.T) {
	t.Parallel()

	e, err := gassert.EnvironmentFromString("*")
	require.NoError(t, err)
	e.UseCaching()
	require.Panics(t, e.UseCaching)
}

func TestEnvironment_concurrentEnabled(t *testing.T) {
	t.Parallel()

	e, err := gassert.EnvironmentFromString("fleet.*,!fleet.car")
	require.NoError(t, err)
	e.UseCaching()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if !e.Enabled("fleet.truck") || e.Enabled("fleet.car") {
					panic("unexpected Enabled result")
				}
			}
		}()
	}
	wg.Wait()
}

func TestEnvironment_HandleFailure_panic(t *testing.T) {
	t.Parallel()

	e, err := gassert.EnvironmentFromString("*")
	require.NoError(t, err)

	require.Panics(t, func() {
		e.HandleFailure("fleet", errors.New("something bad"))
	})

	require.Panics(t, func() {
		e.HandleFailure("fleet", nil)
	})
}

func TestEnvironment_HandleFailure_log(t *testing.T) {
	t.Parallel()

	e, err := gassert.EnvironmentFromString("*")
	require.NoError(t, err)

	var buf bytes.Buffer
	e.OnlyLogFailures(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NotPanics(t, func() {
		e.HandleFailure("fleet", errors.New("something bad"))
	})
	require.Contains(t, buf.String(), "something bad")
	require.Contains(t, buf.String(), "path=fleet")

	// Nil panics even in logging mode.
	require.Panics(t, func() {
		e.HandleFailure("fleet", nil)
	})
}
