package gfleet_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gordian-engine/invariants/cmd/ginvariant-fleet/internal/gfleet"
	"github.com/gordian-engine/invariants/ginvariant/ginvarianttest"
	"github.com/gordian-engine/invariants/gmetrics"
	"github.com/gordian-engine/invariants/internal/gtest"
	"github.com/stretchr/testify/require"
)

func newInspector(t *testing.T, selectors string, maxWeight int) *gfleet.Inspector {
	t.Helper()

	env, err := gfleet.Config{Assert: selectors}.Environment()
	require.NoError(t, err)

	return gfleet.NewInspector(
		gtest.NewLogger(t),
		env,
		gmetrics.NewMetrics("test"),
		gfleet.RuleGroups(ginvarianttest.Pool(), maxWeight),
	)
}

func TestRuleGroups(t *testing.T) {
	t.Parallel()

	groups := gfleet.RuleGroups(ginvarianttest.Pool(), 0)
	require.Len(t, groups, 2)

	require.Equal(t, gfleet.PathVehicle, groups[0].Path)
	require.Equal(t, 2, groups[0].Set.Len())

	require.Equal(t, gfleet.PathCar, groups[1].Path)
	require.Equal(t, 1, groups[1].Set.Len())

	groups = gfleet.RuleGroups(ginvarianttest.Pool(), 5000)
	require.Len(t, groups, 3)
	require.Equal(t, gfleet.PathWeight, groups[2].Path)
}

func TestInspector_Inspect(t *testing.T) {
	t.Parallel()

	entries, err := gfleet.LoadFile("testdata/fleet.yaml")
	require.NoError(t, err)

	in := newInspector(t, "fleet.*", 5000)
	r := in.Inspect(entries)

	require.Len(t, r.Vehicles, 4)
	require.Equal(t, 2, r.Failed)

	require.Empty(t, r.Vehicles[0].Failures)

	trike := r.Vehicles[1]
	require.Equal(t, "TRIKE", trike.Plate)
	require.Equal(t, []gfleet.Failure{{
		Path:    gfleet.PathCar,
		Message: "invariant ginvarianttest.CarHasFourWheels violated by subject: Car(TRIKE)",
		Chain: []gfleet.Link{
			{Rule: "ginvarianttest.CarHasFourWheels", Subject: "Car(TRIKE)"},
		},
	}}, trike.Failures)

	// Car rules do not apply to a sedan.
	require.Empty(t, r.Vehicles[2].Failures)

	truck := r.Vehicles[3]
	require.Len(t, truck.Failures, 2)

	require.Equal(t, gfleet.PathVehicle, truck.Failures[0].Path)
	require.Equal(t, []gfleet.Link{
		{Rule: "*ginvarianttest.VehicleWheels", Subject: "*ginvarianttest.Truck"},
		{Rule: "ginvarianttest.WheelHasNonNegativeMileage", Subject: "ginvarianttest.Wheel"},
	}, truck.Failures[0].Chain)

	require.Equal(t, gfleet.PathWeight, truck.Failures[1].Path)
	require.Equal(t, []gfleet.Link{
		{Rule: "VehicleMaximumWeight(5000)", Subject: "*ginvarianttest.Truck"},
	}, truck.Failures[1].Chain)
}

func TestInspector_disabledPaths(t *testing.T) {
	t.Parallel()

	entries, err := gfleet.LoadFile("testdata/fleet.yaml")
	require.NoError(t, err)

	in := newInspector(t, "fleet.*,!fleet.car", 0)
	r := in.Inspect(entries)

	// Only the truck fails, as car rules are excluded.
	require.Equal(t, 1, r.Failed)
	require.Empty(t, r.Vehicles[1].Failures)
	require.Len(t, r.Vehicles[3].Failures, 1)

	in = newInspector(t, "", 0)
	require.Zero(t, in.Inspect(entries).Failed)
}

func TestInspector_Groups(t *testing.T) {
	t.Parallel()

	in := newInspector(t, "fleet.vehicle", 100)
	require.Equal(t, []gfleet.GroupListing{
		{
			Path:    gfleet.PathVehicle,
			Enabled: true,
			Rules: []string{
				"ginvarianttest.VehicleHasNonNegativeWeight",
				"*ginvarianttest.VehicleWheels",
			},
		},
		{
			Path:    gfleet.PathCar,
			Enabled: false,
			Rules:   []string{"ginvarianttest.CarHasFourWheels"},
		},
		{
			Path:    gfleet.PathWeight,
			Enabled: false,
			Rules:   []string{"VehicleMaximumWeight(100)"},
		},
	}, in.Groups())
}

func TestConfig_Environment_file(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "assert.txt")
	require.NoError(t, os.WriteFile(path, []byte("# Only wheels.\nfleet.vehicle\n"), 0o600))

	env, err := gfleet.Config{Assert: "ignored.*", AssertFile: path}.Environment()
	require.NoError(t, err)
	require.True(t, env.Enabled(gfleet.PathVehicle))
	require.False(t, env.Enabled("ignored.x"))

	_, err = gfleet.Config{AssertFile: filepath.Join(t.TempDir(), "missing")}.Environment()
	require.Error(t, err)

	_, err = gfleet.Config{Assert: "fleet..car"}.Environment()
	require.Error(t, err)
}

func TestConfig_Environment_caching(t *testing.T) {
	t.Parallel()

	env, err := gfleet.Config{Assert: "*"}.Environment()
	require.NoError(t, err)

	// Caching was already enabled.
	require.Panics(t, env.UseCaching)
}
