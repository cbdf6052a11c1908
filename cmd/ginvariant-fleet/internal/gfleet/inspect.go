package gfleet

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gordian-engine/invariants/gassert"
	"github.com/gordian-engine/invariants/ginvariant"
	"github.com/gordian-engine/invariants/ginvariant/ginvarianttest"
	"github.com/gordian-engine/invariants/gmetrics"
	"github.com/gordian-engine/invariants/internal/glog"
)

// Assertion paths of the rule groups.
const (
	PathVehicle = "fleet.vehicle"
	PathCar     = "fleet.car"
	PathWeight  = "fleet.weight"
)

// Config is the rule configuration shared by the fleet commands.
type Config struct {
	// Comma-separated gassert selectors.
	// Ignored if AssertFile is set.
	Assert string

	// Path to a file of gassert selectors, one per line.
	AssertFile string

	// Maximum vehicle weight.
	// Zero disables the weight group.
	MaxWeight int
}

// Environment returns the gassert environment described by c,
// with caching enabled.
func (c Config) Environment() (*gassert.Environment, error) {
	var (
		env *gassert.Environment
		err error
	)
	if c.AssertFile != "" {
		f, oErr := os.Open(c.AssertFile)
		if oErr != nil {
			return nil, fmt.Errorf("failed to open assert file: %w", oErr)
		}
		defer f.Close()
		env, err = gassert.ParseEnvironment(f)
	} else {
		env, err = gassert.EnvironmentFromString(c.Assert)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse assertion environment: %w", err)
	}

	env.UseCaching()
	return env, nil
}

// RuleGroup is a set of vehicle rules enforced at a single assertion path.
type RuleGroup struct {
	Path string
	Set  *ginvariant.Set[ginvarianttest.Vehicle]
}

// RuleGroups assembles the rule groups from the pool p:
//   - PathVehicle holds every rule discovered for all vehicles;
//   - PathCar holds the rules discovered only for cars,
//     adapted so that they do not apply to other vehicles;
//   - PathWeight holds the parametrized maximum weight rule,
//     present only when maxWeight is positive.
func RuleGroups(p *ginvariant.Pool, maxWeight int) []RuleGroup {
	groups := []RuleGroup{
		{Path: PathVehicle, Set: ginvariant.DiscoverSet[ginvarianttest.Vehicle](p)},
	}

	carKind := ginvariant.KindOf[*ginvarianttest.Car]()
	cars := ginvariant.DiscoverSet[*ginvarianttest.Car](p, func(impl *ginvariant.Implementation) bool {
		return impl.Subject == carKind
	})
	carGroup := ginvariant.NewSet[ginvarianttest.Vehicle]()
	for r := range cars.Rules() {
		carGroup.Add(ginvariant.Adapt[ginvarianttest.Vehicle](r))
	}
	groups = append(groups, RuleGroup{Path: PathCar, Set: carGroup})

	if maxWeight > 0 {
		groups = append(groups, RuleGroup{
			Path: PathWeight,
			Set: ginvariant.NewSet[ginvarianttest.Vehicle]().Add(
				ginvarianttest.NewVehicleMaximumWeight(maxWeight),
			),
		})
	}

	return groups
}

// Inspector checks fleets against rule groups,
// each gated by its path in an assertion environment.
type Inspector struct {
	log *slog.Logger

	groups []RuleGroup
	guards []*gassert.Guard[ginvarianttest.Vehicle]
}

// NewInspector returns an Inspector for groups.
// Checks are recorded in m.
func NewInspector(
	log *slog.Logger,
	env *gassert.Environment,
	m *gmetrics.Metrics,
	groups []RuleGroup,
) *Inspector {
	in := &Inspector{
		log:    log,
		groups: groups,
		guards: make([]*gassert.Guard[ginvarianttest.Vehicle], len(groups)),
	}
	for i, g := range groups {
		c := gmetrics.NewChecker[ginvarianttest.Vehicle](m, g.Path, g.Set)
		in.guards[i] = gassert.NewGuard[ginvarianttest.Vehicle](env, g.Path, c)
	}
	return in
}

// Report is the outcome of inspecting a fleet.
type Report struct {
	Vehicles []VehicleReport `json:"vehicles"`

	// Number of vehicles with at least one failure.
	Failed int `json:"failed"`
}

// VehicleReport is the outcome of inspecting a single vehicle.
type VehicleReport struct {
	Kind  string `json:"kind"`
	Plate string `json:"plate"`

	Failures []Failure `json:"failures,omitempty"`
}

// Failure is a single failed rule group.
type Failure struct {
	Path    string `json:"path"`
	Message string `json:"message"`

	// Causal chain of the violation, outermost first.
	// Empty when the failure was not a violation.
	Chain []Link `json:"chain,omitempty"`
}

// Link is one violation in a [Failure] chain.
type Link struct {
	Rule    string `json:"rule"`
	Subject string `json:"subject"`
}

// Inspect checks every entry against every enabled group.
// Each group reports at most one failure per vehicle.
func (in *Inspector) Inspect(entries []Entry) Report {
	r := Report{Vehicles: make([]VehicleReport, len(entries))}
	for i, e := range entries {
		vr := VehicleReport{Kind: e.Kind, Plate: e.Plate()}
		for _, g := range in.guards {
			err := g.Check(e.Vehicle)
			if err == nil {
				continue
			}

			vr.Failures = append(vr.Failures, in.failure(g.Path(), e, err))
		}
		if len(vr.Failures) > 0 {
			r.Failed++
		}
		r.Vehicles[i] = vr
	}
	return r
}

func (in *Inspector) failure(path string, e Entry, err error) Failure {
	f := Failure{Path: path, Message: err.Error()}

	v, ok := ginvariant.AsViolation(err)
	if !ok {
		in.log.Warn("Failed to evaluate rule group", "path", path, "plate", e.Plate(), "err", err)
		return f
	}

	in.log.Info(
		"Vehicle failed inspection",
		"path", path, "plate", e.Plate(), "violation", glog.Chain(v),
	)
	for _, l := range v.Chain() {
		f.Chain = append(f.Chain, Link{
			Rule:    ginvariant.Describe(l.Rule),
			Subject: ginvariant.Describe(l.Subject),
		})
	}
	return f
}

// GroupListing describes a rule group for display.
type GroupListing struct {
	Path    string   `json:"path"`
	Enabled bool     `json:"enabled"`
	Rules   []string `json:"rules"`
}

// Groups lists in's rule groups, in order.
func (in *Inspector) Groups() []GroupListing {
	out := make([]GroupListing, len(in.groups))
	for i, g := range in.groups {
		l := GroupListing{
			Path:    g.Path,
			Enabled: in.guards[i].Enabled(),
			Rules:   make([]string, 0, g.Set.Len()),
		}
		for r := range g.Set.Rules() {
			l.Rules = append(l.Rules, ginvariant.Describe(r))
		}
		out[i] = l
	}
	return out
}

// ErrFleetFailed is returned by commands when any vehicle failed inspection.
var ErrFleetFailed = errors.New("fleet failed inspection")
