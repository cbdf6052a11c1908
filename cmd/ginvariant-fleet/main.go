// Command ginvariant-fleet inspects fleets of vehicles
// against the rules registered in the fixture pool.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/gordian-engine/invariants/cmd/ginvariant-fleet/internal/gfleet"
	"github.com/gordian-engine/invariants/ginvariant"
	"github.com/gordian-engine/invariants/ginvariant/ginvarianttest"
	"github.com/gordian-engine/invariants/gmetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	if err := mainE(); err != nil {
		os.Exit(1)
	}
}

func mainE() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var lvl slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &lvl}))

	root := NewRootCmd(logger, &lvl)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Info("Failure", "err", err)
		os.Stderr.Sync()
		return err
	}

	return nil
}

// envPrefix is the prefix of environment variables overriding flags,
// e.g. GINVARIANT_MAX_WEIGHT for --max-weight.
const envPrefix = "GINVARIANT"

func NewRootCmd(log *slog.Logger, lvl *slog.LevelVar) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use: "ginvariant-fleet SUBCOMMAND",

		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},

		// mainE logs the returned error.
		SilenceUsage:  true,
		SilenceErrors: true,

		Long: `ginvariant-fleet checks fleet documents against vehicle rules.

Rules are organized into groups, each enabled by an assertion path:
  fleet.vehicle  rules for every vehicle
  fleet.car      rules only for cars
  fleet.weight   the maximum weight rule, when --max-weight is set

Paths are selected with --assert (e.g. 'fleet.*,!fleet.car')
or with --assert-file, one selector per line.
Every flag may also be set through a GINVARIANT_ environment variable.
`,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			var l slog.Level
			if err := l.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			lvl.Set(l)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Minimum log level (debug|info|warn|error)")
	addRuleFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		NewRulesCmd(log, v),
		NewCheckCmd(log, v),
		NewServeCmd(log, v),
	)

	return rootCmd
}

func addRuleFlags(fs *pflag.FlagSet) {
	fs.String("assert", "fleet.*", "Comma-separated assertion path selectors")
	fs.String("assert-file", "", "File of assertion path selectors, one per line (overrides --assert)")
	fs.Int("max-weight", 0, "Maximum vehicle weight (0 disables the weight rule)")
}

func configFromViper(v *viper.Viper) gfleet.Config {
	return gfleet.Config{
		Assert:     v.GetString("assert"),
		AssertFile: v.GetString("assert-file"),
		MaxWeight:  v.GetInt("max-weight"),
	}
}

func newInspector(log *slog.Logger, v *viper.Viper, m *gmetrics.Metrics) (*gfleet.Inspector, error) {
	cfg := configFromViper(v)
	env, err := cfg.Environment()
	if err != nil {
		return nil, err
	}
	if cfg.MaxWeight < 0 {
		return nil, fmt.Errorf("max weight must not be negative (got %d)", cfg.MaxWeight)
	}

	return gfleet.NewInspector(log, env, m, gfleet.RuleGroups(ginvarianttest.Pool(), cfg.MaxWeight)), nil
}

func NewRulesCmd(log *slog.Logger, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use: "rules",

		Short: "List the registered rules and the configured rule groups",

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := newInspector(log, v, gmetrics.NewMetrics("ginvariant"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "IMPLEMENTATION\tSUBJECT\tDISCOVERABLE")
			for impl := range ginvarianttest.Pool().All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", impl, impl.Subject, discoverability(impl))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out)
			for _, g := range in.Groups() {
				state := "disabled"
				if g.Enabled {
					state = "enabled"
				}
				fmt.Fprintf(out, "%s (%s)\n", g.Path, state)
				for _, r := range g.Rules {
					fmt.Fprintf(out, "  %s\n", r)
				}
			}
			return nil
		},
	}
}

func discoverability(impl *ginvariant.Implementation) string {
	switch {
	case impl.Abstract:
		return "no (abstract)"
	case !impl.Unparametrized():
		return "no (parametrized)"
	default:
		return "yes"
	}
}

func NewCheckCmd(log *slog.Logger, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use: "check FLEET_FILE...",

		Short: "Check the vehicles in the given fleet files",

		Long: `Check the vehicles in the given fleet files, written in YAML or JSON:

  vehicles:
    - kind: car        # car, sedan, or truck
      plate: ABC-123
      weight: 1200
      wheels: [100, 100, 100, 100]  # mileage per wheel

The command fails if any vehicle fails inspection.
`,

		Args: cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := newInspector(log, v, gmetrics.NewMetrics("ginvariant"))
			if err != nil {
				return err
			}

			var entries []gfleet.Entry
			for _, path := range args {
				es, err := gfleet.LoadFile(path)
				if err != nil {
					return err
				}
				entries = append(entries, es...)
			}

			report := in.Inspect(entries)

			out := cmd.OutOrStdout()
			if v.GetBool("json") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return fmt.Errorf("failed to encode report: %w", err)
				}
			} else {
				printReport(out, report)
			}

			if report.Failed > 0 {
				return fmt.Errorf("%d of %d vehicles: %w", report.Failed, len(report.Vehicles), gfleet.ErrFleetFailed)
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print the report as JSON")

	return cmd
}

func printReport(w io.Writer, r gfleet.Report) {
	for _, vr := range r.Vehicles {
		if len(vr.Failures) == 0 {
			fmt.Fprintf(w, "ok   %s %s\n", vr.Kind, vr.Plate)
			continue
		}

		fmt.Fprintf(w, "FAIL %s %s\n", vr.Kind, vr.Plate)
		for _, f := range vr.Failures {
			fmt.Fprintf(w, "  %s: %s\n", f.Path, f.Message)
			for i, l := range f.Chain[min(1, len(f.Chain)):] {
				fmt.Fprintf(w, "  %s caused by %s on %s\n", strings.Repeat("  ", i+1), l.Rule, l.Subject)
			}
		}
	}
}

func NewServeCmd(log *slog.Logger, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use: "serve",

		Short: "Serve fleet checks over HTTP",

		Long: `Serve fleet checks over HTTP:

  POST /fleet/check  check the fleet document in the request body
  GET  /rules        list the configured rule groups
  GET  /metrics      Prometheus metrics
`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			m := gmetrics.NewMetrics("ginvariant")
			if err := reg.Register(m); err != nil {
				return fmt.Errorf("failed to register metrics: %w", err)
			}

			in, err := newInspector(log, v, m)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", v.GetString("listen"))
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			log.Info("Serving fleet checks", "addr", ln.Addr().String())

			h := gfleet.NewHTTPServer(ctx, log, gfleet.HTTPServerConfig{
				Listener:  ln,
				Inspector: in,
				Gatherer:  reg,
			})
			h.Wait()

			if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().String("listen", "127.0.0.1:9090", "TCP address to listen on")

	return cmd
}
