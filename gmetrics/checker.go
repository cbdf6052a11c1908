// Package gmetrics instruments rule checks with Prometheus metrics.
package gmetrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/gordian-engine/invariants/ginvariant"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by every [Checker] created from it.
// Metrics is a [prometheus.Collector], so it is registered as a single unit.
type Metrics struct {
	checks     *prometheus.CounterVec
	violations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics returns a new Metrics whose metric names are prefixed with namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Number of subjects checked, by checker.",
		}, []string{"checker"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Number of violations, by checker and by the rule at the root of the causal chain.",
		}, []string{"checker", "root_rule"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_errors_total",
			Help:      "Number of checks failing with an error other than a violation.",
		}, []string{"checker"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Time spent checking a single subject.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"checker"}),
	}
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.checks.Describe(ch)
	m.violations.Describe(ch)
	m.errors.Describe(ch)
	m.duration.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.checks.Collect(ch)
	m.violations.Collect(ch)
	m.errors.Collect(ch)
	m.duration.Collect(ch)
}

// Checker wraps a rule so that every check is counted and timed.
// Checker is itself a [ginvariant.Rule], so it may be used anywhere its wrapped rule is,
// including as an element of a [ginvariant.Set] or behind a gassert Guard.
type Checker[S any] struct {
	name string
	rule ginvariant.Rule[S]

	checks   prometheus.Counter
	errors   prometheus.Counter
	duration prometheus.Observer

	violations *prometheus.CounterVec
}

// NewChecker returns a Checker named name, checking r and reporting to m.
func NewChecker[S any](m *Metrics, name string, r ginvariant.Rule[S]) *Checker[S] {
	if m == nil {
		panic(errors.New("BUG: NewChecker called with nil metrics"))
	}
	if r == nil {
		panic(fmt.Errorf("BUG: NewChecker %q called with nil rule", name))
	}

	return &Checker[S]{
		name: name,
		rule: r,

		checks:   m.checks.WithLabelValues(name),
		errors:   m.errors.WithLabelValues(name),
		duration: m.duration.WithLabelValues(name),

		violations: m.violations.MustCurryWith(prometheus.Labels{"checker": name}),
	}
}

// Name returns the checker label of c.
func (c *Checker[S]) Name() string { return c.name }

// Rule returns the rule that c checks.
func (c *Checker[S]) Rule() ginvariant.Rule[S] { return c.rule }

func (c *Checker[S]) String() string { return c.name }

// AppliesTo reports whether the wrapped rule applies to subject.
// Inapplicable subjects are not recorded.
func (c *Checker[S]) AppliesTo(subject S) bool {
	return ginvariant.Applies(c.rule, subject)
}

// IsSatisfiedBy reports whether subject satisfies c's rule, as [ginvariant.Satisfied] does.
// The check and its duration are recorded, but no violation is constructed or counted.
func (c *Checker[S]) IsSatisfiedBy(subject S) bool {
	start := time.Now()
	ok := ginvariant.Satisfied(c.rule, subject)
	c.duration.Observe(time.Since(start).Seconds())
	c.checks.Inc()
	return ok
}

// AssertSatisfiedBy checks subject against c's rule, as [ginvariant.Check] does,
// recording the outcome before returning it unchanged.
func (c *Checker[S]) AssertSatisfiedBy(subject S) error {
	start := time.Now()
	err := ginvariant.Check(c.rule, subject)
	c.duration.Observe(time.Since(start).Seconds())
	c.checks.Inc()

	if err == nil {
		return nil
	}

	if v, ok := ginvariant.AsViolation(err); ok {
		c.violations.WithLabelValues(ginvariant.Describe(v.Root().Rule)).Inc()
	} else {
		c.errors.Inc()
	}
	return err
}

// ChecksCounter returns the counter of checks made by the checker named name.
func (m *Metrics) ChecksCounter(name string) prometheus.Counter {
	return m.checks.WithLabelValues(name)
}
