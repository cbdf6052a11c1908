package gassert

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/gordian-engine/invariants/ginvariant"
	"github.com/gordian-engine/invariants/internal/glog"
)

// Environment decides which assertion paths are enabled.
//
// Methods on Environment are safe for concurrent use,
// except UseCaching and OnlyLogFailures,
// which must be called before any other methods, if called at all.
type Environment struct {
	prefixes []selector
	excludes []selector
	exacts   []selector

	// Nil when caching is disabled.
	mu    sync.RWMutex
	cache map[string]bool

	// Nil unless OnlyLogFailures was called.
	log *slog.Logger
}

type selectorKind uint8

const (
	exactSelector selectorKind = iota
	prefixSelector
	excludeSelector
)

// selector is a single parsed selector.
// For a prefix selector, segs omits the trailing wildcard.
type selector struct {
	kind selectorKind
	segs []string
}

// covers reports whether sel matches the path split into parts.
func (sel selector) covers(parts []string) bool {
	if sel.kind == prefixSelector {
		return len(sel.segs) < len(parts) && slices.Equal(sel.segs, parts[:len(sel.segs)])
	}
	return slices.Equal(sel.segs, parts)
}

func parseSelector(s string) (selector, error) {
	if s == "" {
		return selector{}, errors.New("received empty selector")
	}

	body, excluded := strings.CutPrefix(s, "!")
	if strings.Contains(body, "!") {
		return selector{}, fmt.Errorf("invalid selector %q: ! is only allowed as the first character", s)
	}

	if body == "*" && !excluded {
		return selector{kind: prefixSelector, segs: []string{}}, nil
	}

	segs := strings.Split(body, ".")
	kind := exactSelector
	if excluded {
		kind = excludeSelector
	}
	for i, seg := range segs {
		switch {
		case seg == "":
			return selector{}, fmt.Errorf("invalid selector %q: empty segment at position %d", s, i)
		case seg == "*" && i == len(segs)-1 && !excluded:
			return selector{kind: prefixSelector, segs: segs[:i]}, nil
		case strings.Contains(seg, "*"):
			if excluded {
				return selector{}, fmt.Errorf("invalid selector %q: exclusions may not contain *", s)
			}
			return selector{}, fmt.Errorf("invalid selector %q: * must be the entire final segment", s)
		}
	}
	return selector{kind: kind, segs: segs}, nil
}

func (e *Environment) add(sel selector) {
	switch sel.kind {
	case prefixSelector:
		e.prefixes = append(e.prefixes, sel)
	case excludeSelector:
		e.excludes = append(e.excludes, sel)
	default:
		e.exacts = append(e.exacts, sel)
	}
}

// EnvironmentFromString parses a comma-separated list of selectors.
// Whitespace around each selector is ignored.
func EnvironmentFromString(in string) (*Environment, error) {
	e := new(Environment)
	if strings.TrimSpace(in) == "" {
		return e, nil
	}

	for _, s := range strings.Split(in, ",") {
		sel, err := parseSelector(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		e.add(sel)
	}
	return e, nil
}

// ParseEnvironment reads selectors from r, one per line.
// Blank lines and lines starting with # are skipped.
//
// At most five invalid lines are reported, joined in the returned error.
func ParseEnvironment(r io.Reader) (*Environment, error) {
	const maxErrs = 5

	e := new(Environment)
	var errs []error

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 512), 511)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		sel, err := parseSelector(line)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", lineNo, err))
			if len(errs) == maxErrs {
				errs = append(errs, fmt.Errorf("stopped parsing after %d errors", maxErrs))
				return nil, errors.Join(errs...)
			}
			continue
		}
		e.add(sel)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("failed to read selectors: %w", err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return e, nil
}

// UseCaching makes e remember the result of Enabled for each path.
// Calling it twice panics.
func (e *Environment) UseCaching() {
	if e.cache != nil {
		panic(errors.New("BUG: UseCaching called twice"))
	}
	e.cache = make(map[string]bool)
}

// OnlyLogFailures makes HandleFailure log at Error level to log
// instead of panicking.
func (e *Environment) OnlyLogFailures(log *slog.Logger) {
	if log == nil {
		panic(errors.New("BUG: OnlyLogFailures called with nil logger"))
	}
	e.log = log
}

// HandleFailure handles err, a failed assertion at path.
// It panics unless OnlyLogFailures was called,
// in which case a [*ginvariant.Violation] is logged with its full causal chain
// and any other error is logged as-is.
//
// HandleFailure panics if err is nil.
func (e *Environment) HandleFailure(path string, err error) {
	if err == nil {
		panic(fmt.Errorf("BUG: HandleFailure called with nil error for path %q", path))
	}

	if e == nil || e.log == nil {
		panic(fmt.Errorf("assertion failure at %s: %w", path, err))
	}

	if v, ok := ginvariant.AsViolation(err); ok {
		e.log.Error("Invariant violated", "path", path, "violation", glog.Chain(v))
		return
	}
	e.log.Error("Assertion failure", "path", path, "err", err)
}

// Enabled reports whether path is enabled.
//
// A path covered by a prefix selector is enabled
// unless an exclusion names it exactly.
// A path covered by no prefix selector is enabled
// only if an exact selector names it.
// A nil Environment enables nothing.
func (e *Environment) Enabled(path string) bool {
	if e == nil || (len(e.prefixes) == 0 && len(e.exacts) == 0) {
		return false
	}

	if e.cache == nil {
		return e.enabled(path)
	}

	e.mu.RLock()
	val, ok := e.cache[path]
	e.mu.RUnlock()
	if ok {
		return val
	}

	val = e.enabled(path)

	e.mu.Lock()
	e.cache[path] = val
	e.mu.Unlock()

	return val
}

func (e *Environment) enabled(path string) bool {
	parts := strings.Split(path, ".")
	covered := func(sel selector) bool { return sel.covers(parts) }

	if slices.ContainsFunc(e.prefixes, covered) {
		return !slices.ContainsFunc(e.excludes, covered)
	}
	return slices.ContainsFunc(e.exacts, covered)
}
