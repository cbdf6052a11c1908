package glog

import (
	"log/slog"
	"strconv"

	"github.com/gordian-engine/invariants/ginvariant"
)

// Chain wraps a violation so that it logs as a group
// with one entry per link of its causal chain, outermost first.
// Each link is itself a group with "rule" and "subject" attributes.
//
// A nil violation logs as an empty group.
func Chain(v *ginvariant.Violation) slog.LogValuer {
	return chain{v: v}
}

type chain struct {
	v *ginvariant.Violation
}

func (c chain) LogValue() slog.Value {
	links := c.v.Chain()
	attrs := make([]slog.Attr, len(links))
	for i, l := range links {
		attrs[i] = slog.Group(
			strconv.Itoa(i),
			"rule", ginvariant.Describe(l.Rule),
			"subject", ginvariant.Describe(l.Subject),
		)
	}
	return slog.GroupValue(attrs...)
}
