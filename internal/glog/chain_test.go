package glog_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/gordian-engine/invariants/ginvariant"
	"github.com/gordian-engine/invariants/internal/glog"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	t.Parallel()

	v := &ginvariant.Violation{
		Rule:    ginvariant.Func("outer", func(int) bool { return false }),
		Subject: 1,
		Cause: &ginvariant.Violation{
			Rule:    ginvariant.Func("inner", func(int) bool { return false }),
			Subject: 2,
		},
	}

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	log.Info("failed", "violation", glog.Chain(v))

	out := buf.String()
	require.Contains(t, out, "violation.0.rule=outer")
	require.Contains(t, out, "violation.0.subject=1")
	require.Contains(t, out, "violation.1.rule=inner")
	require.Contains(t, out, "violation.1.subject=2")
}

func TestChain_nil(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	require.NotPanics(t, func() {
		log.Info("nothing", "violation", glog.Chain(nil))
	})
	require.NotContains(t, buf.String(), "violation.")
}
