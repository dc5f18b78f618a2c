package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinylittleshell/gshctx/internal/shell"
)

var _ shell.Observer = (*Metrics)(nil)

func TestObserveExecution(t *testing.T) {
	m := New()

	m.ObserveExecution("ok", 20*time.Millisecond)
	m.ObserveExecution("ok", 40*time.Millisecond)
	m.ObserveExecution("denied", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Executions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("denied")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestIncRestarts(t *testing.T) {
	m := New()
	m.IncRestarts()
	m.IncRestarts()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Restarts))
}

func TestWriteText(t *testing.T) {
	m := New()
	m.ObserveExecution("timeout", time.Second)
	m.IncRestarts()

	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, `gshctx_shell_executions_total{outcome="timeout"} 1`)
	assert.Contains(t, out, "gshctx_shell_restarts_total 1")
	assert.Contains(t, out, "gshctx_shell_execution_seconds_count 1")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.IncRestarts()

	assert.Equal(t, 0.0, testutil.ToFloat64(b.Restarts))
	assert.NotSame(t, a.Registry(), b.Registry())
}
