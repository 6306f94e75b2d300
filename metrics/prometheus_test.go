package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_RecordsRunsAndExports(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "")

	p.RecordRun("success", 15*time.Millisecond)
	p.RecordRun("success", 5*time.Millisecond)
	p.RecordRun("failure", time.Millisecond)
	p.SetAssignmentState(64, 2, 1)
	p.RecordExport("pdf")

	assert.InDelta(t, 2, testutil.ToFloat64(p.runs.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.runs.WithLabelValues("failure")), 0)
	assert.InDelta(t, 64, testutil.ToFloat64(p.studentsAssigned), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(p.assignments), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.overloadedMentors), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.exports.WithLabelValues("pdf")), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "mentorassign_runs_total")
	assert.Contains(t, names, "mentorassign_run_duration_seconds")
}

func TestPrometheus_LazyRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewPrometheus(reg, "test")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}
