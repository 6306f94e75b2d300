package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements Recorder backed by Prometheus collectors.
//
// Collectors are created and registered on first use so that constructing a
// Prometheus recorder never panics on duplicate registration in tests.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	runs              *prometheus.CounterVec
	runDuration       prometheus.Histogram
	studentsAssigned  prometheus.Gauge
	assignments       prometheus.Gauge
	overloadedMentors prometheus.Gauge
	exports           *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates a Prometheus-backed recorder.
//
// Parameters:
//   - reg: Registerer to use (prometheus.DefaultRegisterer if nil)
//   - namespace: Metric namespace ("mentorassign" if empty)
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "mentorassign"
	}

	return &Prometheus{reg: reg, namespace: namespace}
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		p.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "runs_total",
			Help:      "Total assignment runs by result (success, failure).",
		}, []string{"result"})

		p.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of assignment runs including load and persist.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		})

		p.studentsAssigned = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      "students_assigned",
			Help:      "Students assigned by the latest run.",
		})
		p.assignments = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      "assignments",
			Help:      "Batches produced by the latest run.",
		})
		p.overloadedMentors = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      "overloaded_mentors",
			Help:      "Mentors holding more students than their capacity after the latest run.",
		})

		p.exports = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "exports_total",
			Help:      "Generated reports by format.",
		}, []string{"format"})

		p.reg.MustRegister(p.runs)
		p.reg.MustRegister(p.runDuration)
		p.reg.MustRegister(p.studentsAssigned)
		p.reg.MustRegister(p.assignments)
		p.reg.MustRegister(p.overloadedMentors)
		p.reg.MustRegister(p.exports)
	})
}

// RecordRun implements Recorder.
func (p *Prometheus) RecordRun(result string, duration time.Duration) {
	p.ensureRegistered()
	p.runs.WithLabelValues(result).Inc()
	p.runDuration.Observe(duration.Seconds())
}

// SetAssignmentState implements Recorder.
func (p *Prometheus) SetAssignmentState(assignedStudents, assignments, overloadedMentors int) {
	p.ensureRegistered()
	p.studentsAssigned.Set(float64(assignedStudents))
	p.assignments.Set(float64(assignments))
	p.overloadedMentors.Set(float64(overloadedMentors))
}

// RecordExport implements Recorder.
func (p *Prometheus) RecordExport(format string) {
	p.ensureRegistered()
	p.exports.WithLabelValues(format).Inc()
}
