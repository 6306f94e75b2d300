// Package metrics records assignment and export activity.
package metrics

import "time"

// Recorder receives measurements from the assignment service and exporters.
type Recorder interface {
	// RecordRun records the outcome of an assignment run: "success" or "failure".
	RecordRun(result string, duration time.Duration)
	// SetAssignmentState publishes the figures of the latest successful run.
	SetAssignmentState(assignedStudents, assignments, overloadedMentors int)
	// RecordExport counts a generated report.
	RecordExport(format string)
}

// NopRecorder discards all measurements.
type NopRecorder struct{}

var _ Recorder = (*NopRecorder)(nil)

// NewNop returns a Recorder that does nothing.
func NewNop() *NopRecorder {
	return &NopRecorder{}
}

func (n *NopRecorder) RecordRun(_ string, _ time.Duration) {}
func (n *NopRecorder) SetAssignmentState(_, _, _ int)      {}
func (n *NopRecorder) RecordExport(_ string)               {}
