package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"mentor-assign-server-go/models"
)

// currentAssignments rebuilds one assignment per loaded mentor, numbered by mentor position.
func currentAssignments(mentors []models.Mentor, createdAt time.Time) []models.Assignment {
	assignments := make([]models.Assignment, 0, len(mentors))
	for i, m := range mentors {
		if len(m.AssignedStudents) == 0 {
			continue
		}
		rolls := append([]int{}, m.AssignedStudents...)
		sort.Ints(rolls)
		assignments = append(assignments, models.Assignment{
			MentorID:           m.FacultyID,
			StudentRollNumbers: rolls,
			BatchNumber:        i + 1,
			CreatedAt:          createdAt,
			Notes:              fmt.Sprintf("Current assignment with %d students", len(rolls)),
		})
	}
	return assignments
}

// Students returns the stored students sorted by roll number.
func (s *AssignmentService) Students() ([]models.Student, error) {
	students, err := s.store.LoadStudents()
	if err != nil {
		return nil, errors.Wrap(err, "load students")
	}
	sortStudents(students)
	return students, nil
}

// Mentors returns the stored mentors with their current loads filled in.
func (s *AssignmentService) Mentors() ([]models.Mentor, error) {
	students, err := s.store.LoadStudents()
	if err != nil {
		return nil, errors.Wrap(err, "load students")
	}
	mentors, err := s.store.LoadMentors()
	if err != nil {
		return nil, errors.Wrap(err, "load mentors")
	}
	return hydrateMentors(students, mentors), nil
}

// Latest returns the most recent assignments: the cached run when there is one,
// otherwise a summary rebuilt from the persisted files. It returns nil when nothing
// has been assigned yet.
func (s *AssignmentService) Latest(ctx context.Context) (*models.AssignmentSummary, error) {
	cached, err := s.cache.LatestRun(ctx)
	if err != nil {
		s.logger.Warn("reading cached run failed, falling back to files", "error", err)
	} else if cached != nil {
		return cached, nil
	}

	assignments, err := s.store.LoadAssignments()
	if err != nil {
		return nil, errors.Wrap(err, "load assignments")
	}
	if len(assignments) == 0 {
		return nil, nil
	}

	students, err := s.Students()
	if err != nil {
		return nil, err
	}
	mentors, err := s.store.LoadMentors()
	if err != nil {
		return nil, errors.Wrap(err, "load mentors")
	}

	summary := buildSummary("", students, len(availableMentors(mentors)), assignments, assignments[0].CreatedAt)
	return &summary, nil
}

// Statistics derives efficiency, utilisation and per-batch figures from a summary.
func Statistics(summary models.AssignmentSummary) models.AssignmentStatistics {
	stats := models.AssignmentStatistics{
		TotalBatches: len(summary.Assignments),
		BatchDetails: make([]models.BatchDetail, 0, len(summary.Assignments)),
	}
	if summary.TotalStudents > 0 {
		assigned := summary.TotalStudents - len(summary.UnassignedStudents)
		stats.AssignmentEfficiency = round2(float64(assigned) / float64(summary.TotalStudents) * 100)
	}
	if summary.TotalMentors > 0 {
		stats.MentorUtilization = round2(float64(len(summary.Assignments)) / float64(summary.TotalMentors) * 100)
	}
	stats.AverageBatchSize = round2(summary.AveragePerAssignment)

	for _, a := range summary.Assignments {
		stats.BatchDetails = append(stats.BatchDetails, models.BatchDetail{
			BatchNumber:  a.BatchNumber,
			MentorID:     a.MentorID,
			StudentCount: a.StudentCount(),
			RollRange:    models.RollRange(a.StudentRollNumbers),
		})
	}
	return stats
}

// Overview gathers the figures shown on the dashboard.
func (s *AssignmentService) Overview() (*models.Overview, error) {
	data, err := s.store.DataSummary()
	if err != nil {
		return nil, errors.Wrap(err, "data summary")
	}
	students, err := s.store.LoadStudents()
	if err != nil {
		return nil, errors.Wrap(err, "load students")
	}
	mentors, err := s.store.LoadMentors()
	if err != nil {
		return nil, errors.Wrap(err, "load mentors")
	}
	mentors = hydrateMentors(students, mentors)

	ov := &models.Overview{
		Data:             data,
		Mentors:          make([]models.MentorLoad, 0, len(mentors)),
		BranchCounts:     make(map[string]int),
		DepartmentCounts: make(map[string]int),
	}
	for _, st := range students {
		ov.BranchCounts[st.Branch]++
		if st.AssignedMentorID == "" {
			ov.UnassignedStudents++
		}
	}

	var utilSum float64
	var assigned, capacity int
	for _, m := range mentors {
		ov.DepartmentCounts[m.Department]++
		load := models.MentorLoad{
			FacultyID:   m.FacultyID,
			Name:        m.Name,
			Department:  m.Department,
			Available:   m.Availability,
			Assigned:    m.StudentCount(),
			Capacity:    m.MaxStudents,
			Utilization: round2(m.Utilization()),
			Overloaded:  m.StudentCount() > m.MaxStudents,
		}
		if load.Assigned > 0 {
			load.StudentRange = models.RollRange(m.AssignedStudents)
		}
		if load.Overloaded {
			ov.OverloadedMentors++
		}
		ov.Mentors = append(ov.Mentors, load)

		utilSum += m.Utilization()
		assigned += m.StudentCount()
		capacity += m.MaxStudents
	}
	if len(mentors) > 0 {
		ov.AverageUtilization = round2(utilSum / float64(len(mentors)))
	}
	if capacity > 0 {
		ov.SystemUtilization = round2(float64(assigned) / float64(capacity) * 100)
	}
	return ov, nil
}

// DataSummary passes through the store's view of the data.
func (s *AssignmentService) DataSummary() (models.DataSummary, error) {
	return s.store.DataSummary()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
