package service

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"mentor-assign-server-go/db"
	"mentor-assign-server-go/models"
)

// Roster writes share the run lock so they cannot land between a run's load and save.

// AddStudent stores one new, unassigned student.
func (s *AssignmentService) AddStudent(student models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	student.AssignedMentorID = ""
	return s.store.AddStudent(student)
}

// AddMentor stores one new mentor with no students.
func (s *AssignmentService) AddMentor(mentor models.Mentor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mentor.AssignedStudents = nil
	return s.store.AddMentor(mentor)
}

// ImportStudentsCSV merges an uploaded student CSV into the roster.
func (s *AssignmentService) ImportStudentsCSV(r io.Reader) (db.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ImportStudentsCSV(r)
}

// ImportStudentsFromExcel merges the first sheet of an uploaded workbook into the roster.
func (s *AssignmentService) ImportStudentsFromExcel(r io.Reader) (db.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ImportStudentsFromExcel(r)
}

// ImportMentorsCSV merges an uploaded mentor CSV into the faculty list.
func (s *AssignmentService) ImportMentorsCSV(r io.Reader) (db.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ImportMentorsCSV(r)
}

// CreateSampleData replaces all data with the demo roster. The stored assignments are
// emptied, so the cached latest run is dropped too.
func (s *AssignmentService) CreateSampleData(ctx context.Context) ([]models.Student, []models.Mentor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, mentors, err := s.store.CreateSampleData()
	if err != nil {
		return nil, nil, errors.Wrap(err, "create sample data")
	}
	if err := s.cache.ClearLatest(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "clear cached run")
	}
	s.metrics.SetAssignmentState(0, 0, 0)
	return students, mentors, nil
}
