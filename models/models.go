package models

import (
	"fmt"
	"time"
)

// StudentStatus describes whether a student currently has a mentor.
type StudentStatus string

const (
	StatusUnassigned StudentStatus = "unassigned"
	StatusAssigned   StudentStatus = "assigned"
)

// DefaultMaxStudents is the soft capacity given to mentors that do not specify one.
const DefaultMaxStudents = 30

// Student represents a student
type Student struct {
	RollNo           int    `json:"roll_no" validate:"required,min=1,max=9999"` // Unique roll number, also the sort key
	Name             string `json:"name" validate:"required,notblank"`          // Student name
	Branch           string `json:"branch" validate:"required,notblank"`        // e.g. CSE, ECE
	Year             int    `json:"year" validate:"required,min=1,max=4"`       // Year of study
	Email            string `json:"email,omitempty" validate:"omitempty,email"` // Contact email (optional)
	Phone            string `json:"phone,omitempty" validate:"omitempty,phone"` // Contact phone (optional)
	AssignedMentorID string `json:"assigned_mentor_id,omitempty" validate:"-"`  // Faculty ID of the mentor, empty when unassigned
}

// Status reports the student's assignment status.
func (s Student) Status() StudentStatus {
	if s.AssignedMentorID == "" {
		return StatusUnassigned
	}
	return StatusAssigned
}

// Mentor represents a faculty member who mentors a batch of students
type Mentor struct {
	FacultyID        string `json:"faculty_id" validate:"required,notblank"` // Unique faculty ID
	Name             string `json:"name" validate:"required,notblank"`       // Mentor name
	Department       string `json:"department" validate:"required,notblank"` // Department name
	Email            string `json:"email,omitempty" validate:"omitempty,email"`
	Phone            string `json:"phone,omitempty" validate:"omitempty,phone"`
	Availability     bool   `json:"availability"`                   // Unavailable mentors are skipped by assignment runs
	MaxStudents      int    `json:"max_students" validate:"min=1"`  // Soft cap, may be exceeded under overload
	AssignedStudents []int  `json:"assigned_students" validate:"-"` // Roll numbers currently assigned
}

// StudentCount returns the number of students currently assigned to the mentor.
func (m Mentor) StudentCount() int {
	return len(m.AssignedStudents)
}

// AvailableSlots returns the remaining capacity, never negative.
func (m Mentor) AvailableSlots() int {
	if slots := m.MaxStudents - len(m.AssignedStudents); slots > 0 {
		return slots
	}
	return 0
}

// CanAccept reports whether the mentor is available and has room for n more students.
func (m Mentor) CanAccept(n int) bool {
	return m.Availability && len(m.AssignedStudents)+n <= m.MaxStudents
}

// Utilization returns the load as a percentage of MaxStudents.
func (m Mentor) Utilization() float64 {
	if m.MaxStudents <= 0 {
		return 0
	}
	return float64(len(m.AssignedStudents)) / float64(m.MaxStudents) * 100
}

// Assignment is one batch of students handed to a mentor during a run
type Assignment struct {
	MentorID           string    `json:"mentor_id"`            // Faculty ID of the mentor
	StudentRollNumbers []int     `json:"student_roll_numbers"` // Ordered roll numbers in the batch
	BatchNumber        int       `json:"batch_number"`         // 1-based position of the batch in the run
	CreatedAt          time.Time `json:"assignment_date"`
	Notes              string    `json:"notes,omitempty"`
}

// StudentCount returns the number of students in the batch.
func (a Assignment) StudentCount() int {
	return len(a.StudentRollNumbers)
}

// RollRange formats the smallest and largest roll number as "min-max", or "N/A" when empty.
func RollRange(rolls []int) string {
	if len(rolls) == 0 {
		return "N/A"
	}
	lo, hi := rolls[0], rolls[0]
	for _, r := range rolls[1:] {
		lo = min(lo, r)
		hi = max(hi, r)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}

// AssignmentSummary is the outcome of an assignment run
type AssignmentSummary struct {
	RunID                string       `json:"run_id"`
	TotalStudents        int          `json:"total_students"`
	TotalMentors         int          `json:"total_mentors"`
	AssignedStudents     int          `json:"assigned_students"`
	UnassignedStudents   []int        `json:"unassigned_students"`
	Assignments          []Assignment `json:"assignments"`
	AveragePerAssignment float64      `json:"average_students_per_assignment"`
	CreatedAt            time.Time    `json:"created_at"`
}

// BatchDetail describes a single batch for reporting.
type BatchDetail struct {
	BatchNumber  int    `json:"batch_number"`
	MentorID     string `json:"mentor_id"`
	StudentCount int    `json:"student_count"`
	RollRange    string `json:"roll_range"` // "min-max"
}

// AssignmentStatistics holds derived figures for a run.
type AssignmentStatistics struct {
	TotalBatches         int           `json:"total_batches"`
	AssignmentEfficiency float64       `json:"assignment_efficiency"` // assigned / total students, percent
	MentorUtilization    float64       `json:"mentor_utilization"`    // mentors used / available mentors, percent
	AverageBatchSize     float64       `json:"average_batch_size"`
	BatchDetails         []BatchDetail `json:"batch_details"`
}

// DataSummary describes what is currently held in the data store.
type DataSummary struct {
	TotalStudents       int     `json:"total_students"`
	AssignedStudents    int     `json:"assigned_students"`
	TotalMentors        int     `json:"total_mentors"`
	AvailableMentors    int     `json:"available_mentors"`
	TotalCapacity       int     `json:"total_capacity"`
	CapacityUtilization float64 `json:"capacity_utilization"` // students / capacity, percent
	StudentsFileExists  bool    `json:"students_file_exists"`
	MentorsFileExists   bool    `json:"mentors_file_exists"`
}

// MentorLoad is one row of the dashboard's mentor table.
type MentorLoad struct {
	FacultyID    string  `json:"faculty_id"`
	Name         string  `json:"name"`
	Department   string  `json:"department"`
	Available    bool    `json:"available"`
	Assigned     int     `json:"assigned"`
	Capacity     int     `json:"capacity"`
	Utilization  float64 `json:"utilization"`
	Overloaded   bool    `json:"overloaded"`
	StudentRange string  `json:"student_range,omitempty"`
}

// Overview aggregates the current state for the dashboard.
type Overview struct {
	Data               DataSummary    `json:"data"`
	Mentors            []MentorLoad   `json:"mentors"`
	BranchCounts       map[string]int `json:"branch_counts"`
	DepartmentCounts   map[string]int `json:"department_counts"`
	AverageUtilization float64        `json:"average_utilization"`
	SystemUtilization  float64        `json:"system_utilization"`
	OverloadedMentors  int            `json:"overloaded_mentors"`
	UnassignedStudents int            `json:"unassigned_students"`
}
