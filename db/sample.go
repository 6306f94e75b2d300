package db

import (
	"fmt"

	"mentor-assign-server-go/models"
)

const (
	SampleStudentCount = 64
	SampleMentorCount  = 3
)

var (
	sampleBranches    = []string{"CSE", "ECE", "MECH", "CIVIL", "EEE"}
	sampleDepartments = []string{"Computer Science", "Electronics", "Mechanical", "Civil", "Electrical"}
)

// SampleStudents returns the demo roster: roll numbers 1-64 spread over five branches and four years.
func SampleStudents() []models.Student {
	students := make([]models.Student, 0, SampleStudentCount)
	for i := 1; i <= SampleStudentCount; i++ {
		students = append(students, models.Student{
			RollNo: i,
			Name:   fmt.Sprintf("Student %02d", i),
			Branch: sampleBranches[(i-1)%len(sampleBranches)],
			Year:   (i-1)/16 + 1,
			Email:  fmt.Sprintf("student%02d@university.edu", i),
			Phone:  fmt.Sprintf("98765%05d", i),
		})
	}
	return students
}

// SampleMentors returns the demo faculty list.
func SampleMentors() []models.Mentor {
	mentors := make([]models.Mentor, 0, SampleMentorCount)
	for i := 1; i <= SampleMentorCount; i++ {
		mentors = append(mentors, models.Mentor{
			FacultyID:        fmt.Sprintf("FAC%03d", i),
			Name:             fmt.Sprintf("Dr. Mentor %d", i),
			Department:       sampleDepartments[(i-1)%len(sampleDepartments)],
			Email:            fmt.Sprintf("mentor%d@university.edu", i),
			Phone:            fmt.Sprintf("87654%05d", i),
			Availability:     true,
			MaxStudents:      models.DefaultMaxStudents,
			AssignedStudents: []int{},
		})
	}
	return mentors
}

// CreateSampleData overwrites the store with the demo roster and faculty.
func (s *CSVStore) CreateSampleData() ([]models.Student, []models.Mentor, error) {
	students := SampleStudents()
	mentors := SampleMentors()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveStudents(students); err != nil {
		return nil, nil, err
	}
	if err := s.saveMentors(mentors); err != nil {
		return nil, nil, err
	}
	if err := s.writeFile(AssignmentsFile, &[]*assignmentRow{}); err != nil {
		return nil, nil, err
	}

	s.logger.Info("created sample data", "students", len(students), "mentors", len(mentors))
	return students, mentors, nil
}
