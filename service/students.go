package service

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"mentor-assign-server-go/models"
)

// ErrDuplicateRollNumber is returned when a new student reuses an existing roll number.
var ErrDuplicateRollNumber = errors.New("roll number already exists")

// AddNewStudents places new students with mentors that still have spare capacity
// without disturbing existing assignments.
//
// Mentors with the fewest free slots are filled first. When capacity runs out and
// overload is allowed, the rest go to the first available mentor; otherwise they are
// stored unassigned and listed in the returned summary.
func (s *AssignmentService) AddNewStudents(ctx context.Context, newStudents []models.Student) (*models.AssignmentSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(newStudents) == 0 {
		return nil, errors.New("no students to add")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.store.LoadStudents()
	if err != nil {
		return nil, errors.Wrap(err, "load students")
	}
	mentors, err := s.store.LoadMentors()
	if err != nil {
		return nil, errors.Wrap(err, "load mentors")
	}
	mentors = hydrateMentors(students, mentors)

	existing := make(map[int]bool, len(students)+len(newStudents))
	for _, st := range students {
		existing[st.RollNo] = true
	}
	pending := make([]models.Student, 0, len(newStudents))
	for i, st := range newStudents {
		if s.validator != nil {
			if err := s.validator.Struct(st, 0); err != nil {
				return nil, errors.Wrapf(err, "student %d", i+1)
			}
		}
		if existing[st.RollNo] {
			return nil, errors.Wrapf(ErrDuplicateRollNumber, "roll_no %d", st.RollNo)
		}
		existing[st.RollNo] = true
		st.AssignedMentorID = ""
		pending = append(pending, st)
	}
	if s.sortByRoll {
		sortStudents(pending)
	}

	// mentors with spare capacity, fewest free slots first
	open := make([]int, 0, len(mentors))
	for i, m := range mentors {
		if m.Availability && m.AvailableSlots() > 0 {
			open = append(open, i)
		}
	}
	sort.SliceStable(open, func(a, b int) bool {
		return mentors[open[a]].AvailableSlots() < mentors[open[b]].AvailableSlots()
	})

	next := 0
	for _, idx := range open {
		if next == len(pending) {
			break
		}
		take := min(mentors[idx].AvailableSlots(), len(pending)-next)
		for k := next; k < next+take; k++ {
			pending[k].AssignedMentorID = mentors[idx].FacultyID
			mentors[idx].AssignedStudents = append(mentors[idx].AssignedStudents, pending[k].RollNo)
		}
		s.logger.Info("assigned new students", "faculty_id", mentors[idx].FacultyID, "count", take)
		next += take
	}

	if next < len(pending) && s.cfg.AllowOverload {
		for i := range mentors {
			if !mentors[i].Availability {
				continue
			}
			for k := next; k < len(pending); k++ {
				pending[k].AssignedMentorID = mentors[i].FacultyID
				mentors[i].AssignedStudents = append(mentors[i].AssignedStudents, pending[k].RollNo)
			}
			s.logger.Warn("assigned additional students with mentor overload",
				"faculty_id", mentors[i].FacultyID, "count", len(pending)-next)
			next = len(pending)
			break
		}
	}

	all := append(students, pending...)
	createdAt := s.now().UTC().Truncate(time.Second)
	assignments := currentAssignments(mentors, createdAt)
	if err := s.persist(all, mentors, assignments); err != nil {
		return nil, err
	}

	summary := buildSummary(s.newID(), all, len(availableMentors(mentors)), assignments, createdAt)
	s.afterChange(ctx, summary, mentors)
	s.logger.Info("added new students", "added", len(pending), "unassigned", len(pending)-next)
	return &summary, nil
}
