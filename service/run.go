package service

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"mentor-assign-server-go/engine"
	"mentor-assign-server-go/models"
)

var (
	// ErrInconsistentData is returned when the stored data repeats a roll number or faculty ID.
	ErrInconsistentData = errors.New("inconsistent student or mentor data")
	// ErrMentorNotFound is returned when a faculty ID does not exist.
	ErrMentorNotFound = errors.New("mentor not found")
)

// Run assigns every stored student to the available mentors and persists the result.
//
// Previous assignments are discarded: students not covered by the new run end up
// unassigned and every mentor's load is rebuilt from scratch.
func (s *AssignmentService) Run(ctx context.Context) (*models.AssignmentSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timedRun(ctx, nil)
}

// Reassign marks a mentor unavailable and runs the assignment again without them.
// Nothing is written when the run fails, the mentor stays available on disk.
func (s *AssignmentService) Reassign(ctx context.Context, removeMentorID string) (*models.AssignmentSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mentors, err := s.store.LoadMentors()
	if err != nil {
		return nil, errors.Wrap(err, "load mentors")
	}

	found := false
	for i := range mentors {
		if mentors[i].FacultyID == removeMentorID {
			mentors[i].Availability = false
			found = true
			break
		}
	}
	if !found {
		return nil, errors.Wrapf(ErrMentorNotFound, "faculty_id %s", removeMentorID)
	}

	summary, err := s.timedRun(ctx, mentors)
	if err != nil {
		return nil, err
	}
	s.logger.Info("removed mentor from assignments", "faculty_id", removeMentorID)
	return summary, nil
}

// timedRun runs the assignment over mentors, or over the stored mentors when mentors is nil.
func (s *AssignmentService) timedRun(ctx context.Context, mentors []models.Mentor) (*models.AssignmentSummary, error) {
	start := time.Now()
	summary, err := s.run(ctx, mentors)
	if err != nil {
		s.metrics.RecordRun("failure", time.Since(start))
		s.logger.Error("assignment run failed", "error", err)
		return nil, err
	}
	s.metrics.RecordRun("success", time.Since(start))
	return summary, nil
}

func (s *AssignmentService) run(ctx context.Context, mentors []models.Mentor) (*models.AssignmentSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	students, err := s.store.LoadStudents()
	if err != nil {
		return nil, errors.Wrap(err, "load students")
	}
	if mentors == nil {
		mentors, err = s.store.LoadMentors()
		if err != nil {
			return nil, errors.Wrap(err, "load mentors")
		}
	}
	if err := checkConsistency(students, mentors); err != nil {
		return nil, err
	}

	available := availableMentors(mentors)
	ordered := append([]models.Student(nil), students...)
	if s.sortByRoll {
		sortStudents(ordered)
	}
	s.warnCapacity(len(ordered), available)

	createdAt := s.now().UTC().Truncate(time.Second)
	assignments, err := engine.Assign(ordered, available, s.cfg, createdAt)
	if err != nil {
		return nil, err
	}

	students, mentors = applyAssignments(students, mentors, assignments)
	if err := s.persist(students, mentors, assignments); err != nil {
		return nil, err
	}

	summary := buildSummary(s.newID(), ordered, len(available), assignments, createdAt)
	s.afterChange(ctx, summary, mentors)

	s.logger.Info("assignment run completed",
		"run_id", summary.RunID,
		"students", summary.TotalStudents,
		"mentors", summary.TotalMentors,
		"batches", len(assignments),
	)
	return &summary, nil
}

func (s *AssignmentService) persist(students []models.Student, mentors []models.Mentor, assignments []models.Assignment) error {
	if err := s.store.SaveStudents(students); err != nil {
		return errors.Wrap(err, "save students")
	}
	if err := s.store.SaveMentors(mentors); err != nil {
		return errors.Wrap(err, "save mentors")
	}
	if err := s.store.SaveAssignments(assignments); err != nil {
		return errors.Wrap(err, "save assignments")
	}
	return nil
}

// afterChange caches, measures and announces a new set of assignments.
// Failures here are logged only, the data is already persisted.
func (s *AssignmentService) afterChange(ctx context.Context, summary models.AssignmentSummary, mentors []models.Mentor) {
	if err := s.cache.SaveRun(ctx, summary); err != nil {
		s.logger.Warn("caching assignment run failed", "run_id", summary.RunID, "error", err)
	}

	overloaded := 0
	for _, m := range mentors {
		if m.StudentCount() > m.MaxStudents {
			overloaded++
		}
	}
	s.metrics.SetAssignmentState(summary.AssignedStudents, len(summary.Assignments), overloaded)
	s.publisher.Publish(EventAssignmentCompleted, summary)
}

func (s *AssignmentService) warnCapacity(students int, available []models.Mentor) {
	capacity := 0
	for _, m := range available {
		capacity += m.MaxStudents
	}
	if students > capacity && len(available) > 0 {
		s.logger.Warn("some mentors will exceed normal capacity", "students", students, "capacity", capacity)
	}
}

func checkConsistency(students []models.Student, mentors []models.Mentor) error {
	rolls := make(map[int]bool, len(students))
	for _, st := range students {
		if rolls[st.RollNo] {
			return errors.Wrapf(ErrInconsistentData, "duplicate roll number %d", st.RollNo)
		}
		rolls[st.RollNo] = true
	}
	ids := make(map[string]bool, len(mentors))
	for _, m := range mentors {
		if ids[m.FacultyID] {
			return errors.Wrapf(ErrInconsistentData, "duplicate faculty id %s", m.FacultyID)
		}
		ids[m.FacultyID] = true
	}
	return nil
}

func availableMentors(mentors []models.Mentor) []models.Mentor {
	out := make([]models.Mentor, 0, len(mentors))
	for _, m := range mentors {
		if m.Availability {
			out = append(out, m)
		}
	}
	return out
}

func sortStudents(students []models.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].RollNo < students[j].RollNo
	})
}

// applyAssignments returns copies of students and mentors reflecting assignments only.
func applyAssignments(students []models.Student, mentors []models.Mentor, assignments []models.Assignment) ([]models.Student, []models.Mentor) {
	mentorOf := make(map[int]string)
	loads := make(map[string][]int)
	for _, a := range assignments {
		for _, roll := range a.StudentRollNumbers {
			mentorOf[roll] = a.MentorID
		}
		loads[a.MentorID] = append(loads[a.MentorID], a.StudentRollNumbers...)
	}

	outStudents := make([]models.Student, len(students))
	for i, st := range students {
		st.AssignedMentorID = mentorOf[st.RollNo]
		outStudents[i] = st
	}

	outMentors := make([]models.Mentor, len(mentors))
	for i, m := range mentors {
		m.AssignedStudents = append([]int{}, loads[m.FacultyID]...)
		outMentors[i] = m
	}
	return outStudents, outMentors
}

// hydrateMentors fills AssignedStudents from the students' mentor references.
func hydrateMentors(students []models.Student, mentors []models.Mentor) []models.Mentor {
	loads := make(map[string][]int)
	for _, st := range students {
		if st.AssignedMentorID != "" {
			loads[st.AssignedMentorID] = append(loads[st.AssignedMentorID], st.RollNo)
		}
	}

	out := make([]models.Mentor, len(mentors))
	for i, m := range mentors {
		rolls := append([]int{}, loads[m.FacultyID]...)
		sort.Ints(rolls)
		m.AssignedStudents = rolls
		out[i] = m
	}
	return out
}

func buildSummary(runID string, students []models.Student, mentorCount int, assignments []models.Assignment, createdAt time.Time) models.AssignmentSummary {
	assigned := make(map[int]bool)
	for _, a := range assignments {
		for _, roll := range a.StudentRollNumbers {
			assigned[roll] = true
		}
	}

	unassigned := []int{}
	for _, st := range students {
		if !assigned[st.RollNo] {
			unassigned = append(unassigned, st.RollNo)
		}
	}
	sort.Ints(unassigned)

	summary := models.AssignmentSummary{
		RunID:              runID,
		TotalStudents:      len(students),
		TotalMentors:       mentorCount,
		AssignedStudents:   len(assigned),
		UnassignedStudents: unassigned,
		Assignments:        assignments,
		CreatedAt:          createdAt,
	}
	if len(assignments) > 0 {
		summary.AveragePerAssignment = float64(len(assigned)) / float64(len(assignments))
	}
	return summary
}
