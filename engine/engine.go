package engine

import (
	"fmt"
	"time"

	"mentor-assign-server-go/models"
)

// batch is a half-open range [start, end) over the sorted student slice.
type batch struct {
	start, end int
	remainder int // students merged in from a trailing chunk
}

// BatchSizes returns the batch sizes a run over studentCount students would produce.
//
// It applies the same chunking and remainder rules as Assign without needing any
// student or mentor data, so callers can preview how many mentors a run needs.
//
// Example:
//
//	sizes, _ := engine.BatchSizes(73, engine.NewDefaultConfig())
//	// sizes == []int{30, 30, 13}
func BatchSizes(studentCount int, cfg Config) ([]int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	batches := split(studentCount, cfg)
	sizes := make([]int, len(batches))
	for i, b := range batches {
		sizes[i] = b.end - b.start
	}

	return sizes, nil
}

// Assign splits students into batches and hands each batch to a mentor.
//
// The algorithm:
//  1. Chunk the students, in the order given, into batches of cfg.BatchSize
//  2. Merge a trailing chunk of at most cfg.RemainderThreshold students into the batch before it
//  3. Give batch i to mentors[i]; batches past the end of the mentor list go to the
//     last mentor when cfg.AllowOverload is set, otherwise the run fails
//
// Students must already be sorted by roll number; Assign does not reorder them and
// never modifies either input slice. The same inputs always produce the same output.
//
// Parameters:
//   - students: Students to assign, sorted by roll number
//   - mentors: Mentors in the order they should receive batches
//   - cfg: Batch configuration, validated again here
//   - createdAt: Timestamp stamped on every returned assignment
//
// Returns:
//   - []models.Assignment: One assignment per batch, empty (not nil) when there are no students
//   - error: ErrInvalidConfiguration, ErrNoMentorsAvailable or ErrInsufficientMentors
func Assign(students []models.Student, mentors []models.Mentor, cfg Config, createdAt time.Time) ([]models.Assignment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(mentors) == 0 {
		return nil, fmt.Errorf("%w: %d students waiting for assignment", ErrNoMentorsAvailable, len(students))
	}
	if len(students) == 0 {
		return []models.Assignment{}, nil
	}

	batches := split(len(students), cfg)
	if len(batches) > len(mentors) && !cfg.AllowOverload {
		return nil, fmt.Errorf("%w: %d batches need mentors but only %d supplied",
			ErrInsufficientMentors, len(batches), len(mentors))
	}

	assignments := make([]models.Assignment, 0, len(batches))
	for i, b := range batches {
		mentorIdx := i
		overloaded := false
		if mentorIdx >= len(mentors) {
			mentorIdx = len(mentors) - 1
			overloaded = true
		}

		rolls := make([]int, 0, b.end-b.start)
		for _, s := range students[b.start:b.end] {
			rolls = append(rolls, s.RollNo)
		}

		assignments = append(assignments, models.Assignment{
			MentorID:           mentors[mentorIdx].FacultyID,
			StudentRollNumbers: rolls,
			BatchNumber:        i + 1,
			CreatedAt:          createdAt,
			Notes:              notes(b, len(batches), cfg.BatchSize, overloaded),
		})
	}

	return assignments, nil
}

// split computes batch boundaries for n students.
func split(n int, cfg Config) []batch {
	if n == 0 {
		return nil
	}
	if n <= cfg.BatchSize {
		return []batch{{start: 0, end: n}}
	}

	full := n / cfg.BatchSize
	rem := n % cfg.BatchSize

	batches := make([]batch, 0, full+1)
	for i := 0; i < full; i++ {
		batches = append(batches, batch{start: i * cfg.BatchSize, end: (i + 1) * cfg.BatchSize})
	}

	switch {
	case rem == 0:
	case rem <= cfg.RemainderThreshold:
		last := &batches[len(batches)-1]
		last.end = n
		last.remainder = rem
	default:
		batches = append(batches, batch{start: full * cfg.BatchSize, end: n})
	}

	return batches
}

func notes(b batch, total, batchSize int, overloaded bool) string {
	size := b.end - b.start
	var text string
	switch {
	case total == 1 && size < batchSize:
		text = fmt.Sprintf("Single batch assignment with %d students", size)
	case b.remainder > 0:
		text = fmt.Sprintf("Batch assignment with %d students (includes %d remainder students)", size, b.remainder)
	case size < batchSize:
		text = fmt.Sprintf("Remainder batch assignment with %d students", size)
	default:
		text = fmt.Sprintf("Batch assignment with %d students", size)
	}
	if overloaded {
		text += " (mentor overload)"
	}

	return text
}
