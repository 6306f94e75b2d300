package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-assign-server-go/models"
)

var testTime = time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)

func makeStudents(n int) []models.Student {
	students := make([]models.Student, n)
	for i := range students {
		students[i] = models.Student{
			RollNo: i + 1,
			Name:   fmt.Sprintf("Student %02d", i+1),
			Branch: "CSE",
			Year:   1,
		}
	}
	return students
}

func makeMentors(n int) []models.Mentor {
	mentors := make([]models.Mentor, n)
	for i := range mentors {
		mentors[i] = models.Mentor{
			FacultyID:    fmt.Sprintf("FAC%03d", i+1),
			Name:         fmt.Sprintf("Dr. Mentor %d", i+1),
			Department:   "Computer Science",
			Availability: true,
			MaxStudents:  30,
		}
	}
	return mentors
}

func sizesOf(assignments []models.Assignment) []int {
	sizes := make([]int, len(assignments))
	for i, a := range assignments {
		sizes[i] = a.StudentCount()
	}
	return sizes
}

func TestAssign_Scenarios(t *testing.T) {
	cfg, err := NewConfig(30, 12, false)
	require.NoError(t, err)

	tests := []struct {
		name     string
		students int
		mentors  int
		want     []int
	}{
		{name: "65 students merge remainder of 5", students: 65, mentors: 3, want: []int{30, 35}},
		{name: "72 students merge remainder of 12", students: 72, mentors: 3, want: []int{30, 42}},
		{name: "73 students split remainder of 13", students: 73, mentors: 3, want: []int{30, 30, 13}},
		{name: "100 students merge remainder of 10", students: 100, mentors: 3, want: []int{30, 30, 40}},
		{name: "exact multiple has no remainder", students: 90, mentors: 3, want: []int{30, 30, 30}},
		{name: "fewer students than batch size", students: 7, mentors: 3, want: []int{7}},
		{name: "exactly one batch", students: 30, mentors: 1, want: []int{30}},
		{name: "one over a batch merges", students: 31, mentors: 1, want: []int{31}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assign(makeStudents(tt.students), makeMentors(tt.mentors), cfg, testTime)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sizesOf(got))

			for i, a := range got {
				assert.Equal(t, i+1, a.BatchNumber)
				assert.Equal(t, fmt.Sprintf("FAC%03d", i+1), a.MentorID)
				assert.Equal(t, testTime, a.CreatedAt)
			}
		})
	}
}

func TestAssign_RemainderNotes(t *testing.T) {
	cfg := NewDefaultConfig()

	got, err := Assign(makeStudents(65), makeMentors(3), cfg, testTime)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Batch assignment with 30 students", got[0].Notes)
	assert.Equal(t, "Batch assignment with 35 students (includes 5 remainder students)", got[1].Notes)

	got, err = Assign(makeStudents(73), makeMentors(3), cfg, testTime)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Remainder batch assignment with 13 students", got[2].Notes)
}

func TestAssign_MentorExhaustion(t *testing.T) {
	// 120 students at 30 per batch need four mentors.
	students := makeStudents(120)
	mentors := makeMentors(3)

	t.Run("fails without overload", func(t *testing.T) {
		cfg, err := NewConfig(30, 12, false)
		require.NoError(t, err)

		got, err := Assign(students, mentors, cfg, testTime)
		require.ErrorIs(t, err, ErrInsufficientMentors)
		assert.Nil(t, got)
	})

	t.Run("last mentor takes the overflow batch", func(t *testing.T) {
		cfg, err := NewConfig(30, 12, true)
		require.NoError(t, err)

		got, err := Assign(students, mentors, cfg, testTime)
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, "FAC003", got[2].MentorID)
		assert.Equal(t, "FAC003", got[3].MentorID)
		assert.Equal(t, 4, got[3].BatchNumber)
		assert.Equal(t, 91, got[3].StudentRollNumbers[0])
		assert.Contains(t, got[3].Notes, "mentor overload")
	})

	t.Run("single mentor takes every batch", func(t *testing.T) {
		got, err := Assign(students, makeMentors(1), NewDefaultConfig(), testTime)
		require.NoError(t, err)
		require.Len(t, got, 4)
		for _, a := range got {
			assert.Equal(t, "FAC001", a.MentorID)
		}
	})
}

func TestAssign_Errors(t *testing.T) {
	t.Run("no mentors", func(t *testing.T) {
		_, err := Assign(makeStudents(10), nil, NewDefaultConfig(), testTime)
		require.ErrorIs(t, err, ErrNoMentorsAvailable)
	})

	t.Run("zero value config", func(t *testing.T) {
		_, err := Assign(makeStudents(10), makeMentors(1), Config{}, testTime)
		require.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("negative batch size", func(t *testing.T) {
		_, err := Assign(makeStudents(10), makeMentors(1), Config{BatchSize: -5}, testTime)
		require.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("errors are distinct", func(t *testing.T) {
		assert.False(t, errors.Is(ErrNoMentorsAvailable, ErrInsufficientMentors))
		assert.False(t, errors.Is(ErrInvalidConfiguration, ErrNoMentorsAvailable))
	})
}

func TestAssign_EmptyStudents(t *testing.T) {
	got, err := Assign(nil, makeMentors(2), NewDefaultConfig(), testTime)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAssign_Properties(t *testing.T) {
	cfg := NewDefaultConfig()

	for _, n := range []int{1, 12, 29, 30, 42, 43, 59, 64, 65, 72, 73, 100, 121, 250} {
		t.Run(fmt.Sprintf("%d students", n), func(t *testing.T) {
			students := makeStudents(n)
			mentors := makeMentors(4)

			got, err := Assign(students, mentors, cfg, testTime)
			require.NoError(t, err)

			seen := make(map[int]bool, n)
			for _, a := range got {
				for i, roll := range a.StudentRollNumbers {
					require.False(t, seen[roll], "roll %d assigned twice", roll)
					seen[roll] = true
					if i > 0 {
						require.Less(t, a.StudentRollNumbers[i-1], roll)
					}
				}
			}
			assert.Len(t, seen, n)

			again, err := Assign(students, mentors, cfg, testTime)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestAssign_DoesNotMutateInputs(t *testing.T) {
	students := makeStudents(65)
	mentors := makeMentors(3)
	studentsCopy := append([]models.Student(nil), students...)
	mentorsCopy := append([]models.Mentor(nil), mentors...)

	got, err := Assign(students, mentors, NewDefaultConfig(), testTime)
	require.NoError(t, err)
	got[0].StudentRollNumbers[0] = 999

	assert.Equal(t, studentsCopy, students)
	assert.Equal(t, mentorsCopy, mentors)
}

func TestBatchSizes(t *testing.T) {
	sizes, err := BatchSizes(73, NewDefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []int{30, 30, 13}, sizes)

	sizes, err = BatchSizes(0, NewDefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, sizes)

	_, err = BatchSizes(10, Config{BatchSize: 0})
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name      string
		batch     int
		threshold int
		wantErr   bool
	}{
		{name: "defaults", batch: 30, threshold: 12},
		{name: "zero threshold", batch: 30, threshold: 0},
		{name: "largest threshold", batch: 30, threshold: 29},
		{name: "zero batch size", batch: 0, threshold: 0, wantErr: true},
		{name: "negative threshold", batch: 30, threshold: -1, wantErr: true},
		{name: "threshold equal to batch size", batch: 30, threshold: 30, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfig(tt.batch, tt.threshold, true)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfiguration)
				assert.Equal(t, Config{}, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.batch, cfg.BatchSize)
			assert.Equal(t, tt.threshold, cfg.RemainderThreshold)
			assert.True(t, cfg.AllowOverload)
		})
	}
}
