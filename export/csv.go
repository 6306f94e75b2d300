package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"mentor-assign-server-go/models"
)

const timestampLayout = "2006-01-02 15:04:05"

func joinRolls(rolls []int) string {
	sorted := append([]int(nil), rolls...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, r := range sorted {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ", ")
}

func writeSummaryCSV(w io.Writer, summary models.AssignmentSummary) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Assignment Summary Report"},
		{"Generated on:", summary.CreatedAt.Format(timestampLayout)},
		{},
		{"Summary Statistics"},
		{"Total Students:", strconv.Itoa(summary.TotalStudents)},
		{"Total Mentors:", strconv.Itoa(summary.TotalMentors)},
		{"Total Assignments:", strconv.Itoa(len(summary.Assignments))},
		{"Average Students per Mentor:", fmt.Sprintf("%.2f", summary.AveragePerAssignment)},
		{"Unassigned Students:", strconv.Itoa(len(summary.UnassignedStudents))},
		{},
		{"Assignment Details"},
		{"Batch Number", "Mentor ID", "Student Count", "Student Roll Numbers"},
	}
	for _, a := range summary.Assignments {
		rows = append(rows, []string{
			strconv.Itoa(a.BatchNumber),
			a.MentorID,
			strconv.Itoa(a.StudentCount()),
			joinRolls(a.StudentRollNumbers),
		})
	}
	if len(summary.UnassignedStudents) > 0 {
		rows = append(rows,
			[]string{},
			[]string{"Unassigned Students"},
			[]string{"Roll Numbers:", joinRolls(summary.UnassignedStudents)},
		)
	}

	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// detailRow is one student line of the detailed report.
type detailRow struct {
	student models.Student
	mentor  *models.Mentor
}

func (d detailRow) mentorID() string {
	if d.student.AssignedMentorID == "" {
		return "Unassigned"
	}
	return d.student.AssignedMentorID
}

func (d detailRow) mentorName() string {
	if d.mentor == nil {
		return "N/A"
	}
	return d.mentor.Name
}

func (d detailRow) department() string {
	if d.mentor == nil {
		return "N/A"
	}
	return d.mentor.Department
}

func detailRows(students []models.Student, mentors []models.Mentor) []detailRow {
	byID := make(map[string]*models.Mentor, len(mentors))
	for i := range mentors {
		byID[mentors[i].FacultyID] = &mentors[i]
	}

	sorted := append([]models.Student(nil), students...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RollNo < sorted[j].RollNo })

	rows := make([]detailRow, len(sorted))
	for i, st := range sorted {
		rows[i] = detailRow{student: st, mentor: byID[st.AssignedMentorID]}
	}
	return rows
}

func writeDetailedCSV(w io.Writer, students []models.Student, mentors []models.Mentor, generated time.Time) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Detailed Assignment Report"},
		{"Generated on:", generated.Format(timestampLayout)},
		{},
		{"Student-Mentor Assignments"},
		{"Roll No", "Student Name", "Branch", "Year", "Mentor ID", "Mentor Name", "Department"},
	}
	for _, d := range detailRows(students, mentors) {
		rows = append(rows, []string{
			strconv.Itoa(d.student.RollNo),
			d.student.Name,
			d.student.Branch,
			strconv.Itoa(d.student.Year),
			d.mentorID(),
			d.mentorName(),
			d.department(),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
