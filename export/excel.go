package export

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"mentor-assign-server-go/models"
)

const defaultSheet = "Sheet1"

// sheetWriter appends rows to one worksheet.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func (s *sheetWriter) append(values ...interface{}) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.f.SetSheetRow(s.sheet, cell, &values)
}

// header writes a bold, shaded header row and sizes the columns.
func (s *sheetWriter) header(style int, titles ...interface{}) error {
	if err := s.append(titles...); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(titles), s.row)
	if err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, s.row)
	if err := s.f.SetCellStyle(s.sheet, first, last, style); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(titles))
	return s.f.SetColWidth(s.sheet, "A", lastCol, 20)
}

func newWorkbook(firstSheet string) (*excelize.File, int, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, firstSheet); err != nil {
		f.Close()
		return nil, 0, err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9D9D9"}},
	})
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, style, nil
}

func addSheet(f *excelize.File, name string) (*sheetWriter, error) {
	if _, err := f.NewSheet(name); err != nil {
		return nil, err
	}
	return &sheetWriter{f: f, sheet: name}, nil
}

func writeSummaryExcel(w io.Writer, summary models.AssignmentSummary) error {
	f, style, err := newWorkbook("Summary")
	if err != nil {
		return errors.Wrap(err, "create workbook")
	}
	defer f.Close()

	sum := &sheetWriter{f: f, sheet: "Summary"}
	if err := sum.header(style, "Metric", "Value"); err != nil {
		return err
	}
	metrics := [][]interface{}{
		{"Generated On", summary.CreatedAt.Format(timestampLayout)},
		{"Total Students", summary.TotalStudents},
		{"Total Mentors", summary.TotalMentors},
		{"Total Assignments", len(summary.Assignments)},
		{"Assigned Students", summary.AssignedStudents},
		{"Average Students per Mentor", summary.AveragePerAssignment},
		{"Unassigned Students", len(summary.UnassignedStudents)},
	}
	for _, m := range metrics {
		if err := sum.append(m...); err != nil {
			return err
		}
	}

	asg, err := addSheet(f, "Assignments")
	if err != nil {
		return err
	}
	if err := asg.header(style, "Batch Number", "Mentor ID", "Student Count", "Student Roll Numbers", "Assignment Date", "Notes"); err != nil {
		return err
	}
	for _, a := range summary.Assignments {
		if err := asg.append(a.BatchNumber, a.MentorID, a.StudentCount(), joinRolls(a.StudentRollNumbers),
			a.CreatedAt.Format(timestampLayout), a.Notes); err != nil {
			return err
		}
	}

	if len(summary.UnassignedStudents) > 0 {
		un, err := addSheet(f, "Unassigned")
		if err != nil {
			return err
		}
		if err := un.header(style, "Roll Number"); err != nil {
			return err
		}
		for _, roll := range summary.UnassignedStudents {
			if err := un.append(roll); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func writeDetailedExcel(w io.Writer, students []models.Student, mentors []models.Mentor) error {
	f, style, err := newWorkbook("Students")
	if err != nil {
		return errors.Wrap(err, "create workbook")
	}
	defer f.Close()

	st := &sheetWriter{f: f, sheet: "Students"}
	if err := st.header(style, "Roll No", "Student Name", "Branch", "Year", "Email", "Phone",
		"Mentor ID", "Mentor Name", "Department"); err != nil {
		return err
	}
	for _, d := range detailRows(students, mentors) {
		if err := st.append(d.student.RollNo, d.student.Name, d.student.Branch, d.student.Year,
			orNA(d.student.Email), orNA(d.student.Phone), d.mentorID(), d.mentorName(), d.department()); err != nil {
			return err
		}
	}

	ms, err := addSheet(f, "Mentors")
	if err != nil {
		return err
	}
	if err := ms.header(style, "Faculty ID", "Name", "Department", "Email", "Phone", "Available",
		"Max Students", "Assigned Students", "Available Slots"); err != nil {
		return err
	}
	for _, m := range mentors {
		available := "No"
		if m.Availability {
			available = "Yes"
		}
		if err := ms.append(m.FacultyID, m.Name, m.Department, orNA(m.Email), orNA(m.Phone), available,
			m.MaxStudents, m.StudentCount(), m.AvailableSlots()); err != nil {
			return err
		}
	}

	return f.Write(w)
}
