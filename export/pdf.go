package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"mentor-assign-server-go/models"
)

const reportTitle = "Student-Mentor Assignment Report"

type pdfTable struct {
	pdf    *fpdf.Fpdf
	widths []float64
}

func (t pdfTable) header(cols ...string) {
	t.pdf.SetFont("Helvetica", "B", 10)
	t.pdf.SetFillColor(128, 128, 128)
	t.pdf.SetTextColor(245, 245, 245)
	for i, c := range cols {
		t.pdf.CellFormat(t.widths[i], 8, c, "1", 0, "C", true, 0, "")
	}
	t.pdf.Ln(-1)
	t.pdf.SetFont("Helvetica", "", 10)
	t.pdf.SetFillColor(245, 245, 220)
	t.pdf.SetTextColor(0, 0, 0)
}

func (t pdfTable) row(cols ...string) {
	for i, c := range cols {
		t.pdf.CellFormat(t.widths[i], 7, c, "1", 0, "C", true, 0, "")
	}
	t.pdf.Ln(-1)
}

func pdfHeading(pdf *fpdf.Fpdf, text string) {
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, text, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func writeSummaryPDF(w io.Writer, summary models.AssignmentSummary) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(reportTitle, false)
	pdf.SetCreationDate(summary.CreatedAt)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, reportTitle, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Generated on: "+summary.CreatedAt.Format(timestampLayout), "", 1, "C", false, 0, "")

	pdfHeading(pdf, "Summary Statistics")
	stats := pdfTable{pdf: pdf, widths: []float64{90, 60}}
	stats.header("Metric", "Value")
	stats.row("Total Students", strconv.Itoa(summary.TotalStudents))
	stats.row("Total Mentors", strconv.Itoa(summary.TotalMentors))
	stats.row("Total Assignments", strconv.Itoa(len(summary.Assignments)))
	stats.row("Average Students per Mentor", fmt.Sprintf("%.2f", summary.AveragePerAssignment))
	stats.row("Unassigned Students", strconv.Itoa(len(summary.UnassignedStudents)))

	if len(summary.Assignments) > 0 {
		pdfHeading(pdf, "Assignment Details")
		table := pdfTable{pdf: pdf, widths: []float64{25, 40, 30, 60}}
		table.header("Batch", "Mentor ID", "Students", "Roll Number Range")
		for _, a := range summary.Assignments {
			table.row(strconv.Itoa(a.BatchNumber), a.MentorID, strconv.Itoa(a.StudentCount()),
				models.RollRange(a.StudentRollNumbers))
		}
	}

	if len(summary.UnassignedStudents) > 0 {
		pdfHeading(pdf, "Unassigned Students")
		pdf.SetFont("Helvetica", "", 10)
		parts := make([]string, len(summary.UnassignedStudents))
		for i, r := range summary.UnassignedStudents {
			parts[i] = strconv.Itoa(r)
		}
		pdf.MultiCell(0, 6, strings.Join(parts, ", "), "", "L", false)
	}

	return pdf.Output(w)
}
