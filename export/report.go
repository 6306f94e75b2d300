package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"

	"mentor-assign-server-go/models"
)

// WriteSummary renders an assignment summary in the given format.
func WriteSummary(w io.Writer, summary models.AssignmentSummary, format Format) error {
	var err error
	switch format {
	case FormatCSV:
		err = writeSummaryCSV(w, summary)
	case FormatExcel:
		err = writeSummaryExcel(w, summary)
	case FormatPDF:
		err = writeSummaryPDF(w, summary)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(summary)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "summary report as %q", format)
	}
	return errors.Wrapf(err, "write %s summary", format)
}

// WriteDetailed renders one row per student, with mentor details, in CSV or Excel.
func WriteDetailed(w io.Writer, students []models.Student, mentors []models.Mentor, format Format, generated time.Time) error {
	var err error
	switch format {
	case FormatCSV:
		err = writeDetailedCSV(w, students, mentors, generated)
	case FormatExcel:
		err = writeDetailedExcel(w, students, mentors)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "detailed report as %q", format)
	}
	return errors.Wrapf(err, "write %s detailed report", format)
}
