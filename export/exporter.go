package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"mentor-assign-server-go/logging"
	"mentor-assign-server-go/metrics"
	"mentor-assign-server-go/models"
)

const fileTimestampLayout = "20060102_150405"

// Exporter writes reports into a directory.
type Exporter struct {
	dir     string
	logger  logging.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the exporter's logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// WithMetrics sets the recorder that counts generated reports.
func WithMetrics(r metrics.Recorder) Option {
	return func(e *Exporter) { e.metrics = r }
}

// WithClock overrides the time used in file names and report headers.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// NewExporter creates the reports directory if needed.
func NewExporter(dir string, opts ...Option) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create reports dir %s", dir)
	}
	e := &Exporter{
		dir:     dir,
		logger:  logging.NewNop(),
		metrics: metrics.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Dir returns the reports directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// SummaryFileName returns the report file name for a summary generated at t.
func SummaryFileName(t time.Time, f Format) string {
	return fmt.Sprintf("assignment_summary_%s.%s", t.Format(fileTimestampLayout), f.Extension())
}

// DetailedFileName returns the report file name for a detailed report generated at t.
func DetailedFileName(t time.Time, f Format) string {
	return fmt.Sprintf("detailed_assignments_%s.%s", t.Format(fileTimestampLayout), f.Extension())
}

// ExportSummary writes the summary report and returns its path.
func (e *Exporter) ExportSummary(summary models.AssignmentSummary, format Format) (string, error) {
	if !supports(SummaryFormats, format) {
		return "", errors.Wrapf(ErrUnsupportedFormat, "summary report as %q", format)
	}
	path := filepath.Join(e.dir, SummaryFileName(e.now(), format))
	err := e.writeFile(path, func(w io.Writer) error {
		return WriteSummary(w, summary, format)
	})
	if err != nil {
		return "", err
	}
	e.metrics.RecordExport(string(format))
	e.logger.Info("summary report exported", "format", format, "path", path)
	return path, nil
}

// ExportDetailed writes the detailed student/mentor report and returns its path.
func (e *Exporter) ExportDetailed(students []models.Student, mentors []models.Mentor, format Format) (string, error) {
	if !supports(DetailedFormats, format) {
		return "", errors.Wrapf(ErrUnsupportedFormat, "detailed report as %q", format)
	}
	now := e.now()
	path := filepath.Join(e.dir, DetailedFileName(now, format))
	err := e.writeFile(path, func(w io.Writer) error {
		return WriteDetailed(w, students, mentors, format, now)
	})
	if err != nil {
		return "", err
	}
	e.metrics.RecordExport(string(format))
	e.logger.Info("detailed report exported", "format", format, "path", path)
	return path, nil
}

// ExportAll writes the summary in every given format. Failures are logged and
// the format is left out of the returned map.
func (e *Exporter) ExportAll(summary models.AssignmentSummary, formats []Format) map[Format]string {
	paths := make(map[Format]string, len(formats))
	for _, f := range formats {
		path, err := e.ExportSummary(summary, f)
		if err != nil {
			e.logger.Error("summary export failed", "format", f, "error", err)
			continue
		}
		paths[f] = path
	}
	return paths
}

func (e *Exporter) writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report file")
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return errors.Wrap(f.Close(), "close report file")
}
