// Package scheduler regenerates assignment reports on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"mentor-assign-server-go/export"
	"mentor-assign-server-go/logging"
	"mentor-assign-server-go/models"
)

const jobTimeout = time.Minute

// SummarySource returns the latest assignments, nil when there are none.
type SummarySource interface {
	Latest(ctx context.Context) (*models.AssignmentSummary, error)
}

// SummaryExporter writes a summary in several formats.
type SummaryExporter interface {
	ExportAll(summary models.AssignmentSummary, formats []export.Format) map[export.Format]string
}

// Scheduler runs the report export job.
type Scheduler struct {
	cron     *cron.Cron
	source   SummarySource
	exporter SummaryExporter
	formats  []export.Format
	logger   logging.Logger
}

// New parses spec (six fields, seconds first) and registers the export job.
func New(spec string, source SummarySource, exporter SummaryExporter, formats []export.Format, logger logging.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		source:   source,
		exporter: exporter,
		formats:  formats,
		logger:   logger,
	}

	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled export failed", "error", err)
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "invalid export schedule %q", spec)
	}
	return s, nil
}

// RunOnce exports the latest summary in every configured format.
// It returns an empty map when nothing has been assigned yet.
func (s *Scheduler) RunOnce(ctx context.Context) (map[export.Format]string, error) {
	s.logger.Info("running scheduled export job")
	summary, err := s.source.Latest(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load latest assignments")
	}
	if summary == nil {
		s.logger.Info("no assignments to export")
		return map[export.Format]string{}, nil
	}

	paths := s.exporter.ExportAll(*summary, s.formats)
	s.logger.Info("scheduled export finished", "reports", len(paths), "formats", len(s.formats))
	return paths, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out", "error", ctx.Err())
	}
}
