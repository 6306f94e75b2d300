// Package service runs assignments end to end: it loads students and mentors from the
// store, calls the engine, writes the results back and tells everyone who cares.
package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"mentor-assign-server-go/db"
	"mentor-assign-server-go/engine"
	"mentor-assign-server-go/logging"
	"mentor-assign-server-go/metrics"
	"mentor-assign-server-go/models"
)

// EventAssignmentCompleted is published after every successful run or student addition.
const EventAssignmentCompleted = "assignment.completed"

// Store is the persistence the service needs.
type Store interface {
	LoadStudents() ([]models.Student, error)
	LoadMentors() ([]models.Mentor, error)
	LoadAssignments() ([]models.Assignment, error)
	SaveStudents(students []models.Student) error
	SaveMentors(mentors []models.Mentor) error
	SaveAssignments(assignments []models.Assignment) error
	DataSummary() (models.DataSummary, error)

	AddStudent(student models.Student) error
	AddMentor(mentor models.Mentor) error
	ImportStudentsCSV(r io.Reader) (db.ImportResult, error)
	ImportStudentsFromExcel(r io.Reader) (db.ImportResult, error)
	ImportMentorsCSV(r io.Reader) (db.ImportResult, error)
	CreateSampleData() ([]models.Student, []models.Mentor, error)
}

// RunCache mirrors the latest run for fast reads.
type RunCache interface {
	SaveRun(ctx context.Context, summary models.AssignmentSummary) error
	LatestRun(ctx context.Context) (*models.AssignmentSummary, error)
	ClearLatest(ctx context.Context) error
}

// Publisher broadcasts events to connected dashboards.
type Publisher interface {
	Publish(event string, data interface{})
}

// StructValidator validates a record, row is 0 for records not read from a file.
type StructValidator interface {
	Struct(s interface{}, row int) error
}

type nopCache struct{}

func (nopCache) SaveRun(context.Context, models.AssignmentSummary) error { return nil }

func (nopCache) LatestRun(context.Context) (*models.AssignmentSummary, error) { return nil, nil }

func (nopCache) ClearLatest(context.Context) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// AssignmentService coordinates assignment runs. Runs are serialised.
type AssignmentService struct {
	store      Store
	cfg        engine.Config
	sortByRoll bool

	cache     RunCache
	publisher Publisher
	validator StructValidator
	metrics   metrics.Recorder
	logger    logging.Logger
	now       func() time.Time
	newID     func() string

	mu sync.Mutex
}

// Option configures an AssignmentService.
type Option func(*AssignmentService)

// WithCache mirrors runs into cache.
func WithCache(cache RunCache) Option {
	return func(s *AssignmentService) { s.cache = cache }
}

// WithPublisher sends completion events to p.
func WithPublisher(p Publisher) Option {
	return func(s *AssignmentService) { s.publisher = p }
}

// WithValidator checks students passed to AddNewStudents.
func WithValidator(v StructValidator) Option {
	return func(s *AssignmentService) { s.validator = v }
}

// WithMetrics records runs on r.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *AssignmentService) { s.metrics = r }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *AssignmentService) { s.logger = l }
}

// WithClock overrides time.Now, used to stamp assignments.
func WithClock(now func() time.Time) Option {
	return func(s *AssignmentService) { s.now = now }
}

// WithIDGenerator overrides the run ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *AssignmentService) { s.newID = newID }
}

// WithSortByRollNumber controls whether students are sorted before batching.
// When disabled students are batched in the order the store returns them.
func WithSortByRollNumber(sortByRoll bool) Option {
	return func(s *AssignmentService) { s.sortByRoll = sortByRoll }
}

// NewAssignmentService creates a service over store using cfg for every run.
//
// Example:
//
//	svc := service.NewAssignmentService(store, cfg,
//	    service.WithCache(redisSvc),
//	    service.WithLogger(logger),
//	)
//	summary, err := svc.Run(ctx)
func NewAssignmentService(store Store, cfg engine.Config, opts ...Option) *AssignmentService {
	s := &AssignmentService{
		store:      store,
		cfg:        cfg,
		sortByRoll: true,
		cache:      nopCache{},
		publisher:  nopPublisher{},
		metrics:    metrics.NewNop(),
		logger:     logging.NewNop(),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the engine configuration used for runs.
func (s *AssignmentService) Config() engine.Config {
	return s.cfg
}
