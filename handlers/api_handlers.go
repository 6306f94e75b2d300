package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"mentor-assign-server-go/db"
	"mentor-assign-server-go/engine"
	"mentor-assign-server-go/export"
	"mentor-assign-server-go/logging"
	"mentor-assign-server-go/metrics"
	"mentor-assign-server-go/models"
	"mentor-assign-server-go/service"
)

// RunLookup reads cached runs. db.RedisService and db.NopRunCache implement it.
type RunLookup interface {
	RunIDs(ctx context.Context) ([]string, error)
	MentorStudents(ctx context.Context, runID, facultyID string) ([]int, bool, error)
}

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Service *service.AssignmentService
	Store   *db.CSVStore
	Runs    RunLookup
	Metrics metrics.Recorder
	Logger  logging.Logger
	Now     func() time.Time
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(svc *service.AssignmentService, store *db.CSVStore, runs RunLookup, rec metrics.Recorder, logger logging.Logger) *APIHandler {
	return &APIHandler{
		Service: svc,
		Store:   store,
		Runs:    runs,
		Metrics: rec,
		Logger:  logger,
		Now:     time.Now,
	}
}

// respondError maps domain errors to status codes.
func (h *APIHandler) respondError(c *gin.Context, err error, msg string) {
	var verr *db.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": msg + ": " + err.Error(), "fields": verr.FieldMap()})
	case errors.Is(err, export.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrDuplicateStudent), errors.Is(err, db.ErrDuplicateMentor),
		errors.Is(err, service.ErrDuplicateRollNumber), errors.Is(err, service.ErrInconsistentData):
		c.JSON(http.StatusConflict, gin.H{"error": msg + ": " + err.Error()})
	case errors.Is(err, engine.ErrInvalidConfiguration), errors.Is(err, engine.ErrNoMentorsAvailable),
		errors.Is(err, engine.ErrInsufficientMentors):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg + ": " + err.Error()})
	case errors.Is(err, service.ErrMentorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.Logger.Error(msg, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// --- Student Handlers ---

// GetStudents handles GET /api/students
func (h *APIHandler) GetStudents(c *gin.Context) {
	students, err := h.Service.Students()
	if err != nil {
		h.respondError(c, err, "Failed to retrieve students")
		return
	}
	c.JSON(http.StatusOK, students)
}

// AddStudent handles POST /api/students
func (h *APIHandler) AddStudent(c *gin.Context) {
	var student models.Student
	if err := c.ShouldBindJSON(&student); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	student.AssignedMentorID = ""

	if err := h.Service.AddStudent(student); err != nil {
		h.respondError(c, err, "Failed to add student")
		return
	}
	c.JSON(http.StatusCreated, student)
}

// --- Mentor Handlers ---

// GetMentors handles GET /api/mentors
func (h *APIHandler) GetMentors(c *gin.Context) {
	mentors, err := h.Service.Mentors()
	if err != nil {
		h.respondError(c, err, "Failed to retrieve mentors")
		return
	}
	c.JSON(http.StatusOK, mentors)
}

// AddMentor handles POST /api/mentors
func (h *APIHandler) AddMentor(c *gin.Context) {
	mentor := models.Mentor{Availability: true, MaxStudents: models.DefaultMaxStudents}
	if err := c.ShouldBindJSON(&mentor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	mentor.AssignedStudents = nil

	if err := h.Service.AddMentor(mentor); err != nil {
		h.respondError(c, err, "Failed to add mentor")
		return
	}
	c.JSON(http.StatusCreated, mentor)
}

// --- Import Handlers ---

// ImportStudents handles POST /api/import/students with a .csv or .xlsx "file"
func (h *APIHandler) ImportStudents(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	h.Logger.Info("received student upload", "filename", header.Filename, "size", header.Size)

	var result db.ImportResult
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		result, err = h.Service.ImportStudentsCSV(file)
	case ".xlsx":
		result, err = h.Service.ImportStudentsFromExcel(file)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type, expected .csv or .xlsx"})
		return
	}
	if err != nil {
		h.respondError(c, err, "Failed to import students")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Import successful",
		"filename": header.Filename,
		"result":   result,
	})
}

// ImportMentors handles POST /api/import/mentors with a .csv "file"
func (h *APIHandler) ImportMentors(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type, expected .csv"})
		return
	}
	h.Logger.Info("received mentor upload", "filename", header.Filename, "size", header.Size)

	result, err := h.Service.ImportMentorsCSV(file)
	if err != nil {
		h.respondError(c, err, "Failed to import mentors")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Import successful",
		"filename": header.Filename,
		"result":   result,
	})
}

// --- Assignment Handlers ---

// RunAssignment handles POST /api/assignments/run
func (h *APIHandler) RunAssignment(c *gin.Context) {
	summary, err := h.Service.Run(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Assignment run failed")
		return
	}
	c.JSON(http.StatusOK, summary)
}

type reassignRequest struct {
	MentorID string `json:"mentor_id" binding:"required"`
}

// Reassign handles POST /api/assignments/reassign
func (h *APIHandler) Reassign(c *gin.Context) {
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	summary, err := h.Service.Reassign(c.Request.Context(), req.MentorID)
	if err != nil {
		h.respondError(c, err, "Reassignment failed")
		return
	}
	c.JSON(http.StatusOK, summary)
}

type addStudentsRequest struct {
	Students []models.Student `json:"students" binding:"required,min=1"`
}

// AddNewStudents handles POST /api/assignments/students
func (h *APIHandler) AddNewStudents(c *gin.Context) {
	var req addStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	summary, err := h.Service.AddNewStudents(c.Request.Context(), req.Students)
	if err != nil {
		h.respondError(c, err, "Failed to add new students")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// latest writes 404 when nothing has been assigned yet and reports whether a summary was found.
func (h *APIHandler) latest(c *gin.Context) (*models.AssignmentSummary, bool) {
	summary, err := h.Service.Latest(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to retrieve assignments")
		return nil, false
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No assignments found, run an assignment first"})
		return nil, false
	}
	return summary, true
}

// GetAssignments handles GET /api/assignments
func (h *APIHandler) GetAssignments(c *gin.Context) {
	if summary, ok := h.latest(c); ok {
		c.JSON(http.StatusOK, summary)
	}
}

// GetStatistics handles GET /api/assignments/statistics
func (h *APIHandler) GetStatistics(c *gin.Context) {
	if summary, ok := h.latest(c); ok {
		c.JSON(http.StatusOK, service.Statistics(*summary))
	}
}

// GetOverview handles GET /api/overview
func (h *APIHandler) GetOverview(c *gin.Context) {
	ov, err := h.Service.Overview()
	if err != nil {
		h.respondError(c, err, "Failed to build overview")
		return
	}
	c.JSON(http.StatusOK, ov)
}

// GetConfig handles GET /api/config
func (h *APIHandler) GetConfig(c *gin.Context) {
	cfg := h.Service.Config()
	c.JSON(http.StatusOK, gin.H{
		"batch_size":          cfg.BatchSize,
		"remainder_threshold": cfg.RemainderThreshold,
		"allow_overload":      cfg.AllowOverload,
		"data_dir":            h.Store.Dir(),
	})
}

// --- Run Cache Handlers ---

// GetRuns handles GET /api/runs
func (h *APIHandler) GetRuns(c *gin.Context) {
	ids, err := h.Runs.RunIDs(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to list runs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": ids})
}

// GetRunMentorStudents handles GET /api/runs/:runId/mentors/:facultyId/students
func (h *APIHandler) GetRunMentorStudents(c *gin.Context) {
	runID, facultyID := c.Param("runId"), c.Param("facultyId")

	rolls, found, err := h.Runs.MentorStudents(c.Request.Context(), runID, facultyID)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve run")
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":            runID,
		"faculty_id":        facultyID,
		"student_count":     len(rolls),
		"student_rolls":     rolls,
		"roll_number_range": models.RollRange(rolls),
	})
}

// --- Export Handlers ---

func (h *APIHandler) attachment(c *gin.Context, name string, f export.Format, body []byte) {
	h.Metrics.RecordExport(string(f))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, f.ContentType(), body)
}

// ExportSummary handles GET /api/export/summary?format=csv|excel|pdf|json
func (h *APIHandler) ExportSummary(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		h.respondError(c, err, "Invalid format")
		return
	}
	summary, ok := h.latest(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteSummary(&buf, *summary, format); err != nil {
		h.respondError(c, err, "Failed to export summary")
		return
	}
	h.attachment(c, export.SummaryFileName(h.Now(), format), format, buf.Bytes())
}

// ExportDetailed handles GET /api/export/detailed?format=csv|excel
func (h *APIHandler) ExportDetailed(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		h.respondError(c, err, "Invalid format")
		return
	}
	students, err := h.Service.Students()
	if err != nil {
		h.respondError(c, err, "Failed to retrieve students")
		return
	}
	mentors, err := h.Service.Mentors()
	if err != nil {
		h.respondError(c, err, "Failed to retrieve mentors")
		return
	}

	now := h.Now()
	var buf bytes.Buffer
	if err := export.WriteDetailed(&buf, students, mentors, format, now); err != nil {
		h.respondError(c, err, "Failed to export detailed report")
		return
	}
	h.attachment(c, export.DetailedFileName(now, format), format, buf.Bytes())
}

// --- Sample Data / Ping ---

// CreateSampleData handles POST /api/sample-data
func (h *APIHandler) CreateSampleData(c *gin.Context) {
	students, mentors, err := h.Service.CreateSampleData(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to create sample data")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Sample data created",
		"students": len(students),
		"mentors":  len(mentors),
	})
}

func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
