package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-assign-server-go/db"
	"mentor-assign-server-go/engine"
	"mentor-assign-server-go/logging"
	"mentor-assign-server-go/metrics"
	"mentor-assign-server-go/models"
	"mentor-assign-server-go/service"
)

var fixedNow = time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	store  *db.CSVStore
	redis  *miniredis.Miniredis
	hub    *Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.NewNop()
	store, err := db.NewCSVStore(t.TempDir(), logger)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client, err := db.InitializeRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	runs := db.NewRedisService(client)

	hub := NewHub(logger)
	t.Cleanup(hub.Close)

	svc := service.NewAssignmentService(store, engine.NewDefaultConfig(),
		service.WithCache(runs),
		service.WithPublisher(hub),
		service.WithValidator(store.Validator()),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithIDGenerator(func() string { return "run-1" }),
	)

	api := NewAPIHandler(svc, store, runs, metrics.NewNop(), logger)
	api.Now = func() time.Time { return fixedNow }

	router, err := NewRouter(Routes{
		API:       api,
		Dashboard: NewDashboardHandler(svc, logger),
		Hub:       hub,
	}, nil, logger)
	require.NoError(t, err)

	return &testServer{router: router, store: store, redis: mr, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) seed(t *testing.T) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/sample-data", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Pong!"}`, w.Body.String())
}

func TestRunAssignment(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/assignments/run", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "no mentors yet")

	s.seed(t)
	w = s.do(t, http.MethodPost, "/api/assignments/run", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary models.AssignmentSummary
	decode(t, w, &summary)
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 64, summary.AssignedStudents)
	require.Len(t, summary.Assignments, 2)
	assert.Equal(t, 34, summary.Assignments[1].StudentCount())
}

func TestGetAssignmentsAndStatistics(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	w := s.do(t, http.MethodGet, "/api/assignments", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/assignments/run", nil).Code)

	w = s.do(t, http.MethodGet, "/api/assignments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary models.AssignmentSummary
	decode(t, w, &summary)
	assert.Equal(t, "run-1", summary.RunID)

	w = s.do(t, http.MethodGet, "/api/assignments/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.AssignmentStatistics
	decode(t, w, &stats)
	assert.Equal(t, 2, stats.TotalBatches)
	assert.InDelta(t, 100, stats.AssignmentEfficiency, 0.001)
	assert.Equal(t, "31-64", stats.BatchDetails[1].RollRange)
}

func TestSampleDataResetsLatestRun(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/assignments/run", nil).Code)
	require.True(t, s.redis.Exists("run:latest"))

	s.seed(t)
	assert.False(t, s.redis.Exists("run:latest"))

	w := s.do(t, http.MethodGet, "/api/assignments", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	w = s.do(t, http.MethodGet, "/api/assignments/statistics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReassign(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	w := s.do(t, http.MethodPost, "/api/assignments/reassign", map[string]string{"mentor_id": "FAC999"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/assignments/reassign", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/assignments/reassign", map[string]string{"mentor_id": "FAC001"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary models.AssignmentSummary
	decode(t, w, &summary)
	for _, a := range summary.Assignments {
		assert.NotEqual(t, "FAC001", a.MentorID)
	}
}

func TestAddStudent(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	w := s.do(t, http.MethodPost, "/api/students", models.Student{RollNo: 100, Name: "New", Branch: "CSE", Year: 1})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/students", models.Student{RollNo: 100, Name: "Again", Branch: "CSE", Year: 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/students", models.Student{RollNo: 101, Name: "Bad", Branch: "CSE", Year: 7, Email: "nope"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &body)
	assert.Contains(t, body.Fields, "year")
	assert.Contains(t, body.Fields, "email")
}

func TestAddMentor(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/mentors", map[string]interface{}{
		"faculty_id": "FAC010", "name": "Dr. New", "department": "Physics",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var mentor models.Mentor
	decode(t, w, &mentor)
	assert.True(t, mentor.Availability)
	assert.Equal(t, models.DefaultMaxStudents, mentor.MaxStudents)

	w = s.do(t, http.MethodGet, "/api/mentors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mentors []models.Mentor
	decode(t, w, &mentors)
	assert.Len(t, mentors, 1)
}

func TestAddNewStudents(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/assignments/run", nil).Code)

	w := s.do(t, http.MethodPost, "/api/assignments/students", map[string]interface{}{
		"students": []models.Student{{RollNo: 65, Name: "Late", Branch: "ECE", Year: 1}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary models.AssignmentSummary
	decode(t, w, &summary)
	assert.Equal(t, 65, summary.AssignedStudents)

	w = s.do(t, http.MethodPost, "/api/assignments/students", map[string]interface{}{
		"students": []models.Student{{RollNo: 65, Name: "Late", Branch: "ECE", Year: 1}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/assignments/students", map[string]interface{}{"students": []models.Student{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportStudents(t *testing.T) {
	s := newTestServer(t)

	csv := "roll_no,name,branch,year,email,phone\n1,Ada,CSE,1,ada@university.edu,\n2,Bea,ECE,2,,\n2,Dup,ECE,2,,\nx,Bad,ECE,2,,\n"
	w := s.upload(t, "/api/import/students", "students.csv", csv)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Result db.ImportResult `json:"result"`
	}
	decode(t, w, &body)
	assert.Equal(t, 2, body.Result.Imported)
	assert.Equal(t, 1, body.Result.Skipped)
	assert.Equal(t, 1, body.Result.Invalid)

	w = s.upload(t, "/api/import/students", "students.txt", csv)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportMentors(t *testing.T) {
	s := newTestServer(t)

	csv := "faculty_id,name,department,email,phone,availability,max_students\nFAC001,Dr. A,CS,,,true,25\nFAC002,Dr. B,EE,,,no,\n"
	w := s.upload(t, "/api/import/mentors", "mentors.csv", csv)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	mentors, err := s.store.LoadMentors()
	require.NoError(t, err)
	require.Len(t, mentors, 2)
	assert.Equal(t, 25, mentors[0].MaxStudents)
	assert.False(t, mentors[1].Availability)

	w = s.upload(t, "/api/import/mentors", "mentors.xlsx", csv)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOverviewAndConfig(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/assignments/run", nil).Code)

	w := s.do(t, http.MethodGet, "/api/overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ov models.Overview
	decode(t, w, &ov)
	assert.Equal(t, 1, ov.OverloadedMentors)
	assert.Len(t, ov.Mentors, 3)

	w = s.do(t, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var conf map[string]interface{}
	decode(t, w, &conf)
	assert.EqualValues(t, 30, conf["batch_size"])
	assert.EqualValues(t, 12, conf["remainder_threshold"])
}

func TestRuns(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/assignments/run", nil).Code)

	w := s.do(t, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs":["run-1"]}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/runs/run-1/mentors/FAC002/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count int    `json:"student_count"`
		Range string `json:"roll_number_range"`
	}
	decode(t, w, &body)
	assert.Equal(t, 34, body.Count)
	assert.Equal(t, "31-64", body.Range)

	w = s.do(t, http.MethodGet, "/api/runs/missing/mentors/FAC002/students", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportSummary(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	w := s.do(t, http.MethodGet, "/api/export/summary?format=csv", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/assignments/run", nil).Code)

	w = s.do(t, http.MethodGet, "/api/export/summary?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="assignment_summary_20240701_093000.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "Assignment Summary Report"))

	w = s.do(t, http.MethodGet, "/api/export/summary?format=pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = s.do(t, http.MethodGet, "/api/export/summary?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportDetailed(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	w := s.do(t, http.MethodGet, "/api/export/detailed?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "detailed_assignments_20240701_093000.xlsx")

	w = s.do(t, http.MethodGet, "/api/export/detailed?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardPages(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	for _, path := range []string{"/", "/students", "/mentors", "/export"} {
		w := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "Mentor Assignment", path)
	}

	w := s.do(t, http.MethodGet, "/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Students per Branch")
	assert.Contains(t, w.Body.String(), "Mentor Load vs Capacity")
}

func TestDashboardAddStudentForm(t *testing.T) {
	s := newTestServer(t)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/students", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	w := post(url.Values{"roll_no": {"7"}, "name": {"Ada"}, "branch": {"CSE"}, "year": {"2"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/students", w.Header().Get("Location"))

	w = post(url.Values{"roll_no": {"abc"}, "name": {"Ada"}, "branch": {"CSE"}, "year": {"2"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Roll No must be a number")

	students, err := s.store.LoadStudents()
	require.NoError(t, err)
	assert.Len(t, students, 1)
}
