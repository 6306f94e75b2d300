package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"mentor-assign-server-go/export"
	"mentor-assign-server-go/logging"
	"mentor-assign-server-go/models"
	"mentor-assign-server-go/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoadTemplates parses the dashboard pages for router.SetHTMLTemplate.
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// DashboardHandler serves the HTML pages.
type DashboardHandler struct {
	Service *service.AssignmentService
	Logger  logging.Logger
}

func NewDashboardHandler(svc *service.AssignmentService, logger logging.Logger) *DashboardHandler {
	return &DashboardHandler{Service: svc, Logger: logger}
}

func (d *DashboardHandler) fail(c *gin.Context, msg string, err error) {
	d.Logger.Error(msg, "path", c.FullPath(), "error", err)
	c.String(http.StatusInternalServerError, msg)
}

// Index handles GET /
func (d *DashboardHandler) Index(c *gin.Context) {
	ov, err := d.Service.Overview()
	if err != nil {
		d.fail(c, "Failed to build overview", err)
		return
	}
	latest, err := d.Service.Latest(c.Request.Context())
	if err != nil {
		d.fail(c, "Failed to load assignments", err)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":    "Overview",
		"Overview": ov,
		"Latest":   latest,
	})
}

func (d *DashboardHandler) renderStudents(c *gin.Context, status int, formErr string) {
	students, err := d.Service.Students()
	if err != nil {
		d.fail(c, "Failed to load students", err)
		return
	}
	c.HTML(status, "students.html", gin.H{
		"Title":    "Students",
		"Students": students,
		"Error":    formErr,
	})
}

// Students handles GET /students
func (d *DashboardHandler) Students(c *gin.Context) {
	d.renderStudents(c, http.StatusOK, "")
}

// AddStudent handles POST /students from the dashboard form
func (d *DashboardHandler) AddStudent(c *gin.Context) {
	roll, err := strconv.Atoi(strings.TrimSpace(c.PostForm("roll_no")))
	if err != nil {
		d.renderStudents(c, http.StatusBadRequest, "Roll No must be a number")
		return
	}
	year, err := strconv.Atoi(strings.TrimSpace(c.PostForm("year")))
	if err != nil {
		d.renderStudents(c, http.StatusBadRequest, "Year must be a number")
		return
	}
	student := models.Student{
		RollNo: roll,
		Name:   strings.TrimSpace(c.PostForm("name")),
		Branch: strings.TrimSpace(c.PostForm("branch")),
		Year:   year,
		Email:  strings.TrimSpace(c.PostForm("email")),
		Phone:  strings.TrimSpace(c.PostForm("phone")),
	}
	if err := d.Service.AddStudent(student); err != nil {
		d.renderStudents(c, http.StatusBadRequest, err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/students")
}

func (d *DashboardHandler) renderMentors(c *gin.Context, status int, formErr string) {
	mentors, err := d.Service.Mentors()
	if err != nil {
		d.fail(c, "Failed to load mentors", err)
		return
	}
	c.HTML(status, "mentors.html", gin.H{
		"Title":   "Mentors",
		"Mentors": mentors,
		"Error":   formErr,
	})
}

// Mentors handles GET /mentors
func (d *DashboardHandler) Mentors(c *gin.Context) {
	d.renderMentors(c, http.StatusOK, "")
}

// AddMentor handles POST /mentors from the dashboard form
func (d *DashboardHandler) AddMentor(c *gin.Context) {
	maxStudents := models.DefaultMaxStudents
	if v := strings.TrimSpace(c.PostForm("max_students")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			d.renderMentors(c, http.StatusBadRequest, "Max students must be a number")
			return
		}
		maxStudents = n
	}
	mentor := models.Mentor{
		FacultyID:    strings.TrimSpace(c.PostForm("faculty_id")),
		Name:         strings.TrimSpace(c.PostForm("name")),
		Department:   strings.TrimSpace(c.PostForm("department")),
		Email:        strings.TrimSpace(c.PostForm("email")),
		Phone:        strings.TrimSpace(c.PostForm("phone")),
		Availability: c.PostForm("availability") == "true",
		MaxStudents:  maxStudents,
	}
	if err := d.Service.AddMentor(mentor); err != nil {
		d.renderMentors(c, http.StatusBadRequest, err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/mentors")
}

// ExportPage handles GET /export
func (d *DashboardHandler) ExportPage(c *gin.Context) {
	c.HTML(http.StatusOK, "export.html", gin.H{
		"Title":           "Export",
		"SummaryFormats":  export.SummaryFormats,
		"DetailedFormats": export.DetailedFormats,
	})
}

// Analytics handles GET /analytics
func (d *DashboardHandler) Analytics(c *gin.Context) {
	ov, err := d.Service.Overview()
	if err != nil {
		d.fail(c, "Failed to build overview", err)
		return
	}

	page := components.NewPage()
	page.PageTitle = "Assignment Analytics"
	page.AddCharts(branchChart(ov.BranchCounts), loadChart(ov.Mentors), departmentChart(ov.DepartmentCounts))

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := page.Render(c.Writer); err != nil {
		d.Logger.Error("render analytics", "error", err)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func branchChart(counts map[string]int) *charts.Bar {
	keys := sortedKeys(counts)
	data := make([]opts.BarData, 0, len(keys))
	for _, k := range keys {
		data = append(data, opts.BarData{Value: counts[k]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Students per Branch"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
	)
	bar.SetXAxis(keys).AddSeries("Students", data)
	return bar
}

func loadChart(mentors []models.MentorLoad) *charts.Bar {
	ids := make([]string, 0, len(mentors))
	assigned := make([]opts.BarData, 0, len(mentors))
	capacity := make([]opts.BarData, 0, len(mentors))
	for _, m := range mentors {
		ids = append(ids, m.FacultyID)
		assigned = append(assigned, opts.BarData{Value: m.Assigned})
		capacity = append(capacity, opts.BarData{Value: m.Capacity})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Mentor Load vs Capacity"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
	)
	bar.SetXAxis(ids).
		AddSeries("Assigned", assigned).
		AddSeries("Capacity", capacity)
	return bar
}

func departmentChart(counts map[string]int) *charts.Pie {
	keys := sortedKeys(counts)
	data := make([]opts.PieData, 0, len(keys))
	for _, k := range keys {
		data = append(data, opts.PieData{Name: k, Value: counts[k]})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Mentors per Department"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
	)
	pie.AddSeries("Departments", data)
	return pie
}
