package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"mentor-assign-server-go/logging"
)

// Routes are the handlers mounted by NewRouter. Metrics may be nil.
type Routes struct {
	API       *APIHandler
	Dashboard *DashboardHandler
	Hub       *Hub
	Metrics   http.Handler
}

// NewRouter builds the gin engine with middleware, templates and every route.
// An empty origin list or "*" allows all origins.
func NewRouter(routes Routes, corsOrigins []string, logger logging.Logger) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), corsMiddleware(corsOrigins))

	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	router.SetHTMLTemplate(tmpl)

	// Dashboard pages
	dash := routes.Dashboard
	router.GET("/", dash.Index)
	router.GET("/students", dash.Students)
	router.POST("/students", dash.AddStudent)
	router.GET("/mentors", dash.Mentors)
	router.POST("/mentors", dash.AddMentor)
	router.GET("/export", dash.ExportPage)
	router.GET("/analytics", dash.Analytics)

	router.GET("/ws/events", routes.Hub.HandleWebSocket)
	if routes.Metrics != nil {
		router.GET("/metrics", gin.WrapH(routes.Metrics))
	}

	apiHandler := routes.API
	api := router.Group("/api")
	{
		// Roster routes
		api.GET("/students", apiHandler.GetStudents)
		api.POST("/students", apiHandler.AddStudent)
		api.GET("/mentors", apiHandler.GetMentors)
		api.POST("/mentors", apiHandler.AddMentor)

		// Import routes
		api.POST("/import/students", apiHandler.ImportStudents)
		api.POST("/import/mentors", apiHandler.ImportMentors)

		// Assignment routes
		api.POST("/assignments/run", apiHandler.RunAssignment)
		api.POST("/assignments/reassign", apiHandler.Reassign)
		api.POST("/assignments/students", apiHandler.AddNewStudents)
		api.GET("/assignments", apiHandler.GetAssignments)
		api.GET("/assignments/statistics", apiHandler.GetStatistics)
		api.GET("/overview", apiHandler.GetOverview)
		api.GET("/config", apiHandler.GetConfig)

		// Cached runs
		api.GET("/runs", apiHandler.GetRuns)
		api.GET("/runs/:runId/mentors/:facultyId/students", apiHandler.GetRunMentorStudents)

		// Export routes
		api.GET("/export/summary", apiHandler.ExportSummary)
		api.GET("/export/detailed", apiHandler.ExportDetailed)

		api.POST("/sample-data", apiHandler.CreateSampleData)
		api.GET("/ping", PingHandler)
	}

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	for _, o := range origins {
		if o == "*" {
			return cors.Default()
		}
	}
	conf := cors.DefaultConfig()
	conf.AllowOrigins = origins
	return cors.New(conf)
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
