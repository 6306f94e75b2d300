package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mentor-assign-server-go/config"
	"mentor-assign-server-go/db"
	"mentor-assign-server-go/export"
	"mentor-assign-server-go/handlers"
	"mentor-assign-server-go/logging"
	"mentor-assign-server-go/metrics"
	"mentor-assign-server-go/scheduler"
	"mentor-assign-server-go/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("MENTOR_CONFIG_FILE"))
	if err != nil {
		logging.New(os.Stderr, "info", "text").Fatal("load config", "error", err)
	}

	var logger logging.Logger = logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if cfg.Rollbar.Token != "" {
		host, _ := os.Hostname()
		rb := logging.NewRollbar(logger, logging.RollbarConfig{
			Token:       cfg.Rollbar.Token,
			Environment: cfg.Rollbar.Environment,
			ServerHost:  host,
		})
		defer rb.Close()
		logger = rb
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		logger.Fatal("invalid assignment settings", "error", err)
	}
	formats, err := export.ParseFormats(cfg.Export.Formats)
	if err != nil {
		logger.Fatal("invalid export formats", "error", err)
	}

	store, err := db.NewCSVStore(cfg.Data.Dir, logger)
	if err != nil {
		logger.Fatal("open data store", "dir", cfg.Data.Dir, "error", err)
	}

	// Run cache
	var runCache interface {
		service.RunCache
		handlers.RunLookup
	} = db.NopRunCache{}
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := db.InitializeRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, run cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer client.Close()
			runCache = db.NewRedisService(client)
			logger.Info("connected to redis", "addr", cfg.Redis.Addr)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(registry, "")

	hub := handlers.NewHub(logger)
	defer hub.Close()

	svc := service.NewAssignmentService(store, engineCfg,
		service.WithCache(runCache),
		service.WithPublisher(hub),
		service.WithValidator(store.Validator()),
		service.WithMetrics(recorder),
		service.WithLogger(logger),
		service.WithIDGenerator(uuid.NewString),
		service.WithSortByRollNumber(cfg.Assignment.SortByRollNumber),
	)
	if cfg.Data.SeedSampleData {
		checkAndSeedData(svc, store, logger)
	}

	exporter, err := export.NewExporter(cfg.Data.ReportsDir, export.WithLogger(logger), export.WithMetrics(recorder))
	if err != nil {
		logger.Fatal("create exporter", "error", err)
	}

	var sched *scheduler.Scheduler
	if cfg.Export.Schedule != "" {
		sched, err = scheduler.New(cfg.Export.Schedule, svc, exporter, formats, logger)
		if err != nil {
			logger.Fatal("create scheduler", "error", err)
		}
		sched.Start()
	}

	gin.SetMode(cfg.Server.Mode)
	router, err := handlers.NewRouter(handlers.Routes{
		API:       handlers.NewAPIHandler(svc, store, runCache, recorder, logger),
		Dashboard: handlers.NewDashboardHandler(svc, logger),
		Hub:       hub,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, cfg.Server.CORSOrigins, logger)
	if err != nil {
		logger.Fatal("set up router", "error", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr, "data_dir", cfg.Data.Dir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
}

// checkAndSeedData writes the sample roster when neither students nor mentors exist yet
func checkAndSeedData(svc *service.AssignmentService, store *db.CSVStore, logger logging.Logger) {
	empty, err := store.IsEmpty()
	if err != nil {
		logger.Warn("could not check for existing data, skipping sample data", "error", err)
		return
	}
	if !empty {
		logger.Info("found existing data, skipping sample data", "dir", store.Dir())
		return
	}

	logger.Info("no students or mentors found, adding sample data", "dir", store.Dir())
	students, mentors, err := svc.CreateSampleData(context.Background())
	if err != nil {
		logger.Error("adding sample data failed", "error", err)
		return
	}
	logger.Info("sample data added", "students", len(students), "mentors", len(mentors))
}
