// Command mentorassign runs assignments and exports reports from the command line.
package main

import (
	"flag"
	"io"
	"os"

	"mentor-assign-server-go/config"
	"mentor-assign-server-go/db"
	"mentor-assign-server-go/export"
	"mentor-assign-server-go/logging"
	"mentor-assign-server-go/service"
)

func main() {
	configFile := os.Getenv("MENTOR_CONFIG_FILE")
	cfg, err := config.Load(configFile)
	if err != nil {
		logging.New(os.Stderr, "info", "text").Fatal("load config", "error", err)
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	cli, err := newCommandLine(cfg, logger, os.Stdout)
	if err != nil {
		logger.Fatal("set up", "error", err)
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp && err != flag.ErrHelp {
			logger.Error("command failed", "command", os.Args[1], "error", err)
		}
		os.Exit(1)
	}
}

func newCommandLine(cfg *config.Config, logger logging.Logger, out io.Writer) (*commandLine, error) {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}
	formats, err := export.ParseFormats(cfg.Export.Formats)
	if err != nil {
		return nil, err
	}

	store, err := db.NewCSVStore(cfg.Data.Dir, logger)
	if err != nil {
		return nil, err
	}
	exporter, err := export.NewExporter(cfg.Data.ReportsDir, export.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	svc := service.NewAssignmentService(store, engineCfg,
		service.WithLogger(logger),
		service.WithValidator(store.Validator()),
		service.WithSortByRollNumber(cfg.Assignment.SortByRollNumber),
	)

	return &commandLine{
		svc:      svc,
		store:    store,
		exporter: exporter,
		formats:  formats,
		out:      out,
	}, nil
}
