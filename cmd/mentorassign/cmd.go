package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"mentor-assign-server-go/db"
	"mentor-assign-server-go/export"
	"mentor-assign-server-go/models"
	"mentor-assign-server-go/service"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	svc      *service.AssignmentService
	store    *db.CSVStore
	exporter *export.Exporter
	formats  []export.Format
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  run [-sample]                     - assign all students and generate reports")
	fmt.Fprintln(cli.out, "  sample                            - overwrite the data files with sample students and mentors")
	fmt.Fprintln(cli.out, "  stats                             - show the stored data and the latest assignments")
	fmt.Fprintln(cli.out, "  export -format FORMAT [-detailed] - export the latest assignments (csv, excel, pdf, json)")
	fmt.Fprintln(cli.out, "  reassign -mentor FACULTY_ID       - remove a mentor and assign all students again")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	runCmd := flag.NewFlagSet("run", flag.ContinueOnError)
	runSample := runCmd.Bool("sample", false, "Create sample data before running.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportFormat := exportCmd.String("format", "", "Report format: csv, excel, pdf or json.")
	exportDetailed := exportCmd.Bool("detailed", false, "Export one row per student instead of the summary (csv or excel).")

	reassignCmd := flag.NewFlagSet("reassign", flag.ContinueOnError)
	reassignMentor := reassignCmd.String("mentor", "", "Faculty ID of the mentor to remove.")

	for _, fs := range []*flag.FlagSet{runCmd, exportCmd, reassignCmd} {
		fs.SetOutput(cli.out)
	}

	ctx := context.Background()
	switch args[1] {
	case "run":
		if err := runCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.runAssignment(ctx, *runSample)
	case "sample":
		return cli.createSampleData(ctx)
	case "stats":
		return cli.stats(ctx)
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportFormat == "" {
			exportCmd.Usage()
			return errHelp
		}
		format, err := export.ParseFormat(*exportFormat)
		if err != nil {
			return err
		}
		return cli.export(ctx, format, *exportDetailed)
	case "reassign":
		if err := reassignCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *reassignMentor == "" {
			reassignCmd.Usage()
			return errHelp
		}
		return cli.reassign(ctx, *reassignMentor)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) createSampleData(ctx context.Context) error {
	students, mentors, err := cli.svc.CreateSampleData(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Sample data created: %d students, %d mentors in %s\n", len(students), len(mentors), cli.store.Dir())
	return nil
}

func (cli *commandLine) runAssignment(ctx context.Context, sample bool) error {
	if sample {
		if err := cli.createSampleData(ctx); err != nil {
			return err
		}
	}
	if err := cli.printDataSummary(); err != nil {
		return err
	}

	summary, err := cli.svc.Run(ctx)
	if err != nil {
		return err
	}
	cli.printResults(*summary)
	return cli.generateReports(*summary)
}

func (cli *commandLine) reassign(ctx context.Context, facultyID string) error {
	summary, err := cli.svc.Reassign(ctx, facultyID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Mentor %s removed, students reassigned.\n", facultyID)
	cli.printResults(*summary)
	return nil
}

func (cli *commandLine) stats(ctx context.Context) error {
	if err := cli.printDataSummary(); err != nil {
		return err
	}
	summary, err := cli.svc.Latest(ctx)
	if err != nil {
		return err
	}
	if summary == nil {
		fmt.Fprintln(cli.out, "No assignments yet.")
		return nil
	}
	cli.printResults(*summary)
	return nil
}

func (cli *commandLine) export(ctx context.Context, format export.Format, detailed bool) error {
	var path string
	if detailed {
		students, err := cli.svc.Students()
		if err != nil {
			return err
		}
		mentors, err := cli.svc.Mentors()
		if err != nil {
			return err
		}
		if path, err = cli.exporter.ExportDetailed(students, mentors, format); err != nil {
			return err
		}
	} else {
		summary, err := cli.svc.Latest(ctx)
		if err != nil {
			return err
		}
		if summary == nil {
			return errors.New("no assignments to export, run an assignment first")
		}
		if path, err = cli.exporter.ExportSummary(*summary, format); err != nil {
			return err
		}
	}
	fmt.Fprintf(cli.out, "Report generated: %s\n", path)
	return nil
}

func (cli *commandLine) generateReports(summary models.AssignmentSummary) error {
	paths := cli.exporter.ExportAll(summary, cli.formats)
	for _, f := range cli.formats {
		if p, ok := paths[f]; ok {
			fmt.Fprintf(cli.out, "Report generated: %s\n", p)
		}
	}

	students, err := cli.svc.Students()
	if err != nil {
		return err
	}
	mentors, err := cli.svc.Mentors()
	if err != nil {
		return err
	}
	detailed, err := cli.exporter.ExportDetailed(students, mentors, export.FormatCSV)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Detailed report generated: %s\n", detailed)
	return nil
}
