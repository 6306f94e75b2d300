package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"mentor-assign-server-go/engine"
	"mentor-assign-server-go/models"
	"mentor-assign-server-go/service"
)

var rule = strings.Repeat("=", 50)

func (cli *commandLine) printDataSummary() error {
	ov, err := cli.svc.Overview()
	if err != nil {
		return err
	}
	cfg := cli.svc.Config()

	fmt.Fprintln(cli.out, rule)
	fmt.Fprintln(cli.out, "DATA SUMMARY")
	fmt.Fprintln(cli.out, rule)
	fmt.Fprintf(cli.out, "Total Students: %d\n", ov.Data.TotalStudents)
	fmt.Fprintf(cli.out, "Total Mentors: %d\n", ov.Data.TotalMentors)
	fmt.Fprintf(cli.out, "Available Mentors: %d\n", ov.Data.AvailableMentors)
	fmt.Fprintf(cli.out, "Total Mentor Capacity: %d\n", ov.Data.TotalCapacity)
	fmt.Fprintf(cli.out, "Batch Size: %d (remainder threshold %d)\n", cfg.BatchSize, cfg.RemainderThreshold)
	if sizes, err := engine.BatchSizes(ov.Data.TotalStudents, cfg); err == nil {
		fmt.Fprintf(cli.out, "Planned Batches: %d [%s]\n", len(sizes), formatInts(sizes))
	}

	printCounts(cli, "Students by Branch:", ov.BranchCounts)
	printCounts(cli, "Mentors by Department:", ov.DepartmentCounts)
	fmt.Fprintln(cli.out, rule)
	return nil
}

func printCounts(cli *commandLine, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(cli.out)
	fmt.Fprintln(cli.out, title)
	for _, k := range keys {
		fmt.Fprintf(cli.out, "  %s: %d\n", k, counts[k])
	}
}

func (cli *commandLine) printResults(summary models.AssignmentSummary) {
	fmt.Fprintln(cli.out, rule)
	fmt.Fprintln(cli.out, "ASSIGNMENT RESULTS")
	fmt.Fprintln(cli.out, rule)
	fmt.Fprintf(cli.out, "Total Students: %d\n", summary.TotalStudents)
	fmt.Fprintf(cli.out, "Total Assignments: %d\n", len(summary.Assignments))
	fmt.Fprintf(cli.out, "Average Students per Mentor: %.2f\n", summary.AveragePerAssignment)
	fmt.Fprintf(cli.out, "Unassigned Students: %d\n", len(summary.UnassignedStudents))
	if len(summary.UnassignedStudents) > 0 {
		fmt.Fprintf(cli.out, "Unassigned Roll Numbers: %s\n", formatInts(summary.UnassignedStudents))
	}

	fmt.Fprintln(cli.out)
	fmt.Fprintln(cli.out, "Assignment Details:")
	fmt.Fprintln(cli.out, strings.Repeat("-", 30))
	for _, a := range summary.Assignments {
		fmt.Fprintf(cli.out, "Batch %d: Mentor %s -> %d students (Roll %s)\n",
			a.BatchNumber, a.MentorID, a.StudentCount(), models.RollRange(a.StudentRollNumbers))
	}

	stats := service.Statistics(summary)
	fmt.Fprintf(cli.out, "\nAssignment Efficiency: %.2f%%\n", stats.AssignmentEfficiency)
	fmt.Fprintf(cli.out, "Mentor Utilization: %.2f%%\n", stats.MentorUtilization)
	fmt.Fprintln(cli.out, rule)
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
