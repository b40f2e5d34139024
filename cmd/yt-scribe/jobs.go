package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/jobs"
)

var (
	jobsListStatus string
	cleanDays      int
)

func init() {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage background jobs",
	}
	rootCmd.AddCommand(jobsCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE:  runJobsList,
	}
	listCmd.Flags().StringVar(&jobsListStatus, "status", "", "filter by status (running, completed, failed, stopped)")
	jobsCmd.AddCommand(listCmd)

	attachCmd := &cobra.Command{
		Use:   "attach JOB_ID",
		Short: "Stream a job's log until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobsAttach,
	}
	jobsCmd.AddCommand(attachCmd)

	stopCmd := &cobra.Command{
		Use:   "stop JOB_ID",
		Short: "Stop a running job",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobsStop,
	}
	jobsCmd.AddCommand(stopCmd)

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete old finished jobs and their logs",
		RunE:  runJobsClean,
	}
	cleanCmd.Flags().IntVar(&cleanDays, "days", jobs.DefaultRetentionDays, "delete jobs finished more than this many days ago")
	jobsCmd.AddCommand(cleanCmd)
}

func runJobsList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.supervisor.List(domain.JobStatus(jobsListStatus))
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No jobs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPROGRESS\tSTARTED\tCOMMAND")
	for _, job := range list {
		progressCol := "-"
		if job.Total > 0 {
			progressCol = fmt.Sprintf("%d/%d", job.Done, job.Total)
			if job.Errors > 0 {
				progressCol += fmt.Sprintf(" (%d err)", job.Errors)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			job.ShortID(), job.Status, progressCol,
			humanize.Time(job.StartedAt), job.Command)
	}
	return w.Flush()
}

func runJobsAttach(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.supervisor.Attach(ctx, args[0], os.Stdout, os.Stderr)
}

func runJobsStop(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	job, err := a.supervisor.Stop(args[0])
	if err != nil {
		return err
	}
	if job.Status == domain.JobFailed {
		fmt.Printf("Job %s had already died; marked failed\n", job.ShortID())
		return nil
	}
	fmt.Printf("Stop requested for job %s (PID %d)\n", job.ShortID(), job.PID)
	return nil
}

func runJobsClean(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	retention := time.Duration(cleanDays) * 24 * time.Hour
	removed, err := a.supervisor.Cleanup(retention)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d finished jobs\n", removed)
	return nil
}
