package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	dataDirFlag string
	dbFlag      string
	quiet       bool
	bgFlag      bool
	bgAliasFlag bool
	bgWorkerID  string
	concurrency int

	rootCmd = &cobra.Command{
		Use:   "yt-scribe",
		Short: "Transcribe and summarize YouTube channels",
		Long: `yt-scribe fetches a channel's video list, downloads subtitles through
yt-dlp, and summarizes each transcript with an LLM. Long runs can be
detached with --bg and managed through the jobs subcommands.`,
		SilenceUsage: true,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file path")
	pf.StringVar(&dataDirFlag, "data-dir", "", "override data directory")
	pf.StringVar(&dbFlag, "db", "", "override database path")
	pf.BoolVar(&quiet, "quiet", false, "suppress hints and informational output")
	pf.BoolVar(&bgFlag, "bg", false, "run as a detached background job")
	pf.BoolVar(&bgAliasFlag, "background", false, "run as a detached background job")
	pf.StringVar(&bgWorkerID, "bg-worker", "", "internal: run as the worker for a job ID")
	pf.IntVar(&concurrency, "concurrency", 0, "worker count (default from config)")
	pf.MarkHidden("background")
	pf.MarkHidden("bg-worker")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
