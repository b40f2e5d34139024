package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ytscribe/ytscribe/internal/config"
	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/export"
	"github.com/ytscribe/ytscribe/internal/fetcher"
	"github.com/ytscribe/ytscribe/internal/jobs"
	"github.com/ytscribe/ytscribe/internal/llm"
	"github.com/ytscribe/ytscribe/internal/pipeline"
	"github.com/ytscribe/ytscribe/internal/progress"
	"github.com/ytscribe/ytscribe/internal/ratewatch"
	"github.com/ytscribe/ytscribe/internal/schedule"
	"github.com/ytscribe/ytscribe/internal/scorer"
	"github.com/ytscribe/ytscribe/internal/summarizer"
	"github.com/ytscribe/ytscribe/internal/transcriber"
)

// interVideoDelay is the pause between transcribe submissions; spreads
// yt-dlp start times so YouTube doesn't see a burst.
const interVideoDelay = 2 * time.Second

var (
	scoreFlag      bool
	searchChannel  string
	searchLimit    int
	exportFormat   string
	exportOut      string
	exportChannel  string
	exportChunks   int
	exportCompress bool
)

func init() {
	fetchCmd := &cobra.Command{
		Use:   "fetch CHANNEL_URL",
		Short: "Fetch a channel's video list into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE:  runFetch,
	}
	rootCmd.AddCommand(fetchCmd)

	transcribeCmd := &cobra.Command{
		Use:   "transcribe CHANNEL_URL",
		Short: "Download subtitles for every video missing a transcript",
		Args:  cobra.ExactArgs(1),
		RunE:  runTranscribe,
	}
	rootCmd.AddCommand(transcribeCmd)

	summarizeCmd := &cobra.Command{
		Use:   "summarize CHANNEL_URL",
		Short: "Transcribe and summarize a channel's videos",
		Long: `Runs the full pipeline: videos without a transcript are transcribed,
and every transcript without a summary is summarized. The two phases
overlap; summaries start as soon as the first transcripts land.`,
		Args: cobra.ExactArgs(1),
		RunE: runSummarize,
	}
	summarizeCmd.Flags().BoolVar(&scoreFlag, "score", false, "score summary quality after summarizing")
	rootCmd.AddCommand(summarizeCmd)

	searchCmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Full-text search across stored transcripts",
		Long: `Searches the transcript index with FTS5 syntax: bare words,
"quoted phrases" and prefix* queries all work. Matches are ranked by
relevance and shown with a snippet.`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}
	searchCmd.Flags().StringVar(&searchChannel, "channel", "", "restrict search to one channel ID")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (default 20)")
	rootCmd.AddCommand(searchCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to JSON or CSV files",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format: json or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output directory (default <data-dir>/exports)")
	exportCmd.Flags().StringVar(&exportChannel, "channel", "", "export only this channel ID")
	exportCmd.Flags().IntVar(&exportChunks, "chunk-size", export.DefaultChunkSize, "videos per JSON chunk file")
	exportCmd.Flags().BoolVar(&exportCompress, "compress", false, "zip each data file")
	rootCmd.AddCommand(exportCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog counts, running jobs, and request rate",
		RunE:  runStatus,
	}
	rootCmd.AddCommand(statusCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the cron scheduler for configured watch entries",
		RunE:  runWatch,
	}
	rootCmd.AddCommand(watchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	f := fetcher.New(a.runner, a.store)
	ch, count, err := f.FetchChannel(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Fetched %s: %d videos\n", ch.Title, count)
	return nil
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if bgWorkerID == "" && backgroundRequested() {
		return dispatchBackground(a)
	}
	work := func() error {
		return transcribeChannel(context.Background(), a, args[0], bgWorkerID)
	}
	if bgWorkerID != "" {
		return runAsWorker(a, bgWorkerID, work)
	}
	return work()
}

func runSummarize(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if bgWorkerID == "" && backgroundRequested() {
		return dispatchBackground(a)
	}
	work := func() error {
		return summarizeChannel(context.Background(), a, args[0], bgWorkerID, bgWorkerID == "", scoreFlag)
	}
	if bgWorkerID != "" {
		return runAsWorker(a, bgWorkerID, work)
	}
	return work()
}

// ensureChannel resolves a channel URL to a catalog channel, fetching
// the video list when the channel is not known yet.
func ensureChannel(ctx context.Context, a *app, channelURL string) (*domain.Channel, error) {
	if id := fetcher.ChannelIDFromURL(channelURL); id != "" {
		ch, err := a.store.GetChannel(id)
		if err != nil {
			return nil, err
		}
		if ch != nil {
			return ch, nil
		}
	}
	ch, _, err := fetcher.New(a.runner, a.store).FetchChannel(ctx, channelURL)
	return ch, err
}

func transcribeChannel(ctx context.Context, a *app, channelURL, jobID string) error {
	ch, err := ensureChannel(ctx, a, channelURL)
	if err != nil {
		return err
	}
	videos, err := a.store.ListVideos(ch.ID)
	if err != nil {
		return err
	}

	var missing []string
	for _, v := range videos {
		has, err := a.store.HasTranscript(v.ID)
		if err != nil {
			return err
		}
		if !has {
			missing = append(missing, v.ID)
		}
	}
	if len(missing) == 0 {
		fmt.Printf("All %d videos in %s already have transcripts\n", len(videos), ch.Title)
		return nil
	}

	workers := a.workerCount()
	ratewatch.PrintWarning(os.Stderr, a.store)
	if jobID == "" {
		jobs.MaybeSuggestBackground(os.Stdout, len(missing), "transcribe", workers, os.Args, quiet)
	}

	tr := transcriber.New(a.runner, a.store)
	counter := newCounter(a, len(missing), jobID)

	result := pipeline.Run(pipeline.Options{
		TranscribeIDs: missing,
		TranscribeFn: func(videoID string) (string, error) {
			return videoID, tr.Transcribe(ctx, videoID)
		},
		TranscribeWorkers:  workers,
		InterDelay:         interVideoDelay,
		TranscribeProgress: counter,
	})

	fmt.Printf("Transcribed %d videos (%d errors) in %s\n",
		result.Transcribed, result.TranscribeErrors, jobs.FormatEstimate(result.Elapsed))
	return nil
}

func summarizeChannel(ctx context.Context, a *app, channelURL, jobID string, suggestBG, score bool) error {
	ch, err := ensureChannel(ctx, a, channelURL)
	if err != nil {
		return err
	}
	videos, err := a.store.ListVideos(ch.ID)
	if err != nil {
		return err
	}

	channelVideos := make(map[string]bool, len(videos))
	var toTranscribe []string
	for _, v := range videos {
		channelVideos[v.ID] = true
		has, err := a.store.HasTranscript(v.ID)
		if err != nil {
			return err
		}
		if !has {
			toTranscribe = append(toTranscribe, v.ID)
		}
	}

	pending, err := a.store.ListTranscribedWithoutSummary()
	if err != nil {
		return err
	}
	var immediate []string
	for _, id := range pending {
		if channelVideos[id] {
			immediate = append(immediate, id)
		}
	}

	total := len(toTranscribe) + len(immediate)
	if total == 0 {
		fmt.Printf("All %d videos in %s already summarized\n", len(videos), ch.Title)
		return nil
	}

	workers := a.workerCount()
	ratewatch.PrintWarning(os.Stderr, a.store)
	if suggestBG {
		jobs.MaybeSuggestBackground(os.Stdout, total, "summarize", workers, os.Args, quiet)
	}

	client := llm.New(a.cfg.LLM)
	tr := transcriber.New(a.runner, a.store)
	sum := summarizer.New(client, a.store, a.cfg.LLM.MaxTranscriptChars)
	transcribeWorkers, summarizeWorkers := pipeline.SplitWorkers(workers)

	// The job row tracks phase 2; every video in the work set ends
	// there or fails before it.
	summarizeCounter := newCounter(a, total, jobID)

	opts := pipeline.Options{
		TranscribeIDs: toTranscribe,
		SummarizeIDs:  immediate,
		TranscribeFn: func(videoID string) (string, error) {
			return videoID, tr.Transcribe(ctx, videoID)
		},
		SummarizeFn: func(videoID string) (string, string, error) {
			text, err := sum.Summarize(ctx, videoID)
			return videoID, text, err
		},
		PollFn:             a.store.ListTranscribedWithoutSummary,
		TranscribeWorkers:  transcribeWorkers,
		SummarizeWorkers:   summarizeWorkers,
		InterDelay:         interVideoDelay,
		TranscribeProgress: progress.New(len(toTranscribe)),
		SummarizeProgress:  summarizeCounter,
	}
	if score {
		sc := scorer.New(client, a.store, false)
		opts.ScoreFn = func(videoID string) (string, error) {
			_, err := sc.ScoreVideo(ctx, videoID)
			return videoID, err
		}
		opts.ScorePollFn = a.store.ListUnscoredSummaries
	}
	result := pipeline.Run(opts)

	fmt.Printf("Transcribed %d (%d errors), summarized %d (%d errors) in %s\n",
		result.Transcribed, result.TranscribeErrors,
		result.Summarized, result.SummarizeErrors,
		jobs.FormatEstimate(result.Elapsed))
	if score {
		fmt.Printf("Scored %d summaries (%d errors)\n", result.Scored, result.ScoreErrors)
	}
	return nil
}

// newCounter returns a progress counter, mirrored into the job row
// when running as a background worker.
func newCounter(a *app, total int, jobID string) *progress.Counter {
	if jobID != "" {
		return progress.NewForJob(total, jobID, a.store)
	}
	return progress.New(total)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.store.SearchTranscripts(args[0], searchChannel, searchLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VIDEO\tCHANNEL\tTITLE\tSNIPPET")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.VideoID, r.ChannelID, truncateCell(r.Title, 40), r.Snippet)
	}
	return w.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	outDir := exportOut
	if outDir == "" {
		outDir = filepath.Join(a.cfg.General.DataDir, "exports")
	}
	manifest, err := export.Run(a.store, export.Options{
		Format:    exportFormat,
		OutputDir: outDir,
		ChannelID: exportChannel,
		ChunkSize: exportChunks,
		Compress:  exportCompress,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d channels to %s (%d files)\n",
		len(manifest.Channels), manifest.OutputDir, manifest.FileCount)
	return nil
}

func truncateCell(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	channels, videos, transcripts, summaries, err := a.store.Counts()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Channels:\t%d\n", channels)
	fmt.Fprintf(w, "Videos:\t%d\n", videos)
	fmt.Fprintf(w, "Transcripts:\t%d\n", transcripts)
	fmt.Fprintf(w, "Summaries:\t%d\n", summaries)
	scored, avg, err := a.store.ScoreStats()
	if err != nil {
		return err
	}
	if scored > 0 {
		fmt.Fprintf(w, "Scored:\t%d (avg quality %.2f)\n", scored, avg)
	}
	w.Flush()

	running, err := a.supervisor.List(domain.JobRunning)
	if err != nil {
		return err
	}
	if len(running) > 0 {
		fmt.Printf("\nRunning jobs: %d\n", len(running))
		for _, job := range running {
			fmt.Printf("  %s  %s (%d/%d)\n", job.ShortID(), job.Command, job.Done, job.Total)
		}
	}

	st, err := ratewatch.GetStatus(a.store)
	if err != nil {
		return err
	}
	fmt.Printf("\nYouTube requests: %d last hour, %d last 24h\n", st.LastHour, st.LastDay)
	if st.Warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", st.Warning)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if len(a.cfg.Watch) == 0 {
		return fmt.Errorf("no [[watch]] entries configured")
	}
	sched, err := schedule.New(a.cfg.Watch)
	if err != nil {
		return err
	}

	for _, name := range sched.Names() {
		fmt.Printf("watching %s, next run %s\n", name, sched.NextRun(name).Format(time.RFC3339))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Run(ctx, func(ctx context.Context, entry config.WatchEntry) error {
		if _, _, err := fetcher.New(a.runner, a.store).FetchChannel(ctx, entry.ChannelURL); err != nil {
			return err
		}
		return summarizeChannel(ctx, a, entry.ChannelURL, "", false, false)
	})
	return nil
}
