package jobs

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// BGSuggestionThreshold is the minimum video count before the CLI
// hints at running with --bg.
const BGSuggestionThreshold = 5

// Conservative per-video wall-clock estimates
const (
	estTranscribePerVideo = 8 * time.Second  // yt-dlp subtitle fetch + parsing
	estSummarizePerVideo  = 15 * time.Second // LLM call + DB write
	estInterVideoDelay    = 2 * time.Second
)

// EstimateTime estimates total wall-clock time for a bulk operation.
// Purely advisory: it only feeds the background hint, never alters
// behavior.
func EstimateTime(nVideos int, operation string, concurrency int) time.Duration {
	var perVideo time.Duration
	switch operation {
	case "transcribe":
		perVideo = estTranscribePerVideo
	case "summarize":
		perVideo = estSummarizePerVideo
	default:
		perVideo = estTranscribePerVideo + estSummarizePerVideo
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return time.Duration(nVideos) * (perVideo + estInterVideoDelay) / time.Duration(concurrency)
}

// FormatEstimate renders a rough human-readable duration
func FormatEstimate(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// MaybeSuggestBackground prints a hint to w suggesting --bg when the
// operation looks long. Does nothing for small batches or when quiet.
func MaybeSuggestBackground(w io.Writer, nVideos int, operation string, concurrency int, argv []string, quiet bool) {
	if quiet || nVideos < BGSuggestionThreshold {
		return
	}
	est := FormatEstimate(EstimateTime(nVideos, operation, concurrency))
	cmd := append([]string{argv[0], "--bg"}, argv[1:]...)
	fmt.Fprintf(w, "\n  This will process %d videos (estimated ~%s).\n", nVideos, est)
	fmt.Fprintf(w, "  To run in background, re-run with --bg:\n")
	fmt.Fprintf(w, "    %s\n\n", strings.Join(cmd, " "))
}
