// Package transcriber implements phase 1: fetch a video's subtitles
// through yt-dlp and persist the parsed transcript.
package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/scorer"
	"github.com/ytscribe/ytscribe/internal/store"
	"github.com/ytscribe/ytscribe/internal/vtt"
	"github.com/ytscribe/ytscribe/internal/ytdlp"
)

// Language preference for the optimistic first attempt: succeeds for
// most YouTube videos with no extra metadata request.
const englishLangs = "en,a.en,en-US,en-GB,en.*"

// Transcriber downloads and stores video transcripts
type Transcriber struct {
	runner *ytdlp.Runner
	store  *store.Store
}

// New creates a Transcriber
func New(runner *ytdlp.Runner, st *store.Store) *Transcriber {
	return &Transcriber{runner: runner, store: st}
}

// Transcribe fetches subtitles for the video and saves the parsed
// transcript. Already-transcribed videos are skipped, which makes
// bulk runs resumable after a crash.
//
// Download strategy (sequential, rate-limit safe): optimistic English
// first, then all languages, then no language filter at all. Each
// call goes through the retrier's 429 backoff.
func (t *Transcriber) Transcribe(ctx context.Context, videoID string) error {
	has, err := t.store.HasTranscript(videoID)
	if err != nil {
		return err
	}
	if has {
		slog.Debug("transcript already stored, skipping", "video", videoID)
		return nil
	}

	videoURL := "https://www.youtube.com/watch?v=" + videoID
	if v, err := t.store.GetVideo(videoID); err == nil && v != nil && v.URL != "" {
		videoURL = v.URL
	}

	workDir, err := os.MkdirTemp("", "yt-scribe-subs-")
	if err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	attempts := []struct {
		label string
		langs string // empty = no --sub-langs flag
	}{
		{"subtitle_download", englishLangs},
		{"subtitle_download_all", "all"},
		{"subtitle_download_any", ""},
	}

	var lastStderr string
	for _, attempt := range attempts {
		args := t.subtitleArgs(workDir, videoURL, attempt.langs)
		_, stderr, err := t.runner.RunWithBackoff(ctx, workDir, attempt.label, videoURL, args)
		if err != nil {
			return err
		}
		lastStderr = stderr

		path, format := findSubtitleFile(workDir, videoID)
		if path == "" {
			continue
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading subtitle file: %w", err)
		}
		text := vtt.Text(string(raw), format)
		if text == "" {
			continue
		}
		quality := scorer.TranscriptQuality(text)
		if err := t.store.SaveTranscript(&domain.Transcript{
			VideoID:      videoID,
			Text:         text,
			Format:       format,
			QualityScore: quality,
		}); err != nil {
			return err
		}
		slog.Info("transcript saved", "video", videoID, "chars", len(text), "quality", quality)
		return nil
	}

	return fmt.Errorf("no subtitles available for %s: %s", videoID, firstLine(lastStderr))
}

func (t *Transcriber) subtitleArgs(workDir, videoURL, langs string) []string {
	args := append(t.runner.BaseArgs(),
		"--write-auto-sub",
		"--write-sub",
		"--skip-download",
		"--no-warnings",
		"-o", filepath.Join(workDir, "%(id)s.%(ext)s"),
		"--sub-format", "vtt/best",
	)
	if langs != "" {
		args = append(args, "--sub-langs", langs)
	}
	return append(args, videoURL)
}

// findSubtitleFile returns the first subtitle file yt-dlp wrote for
// the video, preferring VTT.
func findSubtitleFile(dir, videoID string) (path, format string) {
	for _, ext := range []string{".vtt", ".srt"} {
		matches, _ := filepath.Glob(filepath.Join(dir, videoID+"*"+ext))
		if len(matches) > 0 {
			return matches[0], strings.TrimPrefix(ext, ".")
		}
	}
	return "", ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return strings.TrimSpace(s)
}
