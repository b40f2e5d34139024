package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"github.com/ytscribe/ytscribe/internal/config"
)

const (
	maxRateLimitRetries = 3
	initialBackoff      = 5 * time.Second
	maxBackoff          = 60 * time.Second
	callTimeout         = 120 * time.Second
)

// RateLogger records successful external calls for rate monitoring.
// *store.Store satisfies it.
type RateLogger interface {
	LogRequest(requestType string) error
}

// execFunc runs one yt-dlp invocation and returns its captured output.
// A non-zero exit is not an error here; classification happens on the
// stderr text.
type execFunc func(ctx context.Context, dir string, args []string) (stdout, stderr string, err error)

// Runner invokes yt-dlp with rate-limit backoff and error
// classification. One Runner is shared by the fetcher and the
// transcriber.
type Runner struct {
	cookiesBrowser string
	poToken        string
	sleepRequests  string
	sleepSubtitles string

	// RateLog, when set, receives one entry per successful call.
	// Failures to log never fail the call itself.
	RateLog RateLogger

	run   execFunc
	sleep func(time.Duration)
}

// NewRunner creates a Runner configured from the youtube config section
func NewRunner(cfg config.YouTubeConfig) *Runner {
	return &Runner{
		cookiesBrowser: cfg.CookiesBrowser,
		poToken:        cfg.POToken,
		sleepRequests:  cfg.SleepRequests,
		sleepSubtitles: cfg.SleepSubtitles,
		run:            runYtDlp,
		sleep:          time.Sleep,
	}
}

// BaseArgs returns the yt-dlp arguments common to every invocation:
// in-run sleep flags to stay under YouTube's adaptive rate limiter,
// plus optional cookies and PO token.
func (r *Runner) BaseArgs() []string {
	sleepRequests := r.sleepRequests
	if sleepRequests == "" {
		sleepRequests = "1"
	}
	sleepSubtitles := r.sleepSubtitles
	if sleepSubtitles == "" {
		sleepSubtitles = "3"
	}

	args := []string{
		"--sleep-requests", sleepRequests,
		"--sleep-subtitles", sleepSubtitles,
	}
	if r.cookiesBrowser != "" {
		args = append(args, "--cookies-from-browser", r.cookiesBrowser)
	}
	if r.poToken != "" {
		args = append(args, "--extractor-args", "youtube:po_token="+r.poToken)
	}
	return args
}

// RunWithBackoff runs a yt-dlp command, retrying on HTTP 429 with
// exponential backoff (5s doubling, capped at 60s, budget of 3
// retries). Policy-classified failures (age restriction, auth
// required, bot detection) fail immediately with a *PolicyError.
// Generic failures come back as stderr text with a nil error for the
// caller to interpret. Timeouts surface as ErrTimeout.
func (r *Runner) RunWithBackoff(ctx context.Context, dir, label, url string, args []string) (string, string, error) {
	backoff := initialBackoff
	for attempt := 0; attempt <= maxRateLimitRetries; attempt++ {
		stdout, stderr, err := r.run(ctx, dir, args)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				slog.Warn("yt-dlp timed out", "label", label, "url", url)
				return "", "", ErrTimeout
			}
			return "", "", err
		}

		if IsRateLimited(stderr) {
			if attempt < maxRateLimitRetries {
				slog.Warn("rate limited, backing off",
					"label", label, "url", url, "backoff", backoff)
				r.sleep(backoff)
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			slog.Error("rate limited after all retries", "label", label, "url", url)
			return "", "", &RateLimitError{URL: url, Retries: maxRateLimitRetries}
		}

		if r.RateLog != nil {
			if lerr := r.RateLog.LogRequest(label); lerr != nil {
				slog.Debug("rate log write failed", "error", lerr)
			}
		}

		if perr := ClassifyError(url, stderr); perr != nil {
			return "", "", perr
		}
		return stdout, stderr, nil
	}
	return "", "", nil
}

func runYtDlp(ctx context.Context, dir string, args []string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", "", context.DeadlineExceeded
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// yt-dlp missing or unrunnable; exit-status failures are
		// reported through stderr instead.
		return "", "", err
	}
	return stdout.String(), stderr.String(), nil
}
