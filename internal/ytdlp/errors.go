package ytdlp

import (
	"errors"
	"fmt"
	"strings"
)

// PolicyKind classifies yt-dlp failures that retrying cannot fix:
// YouTube's answer will not change without operator intervention.
type PolicyKind string

const (
	PolicyAgeRestricted PolicyKind = "age_restricted"
	PolicyAuthRequired  PolicyKind = "auth_required"
	PolicyBotDetected   PolicyKind = "bot_detected"
)

// ErrTimeout indicates the yt-dlp call exceeded its time budget.
// Callers treat it like any other transient per-item failure.
var ErrTimeout = errors.New("yt-dlp call timed out")

// RateLimitError is returned when the retry budget for HTTP 429
// responses is exhausted.
type RateLimitError struct {
	URL     string
	Retries int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf(
		"YouTube rate-limited (HTTP 429) after %d retries for %s. "+
			"Try again later, reduce --concurrency, or set a cookies browser for higher rate limits.",
		e.Retries, e.URL)
}

// PolicyError is a terminal, never-retried failure with remediation
// guidance for the operator.
type PolicyError struct {
	Kind PolicyKind
	URL  string
}

func (e *PolicyError) Error() string {
	var what string
	switch e.Kind {
	case PolicyAgeRestricted:
		what = "this video is age-restricted; YouTube requires authentication"
	case PolicyAuthRequired:
		what = "YouTube requires authentication for this content"
	case PolicyBotDetected:
		what = "YouTube detected automated access and is blocking requests; this usually means you need a PO (proof of origin) token"
	default:
		what = "YouTube blocked this request"
	}
	return fmt.Sprintf("%s (%s)\n%s", what, e.URL, authGuidance)
}

const authGuidance = "  set cookies_browser = \"chrome\" (or firefox/safari) in the [youtube] config section\n" +
	"  set po_token = \"web.subs+<token>\" (proof of origin)\n" +
	"  PO token guide: https://github.com/yt-dlp/yt-dlp/wiki/PO-Token-Guide"

var agePatterns = []string{
	"age-restricted",
	"age restricted",
	"sign in to confirm your age",
	"age gate",
	"age verification",
}

var authPatterns = []string{
	"sign in to confirm",
	"login required",
	"account required",
	"this video requires payment",
	"join this channel",
	"members only",
	"private video",
}

var botPatterns = []string{
	"confirm you're not a bot",
	"unusual traffic",
	"automated",
	"captcha",
	"forbidden",
	"403",
}

// IsRateLimited reports whether stderr indicates a YouTube rate limit
// (HTTP 429 or similar).
func IsRateLimited(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "429") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "rate limit")
}

// ClassifyError inspects stderr for authentication, age-restriction,
// and bot-detection patterns. It returns a *PolicyError for those, or
// nil for generic output the caller handles itself. Rate limits are
// checked separately via IsRateLimited.
func ClassifyError(url, stderr string) error {
	lower := strings.ToLower(stderr)
	for _, p := range agePatterns {
		if strings.Contains(lower, p) {
			return &PolicyError{Kind: PolicyAgeRestricted, URL: url}
		}
	}
	// Bot patterns before auth: "sign in to confirm you're not a bot"
	// would otherwise match the generic sign-in auth pattern.
	for _, p := range botPatterns {
		if strings.Contains(lower, p) {
			return &PolicyError{Kind: PolicyBotDetected, URL: url}
		}
	}
	for _, p := range authPatterns {
		if strings.Contains(lower, p) {
			return &PolicyError{Kind: PolicyAuthRequired, URL: url}
		}
	}
	return nil
}
