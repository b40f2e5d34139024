// Package summarizer implements phase 2: turn a stored transcript
// into a summary via the configured LLM endpoint.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/store"
)

const systemPrompt = "You summarize video transcripts. Produce a concise summary of the key points, " +
	"claims, and takeaways in the speaker's own framing. Use short paragraphs. Do not pad."

// Completer is the LLM call the summarizer depends on; *llm.Client
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
}

// Summarizer derives summaries from stored transcripts
type Summarizer struct {
	client   Completer
	store    *store.Store
	maxChars int
}

// New creates a Summarizer. maxChars bounds how much transcript text
// is sent to the model.
func New(client Completer, st *store.Store, maxChars int) *Summarizer {
	if maxChars <= 0 {
		maxChars = 24000
	}
	return &Summarizer{client: client, store: st, maxChars: maxChars}
}

// Summarize generates and persists a summary for the video's stored
// transcript. Already-summarized videos are skipped. Returns the
// summary text.
func (s *Summarizer) Summarize(ctx context.Context, videoID string) (string, error) {
	if existing, err := s.store.GetSummary(videoID); err != nil {
		return "", err
	} else if existing != nil {
		slog.Debug("summary already stored, skipping", "video", videoID)
		return existing.Text, nil
	}

	transcript, err := s.store.GetTranscript(videoID)
	if err != nil {
		return "", err
	}
	if transcript == nil {
		return "", fmt.Errorf("no transcript stored for %s", videoID)
	}

	text := transcript.Text
	if len(text) > s.maxChars {
		// Keep the head; talk content front-loads its substance and
		// the tail is usually outro filler.
		text = text[:s.maxChars]
		slog.Debug("transcript truncated for model context", "video", videoID, "chars", s.maxChars)
	}

	summary, err := s.client.Complete(ctx, systemPrompt, text)
	if err != nil {
		return "", fmt.Errorf("summarizing %s: %w", videoID, err)
	}
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("empty summary returned for %s", videoID)
	}

	if err := s.store.SaveSummary(&domain.Summary{
		VideoID: videoID,
		Text:    summary,
		Model:   s.client.Model(),
	}); err != nil {
		return "", err
	}
	slog.Info("summary saved", "video", videoID, "chars", len(summary))
	return summary, nil
}
