// Package scorer rates summary quality on a 0.0-1.0 scale. Two
// tiers: a pure-heuristic score (length ratio, repetition, key-term
// coverage, structure) and a small LLM self-check, blended 0.4/0.6.
// When the LLM call fails the heuristic score stands alone.
package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ytscribe/ytscribe/internal/store"
)

const scorePrompt = "Rate this summary of a video transcript on a scale of 1-5 for each criterion:\n" +
	"- Completeness: Does it cover the main topics of the transcript?\n" +
	"- Coherence: Does it read naturally and logically?\n" +
	"- Faithfulness: Does it only state things from the transcript (no hallucinations)?\n\n" +
	"Return ONLY three numbers separated by spaces, e.g.: 4 3 5\n" +
	"Do not include any other text."

// maxExcerptChars bounds how much transcript text the self-check
// call sees; scoring does not need the full transcript.
const maxExcerptChars = 3000

// Completer is the LLM call the scorer depends on; *llm.Client
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Scores is the outcome of scoring one summary. LLM is nil when the
// self-check failed or was skipped; Quality is the 0.4/0.6 blend, or
// just the heuristic score when LLM is nil.
type Scores struct {
	Heuristic float64
	LLM       *float64
	Quality   float64
}

// Scorer scores stored summaries against their transcripts
type Scorer struct {
	client  Completer
	store   *store.Store
	skipLLM bool
}

// New creates a Scorer. With skipLLM the quality score is heuristic
// only and no LLM calls are made.
func New(client Completer, st *store.Store, skipLLM bool) *Scorer {
	return &Scorer{client: client, store: st, skipLLM: skipLLM}
}

// Score computes quality scores for a summary of the given transcript
func (s *Scorer) Score(ctx context.Context, summary, transcript string) Scores {
	h := HeuristicScore(summary, transcript)
	if s.skipLLM {
		return Scores{Heuristic: h, Quality: h}
	}
	l := s.llmScore(ctx, summary, transcript)
	if l == nil {
		return Scores{Heuristic: h, Quality: h}
	}
	return Scores{
		Heuristic: h,
		LLM:       l,
		Quality:   round4(0.4*h + 0.6**l),
	}
}

// ScoreVideo scores an existing summary for a video and persists the
// result. Fails when the video has no summary or no transcript.
func (s *Scorer) ScoreVideo(ctx context.Context, videoID string) (Scores, error) {
	sum, err := s.store.GetSummary(videoID)
	if err != nil {
		return Scores{}, err
	}
	if sum == nil {
		return Scores{}, fmt.Errorf("no summary stored for %s", videoID)
	}
	transcript, err := s.store.GetTranscript(videoID)
	if err != nil {
		return Scores{}, err
	}
	if transcript == nil {
		return Scores{}, fmt.Errorf("no transcript stored for %s", videoID)
	}

	scores := s.Score(ctx, sum.Text, transcript.Text)
	if err := s.store.UpdateSummaryScores(videoID, scores.Quality, scores.Heuristic, scores.LLM); err != nil {
		return Scores{}, err
	}
	slog.Info("summary scored", "video", videoID,
		"quality", scores.Quality, "heuristic", scores.Heuristic)
	return scores, nil
}

// llmScore asks the model to rate the summary 1-5 on three criteria
// and normalizes the average to 0.0-1.0. Returns nil when the call
// fails or the reply is unparseable; scoring then degrades to the
// heuristic tier instead of erroring the whole item.
func (s *Scorer) llmScore(ctx context.Context, summary, transcript string) *float64 {
	excerpt := transcript
	if len(excerpt) > maxExcerptChars {
		excerpt = excerpt[:maxExcerptChars] + "\n\n[transcript truncated for scoring]"
	}
	user := "Transcript excerpt:\n" + excerpt + "\n\nSummary:\n" + summary

	reply, err := s.client.Complete(ctx, scorePrompt, user)
	if err != nil {
		slog.Warn("scoring call failed, using heuristic only", "error", err)
		return nil
	}
	completeness, coherence, faithfulness, ok := parseRating(reply)
	if !ok {
		slog.Warn("unparseable scoring reply, using heuristic only", "reply", truncate(reply, 200))
		return nil
	}
	avg := float64(completeness+coherence+faithfulness) / 3.0
	normalized := round4((avg - 1.0) / 4.0)
	return &normalized
}

var ratingDigits = regexp.MustCompile(`\d+`)

// parseRating extracts three 1-5 ratings from a "4 3 5" style reply
func parseRating(text string) (completeness, coherence, faithfulness int, ok bool) {
	nums := ratingDigits.FindAllString(text, 3)
	if len(nums) < 3 {
		return 0, 0, 0, false
	}
	vals := make([]int, 3)
	for i, n := range nums {
		v, err := strconv.Atoi(n)
		if err != nil || v < 1 || v > 5 {
			return 0, 0, 0, false
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], true
}

// HeuristicScore computes the LLM-free quality score for a summary:
// length ratio (0.3), repetition (0.2), key-term coverage (0.3) and
// structure (0.2), each 0.0-1.0.
func HeuristicScore(summary, transcript string) float64 {
	score := 0.3*lengthRatioScore(len(summary), len(transcript)) +
		0.2*repetitionScore(summary) +
		0.3*keyTermCoverage(summary, transcript) +
		0.2*structureScore(summary)
	return round4(score)
}

// lengthRatioScore rewards a summary/transcript ratio around
// 0.02-0.10; far shorter or far longer is penalized.
func lengthRatioScore(summaryLen, transcriptLen int) float64 {
	if transcriptLen <= 0 {
		return 0.5
	}
	ratio := float64(summaryLen) / float64(transcriptLen)
	switch {
	case ratio >= 0.02 && ratio <= 0.10:
		return 1.0
	case (ratio >= 0.01 && ratio < 0.02) || (ratio > 0.10 && ratio <= 0.20):
		return 0.7
	case ratio < 0.01:
		return 0.3
	default:
		return 0.4
	}
}

var sentenceSplit = regexp.MustCompile(`[.!?]\s+`)

// repetitionScore is the unique-sentence ratio; heavy repetition
// usually means the model looped.
func repetitionScore(summary string) float64 {
	sentences := splitSentences(summary)
	if len(sentences) <= 1 {
		return 0.5
	}
	unique := make(map[string]bool, len(sentences))
	for _, s := range sentences {
		unique[s] = true
	}
	ratio := float64(len(unique)) / float64(len(sentences))
	return math.Min(ratio, 1.0)
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplit.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var wordPattern = regexp.MustCompile(`[a-z]{4,}`)

var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "your": true,
	"have": true, "will": true, "been": true, "they": true, "them": true,
	"their": true, "what": true, "when": true, "where": true, "which": true,
	"there": true, "about": true, "would": true, "could": true, "should": true,
	"into": true, "also": true, "just": true, "than": true, "more": true,
	"very": true, "some": true, "like": true, "know": true, "think": true,
	"going": true, "really": true, "because": true, "people": true, "said": true,
	"were": true, "does": true, "these": true, "those": true, "then": true,
	"here": true, "other": true, "over": true, "being": true, "even": true,
	"much": true, "only": true, "well": true, "back": true, "after": true,
	"make": true,
}

const topTermCount = 20

// keyTermCoverage measures what fraction of the transcript's most
// frequent terms appear in the summary.
func keyTermCoverage(summary, transcript string) float64 {
	counts := make(map[string]int)
	for _, w := range wordPattern.FindAllString(strings.ToLower(transcript), -1) {
		if !stopWords[w] {
			counts[w]++
		}
	}
	if len(counts) == 0 {
		return 0.5
	}

	terms := make([]string, 0, len(counts))
	for w := range counts {
		terms = append(terms, w)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > topTermCount {
		terms = terms[:topTermCount]
	}

	summaryLower := strings.ToLower(summary)
	hits := 0
	for _, t := range terms {
		if strings.Contains(summaryLower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

var (
	bulletLine  = regexp.MustCompile(`(?m)^\s*[-*•]\s`)
	headingLine = regexp.MustCompile(`(?m)^#+\s`)
)

// structureScore rewards multi-sentence summaries with bullets or
// section headings.
func structureScore(summary string) float64 {
	n := len(splitSentences(summary))
	var base float64
	switch {
	case n >= 10:
		base = 1.0
	case n >= 4:
		base = 0.8
	case n >= 2:
		base = 0.6
	default:
		base = 0.3
	}
	if bulletLine.MatchString(summary) {
		base += 0.1
	}
	if headingLine.MatchString(summary) {
		base += 0.1
	}
	return math.Min(base, 1.0)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
