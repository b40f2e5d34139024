package scorer

import "strings"

// Transcript quality is scored at ingestion, before any LLM call, to
// flag garbage captions: music videos, looping auto-captions, garbled
// text. All heuristics, no model involved.

const (
	minWords  = 50
	goodWords = 200
)

// TranscriptQuality computes a 0.0-1.0 quality score for raw
// transcript text: word count (0.30), line repetition (0.25), line
// uniqueness (0.20), average word length (0.15) and punctuation
// density (0.10).
func TranscriptQuality(rawText string) float64 {
	if strings.TrimSpace(rawText) == "" {
		return 0.0
	}
	score := 0.30*wordCountScore(rawText) +
		0.25*lineRepetitionScore(rawText, false) +
		0.20*lineRepetitionScore(rawText, true) +
		0.15*avgWordLengthScore(rawText) +
		0.10*punctuationScore(rawText)
	return round4(score)
}

// wordCountScore ramps from 0 at 50 words to 1 at 200 words; fewer
// than 50 words is almost always a music video or gibberish.
func wordCountScore(text string) float64 {
	n := len(strings.Fields(text))
	if n < minWords {
		return 0.0
	}
	if n >= goodWords {
		return 1.0
	}
	return float64(n-minWords) / float64(goodWords-minWords)
}

// lineRepetitionScore is the unique-line ratio; auto-generated VTT
// repeats identical lines many times. With normalize, lines are
// lowercased first so near-duplicates collapse too.
func lineRepetitionScore(text string, normalize bool) float64 {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		if normalize {
			ln = strings.ToLower(ln)
		}
		lines = append(lines, ln)
	}
	if len(lines) == 0 {
		return 0.0
	}
	unique := make(map[string]bool, len(lines))
	for _, ln := range lines {
		unique[ln] = true
	}
	return float64(len(unique)) / float64(len(lines))
}

// avgWordLengthScore penalizes extreme average word lengths; normal
// English sits around 4.5 chars per word.
func avgWordLengthScore(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0.0
	}
	total := 0
	for _, w := range words {
		total += len(w)
	}
	avg := float64(total) / float64(len(words))
	switch {
	case avg < 1.5 || avg > 15.0:
		return 0.0
	case avg < 2.5:
		return (avg - 1.5) / 1.0
	case avg > 12.0:
		return (15.0 - avg) / 3.0
	default:
		return 1.0
	}
}

// punctuationScore targets a 1%-15% punctuation density. Zero
// punctuation is common in raw auto-captions, so it scores low but
// not fatal; excessive punctuation means garbled text.
func punctuationScore(text string) float64 {
	if text == "" {
		return 0.0
	}
	count := 0
	for _, ch := range text {
		if strings.ContainsRune(`.,;:!?"'()-`, ch) {
			count++
		}
	}
	density := float64(count) / float64(len(text))
	switch {
	case density < 0.001:
		return 0.2
	case density > 0.20:
		return 0.0
	case density > 0.15:
		return (0.20 - density) / 0.05
	default:
		return 1.0
	}
}
