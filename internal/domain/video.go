package domain

import "time"

// Channel is a YouTube channel tracked by the catalog
type Channel struct {
	ID        string
	URL       string
	Title     string
	FetchedAt time.Time
}

// Video is one catalog entry belonging to a channel
type Video struct {
	ID        string
	ChannelID string
	Title     string
	URL       string
	CreatedAt time.Time
}

// Transcript holds the extracted subtitle text for a video.
// QualityScore is a 0.0-1.0 heuristic computed at ingestion; it flags
// garbage transcripts (music, gibberish) before any LLM call.
type Transcript struct {
	VideoID      string
	Text         string
	Format       string // source subtitle format, e.g. "vtt"
	QualityScore float64
	CreatedAt    time.Time
}

// Summary holds the derived summary text for a video. The score
// fields stay nil until the scoring stage has run.
type Summary struct {
	VideoID        string
	Text           string
	Model          string
	QualityScore   *float64
	HeuristicScore *float64
	LLMScore       *float64
	CreatedAt      time.Time
}
