package scorer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/store"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in     string
		want   [3]int
		wantOK bool
	}{
		{"4 3 5", [3]int{4, 3, 5}, true},
		{"4, 3, 5", [3]int{4, 3, 5}, true},
		{"Completeness: 5\nCoherence: 4\nFaithfulness: 3", [3]int{5, 4, 3}, true},
		{"no numbers here", [3]int{}, false},
		{"4 3", [3]int{}, false},
		{"6 3 5", [3]int{}, false},
		{"0 3 5", [3]int{}, false},
	}
	for _, tt := range tests {
		a, b, c, ok := parseRating(tt.in)
		if ok != tt.wantOK {
			t.Errorf("parseRating(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && [3]int{a, b, c} != tt.want {
			t.Errorf("parseRating(%q) = %v, want %v", tt.in, [3]int{a, b, c}, tt.want)
		}
	}
}

func TestLengthRatioScore(t *testing.T) {
	tests := []struct {
		summaryLen, transcriptLen int
		want                      float64
	}{
		{500, 10000, 1.0},  // 5%, ideal
		{150, 10000, 0.7},  // 1.5%, short
		{50, 10000, 0.3},   // 0.5%, way too short
		{3000, 10000, 0.4}, // 30%, way too long
		{100, 0, 0.5},      // no transcript basis
	}
	for _, tt := range tests {
		if got := lengthRatioScore(tt.summaryLen, tt.transcriptLen); got != tt.want {
			t.Errorf("lengthRatioScore(%d, %d) = %v, want %v", tt.summaryLen, tt.transcriptLen, got, tt.want)
		}
	}
}

func TestRepetitionScore(t *testing.T) {
	unique := "First point here. Second point there. Third point everywhere."
	if got := repetitionScore(unique); got != 1.0 {
		t.Errorf("unique sentences = %v, want 1.0", got)
	}

	looped := strings.Repeat("Same thing. ", 4)
	if got := repetitionScore(looped); got >= 0.5 {
		t.Errorf("looped sentences = %v, want < 0.5", got)
	}

	if got := repetitionScore("One sentence only"); got != 0.5 {
		t.Errorf("single sentence = %v, want 0.5", got)
	}
}

func TestStructureScore(t *testing.T) {
	single := "Just one sentence"
	if got := structureScore(single); got != 0.3 {
		t.Errorf("single sentence = %v, want 0.3", got)
	}

	bullets := "Overview of the talk. Key points below.\n- first\n- second\nDone now. Truly done."
	plain := "Overview of the talk. Key points below. More prose here. Done now. Truly done."
	if structureScore(bullets) <= structureScore(plain) {
		t.Errorf("bullets (%v) should outscore plain prose (%v)",
			structureScore(bullets), structureScore(plain))
	}
}

func TestKeyTermCoverage(t *testing.T) {
	transcript := strings.Repeat("dopamine motivation reward pathways brain chemistry ", 30)
	covering := "The talk explains dopamine, motivation, reward pathways and brain chemistry."
	missing := "A video about something else entirely unrelated."

	if got := keyTermCoverage(covering, transcript); got < 0.8 {
		t.Errorf("covering summary = %v, want >= 0.8", got)
	}
	if got := keyTermCoverage(missing, transcript); got > 0.2 {
		t.Errorf("off-topic summary = %v, want <= 0.2", got)
	}
}

func TestHeuristicScore_Bounds(t *testing.T) {
	transcript := strings.Repeat("the speaker explains dopamine pathways and motivation research in detail ", 100)
	summary := "The speaker covers dopamine pathways. Motivation research is explained. " +
		"Several experiments are described. The conclusion ties it together."

	got := HeuristicScore(summary, transcript)
	if got < 0.0 || got > 1.0 {
		t.Fatalf("HeuristicScore = %v, out of [0,1]", got)
	}
	if got < 0.5 {
		t.Errorf("decent summary scored %v, want >= 0.5", got)
	}
}

func TestScore_BlendsLLMRating(t *testing.T) {
	fc := &fakeCompleter{reply: "4 4 4"}
	s := New(fc, nil, false)

	scores := s.Score(context.Background(), "A fine summary. It has parts. Many parts. Truly.", strings.Repeat("words about parts and things ", 50))
	if scores.LLM == nil {
		t.Fatal("LLM score is nil, want parsed rating")
	}
	if *scores.LLM != 0.75 { // (4-1)/4
		t.Errorf("LLM score = %v, want 0.75", *scores.LLM)
	}
	want := round4(0.4*scores.Heuristic + 0.6*0.75)
	if scores.Quality != want {
		t.Errorf("Quality = %v, want blend %v", scores.Quality, want)
	}
}

func TestScore_FallsBackWhenLLMFails(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("connection refused")}
	s := New(fc, nil, false)

	scores := s.Score(context.Background(), "Summary text here. More text.", "transcript text")
	if scores.LLM != nil {
		t.Errorf("LLM score = %v, want nil on failure", *scores.LLM)
	}
	if scores.Quality != scores.Heuristic {
		t.Errorf("Quality = %v, want heuristic %v", scores.Quality, scores.Heuristic)
	}
}

func TestScore_SkipLLMMakesNoCalls(t *testing.T) {
	fc := &fakeCompleter{reply: "5 5 5"}
	s := New(fc, nil, true)

	scores := s.Score(context.Background(), "Summary.", "transcript")
	if fc.calls != 0 {
		t.Errorf("completer called %d times with skipLLM, want 0", fc.calls)
	}
	if scores.LLM != nil {
		t.Error("LLM score set with skipLLM")
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedSummarized(t *testing.T, st *store.Store, videoID string) {
	t.Helper()
	if err := st.UpsertChannel(&domain.Channel{ID: "@chan", URL: "https://youtube.com/@chan"}); err != nil {
		t.Fatal(err)
	}
	if err := st.UpsertVideo(&domain.Video{ID: videoID, ChannelID: "@chan", URL: "https://youtube.com/watch?v=" + videoID}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveTranscript(&domain.Transcript{
		VideoID: videoID,
		Text:    strings.Repeat("the speaker explains dopamine pathways in the brain ", 60),
		Format:  "vtt",
	}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveSummary(&domain.Summary{
		VideoID: videoID,
		Text:    "The talk covers dopamine pathways. The brain chemistry is explained. The speaker concludes.",
		Model:   "test-model",
	}); err != nil {
		t.Fatal(err)
	}
}

func TestScoreVideo_Persists(t *testing.T) {
	st := newTestStore(t)
	seedSummarized(t, st, "video001")

	s := New(&fakeCompleter{reply: "4 3 5"}, st, false)
	scores, err := s.ScoreVideo(context.Background(), "video001")
	if err != nil {
		t.Fatal(err)
	}
	if scores.Quality <= 0 {
		t.Errorf("Quality = %v, want > 0", scores.Quality)
	}

	sum, err := st.GetSummary("video001")
	if err != nil {
		t.Fatal(err)
	}
	if sum.QualityScore == nil || *sum.QualityScore != scores.Quality {
		t.Errorf("persisted quality = %v, want %v", sum.QualityScore, scores.Quality)
	}
	if sum.HeuristicScore == nil || sum.LLMScore == nil {
		t.Error("heuristic or llm score not persisted")
	}
}

func TestScoreVideo_NoSummary(t *testing.T) {
	st := newTestStore(t)

	s := New(&fakeCompleter{reply: "4 4 4"}, st, true)
	if _, err := s.ScoreVideo(context.Background(), "absent"); err == nil {
		t.Error("ScoreVideo on missing summary should fail")
	}
}
