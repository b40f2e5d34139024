package store

import (
	"testing"

	"github.com/ytscribe/ytscribe/internal/domain"
)

func TestUpdateSummaryScores(t *testing.T) {
	st := newTestStore(t)
	seedChannel(t, st, "vid1")
	if err := st.SaveSummary(&domain.Summary{VideoID: "vid1", Text: "a summary"}); err != nil {
		t.Fatal(err)
	}

	llmScore := 0.75
	if err := st.UpdateSummaryScores("vid1", 0.71, 0.65, &llmScore); err != nil {
		t.Fatal(err)
	}

	sum, err := st.GetSummary("vid1")
	if err != nil {
		t.Fatal(err)
	}
	if sum.QualityScore == nil || *sum.QualityScore != 0.71 {
		t.Errorf("QualityScore = %v, want 0.71", sum.QualityScore)
	}
	if sum.HeuristicScore == nil || *sum.HeuristicScore != 0.65 {
		t.Errorf("HeuristicScore = %v, want 0.65", sum.HeuristicScore)
	}
	if sum.LLMScore == nil || *sum.LLMScore != 0.75 {
		t.Errorf("LLMScore = %v, want 0.75", sum.LLMScore)
	}
}

func TestUpdateSummaryScores_NilLLM(t *testing.T) {
	st := newTestStore(t)
	seedChannel(t, st, "vid1")
	if err := st.SaveSummary(&domain.Summary{VideoID: "vid1", Text: "a summary"}); err != nil {
		t.Fatal(err)
	}

	if err := st.UpdateSummaryScores("vid1", 0.6, 0.6, nil); err != nil {
		t.Fatal(err)
	}
	sum, err := st.GetSummary("vid1")
	if err != nil {
		t.Fatal(err)
	}
	if sum.LLMScore != nil {
		t.Errorf("LLMScore = %v, want nil", *sum.LLMScore)
	}
}

func TestUpdateSummaryScores_MissingSummary(t *testing.T) {
	st := newTestStore(t)
	if err := st.UpdateSummaryScores("absent", 0.5, 0.5, nil); err == nil {
		t.Error("scoring a missing summary should fail")
	}
}

func TestListUnscoredSummaries(t *testing.T) {
	st := newTestStore(t)
	seedChannel(t, st, "vid1", "vid2", "vid3")
	for _, id := range []string{"vid1", "vid2"} {
		if err := st.SaveSummary(&domain.Summary{VideoID: id, Text: "s"}); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := st.ListUnscoredSummaries()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("unscored = %v, want vid1 and vid2", ids)
	}

	if err := st.UpdateSummaryScores("vid1", 0.8, 0.8, nil); err != nil {
		t.Fatal(err)
	}
	ids, err = st.ListUnscoredSummaries()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "vid2" {
		t.Errorf("unscored after scoring vid1 = %v, want [vid2]", ids)
	}
}

func TestScoreStats(t *testing.T) {
	st := newTestStore(t)
	seedChannel(t, st, "vid1", "vid2")

	scored, avg, err := st.ScoreStats()
	if err != nil {
		t.Fatal(err)
	}
	if scored != 0 || avg != 0 {
		t.Errorf("empty stats = (%d, %v), want (0, 0)", scored, avg)
	}

	for i, id := range []string{"vid1", "vid2"} {
		if err := st.SaveSummary(&domain.Summary{VideoID: id, Text: "s"}); err != nil {
			t.Fatal(err)
		}
		if err := st.UpdateSummaryScores(id, 0.6+float64(i)*0.2, 0.5, nil); err != nil {
			t.Fatal(err)
		}
	}

	scored, avg, err = st.ScoreStats()
	if err != nil {
		t.Fatal(err)
	}
	if scored != 2 {
		t.Errorf("scored = %d, want 2", scored)
	}
	if avg < 0.69 || avg > 0.71 {
		t.Errorf("avg = %v, want 0.7", avg)
	}
}

func TestSaveTranscript_QualityScoreRoundTrip(t *testing.T) {
	st := newTestStore(t)
	seedChannel(t, st, "vid1")

	if err := st.SaveTranscript(&domain.Transcript{VideoID: "vid1", Text: "text", Format: "vtt", QualityScore: 0.42}); err != nil {
		t.Fatal(err)
	}
	tr, err := st.GetTranscript("vid1")
	if err != nil {
		t.Fatal(err)
	}
	if tr.QualityScore != 0.42 {
		t.Errorf("QualityScore = %v, want 0.42", tr.QualityScore)
	}
}
