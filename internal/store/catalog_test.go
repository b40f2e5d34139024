package store

import (
	"testing"
	"time"

	"github.com/ytscribe/ytscribe/internal/domain"
)

func seedChannel(t *testing.T, st *Store, videoIDs ...string) {
	t.Helper()
	if err := st.UpsertChannel(&domain.Channel{ID: "UCtest", URL: "https://youtube.com/@test", Title: "Test"}); err != nil {
		t.Fatal(err)
	}
	for _, id := range videoIDs {
		v := &domain.Video{ID: id, ChannelID: "UCtest", Title: "Video " + id, URL: "https://youtu.be/" + id}
		if err := st.UpsertVideo(v); err != nil {
			t.Fatal(err)
		}
	}
}

func TestStore_ChannelAndVideos(t *testing.T) {
	st := newTestStore(t)
	seedChannel(t, st, "vid1", "vid2")

	ch, err := st.GetChannel("UCtest")
	if err != nil {
		t.Fatal(err)
	}
	if ch == nil || ch.Title != "Test" {
		t.Fatalf("GetChannel = %v, want Test", ch)
	}

	videos, err := st.ListVideos("UCtest")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 2 {
		t.Errorf("videos = %d, want 2", len(videos))
	}

	// Upsert with a new title updates in place
	if err := st.UpsertVideo(&domain.Video{ID: "vid1", ChannelID: "UCtest", Title: "Renamed", URL: "https://youtu.be/vid1"}); err != nil {
		t.Fatal(err)
	}
	v, err := st.GetVideo("vid1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", v.Title)
	}

	missing, err := st.GetChannel("UCother")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("GetChannel(UCother) = %v, want nil", missing)
	}
}

func TestStore_Transcripts(t *testing.T) {
	st := newTestStore(t)
	seedChannel(t, st, "vid1")

	has, err := st.HasTranscript("vid1")
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Error("HasTranscript before save = true, want false")
	}

	if err := st.SaveTranscript(&domain.Transcript{VideoID: "vid1", Text: "hello world", Format: "vtt"}); err != nil {
		t.Fatal(err)
	}

	has, err = st.HasTranscript("vid1")
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Error("HasTranscript after save = false, want true")
	}

	tr, err := st.GetTranscript("vid1")
	if err != nil {
		t.Fatal(err)
	}
	if tr.Text != "hello world" || tr.Format != "vtt" {
		t.Errorf("transcript = %q (%s), want hello world (vtt)", tr.Text, tr.Format)
	}

	// Replace is idempotent
	if err := st.SaveTranscript(&domain.Transcript{VideoID: "vid1", Text: "updated", Format: "srt"}); err != nil {
		t.Fatal(err)
	}
	tr, _ = st.GetTranscript("vid1")
	if tr.Text != "updated" {
		t.Errorf("transcript after replace = %q, want updated", tr.Text)
	}
}

func TestStore_ListTranscribedWithoutSummary(t *testing.T) {
	st := newTestStore(t)
	seedChannel(t, st, "vid1", "vid2", "vid3")

	// vid1: transcript + summary, vid2: transcript only, vid3: nothing
	if err := st.SaveTranscript(&domain.Transcript{VideoID: "vid1", Text: "a", Format: "vtt"}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveSummary(&domain.Summary{VideoID: "vid1", Text: "sum", Model: "mistral"}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveTranscript(&domain.Transcript{VideoID: "vid2", Text: "b", Format: "vtt"}); err != nil {
		t.Fatal(err)
	}

	ids, err := st.ListTranscribedWithoutSummary()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "vid2" {
		t.Errorf("unsummarized = %v, want [vid2]", ids)
	}

	sum, err := st.GetSummary("vid1")
	if err != nil {
		t.Fatal(err)
	}
	if sum == nil || sum.Model != "mistral" {
		t.Errorf("summary = %v, want model mistral", sum)
	}
}

func TestStore_Counts(t *testing.T) {
	st := newTestStore(t)
	seedChannel(t, st, "vid1", "vid2")
	if err := st.SaveTranscript(&domain.Transcript{VideoID: "vid1", Text: "a", Format: "vtt"}); err != nil {
		t.Fatal(err)
	}

	channels, videos, transcripts, summaries, err := st.Counts()
	if err != nil {
		t.Fatal(err)
	}
	if channels != 1 || videos != 2 || transcripts != 1 || summaries != 0 {
		t.Errorf("counts = %d/%d/%d/%d, want 1/2/1/0", channels, videos, transcripts, summaries)
	}
}

func TestStore_RequestLog(t *testing.T) {
	st := newTestStore(t)

	for i := 0; i < 3; i++ {
		if err := st.LogRequest("subtitles"); err != nil {
			t.Fatal(err)
		}
	}

	n, err := st.CountRequests(time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("CountRequests(1h) = %d, want 3", n)
	}

	// A zero-width window sees nothing
	n, err = st.CountRequests(0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("CountRequests(0) = %d, want 0", n)
	}
}
