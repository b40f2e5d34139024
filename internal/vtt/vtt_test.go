package vtt

import "testing"

const sampleVTT = `WEBVTT
Kind: captions
Language: en

00:00:00.000 --> 00:00:02.500
hello and welcome

00:00:02.500 --> 00:00:05.000
hello and welcome

00:00:05.000 --> 00:00:08.000
to the <c>channel</c>
`

func TestParseSegments_MergesRollingDuplicates(t *testing.T) {
	segs := ParseSegments(sampleVTT, "vtt")
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2 (duplicates merged)", len(segs))
	}

	if segs[0].Text != "hello and welcome" {
		t.Errorf("segs[0].Text = %q", segs[0].Text)
	}
	if segs[0].Start != 0 || segs[0].End != 5 {
		t.Errorf("segs[0] range = %v-%v, want 0-5 (end extended by merge)", segs[0].Start, segs[0].End)
	}
	if segs[1].Text != "to the channel" {
		t.Errorf("segs[1].Text = %q, want inline tags stripped", segs[1].Text)
	}
}

func TestParseSegments_SRT(t *testing.T) {
	srt := `1
00:00:01,000 --> 00:00:03,000
first line

2
00:00:03,000 --> 00:00:06,500
second line
`
	segs := ParseSegments(srt, "srt")
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	if segs[0].Start != 1 || segs[0].End != 3 {
		t.Errorf("segs[0] range = %v-%v, want 1-3", segs[0].Start, segs[0].End)
	}
	if segs[1].Text != "second line" {
		t.Errorf("segs[1].Text = %q", segs[1].Text)
	}
}

func TestParseSegments_SkipsCueSettings(t *testing.T) {
	raw := `WEBVTT

00:00.000 --> 00:02.000
align:start position:0%
actual caption text
`
	segs := ParseSegments(raw, "vtt")
	if len(segs) != 1 {
		t.Fatalf("segments = %d, want 1", len(segs))
	}
	if segs[0].Text != "actual caption text" {
		t.Errorf("Text = %q, want cue settings skipped", segs[0].Text)
	}
}

func TestParseSegments_Empty(t *testing.T) {
	if got := ParseSegments("", "vtt"); got != nil {
		t.Errorf("empty input = %v, want nil", got)
	}
	if got := ParseSegments("some text", "ass"); got != nil {
		t.Errorf("unknown format = %v, want nil", got)
	}
}

func TestText(t *testing.T) {
	got := Text(sampleVTT, "vtt")
	want := "hello and welcome to the channel"
	if got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		ts   string
		want float64
	}{
		{"00:00:05.500", 5.5},
		{"01:02:03.000", 3723},
		{"02:30.250", 150.25},
		{"00:00:01,500", 1.5}, // SRT comma
	}
	for _, tt := range tests {
		if got := parseTimestamp(tt.ts); got != tt.want {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.ts, got, tt.want)
		}
	}
}
