package scorer

import (
	"fmt"
	"strings"
	"testing"
)

// speechText builds n distinct sentence lines resembling a normal
// auto-caption transcript.
func speechText(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "In this section the speaker explains idea number %d, with some detail and an example.\n", i)
	}
	return b.String()
}

func TestTranscriptQuality_Empty(t *testing.T) {
	if got := TranscriptQuality(""); got != 0.0 {
		t.Errorf("empty text = %v, want 0", got)
	}
	if got := TranscriptQuality("   \n  "); got != 0.0 {
		t.Errorf("whitespace text = %v, want 0", got)
	}
}

func TestTranscriptQuality_GoodSpeech(t *testing.T) {
	got := TranscriptQuality(speechText(40))
	if got < 0.7 {
		t.Errorf("normal speech = %v, want >= 0.7", got)
	}
}

func TestTranscriptQuality_LoopingCaptions(t *testing.T) {
	looping := TranscriptQuality(strings.Repeat("na na na na na\n", 100))
	good := TranscriptQuality(speechText(40))
	if looping >= good {
		t.Errorf("looping captions (%v) should score below normal speech (%v)", looping, good)
	}
	if looping > 0.5 {
		t.Errorf("looping captions = %v, want <= 0.5", looping)
	}
}

func TestTranscriptQuality_TooShort(t *testing.T) {
	if got := TranscriptQuality("just a few words here"); got > 0.4 {
		t.Errorf("tiny transcript = %v, want low score", got)
	}
}

func TestWordCountScore(t *testing.T) {
	if got := wordCountScore(strings.Repeat("word ", 49)); got != 0.0 {
		t.Errorf("49 words = %v, want 0", got)
	}
	if got := wordCountScore(strings.Repeat("word ", 200)); got != 1.0 {
		t.Errorf("200 words = %v, want 1", got)
	}
	mid := wordCountScore(strings.Repeat("word ", 125))
	if mid <= 0.0 || mid >= 1.0 {
		t.Errorf("125 words = %v, want between 0 and 1", mid)
	}
}

func TestAvgWordLengthScore(t *testing.T) {
	if got := avgWordLengthScore("normal english words appear here"); got != 1.0 {
		t.Errorf("normal words = %v, want 1.0", got)
	}
	if got := avgWordLengthScore("a a a a a a"); got != 0.0 {
		t.Errorf("single chars = %v, want 0.0", got)
	}
	garbled := strings.Repeat("aaaaaaaaaaaaaaaaaaaaaaaa ", 10)
	if got := avgWordLengthScore(garbled); got != 0.0 {
		t.Errorf("garbled long words = %v, want 0.0", got)
	}
}
