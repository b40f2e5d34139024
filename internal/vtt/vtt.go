// Package vtt extracts plain text segments from WebVTT/SRT subtitle
// content, including the rolling duplicate cues YouTube auto-captions
// produce.
package vtt

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Segment is one subtitle cue with its time range in seconds
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Timestamp lines: 00:00:00.000 --> 00:00:05.000 (SRT uses commas,
// VTT short form drops the hour).
var tsLineRe = regexp.MustCompile(
	`(\d{2}:\d{2}(?::\d{2})?[.,]\d{3})\s*-->\s*(\d{2}:\d{2}(?::\d{2})?[.,]\d{3})`)

// Inline VTT tags to strip: <00:00:00.000>, <c>, </c>, etc.
var inlineTagRe = regexp.MustCompile(`<[^>]+>`)

var seqNumRe = regexp.MustCompile(`^\d+$`)
var cueSettingRe = regexp.MustCompile(`^\s*(?:align|position|line|size):`)

// ParseSegments parses raw VTT or SRT content into segments,
// merging consecutive cues with identical text (common in
// auto-captions) by extending the previous segment's end time.
// Unrecognized formats yield nil.
func ParseSegments(raw, format string) []Segment {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if format != "vtt" && format != "srt" {
		return nil
	}

	var segments []Segment
	lines := strings.Split(raw, "\n")
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		m := tsLineRe.FindStringSubmatch(line)
		if m == nil {
			i++
			continue
		}
		start := parseTimestamp(m[1])
		end := parseTimestamp(m[2])

		var parts []string
		i++
		for i < len(lines) {
			tl := strings.TrimSpace(lines[i])
			if tl == "" || tsLineRe.MatchString(tl) || seqNumRe.MatchString(tl) {
				break
			}
			if cueSettingRe.MatchString(tl) {
				i++
				continue
			}
			if cleaned := strings.TrimSpace(inlineTagRe.ReplaceAllString(tl, "")); cleaned != "" {
				parts = append(parts, cleaned)
			}
			i++
		}

		text := strings.Join(parts, " ")
		if text == "" {
			continue
		}
		if len(segments) > 0 && segments[len(segments)-1].Text == text {
			segments[len(segments)-1].End = round3(end)
			continue
		}
		segments = append(segments, Segment{
			Start: round3(start),
			End:   round3(end),
			Text:  text,
		})
	}
	return segments
}

// Text returns the deduplicated transcript text of raw subtitle
// content as one space-joined string.
func Text(raw, format string) string {
	segments := ParseSegments(raw, format)
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, seg.Text)
	}
	return strings.Join(parts, " ")
}

// parseTimestamp converts HH:MM:SS.mmm, HH:MM:SS,mmm, or MM:SS.mmm to
// seconds.
func parseTimestamp(ts string) float64 {
	ts = strings.ReplaceAll(ts, ",", ".")
	parts := strings.Split(ts, ":")
	switch len(parts) {
	case 3:
		h, _ := strconv.Atoi(parts[0])
		m, _ := strconv.Atoi(parts[1])
		s, _ := strconv.ParseFloat(parts[2], 64)
		return float64(h)*3600 + float64(m)*60 + s
	case 2:
		m, _ := strconv.Atoi(parts[0])
		s, _ := strconv.ParseFloat(parts[1], 64)
		return float64(m)*60 + s
	}
	return 0
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
