package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/store"
)

func exportCSV(st *store.Store, opts Options) (*Manifest, error) {
	channels, err := selectChannels(st, opts.ChannelID)
	if err != nil {
		return nil, err
	}
	exportDir, err := makeExportDir(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	sizes := make(map[string]int)

	var allVideos []*domain.Video
	for _, ch := range channels {
		videos, err := st.ListVideos(ch.ID)
		if err != nil {
			return nil, err
		}
		allVideos = append(allVideos, videos...)
	}

	// channels.csv
	channelRows := [][]string{{"id", "url", "title", "fetched_at"}}
	for _, ch := range channels {
		channelRows = append(channelRows, []string{
			ch.ID, ch.URL, ch.Title, ch.FetchedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeTable(exportDir, "channels.csv", channelRows, opts.Compress, sizes); err != nil {
		return nil, err
	}

	// videos.csv
	videoRows := [][]string{{"id", "channel_id", "url", "title", "created_at"}}
	for _, v := range allVideos {
		videoRows = append(videoRows, []string{
			v.ID, v.ChannelID, v.URL, v.Title, v.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeTable(exportDir, "videos.csv", videoRows, opts.Compress, sizes); err != nil {
		return nil, err
	}

	// transcripts.csv and summaries.csv, streamed per video
	transcriptRows := [][]string{{"video_id", "text", "format", "quality_score", "created_at"}}
	summaryRows := [][]string{{"video_id", "text", "model", "quality_score", "heuristic_score", "llm_score", "created_at"}}
	transcriptCounts := make(map[string]int)
	summaryCounts := make(map[string]int)
	for _, v := range allVideos {
		t, err := st.GetTranscript(v.ID)
		if err != nil {
			return nil, err
		}
		if t != nil {
			transcriptCounts[v.ChannelID]++
			transcriptRows = append(transcriptRows, []string{
				t.VideoID, t.Text, t.Format,
				strconv.FormatFloat(t.QualityScore, 'f', 4, 64),
				t.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		sum, err := st.GetSummary(v.ID)
		if err != nil {
			return nil, err
		}
		if sum != nil {
			summaryCounts[v.ChannelID]++
			summaryRows = append(summaryRows, []string{
				sum.VideoID, sum.Text, sum.Model,
				formatScore(sum.QualityScore),
				formatScore(sum.HeuristicScore),
				formatScore(sum.LLMScore),
				sum.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
	}
	if err := writeTable(exportDir, "transcripts.csv", transcriptRows, opts.Compress, sizes); err != nil {
		return nil, err
	}
	if err := writeTable(exportDir, "summaries.csv", summaryRows, opts.Compress, sizes); err != nil {
		return nil, err
	}

	var stats []ChannelStats
	for _, ch := range channels {
		n := 0
		for _, v := range allVideos {
			if v.ChannelID == ch.ID {
				n++
			}
		}
		stats = append(stats, ChannelStats{
			ID:          ch.ID,
			Videos:      n,
			Transcripts: transcriptCounts[ch.ID],
			Summaries:   summaryCounts[ch.ID],
		})
	}

	manifest := &Manifest{
		ExportVersion: exportVersion,
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		Format:        "csv",
		OutputDir:     exportDir,
		FileCount:     len(sizes) + 1,
		FileSizes:     sizes,
		Channels:      stats,
	}
	if err := writeJSON(filepath.Join(exportDir, "manifest.json"), manifest); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	return manifest, nil
}

func writeTable(dir, name string, rows [][]string, compress bool, sizes map[string]int) error {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return finishFile(path, dir, compress, sizes)
}
