package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/store"
)

// jsonChunk is one self-contained chunk file: channel metadata plus a
// slice of its videos with nested transcript and summary.
type jsonChunk struct {
	ExportVersion int          `json:"export_version"`
	ExportedAt    string       `json:"exported_at"`
	Channel       jsonChannel  `json:"channel"`
	Chunk         jsonChunkRef `json:"chunk"`
	Videos        []jsonVideo  `json:"videos"`
}

type jsonChannel struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	FetchedAt string `json:"fetched_at"`
}

type jsonChunkRef struct {
	Number      int `json:"number"`
	TotalChunks int `json:"total_chunks"`
	VideoCount  int `json:"video_count"`
}

type jsonVideo struct {
	ID         string          `json:"id"`
	URL        string          `json:"url"`
	Title      string          `json:"title,omitempty"`
	Transcript *jsonTranscript `json:"transcript"`
	Summary    *jsonSummary    `json:"summary"`
}

type jsonTranscript struct {
	Text         string  `json:"text"`
	Format       string  `json:"format"`
	QualityScore float64 `json:"quality_score"`
	CreatedAt    string  `json:"created_at"`
}

type jsonSummary struct {
	Text           string   `json:"text"`
	Model          string   `json:"model,omitempty"`
	QualityScore   *float64 `json:"quality_score"`
	HeuristicScore *float64 `json:"heuristic_score"`
	LLMScore       *float64 `json:"llm_score"`
	CreatedAt      string   `json:"created_at"`
}

func exportJSON(st *store.Store, opts Options) (*Manifest, error) {
	channels, err := selectChannels(st, opts.ChannelID)
	if err != nil {
		return nil, err
	}
	exportDir, err := makeExportDir(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	exportedAt := time.Now().UTC().Format(time.RFC3339)
	sizes := make(map[string]int)
	var stats []ChannelStats

	for _, ch := range channels {
		videos, err := st.ListVideos(ch.ID)
		if err != nil {
			return nil, err
		}
		safe := sanitizeName(ch.ID)
		chDir := filepath.Join(exportDir, safe)

		totalChunks := (len(videos) + opts.ChunkSize - 1) / opts.ChunkSize
		if totalChunks == 0 {
			totalChunks = 1
		}
		nTranscripts, nSummaries := 0, 0

		for chunkNum := 0; chunkNum < totalChunks; chunkNum++ {
			start := chunkNum * opts.ChunkSize
			end := start + opts.ChunkSize
			if end > len(videos) {
				end = len(videos)
			}
			chunkVideos := videos[start:end]
			if len(chunkVideos) == 0 {
				continue
			}

			entries := make([]jsonVideo, 0, len(chunkVideos))
			for _, v := range chunkVideos {
				entry, err := buildVideoEntry(st, v)
				if err != nil {
					return nil, err
				}
				if entry.Transcript != nil {
					nTranscripts++
				}
				if entry.Summary != nil {
					nSummaries++
				}
				entries = append(entries, entry)
			}

			chunk := jsonChunk{
				ExportVersion: exportVersion,
				ExportedAt:    exportedAt,
				Channel: jsonChannel{
					ID:        ch.ID,
					URL:       ch.URL,
					Title:     ch.Title,
					FetchedAt: ch.FetchedAt.UTC().Format(time.RFC3339),
				},
				Chunk: jsonChunkRef{
					Number:      chunkNum + 1,
					TotalChunks: totalChunks,
					VideoCount:  len(entries),
				},
				Videos: entries,
			}

			path := filepath.Join(chDir, fmt.Sprintf("%s_%03d.json", safe, chunkNum+1))
			if err := os.MkdirAll(chDir, 0o755); err != nil {
				return nil, err
			}
			if err := writeJSON(path, chunk); err != nil {
				return nil, fmt.Errorf("writing chunk %s: %w", path, err)
			}
			if err := finishFile(path, exportDir, opts.Compress, sizes); err != nil {
				return nil, err
			}
		}

		chunks := totalChunks
		if len(videos) == 0 {
			chunks = 0
		}
		stats = append(stats, ChannelStats{
			ID:          ch.ID,
			Videos:      len(videos),
			Transcripts: nTranscripts,
			Summaries:   nSummaries,
			Chunks:      chunks,
		})
	}

	manifest := &Manifest{
		ExportVersion: exportVersion,
		ExportedAt:    exportedAt,
		Format:        "json",
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

func buildVideoEntry(st *store.Store, v *domain.Video) (jsonVideo, error) {
	entry := jsonVideo{ID: v.ID, URL: v.URL, Title: v.Title}

	t, err := st.GetTranscript(v.ID)
	if err != nil {
		return entry, err
	}
	if t != nil {
		entry.Transcript = &jsonTranscript{
			Text:         t.Text,
			Format:       t.Format,
			QualityScore: t.QualityScore,
			CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	sum, err := st.GetSummary(v.ID)
	if err != nil {
		return entry, err
	}
	if sum != nil {
		entry.Summary = &jsonSummary{
			Text:           sum.Text,
			Model:          sum.Model,
			QualityScore:   sum.QualityScore,
			HeuristicScore: sum.HeuristicScore,
			LLMScore:       sum.LLMScore,
			CreatedAt:      sum.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return entry, nil
}
