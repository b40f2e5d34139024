// Package export writes the catalog to portable JSON or CSV files.
// JSON exports are chunked per channel and self-contained; CSV
// exports are flat tables. Either way a manifest.json describes what
// was written.
package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/store"
)

const exportVersion = 1

// DefaultChunkSize is how many videos go into one JSON chunk file
const DefaultChunkSize = 50

// Options configures one export run
type Options struct {
	Format    string // "json" or "csv"
	OutputDir string
	ChannelID string // empty exports every channel
	ChunkSize int
	Compress  bool // zip each data file
}

// Manifest summarizes an export run; written as manifest.json next
// to the data files.
type Manifest struct {
	ExportVersion int            `json:"export_version"`
	ExportedAt    string         `json:"exported_at"`
	Format        string         `json:"format"`
	OutputDir     string         `json:"output_dir"`
	FileCount     int            `json:"file_count"`
	FileSizes     map[string]int `json:"file_sizes"`
	Channels      []ChannelStats `json:"channels"`
}

// ChannelStats is the per-channel slice of a manifest
type ChannelStats struct {
	ID          string `json:"id"`
	Videos      int    `json:"videos"`
	Transcripts int    `json:"transcripts"`
	Summaries   int    `json:"summaries"`
	Chunks      int    `json:"chunks,omitempty"`
}

// Run exports the catalog per opts and returns the manifest
func Run(st *store.Store, opts Options) (*Manifest, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	switch opts.Format {
	case "json":
		return exportJSON(st, opts)
	case "csv":
		return exportCSV(st, opts)
	default:
		return nil, fmt.Errorf("unknown export format %q (want json or csv)", opts.Format)
	}
}

func selectChannels(st *store.Store, channelID string) ([]*domain.Channel, error) {
	if channelID == "" {
		return st.ListChannels()
	}
	ch, err := st.GetChannel(channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, fmt.Errorf("unknown channel %s", channelID)
	}
	return []*domain.Channel{ch}, nil
}

// makeExportDir creates a timestamped directory under base
func makeExportDir(base string) (string, error) {
	dir := filepath.Join(base, "export_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	return dir, nil
}

var unsafeChars = regexp.MustCompile(`[^\w@\-]`)

// sanitizeName makes a channel ID safe as a file name component
func sanitizeName(name string) string {
	s := unsafeChars.ReplaceAllString(name, "_")
	for len(s) > 0 && s[0] == '_' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '_' {
		s = s[:len(s)-1]
	}
	if s == "" {
		return "unknown"
	}
	return s
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

// zipFile compresses path into path.zip and removes the original
func zipFile(path string) (string, error) {
	zipPath := path + ".zip"
	zf, err := os.Create(zipPath)
	if err != nil {
		return "", err
	}
	defer zf.Close()

	zw := zip.NewWriter(zf)
	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return "", err
	}
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()
	if _, err := io.Copy(w, src); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil {
		return "", err
	}
	return zipPath, nil
}

// finishFile optionally zips a written file and records its size
func finishFile(path, relTo string, compress bool, sizes map[string]int) error {
	if compress {
		zipped, err := zipFile(path)
		if err != nil {
			return err
		}
		path = zipped
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(relTo, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	sizes[rel] = int(info.Size())
	return nil
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
