// Package fetcher ingests a channel's video list via yt-dlp's flat
// playlist dump and upserts it into the catalog.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/store"
	"github.com/ytscribe/ytscribe/internal/ytdlp"
)

// Fetcher lists channel videos without downloading media
type Fetcher struct {
	runner *ytdlp.Runner
	store  *store.Store
}

// New creates a Fetcher
func New(runner *ytdlp.Runner, st *store.Store) *Fetcher {
	return &Fetcher{runner: runner, store: st}
}

type playlistDump struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Entries []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"entries"`
}

// FetchChannel retrieves the channel's full video list (one flat
// playlist request, no per-video metadata calls) and upserts channel
// and videos. Returns the channel and the number of videos stored.
func (f *Fetcher) FetchChannel(ctx context.Context, channelURL string) (*domain.Channel, int, error) {
	args := append(f.runner.BaseArgs(),
		"--flat-playlist",
		"--no-warnings",
		"-J",
		channelURL,
	)
	stdout, stderr, err := f.runner.RunWithBackoff(ctx, "", "channel_fetch", channelURL, args)
	if err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(stdout) == "" {
		return nil, 0, fmt.Errorf("yt-dlp returned no playlist data for %s: %s", channelURL, firstLine(stderr))
	}

	var dump playlistDump
	if err := json.Unmarshal([]byte(stdout), &dump); err != nil {
		return nil, 0, fmt.Errorf("parsing playlist dump for %s: %w", channelURL, err)
	}

	channelID := dump.ID
	if channelID == "" {
		channelID = ChannelIDFromURL(channelURL)
	}
	channel := &domain.Channel{
		ID:    channelID,
		URL:   channelURL,
		Title: dump.Title,
	}
	if err := f.store.UpsertChannel(channel); err != nil {
		return nil, 0, err
	}

	count := 0
	for _, entry := range dump.Entries {
		if entry.ID == "" {
			continue
		}
		url := entry.URL
		if url == "" {
			url = "https://www.youtube.com/watch?v=" + entry.ID
		}
		video := &domain.Video{
			ID:        entry.ID,
			ChannelID: channelID,
			Title:     entry.Title,
			URL:       url,
		}
		if err := f.store.UpsertVideo(video); err != nil {
			return channel, count, err
		}
		count++
	}

	slog.Info("channel fetched", "channel", channelID, "videos", count)
	return channel, count, nil
}

// ChannelIDFromURL derives a channel identifier from its URL tail,
// e.g. https://www.youtube.com/@somecreator/videos → @somecreator.
func ChannelIDFromURL(channelURL string) string {
	trimmed := strings.TrimRight(channelURL, "/")
	trimmed = strings.TrimSuffix(trimmed, "/videos")
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
