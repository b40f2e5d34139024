package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ytscribe/ytscribe/internal/domain"
)

// UpsertChannel inserts or refreshes a channel row
func (s *Store) UpsertChannel(ch *domain.Channel) error {
	_, err := s.db.Exec(`
		INSERT INTO channels (id, url, title, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			fetched_at = excluded.fetched_at
	`, ch.ID, ch.URL, ch.Title, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

// GetChannel retrieves a channel by ID, or nil when unknown
func (s *Store) GetChannel(id string) (*domain.Channel, error) {
	row := s.db.QueryRow(`SELECT id, url, title, fetched_at FROM channels WHERE id = ?`, id)
	var ch domain.Channel
	var title sql.NullString
	err := row.Scan(&ch.ID, &ch.URL, &title, &ch.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get channel %s: %w", id, err)
	}
	if title.Valid {
		ch.Title = title.String
	}
	return &ch, nil
}

// ListChannels returns every channel in the catalog
func (s *Store) ListChannels() ([]*domain.Channel, error) {
	rows, err := s.db.Query(`SELECT id, url, title, fetched_at FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []*domain.Channel
	for rows.Next() {
		var ch domain.Channel
		var title sql.NullString
		if err := rows.Scan(&ch.ID, &ch.URL, &title, &ch.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		if title.Valid {
			ch.Title = title.String
		}
		channels = append(channels, &ch)
	}
	return channels, rows.Err()
}

// UpsertVideo inserts or updates a video row
func (s *Store) UpsertVideo(v *domain.Video) error {
	_, err := s.db.Exec(`
		INSERT INTO videos (id, channel_id, title, url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url
	`, v.ID, v.ChannelID, v.Title, v.URL)
	if err != nil {
		return fmt.Errorf("upsert video %s: %w", v.ID, err)
	}
	return nil
}

// ListVideos returns all videos for a channel
func (s *Store) ListVideos(channelID string) ([]*domain.Video, error) {
	rows, err := s.db.Query(`
		SELECT id, channel_id, title, url, created_at
		FROM videos WHERE channel_id = ? ORDER BY created_at, id
	`, channelID)
	if err != nil {
		return nil, fmt.Errorf("list videos for %s: %w", channelID, err)
	}
	defer rows.Close()

	var videos []*domain.Video
	for rows.Next() {
		var v domain.Video
		var title sql.NullString
		if err := rows.Scan(&v.ID, &v.ChannelID, &title, &v.URL, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		if title.Valid {
			v.Title = title.String
		}
		videos = append(videos, &v)
	}
	return videos, rows.Err()
}

// GetVideo retrieves one video, or nil when unknown
func (s *Store) GetVideo(id string) (*domain.Video, error) {
	row := s.db.QueryRow(`SELECT id, channel_id, title, url, created_at FROM videos WHERE id = ?`, id)
	var v domain.Video
	var title sql.NullString
	err := row.Scan(&v.ID, &v.ChannelID, &title, &v.URL, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", id, err)
	}
	if title.Valid {
		v.Title = title.String
	}
	return &v, nil
}

// SaveTranscript stores (or replaces) the transcript for a video
func (s *Store) SaveTranscript(t *domain.Transcript) error {
	_, err := s.db.Exec(`
		INSERT INTO transcripts (video_id, text, format, quality_score)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			text = excluded.text,
			format = excluded.format,
			quality_score = excluded.quality_score,
			created_at = CURRENT_TIMESTAMP
	`, t.VideoID, t.Text, t.Format, t.QualityScore)
	if err != nil {
		return fmt.Errorf("save transcript for %s: %w", t.VideoID, err)
	}
	return nil
}

// GetTranscript retrieves a transcript, or nil when absent
func (s *Store) GetTranscript(videoID string) (*domain.Transcript, error) {
	row := s.db.QueryRow(`SELECT video_id, text, format, quality_score, created_at FROM transcripts WHERE video_id = ?`, videoID)
	var t domain.Transcript
	var quality sql.NullFloat64
	err := row.Scan(&t.VideoID, &t.Text, &t.Format, &quality, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript for %s: %w", videoID, err)
	}
	if quality.Valid {
		t.QualityScore = quality.Float64
	}
	return &t, nil
}

// HasTranscript reports whether a transcript exists for the video
func (s *Store) HasTranscript(videoID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM transcripts WHERE video_id = ?`, videoID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check transcript for %s: %w", videoID, err)
	}
	return n > 0, nil
}

// SaveSummary stores (or replaces) the summary for a video
func (s *Store) SaveSummary(sum *domain.Summary) error {
	_, err := s.db.Exec(`
		INSERT INTO summaries (video_id, text, model)
		VALUES (?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			text = excluded.text,
			model = excluded.model,
			created_at = CURRENT_TIMESTAMP
	`, sum.VideoID, sum.Text, sum.Model)
	if err != nil {
		return fmt.Errorf("save summary for %s: %w", sum.VideoID, err)
	}
	return nil
}

// GetSummary retrieves a summary, or nil when absent
func (s *Store) GetSummary(videoID string) (*domain.Summary, error) {
	row := s.db.QueryRow(`
		SELECT video_id, text, model, quality_score, heuristic_score, llm_score, created_at
		FROM summaries WHERE video_id = ?`, videoID)
	var sum domain.Summary
	var model sql.NullString
	var quality, heuristic, llmScore sql.NullFloat64
	err := row.Scan(&sum.VideoID, &sum.Text, &model, &quality, &heuristic, &llmScore, &sum.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary for %s: %w", videoID, err)
	}
	if model.Valid {
		sum.Model = model.String
	}
	if quality.Valid {
		sum.QualityScore = &quality.Float64
	}
	if heuristic.Valid {
		sum.HeuristicScore = &heuristic.Float64
	}
	if llmScore.Valid {
		sum.LLMScore = &llmScore.Float64
	}
	return &sum, nil
}

// ListTranscribedWithoutSummary returns video IDs that have a
// transcript but no summary yet. This is the pipeline poller's view of
// durable phase-1-complete state.
func (s *Store) ListTranscribedWithoutSummary() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT t.video_id FROM transcripts t
		LEFT JOIN summaries s ON s.video_id = t.video_id
		WHERE s.video_id IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("list unsummarized videos: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Counts returns catalog totals for the status command
func (s *Store) Counts() (channels, videos, transcripts, summaries int, err error) {
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"channels", &channels},
		{"videos", &videos},
		{"transcripts", &transcripts},
		{"summaries", &summaries},
	} {
		if err = s.db.QueryRow("SELECT COUNT(*) FROM " + q.table).Scan(q.dst); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("count %s: %w", q.table, err)
		}
	}
	return channels, videos, transcripts, summaries, nil
}
