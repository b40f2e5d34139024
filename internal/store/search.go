package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// SearchResult is one full-text search hit against the transcript
// index. Rank is the FTS5 bm25 value, lower means a better match.
type SearchResult struct {
	VideoID       string
	ChannelID     string
	Title         string
	Snippet       string
	Rank          float64
	TranscriptLen int
}

// DefaultSearchLimit caps search results when the caller passes no limit
const DefaultSearchLimit = 20

// SearchTranscripts runs an FTS5 query against stored transcripts.
// The query uses FTS5 syntax: bare words, "quoted phrases" and
// prefix* all work. channelID narrows the search to one channel;
// empty means all channels.
func (s *Store) SearchTranscripts(query, channelID string, limit int) ([]*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	q := `
		SELECT t.video_id, v.channel_id, v.title,
		       snippet(transcripts_fts, 0, '[', ']', '…', 12),
		       bm25(transcripts_fts),
		       length(t.text)
		FROM transcripts_fts
		JOIN transcripts t ON t.rowid = transcripts_fts.rowid
		JOIN videos v ON v.id = t.video_id
		WHERE transcripts_fts MATCH ?`
	args := []any{query}
	if channelID != "" {
		q += ` AND v.channel_id = ?`
		args = append(args, channelID)
	}
	q += ` ORDER BY bm25(transcripts_fts) LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		// FTS5 reports malformed queries ("AND OR", unbalanced quotes)
		// as SQL errors; surface them as a query problem.
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return nil, fmt.Errorf("invalid search query %q: %w", query, err)
		}
		return nil, fmt.Errorf("search transcripts: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		var r SearchResult
		var title sql.NullString
		if err := rows.Scan(&r.VideoID, &r.ChannelID, &title, &r.Snippet, &r.Rank, &r.TranscriptLen); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		if title.Valid {
			r.Title = title.String
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}
