package store

import (
	"database/sql"
	"fmt"
)

// UpdateSummaryScores writes quality scores onto an existing summary
// row. llmScore may be nil when the self-check call failed or was
// skipped; the blended quality score then equals the heuristic one.
func (s *Store) UpdateSummaryScores(videoID string, quality, heuristic float64, llmScore *float64) error {
	res, err := s.db.Exec(`
		UPDATE summaries
		SET quality_score = ?, heuristic_score = ?, llm_score = ?
		WHERE video_id = ?
	`, quality, heuristic, llmScore, videoID)
	if err != nil {
		return fmt.Errorf("update scores for %s: %w", videoID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no summary stored for %s", videoID)
	}
	return nil
}

// ListUnscoredSummaries returns video IDs whose summary has no
// quality score yet. This is the scoring stage's poll view.
func (s *Store) ListUnscoredSummaries() ([]string, error) {
	rows, err := s.db.Query(`SELECT video_id FROM summaries WHERE quality_score IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("list unscored summaries: %w", err)
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

// ScoreStats returns how many summaries have been scored and their
// average quality score. avg is 0 when nothing is scored yet.
func (s *Store) ScoreStats() (scored int, avg float64, err error) {
	var nullAvg sql.NullFloat64
	err = s.db.QueryRow(`
		SELECT COUNT(*), AVG(quality_score)
		FROM summaries WHERE quality_score IS NOT NULL
	`).Scan(&scored, &nullAvg)
	if err != nil {
		return 0, 0, fmt.Errorf("score stats: %w", err)
	}
	if nullAvg.Valid {
		avg = nullAvg.Float64
	}
	return scored, avg, nil
}
