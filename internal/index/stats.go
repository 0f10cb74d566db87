package index

import (
	"context"
	"fmt"
)

// Stats summarizes the lyric-state distribution across the whole library.
type Stats struct {
	TotalTracks   int64
	TotalDirs     int64
	ByLyricState  map[LyricState]int64
}

// Stats computes aggregate counts over the index for reporting commands.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	ctx = ensureContext(ctx)

	out := &Stats{ByLyricState: make(map[LyricState]int64, len(allStates))}
	for _, st := range allStates {
		out.ByLyricState[st] = 0
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM directories`).Scan(&out.TotalDirs); err != nil {
		return nil, fmt.Errorf("count directories: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tracks`).Scan(&out.TotalTracks); err != nil {
		return nil, fmt.Errorf("count tracks: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT lyric_state, COUNT(1) FROM tracks GROUP BY lyric_state`)
	if err != nil {
		return nil, fmt.Errorf("count by lyric state: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			state string
			count int64
		)
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("scan lyric state count: %w", err)
		}
		out.ByLyricState[LyricState(state)] = count
	}
	return out, rows.Err()
}
