package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TrackTags carries the metadata probe output used to populate a track row.
type TrackTags struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	DurationSec float64
}

// UpsertTrack records or refreshes one file's metadata under a directory.
// A track is only re-probed (title/artist/etc. refreshed) when the file's
// modification time differs from what is already on record; otherwise the
// existing row, including its lyric_state, is left untouched and wasNew is
// false with no state reset. New rows start at StateUnknown.
func (s *Store) UpsertTrack(ctx context.Context, directoryID int64, relativePath string, tags TrackTags, modifiedAt time.Time) (id int64, wasNew bool, err error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(tags.Title)
	if title == "" {
		title = DefaultTitle(relativePath)
	}
	artist := strings.TrimSpace(tags.Artist)
	if artist == "" {
		artist = DefaultArtist
	}

	txErr := s.withTxRetry(ctx, func(tx *sql.Tx) error {
		var (
			existingID   int64
			existingMod  string
		)
		row := tx.QueryRowContext(ctx,
			`SELECT id, file_modified_at FROM tracks WHERE directory_id = ? AND relative_path = ?`,
			directoryID, relativePath)
		scanErr := row.Scan(&existingID, &existingMod)
		switch {
		case scanErr == sql.ErrNoRows:
			res, insertErr := tx.ExecContext(ctx,
				`INSERT INTO tracks (directory_id, relative_path, title, artist, album, album_artist,
					duration_sec, file_modified_at, last_scanned_at, lyric_state, failure_reason)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '')`,
				directoryID, relativePath, title, artist, tags.Album, tags.AlbumArtist,
				tags.DurationSec, modifiedAt.UTC().Format(time.RFC3339Nano),
				time.Now().UTC().Format(time.RFC3339Nano), string(StateUnknown))
			if insertErr != nil {
				return insertErr
			}
			id, insertErr = res.LastInsertId()
			wasNew = true
			return insertErr
		case scanErr != nil:
			return scanErr
		}

		id = existingID
		existing, parseErr := parseTimeString(existingMod)
		if parseErr == nil && existing.Equal(modifiedAt.UTC()) {
			_, touchErr := tx.ExecContext(ctx,
				`UPDATE tracks SET last_scanned_at = ? WHERE id = ?`,
				time.Now().UTC().Format(time.RFC3339Nano), id)
			return touchErr
		}

		_, updateErr := tx.ExecContext(ctx,
			`UPDATE tracks SET title = ?, artist = ?, album = ?, album_artist = ?, duration_sec = ?,
				file_modified_at = ?, last_scanned_at = ? WHERE id = ?`,
			title, artist, tags.Album, tags.AlbumArtist, tags.DurationSec,
			modifiedAt.UTC().Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano), id)
		return updateErr
	})
	if txErr != nil {
		return 0, false, fmt.Errorf("upsert track: %w", txErr)
	}
	return id, wasNew, nil
}

// ListTracks returns tracks matching the conjunction of all set filter
// fields, ordered by artist, album, relative_path for stable pagination.
func (s *Store) ListTracks(ctx context.Context, filter TrackFilter) ([]*Track, error) {
	ctx = ensureContext(ctx)

	var (
		clauses []string
		args    []any
	)
	if filter.DirectoryID != 0 {
		clauses = append(clauses, "directory_id = ?")
		args = append(args, filter.DirectoryID)
	}
	if filter.Artist != "" {
		clauses = append(clauses, "LOWER(artist) = LOWER(?)")
		args = append(args, filter.Artist)
	}
	if filter.Album != "" {
		clauses = append(clauses, "LOWER(album) = LOWER(?)")
		args = append(args, filter.Album)
	}
	if filter.MissingLyrics {
		clauses = append(clauses, fmt.Sprintf("lyric_state IN (%s)",
			quotedList([]string{string(StateUnknown), string(StateNotFound), string(StateFailed)})))
	}
	if len(filter.IDs) > 0 {
		idArgs := make([]any, len(filter.IDs))
		for i, v := range filter.IDs {
			idArgs[i] = v
		}
		clauses = append(clauses, fmt.Sprintf("id IN (%s)", makePlaceholders(len(idArgs))))
		args = append(args, idArgs...)
	}

	query := `SELECT id, directory_id, relative_path, title, artist, album, album_artist, duration_sec,
		file_modified_at, last_scanned_at, lyric_state, failure_reason FROM tracks`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY artist, album, relative_path"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var out []*Track
	for rows.Next() {
		t, scanErr := scanTrack(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("list tracks: %w", scanErr)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTrackByPath fetches a track by its directory and relative path, for the
// Scanner's mtime short-circuit check before it runs an expensive probe.
func (s *Store) GetTrackByPath(ctx context.Context, directoryID int64, relativePath string) (*Track, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, directory_id, relative_path, title, artist, album, album_artist, duration_sec,
			file_modified_at, last_scanned_at, lyric_state, failure_reason FROM tracks
		 WHERE directory_id = ? AND relative_path = ?`, directoryID, relativePath)
	t, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get track by path: %w", err)
	}
	return t, nil
}

// GetTrack fetches a single track by id.
func (s *Store) GetTrack(ctx context.Context, id int64) (*Track, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, directory_id, relative_path, title, artist, album, album_artist, duration_sec,
			file_modified_at, last_scanned_at, lyric_state, failure_reason FROM tracks WHERE id = ?`, id)
	t, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return t, nil
}

// SetLyricState transitions a track's lyric state. Unless force is set, the
// transition must respect the monotonic upgrade lattice; violations return
// ErrInvalidTransition and leave the row unchanged. Returns the prior state.
func (s *Store) SetLyricState(ctx context.Context, trackID int64, newState LyricState, failureReason string, force bool) (LyricState, error) {
	ctx = ensureContext(ctx)
	var prior LyricState

	err := s.withTxRetry(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT lyric_state FROM tracks WHERE id = ?`, trackID)
		var current string
		if scanErr := row.Scan(&current); scanErr != nil {
			if scanErr == sql.ErrNoRows {
				return ErrTrackNotFound
			}
			return scanErr
		}
		prior = LyricState(current)

		if !force && !allowedTransition(prior, newState) {
			return ErrInvalidTransition
		}

		_, execErr := tx.ExecContext(ctx,
			`UPDATE tracks SET lyric_state = ?, failure_reason = ? WHERE id = ?`,
			string(newState), failureReason, trackID)
		return execErr
	})
	if err != nil {
		return prior, err
	}
	return prior, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (*Track, error) {
	var (
		t                              Track
		modifiedAt, scannedAt, lyric   string
	)
	if err := row.Scan(&t.ID, &t.DirectoryID, &t.RelativePath, &t.Title, &t.Artist, &t.Album,
		&t.AlbumArtist, &t.DurationSec, &modifiedAt, &scannedAt, &lyric, &t.FailureReason); err != nil {
		return nil, err
	}
	t.LyricState = LyricState(lyric)
	if parsed, err := parseTimeString(modifiedAt); err == nil {
		t.FileModifiedAt = parsed
	}
	if parsed, err := parseTimeString(scannedAt); err == nil {
		t.LastScannedAt = parsed
	}
	return &t, nil
}

func quotedList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ",")
}
