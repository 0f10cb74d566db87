package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddDirectory registers a library root, returning its id. The path is made
// absolute and cleaned before comparison so relative inputs collide with an
// existing registration; symlinks are not resolved. Directories may not nest: adding a
// path that contains, or is contained by, an existing root fails with
// ErrNestedDirectory.
func (s *Store) AddDirectory(ctx context.Context, path string) (int64, error) {
	clean, err := canonicalPath(path)
	if err != nil {
		return 0, fmt.Errorf("add directory: %w", err)
	}

	existing, err := s.listDirectoryPaths(ctx)
	if err != nil {
		return 0, err
	}
	for _, other := range existing {
		if other == clean {
			return 0, ErrDuplicateDirectory
		}
		if isAncestorPath(other, clean) || isAncestorPath(clean, other) {
			return 0, ErrNestedDirectory
		}
	}

	var id int64
	err = s.withTxRetry(ctx, func(tx *sql.Tx) error {
		res, execErr := tx.ExecContext(ctx,
			`INSERT INTO directories (path, created_at) VALUES (?, ?)`,
			clean, time.Now().UTC().Format(time.RFC3339Nano))
		if execErr != nil {
			return execErr
		}
		id, execErr = res.LastInsertId()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("add directory: %w", err)
	}
	return id, nil
}

// ListDirectories returns all registered library roots, ordered by path.
func (s *Store) ListDirectories(ctx context.Context) ([]*Directory, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT id, path, created_at FROM directories ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list directories: %w", err)
	}
	defer rows.Close()

	var out []*Directory
	for rows.Next() {
		var (
			d        Directory
			createdAt string
		)
		if err := rows.Scan(&d.ID, &d.Path, &createdAt); err != nil {
			return nil, fmt.Errorf("scan directory: %w", err)
		}
		if t, err := parseTimeString(createdAt); err == nil {
			d.CreatedAt = t
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *Store) listDirectoryPaths(ctx context.Context) ([]string, error) {
	dirs, err := s.ListDirectories(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(dirs))
	for _, d := range dirs {
		paths = append(paths, d.Path)
	}
	return paths, nil
}

// RemoveDirectory deletes a registered root and cascades to its tracks.
func (s *Store) RemoveDirectory(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM directories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove directory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove directory: %w", err)
	}
	if affected == 0 {
		return errors.New("directory not found")
	}
	return nil
}

func isAncestorPath(ancestor, candidate string) bool {
	if ancestor == candidate {
		return false
	}
	prefix := ancestor
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(candidate, prefix)
}
