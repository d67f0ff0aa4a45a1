package store

import (
	"context"
	"fmt"
)

// FilesDescribing returns the paths of loaded files that state at least one
// fact with subject t, ordered by path.
func (s *Store) FilesDescribing(ctx context.Context, t Term) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT f.path
		 FROM triples tr
		 JOIN files f ON f.id = tr.file_id
		 WHERE tr.subject = ?
		 ORDER BY f.path`,
		t.encode(),
	)
	if err != nil {
		return nil, fmt.Errorf("files describing: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// PruneFiles deletes every file record whose path is not in keep and returns
// the removed paths.
func (s *Store) PruneFiles(ctx context.Context, keep []string) ([]string, error) {
	want := make(map[string]bool, len(keep))
	for _, p := range keep {
		want[p] = true
	}
	files, err := s.Files(ctx)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, f := range files {
		if want[f.Path] {
			continue
		}
		if err := s.DeleteFile(ctx, f.ID); err != nil {
			return removed, err
		}
		removed = append(removed, f.Path)
	}
	return removed, nil
}
