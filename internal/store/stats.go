package store

import (
	"context"
	"os"
	"time"
)

// Stats holds database statistics.
type Stats struct {
	DBPath       string      `json:"db_path" yaml:"db_path"`
	DBSizeBytes  int64       `json:"db_size_bytes" yaml:"db_size_bytes"`
	TotalItems   int         `json:"total_items" yaml:"total_items"`
	PinnedItems  int         `json:"pinned_items" yaml:"pinned_items"`
	OverdueItems int         `json:"overdue_items" yaml:"overdue_items"`
	OpenSubtasks int         `json:"open_subtasks" yaml:"open_subtasks"`
	Types        []TypeStats `json:"types" yaml:"types"`
}

// TypeStats holds per-type counts.
type TypeStats struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	now := time.Now().UTC().Format(timeLayout)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&st.TotalItems)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE anclado = 1`).Scan(&st.PinnedItems)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE deadline IS NOT NULL AND deadline <= ?`, now).Scan(&st.OverdueItems)
	s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM items, json_each(items.tareas)
		WHERE items.tareas IS NOT NULL AND json_extract(json_each.value, '$.completed') = 0`).Scan(&st.OpenSubtasks)

	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*) AS cnt
		FROM items
		GROUP BY type ORDER BY cnt DESC, type`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts TypeStats
		rows.Scan(&ts.Type, &ts.Count)
		st.Types = append(st.Types, ts)
	}

	return st, rows.Err()
}
