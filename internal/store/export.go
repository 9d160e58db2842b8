package store

import (
	"context"
	"strings"
	"time"

	"github.com/rcliao/kai/internal/model"
)

// ExportAll returns every item, oldest first, so parents precede children.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Import stores items from an export, keeping their ids. Items whose id
// already exists are skipped. Parent links are copied as-is.
func (s *SQLiteStore) Import(ctx context.Context, items []model.Item) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	imported := 0
	for _, it := range items {
		if strings.TrimSpace(it.Content) == "" {
			continue
		}
		if it.ID == "" {
			it.ID = s.newID()
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = time.Now().UTC()
		}
		if it.UpdatedAt.IsZero() {
			it.UpdatedAt = it.CreatedAt
		}
		it.Type = model.NormalizeType(string(it.Type))

		var exists int
		tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, it.ID).Scan(&exists)
		if exists > 0 {
			continue
		}
		if err := s.insert(ctx, tx, it); err != nil {
			return imported, err
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return imported, nil
}
