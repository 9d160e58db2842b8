package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rcliao/kai/internal/model"
)

// maxParentDepth bounds the ancestor walk so a corrupted chain cannot loop forever.
const maxParentDepth = 64

// checkParent verifies that parentID exists and that attaching id under it
// does not create a cycle.
func (s *SQLiteStore) checkParent(ctx context.Context, db execer, id, parentID string) error {
	if parentID == id {
		return fmt.Errorf("%w: item cannot be its own parent", ErrInvalidParent)
	}

	cur := parentID
	for depth := 0; cur != ""; depth++ {
		if depth >= maxParentDepth {
			return fmt.Errorf("%w: parent chain deeper than %d", ErrInvalidParent, maxParentDepth)
		}
		var next sql.NullString
		err := db.QueryRowContext(ctx, `SELECT parent_id FROM items WHERE id = ?`, cur).Scan(&next)
		if errors.Is(err, sql.ErrNoRows) {
			if cur == parentID {
				return fmt.Errorf("%w: parent %s not found", ErrInvalidParent, parentID)
			}
			// Dangling ancestor left behind by a delete ends the chain.
			return nil
		}
		if err != nil {
			return err
		}
		if next.String == id {
			return fmt.Errorf("%w: %s is a descendant of %s", ErrInvalidParent, parentID, id)
		}
		cur = next.String
	}
	return nil
}

// Children returns the direct children of a project.
func (s *SQLiteStore) Children(ctx context.Context, parentID string) ([]model.Item, error) {
	if parentID == "" {
		return nil, nil
	}
	return s.List(ctx, ListParams{ParentID: parentID, Limit: 1000})
}
