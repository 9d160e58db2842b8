// Package store provides the item storage interface and SQLite implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/kai/internal/model"
)

var (
	// ErrNotFound is returned when an id does not reference a stored item.
	ErrNotFound = errors.New("item not found")
	// ErrInvalidParent is returned when a parent_id would dangle or form a cycle.
	ErrInvalidParent = errors.New("invalid parent")
)

// CreateParams holds parameters for storing a new item.
type CreateParams struct {
	Content     string
	Type        model.ItemType
	ParentID    string
	Descripcion string
	URL         string
	Tags        []string
	Tareas      []model.Subtask
	Deadline    *time.Time
	Anclado     bool
}

// ListParams holds filters for listing items. Zero values mean "any".
type ListParams struct {
	ID       string
	ParentID string
	Type     model.ItemType
	Tags     []string
	Query    string // free-text match on content, descripcion, url, tags and subtasks
	Pinned   *bool
	// DueBefore keeps items whose deadline is at or before the given time.
	DueBefore *time.Time
	Limit     int
}

// Store defines the item storage interface.
type Store interface {
	// Create stores a new item and returns it with its assigned id.
	Create(ctx context.Context, p CreateParams) (*model.Item, error)

	// Get retrieves one item by id. Returns ErrNotFound if missing.
	Get(ctx context.Context, id string) (*model.Item, error)

	// List returns items matching the filters, most recently created first.
	List(ctx context.Context, p ListParams) ([]model.Item, error)

	// Update merges a partial patch into an existing item.
	Update(ctx context.Context, id string, patch model.Patch) (*model.Item, error)

	// Delete removes an item permanently.
	Delete(ctx context.Context, id string) error

	// Close closes the store.
	Close() error
}
