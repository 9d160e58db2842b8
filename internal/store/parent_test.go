package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rcliao/kai/internal/model"
)

func TestParentCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, _ := s.Create(ctx, CreateParams{Content: "Mudanza", Type: model.TypeProject})
	child, err := s.Create(ctx, CreateParams{Content: "Cajas", ParentID: p.ID})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if child.ParentID != p.ID {
		t.Errorf("expected parent %s, got %s", p.ID, child.ParentID)
	}

	kids, err := s.Children(ctx, p.ID)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(kids) != 1 {
		t.Fatalf("expected 1 child, got %d", len(kids))
	}
}

func TestParentMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create(context.Background(), CreateParams{Content: "x", ParentID: "ghost"})
	if !errors.Is(err, ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent, got %v", err)
	}
}

func TestParentSelf(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	it, _ := s.Create(ctx, CreateParams{Content: "x"})
	self := it.ID
	_, err := s.Update(ctx, it.ID, model.Patch{ParentID: &self})
	if !errors.Is(err, ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent, got %v", err)
	}
}

func TestParentCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.Create(ctx, CreateParams{Content: "a"})
	b, _ := s.Create(ctx, CreateParams{Content: "b", ParentID: a.ID})
	c, _ := s.Create(ctx, CreateParams{Content: "c", ParentID: b.ID})

	// a under c would close the loop a -> b -> c -> a
	cid := c.ID
	_, err := s.Update(ctx, a.ID, model.Patch{ParentID: &cid})
	if !errors.Is(err, ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent, got %v", err)
	}

	got, _ := s.Get(ctx, a.ID)
	if got.ParentID != "" {
		t.Errorf("rejected update must not persist, got parent %q", got.ParentID)
	}
}

func TestParentClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, _ := s.Create(ctx, CreateParams{Content: "p"})
	c, _ := s.Create(ctx, CreateParams{Content: "c", ParentID: p.ID})

	empty := ""
	got, err := s.Update(ctx, c.ID, model.Patch{ParentID: &empty})
	if err != nil {
		t.Fatalf("clear parent: %v", err)
	}
	if got.ParentID != "" {
		t.Errorf("expected no parent, got %q", got.ParentID)
	}
}
