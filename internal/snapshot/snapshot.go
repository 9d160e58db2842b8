// Package snapshot builds the bounded item summary included in every prompt.
package snapshot

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/store"
)

const (
	DefaultLimit             = 40
	DefaultDescriptionBudget = 100

	// EmptyMarker stands in for the item list when there is nothing to show
	// or the store could not be read.
	EmptyMarker = "[] (sin elementos)"

	untitled = "(sin título)"
)

// Lister is the part of the store the summarizer reads.
type Lister interface {
	List(ctx context.Context, p store.ListParams) ([]model.Item, error)
}

// Entry is one summarized item.
type Entry struct {
	ID          string   `json:"id"`
	Titulo      string   `json:"titulo"`
	Tipo        string   `json:"tipo"`
	Tags        []string `json:"tags"`
	Completo    bool     `json:"completo"`
	Subtareas   int      `json:"subtareas,omitempty"`
	Anclado     bool     `json:"anclado,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`
	Deadline    string   `json:"deadline,omitempty"`
	Descripcion string   `json:"descripcion,omitempty"`
}

// Snapshot is the summarized view of the most recent items.
type Snapshot struct {
	Entries []Entry
	// Unavailable is set when the store could not be read.
	Unavailable bool
}

// Render returns compact JSON, or EmptyMarker when there is nothing to show.
func (s Snapshot) Render() string {
	if s.Unavailable || len(s.Entries) == 0 {
		return EmptyMarker
	}
	b, err := json.Marshal(s.Entries)
	if err != nil {
		return EmptyMarker
	}
	return string(b)
}

// Summarizer produces snapshots from a store.
type Summarizer struct {
	items             Lister
	limit             int
	descriptionBudget int
	log               logrus.FieldLogger
}

// NewSummarizer creates a summarizer. Non-positive limits fall back to defaults.
func NewSummarizer(items Lister, limit, descriptionBudget int, log logrus.FieldLogger) *Summarizer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if descriptionBudget <= 0 {
		descriptionBudget = DefaultDescriptionBudget
	}
	return &Summarizer{
		items:             items,
		limit:             limit,
		descriptionBudget: descriptionBudget,
		log:               log,
	}
}

// Snapshot summarizes the most recently created items. It never returns an
// error: a store failure is logged and reported through Unavailable.
func (s *Summarizer) Snapshot(ctx context.Context) Snapshot {
	items, err := s.items.List(ctx, store.ListParams{Limit: s.limit})
	if err != nil {
		s.log.WithError(err).Warn("snapshot: list items failed")
		return Snapshot{Unavailable: true}
	}
	if len(items) > s.limit {
		items = items[:s.limit]
	}

	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		entries = append(entries, s.summarize(it))
	}
	return Snapshot{Entries: entries}
}

func (s *Summarizer) summarize(it model.Item) Entry {
	e := Entry{
		ID:          it.ID,
		Titulo:      strings.TrimSpace(it.Content),
		Tipo:        string(model.NormalizeType(string(it.Type))),
		Tags:        it.Tags,
		Completo:    it.Complete(),
		Subtareas:   len(it.Tareas),
		Anclado:     it.Anclado,
		ParentID:    it.ParentID,
		Descripcion: Truncate(strings.TrimSpace(it.Descripcion), s.descriptionBudget),
	}
	if e.Titulo == "" {
		e.Titulo = untitled
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if it.Deadline != nil {
		e.Deadline = it.Deadline.Format(time.RFC3339)
	}
	return e
}

// Truncate cuts s to at most budget runes, marking the cut with "...".
func Truncate(s string, budget int) string {
	if budget <= 0 || utf8.RuneCountInString(s) <= budget {
		return s
	}
	runes := []rune(s)
	return string(runes[:budget]) + "..."
}
