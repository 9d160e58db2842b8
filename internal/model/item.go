// Package model defines the core KAI data types.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ItemType is the closed set of item kinds.
type ItemType string

const (
	TypeNote        ItemType = "note"
	TypeTask        ItemType = "task"
	TypeProject     ItemType = "project"
	TypeDirectory   ItemType = "directory"
	TypeReminder    ItemType = "reminder"
	TypeAchievement ItemType = "achievement"
)

// ValidTypes are the canonical item types.
var ValidTypes = map[ItemType]bool{
	TypeNote:        true,
	TypeTask:        true,
	TypeProject:     true,
	TypeDirectory:   true,
	TypeReminder:    true,
	TypeAchievement: true,
}

// typeAliases maps legacy and Spanish names onto the canonical set.
var typeAliases = map[string]ItemType{
	"nota":         TypeNote,
	"notes":        TypeNote,
	"tarea":        TypeTask,
	"tareas":       TypeTask,
	"todo":         TypeTask,
	"tasks":        TypeTask,
	"proyecto":     TypeProject,
	"proyectos":    TypeProject,
	"projects":     TypeProject,
	"directorio":   TypeDirectory,
	"link":         TypeDirectory,
	"links":        TypeDirectory,
	"enlace":       TypeDirectory,
	"url":          TypeDirectory,
	"recordatorio": TypeReminder,
	"alarma":       TypeReminder,
	"reminders":    TypeReminder,
	"logro":        TypeAchievement,
	"logros":       TypeAchievement,
}

// NormalizeType maps any type name to the canonical set. Unknown or empty
// names become TypeNote.
func NormalizeType(s string) ItemType {
	t, _ := LookupType(s)
	return t
}

// LookupType is NormalizeType that also reports whether s was recognized.
func LookupType(s string) (ItemType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if ValidTypes[ItemType(key)] {
		return ItemType(key), true
	}
	if t, ok := typeAliases[key]; ok {
		return t, true
	}
	return TypeNote, false
}

// Subtask is one entry of an item's ordered checklist. Its identity is its index.
type Subtask struct {
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Item is the unit of user content.
type Item struct {
	ID          string     `json:"id" yaml:"id"`
	Content     string     `json:"content" yaml:"content"`
	Type        ItemType   `json:"type" yaml:"type"`
	ParentID    string     `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Descripcion string     `json:"descripcion,omitempty" yaml:"descripcion,omitempty"`
	URL         string     `json:"url,omitempty" yaml:"url,omitempty"`
	Tags        []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Tareas      []Subtask  `json:"tareas,omitempty" yaml:"tareas,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Anclado     bool       `json:"anclado" yaml:"anclado"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
}

// Complete reports whether every subtask is done. Items without subtasks are complete.
func (it Item) Complete() bool {
	for _, t := range it.Tareas {
		if !t.Completed {
			return false
		}
	}
	return true
}

// HasTag reports whether the item carries tag (case-insensitive).
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Content     *string
	Type        *ItemType
	ParentID    *string // "" clears the parent
	Descripcion *string
	URL         *string
	Tags        *[]string
	Tareas      *[]Subtask
	Deadline    **time.Time // pointer to nil clears the deadline
	Anclado     *bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Content == nil && p.Type == nil && p.ParentID == nil &&
		p.Descripcion == nil && p.URL == nil && p.Tags == nil &&
		p.Tareas == nil && p.Deadline == nil && p.Anclado == nil
}

// Apply merges the patch into a copy of it.
func (p Patch) Apply(it Item) Item {
	if p.Content != nil {
		it.Content = *p.Content
	}
	if p.Type != nil {
		it.Type = *p.Type
	}
	if p.ParentID != nil {
		it.ParentID = *p.ParentID
	}
	if p.Descripcion != nil {
		it.Descripcion = *p.Descripcion
	}
	if p.URL != nil {
		it.URL = *p.URL
	}
	if p.Tags != nil {
		it.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Tareas != nil {
		it.Tareas = append([]Subtask(nil), (*p.Tareas)...)
	}
	if p.Deadline != nil {
		it.Deadline = *p.Deadline
	}
	if p.Anclado != nil {
		it.Anclado = *p.Anclado
	}
	return it
}

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDeadline accepts RFC 3339 and the looser layouts models tend to emit.
// Layouts without a zone are read in loc.
func ParseDeadline(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q (use e.g. 2025-01-31T09:00)", s)
}
