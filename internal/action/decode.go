package action

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/store"
)

// Action is a decoded, validated command. The concrete types below are the
// complete set; Executor switches over them exhaustively.
type Action interface {
	Kind() model.Kind
}

type CreateItem struct{ Params store.CreateParams }

type UpdateItem struct {
	ID    string
	Patch model.Patch
}

type DeleteItem struct{ ID string }

type ToggleTask struct {
	ID        string
	TaskIndex int
	Completed bool
}

type TogglePin struct{ ID string }

type OpenProject struct{ ID string }

type OpenEdit struct {
	ID    string
	Focus string
}

type Search struct{ Query string }

// FilterCategory selects a view filter: "all" or an item type.
type FilterCategory struct{ Category string }

type NoAction struct{}

func (CreateItem) Kind() model.Kind     { return model.KindCreateItem }
func (UpdateItem) Kind() model.Kind     { return model.KindUpdateItem }
func (DeleteItem) Kind() model.Kind     { return model.KindDeleteItem }
func (ToggleTask) Kind() model.Kind     { return model.KindToggleTask }
func (TogglePin) Kind() model.Kind      { return model.KindTogglePin }
func (OpenProject) Kind() model.Kind    { return model.KindOpenProject }
func (OpenEdit) Kind() model.Kind       { return model.KindOpenEdit }
func (Search) Kind() model.Kind         { return model.KindSearch }
func (FilterCategory) Kind() model.Kind { return model.KindFilterCategory }
func (NoAction) Kind() model.Kind       { return model.KindNoAction }

// CategoryAll is the filter value that shows every type.
const CategoryAll = "all"

// UnknownKindError is returned for a type outside the canonical set.
type UnknownKindError struct{ Type string }

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown action type %q", e.Type)
}

// FieldError reports a required field that is absent, or a field whose value
// cannot be used.
type FieldError struct {
	Kind    model.Kind
	Field   string
	Missing bool
}

func (e *FieldError) Error() string {
	if e.Missing {
		return fmt.Sprintf("%s: missing field %q", e.Kind, e.Field)
	}
	return fmt.Sprintf("%s: invalid field %q", e.Kind, e.Field)
}

var fieldAliases = map[string]string{
	"titulo":      "content",
	"title":       "content",
	"texto":       "content",
	"description": "descripcion",
	"tasks":       "tareas",
	"subtareas":   "tareas",
	"task_index":  "taskIndex",
	"taskindex":   "taskIndex",
	"index":       "taskIndex",
	"completada":  "completed",
	"done":        "completed",
	"tipo":        "type",
	"parentId":    "parent_id",
	"parent":      "parent_id",
	"pinned":      "anclado",
	"categoria":   "category",
	"q":           "query",
}

// normalizeFields copies data with aliased keys renamed. A canonical key
// always wins over its aliases.
func normalizeFields(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, ok := fieldAliases[k]; !ok {
			out[k] = v
		}
	}
	for k, v := range data {
		canon, ok := fieldAliases[k]
		if !ok {
			continue
		}
		if _, exists := out[canon]; !exists {
			out[canon] = v
		}
	}
	return out
}

// Decode resolves the kind of cmd, validates the fields model.Schema marks as
// required and converts the data into a typed Action. Deadlines without a
// zone are read in loc.
func Decode(cmd Command, loc *time.Location) (Action, error) {
	kind, ok := model.LookupKind(cmd.Type)
	if !ok {
		return nil, &UnknownKindError{Type: cmd.Type}
	}
	spec, _ := model.SpecFor(kind)

	data := normalizeFields(cmd.Data)
	if isBlank(data["id"]) && cmd.ID != "" {
		data["id"] = cmd.ID
	}
	if kind == model.KindUpdateItem {
		data["updates"] = updatesOf(data)
	}

	for _, f := range spec.Required {
		if isBlank(data[f.Name]) {
			return nil, &FieldError{Kind: kind, Field: f.Name, Missing: true}
		}
	}

	d := decoder{kind: kind, data: data, loc: loc}
	switch kind {
	case model.KindCreateItem:
		return d.create()
	case model.KindUpdateItem:
		return d.update()
	case model.KindDeleteItem:
		id, err := d.str("id")
		return DeleteItem{ID: id}, err
	case model.KindToggleTask:
		return d.toggleTask()
	case model.KindTogglePin:
		id, err := d.str("id")
		return TogglePin{ID: id}, err
	case model.KindOpenProject:
		id, err := d.str("id")
		return OpenProject{ID: id}, err
	case model.KindOpenEdit:
		id, err := d.str("id")
		if err != nil {
			return nil, err
		}
		focus, _ := asString(data["focus"])
		return OpenEdit{ID: id, Focus: focus}, nil
	case model.KindSearch:
		q, err := d.str("query")
		return Search{Query: q}, err
	case model.KindFilterCategory:
		return d.filter()
	default:
		return NoAction{}, nil
	}
}

// updatesOf returns data["updates"] when it is an object, otherwise the
// remaining fields of data itself.
func updatesOf(data map[string]any) map[string]any {
	if u, ok := data["updates"].(map[string]any); ok {
		return normalizeFields(u)
	}
	if _, present := data["updates"]; present {
		return nil
	}
	u := make(map[string]any, len(data))
	for k, v := range data {
		if k != "id" {
			u[k] = v
		}
	}
	return u
}

type decoder struct {
	kind model.Kind
	data map[string]any
	loc  *time.Location
}

func (d decoder) invalid(field string) error {
	return &FieldError{Kind: d.kind, Field: field}
}

func (d decoder) str(field string) (string, error) {
	s, ok := asString(d.data[field])
	if !ok || strings.TrimSpace(s) == "" {
		return "", d.invalid(field)
	}
	return strings.TrimSpace(s), nil
}

func (d decoder) create() (Action, error) {
	content, err := d.str("content")
	if err != nil {
		return nil, err
	}
	p := store.CreateParams{Content: content, Type: model.TypeNote}
	m := d.data

	if v, ok := m["type"]; ok && !isBlank(v) {
		s, _ := asString(v)
		p.Type = model.NormalizeType(s)
	}
	if v, ok := m["descripcion"]; ok && v != nil {
		if p.Descripcion, ok = asString(v); !ok {
			return nil, d.invalid("descripcion")
		}
	}
	if v, ok := m["url"]; ok && v != nil {
		if p.URL, ok = asString(v); !ok {
			return nil, d.invalid("url")
		}
	}
	if v, ok := m["parent_id"]; ok && v != nil {
		if p.ParentID, ok = asString(v); !ok {
			return nil, d.invalid("parent_id")
		}
	}
	if v, ok := m["tags"]; ok && v != nil {
		if p.Tags, ok = asStrings(v); !ok {
			return nil, d.invalid("tags")
		}
	}
	if v, ok := m["tareas"]; ok && v != nil {
		if p.Tareas, ok = asSubtasks(v); !ok {
			return nil, d.invalid("tareas")
		}
	}
	if v, ok := m["deadline"]; ok && !isBlank(v) {
		t, err := d.deadline(v)
		if err != nil {
			return nil, err
		}
		p.Deadline = &t
	}
	if v, ok := m["anclado"]; ok && v != nil {
		if p.Anclado, ok = asBool(v); !ok {
			return nil, d.invalid("anclado")
		}
	}
	return CreateItem{Params: p}, nil
}

func (d decoder) update() (Action, error) {
	id, err := d.str("id")
	if err != nil {
		return nil, err
	}
	u, _ := d.data["updates"].(map[string]any)
	var patch model.Patch

	if v, ok := u["content"]; ok {
		s, ok := asString(v)
		s = strings.TrimSpace(s)
		if !ok || s == "" {
			return nil, d.invalid("content")
		}
		patch.Content = &s
	}
	if v, ok := u["type"]; ok {
		s, _ := asString(v)
		t, ok := model.LookupType(s)
		if !ok {
			return nil, d.invalid("type")
		}
		patch.Type = &t
	}
	if v, ok := u["descripcion"]; ok {
		s, ok := asOptionalString(v)
		if !ok {
			return nil, d.invalid("descripcion")
		}
		patch.Descripcion = &s
	}
	if v, ok := u["url"]; ok {
		s, ok := asOptionalString(v)
		if !ok {
			return nil, d.invalid("url")
		}
		patch.URL = &s
	}
	if v, ok := u["parent_id"]; ok {
		s, ok := asOptionalString(v)
		if !ok {
			return nil, d.invalid("parent_id")
		}
		s = strings.TrimSpace(s)
		patch.ParentID = &s
	}
	if v, ok := u["tags"]; ok {
		tags := []string{}
		if v != nil {
			if tags, ok = asStrings(v); !ok {
				return nil, d.invalid("tags")
			}
		}
		patch.Tags = &tags
	}
	if v, ok := u["tareas"]; ok {
		tareas := []model.Subtask{}
		if v != nil {
			if tareas, ok = asSubtasks(v); !ok {
				return nil, d.invalid("tareas")
			}
		}
		patch.Tareas = &tareas
	}
	if v, ok := u["deadline"]; ok {
		var deadline *time.Time
		if !isBlank(v) {
			t, err := d.deadline(v)
			if err != nil {
				return nil, err
			}
			deadline = &t
		}
		patch.Deadline = &deadline
	}
	if v, ok := u["anclado"]; ok {
		b, ok := asBool(v)
		if !ok {
			return nil, d.invalid("anclado")
		}
		patch.Anclado = &b
	}

	if patch.Empty() {
		return nil, d.invalid("updates")
	}
	return UpdateItem{ID: id, Patch: patch}, nil
}

func (d decoder) toggleTask() (Action, error) {
	id, err := d.str("id")
	if err != nil {
		return nil, err
	}
	idx, ok := asInt(d.data["taskIndex"])
	if !ok {
		return nil, d.invalid("taskIndex")
	}
	done, ok := asBool(d.data["completed"])
	if !ok {
		return nil, d.invalid("completed")
	}
	return ToggleTask{ID: id, TaskIndex: idx, Completed: done}, nil
}

func (d decoder) filter() (Action, error) {
	s, err := d.str("category")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(s) {
	case CategoryAll, "todo", "todos", "todas":
		return FilterCategory{Category: CategoryAll}, nil
	}
	t, ok := model.LookupType(s)
	if !ok {
		return nil, d.invalid("category")
	}
	return FilterCategory{Category: string(t)}, nil
}

func (d decoder) deadline(v any) (time.Time, error) {
	s, ok := asString(v)
	if !ok {
		return time.Time{}, d.invalid("deadline")
	}
	t, err := model.ParseDeadline(s, d.loc)
	if err != nil {
		return time.Time{}, d.invalid("deadline")
	}
	return t, nil
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case map[string]any:
		return len(x) == 0
	}
	return false
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

// asOptionalString treats null as the empty string.
func asOptionalString(v any) (string, bool) {
	if v == nil {
		return "", true
	}
	return asString(v)
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
			return 0, false
		}
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case float64:
		if x == 0 || x == 1 {
			return x == 1, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "sí", "si", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

// asStrings accepts a JSON array of strings or one comma-separated string.
func asStrings(v any) ([]string, bool) {
	var raw []string
	switch x := v.(type) {
	case string:
		raw = strings.Split(x, ",")
	case []any:
		for _, e := range x {
			s, ok := asString(e)
			if !ok {
				return nil, false
			}
			raw = append(raw, s)
		}
	default:
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

// asSubtasks accepts an array whose elements are plain titles or
// {"title", "completed"} objects, with the usual field aliases.
func asSubtasks(v any) ([]model.Subtask, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]model.Subtask, 0, len(arr))
	for _, e := range arr {
		switch x := e.(type) {
		case string:
			if t := strings.TrimSpace(x); t != "" {
				out = append(out, model.Subtask{Title: t})
			}
		case map[string]any:
			var st model.Subtask
			for _, k := range []string{"title", "titulo", "texto", "content"} {
				if s, ok := asString(x[k]); ok && strings.TrimSpace(s) != "" {
					st.Title = strings.TrimSpace(s)
					break
				}
			}
			if st.Title == "" {
				return nil, false
			}
			for _, k := range []string{"completed", "completada", "done"} {
				if b, ok := asBool(x[k]); ok {
					st.Completed = b
					break
				}
			}
			out = append(out, st)
		default:
			return nil, false
		}
	}
	return out, true
}
