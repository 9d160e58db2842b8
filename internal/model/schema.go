package model

import "strings"

// ActionDelimiter separates the conversational reply from the action payload
// in a completion.
const ActionDelimiter = "[ACTION]"

// Kind names one action the assistant may emit.
type Kind string

const (
	KindCreateItem     Kind = "CREATE_ITEM"
	KindUpdateItem     Kind = "UPDATE_ITEM"
	KindDeleteItem     Kind = "DELETE_ITEM"
	KindToggleTask     Kind = "TOGGLE_TASK"
	KindTogglePin      Kind = "TOGGLE_PIN"
	KindOpenProject    Kind = "OPEN_PROJECT"
	KindOpenEdit       Kind = "OPEN_EDIT"
	KindSearch         Kind = "SEARCH"
	KindFilterCategory Kind = "FILTER_CATEGORY"
	KindNoAction       Kind = "NO_ACTION"
)

// Field documents one action field.
type Field struct {
	Name   string
	Domain string
}

// KindSpec is one row of the action schema. The prompt documentation and the
// executor's required-field validation are both generated from Schema.
type KindSpec struct {
	Kind     Kind
	Required []Field
	Optional []Field
	Effect   string
	Mutates  bool
}

// Schema is the canonical action table, in prompt order.
var Schema = []KindSpec{
	{
		Kind:     KindCreateItem,
		Required: []Field{{"content", "texto corto (título)"}},
		Optional: []Field{
			{"type", "note | task | project | directory | reminder | achievement"},
			{"descripcion", "texto libre"},
			{"tareas", `lista de {"title": texto, "completed": bool}`},
			{"tags", "lista de textos"},
			{"deadline", "fecha ISO 8601, p.ej. 2025-01-31T09:00"},
			{"url", "enlace externo"},
			{"parent_id", "id de un proyecto existente"},
		},
		Effect:  "crea un elemento nuevo",
		Mutates: true,
	},
	{
		Kind: KindUpdateItem,
		Required: []Field{
			{"id", "id de un elemento existente"},
			{"updates", "objeto con los campos a cambiar (content, type, descripcion, tareas, tags, deadline, url, parent_id, anclado)"},
		},
		Effect:  "modifica los campos indicados de un elemento",
		Mutates: true,
	},
	{
		Kind:     KindDeleteItem,
		Required: []Field{{"id", "id de un elemento existente"}},
		Effect:   "borra un elemento para siempre (el usuario confirma antes)",
		Mutates:  true,
	},
	{
		Kind: KindToggleTask,
		Required: []Field{
			{"id", "id de un elemento con subtareas"},
			{"taskIndex", "índice de la subtarea, empezando en 0"},
			{"completed", "true | false"},
		},
		Effect:  "marca o desmarca una subtarea",
		Mutates: true,
	},
	{
		Kind:     KindTogglePin,
		Required: []Field{{"id", "id de un elemento existente"}},
		Effect:   "ancla o desancla un elemento",
		Mutates:  true,
	},
	{
		Kind:     KindOpenProject,
		Required: []Field{{"id", "id de un proyecto"}},
		Effect:   "abre un proyecto (solo navegación)",
	},
	{
		Kind:     KindOpenEdit,
		Required: []Field{{"id", "id de un elemento existente"}},
		Optional: []Field{{"focus", "campo a enfocar, p.ej. tareas"}},
		Effect:   "abre el editor de un elemento (solo navegación)",
	},
	{
		Kind:     KindSearch,
		Required: []Field{{"query", "texto a buscar"}},
		Effect:   "busca elementos sin modificar nada",
	},
	{
		Kind:     KindFilterCategory,
		Required: []Field{{"category", "all | note | task | project | directory | reminder | achievement"}},
		Effect:   "cambia el filtro de la vista",
	},
	{
		Kind:   KindNoAction,
		Effect: "solo conversación, no toca los datos",
	},
}

var kindAliases = map[string]Kind{
	"create":          KindCreateItem,
	"create_item":     KindCreateItem,
	"add":             KindCreateItem,
	"crear":           KindCreateItem,
	"update":          KindUpdateItem,
	"update_item":     KindUpdateItem,
	"edit":            KindUpdateItem,
	"editar":          KindUpdateItem,
	"delete":          KindDeleteItem,
	"delete_item":     KindDeleteItem,
	"remove":          KindDeleteItem,
	"borrar":          KindDeleteItem,
	"toggle_task":     KindToggleTask,
	"complete_task":   KindToggleTask,
	"toggle_pin":      KindTogglePin,
	"pin":             KindTogglePin,
	"open_project":    KindOpenProject,
	"open_edit":       KindOpenEdit,
	"search":          KindSearch,
	"find":            KindSearch,
	"buscar":          KindSearch,
	"filter":          KindFilterCategory,
	"filter_category": KindFilterCategory,
	"none":            KindNoAction,
	"no_action":       KindNoAction,
	"chat":            KindNoAction,
}

// LookupKind maps a declared action type, canonical or legacy, onto the
// canonical set. ok is false for anything outside it.
func LookupKind(s string) (Kind, bool) {
	key := strings.TrimSpace(s)
	if spec, ok := SpecFor(Kind(strings.ToUpper(key))); ok {
		return spec.Kind, true
	}
	k, ok := kindAliases[strings.ToLower(key)]
	return k, ok
}

// SpecFor returns the schema row for k.
func SpecFor(k Kind) (KindSpec, bool) {
	for _, s := range Schema {
		if s.Kind == k {
			return s, true
		}
	}
	return KindSpec{}, false
}
