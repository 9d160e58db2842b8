package store

import (
	"context"
	"strings"

	"github.com/rcliao/kai/internal/model"
)

// SearchParams holds parameters for searching items.
type SearchParams struct {
	Query string
	Type  model.ItemType
	Limit int
}

// Search finds items whose content, description, url, tags or subtasks contain
// every word of the query. Matching is case-insensitive.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.Item, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	return s.List(ctx, ListParams{Query: p.Query, Type: p.Type, Limit: limit})
}

// queryClause builds an AND of per-word LIKE matches across the text columns.
// Tags and subtasks are matched per element, never against their JSON encoding.
func queryClause(query string) (string, []interface{}) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return "1 = 1", nil
	}

	var clauses []string
	var args []interface{}
	for _, w := range words {
		like := "%" + escapeLike(strings.ToLower(w)) + "%"
		clauses = append(clauses, `(lower(content) LIKE ? ESCAPE '\'
			OR lower(coalesce(descripcion, '')) LIKE ? ESCAPE '\'
			OR lower(coalesce(url, '')) LIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM json_each(items.tags) t
				WHERE lower(t.value) LIKE ? ESCAPE '\')
			OR EXISTS (SELECT 1 FROM json_each(items.tareas) st
				WHERE lower(json_extract(st.value, '$.title')) LIKE ? ESCAPE '\'))`)
		args = append(args, like, like, like, like, like)
	}
	return "(" + strings.Join(clauses, " AND ") + ")", args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
