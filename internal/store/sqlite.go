package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/kai/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex // guards entropy
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id          TEXT PRIMARY KEY,
		content     TEXT NOT NULL,
		type        TEXT NOT NULL DEFAULT 'note',
		parent_id   TEXT,
		descripcion TEXT,
		url         TEXT,
		tags        TEXT,
		tareas      TEXT,
		deadline    TEXT,
		anclado     INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id);
	CREATE INDEX IF NOT EXISTS idx_items_type ON items(type);
	CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_items_deadline ON items(deadline);
	`
	_, err := s.db.Exec(schema)
	return err
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const itemColumns = `id, content, type, parent_id, descripcion, url, tags, tareas,
	deadline, anclado, created_at, updated_at`

func (s *SQLiteStore) Create(ctx context.Context, p CreateParams) (*model.Item, error) {
	now := time.Now().UTC()
	it := model.Item{
		ID:          s.newID(),
		Content:     strings.TrimSpace(p.Content),
		Type:        model.NormalizeType(string(p.Type)),
		ParentID:    p.ParentID,
		Descripcion: p.Descripcion,
		URL:         p.URL,
		Tags:        p.Tags,
		Tareas:      p.Tareas,
		Deadline:    p.Deadline,
		Anclado:     p.Anclado,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if it.Content == "" {
		return nil, fmt.Errorf("content is required")
	}

	if it.ParentID != "" {
		if err := s.checkParent(ctx, s.db, it.ID, it.ParentID); err != nil {
			return nil, err
		}
	}

	if err := s.insert(ctx, s.db, it); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return &it, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *SQLiteStore) insert(ctx context.Context, db execer, it model.Item) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Content, string(it.Type), nullString(it.ParentID), nullString(it.Descripcion),
		nullString(it.URL), encodeJSON(it.Tags), encodeJSON(it.Tareas), formatTime(it.Deadline),
		boolInt(it.Anclado), it.CreatedAt.UTC().Format(timeLayout), it.UpdatedAt.UTC().Format(timeLayout))
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Item, error) {
	return s.get(ctx, s.db, id)
}

func (s *SQLiteStore) get(ctx context.Context, db execer, id string) (*model.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Item, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}

	where := []string{"1 = 1"}
	var args []interface{}

	if p.ID != "" {
		where = append(where, "id = ?")
		args = append(args, p.ID)
	}
	if p.ParentID != "" {
		where = append(where, "parent_id = ?")
		args = append(args, p.ParentID)
	}
	if p.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(p.Type))
	}
	if p.Pinned != nil {
		where = append(where, "anclado = ?")
		args = append(args, boolInt(*p.Pinned))
	}
	if p.DueBefore != nil {
		where = append(where, "deadline IS NOT NULL AND deadline <= ?")
		args = append(args, p.DueBefore.UTC().Format(timeLayout))
	}

	for _, tag := range p.Tags {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(items.tags) t WHERE t.value = ?)")
		args = append(args, tag)
	}

	if p.Query != "" {
		clause, qargs := queryClause(p.Query)
		where = append(where, clause)
		args = append(args, qargs...)
	}

	query := fmt.Sprintf(`SELECT %s FROM items WHERE %s ORDER BY created_at DESC, id DESC LIMIT ?`,
		itemColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *SQLiteStore) Update(ctx context.Context, id string, patch model.Patch) (*model.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	cur, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	next := patch.Apply(*cur)
	next.Content = strings.TrimSpace(next.Content)
	if next.Content == "" {
		return nil, fmt.Errorf("content is required")
	}
	next.Type = model.NormalizeType(string(next.Type))
	next.UpdatedAt = time.Now().UTC()

	if patch.ParentID != nil && next.ParentID != "" && next.ParentID != cur.ParentID {
		if err := s.checkParent(ctx, tx, id, next.ParentID); err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET content = ?, type = ?, parent_id = ?, descripcion = ?, url = ?,
		        tags = ?, tareas = ?, deadline = ?, anclado = ?, updated_at = ?
		 WHERE id = ?`,
		next.Content, string(next.Type), nullString(next.ParentID), nullString(next.Descripcion),
		nullString(next.URL), encodeJSON(next.Tags), encodeJSON(next.Tareas), formatTime(next.Deadline),
		boolInt(next.Anclado), next.UpdatedAt.Format(timeLayout), id)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanItem never fails on malformed JSON columns; bad values decode as empty.
func scanItem(row scanner) (model.Item, error) {
	var it model.Item
	var typ string
	var parentID, desc, url, tagsJSON, tareasJSON, deadline sql.NullString
	var anclado int
	var createdAt, updatedAt string

	err := row.Scan(
		&it.ID, &it.Content, &typ, &parentID, &desc, &url, &tagsJSON, &tareasJSON,
		&deadline, &anclado, &createdAt, &updatedAt,
	)
	if err != nil {
		return it, err
	}

	it.Type = model.NormalizeType(typ)
	it.ParentID = parentID.String
	it.Descripcion = desc.String
	it.URL = url.String
	it.Anclado = anclado != 0
	it.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	it.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &it.Tags)
	}
	if tareasJSON.Valid {
		json.Unmarshal([]byte(tareasJSON.String), &it.Tareas)
	}
	if deadline.Valid {
		if t, err := time.Parse(time.RFC3339Nano, deadline.String); err == nil {
			it.Deadline = &t
		}
	}

	return it, nil
}

func encodeJSON[T any](v []T) *string {
	if len(v) == 0 {
		return nil
	}
	b, _ := json.Marshal(v)
	s := string(b)
	return &s
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timeLayout)
	return &s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
