package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/kai/internal/completion"
	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/snapshot"
)

func TestBuildOrder(t *testing.T) {
	b := New("")
	b.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }

	snap := snapshot.Snapshot{Entries: []snapshot.Entry{{ID: "01ABC", Titulo: "Comprar pan", Tipo: "task", Tags: []string{}}}}
	window := []model.Turn{
		{Role: model.RoleUser, Content: "hola"},
		{Role: model.RoleAssistant, Content: "buenas"},
	}
	msgs := b.Build(snap, window, "crea una nota")

	require.Len(t, msgs, 4)
	assert.Equal(t, completion.RoleSystem, msgs[0].Role)
	assert.Equal(t, completion.RoleUser, msgs[1].Role)
	assert.Equal(t, completion.RoleAssistant, msgs[2].Role)
	assert.Equal(t, completion.Message{Role: completion.RoleUser, Content: "crea una nota"}, msgs[3])

	sys := msgs[0].Content
	persona := strings.Index(sys, "Eres KAI")
	schema := strings.Index(sys, "ACCIONES DISPONIBLES")
	items := strings.Index(sys, "Comprar pan")
	require.True(t, persona >= 0 && schema >= 0 && items >= 0)
	assert.Less(t, persona, schema)
	assert.Less(t, schema, items)
	assert.Contains(t, sys, "2025-03-14 09:30")
}

func TestBuildEmptySnapshot(t *testing.T) {
	msgs := New("").Build(snapshot.Snapshot{Unavailable: true}, nil, "hola")
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, snapshot.EmptyMarker)
}

func TestSchemaDocCoversEveryKind(t *testing.T) {
	doc := SchemaDoc()
	assert.Contains(t, doc, Delimiter)
	for _, k := range model.Schema {
		assert.Contains(t, doc, string(k.Kind))
		for _, f := range k.Required {
			assert.Contains(t, doc, f.Name+" (obligatorio)", "kind %s", k.Kind)
		}
	}
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.txt")
	require.NoError(t, os.WriteFile(path, []byte("Eres un pirata.\n"), 0o644))

	b, err := NewFromFile(path)
	require.NoError(t, err)
	msgs := b.Build(snapshot.Snapshot{}, nil, "hola")
	assert.True(t, strings.HasPrefix(msgs[0].Content, "Eres un pirata."))

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	b, err = NewFromFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPersona, b.persona)
}
