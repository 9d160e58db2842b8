package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/kai/internal/action"
	"github.com/rcliao/kai/internal/assistant"
	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/store"
)

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"casa", "urgente"}, splitTags(" casa, ,urgente "))
	assert.Nil(t, splitTags(""))
}

func TestIsYes(t *testing.T) {
	for _, s := range []string{"s", "Sí", " yes ", "Y"} {
		assert.True(t, isYes(s), s)
	}
	for _, s := range []string{"", "n", "no", "quizás"} {
		assert.False(t, isYes(s), s)
	}
}

func TestPromptConfirmer(t *testing.T) {
	var out strings.Builder
	c := promptConfirmer{in: newLineReader(strings.NewReader("s\nno\n")), out: &out}

	ok, err := c.Confirm(context.Background(), "¿Borrar?")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.Confirm(context.Background(), "¿Borrar?")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "¿Borrar? [s/N]")

	ok, err = c.Confirm(context.Background(), "¿Otra vez?")
	assert.False(t, ok, "end of input declines")
	assert.NoError(t, err)
}

func TestPromptConfirmerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := promptConfirmer{in: &lineReader{lines: make(chan string)}, out: &strings.Builder{}}
	ok, err := c.Confirm(ctx, "¿Borrar?")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatItem(t *testing.T) {
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	line := formatItem(model.Item{
		ID:       "01ABC",
		Type:     model.TypeTask,
		Content:  "Mudanza",
		Tags:     []string{"casa"},
		Tareas:   []model.Subtask{{Title: "a", Completed: true}, {Title: "b"}},
		Deadline: &past,
		Anclado:  true,
	}, now)

	for _, want := range []string{"01ABC", "task", "Mudanza", "(1/2)", "#casa", "*"} {
		assert.Contains(t, line, want)
	}
}

func TestDecodeItems(t *testing.T) {
	jsonIn := `[{"id":"01A","content":"Pan","type":"task","tags":["x"],"anclado":true}]`
	items, err := decodeItems([]byte(jsonIn), false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Pan", items[0].Content)
	assert.True(t, items[0].Anclado)

	yamlIn := "- id: 01B\n  content: Leche\n  type: note\n  tareas:\n    - title: comprar\n      completed: false\n"
	items, err = decodeItems([]byte(yamlIn), true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "01B", items[0].ID)
	require.Len(t, items[0].Tareas, 1)
	assert.Equal(t, "comprar", items[0].Tareas[0].Title)

	_, err = decodeItems([]byte("{"), false)
	assert.Error(t, err)
}

func TestToAskOutput(t *testing.T) {
	out := toAskOutput(assistant.Reply{
		TurnID:   "t1",
		Response: "Hecho.",
		Command:  &action.Command{Type: "CREATE_ITEM"},
		Result:   &action.Result{Message: "Creado: Pan", Mutated: true},
	})
	assert.Equal(t, "t1", out.TurnID)
	assert.Equal(t, "Creado: Pan", out.Result)
	assert.True(t, out.Mutated)
}

func TestFormatStats(t *testing.T) {
	out := formatStats(&store.Stats{
		DBPath:       "/tmp/kai.db",
		DBSizeBytes:  4096,
		TotalItems:   5,
		PinnedItems:  2,
		OverdueItems: 1,
		OpenSubtasks: 3,
		Types:        []store.TypeStats{{Type: "task", Count: 3}, {Type: "note", Count: 2}},
	})

	for _, want := range []string{"/tmp/kai.db (4 KB)", "items", "anclados", "vencidos", "subtareas", "task", "note"} {
		assert.Contains(t, out, want)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 7)
	assert.Contains(t, lines[1], "5")
	assert.Contains(t, lines[2], "2")
}
