package action

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		reply   string
		payload string
		found   bool
	}{
		{"no delimiter", "  Hola, ¿en qué te ayudo?  ", "Hola, ¿en qué te ayudo?", "", false},
		{"with action", "Hecho. [ACTION] {\"type\":\"NO_ACTION\"}", "Hecho.", " {\"type\":\"NO_ACTION\"}", true},
		{"only first splits", "a [ACTION] b [ACTION] c", "a", " b [ACTION] c", true},
		{"empty reply", "[ACTION]{}", "", "{}", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, payload, found := Split(tt.raw)
			assert.Equal(t, tt.reply, reply)
			assert.Equal(t, tt.payload, payload)
			assert.Equal(t, tt.found, found)
		})
	}
}

func TestParsePayload(t *testing.T) {
	log, _ := test.NewNullLogger()

	cmd, ok := ParsePayload(` {"type":"CREATE_ITEM","data":{"content":"Pan"}} `, log)
	require.True(t, ok)
	assert.Equal(t, "CREATE_ITEM", cmd.Type)
	assert.Equal(t, "Pan", cmd.Data["content"])

	cmd, ok = ParsePayload("```json\n{\"type\":\"SEARCH\",\"data\":{\"query\":\"pan\"}}\n```", log)
	require.True(t, ok, "fenced payload is repaired")
	assert.Equal(t, "SEARCH", cmd.Type)

	cmd, ok = ParsePayload(`{"type":"toggle_task","id":"X","taskIndex":5,"completed":true}`, log)
	require.True(t, ok)
	assert.Equal(t, "X", cmd.ID)
	assert.Equal(t, float64(5), cmd.Data["taskIndex"], "top-level fields are merged into data")
	assert.Equal(t, true, cmd.Data["completed"])

	cmd, ok = ParsePayload(`{"type":"update","id":42,"data":null}`, log)
	require.True(t, ok)
	assert.Equal(t, "42", cmd.ID)
	assert.NotNil(t, cmd.Data)
}

func TestParsePayloadFailure(t *testing.T) {
	log, hook := test.NewNullLogger()

	for _, payload := range []string{"", "no json here", "{broken", `["CREATE_ITEM"]`} {
		_, ok := ParsePayload(payload, log)
		assert.False(t, ok, "payload %q", payload)
	}
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestParse(t *testing.T) {
	log, _ := test.NewNullLogger()

	reply, cmd := Parse(`Vale, lo borro. [ACTION] {"type":"delete","id":null}`, log)
	assert.Equal(t, "Vale, lo borro.", reply)
	require.NotNil(t, cmd)
	assert.Equal(t, "delete", cmd.Type)
	assert.Empty(t, cmd.ID)

	reply, cmd = Parse("Solo charlamos.", log)
	assert.Equal(t, "Solo charlamos.", reply)
	assert.Nil(t, cmd)

	reply, cmd = Parse("Uy [ACTION] nada que ver", log)
	assert.Equal(t, "Uy", reply)
	assert.Nil(t, cmd)
}
