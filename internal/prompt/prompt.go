// Package prompt composes the message list sent to the completion provider.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rcliao/kai/internal/completion"
	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/snapshot"
)

// Delimiter is documented to the model as the action separator.
const Delimiter = model.ActionDelimiter

// DefaultPersona is used when no persona file is configured.
const DefaultPersona = `Eres KAI, el asistente de un panel personal de productividad.
El usuario guarda notas, tareas, proyectos, enlaces (directory), recordatorios y logros.
Responde siempre en español, de forma breve y amable.
Cuando el usuario pida cambiar sus datos, emite exactamente una acción.
Usa solo IDs que aparezcan en la lista de elementos; si no sabes cuál es, pregunta.`

// Builder composes prompts. The zero value is not usable; use New.
type Builder struct {
	persona string
	now     func() time.Time
}

// New creates a builder with the given persona. An empty persona selects
// DefaultPersona.
func New(persona string) *Builder {
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersona
	}
	return &Builder{persona: strings.TrimSpace(persona), now: time.Now}
}

// NewFromFile reads the persona from path. An empty path selects DefaultPersona.
func NewFromFile(path string) (*Builder, error) {
	if path == "" {
		return New(""), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona: %w", err)
	}
	return New(string(b)), nil
}

// Build returns the system message, then the memory window, then the new user
// message.
func (b *Builder) Build(snap snapshot.Snapshot, window []model.Turn, message string) []completion.Message {
	msgs := make([]completion.Message, 0, len(window)+2)
	msgs = append(msgs, completion.Message{Role: completion.RoleSystem, Content: b.system(snap)})
	for _, t := range window {
		role := completion.RoleUser
		if t.Role == model.RoleAssistant {
			role = completion.RoleAssistant
		}
		msgs = append(msgs, completion.Message{Role: role, Content: t.Content})
	}
	msgs = append(msgs, completion.Message{Role: completion.RoleUser, Content: message})
	return msgs
}

func (b *Builder) system(snap snapshot.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(b.persona)
	sb.WriteString("\n\n")
	sb.WriteString(SchemaDoc())
	fmt.Fprintf(&sb, "\nFecha y hora actual: %s\n", b.now().Format("2006-01-02 15:04 (Monday)"))
	sb.WriteString("\nElementos actuales del usuario (más recientes primero):\n")
	sb.WriteString(snap.Render())
	sb.WriteString("\n")
	return sb.String()
}

// SchemaDoc documents the response format and every action kind.
func SchemaDoc() string {
	var sb strings.Builder
	sb.WriteString("FORMATO DE RESPUESTA\n")
	fmt.Fprintf(&sb, "Escribe primero tu respuesta para el usuario. Si hace falta una acción, añade %s seguido de un único objeto JSON:\n", Delimiter)
	fmt.Fprintf(&sb, "%s {\"type\": \"TIPO\", \"data\": {...}}\n", Delimiter)
	fmt.Fprintf(&sb, "Si no hay acción, no escribas %s.\n\n", Delimiter)
	sb.WriteString("ACCIONES DISPONIBLES\n")
	for _, k := range model.Schema {
		fmt.Fprintf(&sb, "- %s: %s\n", k.Kind, k.Effect)
		for _, f := range k.Required {
			fmt.Fprintf(&sb, "    %s (obligatorio): %s\n", f.Name, f.Domain)
		}
		for _, f := range k.Optional {
			fmt.Fprintf(&sb, "    %s (opcional): %s\n", f.Name, f.Domain)
		}
	}
	return sb.String()
}
