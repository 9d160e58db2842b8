// Package action parses the action payload of a completion and executes it
// against the item store.
package action

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rcliao/kai/internal/model"
)

// Command is the raw Action Command: {"type": ..., "data": {...}, "id": ...}.
type Command struct {
	Type string
	// Data holds the action fields. Fields the model placed at the top level
	// next to type are merged in when data does not already carry them.
	Data map[string]any
	// ID is the optional top-level id. It stands in for data.id when the
	// model puts the item id outside data.
	ID string
}

// UnmarshalJSON accepts a null or non-object data and a string or numeric id.
func (c *Command) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*c = Command{Data: map[string]any{}}
	if s, ok := rawScalar(raw["type"]); ok {
		c.Type = s
	}
	if s, ok := rawScalar(raw["id"]); ok {
		c.ID = s
	}
	if d, ok := raw["data"]; ok {
		var data map[string]any
		if err := json.Unmarshal(d, &data); err == nil && data != nil {
			c.Data = data
		}
	}
	for k, v := range raw {
		switch k {
		case "type", "data", "id":
			continue
		}
		if _, exists := c.Data[k]; exists {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err == nil {
			c.Data[k] = val
		}
	}
	return nil
}

func rawScalar(b json.RawMessage) (string, bool) {
	if len(b) == 0 {
		return "", false
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return "", false
	}
	return asString(v)
}

// Split cuts a completion at the first delimiter. The reply is trimmed.
// Later delimiters stay inside the payload.
func Split(raw string) (reply, payload string, found bool) {
	i := strings.Index(raw, model.ActionDelimiter)
	if i < 0 {
		return strings.TrimSpace(raw), "", false
	}
	return strings.TrimSpace(raw[:i]), raw[i+len(model.ActionDelimiter):], true
}

// ParsePayload decodes an action payload. Strict JSON is tried first, then
// once more with everything before the first '{' and after the last '}'
// removed. A payload that still fails is logged and yields no command.
func ParsePayload(payload string, log logrus.FieldLogger) (Command, bool) {
	cmd, err := decodeCommand(payload)
	if err == nil {
		return cmd, true
	}
	if repaired, ok := repair(payload); ok {
		if cmd, rerr := decodeCommand(repaired); rerr == nil {
			log.WithField("payload", payload).Debug("action payload repaired")
			return cmd, true
		}
	}
	log.WithError(err).WithField("payload", payload).Warn("action payload is not valid JSON")
	return Command{}, false
}

// Parse splits raw and decodes its payload. cmd is nil when there is no
// delimiter or the payload cannot be parsed.
func Parse(raw string, log logrus.FieldLogger) (reply string, cmd *Command) {
	reply, payload, found := Split(raw)
	if !found {
		return reply, nil
	}
	c, ok := ParsePayload(payload, log)
	if !ok {
		return reply, nil
	}
	return reply, &c
}

func decodeCommand(s string) (Command, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return Command{}, fmt.Errorf("payload is not a JSON object")
	}
	var cmd Command
	if err := json.Unmarshal([]byte(s), &cmd); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

func repair(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
