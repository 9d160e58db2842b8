// Package completion provides text-completion clients for the assistant.
package completion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
)

// Roles used in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyCompletion is returned when the provider answered without text.
var ErrEmptyCompletion = errors.New("empty completion")

// Message is one role/content entry sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client turns a role/content history into one text completion.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Options configures a provider client.
type Options struct {
	Provider    string // "openai" (default) or "gemini"
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
}

// New creates a client for the configured provider.
func New(ctx context.Context, opts Options) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "openai":
		key := opts.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		return NewOpenAIClient(opts.BaseURL, key, opts.Model, opts.Temperature), nil
	case "gemini", "google":
		key := opts.APIKey
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
		c, err := NewGeminiClient(ctx, key, opts.Model, opts.Temperature)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeUnavailable).
				WithMsg("gemini client unavailable").
				WithCause(err)
		}
		return c, nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("unknown completion provider %q (valid: openai, gemini)", opts.Provider)).
			WithCause(errors.New("unknown provider"))
	}
}
