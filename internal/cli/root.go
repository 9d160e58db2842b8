// Package cli implements the kai CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rcliao/kai/internal/action"
	"github.com/rcliao/kai/internal/assistant"
	"github.com/rcliao/kai/internal/completion"
	"github.com/rcliao/kai/internal/config"
	"github.com/rcliao/kai/internal/logging"
	"github.com/rcliao/kai/internal/prompt"
	"github.com/rcliao/kai/internal/store"
)

var (
	cfgFile    string
	formatFlag string

	v      = viper.New()
	cfg    *config.Config
	logger *logrus.Logger
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "kai",
	Short: "Personal productivity panel with an AI assistant",
	Long:  "KAI keeps notes, tasks, projects, links, reminders and achievements in SQLite and lets an AI assistant edit them from chat.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			exitErr("config", err)
		}
		logger, err = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		if err != nil {
			exitErr("logging", err)
		}
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: ~/.kai/config.yaml)")
	flags.StringP("db", "d", "", "Database path (default: $KAI_DB or ~/.kai/kai.db)")
	flags.StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	flags.String("provider", "", "Completion provider: openai or gemini")
	flags.String("model", "", "Completion model")
	flags.String("log-level", "", "Log level: debug, info, warn, error")

	v.BindPFlag("db", flags.Lookup("db"))
	v.BindPFlag("provider", flags.Lookup("provider"))
	v.BindPFlag("model", flags.Lookup("model"))
	v.BindPFlag("log_level", flags.Lookup("log-level"))
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DB)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// newAssistant wires the configured provider, persona and limits.
func newAssistant(ctx context.Context, s store.Store, confirm action.Confirmer) *assistant.Assistant {
	client, err := completion.New(ctx, completion.Options{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		exitErr("completion client", err)
	}
	pb, err := prompt.NewFromFile(cfg.PersonaFile)
	if err != nil {
		exitErr("persona", err)
	}
	a := assistant.New(ctx, s, client, assistant.Options{
		Confirmer:         confirm,
		Logger:            logger,
		Prompt:            pb,
		MaxHistory:        cfg.MaxHistory,
		ContextLimit:      cfg.ContextLimit,
		DescriptionBudget: cfg.DescriptionBudget,
		DedupeWindow:      cfg.DedupeWindow,
		Timeout:           cfg.Timeout,
	})
	if err := a.Reload(ctx); err != nil {
		logger.WithError(err).Warn("initial view load failed")
	}
	return a
}

// newExecutor builds an executor for verbs that apply a single action
// without going through the assistant.
func newExecutor(s store.Store, confirm action.Confirmer) *action.Executor {
	return action.NewExecutor(s, action.Options{
		Confirmer: confirm,
		Logger:    logger,
	})
}

func printJSON(w io.Writer, val any) {
	b, _ := json.MarshalIndent(val, "", "  ")
	fmt.Fprintln(w, string(b))
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
