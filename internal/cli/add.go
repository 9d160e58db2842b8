package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Create an item",
		Long:  "Create an item. Content can be a positional arg or piped via stdin.",
		Run:   runAdd,
	}

	cmd.Flags().String("type", "note", "Type: note, task, project, directory, reminder, achievement")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	cmd.Flags().String("desc", "", "Description")
	cmd.Flags().String("url", "", "External link")
	cmd.Flags().String("parent", "", "Parent project id")
	cmd.Flags().String("deadline", "", "Deadline, e.g. 2025-01-31T09:00")
	cmd.Flags().StringArray("task", nil, "Subtask title (repeatable)")
	cmd.Flags().Bool("pin", false, "Pin the item")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	tagsStr, _ := cmd.Flags().GetString("tags")
	desc, _ := cmd.Flags().GetString("desc")
	url, _ := cmd.Flags().GetString("url")
	parent, _ := cmd.Flags().GetString("parent")
	deadlineStr, _ := cmd.Flags().GetString("deadline")
	tasks, _ := cmd.Flags().GetStringArray("task")
	pin, _ := cmd.Flags().GetBool("pin")

	// Get content: positional arg first, then check stdin
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}

	if strings.TrimSpace(content) == "" {
		exitErr("add", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	itemType, ok := model.LookupType(typ)
	if !ok {
		exitErr("add", fmt.Errorf("unknown type %q", typ))
	}

	var deadline *time.Time
	if deadlineStr != "" {
		t, err := model.ParseDeadline(deadlineStr, time.Local)
		if err != nil {
			exitErr("add", err)
		}
		deadline = &t
	}

	var tareas []model.Subtask
	for _, title := range tasks {
		if title = strings.TrimSpace(title); title != "" {
			tareas = append(tareas, model.Subtask{Title: title})
		}
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	it, err := s.Create(cmd.Context(), store.CreateParams{
		Content:     strings.TrimSpace(content),
		Type:        itemType,
		ParentID:    parent,
		Descripcion: desc,
		URL:         url,
		Tags:        splitTags(tagsStr),
		Tareas:      tareas,
		Deadline:    deadline,
		Anclado:     pin,
	})
	if err != nil {
		exitErr("add", err)
	}

	printItem(cmd.OutOrStdout(), it)
}
