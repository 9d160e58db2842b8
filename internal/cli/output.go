package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rcliao/kai/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	typeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	pinStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func printItem(w io.Writer, it *model.Item) {
	if formatFlag != "text" {
		printJSON(w, it)
		return
	}
	fmt.Fprintln(w, formatItem(*it, time.Now()))
	if it.Descripcion != "" {
		fmt.Fprintf(w, "    %s\n", it.Descripcion)
	}
	if it.URL != "" {
		fmt.Fprintf(w, "    %s\n", it.URL)
	}
	for i, st := range it.Tareas {
		box := "[ ]"
		if st.Completed {
			box = doneStyle.Render("[x]")
		}
		fmt.Fprintf(w, "    %d %s %s\n", i, box, st.Title)
	}
}

func printItems(w io.Writer, items []model.Item) {
	if formatFlag != "text" {
		if items == nil {
			items = []model.Item{}
		}
		printJSON(w, items)
		return
	}
	now := time.Now()
	for _, it := range items {
		fmt.Fprintln(w, formatItem(it, now))
	}
}

// formatItem renders one line: id, type, title, then pin, progress, deadline
// and tags when present.
func formatItem(it model.Item, now time.Time) string {
	parts := []string{
		idStyle.Render(it.ID),
		typeStyle.Render(fmt.Sprintf("%-11s", it.Type)),
		titleStyle.Render(it.Content),
	}
	if it.Anclado {
		parts = append(parts, pinStyle.Render("*"))
	}
	if n := len(it.Tareas); n > 0 {
		done := 0
		for _, st := range it.Tareas {
			if st.Completed {
				done++
			}
		}
		progress := fmt.Sprintf("(%d/%d)", done, n)
		if done == n {
			progress = doneStyle.Render(progress)
		}
		parts = append(parts, progress)
	}
	if it.Deadline != nil {
		d := it.Deadline.Local().Format("2006-01-02 15:04")
		if !it.Deadline.After(now) {
			d = dueStyle.Render(d)
		}
		parts = append(parts, d)
	}
	if len(it.Tags) > 0 {
		parts = append(parts, idStyle.Render("#"+strings.Join(it.Tags, " #")))
	}
	return strings.Join(parts, "  ")
}
