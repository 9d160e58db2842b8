package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/kai/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show item counts per type, pinned and overdue items, and open subtasks",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	st, err := s.Stats(cmd.Context(), cfg.DB)
	if err != nil {
		exitErr("stats", err)
	}

	if formatFlag == "text" {
		fmt.Fprint(cmd.OutOrStdout(), formatStats(st))
		return
	}
	printJSON(cmd.OutOrStdout(), st)
}

func formatStats(st *store.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s (%d KB)\n", titleStyle.Render("db"), st.DBPath, st.DBSizeBytes/1024)
	fmt.Fprintf(&sb, "%-14s %d\n", "items", st.TotalItems)
	fmt.Fprintf(&sb, "%-14s %d\n", "anclados", st.PinnedItems)
	overdue := fmt.Sprintf("%d", st.OverdueItems)
	if st.OverdueItems > 0 {
		overdue = dueStyle.Render(overdue)
	}
	fmt.Fprintf(&sb, "%-14s %s\n", "vencidos", overdue)
	fmt.Fprintf(&sb, "%-14s %d\n", "subtareas", st.OpenSubtasks)
	for _, ts := range st.Types {
		fmt.Fprintf(&sb, "  %s %d\n", typeStyle.Render(fmt.Sprintf("%-12s", ts.Type)), ts.Count)
	}
	return sb.String()
}
