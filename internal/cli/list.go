package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Run:   runList,
	}

	cmd.Flags().String("type", "", "Filter by type")
	cmd.Flags().StringP("tags", "t", "", "Filter by tags (comma-separated)")
	cmd.Flags().String("parent", "", "Filter by parent project id")
	cmd.Flags().Bool("pinned", false, "Only pinned items")
	cmd.Flags().Bool("due", false, "Only items whose deadline has passed")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("ids-only", false, "Only output ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	tagsStr, _ := cmd.Flags().GetString("tags")
	parent, _ := cmd.Flags().GetString("parent")
	pinned, _ := cmd.Flags().GetBool("pinned")
	due, _ := cmd.Flags().GetBool("due")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	p := store.ListParams{
		ParentID: parent,
		Tags:     splitTags(tagsStr),
		Limit:    limit,
	}
	if typ != "" {
		t, ok := model.LookupType(typ)
		if !ok {
			exitErr("list", fmt.Errorf("unknown type %q", typ))
		}
		p.Type = t
	}
	if pinned {
		p.Pinned = &pinned
	}
	if due {
		now := time.Now()
		p.DueBefore = &now
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	items, err := s.List(cmd.Context(), p)
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, it := range items {
			fmt.Fprintln(cmd.OutOrStdout(), it.ID)
		}
		return
	}
	printItems(cmd.OutOrStdout(), items)
}
