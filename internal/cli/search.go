package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search items by keyword",
		Long:  "Search item titles, descriptions, links, tags and subtasks for matching text.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("type", "", "Filter by type")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	p := store.SearchParams{Query: query, Limit: limit}
	if typ != "" {
		t, ok := model.LookupType(typ)
		if !ok {
			exitErr("search", fmt.Errorf("unknown type %q", typ))
		}
		p.Type = t
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), p)
	if err != nil {
		exitErr("search", err)
	}

	printItems(cmd.OutOrStdout(), results)
}
