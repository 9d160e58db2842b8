package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve an item",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().Bool("children", false, "Also list the items whose parent is this one")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	children, _ := cmd.Flags().GetBool("children")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	it, err := s.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}
	if !children {
		printItem(cmd.OutOrStdout(), it)
		return
	}

	kids, err := s.Children(cmd.Context(), it.ID)
	if err != nil {
		exitErr("children", err)
	}
	if formatFlag == "text" {
		printItem(cmd.OutOrStdout(), it)
		printItems(cmd.OutOrStdout(), kids)
		return
	}
	printJSON(cmd.OutOrStdout(), map[string]any{"item": it, "children": kids})
}
