package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/kai/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "link <id> [parent-id]",
		Short: "Attach an item to a parent project, or detach it",
		Args:  cobra.RangeArgs(1, 2),
		Run:   runLink,
	}

	cmd.Flags().Bool("rm", false, "Detach the item from its parent")

	RootCmd.AddCommand(cmd)
}

func runLink(cmd *cobra.Command, args []string) {
	rm, _ := cmd.Flags().GetBool("rm")

	var parent string
	switch {
	case rm && len(args) == 1:
	case !rm && len(args) == 2:
		parent = args[1]
	default:
		exitErr("link", fmt.Errorf("give a parent id, or --rm without one"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	it, err := s.Update(cmd.Context(), args[0], model.Patch{ParentID: &parent})
	if err != nil {
		exitErr("link", err)
	}

	printItem(cmd.OutOrStdout(), it)
}
