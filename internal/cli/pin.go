package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rcliao/kai/internal/action"
	"github.com/rcliao/kai/internal/model"
)

func init() {
	pinCmd := &cobra.Command{
		Use:   "pin <id>",
		Short: "Pin or unpin an item",
		Args:  cobra.ExactArgs(1),
		Run:   runPin,
	}

	doneCmd := &cobra.Command{
		Use:   "done <id> <task-index>",
		Short: "Mark a subtask as completed",
		Args:  cobra.ExactArgs(2),
		Run:   runDone,
	}
	doneCmd.Flags().Bool("undo", false, "Mark the subtask as pending instead")

	RootCmd.AddCommand(pinCmd, doneCmd)
}

func runPin(cmd *cobra.Command, args []string) {
	applyAction(cmd, action.Command{
		Type: string(model.KindTogglePin),
		ID:   args[0],
	})
}

func runDone(cmd *cobra.Command, args []string) {
	undo, _ := cmd.Flags().GetBool("undo")
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		exitErr("done", fmt.Errorf("task index must be a number: %w", err))
	}
	applyAction(cmd, action.Command{
		Type: string(model.KindToggleTask),
		ID:   args[0],
		Data: map[string]any{"taskIndex": idx, "completed": !undo},
	})
}

// applyAction runs one mutating command and prints the resulting item.
func applyAction(cmd *cobra.Command, c action.Command) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res := newExecutor(s, nil).Execute(cmd.Context(), c)
	if !res.Mutated || res.Item == nil {
		exitErr(cmd.Name(), fmt.Errorf("%s", res.Message))
	}
	printItem(cmd.OutOrStdout(), res.Item)
}
