package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/kai/internal/action"
	"github.com/rcliao/kai/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var confirm action.Confirmer = yesConfirmer{}
	if !yes {
		confirm = promptConfirmer{in: newLineReader(os.Stdin), out: cmd.ErrOrStderr()}
	}

	res := newExecutor(s, confirm).Execute(cmd.Context(), action.Command{
		Type: string(model.KindDeleteItem),
		ID:   args[0],
	})
	if !res.Mutated {
		exitErr("rm", fmt.Errorf("%s", res.Message))
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%q}`+"\n", args[0])
}
