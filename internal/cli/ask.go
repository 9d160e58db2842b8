package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/kai/internal/action"
	"github.com/rcliao/kai/internal/assistant"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message to the assistant",
		Long:  "Send one message to the assistant and apply the action it returns. Deletes ask for confirmation unless --yes is given.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAsk,
	}

	cmd.Flags().BoolP("yes", "y", false, "Approve deletes without asking")

	RootCmd.AddCommand(cmd)
}

type askOutput struct {
	TurnID   string          `json:"turn_id"`
	Response string          `json:"response"`
	Action   *action.Command `json:"action,omitempty"`
	Result   string          `json:"result,omitempty"`
	Mutated  bool            `json:"mutated"`
}

func runAsk(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")
	ctx := cmd.Context()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var confirm action.Confirmer = yesConfirmer{}
	if !yes {
		confirm = promptConfirmer{in: newLineReader(os.Stdin), out: cmd.ErrOrStderr()}
	}

	a := newAssistant(ctx, s, confirm)
	reply, err := a.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		exitErr("ask", err)
	}

	if formatFlag == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), reply.Text())
		return
	}
	printJSON(cmd.OutOrStdout(), toAskOutput(reply))
}

func toAskOutput(r assistant.Reply) askOutput {
	out := askOutput{TurnID: r.TurnID, Response: r.Response, Action: r.Command}
	if r.Result != nil {
		out.Result = r.Result.Message
		out.Mutated = r.Result.Mutated
	}
	return out
}
