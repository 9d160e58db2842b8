package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/kai/internal/prompt"
	"github.com/rcliao/kai/internal/snapshot"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [message]",
		Short: "Show what the assistant would be sent",
		Long:  "Print the item snapshot included in every prompt. With --prompt, print the full message list for the given message.",
		Run:   runContext,
	}

	cmd.Flags().Bool("prompt", false, "Print the full prompt instead of the snapshot")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	full, _ := cmd.Flags().GetBool("prompt")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	snap := snapshot.NewSummarizer(s, cfg.ContextLimit, cfg.DescriptionBudget, logger).Snapshot(cmd.Context())
	if !full {
		fmt.Fprintln(cmd.OutOrStdout(), snap.Render())
		return
	}

	pb, err := prompt.NewFromFile(cfg.PersonaFile)
	if err != nil {
		exitErr("persona", err)
	}
	msgs := pb.Build(snap, nil, strings.Join(args, " "))
	if formatFlag == "text" {
		for _, m := range msgs {
			fmt.Fprintf(cmd.OutOrStdout(), "--- %s ---\n%s\n", m.Role, m.Content)
		}
		return
	}
	printJSON(cmd.OutOrStdout(), msgs)
}
