package cli

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/kai/internal/alarm"
	"github.com/rcliao/kai/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "alarms",
		Short: "Fire alarms for items whose deadline has passed",
		Long:  "Check once for due items, print them and mark them as fired. With --watch, keep checking until interrupted.",
		Run:   runAlarms,
	}

	cmd.Flags().BoolP("watch", "w", false, "Keep checking every alarm_interval")

	RootCmd.AddCommand(cmd)
}

func runAlarms(cmd *cobra.Command, args []string) {
	watch, _ := cmd.Flags().GetBool("watch")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	out := &syncWriter{w: cmd.OutOrStdout()}
	notify := alarm.NotifyFunc(func(_ context.Context, it model.Item) error {
		if formatFlag == "text" {
			_, err := out.Write([]byte(formatItem(it, time.Now()) + "\n"))
			return err
		}
		printJSON(out, it)
		return nil
	})
	checker := alarm.NewChecker(s, notify, logger)

	if !watch {
		if _, err := checker.Check(cmd.Context(), time.Now()); err != nil {
			exitErr("alarms", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if err := checker.Run(ctx, cfg.AlarmInterval); err != nil {
		exitErr("alarms", err)
	}
}
