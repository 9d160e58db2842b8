package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/kai/internal/action"
	"github.com/rcliao/kai/internal/alarm"
	"github.com/rcliao/kai/internal/assistant"
	"github.com/rcliao/kai/internal/model"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	kaiStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	alarmStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

const chatHelp = `/items   muestra los elementos
/reset   olvida la conversación
/salir   termina (también Ctrl-D)`

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant",
		Long:  "Interactive chat. Alarms for due items are printed while the chat is open.",
		Run:   runChat,
	}

	cmd.Flags().Bool("markdown", false, "Render replies as markdown")
	cmd.Flags().Bool("no-alarms", false, "Do not run the alarm checker")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	markdown, _ := cmd.Flags().GetBool("markdown")
	noAlarms, _ := cmd.Flags().GetBool("no-alarms")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	out := &syncWriter{w: cmd.OutOrStdout()}
	in := newLineReader(os.Stdin)
	a := newAssistant(ctx, s, promptConfirmer{in: in, out: out})

	var render func(string) string
	if markdown {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
		if err != nil {
			logger.WithError(err).Warn("markdown renderer unavailable")
		} else {
			render = func(text string) string {
				rendered, err := r.Render(text)
				if err != nil {
					return text
				}
				return strings.TrimSpace(rendered)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	chatCtx, endChat := context.WithCancel(gctx)
	if !noAlarms {
		checker := alarm.NewChecker(s, alarm.NotifyFunc(func(_ context.Context, it model.Item) error {
			_, err := fmt.Fprintf(out, "\n%s %s\n", alarmStyle.Render("⏰ Alarma:"), it.Content)
			return err
		}), logger)
		g.Go(func() error { return checker.Run(chatCtx, cfg.AlarmInterval) })
	}
	g.Go(func() error {
		defer endChat()
		return chatLoop(chatCtx, a, in, out, render)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		exitErr("chat", err)
	}
}

func chatLoop(ctx context.Context, a *assistant.Assistant, in *lineReader, out io.Writer, render func(string) string) error {
	fmt.Fprintln(out, noteStyle.Render("KAI listo. Escribe /ayuda para ver los comandos."))
	for {
		fmt.Fprint(out, promptStyle.Render("tú> "))
		line, ok := in.next(ctx)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		line = strings.TrimSpace(line)

		switch line {
		case "":
			continue
		case "/salir", "/exit", "/quit":
			return nil
		case "/ayuda", "/help":
			fmt.Fprintln(out, noteStyle.Render(chatHelp))
			continue
		case "/reset":
			a.Reset()
			fmt.Fprintln(out, noteStyle.Render("Conversación olvidada."))
			continue
		case "/items":
			printChatItems(out, a.View())
			continue
		}

		reply, err := a.Ask(ctx, line)
		if err != nil {
			fmt.Fprintln(out, noteStyle.Render(err.Error()))
			continue
		}
		text := reply.Text()
		if render != nil && reply.Response != "" {
			text = render(text)
		}
		fmt.Fprintf(out, "%s %s\n", kaiStyle.Render("kai>"), text)
	}
}

func printChatItems(w io.Writer, view assistant.ViewState) {
	if len(view.Items) == 0 {
		fmt.Fprintln(w, noteStyle.Render("(sin elementos)"))
		return
	}
	if view.Category != "" && view.Category != action.CategoryAll {
		fmt.Fprintln(w, noteStyle.Render("filtro: "+view.Category))
	}
	now := time.Now()
	for _, it := range view.Items {
		fmt.Fprintln(w, formatItem(it, now))
	}
}
