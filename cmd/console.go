package cmd

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/theapemachine/ukg/pkg/ui"
)

var (
	consoleCmd = &cobra.Command{
		Use:   "console",
		Short: "Ask questions interactively",
		Long:  longConsole,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path := os.Getenv("TEA_LOGFILE")
			if path != "" {
				f, err := tea.LogToFile(path, "ukg")
				if err != nil {
					log.Error("could not open logfile", "error", err)
					return err
				}
				defer f.Close()
			}

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, eng)

			session := sessionFlag
			if session == "" {
				session = uuid.NewString()
			}

			qctx := map[string]any{"session_id": session}
			if domainFlag != "" {
				qctx["domain"] = domainFlag
			}

			if _, err := tea.NewProgram(ui.New(ctx, eng.Router, qctx), tea.WithAltScreen()).Run(); err != nil {
				log.Error("console failed", "error", err)
				return err
			}

			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().StringVar(&domainFlag, "domain", "", "domain sent with every query")
	consoleCmd.Flags().StringVar(&sessionFlag, "session", "", "session id, a new one by default")
}

var longConsole = `
Open an interactive console. Every question runs through the router and the
answers are remembered under the console session.

Examples:
  TEA_LOGFILE=/tmp/ukg.log ukg console --domain healthcare --log-file /tmp/ukg.log
`
