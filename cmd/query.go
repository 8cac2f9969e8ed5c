package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/theapemachine/ukg/pkg/ui"
)

var (
	domainFlag  string
	sessionFlag string
	jsonFlag    bool

	queryCmd = &cobra.Command{
		Use:   "query [text]",
		Short: "Answer a single query",
		Long:  longQuery,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, eng)

			qctx := map[string]any{}
			if domainFlag != "" {
				qctx["domain"] = domainFlag
			}

			if sessionFlag != "" {
				qctx["session_id"] = sessionFlag
			}

			query := strings.Join(args, " ")
			result := eng.Router.ProcessQuery(ctx, query, qctx)
			out := cmd.OutOrStdout()

			if jsonFlag {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			if !result.Success {
				return fmt.Errorf("query failed: %s", result.Error)
			}

			fmt.Fprint(out, ui.RenderResult(query, result, 100))
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&domainFlag, "domain", "", "domain of the query, e.g. healthcare")
	queryCmd.Flags().StringVar(&sessionFlag, "session", "", "session id the answer is remembered under")
	queryCmd.Flags().BoolVar(&jsonFlag, "json", false, "print the full result as JSON")
}

var longQuery = `
Answer a single query and exit.

Examples:
  ukg query "What are the key considerations for implementing a data governance program?" --domain technology
  ukg query --json "GDPR compliance for healthcare data"
`
