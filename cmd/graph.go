package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	axisFlag     int
	maxDepthFlag int
	outFlag      string

	graphCmd = &cobra.Command{
		Use:   "graph",
		Short: "Inspect and maintain the knowledge graph",
		Long:  longGraph,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	graphStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Count nodes and relationships",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, eng)

			return printJSON(cmd.OutOrStdout(), eng.Graph.Stats())
		},
	}

	graphSearchCmd = &cobra.Command{
		Use:   "search [text]",
		Short: "Search node labels and descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, eng)

			var axes []int
			if axisFlag > 0 {
				axes = append(axes, axisFlag)
			}

			return printJSON(cmd.OutOrStdout(), eng.Graph.Search(args[0], axes...))
		},
	}

	graphPathsCmd = &cobra.Command{
		Use:   "paths [source] [target]",
		Short: "List the paths between two nodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, eng)

			paths, err := eng.Graph.FindPaths(args[0], args[1], maxDepthFlag)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), paths)
		},
	}

	graphExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write the graph as a JSON snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, eng)

			var out io.Writer = cmd.OutOrStdout()

			if outFlag != "" {
				f, err := os.Create(outFlag)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outFlag, err)
				}
				defer f.Close()

				out = f
			}

			n, err := eng.Graph.WriteTo(out)
			if err != nil {
				return err
			}

			log.Info("graph exported", "bytes", n, "nodes", eng.Graph.Len())
			return nil
		},
	}

	graphImportCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the graph with a JSON snapshot and persist it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, eng)

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			if _, err := eng.Graph.ReadFrom(f); err != nil {
				return err
			}

			return eng.Persist(ctx)
		},
	}
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphStatsCmd, graphSearchCmd, graphPathsCmd, graphExportCmd, graphImportCmd)

	graphSearchCmd.Flags().IntVar(&axisFlag, "axis", 0, "restrict the search to one axis, 1 to 13")
	graphPathsCmd.Flags().IntVar(&maxDepthFlag, "max-depth", 4, "maximum number of hops")
	graphExportCmd.Flags().StringVarP(&outFlag, "out", "o", "", "write to this file instead of stdout")
}

var longGraph = `
Inspect and maintain the knowledge graph in the configured snapshot backend.

Examples:
  ukg graph stats
  ukg graph search gdpr --axis 6
  ukg graph export -o graph.json
  ukg graph import graph.json
`
