package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/presentation/graph"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Export the command tree as a Mermaid diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(app)

		var overlay *graph.Overlay
		if hl, _ := cmd.Flags().GetString("highlight"); hl != "" {
			overlay = &graph.Overlay{Path: strings.Fields(hl)}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Dispatcher.Commands(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().String("highlight", "", `Command path to highlight, e.g. "user add"`)
}
