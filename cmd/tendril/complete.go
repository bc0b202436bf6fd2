package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete <partial line>",
	Short: "Print completion candidates for a partial command line",
	Long: `Prints one candidate per line. A trailing space is significant:
"user" completes the word, "user " lists what can follow it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(app)

		line := strings.Join(args, " ")
		out := cmd.OutOrStdout()
		if syntax, _ := cmd.Flags().GetBool("syntax"); syntax {
			fmt.Fprintln(out, app.Dispatcher.Syntax(line))
			return nil
		}
		for _, s := range app.Dispatcher.Suggest(app.NewContext(cmd.Context(), nil), line) {
			fmt.Fprintln(out, s)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completeCmd)
	completeCmd.Flags().Bool("syntax", false, "Print the usage of the command the line reaches instead")
}
