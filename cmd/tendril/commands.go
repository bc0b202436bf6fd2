package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/aretw0/tendril/pkg/domain"
)

var commandsCmd = &cobra.Command{
	Use:     "commands",
	Aliases: []string{"ls"},
	Short:   "List the registered commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(app)

		md := tui.HelpMarkdown(app.Dispatcher.Commands(), func(c *domain.Command) string {
			return app.Dispatcher.Syntax(c.Name())
		})
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			_, err = cmd.OutOrStdout().Write([]byte(md))
			return err
		}

		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			width = 0
		}
		render, err := tui.NewRenderer(width)
		if err != nil {
			return err
		}
		out, err := render(md)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write([]byte(out))
		return err
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
	commandsCmd.Flags().Bool("raw", false, "Print markdown without rendering")
}
