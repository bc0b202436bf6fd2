package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/cli"
)

var shellCmd = &cobra.Command{
	Use:     "shell",
	Aliases: []string{"repl"},
	Short:   "Start an interactive shell with tab completion",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		app, err := startApp(sc)
		if err != nil {
			return err
		}
		defer closeApp(app)

		err = app.RunShell(sc, os.Stdin, os.Stdout)
		if sig := sc.Signal(); sig != nil {
			app.Logger.Debug("shell interrupted", "signal", sig.String())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
