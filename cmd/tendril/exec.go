package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/cli"
)

var errDispatchFailed = errors.New("dispatch failed")

var execCmd = &cobra.Command{
	Use:   "exec <command line>",
	Short: "Dispatch a single command line",
	Long: `Joins the arguments into one command line and dispatches it.
Quote arguments that contain spaces, e.g. tendril exec say '"hello world"'.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(app)

		line := strings.Join(args, " ")
		if err := app.Dispatcher.Dispatch(app.NewContext(cmd.Context(), os.Stdout), line); err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(app.Dispatcher, line, err))
			return errDispatchFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
