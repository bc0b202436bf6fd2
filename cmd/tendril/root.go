package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tendril",
	Short: "Tendril is a command dispatch engine",
	Long: `Tendril routes command lines through a tree of commands, binds typed
arguments and runs handlers. Commands come from a YAML, JSON or TOML manifest
and can be driven from a shell, over HTTP or through MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("log-level") {
			loaded.LogLevel, _ = flags.GetString("log-level")
		}
		if flags.Changed("log-format") {
			loaded.LogFormat, _ = flags.GetString("log-format")
		}
		if flags.Changed("manifest") {
			loaded.Manifest, _ = flags.GetString("manifest")
		}
		if flags.Changed("watch") {
			loaded.Watch, _ = flags.GetBool("watch")
		}
		if flags.Changed("subject") {
			loaded.Subject, _ = flags.GetString("subject")
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (TOML, YAML or JSON)")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.StringP("manifest", "m", "", "Command manifest (demo commands when empty)")
	flags.BoolP("watch", "w", false, "Reload the manifest when it changes")
	flags.StringP("subject", "s", "", "Caller identity used for permission checks")
}

// startApp builds the application from the loaded config and registers its commands.
func startApp(ctx context.Context) (*cli.App, error) {
	app, err := cli.NewApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tendril: %w", err)
	}
	if err := app.LoadCommands(ctx); err != nil {
		app.Logger.Warn("some commands could not be loaded", "error", err)
	}
	return app, nil
}

// closeApp waits for async handlers to finish.
func closeApp(app *cli.App) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Close(ctx); err != nil {
		app.Logger.Warn("async handlers still running at exit", "error", err)
	}
}
