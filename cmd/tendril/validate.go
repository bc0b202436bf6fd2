package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/internal/validator"
	"github.com/aretw0/tendril/pkg/manifest"
	"github.com/aretw0/tendril/pkg/mapper"
	"github.com/aretw0/tendril/pkg/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate [manifest]",
	Short: "Check a command manifest for consistency",
	Long: `Decodes the manifest, resolves handlers and mappers, and dry-runs the
registration. Route conflicts and invalid arguments are errors; missing
descriptions and unreachable greedy arguments are warnings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Manifest
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			return errors.New("no manifest given")
		}

		handlers := registry.NewRegistry()
		cli.RegisterHandlers(handlers)
		mappers := mapper.NewDefaultRegistry()

		out := cmd.OutOrStdout()
		cmds, err := manifest.NewLoader(handlers, mappers).LoadFile(path)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if len(cmds) == 0 {
				return errors.New("validation failed")
			}
		}

		issues := validator.ValidateCommands(cmds, mappers)
		for _, issue := range issues {
			fmt.Fprintln(out, issue)
		}
		if err != nil || validator.HasErrors(issues) {
			return errors.New("validation failed")
		}
		fmt.Fprintf(out, "Manifest is valid! ✅ (%d commands)\n", len(cmds))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
