package main

import (
	"fmt"

	"github.com/aretw0/vemulator/internal/cli"
	"github.com/aretw0/vemulator/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <device.yaml>",
	Short: "Check a device file for errors",
	Long:  `Loads the device file, resolves presets and builds every scenario, reporting all configuration errors at once.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := settingsOverrides(cmd)
		if err != nil {
			return err
		}
		cfg, err := cli.Validate(args[0], overrides...)
		if err != nil {
			errs := config.Errors(err)
			if len(errs) == 0 {
				return err
			}
			for _, e := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", e)
			}
			return fmt.Errorf("validation failed with %d error(s)", len(errs))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (%d text, %d hex fields)\n", args[0], len(cfg.Text), len(cfg.Hex))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addSettingsFlags(validateCmd)
}
