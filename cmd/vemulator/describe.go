package main

import (
	"github.com/aretw0/vemulator/internal/cli"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <device.yaml>",
	Short: "Summarize the fields and scenarios of a device file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.Validate(args[0])
		if err != nil {
			return err
		}
		plain, _ := cmd.Flags().GetBool("plain")
		return cli.Describe(cmd.OutOrStdout(), cfg, plain)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("plain", false, "Print raw markdown instead of rendering it")
}
