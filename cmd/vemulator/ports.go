package main

import (
	"github.com/aretw0/vemulator/internal/cli"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List the serial ports available for --input and --output",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListPorts(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
