package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vemulator"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vemulator",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vemulator version %s\n", strings.TrimSpace(vemulator.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
