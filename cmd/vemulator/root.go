package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vemulator",
	Short: "vemulator emulates a device speaking the VE.Direct protocol",
	Long: `vemulator reads a device description and emits the text and hex frames the
device would produce, answering hex commands read from a serial port or file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
