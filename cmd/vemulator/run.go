package main

import (
	"time"

	"github.com/aretw0/vemulator/internal/cli"
	"github.com/aretw0/vemulator/pkg/adapters/serial"
	"github.com/aretw0/vemulator/pkg/config"
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <device.yaml>",
	Short: "Emulate the device described by a configuration file",
	Long: `Starts the emulator for the given device file. Frames go to --output and hex
commands are read from --input. The run ends when every scenario of the fields
named by the stop condition is exhausted, or on SIGINT/SIGTERM.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := settingsOverrides(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		input, _ := flags.GetString("input")
		output, _ := flags.GetString("output")
		baud, _ := flags.GetInt("baud")
		httpAddr, _ := flags.GetString("http")
		redisAddr, _ := flags.GetString("redis")
		debug, _ := flags.GetBool("debug")
		quiet, _ := flags.GetBool("quiet")

		return cli.Execute(cmd.Context(), cli.RunOptions{
			ConfigPath: args[0],
			Input:      input,
			Output:     output,
			Baud:       baud,
			HTTPAddr:   httpAddr,
			RedisAddr:  redisAddr,
			Debug:      debug,
			Quiet:      quiet,
			Overrides:  overrides,
			Stderr:     cmd.ErrOrStderr(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addSettingsFlags(runCmd)

	runCmd.Flags().String("input", "none", "Where hex commands are read from: none, file:<path> or serial:<port>")
	runCmd.Flags().String("output", "stdout", "Where frames are written: none, stdout, file:<path> or serial:<port>")
	runCmd.Flags().Int("baud", serial.DefaultBaudRate, "Baud rate of serial endpoints")
	runCmd.Flags().String("http", "", "Serve the control API and metrics on this address, e.g. :8080")
	runCmd.Flags().String("redis", "", "Mirror field values to the Redis server at this address")
	runCmd.Flags().Bool("debug", false, "Log every frame and command")
	runCmd.Flags().BoolP("quiet", "q", false, "Only log errors")
}

// addSettingsFlags registers the flags that override the emulation block.
func addSettingsFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("delay", 1, "Seconds between two text messages")
	cmd.Flags().Int64("seed", 0, "Default seed of scenarios without their own")
	cmd.Flags().Bool("timed", false, "Generate values on per-field timers")
	cmd.Flags().String("stop", string(domain.StopText), "Stop condition: text, hex, text-hex or none")
	cmd.Flags().Float64("bit-error-rate", 0, "Fraction of bits flipped in every outgoing message")
	cmd.Flags().Bool("bit-error-checksum", false, "Let bit errors reach the checksum")
	cmd.Flags().String("preset-dir", "protocols", "Directory holding preset definitions")
}

// settingsOverrides turns the settings flags the user set into overrides.
// Flags left at their default keep the value from the device file.
func settingsOverrides(cmd *cobra.Command) ([]func(*config.Settings), error) {
	flags := cmd.Flags()
	var out []func(*config.Settings)

	if flags.Changed("delay") {
		v, _ := flags.GetFloat64("delay")
		out = append(out, func(s *config.Settings) { s.Delay = time.Duration(v * float64(time.Second)) })
	}
	if flags.Changed("seed") {
		v, _ := flags.GetInt64("seed")
		out = append(out, func(s *config.Settings) { s.DefaultSeed = v })
	}
	if flags.Changed("timed") {
		v, _ := flags.GetBool("timed")
		out = append(out, func(s *config.Settings) { s.Timed = v })
	}
	if flags.Changed("stop") {
		v, _ := flags.GetString("stop")
		c, err := domain.ParseStopCondition(v)
		if err != nil {
			return nil, err
		}
		out = append(out, func(s *config.Settings) { s.Stop = c })
	}
	if flags.Changed("bit-error-rate") {
		v, _ := flags.GetFloat64("bit-error-rate")
		out = append(out, func(s *config.Settings) { s.BitErrorRate = v })
	}
	if flags.Changed("bit-error-checksum") {
		v, _ := flags.GetBool("bit-error-checksum")
		out = append(out, func(s *config.Settings) { s.BitErrorChecksum = v })
	}
	if flags.Changed("preset-dir") {
		v, _ := flags.GetString("preset-dir")
		out = append(out, func(s *config.Settings) { s.PresetDir = v })
	}
	return out, nil
}
