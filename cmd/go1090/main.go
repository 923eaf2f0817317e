package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go1090/internal/app"
	"go1090/internal/config"
)

func main() {
	cfg := config.Default()
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:   "go1090",
		Short: "ADS-B Decoder (dump1090-style)",
		Long: `ADS-B Decoder using RTL-SDR (dump1090-style implementation).

Captures I/Q samples from RTL-SDR at 2MHz, demodulates Mode S / ADS-B
messages using a multi-gate preamble check, validates CRC with
single and double bit-error correction, resolves aircraft positions via
CPR, tracks aircraft, and evaluates a situational-awareness filter,
writing BaseStation (SBS) output and JSON event notifications.

Example usage:
  go1090 --frequency 1090000000 --sample-rate 2000000 --gain 40 --device 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				app.ShowVersion()
				return nil
			}

			application := app.New(cfg, showVersion)
			return application.Start()
		},
	}

	rootCmd.Flags().Uint32VarP(&cfg.Frequency, "frequency", "f", config.DefaultFrequency, "Frequency to tune to (Hz)")
	rootCmd.Flags().Uint32VarP(&cfg.SampleRate, "sample-rate", "s", config.DefaultSampleRate, "Sample rate (Hz)")
	rootCmd.Flags().IntVarP(&cfg.Gain, "gain", "g", config.DefaultGain, "Gain setting (0 for auto)")
	rootCmd.Flags().IntVarP(&cfg.DeviceIndex, "device", "d", 0, "RTL-SDR device index")
	rootCmd.Flags().StringVarP(&cfg.LogDir, "log-dir", "l", "./logs", "Log directory")
	rootCmd.Flags().BoolVarP(&cfg.LogRotateUTC, "utc", "u", true, "Use UTC for log rotation")
	rootCmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.Flags().Float64Var(&cfg.RefLat, "ref-lat", 0, "Receiver reference latitude, enables local CPR decode fallback")
	rootCmd.Flags().Float64Var(&cfg.RefLon, "ref-lon", 0, "Receiver reference longitude, enables local CPR decode fallback")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")

	rootCmd.PreRun = func(cmd *cobra.Command, args []string) {
		cfg.HasReference = cmd.Flags().Changed("ref-lat") || cmd.Flags().Changed("ref-lon")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
