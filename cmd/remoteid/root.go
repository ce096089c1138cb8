package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"remoteid-beacon/internal/config"
	"remoteid-beacon/internal/logging"
)

var (
	configPath string
	logLevel   string
	logFile    string

	// cfg is loaded before any subcommand runs.
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "remoteid",
	Short: "UAS remote ID beacon toolkit",
	Long: `remoteid broadcasts UAS remote identification beacons (French signalling
order of 27/12/2019) as vendor specific elements in the beacon frames of a
hostapd access point.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			c.Log.File = logFile
		}
		cfg = c
		setLogger(cmd, cfg.Log.Options())
		return nil
	},
}

// setLogger installs a logger in the command context and as slog default.
func setLogger(cmd *cobra.Command, opts logging.Options) *slog.Logger {
	l := logging.New(opts)
	slog.SetDefault(l)
	cmd.SetContext(logging.NewContext(cmd.Context(), l))
	return l
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this rotated file")

	rootCmd.AddCommand(apCmd)
	rootCmd.AddCommand(beaconCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dashboardCmd)
}
