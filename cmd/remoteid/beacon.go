package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"remoteid-beacon/internal/beacon"
	"remoteid-beacon/internal/logging"
	"remoteid-beacon/internal/telemetry"
)

var (
	beaconInterval   time.Duration
	beaconStdout     bool
	beaconTUI        bool
	beaconRecordFile string
	beaconSQLite     string
)

var beaconCmd = &cobra.Command{
	Use:   "beacon LONG,LAT,ALT",
	Short: "Broadcast UAS remote ID beacons",
	Long: `beacon simulates a drone taking off at LONG,LAT,ALT (WGS84 degrees and
metres) and publishes its remote ID vendor element every interval. The
elements are piped into a child "ap" process that keeps hostapd up to date,
or printed one per line with --stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runBeacon,
}

func runBeacon(cmd *cobra.Command, args []string) error {
	start, err := telemetry.ParsePosition(args[0])
	if err != nil {
		return err
	}
	bc := cfg.Beacon
	if cmd.Flags().Changed("interval") {
		bc.Interval = beaconInterval
	}
	uasID, err := bc.UASID()
	if err != nil {
		return err
	}
	rec := cfg.Record
	if beaconRecordFile != "" {
		rec.File = beaconRecordFile
	}
	if beaconSQLite != "" {
		rec.SQLite = beaconSQLite
	}
	if beaconTUI {
		if !beacon.IsTerminal() {
			return errors.New("--tui needs a terminal on STDOUT")
		}
		opts := cfg.Log.Options()
		opts.Quiet = true
		setLogger(cmd, opts)
	}
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	var (
		out        io.Writer = os.Stdout
		downstream beacon.Signaler
	)
	if !beaconStdout {
		child, err := startAPChild(ctx, cmd, beaconTUI)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := child.Close(ctx); cerr != nil {
				log.Warn("ap shutdown", "err", cerr)
			}
		}()
		out, downstream = child.stdin, child
	}

	writer, cleanup, err := newWriters(out, rec, beaconTUI)
	if err != nil {
		if downstream != nil {
			_ = downstream.Signal(os.Interrupt)
		}
		return err
	}
	defer cleanup()

	gen := telemetry.NewGenerator(uasID, start, bc.Motion())
	b := beacon.NewBroadcaster(gen, writer, bc.Interval, downstream)
	err = b.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("beacon: %w", err)
}

func init() {
	addAPFlags(beaconCmd)
	beaconCmd.Flags().DurationVar(&beaconInterval, "interval", beacon.DefaultInterval, "Beacon update interval")
	beaconCmd.Flags().BoolVar(&beaconStdout, "stdout", false, "Print vendor elements to STDOUT instead of starting ap")
	beaconCmd.Flags().BoolVar(&beaconTUI, "tui", false, "Show the broadcast in a terminal UI")
	beaconCmd.Flags().StringVar(&beaconRecordFile, "record-file", "", "Record beacons to a JSONL file for replay")
	beaconCmd.Flags().StringVar(&beaconSQLite, "sqlite", "", "Record beacons to a SQLite database")
	beaconCmd.MarkFlagsMutuallyExclusive("stdout", "tui")
}
