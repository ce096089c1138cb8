package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"remoteid-beacon/internal/beacon"
	"remoteid-beacon/internal/logging"
)

var (
	replayInput  string
	replaySpeed  float64
	replayStdout bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded beacon log",
	Long: `replay feeds the vendor elements of a JSONL log written with
"beacon --record-file" back into hostapd, keeping the recorded spacing
scaled by --speed (0 replays as fast as possible).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logging.FromContext(ctx)

		var out io.Writer = os.Stdout
		var child *apChild
		if !replayStdout {
			var err error
			if child, err = startAPChild(ctx, cmd, false); err != nil {
				return err
			}
			out = child.stdin
		}

		err := beacon.ReplayLogFile(ctx, replayInput, beacon.NewLineWriter(out), replaySpeed)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		log.Info("replay finished", "input", replayInput, "err", err)
		if child != nil {
			if serr := child.Signal(os.Interrupt); serr != nil && !errors.Is(serr, os.ErrProcessDone) {
				log.Warn("stop ap", "err", serr)
			}
			if cerr := child.Close(ctx); cerr != nil {
				log.Warn("ap shutdown", "err", cerr)
			}
		}
		return err
	},
}

func init() {
	addAPFlags(replayCmd)
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to beacon log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayStdout, "stdout", false, "Print vendor elements to STDOUT instead of starting ap")
	replayCmd.MarkFlagRequired("input")
}
