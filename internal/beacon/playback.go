package beacon

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"
)

// ReplayLog replays beacons logged by FileWriter from r to writer. A speed >0
// scales the recorded spacing (2 plays twice as fast); speed <= 0 replays
// without delay.
func ReplayLog(ctx context.Context, r io.Reader, writer Writer, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var row Beacon
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !prev.IsZero() && speed > 0 {
			diff := row.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				select {
				case <-time.After(diff):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a file and replays its beacons.
func ReplayLogFile(ctx context.Context, path string, writer Writer, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(ctx, f, writer, speed)
}
