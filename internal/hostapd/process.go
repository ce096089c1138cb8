package hostapd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"remoteid-beacon/internal/logging"
)

// Process is a running daemon that can be signalled. *os.Process satisfies it.
type Process interface {
	Signal(sig os.Signal) error
}

// Spawner starts the access point daemon on a configuration file.
type Spawner interface {
	Spawn(ctx context.Context, confPath string) (Process, error)
}

// Daemon spawns the hostapd binary.
type Daemon struct {
	Bin    string // defaults to "hostapd" on PATH
	Debug  bool   // passes -dd
	Stdout io.Writer
	Stderr io.Writer
}

// Args returns the command line arguments for confPath.
func (d Daemon) Args(confPath string) []string {
	var args []string
	if d.Debug {
		args = append(args, "-dd")
	}
	return append(args, confPath)
}

// Spawn starts hostapd and returns its process. The daemon is not tied to
// ctx; it only stops when signalled.
func (d Daemon) Spawn(ctx context.Context, confPath string) (Process, error) {
	log := logging.FromContext(ctx)
	bin := d.Bin
	if bin == "" {
		bin = "hostapd"
	}
	cmd := exec.Command(bin, d.Args(confPath)...)
	cmd.Stdout = d.Stdout
	cmd.Stderr = d.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}
	log.Info("hostapd started", "pid", cmd.Process.Pid, "args", cmd.Args)

	go func() {
		// Reap the child. A crashed daemon is reported but not restarted.
		err := cmd.Wait()
		log.Warn("hostapd exited", "pid", cmd.Process.Pid, "state", cmd.ProcessState.String(), "err", err)
	}()
	return cmd.Process, nil
}
