package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"remoteid-beacon/internal/logging"
)

const apStopTimeout = 5 * time.Second

// apChild is a "remoteid ap beacon" process fed through its STDIN.
type apChild struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// startAPChild runs the ap command of this executable with the access point
// settings of cmd. quiet discards the child's output.
func startAPChild(ctx context.Context, cmd *cobra.Command, quiet bool) (*apChild, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	c := exec.Command(exe, apChildArgs(cmd)...)
	if !quiet {
		c.Stderr = os.Stderr
	}
	stdin, err := c.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("start ap: %w", err)
	}
	logging.FromContext(ctx).Info("ap started", "pid", c.Process.Pid, "args", c.Args[1:])
	return &apChild{cmd: c, stdin: stdin}, nil
}

// apChildArgs forwards the config file, logging and changed access point
// flags. The child logs to its own file next to ours.
func apChildArgs(cmd *cobra.Command) []string {
	args := []string{"ap", "--log-level", cfg.Log.Level}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if cfg.Log.File != "" {
		args = append(args, "--log-file", cfg.Log.File+".ap")
	}
	ap := apSettings(cmd)
	flags := cmd.Flags()
	if flags.Changed("interface") {
		args = append(args, "--interface", ap.Interface)
	}
	if flags.Changed("ssid") {
		args = append(args, "--ssid", ap.SSID)
	}
	if flags.Changed("conf") {
		args = append(args, "--conf", ap.ConfPath)
	}
	if flags.Changed("debug") {
		args = append(args, "--debug="+strconv.FormatBool(ap.Debug))
	}
	return append(args, "beacon")
}

// Signal implements beacon.Signaler.
func (a *apChild) Signal(sig os.Signal) error {
	return a.cmd.Process.Signal(sig)
}

// Close ends the child's input and waits for it, killing it after
// apStopTimeout.
func (a *apChild) Close(ctx context.Context) error {
	log := logging.FromContext(ctx)
	_ = a.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- a.cmd.Wait() }()
	select {
	case err := <-done:
		log.Info("ap exited", "state", a.cmd.ProcessState.String())
		if err != nil {
			return fmt.Errorf("ap: %w", err)
		}
		return nil
	case <-time.After(apStopTimeout):
		log.Warn("ap did not exit, killing it", "pid", a.cmd.Process.Pid)
		_ = a.cmd.Process.Kill()
		<-done
		return fmt.Errorf("ap killed after %s", apStopTimeout)
	}
}
