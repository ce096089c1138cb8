package main

import (
	"fmt"
	"io"

	"remoteid-beacon/internal/beacon"
	"remoteid-beacon/internal/config"
)

// newWriters sets up the beacon writers: hex lines to out, plus the recorders
// enabled in rec and the TUI. It returns the writer and a cleanup function to
// close any resources.
func newWriters(out io.Writer, rec config.Record, tui bool) (beacon.Writer, func(), error) {
	var (
		ws      []beacon.Writer
		closers []io.Closer
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}

	if out != nil {
		ws = append(ws, beacon.NewLineWriter(out))
	}
	if rec.File != "" {
		fw, err := beacon.NewFileWriter(rec.File)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("record file: %w", err)
		}
		ws = append(ws, fw)
		closers = append(closers, fw)
	}
	if rec.SQLite != "" {
		sw := beacon.NewSQLiteWriter(rec.SQLite)
		ws = append(ws, sw)
		closers = append(closers, sw)
	}
	if rec.Greptime.Endpoint != "" {
		gw, err := beacon.NewGreptimeDBWriter(rec.Greptime.Endpoint, rec.Greptime.Database, rec.Greptime.Table)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		ws = append(ws, gw)
	}
	if tui {
		tw := beacon.NewTUIWriter()
		ws = append(ws, tw)
		closers = append(closers, tw)
	}

	switch len(ws) {
	case 0:
		return nil, nil, fmt.Errorf("no beacon writer configured")
	case 1:
		return ws[0], cleanup, nil
	}
	return beacon.NewMultiWriter(ws...), cleanup, nil
}
