package beacon

import (
	"bufio"
	"io"
)

// LineWriter sends each beacon's vendor element as one hex line and flushes
// it immediately so the reader sees whole lines only.
type LineWriter struct {
	w *bufio.Writer
}

// NewLineWriter writes lines to w, typically the controller's stdin pipe.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriter(w)}
}

// Write implements Writer.
func (l *LineWriter) Write(b Beacon) error {
	if _, err := l.w.WriteString(b.Element); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}
