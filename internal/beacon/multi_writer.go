package beacon

// MultiWriter fans beacons out to several writers in order. The first
// failing writer aborts the write.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Write sends a beacon to all writers.
func (mw *MultiWriter) Write(b Beacon) error {
	for _, w := range mw.writers {
		if err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple beacons to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []Beacon) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}
