package beacon

import (
	"encoding/json"
	"os"
)

// FileWriter logs beacons to a JSONL file that can be replayed later.
type FileWriter struct {
	f   *os.File
	enc *json.Encoder
}

// NewFileWriter creates (or truncates) path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{f: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single beacon.
func (fw *FileWriter) Write(b Beacon) error {
	return fw.enc.Encode(b)
}

// WriteBatch logs multiple beacons.
func (fw *FileWriter) WriteBatch(rows []Beacon) error {
	for _, r := range rows {
		if err := fw.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (fw *FileWriter) Close() error {
	return fw.f.Close()
}
