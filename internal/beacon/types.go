// Beacon rows and the writers that consume them
package beacon

import (
	"time"

	"remoteid-beacon/internal/remoteid"
)

// Beacon is one broadcast tick: the telemetry record and its encoded
// vendor element.
type Beacon struct {
	SessionID string          `json:"session_id"`
	Seq       uint64          `json:"seq"`
	Record    remoteid.Record `json:"record"`
	Element   string          `json:"element"` // lowercase hex
	Timestamp time.Time       `json:"ts"`
}

// Writer consumes beacons. A Write error stops the broadcast.
type Writer interface {
	Write(b Beacon) error
}

type batchWriter interface {
	WriteBatch(rows []Beacon) error
}
