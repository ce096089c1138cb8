// Telemetry sources feeding the remote ID beacon
package telemetry

import (
	"fmt"
	"strconv"
	"strings"

	"remoteid-beacon/internal/remoteid"
)

// Provider yields one telemetry record per beacon tick.
type Provider interface {
	Next() remoteid.Record
}

// Position holds longitude, latitude (degrees, WGS84) and altitude (m).
type Position struct {
	Lon float64
	Lat float64
	Alt float64
}

// ParsePosition parses "LONG,LAT,ALT".
func ParsePosition(s string) (Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Position{}, fmt.Errorf("position %q: want LONG,LAT,ALT", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Position{}, fmt.Errorf("position %q: %w", s, err)
		}
		v[i] = f
	}
	pos := Position{Lon: v[0], Lat: v[1], Alt: v[2]}
	if pos.Lon < -180 || pos.Lon > 180 || pos.Lat < -90 || pos.Lat > 90 {
		return Position{}, fmt.Errorf("position %q: coordinates out of range", s)
	}
	return pos, nil
}
