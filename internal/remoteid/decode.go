package remoteid

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Decode parses an element produced by Encode. Scaled coordinates come back
// divided by CoordinateScale; integer truncation is not undone. Unknown
// field types are skipped.
func Decode(b []byte) (Record, error) {
	var r Record
	if len(b) < 2 {
		return r, ErrTruncated
	}
	if b[0] != TagVendorSpecific {
		return r, fmt.Errorf("%w: tag 0x%02x", ErrBadTag, b[0])
	}
	payload := b[2:]
	if int(b[1]) != len(payload) {
		return r, fmt.Errorf("%w: declared %d, have %d", ErrLengthMismatch, b[1], len(payload))
	}
	if len(payload) < 4 {
		return r, ErrTruncated
	}
	if !bytes.Equal(payload[:3], OUI[:]) || payload[3] != VendorSpecificType {
		return r, fmt.Errorf("%w: %x", ErrBadOUI, payload[:4])
	}

	rest := payload[4:]
	for len(rest) > 0 {
		if len(rest) < 2 {
			return r, ErrTruncated
		}
		typ, n := rest[0], int(rest[1])
		if len(rest) < 2+n {
			return r, fmt.Errorf("%w: field %d wants %d bytes", ErrTruncated, typ, n)
		}
		value := rest[2 : 2+n]
		rest = rest[2+n:]
		if err := decodeField(&r, typ, value); err != nil {
			return r, err
		}
	}
	return r, nil
}

// DecodeHex trims whitespace around line and decodes it.
func DecodeHex(line string) (Record, error) {
	b, err := hex.DecodeString(strings.TrimSpace(line))
	if err != nil {
		return Record{}, fmt.Errorf("remoteid: invalid hex: %w", err)
	}
	return Decode(b)
}

// Fixed value sizes; the UAS ID is variable.
var fieldSizes = map[byte]int{
	FieldVersion:     1,
	FieldLatitude:    4,
	FieldLongitude:   4,
	FieldAltitude:    2,
	FieldHeight:      2,
	FieldHomeLat:     4,
	FieldHomeLon:     4,
	FieldGroundSpeed: 1,
	FieldCourse:      2,
}

func decodeField(r *Record, typ byte, v []byte) error {
	if n, ok := fieldSizes[typ]; ok && len(v) != n {
		return fmt.Errorf("%w: field %d has %d bytes, want %d", ErrLengthMismatch, typ, len(v), n)
	}
	switch typ {
	case FieldUASID:
		r.UASID = append(ID{}, v...)
	case FieldLatitude:
		r.Position.Lat = unscale(v)
	case FieldLongitude:
		r.Position.Lon = unscale(v)
	case FieldAltitude:
		r.Altitude = float64(int16(binary.BigEndian.Uint16(v)))
	case FieldHeight:
		r.Height = float64(int16(binary.BigEndian.Uint16(v)))
	case FieldHomeLat:
		r.Home.Lat = unscale(v)
	case FieldHomeLon:
		r.Home.Lon = unscale(v)
	case FieldGroundSpeed:
		r.Speed = float64(v[0])
	case FieldCourse:
		r.Course = float64(binary.BigEndian.Uint16(v))
	}
	return nil
}

func unscale(v []byte) float64 {
	return float64(int32(binary.BigEndian.Uint32(v))) / CoordinateScale
}

// Fields lists the TLV types of an element in wire order.
func Fields(b []byte) ([]byte, error) {
	if _, err := Decode(b); err != nil {
		return nil, err
	}
	var types []byte
	for rest := b[6:]; len(rest) > 0; rest = rest[2+int(rest[1]):] {
		types = append(types, rest[0])
	}
	return types, nil
}
