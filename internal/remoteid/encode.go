package remoteid

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Encode packs r into a vendor specific element:
//
//	[0xDD][len][OUI 6a5c35][01][type][len][value]...
//
// Multi-byte integers are big-endian. Numeric fields are truncated toward
// zero, coordinates after scaling by CoordinateScale. Values outside a
// field's integer range are not guarded.
func Encode(r Record) ([]byte, error) {
	payload := make([]byte, 0, 96)
	payload = append(payload, OUI[:]...)
	payload = append(payload, VendorSpecificType)

	payload = appendField(payload, FieldVersion, []byte{ProtocolVersion})
	if r.UASID != nil {
		payload = appendField(payload, FieldUASID, r.UASID)
	}
	payload = appendField(payload, FieldLatitude, be32(scale(r.Position.Lat)))
	payload = appendField(payload, FieldLongitude, be32(scale(r.Position.Lon)))
	payload = appendField(payload, FieldAltitude, be16(uint16(int16(r.Altitude))))
	payload = appendField(payload, FieldHeight, be16(uint16(int16(r.Height))))
	payload = appendField(payload, FieldHomeLat, be32(scale(r.Home.Lat)))
	payload = appendField(payload, FieldHomeLon, be32(scale(r.Home.Lon)))
	payload = appendField(payload, FieldGroundSpeed, []byte{uint8(r.Speed)})
	payload = appendField(payload, FieldCourse, be16(uint16(r.Course)))

	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrElementTooLong, len(payload))
	}
	return append([]byte{TagVendorSpecific, byte(len(payload))}, payload...), nil
}

// EncodeHex returns the element as one line of lowercase hex without separators.
func EncodeHex(r Record) (string, error) {
	b, err := Encode(r)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// appendField frames value as [typ][len][value]. The caller keeps values
// below 256 bytes; the outer length check rejects anything larger.
func appendField(dst []byte, typ byte, value []byte) []byte {
	dst = append(dst, typ, byte(len(value)))
	return append(dst, value...)
}

func scale(deg float64) uint32 {
	return uint32(int32(deg * CoordinateScale))
}

func be32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func be16(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}
