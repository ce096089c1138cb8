// Remote ID vendor element layout (French UAS signalling order of 27/12/2019).
package remoteid

import (
	"encoding/hex"
	"errors"
)

// Vendor specific information element tag (802.11 element ID 221).
const TagVendorSpecific = 0xDD

// OUI and vendor specific type prefixed to every TLV sequence.
var (
	OUI                = [3]byte{0x6a, 0x5c, 0x35}
	VendorSpecificType = byte(0x01)
)

// ProtocolVersion is the only version this codec emits.
const ProtocolVersion = 1

// CoordinateScale converts degrees to the integer units carried on air.
const CoordinateScale = 10000

// MaxPayload is the largest inner sequence a single-byte length can describe.
const MaxPayload = 255

// Field types in the order they are emitted.
const (
	FieldVersion     byte = 1
	FieldUASID       byte = 2
	FieldLatitude    byte = 4
	FieldLongitude   byte = 5
	FieldAltitude    byte = 6
	FieldHeight      byte = 7
	FieldHomeLat     byte = 8
	FieldHomeLon     byte = 9
	FieldGroundSpeed byte = 10
	FieldCourse      byte = 11
)

var (
	ErrElementTooLong = errors.New("remoteid: payload exceeds 255 bytes")
	ErrTruncated      = errors.New("remoteid: element truncated")
	ErrBadTag         = errors.New("remoteid: not a vendor specific element")
	ErrBadOUI         = errors.New("remoteid: unexpected OUI or vendor type")
	ErrLengthMismatch = errors.New("remoteid: length byte does not match payload")
)

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Lon float64 `json:"lon" yaml:"lon"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// Record is one telemetry sample broadcast in a beacon.
// A nil UASID is absent and is left out of the element.
type Record struct {
	UASID    ID         `json:"uas_id,omitempty"`
	Position Coordinate `json:"position"`
	Altitude float64    `json:"altitude"` // m
	Height   float64    `json:"height"`   // m above take-off
	Home     Coordinate `json:"home"`
	Speed    float64    `json:"speed"`  // m/s
	Course   float64    `json:"course"` // degrees, 0-359
}

// ID is an opaque UAS identifier. It marshals as lowercase hex.
type ID []byte

func (id ID) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(id)), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	v, err := hex.DecodeString(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
