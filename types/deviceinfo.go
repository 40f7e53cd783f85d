package types

import "encoding/binary"

// DeviceInfo is the value behind KeyDeviceInfo. Wire/flash form is the
// packed little-endian layout produced by Marshal (DeviceInfoSize bytes).
type DeviceInfo struct {
	VendorID  uint16
	ProductID uint16
	// Firmware version, major.minor.patch.
	Version [3]uint8
	// Board identifier, NUL padded.
	Board [13]byte
}

const DeviceInfoSize = 20

// Marshal packs the info into dst, which must hold DeviceInfoSize bytes.
func (d *DeviceInfo) Marshal(dst []byte) {
	binary.LittleEndian.PutUint16(dst[0:2], d.VendorID)
	binary.LittleEndian.PutUint16(dst[2:4], d.ProductID)
	copy(dst[4:7], d.Version[:])
	copy(dst[7:20], d.Board[:])
}

// UnmarshalDeviceInfo decodes the packed form. Short input leaves zero
// values in the remaining fields.
func UnmarshalDeviceInfo(p []byte) DeviceInfo {
	var d DeviceInfo
	if len(p) >= 4 {
		d.VendorID = binary.LittleEndian.Uint16(p[0:2])
		d.ProductID = binary.LittleEndian.Uint16(p[2:4])
	}
	if len(p) >= 7 {
		copy(d.Version[:], p[4:7])
	}
	if len(p) >= 20 {
		copy(d.Board[:], p[7:20])
	}
	return d
}

// BoardName returns the board identifier with NUL padding stripped.
func (d DeviceInfo) BoardName() string {
	n := 0
	for n < len(d.Board) && d.Board[n] != 0 {
		n++
	}
	return string(d.Board[:n])
}
