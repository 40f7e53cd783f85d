// Package keymap translates between in-memory behavior bindings and the
// packed record form used on the wire and in flash.
package keymap

import (
	"encoding/binary"

	"boardlink-go/errcode"
)

// Behavior device table, version 1. A record's device byte indexes this
// table, so it is part of the persisted format: append only, never
// renumber or remove entries.
var deviceNames = [...]string{
	"TRANS",           // 0
	"BCKLGHT",         // 1
	"BLUETOOTH",       // 2
	"CAPS_WORD",       // 3
	"EXT_POWER",       // 4
	"GRAVE_ESCAPE",    // 5
	"KEY_PRESS",       // 6
	"KEY_REPEAT",      // 7
	"KEY_TOGGLE",      // 8
	"LAYER_TAP",       // 9
	"MAC_TAP",         // 10
	"MAC_PRESS",       // 11
	"MAC_REL",         // 12
	"MAC_TAP_TIME",    // 13
	"MAC_WAIT_TIME",   // 14
	"MAC_WAIT_REL",    // 15
	"MOD_TAP",         // 16
	"MO",              // 17
	"MOUSE_KEY_PRESS", // 18
	"MOUSE_MOVE",      // 19
	"MOUSE_SCROLL",    // 20
	"NONE",            // 21
	"OUTPUTS",         // 22
	"RESET",           // 23
	"BOOTLOAD",        // 24
	"RGB_UG",          // 25
	"ENC_KEY_PRESS",   // 26
	"STICKY_KEY",      // 27
	"STICKY_LAYER",    // 28
	"TO_LAYER",        // 29
	"TOGGLE_LAYER",    // 30
}

// TableVersion identifies the device table revision. Bump on any table
// change; stored keymaps from other revisions are not compatible.
const TableVersion = 1

// DeviceName resolves a device index to its behavior name. The high bit
// is ignored (reserved in the record format).
func DeviceName(id uint8) (string, error) {
	i := int(id & 0x7F)
	if i >= len(deviceNames) {
		return "", &errcode.E{C: errcode.TranslationError, Op: "device_name"}
	}
	return deviceNames[i], nil
}

// DeviceID is the inverse of DeviceName.
func DeviceID(name string) (uint8, error) {
	for i, n := range deviceNames {
		if n == name {
			return uint8(i), nil
		}
	}
	return 0, &errcode.E{C: errcode.TranslationError, Op: "device_id", Msg: name}
}

// Binding is the in-memory form of one keymap entry.
type Binding struct {
	Device string
	Param1 uint32
	Param2 uint32
}

// Record is the packed wire/flash form:
//
//	key:u16 (layer in low 4 bits, key position in high 12 bits)
//	device:u8, param1:u32, param2:u32  (little-endian)
type Record struct {
	Key    uint16
	Device uint8
	Param1 uint32
	Param2 uint32
}

// RecordSize is the packed size of one Record.
const RecordSize = 11

func (r Record) Layer() uint8     { return uint8(r.Key & 0xF) }
func (r Record) Position() uint16 { return r.Key >> 4 }

// ConfToBinding resolves a record's device index into a Binding. On a
// translation failure the returned binding is the zero value.
func ConfToBinding(rec Record) (Binding, error) {
	name, err := DeviceName(rec.Device)
	if err != nil {
		return Binding{}, err
	}
	return Binding{Device: name, Param1: rec.Param1, Param2: rec.Param2}, nil
}

// BindingToConf packs a Binding for the given layer and key position.
// Position occupies 12 bits, layer 4.
func BindingToConf(b Binding, layer uint8, position uint16) (Record, error) {
	id, err := DeviceID(b.Device)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Key:    position<<4 | uint16(layer&0xF),
		Device: id,
		Param1: b.Param1,
		Param2: b.Param2,
	}, nil
}

// AppendRecord appends the packed form of rec to dst.
func AppendRecord(dst []byte, rec Record) []byte {
	var buf [RecordSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], rec.Key)
	buf[2] = rec.Device
	binary.LittleEndian.PutUint32(buf[3:7], rec.Param1)
	binary.LittleEndian.PutUint32(buf[7:11], rec.Param2)
	return append(dst, buf[:]...)
}

// ParseRecord decodes one packed record from the start of p.
func ParseRecord(p []byte) (Record, error) {
	if len(p) < RecordSize {
		return Record{}, &errcode.E{C: errcode.ProtocolError, Op: "parse_record", Msg: "short record"}
	}
	return Record{
		Key:    binary.LittleEndian.Uint16(p[0:2]),
		Device: p[2],
		Param1: binary.LittleEndian.Uint32(p[3:7]),
		Param2: binary.LittleEndian.Uint32(p[7:11]),
	}, nil
}

// EncodeBlock packs records into one keymap field value.
func EncodeBlock(recs []Record) []byte {
	out := make([]byte, 0, len(recs)*RecordSize)
	for _, r := range recs {
		out = AppendRecord(out, r)
	}
	return out
}

// DecodeBlock unpacks a keymap field value. Trailing bytes that do not
// form a whole record are a format error.
func DecodeBlock(p []byte) ([]Record, error) {
	if len(p)%RecordSize != 0 {
		return nil, &errcode.E{C: errcode.ProtocolError, Op: "decode_block", Msg: "truncated keymap block"}
	}
	recs := make([]Record, 0, len(p)/RecordSize)
	for off := 0; off < len(p); off += RecordSize {
		r, err := ParseRecord(p[off:])
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, nil
}
