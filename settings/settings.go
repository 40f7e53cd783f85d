// Package settings owns the firmware's live configuration values and
// registers them with the field registry at boot.
package settings

import (
	"encoding/binary"

	"boardlink-go/errcode"
	"boardlink-go/keymap"
	"boardlink-go/registry"
	"boardlink-go/types"
	"boardlink-go/x/conv"
)

// Keymap geometry. The keymap field is a layer-major block of packed
// binding records, KeymapLayers*KeymapPositions of them.
const (
	KeymapLayers    = 4
	KeymapPositions = 10
	KeymapRecords   = KeymapLayers * KeymapPositions
	KeymapSize      = KeymapRecords * keymap.RecordSize
)

// Settings is the backing storage for every bound field. The registry
// holds references into these arrays for the life of the process.
type Settings struct {
	reg *registry.Registry

	deviceInfo             [types.DeviceInfoSize]byte
	sleepTimeout           [2]byte
	peripheralSleepTimeout [2]byte
	keymapBlock            [KeymapSize]byte
	mouseSensitivity       [1]byte
	scrollSensitivity      [1]byte
	panSensitivity         [1]byte
	scrollDirection        [1]byte
	tpClickType            [1]byte
	displayCode            [1]byte
	datetime               [8]byte // i32 unix time, i32 tz offset seconds
}

// Install seeds defaults for the named device and binds every field.
// Persisted values overwrite the defaults during Bind. The returned
// Settings stays valid for the life of the process.
func Install(reg *registry.Registry, device string) (*Settings, error) {
	s := &Settings{reg: reg}
	if err := s.applyDefaults(device); err != nil {
		return nil, err
	}

	type binding struct {
		key      uint16
		data     []byte
		saveable bool
		onUpdate func(*registry.Field)
	}
	bindings := []binding{
		{types.KeyDeviceInfo, s.deviceInfo[:], true, nil},
		{types.KeySleepTimeout, s.sleepTimeout[:], true, s.logTimeout},
		{types.KeyPeripheralSleepTimeout, s.peripheralSleepTimeout[:], true, s.logTimeout},
		{types.KeyKeymap, s.keymapBlock[:], true, s.checkKeymap},
		{types.KeyMouseSensitivity, s.mouseSensitivity[:], true, nil},
		{types.KeyScrollSensitivity, s.scrollSensitivity[:], true, nil},
		{types.KeyPanSensitivity, s.panSensitivity[:], true, nil},
		{types.KeyScrollDirection, s.scrollDirection[:], true, nil},
		{types.KeyTPClickType, s.tpClickType[:], true, nil},
		{types.KeyDisplayCode, s.displayCode[:], true, nil},
		{types.KeyDatetime, s.datetime[:], false, nil},
	}
	for _, b := range bindings {
		if _, err := reg.Bind(b.key, b.data, b.saveable, b.onUpdate); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Settings) logTimeout(f *registry.Field) {
	println("Info: settings: timeout 0x"+conv.U16Hex(f.Key()), "set to",
		int(binary.LittleEndian.Uint16(sliceOf(f))))
}

// checkKeymap validates an externally written keymap block. Records that
// no longer translate are logged; the block is kept as received since
// the table is append-only and unknown indices come from newer tables.
func (s *Settings) checkKeymap(f *registry.Field) {
	recs, err := keymap.DecodeBlock(s.keymapBlock[:])
	if err != nil {
		println("Error: settings: keymap block malformed:", err.Error())
		return
	}
	for _, r := range recs {
		if _, err := keymap.ConfToBinding(r); err != nil {
			println("Error: settings: keymap record for position", int(r.Position()),
				"layer", int(r.Layer()), "has unknown device", int(r.Device))
		}
	}
}

// sliceOf copies a small field value for logging.
func sliceOf(f *registry.Field) []byte {
	buf := make([]byte, f.Size())
	f.CopyOut(buf)
	return buf
}

// DeviceInfo decodes the device info field.
func (s *Settings) DeviceInfo() types.DeviceInfo {
	return types.UnmarshalDeviceInfo(s.deviceInfo[:])
}

// SleepTimeout returns the sleep timeout value; 0 means never sleep.
func (s *Settings) SleepTimeout() uint16 {
	return binary.LittleEndian.Uint16(s.sleepTimeout[:])
}

// PeripheralSleepTimeout returns the peripheral timeout; 0 = never.
func (s *Settings) PeripheralSleepTimeout() uint16 {
	return binary.LittleEndian.Uint16(s.peripheralSleepTimeout[:])
}

func (s *Settings) MouseSensitivity() uint8  { return s.mouseSensitivity[0] }
func (s *Settings) ScrollSensitivity() uint8 { return s.scrollSensitivity[0] }
func (s *Settings) PanSensitivity() uint8    { return s.panSensitivity[0] }
func (s *Settings) ScrollDirection() uint8   { return s.scrollDirection[0] }
func (s *Settings) TPClickType() uint8       { return s.tpClickType[0] }
func (s *Settings) DisplayCode() uint8       { return s.displayCode[0] }

// Datetime returns the transient datetime field: unix seconds and the
// timezone offset in seconds.
func (s *Settings) Datetime() (unix int32, tzOffset int32) {
	unix = int32(binary.LittleEndian.Uint32(s.datetime[0:4]))
	tzOffset = int32(binary.LittleEndian.Uint32(s.datetime[4:8]))
	return
}

// Keymap decodes the current keymap block.
func (s *Settings) Keymap() ([]keymap.Record, error) {
	return keymap.DecodeBlock(s.keymapBlock[:])
}

// Binding resolves the in-memory binding at a layer/position.
func (s *Settings) Binding(layer uint8, position uint16) (keymap.Binding, error) {
	recs, err := s.Keymap()
	if err != nil {
		return keymap.Binding{}, err
	}
	for _, r := range recs {
		if r.Layer() == layer && r.Position() == position {
			return keymap.ConfToBinding(r)
		}
	}
	return keymap.Binding{}, errcode.NotFound
}
