package settings

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	"boardlink-go/keymap"
	"boardlink-go/types"
)

// -----------------------------------------------------------------------------
// Embedded defaults
//
// Populate embeddedDefaults at build time (e.g. via code generation) or
// manually during development.
// Key: device ID passed to Install
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgCorvus = `{
  "vendor_id": 4617,
  "product_id": 8,
  "version": [1, 0, 0],
  "board": "corvus",
  "sleep_timeout": 900,
  "peripheral_sleep_timeout": 900,
  "mouse_sensitivity": 128,
  "scroll_sensitivity": 128,
  "pan_sensitivity": 128,
  "keymap": [
    {"layer": 0, "position": 0, "device": "KEY_PRESS", "param1": 4},
    {"layer": 0, "position": 1, "device": "KEY_PRESS", "param1": 5},
    {"layer": 0, "position": 9, "device": "MO", "param1": 1},
    {"layer": 1, "position": 0, "device": "KEY_PRESS", "param1": 30},
    {"layer": 1, "position": 9, "device": "TO_LAYER", "param1": 0}
  ]
}`

var embeddedDefaults = map[string][]byte{
	"corvus": []byte(cfgCorvus),
}

// DefaultsLookup allows overriding how defaults are resolved.
var DefaultsLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedDefaults[device]
	return b, ok
}

type defaultBinding struct {
	Layer    uint8  `json:"layer"`
	Position uint16 `json:"position"`
	Device   string `json:"device"`
	Param1   uint32 `json:"param1"`
	Param2   uint32 `json:"param2"`
}

type deviceDefaults struct {
	VendorID               uint16           `json:"vendor_id"`
	ProductID              uint16           `json:"product_id"`
	Version                [3]uint8         `json:"version"`
	Board                  string           `json:"board"`
	SleepTimeout           uint16           `json:"sleep_timeout"`
	PeripheralSleepTimeout uint16           `json:"peripheral_sleep_timeout"`
	MouseSensitivity       uint8            `json:"mouse_sensitivity"`
	ScrollSensitivity      uint8            `json:"scroll_sensitivity"`
	PanSensitivity         uint8            `json:"pan_sensitivity"`
	ScrollDirection        uint8            `json:"scroll_direction"`
	TPClickType            uint8            `json:"tp_click_type"`
	DisplayCode            uint8            `json:"display_code"`
	Keymap                 []defaultBinding `json:"keymap,omitempty"`
}

func (s *Settings) applyDefaults(device string) error {
	raw, ok := DefaultsLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("settings: no embedded defaults for device: " + device)
	}
	var d deviceDefaults
	if err := json.Unmarshal(raw, &d); err != nil {
		return err
	}

	info := types.DeviceInfo{VendorID: d.VendorID, ProductID: d.ProductID, Version: d.Version}
	copy(info.Board[:], d.Board)
	info.Marshal(s.deviceInfo[:])

	binary.LittleEndian.PutUint16(s.sleepTimeout[:], d.SleepTimeout)
	binary.LittleEndian.PutUint16(s.peripheralSleepTimeout[:], d.PeripheralSleepTimeout)
	s.mouseSensitivity[0] = d.MouseSensitivity
	s.scrollSensitivity[0] = d.ScrollSensitivity
	s.panSensitivity[0] = d.PanSensitivity
	s.scrollDirection[0] = d.ScrollDirection
	s.tpClickType[0] = d.TPClickType
	s.displayCode[0] = d.DisplayCode

	return s.defaultKeymap(d.Keymap)
}

// defaultKeymap fills the block with transparent bindings, then lays the
// device's default bindings over it.
func (s *Settings) defaultKeymap(overrides []defaultBinding) error {
	for layer := uint8(0); layer < KeymapLayers; layer++ {
		for pos := uint16(0); pos < KeymapPositions; pos++ {
			rec, err := keymap.BindingToConf(keymap.Binding{Device: "TRANS"}, layer, pos)
			if err != nil {
				return err
			}
			i := (int(layer)*KeymapPositions + int(pos)) * keymap.RecordSize
			copy(s.keymapBlock[i:i+keymap.RecordSize], keymap.AppendRecord(nil, rec))
		}
	}
	for _, b := range overrides {
		if b.Layer >= KeymapLayers || b.Position >= KeymapPositions {
			return errors.New("settings: default binding outside keymap geometry")
		}
		rec, err := keymap.BindingToConf(keymap.Binding{
			Device: b.Device, Param1: b.Param1, Param2: b.Param2,
		}, b.Layer, b.Position)
		if err != nil {
			return err
		}
		i := (int(b.Layer)*KeymapPositions + int(b.Position)) * keymap.RecordSize
		copy(s.keymapBlock[i:i+keymap.RecordSize], keymap.AppendRecord(nil, rec))
	}
	return nil
}
