// Package fieldfile loads a configurator-side description of field
// writes from YAML and turns it into the frame stream a device accepts.
package fieldfile

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"boardlink-go/keymap"
	"boardlink-go/protocol"
	"boardlink-go/types"
)

// File is the top-level YAML document.
type File struct {
	// Connect controls whether a Connect probe precedes the writes.
	Connect bool    `yaml:"connect"`
	Fields  []Entry `yaml:"fields"`
}

// Entry describes one SetConfig. Exactly one of Hex, U8, U16 or
// Bindings carries the value.
type Entry struct {
	Key  uint16 `yaml:"key"`
	Save bool   `yaml:"save"`

	Hex      string     `yaml:"hex,omitempty"`
	U8       *uint8     `yaml:"u8,omitempty"`
	U16      *uint16    `yaml:"u16,omitempty"`
	Bindings []BindSpec `yaml:"bindings,omitempty"`
}

// BindSpec is one keymap binding in symbolic form.
type BindSpec struct {
	Layer    uint8  `yaml:"layer"`
	Position uint16 `yaml:"position"`
	Device   string `yaml:"device"`
	Param1   uint32 `yaml:"param1"`
	Param2   uint32 `yaml:"param2"`
}

// Load reads and validates a field file. Unknown YAML keys are errors.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes and validates a field file from raw YAML.
func Parse(raw []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if len(f.Fields) == 0 {
		return fmt.Errorf("fieldfile: no fields")
	}
	for i, e := range f.Fields {
		if e.Key == 0x0000 {
			return fmt.Errorf("fieldfile: fields[%d]: key 0x0000 is reserved", i)
		}
		if e.Save && !types.Persistable(e.Key) {
			return fmt.Errorf("fieldfile: fields[%d]: key 0x%04x is transient, save is not allowed", i, e.Key)
		}
		forms := 0
		if e.Hex != "" {
			if _, err := hex.DecodeString(e.Hex); err != nil {
				return fmt.Errorf("fieldfile: fields[%d]: bad hex value: %w", i, err)
			}
			forms++
		}
		if e.U8 != nil {
			forms++
		}
		if e.U16 != nil {
			forms++
		}
		if len(e.Bindings) > 0 {
			forms++
		}
		if forms != 1 {
			return fmt.Errorf("fieldfile: fields[%d]: want exactly one of hex/u8/u16/bindings, got %d", i, forms)
		}
		for j, b := range e.Bindings {
			if _, err := keymap.DeviceID(b.Device); err != nil {
				return fmt.Errorf("fieldfile: fields[%d].bindings[%d]: unknown device %q", i, j, b.Device)
			}
		}
	}
	return nil
}

// value renders an entry's payload bytes.
func (e *Entry) value() ([]byte, error) {
	switch {
	case e.Hex != "":
		return hex.DecodeString(e.Hex)
	case e.U8 != nil:
		return []byte{*e.U8}, nil
	case e.U16 != nil:
		v := make([]byte, 2)
		binary.LittleEndian.PutUint16(v, *e.U16)
		return v, nil
	case len(e.Bindings) > 0:
		var recs []keymap.Record
		for _, b := range e.Bindings {
			rec, err := keymap.BindingToConf(keymap.Binding{
				Device: b.Device, Param1: b.Param1, Param2: b.Param2,
			}, b.Layer, b.Position)
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}
		return keymap.EncodeBlock(recs), nil
	}
	return nil, fmt.Errorf("fieldfile: empty entry")
}

// Frames renders the whole file as an ordered frame stream.
func (f *File) Frames() ([][]byte, error) {
	var out [][]byte
	if f.Connect {
		frames, err := protocol.BuildFrames(protocol.CmdConnect, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, frames...)
	}
	for i := range f.Fields {
		e := &f.Fields[i]
		v, err := e.value()
		if err != nil {
			return nil, err
		}
		payload := protocol.AppendSetConfig(nil, e.Key, e.Save, v)
		frames, err := protocol.BuildFrames(protocol.CmdSetConfig, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, frames...)
	}
	return out, nil
}
