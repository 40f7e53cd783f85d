// fieldfile/fieldfile_test.go
package fieldfile

import (
	"bytes"
	"testing"

	"boardlink-go/keymap"
	"boardlink-go/protocol"
)

const sample = `
connect: true
fields:
  - key: 0x0040
    save: true
    u8: 42
  - key: 0x000a
    u16: 900
  - key: 0x0060
    hex: "07"
  - key: 0x0020
    save: true
    bindings:
      - {layer: 0, position: 0, device: KEY_PRESS, param1: 4}
      - {layer: 1, position: 9, device: TO_LAYER}
`

func mustParse(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return f
}

func TestParseSample(t *testing.T) {
	f := mustParse(t, sample)
	if !f.Connect || len(f.Fields) != 4 {
		t.Fatalf("parsed %+v", f)
	}
	if f.Fields[0].Key != 0x0040 || *f.Fields[0].U8 != 42 || !f.Fields[0].Save {
		t.Fatalf("fields[0] %+v", f.Fields[0])
	}
	if *f.Fields[1].U16 != 900 || f.Fields[1].Save {
		t.Fatalf("fields[1] %+v", f.Fields[1])
	}
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"unknown field", "junk: 1\nfields:\n  - {key: 1, u8: 0}\n"},
		{"no fields", "connect: true\n"},
		{"reserved key", "fields:\n  - {key: 0, u8: 1}\n"},
		{"no value", "fields:\n  - {key: 1}\n"},
		{"two values", "fields:\n  - {key: 1, u8: 1, u16: 2}\n"},
		{"bad hex", "fields:\n  - {key: 1, hex: zz}\n"},
		{"save on transient key", "fields:\n  - {key: 0x4000, save: true, u16: 1}\n"},
		{"unknown device", "fields:\n  - key: 1\n    bindings:\n      - {layer: 0, position: 0, device: NOPE}\n"},
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c.src)); err == nil {
			t.Errorf("%s: accepted", c.name)
		}
	}
}

func TestFrames(t *testing.T) {
	f := mustParse(t, sample)
	frames, err := f.Frames()
	if err != nil {
		t.Fatalf("frames: %v", err)
	}

	// connect + three single-frame writes + one chunked keymap write
	h, err := protocol.ParseHeader(frames[0])
	if err != nil || h.Cmd != protocol.CmdConnect || h.Size != 0 {
		t.Fatalf("first frame %+v, %v", h, err)
	}

	h, err = protocol.ParseHeader(frames[1])
	if err != nil || h.Cmd != protocol.CmdSetConfig {
		t.Fatalf("second frame %+v, %v", h, err)
	}
	m, err := protocol.ParseSetConfig(frames[1][protocol.HeaderSize : protocol.HeaderSize+int(h.ChunkSize)])
	if err != nil {
		t.Fatalf("set_config: %v", err)
	}
	if m.Key != 0x0040 || !m.Save || !bytes.Equal(m.Data, []byte{42}) {
		t.Fatalf("set_config %+v", m)
	}
}

func TestFramesU16LittleEndian(t *testing.T) {
	f := mustParse(t, "fields:\n  - {key: 0x000a, u16: 900}\n")
	frames, err := f.Frames()
	if err != nil || len(frames) != 1 {
		t.Fatalf("frames: %d, %v", len(frames), err)
	}
	h, _ := protocol.ParseHeader(frames[0])
	m, err := protocol.ParseSetConfig(frames[0][protocol.HeaderSize : protocol.HeaderSize+int(h.ChunkSize)])
	if err != nil {
		t.Fatalf("set_config: %v", err)
	}
	if !bytes.Equal(m.Data, []byte{0x84, 0x03}) {
		t.Fatalf("value %x, want 8403", m.Data)
	}
}

func TestFramesBindingsPack(t *testing.T) {
	f := mustParse(t, `
fields:
  - key: 0x0020
    bindings:
      - {layer: 2, position: 13, device: MOD_TAP, param1: 4, param2: 225}
`)
	frames, err := f.Frames()
	if err != nil || len(frames) != 1 {
		t.Fatalf("frames: %d, %v", len(frames), err)
	}
	h, _ := protocol.ParseHeader(frames[0])
	m, err := protocol.ParseSetConfig(frames[0][protocol.HeaderSize : protocol.HeaderSize+int(h.ChunkSize)])
	if err != nil {
		t.Fatalf("set_config: %v", err)
	}
	recs, err := keymap.DecodeBlock(m.Data)
	if err != nil || len(recs) != 1 {
		t.Fatalf("block: %v", err)
	}
	r := recs[0]
	if r.Layer() != 2 || r.Position() != 13 || r.Param1 != 4 || r.Param2 != 225 {
		t.Fatalf("record %+v", r)
	}
}
