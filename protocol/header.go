package protocol

import (
	"encoding/binary"

	"boardlink-go/errcode"
)

// Header is the per-frame metadata. Wire layout, little-endian:
//
//	report_id:u8, cmd:u8, total_size:u16, chunk_size:u8,
//	chunk_offset:u16, checksum:u8
type Header struct {
	ReportID    uint8
	Cmd         uint8
	Size        uint16 // total logical message size
	ChunkSize   uint8  // payload bytes in this frame
	ChunkOffset uint16 // offset of this frame's payload in the message
	Checksum    uint8  // carried but not verified
}

// ParseHeader decodes a header from the start of a frame. The report id
// is checked here so a stray frame can never start a message.
func ParseHeader(p []byte) (Header, error) {
	if len(p) < HeaderSize {
		return Header{}, &errcode.E{C: errcode.ProtocolError, Op: "parse_header", Msg: "truncated header"}
	}
	h := Header{
		ReportID:    p[0],
		Cmd:         p[1],
		Size:        binary.LittleEndian.Uint16(p[2:4]),
		ChunkSize:   p[4],
		ChunkOffset: binary.LittleEndian.Uint16(p[5:7]),
		Checksum:    p[7],
	}
	if h.ReportID != ReportID {
		return Header{}, &errcode.E{C: errcode.ProtocolError, Op: "parse_header", Msg: "bad report id"}
	}
	return h, nil
}

// put encodes h into p, which must hold HeaderSize bytes.
func (h Header) put(p []byte) {
	p[0] = h.ReportID
	p[1] = h.Cmd
	binary.LittleEndian.PutUint16(p[2:4], h.Size)
	p[4] = h.ChunkSize
	binary.LittleEndian.PutUint16(p[5:7], h.ChunkOffset)
	p[7] = h.Checksum
}
