package control

import (
	"boardlink-go/errcode"
	"boardlink-go/protocol"
	"boardlink-go/x/mathx"
)

// Message is one reassembled logical message. The buffer is owned by the
// reassembler until handoff, then by the dispatcher until the command
// finishes.
type Message struct {
	Cmd uint8
	Buf []byte
}

// reassembler accumulates transport frames into logical messages. The
// transport guarantees frames arrive one at a time from a single
// context, so it keeps no lock. A frame with chunk offset 0 starts a
// message, aborting any message in progress (last writer wins); other
// frames append at their declared offset.
type reassembler struct {
	hdr      protocol.Header
	buf      []byte
	received int
	complete func(Message)
}

func (rz *reassembler) handleFrame(p []byte) error {
	hdr, err := protocol.ParseHeader(p)
	if err != nil {
		// Bad discriminator or truncated header; any in-progress
		// message stays intact.
		return err
	}

	if hdr.ChunkOffset == 0 {
		if rz.buf != nil {
			println("Info: control: new message aborts reassembly in progress")
		}
		if int(hdr.Size) > protocol.MaxMessageSize {
			rz.reset()
			return &errcode.E{C: errcode.OutOfMemory, Op: "reassemble", Msg: "message too large"}
		}
		rz.hdr = hdr
		rz.buf = make([]byte, hdr.Size)
		rz.received = 0
	} else {
		if rz.buf == nil {
			return &errcode.E{C: errcode.ProtocolError, Op: "reassemble", Msg: "continuation without a message"}
		}
		if hdr.Size != rz.hdr.Size || hdr.Cmd != rz.hdr.Cmd {
			return &errcode.E{C: errcode.ProtocolError, Op: "reassemble", Msg: "continuation header mismatch"}
		}
		if rz.received >= int(rz.hdr.Size) {
			return &errcode.E{C: errcode.ProtocolError, Op: "reassemble", Msg: "frame after message end"}
		}
	}

	// Clamp the declared chunk to what the frame actually carries and to
	// the message buffer. The checksum is carried but not verified.
	n := mathx.Min(int(hdr.ChunkSize), len(p)-protocol.HeaderSize)
	n = mathx.Min(n, len(rz.buf)-int(hdr.ChunkOffset))
	if n < 0 {
		return &errcode.E{C: errcode.ProtocolError, Op: "reassemble", Msg: "chunk offset beyond message"}
	}
	copy(rz.buf[hdr.ChunkOffset:], p[protocol.HeaderSize:protocol.HeaderSize+n])
	rz.received += n

	if rz.received >= int(rz.hdr.Size) {
		msg := Message{Cmd: rz.hdr.Cmd, Buf: rz.buf}
		rz.reset()
		rz.complete(msg)
	}
	return nil
}

func (rz *reassembler) reset() {
	rz.buf = nil
	rz.received = 0
}
