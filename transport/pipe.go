package transport

import (
	"context"
	"io"

	"boardlink-go/errcode"
	"boardlink-go/protocol"
)

// Pipe runs the protocol over any io.ReadWriteCloser (a net.Pipe in
// tests, a CDC serial port on a host build). Frames are fixed-size, so
// the read loop slices the stream into protocol.FrameSize chunks.
type Pipe struct {
	rwc io.ReadWriteCloser
}

func NewPipe(rwc io.ReadWriteCloser) *Pipe {
	return &Pipe{rwc: rwc}
}

func (p *Pipe) Send(frame []byte) error {
	if _, err := p.rwc.Write(frame); err != nil {
		return &errcode.E{C: errcode.TransportSendFailed, Op: "pipe_send", Err: err}
	}
	return nil
}

func (p *Pipe) Close() error { return p.rwc.Close() }

// ReadLoop delivers frames to h until the pipe closes or ctx is
// cancelled. It is the single reader, which gives h the one-frame-at-a-
// time guarantee the reassembler relies on. Handler errors are logged
// and the loop continues; a bad frame must not kill the link.
func (p *Pipe) ReadLoop(ctx context.Context, h FrameHandler) error {
	go func() {
		<-ctx.Done()
		_ = p.rwc.Close()
	}()
	buf := make([]byte, protocol.FrameSize)
	for {
		if _, err := io.ReadFull(p.rwc, buf); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := h(buf); err != nil {
			println("Error: transport: frame rejected:", err.Error())
		}
	}
}
