// transport/pipe_test.go
package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"boardlink-go/protocol"
)

func TestPipeSendDelivers(t *testing.T) {
	a, b := net.Pipe()
	p := NewPipe(a)

	frame := make([]byte, protocol.FrameSize)
	frame[0] = protocol.ReportID
	frame[1] = 0x11

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, protocol.FrameSize)
		if _, err := b.Read(buf); err != nil {
			done <- nil
			return
		}
		done <- buf
	}()

	if err := p.Send(frame); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case got := <-done:
		if !bytes.Equal(got, frame) {
			t.Fatalf("got %x", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestPipeReadLoopSlicesFrames(t *testing.T) {
	a, b := net.Pipe()
	p := NewPipe(a)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan []byte, 4)
	go func() {
		_ = p.ReadLoop(ctx, func(f []byte) error {
			cp := make([]byte, len(f))
			copy(cp, f)
			frames <- cp
			return nil
		})
	}()

	// Two frames written as one stream; the loop must split them.
	stream := make([]byte, protocol.FrameSize*2)
	stream[0] = protocol.ReportID
	stream[1] = 0x01
	stream[protocol.FrameSize] = protocol.ReportID
	stream[protocol.FrameSize+1] = 0x02
	if _, err := b.Write(stream); err != nil {
		t.Fatalf("write: %v", err)
	}

	for i, wantCmd := range []byte{0x01, 0x02} {
		select {
		case f := <-frames:
			if len(f) != protocol.FrameSize || f[1] != wantCmd {
				t.Fatalf("frame %d: len=%d cmd=0x%02x", i, len(f), f[1])
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for frame %d", i)
		}
	}
}

// A handler error must not end the loop; the link outlives bad frames.
func TestPipeReadLoopSurvivesHandlerError(t *testing.T) {
	a, b := net.Pipe()
	p := NewPipe(a)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan byte, 4)
	go func() {
		_ = p.ReadLoop(ctx, func(f []byte) error {
			calls <- f[1]
			if f[1] == 0x01 {
				return errors.New("rejected")
			}
			return nil
		})
	}()

	frame := make([]byte, protocol.FrameSize)
	frame[0] = protocol.ReportID
	frame[1] = 0x01
	if _, err := b.Write(frame); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame[1] = 0x02
	if _, err := b.Write(frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	for i, want := range []byte{0x01, 0x02} {
		select {
		case got := <-calls:
			if got != want {
				t.Fatalf("call %d: 0x%02x", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for call %d", i)
		}
	}
}

func TestPipeReadLoopStopsOnCancel(t *testing.T) {
	a, _ := net.Pipe()
	p := NewPipe(a)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- p.ReadLoop(ctx, func([]byte) error { return nil })
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("read loop did not stop")
	}
}
