// Package control receives configurator commands over a frame transport
// and applies them to the field registry: a reassembler runs in the
// transport's receive context, a single dispatcher goroutine consumes
// completed messages.
package control

import (
	"context"
	"time"

	"boardlink-go/errcode"
	"boardlink-go/notify"
	"boardlink-go/protocol"
	"boardlink-go/registry"
	"boardlink-go/x/conv"
)

// Transport sends one frame toward the configurator.
type Transport interface {
	Send(p []byte) error
}

const (
	// queueLen bounds completed messages waiting for the dispatcher.
	queueLen = 8
	// framePacing is the gap between response frames; the peer holds
	// one frame in flight.
	framePacing = time.Millisecond
)

// Service ties the reassembler and dispatcher together.
type Service struct {
	reg  *registry.Registry
	tr   Transport
	hub  *notify.Hub // may be nil
	msgQ chan Message
	rz   reassembler
}

// New creates the control service. hub may be nil if nothing in the
// firmware listens for update announcements.
func New(reg *registry.Registry, tr Transport, hub *notify.Hub) *Service {
	s := &Service{
		reg:  reg,
		tr:   tr,
		hub:  hub,
		msgQ: make(chan Message, queueLen),
	}
	s.rz.complete = s.enqueue
	return s
}

// HandleFrame is the transport delivery callback. It must not be called
// from two goroutines at once.
func (s *Service) HandleFrame(p []byte) error {
	return s.rz.handleFrame(p)
}

// Start launches the dispatcher. It processes messages strictly in
// completion order, one at a time, until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-s.msgQ:
				s.dispatch(m)
			}
		}
	}()
}

func (s *Service) enqueue(m Message) {
	select {
	case s.msgQ <- m:
	default:
		// The dispatcher is wedged (a stuck send loop); shedding the
		// message is the only option without unbounded memory.
		println("Error: control: message queue full, dropping cmd 0x" + conv.U8Hex(m.Cmd))
	}
}

func (s *Service) dispatch(m Message) {
	var err error
	switch m.Cmd {
	case protocol.CmdConnect:
		println("Info: control: configurator connected")
	case protocol.CmdSetConfig:
		err = s.setConfig(m.Buf)
	case protocol.CmdGetConfig:
		err = s.getConfig(m.Buf)
	default:
		err = &errcode.E{C: errcode.UnsupportedCommand, Op: "dispatch", Msg: "cmd 0x" + conv.U8Hex(m.Cmd)}
	}
	if err != nil {
		// No NACK exists on the wire; failures are visible locally only.
		println("Error: control:", err.Error())
	}
}

func (s *Service) setConfig(buf []byte) error {
	conf, err := protocol.ParseSetConfig(buf)
	if err != nil {
		return err
	}
	field := s.reg.Get(conf.Key)
	if field == nil {
		return &errcode.E{C: errcode.NotFound, Op: "set_config", Msg: "field 0x" + conv.U16Hex(conf.Key)}
	}
	if field.Size() != conf.Size {
		return &errcode.E{C: errcode.SizeMismatch, Op: "set_config",
			Msg: "field 0x" + conv.U16Hex(conf.Key) + " declared size differs"}
	}
	if err := field.Set(conf.Data); err != nil {
		return err
	}
	if field.Saveable() && conf.Save {
		// Best effort: a failed save must not suppress the callback.
		if werr := s.reg.Write(conf.Key); werr != nil {
			println("Error: control: save failed for 0x"+conv.U16Hex(conf.Key)+":", werr.Error())
		}
	}
	field.FireUpdate()
	if s.hub != nil {
		s.hub.Publish(notify.Update{Key: conf.Key, Size: conf.Size})
	}
	return nil
}

func (s *Service) getConfig(buf []byte) error {
	req, err := protocol.ParseGetConfigRequest(buf)
	if err != nil {
		return err
	}
	field := s.reg.Get(req.Key)
	if field == nil {
		return &errcode.E{C: errcode.NotFound, Op: "get_config", Msg: "field 0x" + conv.U16Hex(req.Key)}
	}
	if field.Size() > req.MaxSize {
		return &errcode.E{C: errcode.SizeMismatch, Op: "get_config",
			Msg: "field 0x" + conv.U16Hex(req.Key) + " larger than requested max"}
	}

	// Respond from the field's in-memory value; GetConfig never reads
	// the store.
	value := make([]byte, field.Size())
	field.CopyOut(value)
	payload := protocol.AppendGetConfigResponse(nil, req.Key, value)
	frames, err := protocol.BuildFrames(protocol.CmdGetConfig, payload)
	if err != nil {
		return err
	}
	for i, frame := range frames {
		if err := s.tr.Send(frame); err != nil {
			// Abort the rest; the peer sees a truncated response.
			return &errcode.E{C: errcode.TransportSendFailed, Op: "get_config", Err: err}
		}
		if i < len(frames)-1 {
			time.Sleep(framePacing)
		}
	}
	return nil
}
