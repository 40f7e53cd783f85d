// Package transport carries protocol frames between the device and the
// configurator. Implementations deliver received frames one at a time,
// already demultiplexed from other traffic, and never from two
// goroutines at once.
package transport

import (
	"boardlink-go/errcode"
)

// Transport sends one frame toward the configurator.
type Transport interface {
	Send(p []byte) error
}

// FrameHandler consumes one received frame. It is invoked synchronously
// in the transport's receive context.
type FrameHandler func(p []byte) error

// HIDSend is injected by platform code that owns the USB HID interrupt
// endpoint (set it from the board bootstrap). Nil means USB is absent.
var HIDSend func(p []byte) error

// USB sends frames over the injected HID endpoint.
type USB struct{}

func (USB) Send(p []byte) error {
	if HIDSend == nil {
		return &errcode.E{C: errcode.TransportSendFailed, Op: "usb_send", Msg: "no HID endpoint"}
	}
	if err := HIDSend(p); err != nil {
		return &errcode.E{C: errcode.TransportSendFailed, Op: "usb_send", Err: err}
	}
	return nil
}
