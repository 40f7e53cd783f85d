//go:build rp2040

package transport

import (
	"context"
	"machine"

	"boardlink-go/errcode"
	"boardlink-go/protocol"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// UARTLink runs the protocol over a hardware UART, for boards where the
// configurator attaches through a wired debug header instead of USB.
type UARTLink struct {
	u *uartx.UART
}

// UARTLinkConfig selects the UART instance and pins.
type UARTLinkConfig struct {
	ID   string // "uart0" or "uart1"
	Baud uint32
	TX   int
	RX   int
}

func NewUARTLink(cfg UARTLinkConfig) (*UARTLink, error) {
	var hw *uartx.UART
	switch cfg.ID {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, &errcode.E{C: errcode.TransportSendFailed, Op: "uart_open", Msg: "unknown uart " + cfg.ID}
	}
	// Defaults inside uartx apply if zero.
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: cfg.Baud,
		TX:       machine.Pin(cfg.TX),
		RX:       machine.Pin(cfg.RX),
	}); err != nil {
		return nil, &errcode.E{C: errcode.TransportSendFailed, Op: "uart_open", Err: err}
	}
	return &UARTLink{u: hw}, nil
}

func (l *UARTLink) Send(p []byte) error {
	if _, err := l.u.Write(p); err != nil {
		return &errcode.E{C: errcode.TransportSendFailed, Op: "uart_send", Err: err}
	}
	return nil
}

// ReadLoop accumulates the byte stream into fixed-size frames and hands
// them to h one at a time.
func (l *UARTLink) ReadLoop(ctx context.Context, h FrameHandler) error {
	frame := make([]byte, protocol.FrameSize)
	fill := 0
	for {
		n, err := l.u.RecvSomeContext(ctx, frame[fill:])
		if err != nil {
			return err
		}
		fill += n
		if fill < protocol.FrameSize {
			continue
		}
		fill = 0
		if err := h(frame); err != nil {
			println("Error: transport: frame rejected:", err.Error())
		}
	}
}
