// Package protocol defines the chunked control protocol spoken with the
// configurator: fixed-size frames, each carrying a self-describing
// header and a slice of one logical message.
package protocol

// ReportID is the transport discriminator; every frame starts with it.
const ReportID = 0x05

// Frame geometry. A frame is always FrameSize bytes on the wire; the
// header leaves FrameDataSize bytes of payload capacity.
const (
	FrameSize     = 32
	HeaderSize    = 8
	FrameDataSize = FrameSize - HeaderSize
)

// MaxMessageSize bounds a logical message; larger totals in a header are
// rejected instead of allocated.
const MaxMessageSize = 4096

// Command codes.
const (
	CmdInvalid   = 0x00
	CmdConnect   = 0x01 // connectivity probe, no payload interpretation
	CmdSetConfig = 0x11
	CmdGetConfig = 0x12
)

// Fixed payload prefixes (before variable data).
const (
	setConfigMinSize  = 5 // key:u16, size:u16, save:u8
	getConfigReqSize  = 4 // key:u16, max_size:u16
	getConfigRespSize = 4 // key:u16, size:u16
)
