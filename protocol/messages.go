package protocol

import (
	"encoding/binary"

	"boardlink-go/errcode"
	"boardlink-go/x/mathx"
)

// SetConfig is the decoded 0x11 payload:
//
//	key:u16, size:u16, save:u8, data:u8[size]
type SetConfig struct {
	Key  uint16
	Size uint16
	Save bool
	Data []byte
}

// ParseSetConfig decodes a SetConfig from a logical message payload.
// Data aliases p; callers own p until they are done with the result.
func ParseSetConfig(p []byte) (SetConfig, error) {
	if len(p) < setConfigMinSize {
		return SetConfig{}, &errcode.E{C: errcode.ProtocolError, Op: "parse_set_config", Msg: "short payload"}
	}
	m := SetConfig{
		Key:  binary.LittleEndian.Uint16(p[0:2]),
		Size: binary.LittleEndian.Uint16(p[2:4]),
		Save: p[4] != 0,
	}
	if len(p) < setConfigMinSize+int(m.Size) {
		return SetConfig{}, &errcode.E{C: errcode.ProtocolError, Op: "parse_set_config", Msg: "data shorter than declared size"}
	}
	m.Data = p[setConfigMinSize : setConfigMinSize+int(m.Size)]
	return m, nil
}

// AppendSetConfig builds the SetConfig payload for key/value.
func AppendSetConfig(dst []byte, key uint16, save bool, value []byte) []byte {
	var hdr [setConfigMinSize]byte
	binary.LittleEndian.PutUint16(hdr[0:2], key)
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(value)))
	if save {
		hdr[4] = 1
	}
	dst = append(dst, hdr[:]...)
	return append(dst, value...)
}

// GetConfigRequest is the decoded 0x12 request payload:
//
//	key:u16, max_size:u16
type GetConfigRequest struct {
	Key     uint16
	MaxSize uint16
}

func ParseGetConfigRequest(p []byte) (GetConfigRequest, error) {
	if len(p) < getConfigReqSize {
		return GetConfigRequest{}, &errcode.E{C: errcode.ProtocolError, Op: "parse_get_config", Msg: "short payload"}
	}
	return GetConfigRequest{
		Key:     binary.LittleEndian.Uint16(p[0:2]),
		MaxSize: binary.LittleEndian.Uint16(p[2:4]),
	}, nil
}

// AppendGetConfigRequest builds the GetConfig request payload.
func AppendGetConfigRequest(dst []byte, key, maxSize uint16) []byte {
	var b [getConfigReqSize]byte
	binary.LittleEndian.PutUint16(b[0:2], key)
	binary.LittleEndian.PutUint16(b[2:4], maxSize)
	return append(dst, b[:]...)
}

// GetConfigResponse is the decoded 0x12 response payload:
//
//	key:u16, size:u16, data:u8[size]
type GetConfigResponse struct {
	Key  uint16
	Size uint16
	Data []byte
}

func ParseGetConfigResponse(p []byte) (GetConfigResponse, error) {
	if len(p) < getConfigRespSize {
		return GetConfigResponse{}, &errcode.E{C: errcode.ProtocolError, Op: "parse_get_config_resp", Msg: "short payload"}
	}
	m := GetConfigResponse{
		Key:  binary.LittleEndian.Uint16(p[0:2]),
		Size: binary.LittleEndian.Uint16(p[2:4]),
	}
	if len(p) < getConfigRespSize+int(m.Size) {
		return GetConfigResponse{}, &errcode.E{C: errcode.ProtocolError, Op: "parse_get_config_resp", Msg: "data shorter than declared size"}
	}
	m.Data = p[getConfigRespSize : getConfigRespSize+int(m.Size)]
	return m, nil
}

// AppendGetConfigResponse builds the GetConfig response payload.
func AppendGetConfigResponse(dst []byte, key uint16, value []byte) []byte {
	var b [getConfigRespSize]byte
	binary.LittleEndian.PutUint16(b[0:2], key)
	binary.LittleEndian.PutUint16(b[2:4], uint16(len(value)))
	dst = append(dst, b[:]...)
	return append(dst, value...)
}

// BuildFrames splits a logical message into wire frames. Every frame is
// FrameSize bytes, carries a full header describing the whole message
// plus this chunk, and a CRC over the chunk payload. payload must not
// exceed MaxMessageSize.
func BuildFrames(cmd uint8, payload []byte) ([][]byte, error) {
	if len(payload) > MaxMessageSize {
		return nil, &errcode.E{C: errcode.ProtocolError, Op: "build_frames", Msg: "message too large"}
	}
	total := len(payload)
	n := (total + FrameDataSize - 1) / FrameDataSize
	if n == 0 {
		n = 1 // a message with no payload still takes one frame
	}
	frames := make([][]byte, 0, n)
	for off := 0; ; off += FrameDataSize {
		chunk := mathx.Min(total-off, FrameDataSize)
		if chunk < 0 {
			chunk = 0
		}
		frame := make([]byte, FrameSize)
		h := Header{
			ReportID:    ReportID,
			Cmd:         cmd,
			Size:        uint16(total),
			ChunkSize:   uint8(chunk),
			ChunkOffset: uint16(off),
			Checksum:    CRC8(payload[off : off+chunk]),
		}
		h.put(frame[:HeaderSize])
		copy(frame[HeaderSize:], payload[off:off+chunk])
		frames = append(frames, frame)
		if off+chunk >= total {
			break
		}
	}
	return frames, nil
}
