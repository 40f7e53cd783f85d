// cmd/boardlink-host/main.go
//
// Runs the whole configuration stack on the host with a RAM store and an
// in-process pipe standing in for the HID link, then plays a short
// configurator session against it.
package main

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"time"

	"boardlink-go/notify"
	"boardlink-go/protocol"
	"boardlink-go/registry"
	"boardlink-go/services/control"
	"boardlink-go/settings"
	"boardlink-go/store"
	"boardlink-go/transport"
	"boardlink-go/types"
	"boardlink-go/x/conv"
)

const storeRegion = 4096

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	println("[main] bringing up store and registry ...")
	kv := store.New(store.NewMemBackend(storeRegion))
	reg := registry.New(kv)

	st, err := settings.Install(reg, "corvus")
	if err != nil {
		println("[main] settings install failed:", err.Error())
		return
	}
	info := st.DeviceInfo()
	println("[main] device:", info.BoardName(),
		"vid 0x"+conv.U16Hex(info.VendorID), "pid 0x"+conv.U16Hex(info.ProductID))

	println("[main] subscribing to field updates ...")
	hub := notify.NewHub(8)
	mon := hub.Subscribe(notify.KeyAny)
	go func() {
		for u := range mon.Channel() {
			println("[monitor] field 0x"+conv.U16Hex(u.Key), "updated,", int(u.Size), "bytes")
		}
	}()

	devConn, hostConn := net.Pipe()
	devTr := transport.NewPipe(devConn)

	println("[main] starting control service ...")
	svc := control.New(reg, devTr, hub)
	svc.Start(ctx)
	go func() {
		if err := devTr.ReadLoop(ctx, svc.HandleFrame); err != nil && ctx.Err() == nil {
			println("[main] device read loop ended:", err.Error())
		}
	}()

	runSession(hostConn)

	cancel()
	_ = devTr.Close()
	time.Sleep(50 * time.Millisecond)
	println("[main] done")
}

// runSession drives the configurator side of the pipe: connect, raise
// the mouse sensitivity, read it back.
func runSession(conn net.Conn) {
	send := func(cmd uint8, payload []byte) {
		frames, err := protocol.BuildFrames(cmd, payload)
		if err != nil {
			println("[host] build failed:", err.Error())
			return
		}
		for _, f := range frames {
			if _, err := conn.Write(f); err != nil {
				println("[host] write failed:", err.Error())
				return
			}
		}
	}

	println("[host] connect ...")
	send(protocol.CmdConnect, nil)

	println("[host] set mouse sensitivity to 42 ...")
	send(protocol.CmdSetConfig,
		protocol.AppendSetConfig(nil, types.KeyMouseSensitivity, true, []byte{42}))

	println("[host] read it back ...")
	send(protocol.CmdGetConfig,
		protocol.AppendGetConfigRequest(nil, types.KeyMouseSensitivity, 64))

	resp, err := readMessage(conn)
	if err != nil {
		println("[host] read failed:", err.Error())
		return
	}
	got, err := protocol.ParseGetConfigResponse(resp)
	if err != nil {
		println("[host] bad response:", err.Error())
		return
	}
	println("[host] field 0x"+conv.U16Hex(got.Key), "=", int(got.Data[0]))

	println("[host] set datetime (transient) ...")
	var dt [8]byte
	now := time.Now()
	_, tz := now.Zone()
	binary.LittleEndian.PutUint32(dt[0:4], uint32(now.Unix()))
	binary.LittleEndian.PutUint32(dt[4:8], uint32(int32(tz)))
	send(protocol.CmdSetConfig,
		protocol.AppendSetConfig(nil, types.KeyDatetime, false, dt[:]))
	time.Sleep(50 * time.Millisecond)
}

// readMessage collects one chunked response from the device.
func readMessage(conn net.Conn) ([]byte, error) {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	frame := make([]byte, protocol.FrameSize)
	var buf []byte
	received := 0
	for {
		if _, err := io.ReadFull(conn, frame); err != nil {
			return nil, err
		}
		hdr, err := protocol.ParseHeader(frame)
		if err != nil {
			return nil, err
		}
		if buf == nil {
			buf = make([]byte, hdr.Size)
		}
		n := copy(buf[hdr.ChunkOffset:], frame[protocol.HeaderSize:protocol.HeaderSize+int(hdr.ChunkSize)])
		received += n
		if received >= len(buf) {
			return buf, nil
		}
	}
}
