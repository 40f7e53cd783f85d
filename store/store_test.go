// store/store_test.go
package store

import (
	"bytes"
	"errors"
	"testing"

	"boardlink-go/errcode"
)

func openKV(t *testing.T, size int) (*KV, *MemBackend) {
	t.Helper()
	dev := NewMemBackend(size)
	kv := New(dev)
	if err := kv.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	return kv, dev
}

func TestReadBeforeOpen(t *testing.T) {
	kv := New(NewMemBackend(256))
	if _, err := kv.Read(0x0040, make([]byte, 4)); !errors.Is(err, errcode.StoreUnavailable) {
		t.Fatalf("expected StoreUnavailable, got %v", err)
	}
	if _, err := kv.Write(0x0040, []byte{1}); !errors.Is(err, errcode.StoreUnavailable) {
		t.Fatalf("expected StoreUnavailable, got %v", err)
	}
}

func TestWriteReadRoundtrip(t *testing.T) {
	kv, _ := openKV(t, 256)

	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if n, err := kv.Write(0x0040, want); err != nil || n != len(want) {
		t.Fatalf("write: n=%d err=%v", n, err)
	}

	buf := make([]byte, 16)
	n, err := kv.Read(0x0040, buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != len(want) || !bytes.Equal(buf[:n], want) {
		t.Fatalf("read back %d bytes %x, want %x", n, buf[:n], want)
	}
}

func TestReadAbsentKey(t *testing.T) {
	kv, _ := openKV(t, 256)
	if _, err := kv.Read(0x0099, make([]byte, 4)); !errors.Is(err, errcode.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// Read reports the full stored length even when the caller's buffer is
// shorter, so callers can detect a schema change.
func TestReadShortBuffer(t *testing.T) {
	kv, _ := openKV(t, 256)
	if _, err := kv.Write(0x0020, []byte{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 2)
	n, err := kv.Read(0x0020, buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 6 {
		t.Fatalf("stored length %d, want 6", n)
	}
	if !bytes.Equal(buf, []byte{1, 2}) {
		t.Fatalf("prefix %x, want 0102", buf)
	}
}

func TestLastWriterWins(t *testing.T) {
	kv, _ := openKV(t, 256)
	for i := byte(0); i < 5; i++ {
		if _, err := kv.Write(0x0041, []byte{i}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	buf := make([]byte, 1)
	if n, err := kv.Read(0x0041, buf); err != nil || n != 1 {
		t.Fatalf("read: n=%d err=%v", n, err)
	}
	if buf[0] != 4 {
		t.Fatalf("got %d, want last written 4", buf[0])
	}
}

func TestReopenPersists(t *testing.T) {
	dev := NewMemBackend(256)
	kv := New(dev)
	if err := kv.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := kv.Write(0x000A, []byte{0x84, 0x03}); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Same backend, fresh store: simulates a reboot.
	kv2 := New(dev)
	if err := kv2.Open(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	buf := make([]byte, 2)
	n, err := kv2.Read(0x000A, buf)
	if err != nil || n != 2 {
		t.Fatalf("read after reopen: n=%d err=%v", n, err)
	}
	if !bytes.Equal(buf, []byte{0x84, 0x03}) {
		t.Fatalf("got %x", buf)
	}
}

func TestBlankRegionFormats(t *testing.T) {
	kv, dev := openKV(t, 256)
	_ = kv

	var hdr [6]byte
	if _, err := dev.ReadAt(hdr[:], 0); err != nil {
		t.Fatalf("readat: %v", err)
	}
	if string(hdr[:4]) != "BLKV" {
		t.Fatalf("magic %q", hdr[:4])
	}
}

func TestReservedKeysRejected(t *testing.T) {
	kv, _ := openKV(t, 256)
	for _, key := range []uint16{0x0000, 0xFFFF} {
		if _, err := kv.Write(key, []byte{1}); !errors.Is(err, errcode.StoreWriteFailed) {
			t.Fatalf("key 0x%04x: expected StoreWriteFailed, got %v", key, err)
		}
	}
}

// Overwriting keys in a small region forces compaction; all live values
// must survive it.
func TestCompaction(t *testing.T) {
	kv, _ := openKV(t, 128)

	keep := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	if _, err := kv.Write(0x0001, keep); err != nil {
		t.Fatalf("write keep: %v", err)
	}

	val := make([]byte, 16)
	for i := 0; i < 50; i++ {
		val[0] = byte(i)
		if _, err := kv.Write(0x0020, val); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	buf := make([]byte, 16)
	if n, err := kv.Read(0x0001, buf); err != nil || n != len(keep) {
		t.Fatalf("read keep: n=%d err=%v", n, err)
	}
	if !bytes.Equal(buf[:len(keep)], keep) {
		t.Fatalf("keep clobbered: %x", buf[:len(keep)])
	}
	if n, err := kv.Read(0x0020, buf); err != nil || n != 16 || buf[0] != 49 {
		t.Fatalf("read churn: n=%d buf0=%d err=%v", n, buf[0], err)
	}
}

func TestRegionFull(t *testing.T) {
	kv, _ := openKV(t, 64)

	// Distinct keys so compaction cannot reclaim anything.
	var err error
	for key := uint16(1); key <= 20; key++ {
		if _, err = kv.Write(key, make([]byte, 8)); err != nil {
			break
		}
	}
	if !errors.Is(err, errcode.StoreWriteFailed) {
		t.Fatalf("expected StoreWriteFailed once full, got %v", err)
	}
}

func TestOpenIdempotent(t *testing.T) {
	kv, _ := openKV(t, 256)
	if _, err := kv.Write(0x0002, []byte{7}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := kv.Open(); err != nil {
		t.Fatalf("second open: %v", err)
	}
	buf := make([]byte, 1)
	if n, err := kv.Read(0x0002, buf); err != nil || n != 1 || buf[0] != 7 {
		t.Fatalf("read after reopen: n=%d buf=%x err=%v", n, buf, err)
	}
}
