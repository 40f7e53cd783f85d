package store

import (
	"encoding/binary"
	"sync"

	"boardlink-go/errcode"
)

// Backend is the fixed flash region the store persists to. On rp2 boards
// an on-board flash device satisfies it directly (see flash_rp2.go);
// host builds and tests use a RAM region.
//
// WriteAt must accept rewrites of previously written offsets; erase
// policy stays with the platform layer that owns the region.
type Backend interface {
	ReadAt(p []byte, off int64) (n int, err error)
	WriteAt(p []byte, off int64) (n int, err error)
	Size() int64
}

// Region layout:
//
//	[4]byte magic "BLKV", u8 version, u8 reserved
//	then records: u16 key (LE), u16 len (LE), data
//
// A key of 0x0000 or 0xFFFF terminates the log (0 is the reserved field
// key, FFFF is what blank flash reads back). Replay is last-writer-wins
// per key; when an append no longer fits, live records are compacted to
// the front of the region.
const (
	headerSize    = 6
	recHeaderSize = 4
	version       = 1
)

var magic = [4]byte{'B', 'L', 'K', 'V'}

type rec struct {
	off int64 // offset of the data bytes
	len uint16
}

// KV is a key/value store over a flash region. One KV owns its region;
// Open runs once per process lifetime.
type KV struct {
	mu     sync.Mutex
	dev    Backend
	idx    map[uint16]rec
	tail   int64
	opened bool
}

func New(dev Backend) *KV {
	return &KV{dev: dev}
}

// Open scans the region and builds the key index. It is idempotent.
// A blank or unrecognized region is (re)initialized with a fresh header.
func (s *KV) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return nil
	}
	if s.dev == nil || s.dev.Size() < headerSize+recHeaderSize {
		return errcode.StoreUnavailable
	}

	var hdr [headerSize]byte
	if _, err := s.dev.ReadAt(hdr[:], 0); err != nil {
		return &errcode.E{C: errcode.StoreUnavailable, Op: "open", Err: err}
	}
	if [4]byte(hdr[:4]) != magic || hdr[4] != version {
		if err := s.format(); err != nil {
			return err
		}
		s.opened = true
		return nil
	}

	s.idx = make(map[uint16]rec)
	s.tail = headerSize
	size := s.dev.Size()
	var rh [recHeaderSize]byte
	for s.tail+recHeaderSize <= size {
		if _, err := s.dev.ReadAt(rh[:], s.tail); err != nil {
			return &errcode.E{C: errcode.StoreUnavailable, Op: "open", Err: err}
		}
		key := binary.LittleEndian.Uint16(rh[0:2])
		n := binary.LittleEndian.Uint16(rh[2:4])
		if key == 0x0000 || key == 0xFFFF {
			break
		}
		if s.tail+recHeaderSize+int64(n) > size {
			// Torn tail record; everything before it is still valid.
			break
		}
		s.idx[key] = rec{off: s.tail + recHeaderSize, len: n}
		s.tail += recHeaderSize + int64(n)
	}
	s.opened = true
	return nil
}

// format writes a fresh header and an empty log.
func (s *KV) format() error {
	var hdr [headerSize]byte
	copy(hdr[:4], magic[:])
	hdr[4] = version
	if _, err := s.dev.WriteAt(hdr[:], 0); err != nil {
		return &errcode.E{C: errcode.StoreUnavailable, Op: "format", Err: err}
	}
	// Terminate the log explicitly for backends that do not read blank
	// flash as FF.
	var term [recHeaderSize]byte
	if _, err := s.dev.WriteAt(term[:], headerSize); err != nil {
		return &errcode.E{C: errcode.StoreUnavailable, Op: "format", Err: err}
	}
	s.idx = make(map[uint16]rec)
	s.tail = headerSize
	return nil
}

// Read copies the stored value for key into buf (at most len(buf) bytes)
// and returns the full stored length, so callers can detect a size that
// differs from what they expected. Absent keys return NotFound.
func (s *KV) Read(key uint16, buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return 0, errcode.StoreUnavailable
	}
	r, ok := s.idx[key]
	if !ok {
		return 0, errcode.NotFound
	}
	n := int(r.len)
	if n > len(buf) {
		n = len(buf)
	}
	if n > 0 {
		if _, err := s.dev.ReadAt(buf[:n], r.off); err != nil {
			return 0, &errcode.E{C: errcode.StoreReadFailed, Op: "read", Err: err}
		}
	}
	return int(r.len), nil
}

// Write appends a record for key and returns len(p) on success.
// The previous record for the key becomes garbage until compaction.
func (s *KV) Write(key uint16, p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return 0, errcode.StoreUnavailable
	}
	if key == 0x0000 || key == 0xFFFF {
		return 0, &errcode.E{C: errcode.StoreWriteFailed, Op: "write", Msg: "reserved key"}
	}
	need := int64(recHeaderSize + len(p))
	if s.tail+need+recHeaderSize > s.dev.Size() {
		if err := s.compact(key); err != nil {
			return 0, err
		}
		if s.tail+need+recHeaderSize > s.dev.Size() {
			return 0, &errcode.E{C: errcode.StoreWriteFailed, Op: "write", Msg: "region full"}
		}
	}
	if err := s.append(key, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// append writes one record plus a fresh terminator at s.tail.
func (s *KV) append(key uint16, p []byte) error {
	buf := make([]byte, recHeaderSize+len(p)+recHeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], key)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(p)))
	copy(buf[recHeaderSize:], p)
	// Trailing 4 zero bytes terminate the log.
	if _, err := s.dev.WriteAt(buf, s.tail); err != nil {
		return &errcode.E{C: errcode.StoreWriteFailed, Op: "write", Err: err}
	}
	s.idx[key] = rec{off: s.tail + recHeaderSize, len: uint16(len(p))}
	s.tail += recHeaderSize + int64(len(p))
	return nil
}

// compact rewrites live records to the front of the region. The record
// for skip is dropped (its replacement is about to be appended).
func (s *KV) compact(skip uint16) error {
	live := make([]byte, 0, s.tail-headerSize)
	type entry struct {
		key uint16
		len uint16
		pos int
	}
	var entries []entry
	scratch := make([]byte, 0, 64)
	for key, r := range s.idx {
		if key == skip {
			continue
		}
		if cap(scratch) < int(r.len) {
			scratch = make([]byte, r.len)
		}
		scratch = scratch[:r.len]
		if _, err := s.dev.ReadAt(scratch, r.off); err != nil {
			return &errcode.E{C: errcode.StoreWriteFailed, Op: "compact", Err: err}
		}
		var rh [recHeaderSize]byte
		binary.LittleEndian.PutUint16(rh[0:2], key)
		binary.LittleEndian.PutUint16(rh[2:4], r.len)
		entries = append(entries, entry{key: key, len: r.len, pos: len(live) + recHeaderSize})
		live = append(live, rh[:]...)
		live = append(live, scratch...)
	}
	live = append(live, 0, 0, 0, 0) // terminator

	var hdr [headerSize]byte
	copy(hdr[:4], magic[:])
	hdr[4] = version
	if _, err := s.dev.WriteAt(hdr[:], 0); err != nil {
		return &errcode.E{C: errcode.StoreWriteFailed, Op: "compact", Err: err}
	}
	if _, err := s.dev.WriteAt(live, headerSize); err != nil {
		return &errcode.E{C: errcode.StoreWriteFailed, Op: "compact", Err: err}
	}
	s.idx = make(map[uint16]rec, len(entries))
	for _, e := range entries {
		s.idx[e.key] = rec{off: headerSize + int64(e.pos), len: e.len}
	}
	s.tail = headerSize + int64(len(live)) - recHeaderSize
	return nil
}
