package store

import "io"

// MemBackend is a RAM-backed region for host demos and tests. Fresh
// regions read back 0xFF everywhere, like blank flash.
type MemBackend struct {
	buf []byte
}

func NewMemBackend(size int) *MemBackend {
	b := make([]byte, size)
	for i := range b {
		b[i] = 0xFF
	}
	return &MemBackend{buf: b}
}

func (m *MemBackend) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemBackend) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.buf)) {
		return 0, io.ErrShortWrite
	}
	return copy(m.buf[off:], p), nil
}

func (m *MemBackend) Size() int64 { return int64(len(m.buf)) }
