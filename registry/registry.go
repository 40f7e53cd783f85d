// Package registry holds the fixed-capacity table of configuration
// fields and moves their values between RAM and the persistent store.
package registry

import (
	"sync"

	"boardlink-go/errcode"
	"boardlink-go/store"
	"boardlink-go/types"
	"boardlink-go/x/conv"
)

// Field flags.
const (
	// FlagSaveable marks a field that persists to the store. Fixed at bind time.
	FlagSaveable uint8 = 1 << 0
	// FlagRead is set once the field has been read from the store.
	FlagRead uint8 = 1 << 1
	// FlagWritten is set once the field has been written to the store.
	FlagWritten uint8 = 1 << 2
)

const (
	// MaxFields is the slot capacity of a registry.
	MaxFields = 32
	// MaxFieldSize bounds a single field value; sized so the keymap
	// block fits with headroom.
	MaxFieldSize = 512
)

// Field is one bound configuration value. The data slice is caller-owned
// storage that must stay valid for the life of the binding; the registry
// never reallocates or frees it.
type Field struct {
	mu       sync.Mutex
	key      uint16
	flags    uint8
	size     uint16
	data     []byte
	onUpdate func(*Field)
}

func (f *Field) Key() uint16    { return f.key }
func (f *Field) Size() uint16   { return f.size }
func (f *Field) Saveable() bool { return f.flags&FlagSaveable != 0 }

// Flags returns the current flag bits.
func (f *Field) Flags() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags
}

// Set copies p into the field's storage. p must be exactly Size bytes.
func (f *Field) Set(p []byte) error {
	if len(p) != int(f.size) {
		return errcode.SizeMismatch
	}
	f.mu.Lock()
	copy(f.data, p)
	f.mu.Unlock()
	return nil
}

// CopyOut copies the current value into dst and returns the number of
// bytes copied (Size, or less if dst is shorter).
func (f *Field) CopyOut(dst []byte) int {
	f.mu.Lock()
	n := copy(dst, f.data)
	f.mu.Unlock()
	return n
}

// FireUpdate invokes the bind-time update callback, if any. Called after
// an externally-driven write; never called with the field mutex held.
func (f *Field) FireUpdate() {
	if f.onUpdate != nil {
		f.onUpdate(f)
	}
}

// Registry is a fixed-capacity table of fields keyed by a 16-bit
// identifier. Key 0 marks an empty slot.
type Registry struct {
	mu     sync.RWMutex
	kv     *store.KV
	opened bool
	fields [MaxFields]Field
}

func New(kv *store.KV) *Registry {
	return &Registry{kv: kv}
}

// Bind registers caller-owned storage under key. The value size is fixed
// to len(data) for the life of the binding. Saveable fields get a
// best-effort initial read; a key absent from the store is the first-run
// case, not an error. The first Bind opens the store; an open failure
// aborts with StoreUnavailable (persistence stays unavailable for the
// session).
func (r *Registry) Bind(key uint16, data []byte, saveable bool, onUpdate func(*Field)) (*Field, error) {
	if key == types.KeyInvalid {
		return nil, &errcode.E{C: errcode.NotFound, Op: "bind", Msg: "key 0x0000 is reserved"}
	}
	if len(data) == 0 || len(data) > MaxFieldSize {
		return nil, &errcode.E{C: errcode.SizeMismatch, Op: "bind", Msg: "field size out of range"}
	}

	r.mu.Lock()
	if !r.opened {
		if err := r.kv.Open(); err != nil {
			r.mu.Unlock()
			println("Error: registry: store open failed:", err.Error())
			return nil, &errcode.E{C: errcode.StoreUnavailable, Op: "bind", Err: err}
		}
		r.opened = true
	}
	if r.lookup(key) != nil {
		r.mu.Unlock()
		println("Error: registry: field 0x" + conv.U16Hex(key) + " already bound")
		return nil, errcode.DuplicateKey
	}
	var f *Field
	for i := range r.fields {
		if r.fields[i].key == types.KeyInvalid {
			f = &r.fields[i]
			break
		}
	}
	if f == nil {
		r.mu.Unlock()
		println("Error: registry: field table full, raise MaxFields")
		return nil, errcode.RegistryFull
	}
	f.key = key
	f.size = uint16(len(data))
	f.data = data
	f.onUpdate = onUpdate
	if saveable {
		f.flags = FlagSaveable
	} else {
		f.flags = 0
	}
	r.mu.Unlock()

	if saveable {
		// Absent in the store on first run; nothing to restore yet.
		_ = r.Read(key)
	}
	return f, nil
}

// Get returns the field bound under key, or nil. It never touches the
// store and is safe to call before the first Bind.
func (r *Registry) Get(key uint16) *Field {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(key)
}

func (r *Registry) lookup(key uint16) *Field {
	if key == types.KeyInvalid {
		return nil
	}
	for i := range r.fields {
		if r.fields[i].key == key {
			return &r.fields[i]
		}
	}
	return nil
}

// Read refreshes the field's value from the store. A stored length that
// differs from the bound size is a schema change: the field's current
// in-memory value is written back as the reconciled version.
func (r *Registry) Read(key uint16) error {
	f := r.Get(key)
	if f == nil {
		return errcode.NotFound
	}
	if !f.Saveable() {
		return &errcode.E{C: errcode.StoreReadFailed, Op: "read", Msg: "field not saveable"}
	}

	buf := make([]byte, MaxFieldSize)
	f.mu.Lock()
	n, err := r.kv.Read(f.key, buf)
	if err != nil {
		f.flags &^= FlagRead
		f.mu.Unlock()
		return &errcode.E{C: errcode.StoreReadFailed, Op: "read", Err: err}
	}
	if n == int(f.size) {
		copy(f.data, buf[:n])
		f.flags |= FlagRead | FlagWritten
		f.mu.Unlock()
		return nil
	}
	// Stored size differs from the declared size. Unlock first: the
	// reconciliation write takes the mutex again.
	f.mu.Unlock()
	println("Info: registry: field 0x"+conv.U16Hex(key)+" stored size", n, "!=", int(f.size), "- reconciling")
	if err := r.Write(f.key); err != nil {
		f.mu.Lock()
		f.flags = 0
		f.mu.Unlock()
		return err
	}
	return nil
}

// Write persists the field's current value.
func (r *Registry) Write(key uint16) error {
	f := r.Get(key)
	if f == nil {
		return errcode.NotFound
	}
	if !f.Saveable() {
		return &errcode.E{C: errcode.StoreWriteFailed, Op: "write", Msg: "field not saveable"}
	}

	f.mu.Lock()
	_, err := r.kv.Write(f.key, f.data)
	if err != nil {
		f.flags &^= FlagWritten
		f.mu.Unlock()
		println("Error: registry: store write failed for 0x" + conv.U16Hex(key))
		return &errcode.E{C: errcode.StoreWriteFailed, Op: "write", Err: err}
	}
	f.flags |= FlagRead | FlagWritten
	f.mu.Unlock()
	return nil
}
