// settings/settings_test.go
package settings

import (
	"errors"
	"testing"

	"boardlink-go/errcode"
	"boardlink-go/keymap"
	"boardlink-go/registry"
	"boardlink-go/store"
	"boardlink-go/types"
)

func install(t *testing.T, kv *store.KV) (*Settings, *registry.Registry) {
	t.Helper()
	reg := registry.New(kv)
	s, err := Install(reg, "corvus")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	return s, reg
}

func newKV() *store.KV {
	return store.New(store.NewMemBackend(8192))
}

func TestInstallBindsEveryField(t *testing.T) {
	_, reg := install(t, newKV())
	keys := []uint16{
		types.KeyDeviceInfo,
		types.KeySleepTimeout,
		types.KeyPeripheralSleepTimeout,
		types.KeyKeymap,
		types.KeyMouseSensitivity,
		types.KeyScrollSensitivity,
		types.KeyPanSensitivity,
		types.KeyScrollDirection,
		types.KeyTPClickType,
		types.KeyDisplayCode,
		types.KeyDatetime,
	}
	for _, k := range keys {
		if reg.Get(k) == nil {
			t.Fatalf("key 0x%04x not bound", k)
		}
	}
}

func TestInstallUnknownDevice(t *testing.T) {
	reg := registry.New(newKV())
	if _, err := Install(reg, "no-such-board"); err == nil {
		t.Fatal("expected an error for an unknown device")
	}
}

func TestDefaultsApplied(t *testing.T) {
	s, _ := install(t, newKV())

	info := s.DeviceInfo()
	if info.VendorID != 4617 || info.ProductID != 8 {
		t.Fatalf("device info %+v", info)
	}
	if info.BoardName() != "corvus" {
		t.Fatalf("board %q", info.BoardName())
	}
	if s.SleepTimeout() != 900 || s.PeripheralSleepTimeout() != 900 {
		t.Fatalf("timeouts %d/%d", s.SleepTimeout(), s.PeripheralSleepTimeout())
	}
	if s.MouseSensitivity() != 128 {
		t.Fatalf("mouse sensitivity %d", s.MouseSensitivity())
	}
}

func TestDefaultKeymapGeometry(t *testing.T) {
	s, _ := install(t, newKV())
	recs, err := s.Keymap()
	if err != nil {
		t.Fatalf("keymap: %v", err)
	}
	if len(recs) != KeymapRecords {
		t.Fatalf("%d records, want %d", len(recs), KeymapRecords)
	}
}

func TestDefaultKeymapBindings(t *testing.T) {
	s, _ := install(t, newKV())

	b, err := s.Binding(0, 0)
	if err != nil {
		t.Fatalf("binding 0/0: %v", err)
	}
	if b.Device != "KEY_PRESS" || b.Param1 != 4 {
		t.Fatalf("binding 0/0 = %+v", b)
	}

	b, err = s.Binding(0, 9)
	if err != nil || b.Device != "MO" || b.Param1 != 1 {
		t.Fatalf("binding 0/9 = %+v, %v", b, err)
	}

	// Positions without an override fall through to transparent.
	b, err = s.Binding(2, 5)
	if err != nil || b.Device != "TRANS" {
		t.Fatalf("binding 2/5 = %+v, %v", b, err)
	}
}

func TestBindingOutsideGeometry(t *testing.T) {
	s, _ := install(t, newKV())
	if _, err := s.Binding(0, 200); !errors.Is(err, errcode.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// Persisted values override the embedded defaults on the next install.
func TestPersistedValueWinsOverDefault(t *testing.T) {
	kv := newKV()

	_, reg := install(t, kv)
	f := reg.Get(types.KeyMouseSensitivity)
	if err := f.Set([]byte{42}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := reg.Write(types.KeyMouseSensitivity); err != nil {
		t.Fatalf("write: %v", err)
	}

	s2, _ := install(t, kv)
	if s2.MouseSensitivity() != 42 {
		t.Fatalf("got %d, want persisted 42", s2.MouseSensitivity())
	}
}

func TestDatetimeIsTransient(t *testing.T) {
	kv := newKV()
	_, reg := install(t, kv)

	f := reg.Get(types.KeyDatetime)
	if f.Saveable() {
		t.Fatal("datetime must not be saveable")
	}
	if err := reg.Write(types.KeyDatetime); !errors.Is(err, errcode.StoreWriteFailed) {
		t.Fatalf("expected StoreWriteFailed, got %v", err)
	}
}

func TestKeymapSizeMatchesGeometry(t *testing.T) {
	if KeymapSize != KeymapRecords*keymap.RecordSize {
		t.Fatalf("KeymapSize %d", KeymapSize)
	}
	s, _ := install(t, newKV())
	f := s.reg.Get(types.KeyKeymap)
	if int(f.Size()) != KeymapSize {
		t.Fatalf("bound size %d, want %d", f.Size(), KeymapSize)
	}
}

func TestDefaultsLookupOverride(t *testing.T) {
	orig := DefaultsLookup
	t.Cleanup(func() { DefaultsLookup = orig })

	DefaultsLookup = func(device string) ([]byte, bool) {
		if device != "testboard" {
			return nil, false
		}
		return []byte(`{
			"vendor_id": 1, "product_id": 2, "version": [0, 0, 1],
			"board": "testboard", "sleep_timeout": 60,
			"mouse_sensitivity": 10
		}`), true
	}

	reg := registry.New(newKV())
	s, err := Install(reg, "testboard")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if s.DeviceInfo().BoardName() != "testboard" || s.SleepTimeout() != 60 {
		t.Fatalf("override defaults not applied: %+v", s.DeviceInfo())
	}
}
