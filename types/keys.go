package types

// Configuration field keys. Values are carried on the wire and used as
// store keys, so they are part of the persisted format; never renumber.
//
// Namespace:
//
//	0x0000          reserved/invalid (marks an empty registry slot)
//	0x0001 - 0x3FFF persistable fields
//	0x4000 - 0x5FFF transient fields (never persisted)
//	0x6000 - 0x7FFF custom extension fields
const (
	KeyInvalid uint16 = 0x0000

	// 0x0001 - 0x0009: device information
	KeyDeviceInfo uint16 = 0x0001

	// 0x000A - 0x001F: device configuration
	KeySleepTimeout           uint16 = 0x000A // u16 ms/10, 0 = never sleep
	KeyPeripheralSleepTimeout uint16 = 0x000B // u16, 0 = never sleep

	// 0x0020 - 0x003F: keyboard configuration
	KeyKeymap uint16 = 0x0020 // packed binding records, see keymap package

	// 0x0040 - 0x005F: mouse/trackpad configuration
	KeyMouseSensitivity  uint16 = 0x0040 // u8
	KeyScrollSensitivity uint16 = 0x0041 // u8
	KeyPanSensitivity    uint16 = 0x0042 // u8
	KeyScrollDirection   uint16 = 0x0043 // u8
	KeyTPClickType       uint16 = 0x0044 // u8, 0 = normal, 1 = split left/right

	// 0x0060 - 0x007F: display configuration
	KeyDisplayCode uint16 = 0x0060 // u8

	// 0x4000 - 0x5FFF: transient fields
	KeyDatetime uint16 = 0x4000 // two i32: unix time, tz offset seconds

	// 0x6000 - 0x7FFF: custom fields
	KeyCustomBase uint16 = 0x6000
)

// Persistable reports whether key falls in the saveable namespace.
func Persistable(key uint16) bool { return key >= 0x0001 && key <= 0x3FFF }
