//go:build rp2040 || rp2350

package store

import "tinygo.org/x/drivers/flash"

// FlashBackend adapts the on-board SPI/QSPI flash device to the store's
// Backend contract. The caller hands over a device already scoped to the
// settings partition; erase scheduling stays with the platform layer.
func FlashBackend(dev *flash.Device) Backend { return dev }
