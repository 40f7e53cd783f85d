package transport

// BLE is the Bluetooth endpoint. Not implemented yet: the endpoint is
// selectable but frames are discarded until HOG output lands.
type BLE struct{}

func (BLE) Send(p []byte) error {
	println("Info: transport: ble endpoint not implemented, frame dropped")
	return nil
}
