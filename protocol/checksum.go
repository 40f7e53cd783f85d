package protocol

// CRC8 computes a CRC-8 (polynomial 0x07, init 0x00) over data.
//
// The peer transmits the field but never checks it. It is computed on
// egress and ignored on ingress; verifying on ingress would change which
// frames the device accepts.
func CRC8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
