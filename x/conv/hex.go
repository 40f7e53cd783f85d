package conv

const hexd = "0123456789ABCDEF"

// U16Hex returns a 4-digit uppercase hex string without 0x, zero-padded.
// Used for field keys in log lines; avoids fmt on MCU builds.
func U16Hex(n uint16) string {
	var buf [4]byte
	for i := 3; i >= 0; i-- {
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return string(buf[:])
}

// U8Hex returns a 2-digit uppercase hex string without 0x, zero-padded.
func U8Hex(n uint8) string {
	return string([]byte{hexd[n>>4], hexd[n&0xF]})
}
