package device

// Decode combines a little-endian register pair. When signed is set the
// 16-bit value is sign-extended from two's complement.
func Decode(low, high byte, signed bool) int32 {
	v := int32(low) | int32(high)<<8
	if signed && v >= 0x8000 {
		v -= 0x10000
	}
	return v
}

// DecodeLE decodes the first two bytes of b, low byte first.
func DecodeLE(b []byte, signed bool) int32 {
	_ = b[1]
	return Decode(b[0], b[1], signed)
}
