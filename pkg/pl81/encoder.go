package pl81

// BuildPacket appends the checksum to a raw payload and returns the complete
// frame. The payload must already carry the sentinel, tag, and payload
// bytes; BuildPacket does not inspect them.
func BuildPacket(payload []byte) []byte {
	hi, lo := checksumBytes(Checksum(payload))
	pkt := make([]byte, 0, len(payload)+2)
	pkt = append(pkt, payload...)
	pkt = append(pkt, hi, lo)
	return pkt
}

// NewCCTCommand encodes a brightness and color temperature command.
// Brightness is a percentage; values above 100 are capped, not rejected.
// Kelvin is clamped to the panel's 2900K-7000K range and quantized to the
// nearest step. The result is always exactly 8 bytes.
func NewCCTCommand(brightness uint8, kelvin uint32) []byte {
	if brightness > MaxBrightness {
		brightness = MaxBrightness
	}
	return BuildPacket([]byte{
		StartByte,
		TagCCT,
		cctPayloadLen,
		cctSubcommand,
		brightness,
		KelvinToByte(kelvin),
	})
}
