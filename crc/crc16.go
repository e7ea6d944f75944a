// Package crc implements the CRC16/CCITT-FALSE checksum carried by v3 frames.
package crc

// Checksum16 computes CRC16/CCITT-FALSE over data: initial register 0xFFFF,
// polynomial 0x1021, each byte consumed MSB-first, no final XOR, no
// reflection.
func Checksum16(data []byte) uint16 {
	reg := uint16(0xFFFF)
	for _, b := range data {
		reg ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if reg&0x8000 != 0 {
				reg = reg<<1 ^ 0x1021
			} else {
				reg <<= 1
			}
		}
	}
	return reg
}
