// Package crc16 implements the reflected CRC-16 (polynomial 0xA001, zero
// seed) that seals every framed response and accumulates over captured
// transfer data.
package crc16

const poly = 0xA001

// Update folds one byte into crc and returns the new value.
func Update(crc uint16, b byte) uint16 {
	crc ^= uint16(b)
	for i := 0; i < 8; i++ {
		if crc&1 != 0 {
			crc = (crc >> 1) ^ poly
		} else {
			crc >>= 1
		}
	}
	return crc
}

// Checksum returns the CRC of p from a zero seed.
func Checksum(p []byte) uint16 {
	var crc uint16
	for _, b := range p {
		crc = Update(crc, b)
	}
	return crc
}
