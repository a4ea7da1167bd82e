package client

import "encoding/binary"

// hzPerUnit is the frequency codec's fixed step: every on-wire unit
// represents 5 Hz (spec.md §4.7).
const hzPerUnit = 5

// frequencyToBytes divides a frequency in Hz by 5 and serialises it as
// a big-endian uint32.
func frequencyToBytes(hz uint32) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], hz/hzPerUnit)
	return b
}

// bytesToFrequency inverts frequencyToBytes.
func bytesToFrequency(b []byte) uint32 {
	return binary.BigEndian.Uint32(b) * hzPerUnit
}
