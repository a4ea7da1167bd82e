// Package tea implements the 32-round TEA-family block cipher used to
// encrypt the XNL authentication challenge. It makes no security claim;
// it exists purely to interoperate with the fielded peer's
// authentication handshake.
package tea

import "encoding/binary"

// Keys is the 4-word key material configured for a session. It is
// calibration data supplied by the caller, never derived or stored by
// this package.
type Keys [4]uint32

const rounds = 32

// Encrypt runs the 32-round construction over the 64-bit block (lo, hi)
// under keys and delta, all arithmetic unsigned 32-bit with wraparound.
// sum starts at zero and accumulates delta once per round before lo and
// hi are updated, in that order, each round.
func Encrypt(lo, hi uint32, keys Keys, delta uint32) (outLo, outHi uint32) {
	var sum uint32
	for i := 0; i < rounds; i++ {
		sum += delta
		lo += ((hi << 4) + keys[0]) ^ (hi + sum) ^ ((hi >> 5) + keys[1])
		hi += ((lo << 4) + keys[2]) ^ (lo + sum) ^ ((lo >> 5) + keys[3])
	}
	return lo, hi
}

// EncryptBlock encodes an 8-byte plaintext block (two big-endian 32-bit
// halves, per spec) and returns the ciphertext in the same layout.
func EncryptBlock(plaintext [8]byte, keys Keys, delta uint32) [8]byte {
	lo := binary.BigEndian.Uint32(plaintext[0:4])
	hi := binary.BigEndian.Uint32(plaintext[4:8])
	lo, hi = Encrypt(lo, hi, keys, delta)
	var out [8]byte
	binary.BigEndian.PutUint32(out[0:4], lo)
	binary.BigEndian.PutUint32(out[4:8], hi)
	return out
}
