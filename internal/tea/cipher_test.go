package tea

import "testing"

const refDelta = 0x9E3779B9

func TestEncryptDeterministic(t *testing.T) {
	keys := Keys{0, 0, 0, 0}
	lo1, hi1 := Encrypt(0, 0, keys, refDelta)
	lo2, hi2 := Encrypt(0, 0, keys, refDelta)
	if lo1 != lo2 || hi1 != hi2 {
		t.Fatalf("Encrypt is not deterministic: (%x,%x) vs (%x,%x)", lo1, hi1, lo2, hi2)
	}
}

func TestEncryptNotIdentity(t *testing.T) {
	keys := Keys{0, 0, 0, 0}
	lo, hi := Encrypt(0, 0, keys, refDelta)
	if lo == 0 && hi == 0 {
		t.Fatalf("encrypting the zero block produced the zero block")
	}
}

func TestEncryptKeySensitive(t *testing.T) {
	lo1, hi1 := Encrypt(0x01020304, 0x05060708, Keys{1, 2, 3, 4}, refDelta)
	lo2, hi2 := Encrypt(0x01020304, 0x05060708, Keys{1, 2, 3, 5}, refDelta)
	if lo1 == lo2 && hi1 == hi2 {
		t.Fatalf("changing a key word did not change the ciphertext")
	}
}

func TestEncryptBlockRoundsThroughBigEndianHalves(t *testing.T) {
	keys := Keys{0x11111111, 0x22222222, 0x33333333, 0x44444444}
	plaintext := [8]byte{0, 0, 0, 1, 0, 0, 0, 2}

	direct := EncryptBlock(plaintext, keys, refDelta)

	lo, hi := Encrypt(1, 2, keys, refDelta)
	var want [8]byte
	want[0], want[1], want[2], want[3] = byte(lo>>24), byte(lo>>16), byte(lo>>8), byte(lo)
	want[4], want[5], want[6], want[7] = byte(hi>>24), byte(hi>>16), byte(hi>>8), byte(hi)

	if direct != want {
		t.Fatalf("EncryptBlock() = %x, want %x", direct, want)
	}
}

func TestEncryptAllRoundsRun(t *testing.T) {
	// A single round and the full 32-round construction must diverge for
	// a generic key, otherwise the loop bound regressed.
	keys := Keys{0xdeadbeef, 0xcafef00d, 0x8badf00d, 0x0ddba11}
	lo, hi := Encrypt(1, 1, keys, refDelta)

	var sum uint32
	oneLo, oneHi := uint32(1), uint32(1)
	sum += refDelta
	oneLo += ((oneHi << 4) + keys[0]) ^ (oneHi + sum) ^ ((oneHi >> 5) + keys[1])
	oneHi += ((oneLo << 4) + keys[2]) ^ (oneLo + sum) ^ ((oneLo >> 5) + keys[3])

	if lo == oneLo && hi == oneHi {
		t.Fatalf("32-round result matches a single round; rounds loop is not executing")
	}
}
