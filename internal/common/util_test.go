package common

import (
	"encoding/hex"
	"testing"
)

func TestGenerateRandByteArray(t *testing.T) {
	a := GenerateRandByteArray(32)
	b := GenerateRandByteArray(32)
	if len(a) != 32 || len(b) != 32 {
		t.Fatalf("expected 32 bytes, got %d and %d", len(a), len(b))
	}
	if string(a) == string(b) {
		t.Fatalf("two random arrays should differ")
	}
}

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
}

func TestWipeByteArray(t *testing.T) {
	b := []byte("sensitive")
	WipeByteArray(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not wiped: %v", i, v)
		}
	}
	WipeByteArray(nil) // must not panic
}
