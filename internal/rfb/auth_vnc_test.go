package rfb

import "testing"

func TestVNCAuthKeyReversesBitsAndPads(t *testing.T) {
	key := vncAuthKey("abc")
	if len(key) != 8 {
		t.Fatalf("expected 8-byte key, got %d", len(key))
	}
	// 'a' = 0x61 = 01100001, bit-reversed = 10000110 = 0x86
	if key[0] != 0x86 {
		t.Errorf("key[0] = %#x, want 0x86", key[0])
	}
	for i := 3; i < 8; i++ {
		if key[i] != 0 {
			t.Errorf("key[%d] = %#x, want zero padding", i, key[i])
		}
	}
}

func TestVNCAuthKeyTruncatesLongPasswords(t *testing.T) {
	key := vncAuthKey("0123456789")
	if len(key) != 8 {
		t.Fatalf("expected 8-byte key, got %d", len(key))
	}
}

func TestReverseBits(t *testing.T) {
	tests := []struct {
		in, want byte
	}{
		{0x00, 0x00},
		{0xff, 0xff},
		{0x01, 0x80},
		{0x80, 0x01},
		{0x61, 0x86},
	}
	for _, tt := range tests {
		if got := reverseBits(tt.in); got != tt.want {
			t.Errorf("reverseBits(%#x) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}
