package bits_test

import (
	"testing"

	"github.com/jetsetilly/agb/bits"
)

func TestFieldRoundTrip(t *testing.T) {
	v := uint32(0xcafebabe)
	for _, r := range [][2]int{{0, 3}, {4, 11}, {0, 31}, {28, 31}, {7, 7}} {
		extracted := bits.Field32(v, r[0], r[1])
		restored := bits.SetField32(v, r[0], r[1], extracted)
		if restored != v {
			t.Fatalf("field [%d:%d] round trip failed: got %08x want %08x", r[0], r[1], restored, v)
		}
	}
}

func TestByteAccess(t *testing.T) {
	v := uint32(0x01020304)
	for n, want := range []uint8{0x04, 0x03, 0x02, 0x01} {
		if got := bits.Byte32(v, n); got != want {
			t.Fatalf("byte %d: got %#x want %#x", n, got, want)
		}
	}

	v = bits.SetByte32(v, 0, 0xff)
	if v != 0x010203ff {
		t.Fatalf("SetByte32: got %08x", v)
	}
}

func TestTestSetClearToggle(t *testing.T) {
	v := uint32(0)
	v = bits.Set32(v, 5)
	if !bits.Test32(v, 5) {
		t.Fatal("expected bit 5 set")
	}
	v = bits.Clear32(v, 5)
	if bits.Test32(v, 5) {
		t.Fatal("expected bit 5 clear")
	}
	v = bits.Toggle32(v, 5)
	if !bits.Test32(v, 5) {
		t.Fatal("expected bit 5 set after toggle")
	}
}

func TestOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range bit index")
		}
	}()
	bits.Test32(0, 32)
}
