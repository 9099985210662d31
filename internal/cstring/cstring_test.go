package cstring

import "testing"

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"nul padded", []byte{'a', 'b', 'c', 0, 0, 0}, "abc"},
		{"garbage after nul", []byte{'a', 'b', 0, 'x', 'y'}, "ab"},
		{"no nul", []byte{'a', 'b', 'c'}, "abc"},
		{"empty", []byte{0, 0}, ""},
		{"latin1 byte", []byte{'c', 0xE9, 0}, "cé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CString(tt.in).String(); got != tt.want {
				t.Errorf("got %q; want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	b := Encode("CrTrAin.def", 16)
	if len(b) != 16 {
		t.Fatalf("got len %d; want 16", len(b))
	}
	if got := CString(b).String(); got != "CrTrAin.def" {
		t.Errorf("got %q; want %q", got, "CrTrAin.def")
	}
}

func TestEncodeTruncates(t *testing.T) {
	b := Encode("abcdefghijklmnop", 8)
	if b[7] != 0 {
		t.Errorf("last byte is %#x; want NUL", b[7])
	}
	if got := CString(b).String(); got != "abcdefg" {
		t.Errorf("got %q; want %q", got, "abcdefg")
	}
}
