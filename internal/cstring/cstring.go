// Package cstring decodes the fixed-width, NUL-padded name fields used by
// the LOD directory and DEF frame tables.
package cstring

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
)

// CString is a fixed-width field that holds a NUL-terminated string.
type CString []byte

// Trim returns the bytes up to (not including) the first NUL.
func (c CString) Trim() []byte {
	if i := bytes.IndexByte(c, 0); i >= 0 {
		return c[:i]
	}
	return c
}

// String decodes the field as Windows-1252, which is what the original
// game tools wrote. Undecodable input falls back to the raw bytes.
func (c CString) String() string {
	raw := c.Trim()
	buf, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(buf)
}

// Encode writes s into a field of width n, NUL padded. Names that do not
// fit are truncated so that at least one NUL remains.
func Encode(s string, n int) []byte {
	out := make([]byte, n)
	enc, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		enc = []byte(s)
	}
	if len(enc) > n-1 {
		enc = enc[:n-1]
	}
	copy(out, enc)
	return out
}
