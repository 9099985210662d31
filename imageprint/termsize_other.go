//go:build !(aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)

package imageprint

import (
	"os"

	"golang.org/x/term"
)

// TermSize is the terminal size in character cells. Pixel sizes are never
// known on these platforms.
type TermSize struct {
	WSRow, WSCol       uint
	WSXPixel, WSYPixel uint
}

// GetTermSize asks stdout's terminal for its size.
func GetTermSize() (TermSize, error) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return TermSize{}, err
	}
	return TermSize{WSRow: uint(h), WSCol: uint(w)}, nil
}
