//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package imageprint

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// TermSize is the terminal size in character cells and, if the terminal
// reports it, in pixels.
type TermSize struct {
	WSRow, WSCol       uint
	WSXPixel, WSYPixel uint
}

var kittyReply = regexp.MustCompile(`\[4;(\d+);(\d+)t`)

// GetTermSize asks the controlling terminal for its size.
func GetTermSize() (TermSize, error) {
	var err error
	var f *os.File
	if f, err = os.OpenFile("/dev/tty", unix.O_NOCTTY|unix.O_CLOEXEC|unix.O_NDELAY|unix.O_RDWR, 0666); err == nil {
		// https://sw.kovidgoyal.net/kitty/graphics-protocol/#getting-the-window-size
		defer f.Close()
		var sz *unix.Winsize
		if sz, err = unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ); err == nil {
			if sz.Xpixel == 0 && sz.Ypixel == 0 && os.Getenv("TERM") == "xterm-kitty" {
				if w, h, ok := kittyPixelSize(f); ok {
					sz.Xpixel, sz.Ypixel = w, h
				}
			}
			return TermSize{WSRow: uint(sz.Row), WSCol: uint(sz.Col), WSXPixel: uint(sz.Xpixel), WSYPixel: uint(sz.Ypixel)}, nil
		}
	}
	var w, h int
	if w, h, err = term.GetSize(int(os.Stdout.Fd())); err == nil {
		return TermSize{WSRow: uint(h), WSCol: uint(w)}, nil
	}
	return TermSize{}, err
}

// kittyPixelSize asks kitty for the window size in pixels with CSI 14 t.
func kittyPixelSize(tty *os.File) (w, h uint16, ok bool) {
	state, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		return 0, 0, false
	}
	defer term.Restore(int(tty.Fd()), state)

	fmt.Fprintf(tty, "\033[14t")
	// TODO: bound this read with a deadline; a terminal that
	// claims to be kitty but never answers blocks here.
	s, err := bufio.NewReader(tty).ReadString('t')
	if err != nil {
		return 0, 0, false
	}
	m := kittyReply.FindStringSubmatch(s)
	if len(m) != 3 {
		return 0, 0, false
	}
	height, errH := strconv.Atoi(m[1])
	width, errW := strconv.Atoi(m[2])
	if errH != nil || errW != nil {
		return 0, 0, false
	}
	return uint16(width), uint16(height), true
}
