package imageprint

import (
	"flag"
	"image"
)

var (
	forceITerm = flag.Bool("force_iterm", false, "value to force iterm detection to take (implementation variant: no rasterm)")
)

func isTermItermWez() bool {
	return *forceITerm
}

// PrintRasTerm is not supported on windows and always reports false.
func PrintRasTerm(i image.Image) bool {
	return false
}
