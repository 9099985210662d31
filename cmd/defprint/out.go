package main

import (
	"flag"
	"image"

	"badc0de.net/pkg/go-heroes3/imageprint"
)

var (
	col      = flag.Bool("col", true, "whether to use color at all")
	col256   = flag.Bool("col256", false, "whether to use 256 col instead of 24 bit")
	iterm    = flag.Bool("iterm", false, "whether to print with iterm escape code instead of 24 bit")
	rasterm  = flag.Bool("rasterm", false, "whether to print with kitty, iterm or sixel graphics, whichever the terminal supports")
	blanks   = flag.Bool("blanks", true, "whether to just use colored blanks instead of some bad ascii art")
	downsize = flag.Bool("downsize", true, "whether to shrink the image to fit the terminal")
)

func out(img image.Image) {
	if *downsize {
		if termSize, err := imageprint.GetTermSize(); err == nil {
			// Prefer native size if there's a chance we print an image rather than pixels.
			img = imageprint.Fit(img, termSize, *rasterm || *iterm)
		}
	}

	if *rasterm {
		if imageprint.PrintRasTerm(img) {
			return
		}
	}
	if !*col {
		imageprint.PrintNoColor(img)
	} else if *iterm {
		imageprint.PrintITerm(img, "frame.png")
	} else if *col256 {
		imageprint.Print256Color(img, *blanks)
	} else {
		imageprint.Print24bit(img, *blanks)
	}
}
