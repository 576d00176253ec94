package config

import "strings"

// PaperSize is a document export page format in inches.
type PaperSize struct {
	Name   string
	Width  float64
	Height float64
}

// Supported paper sizes.
var (
	PaperA3     = PaperSize{Name: "A3", Width: 11.69, Height: 16.54}
	PaperA4     = PaperSize{Name: "A4", Width: 8.27, Height: 11.69}
	PaperLetter = PaperSize{Name: "Letter", Width: 8.5, Height: 11}
	PaperLegal  = PaperSize{Name: "Legal", Width: 8.5, Height: 14}
)

// LookupPaperSize returns the paper size with the given name (case-insensitive).
func LookupPaperSize(name string) (PaperSize, error) {
	for _, p := range []PaperSize{PaperA3, PaperA4, PaperLetter, PaperLegal} {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return PaperSize{}, ErrUnknownPaperSize
}
