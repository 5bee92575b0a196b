// Package export writes the annotated image to a destination as PNG, JPEG or
// a single-page PDF.
package export

import (
	"fmt"
	"strings"
)

// Format is an output encoding.
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
	FormatPDF
)

// Formats lists the selectable formats in menu order.
var Formats = []string{"png", "jpg", "jpeg", "pdf"}

// ParseFormat interprets a user-supplied format string. It is trimmed and
// case-insensitive. ok is false only for an empty string; any other
// unrecognised value selects PNG.
func ParseFormat(s string) (f Format, ext string, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return 0, "", false
	case "jpg", "jpeg":
		return FormatJPEG, s, true
	case "pdf":
		return FormatPDF, "pdf", true
	default:
		return FormatPNG, "png", true
	}
}

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatPDF:
		return "pdf"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// MIME returns the media type of the encoding.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// FileName returns the suggested file name for base and extension ext.
func FileName(base, ext string) string {
	return base + "." + ext
}
