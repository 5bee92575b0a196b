package render

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Families lists the font families offered for text annotations.
var Families = []string{"Arial", "Verdana", "Tahoma", "Times New Roman", "Courier New", "Georgia"}

const (
	labelFontSize = 18.0
	defaultFamily = "Arial"
)

type faceKey struct {
	source *text.FontSource
	size   float64
}

// Fonts resolves font family names to embedded Go fonts and caches faces.
// Monospaced families map to Go Mono; everything else to Go Regular.
type Fonts struct {
	regular *text.FontSource
	mono    *text.FontSource
	bold    *text.FontSource

	mu    sync.Mutex
	faces map[faceKey]text.Face
}

// NewFonts parses the embedded fonts.
func NewFonts() (*Fonts, error) {
	regular, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load regular font: %w", err)
	}
	mono, err := text.NewFontSource(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load mono font: %w", err)
	}
	bold, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}
	return &Fonts{
		regular: regular,
		mono:    mono,
		bold:    bold,
		faces:   make(map[faceKey]text.Face),
	}, nil
}

// Face returns the face for a family at the given pixel size.
func (f *Fonts) Face(family string, size float64) text.Face {
	src := f.regular
	if family == "Courier New" {
		src = f.mono
	}
	return f.face(src, size)
}

// Label returns the bold face used for angle values.
func (f *Fonts) Label() text.Face {
	return f.face(f.bold, labelFontSize)
}

func (f *Fonts) face(src *text.FontSource, size float64) text.Face {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := faceKey{source: src, size: size}
	if face, ok := f.faces[k]; ok {
		return face
	}
	face := src.Face(size)
	f.faces[k] = face
	return face
}

// Measure returns the advance width of s.
func (f *Fonts) Measure(s, family string, size float64) float64 {
	w, _ := text.Measure(s, f.Face(family, size))
	return w
}

// Close releases the font sources.
func (f *Fonts) Close() error {
	for _, src := range []*text.FontSource{f.regular, f.mono, f.bold} {
		if err := src.Close(); err != nil {
			return err
		}
	}
	return nil
}
