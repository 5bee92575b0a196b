// Package image provides radiograph loading for the annotation canvas.
package image

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrNotLoaded is returned when no image is available.
var ErrNotLoaded = errors.New("image not loaded")

// Layer is a decoded source image. A Layer returned by LoadAsync becomes
// usable once Wait returns nil; fields must not be read before then.
type Layer struct {
	Path   string      // Original file path
	Image  image.Image // Decoded image data
	Format string      // Decoder name: png, jpeg, tiff or bmp
	DPI    float64     // From TIFF resolution tags, 0 if unknown

	ready chan struct{}
	err   error
}

// Load reads and decodes the image at path.
func Load(path string) (*Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	return Decode(file, path)
}

// Decode decodes an image from r. name is recorded as the layer path.
func Decode(r io.Reader, name string) (*Layer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	layer := FromImage(img, name)
	layer.Format = format
	if format == "tiff" {
		if dpi, err := extractTIFFDPI(bytes.NewReader(data)); err == nil {
			layer.DPI = dpi
		}
	}
	return layer, nil
}

// FromImage wraps an already decoded image.
func FromImage(img image.Image, name string) *Layer {
	l := &Layer{Path: name, Image: img, ready: make(chan struct{})}
	close(l.ready)
	return l
}

// LoadAsync starts decoding path in the background.
func LoadAsync(path string) *Layer {
	l := &Layer{Path: path, ready: make(chan struct{})}
	go func() {
		defer close(l.ready)
		loaded, err := Load(path)
		if err != nil {
			l.err = err
			return
		}
		l.Image, l.Format, l.DPI = loaded.Image, loaded.Format, loaded.DPI
	}()
	return l
}

// Ready reports whether decoding has finished, successfully or not.
func (l *Layer) Ready() bool {
	if l == nil {
		return false
	}
	select {
	case <-l.ready:
		return true
	default:
		return false
	}
}

// Wait blocks until decoding finishes or ctx is done. It returns the decode
// error, if any.
func (l *Layer) Wait(ctx context.Context) error {
	if l == nil {
		return ErrNotLoaded
	}
	select {
	case <-l.ready:
		if l.err != nil {
			return l.err
		}
		if l.Image == nil {
			return ErrNotLoaded
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Width returns the image width in pixels, or 0 until decoded.
func (l *Layer) Width() int {
	if !l.Ready() || l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels, or 0 until decoded.
func (l *Layer) Height() int {
	if !l.Ready() || l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Name returns the file name without directory.
func (l *Layer) Name() string {
	return filepath.Base(l.Path)
}

// extractTIFFDPI reads the resolution tags of the first IFD.
func extractTIFFDPI(r io.ReadSeeker) (float64, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	switch {
	case header[0] == 'I' && header[1] == 'I':
		byteOrder = binary.LittleEndian
	case header[0] == 'M' && header[1] == 'M':
		byteOrder = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := r.Seek(int64(ifdOffset), io.SeekStart); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(r, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = 2 // inches

	entry := make([]byte, 12)
	for i := uint16(0); i < numEntries; i++ {
		if _, err := io.ReadFull(r, entry); err != nil {
			return 0, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		valueOffset := byteOrder.Uint32(entry[8:12])

		switch tag {
		case 282: // XResolution
			if fieldType == 5 {
				xRes = readTIFFRational(r, int64(valueOffset), byteOrder)
			}
		case 283: // YResolution
			if fieldType == 5 {
				yRes = readTIFFRational(r, int64(valueOffset), byteOrder)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 {
				resUnit = byteOrder.Uint16(entry[8:10])
			}
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}
	if resUnit == 3 {
		dpi *= 2.54
	}
	return dpi, nil
}

// readTIFFRational reads a RATIONAL at offset and restores the read position.
func readTIFFRational(r io.ReadSeeker, offset int64, byteOrder binary.ByteOrder) float64 {
	current, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0
	}
	defer r.Seek(current, io.SeekStart)

	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0
	}
	var num, denom uint32
	if binary.Read(r, byteOrder, &num) != nil || binary.Read(r, byteOrder, &denom) != nil {
		return 0
	}
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// SupportedFormats returns the list of supported image extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg", ".bmp"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
