package image

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.SetGray(1, 1, color.Gray{Y: 200})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	layer, err := Decode(bytes.NewReader(pngBytes(t, 40, 30)), "ceph.png")
	require.NoError(t, err)
	assert.True(t, layer.Ready())
	assert.Equal(t, "png", layer.Format)
	assert.Equal(t, 40, layer.Width())
	assert.Equal(t, 30, layer.Height())
	assert.Zero(t, layer.DPI)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")), "x.png")
	assert.Error(t, err)
}

func TestLoadAsync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ceph.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 64, 48), 0o644))

	layer := LoadAsync(path)
	require.NoError(t, layer.Wait(context.Background()))
	assert.Equal(t, 64, layer.Width())
	assert.Equal(t, "ceph.png", layer.Name())
}

func TestLoadAsyncMissingFile(t *testing.T) {
	layer := LoadAsync(filepath.Join(t.TempDir(), "missing.png"))
	err := layer.Wait(context.Background())
	assert.ErrorContains(t, err, "failed to open image")
	assert.Zero(t, layer.Width())
}

func TestWaitCancelled(t *testing.T) {
	pending := &Layer{ready: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, pending.Wait(ctx), context.Canceled)
	assert.False(t, pending.Ready())
	assert.Zero(t, pending.Width())
}

func TestWaitNilLayer(t *testing.T) {
	var l *Layer
	assert.ErrorIs(t, l.Wait(context.Background()), ErrNotLoaded)
	assert.False(t, l.Ready())
}

func TestExtractTIFFDPI(t *testing.T) {
	// Little-endian TIFF with one IFD holding XResolution 300/1 and
	// ResolutionUnit 2 (inches).
	var buf bytes.Buffer
	le := func(v ...any) {
		for _, x := range v {
			switch n := x.(type) {
			case uint16:
				buf.Write([]byte{byte(n), byte(n >> 8)})
			case uint32:
				buf.Write([]byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)})
			}
		}
	}
	buf.WriteString("II")
	le(uint16(42), uint32(8))
	le(uint16(2))
	le(uint16(282), uint16(5), uint32(1), uint32(38))
	le(uint16(296), uint16(3), uint32(1), uint32(2))
	le(uint32(0))
	le(uint32(300), uint32(1))

	dpi, err := extractTIFFDPI(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.InDelta(t, 300, dpi, 1e-9)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("scan.TIF"))
	assert.True(t, IsSupportedFormat("/tmp/ceph.jpeg"))
	assert.True(t, IsSupportedFormat("xray.bmp"))
	assert.False(t, IsSupportedFormat("notes.pdf"))
}
