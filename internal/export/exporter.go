package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gogpu/gg"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"dentalceph/internal/annotation"
	imglayer "dentalceph/internal/image"
	"dentalceph/internal/render"
)

const (
	DefaultBaseName    = "dentalceph"
	DefaultJPEGQuality = 92

	// screenDPI sizes a PDF page when the image carries no resolution.
	screenDPI     = 96.0
	pointsPerInch = 72.0
)

var (
	// ErrNoImage is returned when there is no image to export.
	ErrNoImage = errors.New("no image loaded")
	// ErrNoFormat is returned for an empty format string.
	ErrNoFormat = errors.New("no export format")
)

// Exporter renders the export image and writes it out. It never modifies
// annotation state.
type Exporter struct {
	renderer    *render.Renderer
	baseName    string
	jpegQuality int
	logger      *slog.Logger
	metrics     *metrics
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithBaseName sets the suggested file name without extension.
func WithBaseName(name string) Option {
	return func(e *Exporter) { e.baseName = name }
}

// WithJPEGQuality sets the JPEG quality, 1-100.
func WithJPEGQuality(q int) Option {
	return func(e *Exporter) { e.jpegQuality = q }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// NewExporter creates an exporter drawing with r.
func NewExporter(r *render.Renderer, opts ...Option) (*Exporter, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	e := &Exporter{
		renderer:    r,
		baseName:    DefaultBaseName,
		jpegQuality: DefaultJPEGQuality,
		logger:      slog.Default(),
		metrics:     m,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Export waits for layer to finish decoding, composes snap over it at
// natural size, encodes it as format and writes it to dst. It returns the
// file name that was requested from dst.
//
// ErrNoImage, ErrNoFormat and ErrCancelled (or a context error) mean nothing
// was written.
func (e *Exporter) Export(ctx context.Context, layer *imglayer.Layer, snap annotation.Snapshot, format string, dst Destination) (string, error) {
	name, err := e.export(ctx, layer, snap, format, dst)
	if err != nil {
		reason := abortReason(err)
		e.metrics.abort(reason)
		e.logger.Info("export aborted", "reason", reason, "error", err)
		return "", err
	}
	return name, nil
}

func (e *Exporter) export(ctx context.Context, layer *imglayer.Layer, snap annotation.Snapshot, format string, dst Destination) (string, error) {
	if layer == nil {
		return "", ErrNoImage
	}
	f, ext, ok := ParseFormat(format)
	if !ok {
		return "", ErrNoFormat
	}
	if err := layer.Wait(ctx); err != nil {
		if errors.Is(err, imglayer.ErrNotLoaded) {
			return "", ErrNoImage
		}
		return "", fmt.Errorf("waiting for image: %w", err)
	}

	data, err := e.encode(layer, snap, f)
	if err != nil {
		return "", err
	}

	name := FileName(e.baseName, ext)
	w, err := dst.Create(ctx, name, f.MIME())
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	e.metrics.done(f)
	e.logger.Info("exported", "name", name, "format", f, "bytes", len(data))
	return name, nil
}

// encode renders the export image and encodes it in memory so that nothing
// reaches the destination unless encoding succeeded.
func (e *Exporter) encode(layer *imglayer.Layer, snap annotation.Snapshot, f Format) ([]byte, error) {
	dc, err := e.renderer.Compose(layer.Image, snap)
	if err != nil {
		return nil, fmt.Errorf("failed to compose export: %w", err)
	}
	defer dc.Close()

	var buf bytes.Buffer
	switch f {
	case FormatJPEG:
		err = dc.EncodeJPEG(&buf, e.jpegQuality)
	case FormatPDF:
		err = encodePDF(&buf, dc, layer.DPI)
	default:
		err = dc.EncodePNG(&buf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

// encodePDF embeds the composite as a PNG filling a single page sized to the
// image at dpi (screen resolution if unknown).
func encodePDF(w io.Writer, dc *gg.Context, dpi float64) error {
	var raster bytes.Buffer
	if err := dc.EncodePNG(&raster); err != nil {
		return err
	}
	if dpi <= 0 {
		dpi = screenDPI
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{
		Width:  float64(dc.Width()) * pointsPerInch / dpi,
		Height: float64(dc.Height()) * pointsPerInch / dpi,
	}
	imp.UserDim = true
	imp.Pos = types.Full

	return api.ImportImages(nil, w, []io.Reader{&raster}, imp, model.NewDefaultConfiguration())
}

func abortReason(err error) string {
	switch {
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, ErrNoImage):
		return "no_image"
	case errors.Is(err, ErrNoFormat):
		return "no_format"
	default:
		return "error"
	}
}
