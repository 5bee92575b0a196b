package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrCancelled is returned by a Destination when the user declines to choose
// where to save.
var ErrCancelled = errors.New("export cancelled")

// Destination opens the output for an export. name is the suggested file
// name and mime the media type of the content. Implementations may block,
// for example on a save dialog, and return ErrCancelled.
type Destination interface {
	Create(ctx context.Context, name, mime string) (io.WriteCloser, error)
}

// DestinationFunc adapts a function to Destination.
type DestinationFunc func(ctx context.Context, name, mime string) (io.WriteCloser, error)

// Create calls f.
func (f DestinationFunc) Create(ctx context.Context, name, mime string) (io.WriteCloser, error) {
	return f(ctx, name, mime)
}

// FileDestination writes to a path. If the path is an existing directory
// the suggested name is created inside it.
type FileDestination struct {
	Path string
}

// Create opens the target file for writing.
func (d FileDestination) Create(ctx context.Context, name, _ string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := d.Path
	if path == "" {
		path = name
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, name)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}
