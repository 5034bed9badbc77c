// Package capture runs augmentation capture sessions against a camera.
//
// A session owns the camera for its whole run: it acquires it through a
// Device, reads one frame per iteration, turns it into one augmented sample
// on disk, and releases the camera on every exit path.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"

	imgio "github.com/ironsheep/deepsight-tools/internal/imaging"
)

var (
	// ErrNoFrames is returned when a frame source has nothing to replay.
	ErrNoFrames = errors.New("capture: no frames available")

	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("capture: camera closed")
)

// Camera produces raw frames on demand.
type Camera interface {
	// Read returns the next frame. A failed read is not fatal; the caller
	// may try again.
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// Opener opens a Camera.
type Opener interface {
	Open(ctx context.Context) (Camera, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context) (Camera, error)

// Open calls f(ctx).
func (f OpenerFunc) Open(ctx context.Context) (Camera, error) { return f(ctx) }

// DirCamera replays the image files of a directory as camera frames, in
// name order, wrapping around at the end.
type DirCamera struct {
	mu     sync.Mutex
	paths  []string
	next   int
	closed bool
}

// NewDirCamera lists the images in dir. It returns ErrNoFrames when there
// are none.
func NewDirCamera(dir string) (*DirCamera, error) {
	paths, err := imgio.ListImages(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}
	return &DirCamera{paths: paths}, nil
}

// Read decodes the next file.
func (c *DirCamera) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	path := c.paths[c.next%len(c.paths)]
	c.next++
	c.mu.Unlock()

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
	}
	return img, nil
}

// Close stops the camera. Further reads fail with ErrClosed.
func (c *DirCamera) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// DirOpener opens a DirCamera over Dir.
type DirOpener struct {
	Dir string
}

// Open implements Opener.
func (o DirOpener) Open(ctx context.Context) (Camera, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewDirCamera(o.Dir)
}
