package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrDeviceBusy is returned when a camera is requested while another session
// holds it.
var ErrDeviceBusy = errors.New("capture: device busy")

// Device grants exclusive access to one camera. At most one Camera obtained
// from Acquire is open at a time; closing it releases the device.
type Device struct {
	opener Opener
	busy   atomic.Bool
}

// NewDevice returns a Device that opens cameras with o.
func NewDevice(o Opener) *Device {
	return &Device{opener: o}
}

// Busy reports whether a session currently holds the camera.
func (d *Device) Busy() bool { return d.busy.Load() }

// Acquire opens the camera for exclusive use. It fails with ErrDeviceBusy
// if the camera is already held.
func (d *Device) Acquire(ctx context.Context) (Camera, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return nil, ErrDeviceBusy
	}
	cam, err := d.opener.Open(ctx)
	if err != nil {
		d.busy.Store(false)
		return nil, fmt.Errorf("failed to open camera: %w", err)
	}
	return &heldCamera{Camera: cam, release: func() { d.busy.Store(false) }}, nil
}

// heldCamera releases its Device when closed.
type heldCamera struct {
	Camera
	once    sync.Once
	release func()
	err     error
}

func (h *heldCamera) Close() error {
	h.once.Do(func() {
		h.err = h.Camera.Close()
		h.release()
	})
	return h.err
}
