package gfx

import "fmt"

// Device is the facade over one active backend. It embeds the Backend
// interface, so every backend operation is available directly on the
// device, and a *Device can be passed anywhere a Backend is accepted.
//
// Devices are explicit values. There is no package-level current device,
// so independent devices (one per test, one per window) can coexist.
type Device struct {
	Backend
}

// DeviceOption configures a Device during Open.
type DeviceOption func(*deviceOptions)

type deviceOptions struct {
	backend Backend
}

// WithBackend injects an already-constructed backend, bypassing the
// registry lookup. Useful for tests with mock backends.
func WithBackend(b Backend) DeviceOption {
	return func(o *deviceOptions) {
		o.backend = b
	}
}

// Open creates a device over the named backend. An empty name selects the
// best available backend by registry priority.
//
// Backend packages register themselves in init(); import them for side
// effects:
//
//	import (
//	    _ "github.com/gogpu/gfx/headless"
//	    _ "github.com/gogpu/gfx/wgpu"
//	)
func Open(name string, opts ...DeviceOption) (*Device, error) {
	var o deviceOptions
	for _, opt := range opts {
		opt(&o)
	}

	b := o.backend
	if b == nil {
		if name == "" {
			b = Default()
		} else {
			b = Get(name)
		}
	}
	if b == nil {
		if name == "" {
			return nil, fmt.Errorf("%w: no backend available", ErrNoBackend)
		}
		return nil, fmt.Errorf("%w: %q", ErrNoBackend, name)
	}

	Logger().Info("gfx: backend selected", "backend", b.Name())
	return &Device{Backend: b}, nil
}

// NewDevice wraps an existing backend in a Device.
func NewDevice(b Backend) *Device {
	return &Device{Backend: b}
}
