// Package gfx is a cross-backend GPU resource abstraction layer.
//
// It defines opaque, generation-checked handles for GPU objects (buffers,
// textures, shaders, meshes, render targets), a single Backend interface
// that concrete graphics backends implement, reference-counted resource
// wrappers that tie GPU-object lifetime to ownership, and (in the queue
// sub-package) a thread-safe deferred command queue that decouples command
// recording from execution.
//
// # Backends
//
// Backends register themselves in init() and are selected by name:
//
//	import (
//	    "github.com/gogpu/gfx"
//	    _ "github.com/gogpu/gfx/headless" // in-memory backend, no GPU
//	    _ "github.com/gogpu/gfx/wgpu"     // native backend via gogpu/wgpu
//	)
//
//	dev, err := gfx.Open("") // best available backend
//	if err != nil { ... }
//	defer dev.Close()
//
// Exactly one backend is active per Device. The Device is an explicit value
// passed through the call graph; there is no package-level current device,
// so independent devices (e.g. per test) can coexist.
//
// # Handles and wrappers
//
// Backend methods deal in plain handles (BufferID, TextureID, ...). Handles
// are non-owning: holding one does not keep the resource alive, and any
// operation on a deleted or never-created handle fails with the matching
// ErrInvalid* sentinel rather than corrupting state.
//
// The wrapper types (Buffer, Texture, ShaderProgram, Mesh, Material,
// RenderTarget) add ownership on top: construction creates the resource,
// Clone shares it, and the final Release deletes it exactly once.
package gfx
