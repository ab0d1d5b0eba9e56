package gfx

import (
	"errors"
	"fmt"
)

// Sentinel errors returned across the Backend interface, one set per
// resource kind. Backends wrap them with handle context via the helper
// constructors below; callers match with errors.Is.
var (
	// ErrInvalidBuffer is returned when a buffer handle does not resolve
	// to a live buffer (never created, already deleted, or stale).
	ErrInvalidBuffer = errors.New("gfx: invalid buffer id")

	// ErrBufferTooSmall is returned when a read does not fit the buffer.
	ErrBufferTooSmall = errors.New("gfx: buffer too small")

	// ErrNilData is returned when a write is given no data.
	ErrNilData = errors.New("gfx: nil data")

	// ErrInvalidTexture is returned when a texture handle does not
	// resolve to a live texture.
	ErrInvalidTexture = errors.New("gfx: invalid texture id")

	// ErrInvalidShader is returned when a shader handle does not resolve
	// to a live shader program.
	ErrInvalidShader = errors.New("gfx: invalid shader id")

	// ErrShaderCompile is returned when shader kernel compilation or
	// linking fails. The wrapped error carries the compiler message.
	ErrShaderCompile = errors.New("gfx: shader compile failed")

	// ErrInvalidUniform is returned when a uniform name has no location
	// in the target shader program.
	ErrInvalidUniform = errors.New("gfx: invalid uniform")

	// ErrInvalidMesh is returned when a mesh handle does not resolve to a
	// live mesh.
	ErrInvalidMesh = errors.New("gfx: invalid mesh id")

	// ErrInvalidTarget is returned when a render target handle does not
	// resolve to a live target.
	ErrInvalidTarget = errors.New("gfx: invalid target id")

	// ErrNoBackend is returned by Open when no backend is registered
	// under the requested name.
	ErrNoBackend = errors.New("gfx: no such backend")
)

// InvalidBufferError wraps ErrInvalidBuffer with the offending handle.
func InvalidBufferError(id BufferID) error {
	return fmt.Errorf("%w: %v", ErrInvalidBuffer, id)
}

// InvalidTextureError wraps ErrInvalidTexture with the offending handle.
func InvalidTextureError(id TextureID) error {
	return fmt.Errorf("%w: %v", ErrInvalidTexture, id)
}

// InvalidShaderError wraps ErrInvalidShader with the offending handle.
func InvalidShaderError(id ShaderID) error {
	return fmt.Errorf("%w: %v", ErrInvalidShader, id)
}

// InvalidMeshError wraps ErrInvalidMesh with the offending handle.
func InvalidMeshError(id MeshID) error {
	return fmt.Errorf("%w: %v", ErrInvalidMesh, id)
}

// InvalidTargetError wraps ErrInvalidTarget with the offending handle.
func InvalidTargetError(id TargetID) error {
	return fmt.Errorf("%w: %v", ErrInvalidTarget, id)
}

// ShaderCompileError wraps ErrShaderCompile with the compiler diagnostic so
// creation failures can be diagnosed without backend-specific debugging.
func ShaderCompileError(message string) error {
	return fmt.Errorf("%w: %s", ErrShaderCompile, message)
}

// InvalidUniformError wraps ErrInvalidUniform with the uniform name.
func InvalidUniformError(name string) error {
	return fmt.Errorf("%w: %q", ErrInvalidUniform, name)
}
