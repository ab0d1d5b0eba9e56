package gfx

import "sync/atomic"

// Buffer is a reference-counted wrapper around a graphics buffer.
// Construction creates the GPU resource; Clone shares it; the final
// Release deletes it exactly once. Every Clone must be Released.
//
// Wrappers are not safe for concurrent use; share across goroutines via
// the render queue, not via shared wrapper values.
type Buffer struct {
	shared *bufferShared
}

type bufferShared struct {
	backend Backend
	id      BufferID
	kind    BufferKind
	usage   BufferUsage
	refs    atomic.Int32
}

// NewBuffer creates an empty buffer on the backend.
func NewBuffer(b Backend, kind BufferKind, usage BufferUsage) (*Buffer, error) {
	id, err := b.BufferCreate(kind, usage)
	if err != nil {
		return nil, err
	}
	s := &bufferShared{backend: b, id: id, kind: kind, usage: usage}
	s.refs.Store(1)
	return &Buffer{shared: s}, nil
}

// ID returns the underlying handle. The handle is non-owning; it stays
// valid only while at least one clone is alive.
func (b *Buffer) ID() BufferID { return b.shared.id }

// Kind returns the buffer kind.
func (b *Buffer) Kind() BufferKind { return b.shared.kind }

// Usage returns the usage hint the buffer was created with.
func (b *Buffer) Usage() BufferUsage { return b.shared.usage }

// Read copies len(dst) bytes starting at offset into dst.
func (b *Buffer) Read(dst []byte, offset int) error {
	return b.shared.backend.BufferRead(b.shared.id, dst, offset)
}

// Write replaces the buffer's contents.
func (b *Buffer) Write(data []byte) error {
	return b.shared.backend.BufferWrite(b.shared.id, data)
}

// WriteFloat32s packs v little-endian and writes it.
func (b *Buffer) WriteFloat32s(v []float32) error {
	return b.Write(Float32Bytes(v))
}

// WriteUint32s packs v little-endian and writes it.
func (b *Buffer) WriteUint32s(v []uint32) error {
	return b.Write(Uint32Bytes(v))
}

// Clone returns a new reference to the same buffer. No GPU resource is
// created.
func (b *Buffer) Clone() *Buffer {
	b.shared.refs.Add(1)
	return &Buffer{shared: b.shared}
}

// Release drops this reference. The last release deletes the buffer;
// delete failures are logged, never returned, so release is safe on every
// exit path.
func (b *Buffer) Release() {
	if b.shared.refs.Add(-1) != 0 {
		return
	}
	if err := b.shared.backend.BufferDelete(b.shared.id); err != nil {
		Logger().Warn("gfx: buffer release failed", "buffer", b.shared.id, "error", err)
	}
}
