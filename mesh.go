package gfx

import "sync/atomic"

// Mesh is a reference-counted wrapper around a mesh and the vertex and
// index buffers it owns.
type Mesh struct {
	shared *meshShared
}

type meshShared struct {
	backend     Backend
	id          MeshID
	vertices    *Buffer
	indices     *Buffer
	descriptors []VertexDescriptor
	vertexCount uint32
	indexCount  uint32
	refs        atomic.Int32
}

// NewMesh creates a mesh with fresh vertex and index buffers laid out per
// the interleaved descriptors.
func NewMesh(b Backend, descriptors []VertexDescriptor, usage BufferUsage) (*Mesh, error) {
	vertices, err := NewBuffer(b, ElementBuffer, usage)
	if err != nil {
		return nil, err
	}
	indices, err := NewBuffer(b, IndexBuffer, usage)
	if err != nil {
		vertices.Release()
		return nil, err
	}
	id, err := b.MeshCreate(vertices.ID(), indices.ID(), descriptors)
	if err != nil {
		indices.Release()
		vertices.Release()
		return nil, err
	}
	s := &meshShared{
		backend:     b,
		id:          id,
		vertices:    vertices,
		indices:     indices,
		descriptors: append([]VertexDescriptor(nil), descriptors...),
	}
	s.refs.Store(1)
	return &Mesh{shared: s}, nil
}

// ID returns the underlying handle.
func (m *Mesh) ID() MeshID { return m.shared.id }

// Vertices returns the vertex buffer. The mesh retains ownership; clone it
// to keep it beyond the mesh's lifetime.
func (m *Mesh) Vertices() *Buffer { return m.shared.vertices }

// Indices returns the index buffer.
func (m *Mesh) Indices() *Buffer { return m.shared.indices }

// Descriptors returns the interleaved vertex layout.
func (m *Mesh) Descriptors() []VertexDescriptor { return m.shared.descriptors }

// Counts returns the current vertex and index counts.
func (m *Mesh) Counts() (vertexCount, indexCount uint32) {
	return m.shared.vertexCount, m.shared.indexCount
}

// WriteVertices uploads interleaved vertex data. The vertex count is
// derived from the layout's stride.
func (m *Mesh) WriteVertices(data []byte) error {
	if err := m.shared.vertices.Write(data); err != nil {
		return err
	}
	if stride := VertexStride(m.shared.descriptors); stride > 0 {
		m.shared.vertexCount = uint32(len(data) / stride)
	}
	return nil
}

// WriteIndices uploads triangle indices.
func (m *Mesh) WriteIndices(indices []uint32) error {
	if err := m.shared.indices.WriteUint32s(indices); err != nil {
		return err
	}
	m.shared.indexCount = uint32(len(indices))
	return nil
}

// Draw draws the mesh with the active shader and pipeline state, indexed
// when indices have been written and non-indexed otherwise.
func (m *Mesh) Draw(topology PrimitiveTopology) error {
	return m.shared.backend.MeshDraw(m.shared.id, topology, m.shared.vertexCount, m.shared.indexCount)
}

// Clone returns a new reference to the same mesh.
func (m *Mesh) Clone() *Mesh {
	m.shared.refs.Add(1)
	return &Mesh{shared: m.shared}
}

// Release drops this reference. The last release deletes the mesh and
// releases its buffers; delete failures are logged, never returned.
func (m *Mesh) Release() {
	if m.shared.refs.Add(-1) != 0 {
		return
	}
	if err := m.shared.backend.MeshDelete(m.shared.id); err != nil {
		Logger().Warn("gfx: mesh release failed", "mesh", m.shared.id, "error", err)
	}
	m.shared.indices.Release()
	m.shared.vertices.Release()
}
