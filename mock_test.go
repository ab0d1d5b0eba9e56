package gfx

import (
	"fmt"

	"github.com/gogpu/gfx/arena"
)

// mockBackend is a hand-rolled counting backend for wrapper tests. It
// tracks create/delete balances per resource kind and appends every
// stateful call to ops so tests can assert ordering.
type mockBackend struct {
	buffers  arena.Arena[struct{}]
	textures arena.Arena[struct{}]
	shaders  arena.Arena[struct{}]
	meshes   arena.Arena[struct{}]
	targets  arena.Arena[struct{}]

	ops []string

	bufferCreates, bufferDeletes   int
	textureCreates, textureDeletes int
	shaderCreates, shaderDeletes   int
	meshCreates, meshDeletes       int
	targetCreates, targetDeletes   int
	locationLookups                int

	// uniforms, when non-nil, is the complete set of resolvable uniform
	// names. When nil every name resolves, locations assigned lazily.
	uniforms map[string]int
	nextLoc  int

	// failDeletes makes every *Delete fail after still removing the
	// resource, for exercising release logging.
	failDeletes bool

	closed bool
}

func newMockBackend() *mockBackend {
	return &mockBackend{}
}

func (m *mockBackend) record(format string, args ...any) {
	m.ops = append(m.ops, fmt.Sprintf(format, args...))
}

func (m *mockBackend) deleteErr(kind string) error {
	if m.failDeletes {
		return fmt.Errorf("mock: %s delete failed", kind)
	}
	return nil
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Close() error {
	m.closed = true
	return nil
}

func (m *mockBackend) BeginFrame() {}
func (m *mockBackend) EndFrame()   {}

func (m *mockBackend) ViewportSize() (int32, int32) { return 1, 1 }
func (m *mockBackend) SetViewportSize(width, height int32) {
	m.record("viewport %dx%d", width, height)
}

func (m *mockBackend) ClearColorBuffer(color Color)   { m.record("clear_color") }
func (m *mockBackend) ClearDepthBuffer(depth float32) { m.record("clear_depth") }

func (m *mockBackend) SetBlendState(state BlendState)  { m.record("blend %v", state.Enabled) }
func (m *mockBackend) SetCullingMode(mode CullingMode) { m.record("cull %v", mode) }
func (m *mockBackend) SetScissorMode(mode ScissorMode) { m.record("scissor %v", mode.Enabled) }

func (m *mockBackend) BufferCreate(kind BufferKind, usage BufferUsage) (BufferID, error) {
	m.bufferCreates++
	return BufferIDFrom(m.buffers.Insert(struct{}{})), nil
}

func (m *mockBackend) BufferRead(id BufferID, dst []byte, offset int) error {
	if !m.buffers.Contains(id.Index()) {
		return InvalidBufferError(id)
	}
	return nil
}

func (m *mockBackend) BufferWrite(id BufferID, data []byte) error {
	if data == nil {
		return ErrNilData
	}
	if !m.buffers.Contains(id.Index()) {
		return InvalidBufferError(id)
	}
	m.record("buffer_write %d", len(data))
	return nil
}

func (m *mockBackend) BufferDelete(id BufferID) error {
	if _, ok := m.buffers.Remove(id.Index()); !ok {
		return InvalidBufferError(id)
	}
	m.bufferDeletes++
	return m.deleteErr("buffer")
}

func (m *mockBackend) TextureCreate(sampler TextureSampler) (TextureID, error) {
	m.textureCreates++
	return TextureIDFrom(m.textures.Insert(struct{}{})), nil
}

func (m *mockBackend) TextureSetOptions(id TextureID, sampler TextureSampler) error {
	if !m.textures.Contains(id.Index()) {
		return InvalidTextureError(id)
	}
	return nil
}

func (m *mockBackend) TextureInitialize(id TextureID, width, height int32, format TextureFormat) error {
	if !m.textures.Contains(id.Index()) {
		return InvalidTextureError(id)
	}
	return nil
}

func (m *mockBackend) TextureRead(id TextureID, dst []byte) error {
	if !m.textures.Contains(id.Index()) {
		return InvalidTextureError(id)
	}
	return nil
}

func (m *mockBackend) TextureWrite(id TextureID, width, height int32, format TextureFormat, pixels []byte) error {
	if pixels == nil {
		return ErrNilData
	}
	if !m.textures.Contains(id.Index()) {
		return InvalidTextureError(id)
	}
	return nil
}

func (m *mockBackend) TextureWriteSub(id TextureID, region Rect, format TextureFormat, pixels []byte) error {
	if !m.textures.Contains(id.Index()) {
		return InvalidTextureError(id)
	}
	return nil
}

func (m *mockBackend) TextureDelete(id TextureID) error {
	if _, ok := m.textures.Remove(id.Index()); !ok {
		return InvalidTextureError(id)
	}
	m.textureDeletes++
	return m.deleteErr("texture")
}

func (m *mockBackend) ShaderCreate() (ShaderID, error) {
	m.shaderCreates++
	return ShaderIDFrom(m.shaders.Insert(struct{}{})), nil
}

func (m *mockBackend) ShaderLink(id ShaderID, kernels []ShaderKernel) error {
	if !m.shaders.Contains(id.Index()) {
		return InvalidShaderError(id)
	}
	return nil
}

func (m *mockBackend) ShaderUniformLocation(id ShaderID, name string) (int, error) {
	if !m.shaders.Contains(id.Index()) {
		return -1, InvalidShaderError(id)
	}
	m.locationLookups++
	if m.uniforms != nil {
		loc, ok := m.uniforms[name]
		if !ok {
			return -1, InvalidUniformError(name)
		}
		return loc, nil
	}
	loc := m.nextLoc
	m.nextLoc++
	return loc, nil
}

func (m *mockBackend) ShaderSetUniform(id ShaderID, location int, value Uniform) error {
	if !m.shaders.Contains(id.Index()) {
		return InvalidShaderError(id)
	}
	m.record("uniform %d", location)
	return nil
}

func (m *mockBackend) ShaderActivate(id ShaderID) error {
	if !m.shaders.Contains(id.Index()) {
		return InvalidShaderError(id)
	}
	m.record("activate_shader")
	return nil
}

func (m *mockBackend) ShaderDispatchCompute(id ShaderID, x, y, z uint32) error {
	if !m.shaders.Contains(id.Index()) {
		return InvalidShaderError(id)
	}
	m.record("dispatch %d,%d,%d", x, y, z)
	return nil
}

func (m *mockBackend) ShaderMemoryBarrier(barrier MemoryBarrier) error {
	m.record("barrier")
	return nil
}

func (m *mockBackend) ShaderDelete(id ShaderID) error {
	if _, ok := m.shaders.Remove(id.Index()); !ok {
		return InvalidShaderError(id)
	}
	m.shaderDeletes++
	return m.deleteErr("shader")
}

func (m *mockBackend) MeshCreate(vertices, indices BufferID, descriptors []VertexDescriptor) (MeshID, error) {
	if !m.buffers.Contains(vertices.Index()) {
		return NoMesh, InvalidBufferError(vertices)
	}
	if !indices.IsNone() && !m.buffers.Contains(indices.Index()) {
		return NoMesh, InvalidBufferError(indices)
	}
	m.meshCreates++
	return MeshIDFrom(m.meshes.Insert(struct{}{})), nil
}

func (m *mockBackend) MeshDraw(id MeshID, topology PrimitiveTopology, vertexCount, indexCount uint32) error {
	if !m.meshes.Contains(id.Index()) {
		return InvalidMeshError(id)
	}
	m.record("draw %d/%d", vertexCount, indexCount)
	return nil
}

func (m *mockBackend) MeshDelete(id MeshID) error {
	if _, ok := m.meshes.Remove(id.Index()); !ok {
		return InvalidMeshError(id)
	}
	m.meshDeletes++
	return m.deleteErr("mesh")
}

func (m *mockBackend) TargetCreate(width, height int32, colorAttachment, depthAttachment TextureID) (TargetID, error) {
	if !m.textures.Contains(colorAttachment.Index()) {
		return NoTarget, InvalidTextureError(colorAttachment)
	}
	if !depthAttachment.IsNone() && !m.textures.Contains(depthAttachment.Index()) {
		return NoTarget, InvalidTextureError(depthAttachment)
	}
	m.targetCreates++
	return TargetIDFrom(m.targets.Insert(struct{}{})), nil
}

func (m *mockBackend) TargetActivate(id TargetID) error {
	if !m.targets.Contains(id.Index()) {
		return InvalidTargetError(id)
	}
	m.record("activate_target")
	return nil
}

func (m *mockBackend) TargetActivateDisplay() {
	m.record("activate_display")
}

func (m *mockBackend) TargetBlit(from, to TargetID, filter TextureFilter) error {
	if !m.targets.Contains(from.Index()) {
		return InvalidTargetError(from)
	}
	if !m.targets.Contains(to.Index()) {
		return InvalidTargetError(to)
	}
	m.record("blit")
	return nil
}

func (m *mockBackend) TargetBlitToDisplay(id TargetID, filter TextureFilter) error {
	if !m.targets.Contains(id.Index()) {
		return InvalidTargetError(id)
	}
	m.record("blit_display")
	return nil
}

func (m *mockBackend) TargetDelete(id TargetID) error {
	if _, ok := m.targets.Remove(id.Index()); !ok {
		return InvalidTargetError(id)
	}
	m.targetDeletes++
	return m.deleteErr("target")
}

var _ Backend = (*mockBackend)(nil)
