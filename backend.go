package gfx

// Backend is the capability surface a concrete graphics backend implements.
// All resources are addressed by plain handles; a handle that was never
// created, or was already deleted, makes the operation fail with the
// matching ErrInvalid* sentinel. Backends never panic on bad handles.
//
// A backend instance is logically single-writer: one render thread issues
// all direct calls. Multi-producer recording goes through queue.RenderQueue,
// whose flush runs on the render thread.
//
// Contract, uniform across kinds:
//
//  1. Every *Create returns a handle unique among the currently live
//     resources of that kind. Handle values may be reused after delete,
//     always with a fresh generation.
//  2. Operations on stale or unknown handles return a wrapped ErrInvalid*
//     carrying the handle value.
//  3. *Delete is the only operation that invalidates a handle. Deleting
//     twice fails with ErrInvalid* the second time.
type Backend interface {
	// Name returns the backend's registry name.
	Name() string

	// Close releases everything the backend owns. The backend must not be
	// used afterwards.
	Close() error

	// BeginFrame marks the start of a frame. A no-op on some backends, a
	// resource sync point on others.
	BeginFrame()

	// EndFrame marks the end of a frame and presents or submits pending
	// work, depending on the backend.
	EndFrame()

	// ViewportSize returns the current viewport dimensions in pixels.
	ViewportSize() (width, height int32)

	// SetViewportSize resizes the viewport.
	SetViewportSize(width, height int32)

	// ClearColorBuffer clears the color attachment of the active target.
	ClearColorBuffer(color Color)

	// ClearDepthBuffer clears the depth attachment of the active target.
	ClearDepthBuffer(depth float32)

	// SetBlendState configures fixed-function blending for subsequent draws.
	SetBlendState(state BlendState)

	// SetCullingMode configures face culling for subsequent draws.
	SetCullingMode(mode CullingMode)

	// SetScissorMode configures scissor testing for subsequent draws.
	SetScissorMode(mode ScissorMode)

	// BufferCreate allocates an empty buffer.
	BufferCreate(kind BufferKind, usage BufferUsage) (BufferID, error)

	// BufferRead copies len(dst) bytes starting at offset into dst.
	// Fails with ErrBufferTooSmall if the range exceeds the buffer.
	BufferRead(id BufferID, dst []byte, offset int) error

	// BufferWrite replaces the buffer's contents with data, resizing as
	// needed. Fails with ErrNilData if data is nil.
	BufferWrite(id BufferID, data []byte) error

	// BufferDelete destroys the buffer.
	BufferDelete(id BufferID) error

	// TextureCreate allocates a texture with the given sampler options and
	// no storage. TextureInitialize or TextureWrite allocate the pixels.
	TextureCreate(sampler TextureSampler) (TextureID, error)

	// TextureSetOptions replaces the texture's sampler options.
	TextureSetOptions(id TextureID, sampler TextureSampler) error

	// TextureInitialize allocates zeroed storage of the given dimensions.
	TextureInitialize(id TextureID, width, height int32, format TextureFormat) error

	// TextureRead copies the full pixel contents into dst. Fails with
	// ErrBufferTooSmall if dst cannot hold them.
	TextureRead(id TextureID, dst []byte) error

	// TextureWrite replaces the texture's storage and contents.
	TextureWrite(id TextureID, width, height int32, format TextureFormat, pixels []byte) error

	// TextureWriteSub overwrites a sub-region of existing storage.
	TextureWriteSub(id TextureID, region Rect, format TextureFormat, pixels []byte) error

	// TextureDelete destroys the texture.
	TextureDelete(id TextureID) error

	// ShaderCreate allocates an empty shader program.
	ShaderCreate() (ShaderID, error)

	// ShaderLink compiles the kernels and links them into the program,
	// replacing any previous kernels. Compile or link failures surface as
	// ErrShaderCompile wrapping the compiler message.
	ShaderLink(id ShaderID, kernels []ShaderKernel) error

	// ShaderUniformLocation resolves a uniform name to its location in the
	// linked program. Unknown names fail with ErrInvalidUniform.
	ShaderUniformLocation(id ShaderID, name string) (int, error)

	// ShaderSetUniform writes a uniform value at the given location.
	ShaderSetUniform(id ShaderID, location int, value Uniform) error

	// ShaderActivate makes the program current for subsequent draws and
	// dispatches.
	ShaderActivate(id ShaderID) error

	// ShaderDispatchCompute runs the program's compute kernel over the
	// given workgroup counts.
	ShaderDispatchCompute(id ShaderID, x, y, z uint32) error

	// ShaderMemoryBarrier orders GPU memory accesses between dispatches
	// and subsequent operations.
	ShaderMemoryBarrier(barrier MemoryBarrier) error

	// ShaderDelete destroys the shader program.
	ShaderDelete(id ShaderID) error

	// MeshCreate builds a mesh from existing vertex and index buffers and
	// an interleaved vertex layout. The mesh does not take ownership of
	// the buffers.
	MeshCreate(vertices, indices BufferID, descriptors []VertexDescriptor) (MeshID, error)

	// MeshDraw draws the mesh with the active shader and pipeline state.
	// indexCount of zero draws non-indexed from the vertex buffer.
	MeshDraw(id MeshID, topology PrimitiveTopology, vertexCount, indexCount uint32) error

	// MeshDelete destroys the mesh. The underlying buffers survive.
	MeshDelete(id MeshID) error

	// TargetCreate builds a render target over existing attachment
	// textures. depthAttachment may be NoTexture for a color-only target.
	TargetCreate(width, height int32, colorAttachment, depthAttachment TextureID) (TargetID, error)

	// TargetActivate routes subsequent draws and clears to the target.
	TargetActivate(id TargetID) error

	// TargetActivateDisplay routes subsequent draws and clears back to the
	// default framebuffer.
	TargetActivateDisplay()

	// TargetBlit copies the color contents of one target into another,
	// scaling with the given filter.
	TargetBlit(from, to TargetID, filter TextureFilter) error

	// TargetBlitToDisplay copies the target's color contents to the
	// default framebuffer.
	TargetBlitToDisplay(id TargetID, filter TextureFilter) error

	// TargetDelete destroys the target. Attachment textures survive.
	TargetDelete(id TargetID) error
}
