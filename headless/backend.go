// Package headless provides an in-memory backend with no driver I/O.
//
// It implements the full gfx.Backend contract, including generational
// handle validation, so contract and integration tests run without a GPU.
// Resource contents (buffer bytes, texture pixels, uniform values) are
// stored in process memory and can be read back.
//
// Import for side effects to register the backend:
//
//	import _ "github.com/gogpu/gfx/headless"
package headless

import (
	"fmt"
	"sync"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/arena"
)

// Name is the registry name of the headless backend.
const Name = "headless"

func init() {
	gfx.Register(Name, func() gfx.Backend { return New() })
}

type buffer struct {
	kind  gfx.BufferKind
	usage gfx.BufferUsage
	data  []byte
}

type texture struct {
	sampler gfx.TextureSampler
	width   int32
	height  int32
	format  gfx.TextureFormat
	pixels  []byte
}

type shader struct {
	kernels   []gfx.ShaderKernel
	linked    bool
	locations map[string]int
	nextLoc   int
	uniforms  map[int]gfx.Uniform
}

type mesh struct {
	vertices    gfx.BufferID
	indices     gfx.BufferID
	descriptors []gfx.VertexDescriptor
}

type target struct {
	width  int32
	height int32
	color  gfx.TextureID
	depth  gfx.TextureID
}

// Stats counts observable backend activity, for tests and diagnostics.
type Stats struct {
	LiveBuffers  int
	LiveTextures int
	LiveShaders  int
	LiveMeshes   int
	LiveTargets  int
	DrawCalls    int
	Dispatches   int
	Frames       int
}

// Backend is the in-memory backend. The zero value is not usable; call
// New. All methods are safe for concurrent use.
type Backend struct {
	mu sync.RWMutex

	buffers  arena.Arena[*buffer]
	textures arena.Arena[*texture]
	shaders  arena.Arena[*shader]
	meshes   arena.Arena[*mesh]
	targets  arena.Arena[*target]

	viewportW int32
	viewportH int32
	blend     gfx.BlendState
	culling   gfx.CullingMode
	scissor   gfx.ScissorMode

	activeTarget gfx.TargetID
	activeShader gfx.ShaderID

	drawCalls  int
	dispatches int
	frames     int
	closed     bool
}

// New creates a headless backend with a 1x1 viewport.
func New() *Backend {
	return &Backend{viewportW: 1, viewportH: 1}
}

// Name implements gfx.Backend.
func (b *Backend) Name() string { return Name }

// Close drops all live resources.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffers.Clear()
	b.textures.Clear()
	b.shaders.Clear()
	b.meshes.Clear()
	b.targets.Clear()
	b.closed = true
	return nil
}

// Stats returns a snapshot of backend activity.
func (b *Backend) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Stats{
		LiveBuffers:  b.buffers.Len(),
		LiveTextures: b.textures.Len(),
		LiveShaders:  b.shaders.Len(),
		LiveMeshes:   b.meshes.Len(),
		LiveTargets:  b.targets.Len(),
		DrawCalls:    b.drawCalls,
		Dispatches:   b.dispatches,
		Frames:       b.frames,
	}
}

// BeginFrame implements gfx.Backend.
func (b *Backend) BeginFrame() {
	b.mu.Lock()
	b.frames++
	b.mu.Unlock()
}

// EndFrame implements gfx.Backend. A no-op; there is nothing to present.
func (b *Backend) EndFrame() {}

// ViewportSize implements gfx.Backend.
func (b *Backend) ViewportSize() (int32, int32) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.viewportW, b.viewportH
}

// SetViewportSize implements gfx.Backend.
func (b *Backend) SetViewportSize(width, height int32) {
	b.mu.Lock()
	b.viewportW, b.viewportH = width, height
	b.mu.Unlock()
}

// ClearColorBuffer implements gfx.Backend. The active target's pixels, if
// stored, are filled with the color.
func (b *Backend) ClearColorBuffer(color gfx.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.targets.Get(b.activeTarget.Index())
	if !ok {
		return
	}
	tex, ok := b.textures.Get(t.color.Index())
	if !ok || tex.format != gfx.TextureRGBA8 {
		return
	}
	r := clampByte(color.R)
	g := clampByte(color.G)
	bl := clampByte(color.B)
	a := clampByte(color.A)
	for i := 0; i+3 < len(tex.pixels); i += 4 {
		tex.pixels[i+0] = r
		tex.pixels[i+1] = g
		tex.pixels[i+2] = bl
		tex.pixels[i+3] = a
	}
}

// ClearDepthBuffer implements gfx.Backend.
func (b *Backend) ClearDepthBuffer(depth float32) {}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// SetBlendState implements gfx.Backend.
func (b *Backend) SetBlendState(state gfx.BlendState) {
	b.mu.Lock()
	b.blend = state
	b.mu.Unlock()
}

// SetCullingMode implements gfx.Backend.
func (b *Backend) SetCullingMode(mode gfx.CullingMode) {
	b.mu.Lock()
	b.culling = mode
	b.mu.Unlock()
}

// SetScissorMode implements gfx.Backend.
func (b *Backend) SetScissorMode(mode gfx.ScissorMode) {
	b.mu.Lock()
	b.scissor = mode
	b.mu.Unlock()
}

// BufferCreate implements gfx.Backend.
func (b *Backend) BufferCreate(kind gfx.BufferKind, usage gfx.BufferUsage) (gfx.BufferID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.buffers.Insert(&buffer{kind: kind, usage: usage})
	return gfx.BufferIDFrom(idx), nil
}

// BufferRead implements gfx.Backend.
func (b *Backend) BufferRead(id gfx.BufferID, dst []byte, offset int) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	buf, ok := b.buffers.Get(id.Index())
	if !ok {
		return gfx.InvalidBufferError(id)
	}
	if offset < 0 || offset+len(dst) > len(buf.data) {
		return fmt.Errorf("%w: read %d+%d of %d", gfx.ErrBufferTooSmall, offset, len(dst), len(buf.data))
	}
	copy(dst, buf.data[offset:])
	return nil
}

// BufferWrite implements gfx.Backend.
func (b *Backend) BufferWrite(id gfx.BufferID, data []byte) error {
	if data == nil {
		return gfx.ErrNilData
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers.Get(id.Index())
	if !ok {
		return gfx.InvalidBufferError(id)
	}
	buf.data = append(buf.data[:0], data...)
	return nil
}

// BufferDelete implements gfx.Backend.
func (b *Backend) BufferDelete(id gfx.BufferID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.buffers.Remove(id.Index()); !ok {
		return gfx.InvalidBufferError(id)
	}
	return nil
}

// TextureCreate implements gfx.Backend.
func (b *Backend) TextureCreate(sampler gfx.TextureSampler) (gfx.TextureID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.textures.Insert(&texture{sampler: sampler})
	return gfx.TextureIDFrom(idx), nil
}

// TextureSetOptions implements gfx.Backend.
func (b *Backend) TextureSetOptions(id gfx.TextureID, sampler gfx.TextureSampler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	tex, ok := b.textures.Get(id.Index())
	if !ok {
		return gfx.InvalidTextureError(id)
	}
	tex.sampler = sampler
	return nil
}

// TextureInitialize implements gfx.Backend.
func (b *Backend) TextureInitialize(id gfx.TextureID, width, height int32, format gfx.TextureFormat) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	tex, ok := b.textures.Get(id.Index())
	if !ok {
		return gfx.InvalidTextureError(id)
	}
	tex.width, tex.height, tex.format = width, height, format
	tex.pixels = make([]byte, int(width)*int(height)*format.BytesPerPixel())
	return nil
}

// TextureRead implements gfx.Backend.
func (b *Backend) TextureRead(id gfx.TextureID, dst []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	tex, ok := b.textures.Get(id.Index())
	if !ok {
		return gfx.InvalidTextureError(id)
	}
	if len(dst) < len(tex.pixels) {
		return fmt.Errorf("%w: need %d bytes, have %d", gfx.ErrBufferTooSmall, len(tex.pixels), len(dst))
	}
	copy(dst, tex.pixels)
	return nil
}

// TextureWrite implements gfx.Backend.
func (b *Backend) TextureWrite(id gfx.TextureID, width, height int32, format gfx.TextureFormat, pixels []byte) error {
	if pixels == nil {
		return gfx.ErrNilData
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	tex, ok := b.textures.Get(id.Index())
	if !ok {
		return gfx.InvalidTextureError(id)
	}
	tex.width, tex.height, tex.format = width, height, format
	tex.pixels = append(tex.pixels[:0], pixels...)
	return nil
}

// TextureWriteSub implements gfx.Backend.
func (b *Backend) TextureWriteSub(id gfx.TextureID, region gfx.Rect, format gfx.TextureFormat, pixels []byte) error {
	if pixels == nil {
		return gfx.ErrNilData
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	tex, ok := b.textures.Get(id.Index())
	if !ok {
		return gfx.InvalidTextureError(id)
	}
	bpp := tex.format.BytesPerPixel()
	if format != tex.format ||
		region.Left < 0 || region.Bottom < 0 ||
		region.Right() > tex.width || region.Top() > tex.height ||
		len(pixels) < int(region.Width)*int(region.Height)*bpp {
		return fmt.Errorf("%w: sub-region out of bounds", gfx.ErrBufferTooSmall)
	}
	rowBytes := int(region.Width) * bpp
	texStride := int(tex.width) * bpp
	for row := 0; row < int(region.Height); row++ {
		dstOff := (int(region.Bottom)+row)*texStride + int(region.Left)*bpp
		copy(tex.pixels[dstOff:dstOff+rowBytes], pixels[row*rowBytes:])
	}
	return nil
}

// TextureDelete implements gfx.Backend.
func (b *Backend) TextureDelete(id gfx.TextureID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.textures.Remove(id.Index()); !ok {
		return gfx.InvalidTextureError(id)
	}
	return nil
}

// ShaderCreate implements gfx.Backend.
func (b *Backend) ShaderCreate() (gfx.ShaderID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.shaders.Insert(&shader{
		locations: make(map[string]int),
		uniforms:  make(map[int]gfx.Uniform),
	})
	return gfx.ShaderIDFrom(idx), nil
}

// ShaderLink implements gfx.Backend. There is no compiler; any kernel set
// links successfully and resets the uniform table.
func (b *Backend) ShaderLink(id gfx.ShaderID, kernels []gfx.ShaderKernel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sh, ok := b.shaders.Get(id.Index())
	if !ok {
		return gfx.InvalidShaderError(id)
	}
	sh.kernels = append(sh.kernels[:0], kernels...)
	sh.linked = true
	clear(sh.locations)
	clear(sh.uniforms)
	sh.nextLoc = 0
	return nil
}

// ShaderUniformLocation implements gfx.Backend. Without a real compiler
// there is no reflection data, so a linked program accepts any name and
// assigns locations on first use. An unlinked program has no uniforms.
func (b *Backend) ShaderUniformLocation(id gfx.ShaderID, name string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sh, ok := b.shaders.Get(id.Index())
	if !ok {
		return 0, gfx.InvalidShaderError(id)
	}
	if !sh.linked {
		return 0, gfx.InvalidUniformError(name)
	}
	if loc, ok := sh.locations[name]; ok {
		return loc, nil
	}
	loc := sh.nextLoc
	sh.nextLoc++
	sh.locations[name] = loc
	return loc, nil
}

// ShaderSetUniform implements gfx.Backend.
func (b *Backend) ShaderSetUniform(id gfx.ShaderID, location int, value gfx.Uniform) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sh, ok := b.shaders.Get(id.Index())
	if !ok {
		return gfx.InvalidShaderError(id)
	}
	if location < 0 || location >= sh.nextLoc {
		return fmt.Errorf("%w: location %d", gfx.ErrInvalidUniform, location)
	}
	sh.uniforms[location] = value
	return nil
}

// ShaderActivate implements gfx.Backend.
func (b *Backend) ShaderActivate(id gfx.ShaderID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.shaders.Contains(id.Index()) {
		return gfx.InvalidShaderError(id)
	}
	b.activeShader = id
	return nil
}

// ShaderDispatchCompute implements gfx.Backend.
func (b *Backend) ShaderDispatchCompute(id gfx.ShaderID, x, y, z uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.shaders.Contains(id.Index()) {
		return gfx.InvalidShaderError(id)
	}
	b.dispatches++
	return nil
}

// ShaderMemoryBarrier implements gfx.Backend. A no-op; there is no GPU
// memory to order.
func (b *Backend) ShaderMemoryBarrier(barrier gfx.MemoryBarrier) error { return nil }

// ShaderDelete implements gfx.Backend.
func (b *Backend) ShaderDelete(id gfx.ShaderID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.shaders.Remove(id.Index()); !ok {
		return gfx.InvalidShaderError(id)
	}
	if b.activeShader == id {
		b.activeShader = gfx.NoShader
	}
	return nil
}

// MeshCreate implements gfx.Backend.
func (b *Backend) MeshCreate(vertices, indices gfx.BufferID, descriptors []gfx.VertexDescriptor) (gfx.MeshID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.buffers.Contains(vertices.Index()) {
		return gfx.NoMesh, gfx.InvalidBufferError(vertices)
	}
	if !indices.IsNone() && !b.buffers.Contains(indices.Index()) {
		return gfx.NoMesh, gfx.InvalidBufferError(indices)
	}
	idx := b.meshes.Insert(&mesh{
		vertices:    vertices,
		indices:     indices,
		descriptors: append([]gfx.VertexDescriptor(nil), descriptors...),
	})
	return gfx.MeshIDFrom(idx), nil
}

// MeshDraw implements gfx.Backend.
func (b *Backend) MeshDraw(id gfx.MeshID, topology gfx.PrimitiveTopology, vertexCount, indexCount uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.meshes.Contains(id.Index()) {
		return gfx.InvalidMeshError(id)
	}
	b.drawCalls++
	return nil
}

// MeshDelete implements gfx.Backend.
func (b *Backend) MeshDelete(id gfx.MeshID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.meshes.Remove(id.Index()); !ok {
		return gfx.InvalidMeshError(id)
	}
	return nil
}

// TargetCreate implements gfx.Backend.
func (b *Backend) TargetCreate(width, height int32, colorAttachment, depthAttachment gfx.TextureID) (gfx.TargetID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.textures.Contains(colorAttachment.Index()) {
		return gfx.NoTarget, gfx.InvalidTextureError(colorAttachment)
	}
	if !depthAttachment.IsNone() && !b.textures.Contains(depthAttachment.Index()) {
		return gfx.NoTarget, gfx.InvalidTextureError(depthAttachment)
	}
	idx := b.targets.Insert(&target{
		width:  width,
		height: height,
		color:  colorAttachment,
		depth:  depthAttachment,
	})
	return gfx.TargetIDFrom(idx), nil
}

// TargetActivate implements gfx.Backend.
func (b *Backend) TargetActivate(id gfx.TargetID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.targets.Contains(id.Index()) {
		return gfx.InvalidTargetError(id)
	}
	b.activeTarget = id
	return nil
}

// TargetActivateDisplay implements gfx.Backend.
func (b *Backend) TargetActivateDisplay() {
	b.mu.Lock()
	b.activeTarget = gfx.NoTarget
	b.mu.Unlock()
}

// TargetBlit implements gfx.Backend. Pixels are copied when both targets
// store same-format color attachments of equal size; otherwise the blit
// validates handles only.
func (b *Backend) TargetBlit(from, to gfx.TargetID, filter gfx.TextureFilter) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, ok := b.targets.Get(from.Index())
	if !ok {
		return gfx.InvalidTargetError(from)
	}
	dst, ok := b.targets.Get(to.Index())
	if !ok {
		return gfx.InvalidTargetError(to)
	}
	srcTex, okSrc := b.textures.Get(src.color.Index())
	dstTex, okDst := b.textures.Get(dst.color.Index())
	if okSrc && okDst && srcTex.format == dstTex.format && len(srcTex.pixels) == len(dstTex.pixels) {
		copy(dstTex.pixels, srcTex.pixels)
	}
	return nil
}

// TargetBlitToDisplay implements gfx.Backend. There is no display; the
// call validates the handle only.
func (b *Backend) TargetBlitToDisplay(id gfx.TargetID, filter gfx.TextureFilter) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.targets.Contains(id.Index()) {
		return gfx.InvalidTargetError(id)
	}
	return nil
}

// TargetDelete implements gfx.Backend.
func (b *Backend) TargetDelete(id gfx.TargetID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.targets.Remove(id.Index()); !ok {
		return gfx.InvalidTargetError(id)
	}
	if b.activeTarget == id {
		b.activeTarget = gfx.NoTarget
	}
	return nil
}
