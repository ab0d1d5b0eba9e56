// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/image/draw"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const submitTimeout = 5 * time.Second

// copyPitchAlignment is the BytesPerRow alignment texture-to-buffer
// copies require (WebGPU and DX12 mandate 256).
const copyPitchAlignment = 256

func halFormat(f gfx.TextureFormat) gputypes.TextureFormat {
	switch f {
	case gfx.TextureR8:
		return gputypes.TextureFormatR8Unorm
	case gfx.TextureRGBA32F:
		return gputypes.TextureFormatRGBA32Float
	case gfx.TextureDepth32F:
		return gputypes.TextureFormatDepth32Float
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// bufferRes is a buffer's backing state. The HAL buffer is allocated
// lazily on first write, once the size is known.
type bufferRes struct {
	kind  gfx.BufferKind
	usage gfx.BufferUsage
	size  uint64
	buf   hal.Buffer
}

func (r *bufferRes) halUsage() gputypes.BufferUsage {
	if r.kind == gfx.IndexBuffer {
		return gputypes.BufferUsageIndex | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	}
	return gputypes.BufferUsageVertex | gputypes.BufferUsageStorage |
		gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
}

func (r *bufferRes) destroy(device hal.Device) {
	if r.buf != nil {
		device.DestroyBuffer(r.buf)
		r.buf = nil
	}
	r.size = 0
}

// BufferCreate implements gfx.Backend.
func (b *Backend) BufferCreate(kind gfx.BufferKind, usage gfx.BufferUsage) (gfx.BufferID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.buffers.Insert(&bufferRes{kind: kind, usage: usage})
	return gfx.BufferIDFrom(idx), nil
}

// BufferWrite implements gfx.Backend.
func (b *Backend) BufferWrite(id gfx.BufferID, data []byte) error {
	if data == nil {
		return gfx.ErrNilData
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.buffers.Get(id.Index())
	if !ok {
		return gfx.InvalidBufferError(id)
	}
	size := uint64(len(data))
	if r.buf == nil || size > r.size {
		r.destroy(b.device)
		if size == 0 {
			return nil
		}
		buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "gfx_buffer",
			Size:  size,
			Usage: r.halUsage(),
		})
		if err != nil {
			return fmt.Errorf("wgpu: create buffer: %w", err)
		}
		r.buf = buf
	}
	r.size = size
	if size > 0 {
		b.queue.WriteBuffer(r.buf, 0, data)
	}
	return nil
}

// BufferRead implements gfx.Backend. The range is copied into a MapRead
// staging buffer and read back through the queue.
func (b *Backend) BufferRead(id gfx.BufferID, dst []byte, offset int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.buffers.Get(id.Index())
	if !ok {
		return gfx.InvalidBufferError(id)
	}
	if offset < 0 || uint64(offset)+uint64(len(dst)) > r.size {
		return fmt.Errorf("%w: read %d+%d of %d", gfx.ErrBufferTooSmall, offset, len(dst), r.size)
	}
	if len(dst) == 0 {
		return nil
	}

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "gfx_buffer_staging",
		Size:  uint64(len(dst)),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gfx_buffer_read"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("gfx_buffer_read"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(r.buf, staging, []hal.BufferCopy{
		{SrcOffset: uint64(offset), DstOffset: 0, Size: uint64(len(dst))},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)
	if err := b.submitAndWait(cmdBuf); err != nil {
		return err
	}

	if err := b.queue.ReadBuffer(staging, 0, dst); err != nil {
		return fmt.Errorf("wgpu: read buffer: %w", err)
	}
	return nil
}

// BufferDelete implements gfx.Backend.
func (b *Backend) BufferDelete(id gfx.BufferID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.buffers.Remove(id.Index())
	if !ok {
		return gfx.InvalidBufferError(id)
	}
	r.destroy(b.device)
	return nil
}

// textureRes is a texture's backing state. HAL objects are allocated
// when the storage dimensions become known.
type textureRes struct {
	sampler gfx.TextureSampler
	width   int32
	height  int32
	format  gfx.TextureFormat

	tex        hal.Texture
	view       hal.TextureView
	halSampler hal.Sampler
}

func (r *textureRes) allocate(device hal.Device, width, height int32, format gfx.TextureFormat, label string) error {
	r.destroy(device)

	usage := gputypes.TextureUsageRenderAttachment
	if format != gfx.TextureDepth32F {
		usage |= gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst
	}
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        halFormat(format),
		Usage:         usage,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create texture: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label + "_view"})
	if err != nil {
		device.DestroyTexture(tex)
		return fmt.Errorf("wgpu: create texture view: %w", err)
	}
	r.tex = tex
	r.view = view
	r.width, r.height, r.format = width, height, format
	return nil
}

func (r *textureRes) destroy(device hal.Device) {
	if r.halSampler != nil {
		device.DestroySampler(r.halSampler)
		r.halSampler = nil
	}
	if r.view != nil {
		device.DestroyTextureView(r.view)
		r.view = nil
	}
	if r.tex != nil {
		device.DestroyTexture(r.tex)
		r.tex = nil
	}
}

func halFilter(f gfx.TextureFilter) gputypes.FilterMode {
	if f == gfx.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

func halAddressMode(w gfx.TextureWrap) gputypes.AddressMode {
	switch w {
	case gfx.WrapRepeat:
		return gputypes.AddressModeRepeat
	case gfx.WrapMirroredRepeat:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}

func (r *textureRes) ensureSampler(device hal.Device) (hal.Sampler, error) {
	if r.halSampler != nil {
		return r.halSampler, nil
	}
	s, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "gfx_sampler",
		AddressModeU: halAddressMode(r.sampler.WrapU),
		AddressModeV: halAddressMode(r.sampler.WrapV),
		AddressModeW: halAddressMode(r.sampler.WrapU),
		MagFilter:    halFilter(r.sampler.MagFilter),
		MinFilter:    halFilter(r.sampler.MinFilter),
		MipmapFilter: halFilter(r.sampler.MinFilter),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler: %w", err)
	}
	r.halSampler = s
	return s, nil
}

// TextureCreate implements gfx.Backend.
func (b *Backend) TextureCreate(sampler gfx.TextureSampler) (gfx.TextureID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.textures.Insert(&textureRes{sampler: sampler})
	return gfx.TextureIDFrom(idx), nil
}

// TextureSetOptions implements gfx.Backend.
func (b *Backend) TextureSetOptions(id gfx.TextureID, sampler gfx.TextureSampler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.textures.Get(id.Index())
	if !ok {
		return gfx.InvalidTextureError(id)
	}
	r.sampler = sampler
	if r.halSampler != nil {
		b.device.DestroySampler(r.halSampler)
		r.halSampler = nil
	}
	return nil
}

// TextureInitialize implements gfx.Backend.
func (b *Backend) TextureInitialize(id gfx.TextureID, width, height int32, format gfx.TextureFormat) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.textures.Get(id.Index())
	if !ok {
		return gfx.InvalidTextureError(id)
	}
	return r.allocate(b.device, width, height, format, "gfx_texture")
}

// TextureWrite implements gfx.Backend.
func (b *Backend) TextureWrite(id gfx.TextureID, width, height int32, format gfx.TextureFormat, pixels []byte) error {
	if pixels == nil {
		return gfx.ErrNilData
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.textures.Get(id.Index())
	if !ok {
		return gfx.InvalidTextureError(id)
	}
	if r.tex == nil || width != r.width || height != r.height || format != r.format {
		if err := r.allocate(b.device, width, height, format, "gfx_texture"); err != nil {
			return err
		}
	}
	b.writeTexturePixels(r, pixels)
	return nil
}

func (b *Backend) writeTexturePixels(r *textureRes, pixels []byte) {
	bpp := r.format.BytesPerPixel()
	b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: r.tex, MipLevel: 0},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(int(r.width) * bpp),
			RowsPerImage: uint32(r.height),
		},
		&hal.Extent3D{Width: uint32(r.width), Height: uint32(r.height), DepthOrArrayLayers: 1},
	)
}

// TextureWriteSub implements gfx.Backend. The HAL exposes whole-texture
// uploads only, so the region is merged into a readback of the current
// contents and re-uploaded.
func (b *Backend) TextureWriteSub(id gfx.TextureID, region gfx.Rect, format gfx.TextureFormat, pixels []byte) error {
	if pixels == nil {
		return gfx.ErrNilData
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.textures.Get(id.Index())
	if !ok {
		return gfx.InvalidTextureError(id)
	}
	bpp := r.format.BytesPerPixel()
	if r.tex == nil || format != r.format ||
		region.Left < 0 || region.Bottom < 0 ||
		region.Right() > r.width || region.Top() > r.height ||
		len(pixels) < int(region.Width)*int(region.Height)*bpp {
		return fmt.Errorf("%w: sub-region out of bounds", gfx.ErrBufferTooSmall)
	}

	full := make([]byte, int(r.width)*int(r.height)*bpp)
	if err := b.readTexturePixels(r, full); err != nil {
		return err
	}
	rowBytes := int(region.Width) * bpp
	texStride := int(r.width) * bpp
	for row := 0; row < int(region.Height); row++ {
		dstOff := (int(region.Bottom)+row)*texStride + int(region.Left)*bpp
		copy(full[dstOff:dstOff+rowBytes], pixels[row*rowBytes:])
	}
	b.writeTexturePixels(r, full)
	return nil
}

// TextureRead implements gfx.Backend. Reads back through a staging buffer
// with 256-byte row pitch, then de-strides into dst.
func (b *Backend) TextureRead(id gfx.TextureID, dst []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.textures.Get(id.Index())
	if !ok {
		return gfx.InvalidTextureError(id)
	}
	need := int(r.width) * int(r.height) * r.format.BytesPerPixel()
	if len(dst) < need {
		return fmt.Errorf("%w: need %d bytes, have %d", gfx.ErrBufferTooSmall, need, len(dst))
	}
	if r.tex == nil {
		return nil
	}
	return b.readTexturePixels(r, dst[:need])
}

func (b *Backend) readTexturePixels(r *textureRes, dst []byte) error {
	bpp := r.format.BytesPerPixel()
	bytesPerRow := uint32(int(r.width) * bpp)
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(r.height)
	if stagingSize == 0 {
		return nil
	}

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "gfx_texture_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gfx_texture_read"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("gfx_texture_read"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	// Vulkan needs the attachment transitioned to a copy source before
	// CopyTextureToBuffer; no-op on the other HAL backends.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(r.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: uint32(r.height)},
		TextureBase:  hal.ImageCopyTexture{Texture: r.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: uint32(r.width), Height: uint32(r.height), DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)
	if err := b.submitAndWait(cmdBuf); err != nil {
		return err
	}

	strided := make([]byte, stagingSize)
	if err := b.queue.ReadBuffer(staging, 0, strided); err != nil {
		return fmt.Errorf("wgpu: read staging buffer: %w", err)
	}
	for row := 0; row < int(r.height); row++ {
		src := strided[row*int(alignedBytesPerRow):]
		copy(dst[row*int(bytesPerRow):(row+1)*int(bytesPerRow)], src[:bytesPerRow])
	}
	return nil
}

// TextureDelete implements gfx.Backend.
func (b *Backend) TextureDelete(id gfx.TextureID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.textures.Remove(id.Index())
	if !ok {
		return gfx.InvalidTextureError(id)
	}
	r.destroy(b.device)
	return nil
}

// meshRes ties vertex and index buffers to a HAL vertex layout.
type meshRes struct {
	vertices    gfx.BufferID
	indices     gfx.BufferID
	descriptors []gfx.VertexDescriptor
	layout      []gputypes.VertexBufferLayout
	layoutKey   uint64
}

func vertexFormat(d gfx.VertexDescriptor) (gputypes.VertexFormat, error) {
	switch d.Kind {
	case gfx.VertexF32:
		switch d.Count {
		case 1:
			return gputypes.VertexFormatFloat32, nil
		case 2:
			return gputypes.VertexFormatFloat32x2, nil
		case 3:
			return gputypes.VertexFormatFloat32x3, nil
		case 4:
			return gputypes.VertexFormatFloat32x4, nil
		}
	case gfx.VertexU32:
		switch d.Count {
		case 1:
			return gputypes.VertexFormatUint32, nil
		case 2:
			return gputypes.VertexFormatUint32x2, nil
		case 4:
			return gputypes.VertexFormatUint32x4, nil
		}
	case gfx.VertexI32:
		switch d.Count {
		case 1:
			return gputypes.VertexFormatSint32, nil
		case 2:
			return gputypes.VertexFormatSint32x2, nil
		case 4:
			return gputypes.VertexFormatSint32x4, nil
		}
	case gfx.VertexU8:
		if d.Count == 4 && d.Normalize {
			return gputypes.VertexFormatUnorm8x4, nil
		}
	}
	return 0, fmt.Errorf("%w: unsupported vertex attribute %v x%d", gfx.ErrInvalidMesh, d.Kind, d.Count)
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

	attrs := make([]gputypes.VertexAttribute, 0, len(descriptors))
	offset := uint64(0)
	for i, d := range descriptors {
		format, err := vertexFormat(d)
		if err != nil {
			return gfx.NoMesh, err
		}
		attrs = append(attrs, gputypes.VertexAttribute{
			Format:         format,
			Offset:         offset,
			ShaderLocation: uint32(i),
		})
		offset += uint64(d.Size())
	}
	layout := []gputypes.VertexBufferLayout{{
		ArrayStride: offset,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}}

	idx := b.meshes.Insert(&meshRes{
		vertices:    vertices,
		indices:     indices,
		descriptors: append([]gfx.VertexDescriptor(nil), descriptors...),
		layout:      layout,
		layoutKey:   hashVertexLayout(descriptors),
	})
	return gfx.MeshIDFrom(idx), nil
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

// targetRes records a render target's attachments.
type targetRes struct {
	width  int32
	height int32
	color  gfx.TextureID
	depth  gfx.TextureID
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
	idx := b.targets.Insert(&targetRes{
		width:  width,
		height: height,
		color:  colorAttachment,
		depth:  depthAttachment,
	})
	return gfx.TargetIDFrom(idx), nil
}

// TargetBlit implements gfx.Backend. The HAL has no dedicated blit, so the
// source color attachment is read back and re-uploaded, scaling through
// x/image/draw when the targets differ in size (RGBA8 only).
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
	srcTex, ok := b.textures.Get(src.color.Index())
	if !ok {
		return gfx.InvalidTextureError(src.color)
	}
	dstTex, ok := b.textures.Get(dst.color.Index())
	if !ok {
		return gfx.InvalidTextureError(dst.color)
	}
	return b.blitTextures(srcTex, dstTex, filter)
}

// TargetBlitToDisplay implements gfx.Backend.
func (b *Backend) TargetBlitToDisplay(id gfx.TargetID, filter gfx.TextureFilter) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, ok := b.targets.Get(id.Index())
	if !ok {
		return gfx.InvalidTargetError(id)
	}
	srcTex, ok := b.textures.Get(src.color.Index())
	if !ok {
		return gfx.InvalidTextureError(src.color)
	}
	disp, err := b.ensureDisplay()
	if err != nil {
		return err
	}
	return b.blitTextures(srcTex, disp, filter)
}

func (b *Backend) blitTextures(src, dst *textureRes, filter gfx.TextureFilter) error {
	if src.tex == nil || dst.tex == nil {
		return fmt.Errorf("%w: blit with unallocated attachment", gfx.ErrInvalidTarget)
	}
	bpp := src.format.BytesPerPixel()
	pixels := make([]byte, int(src.width)*int(src.height)*bpp)
	if err := b.readTexturePixels(src, pixels); err != nil {
		return err
	}

	if src.width == dst.width && src.height == dst.height && src.format == dst.format {
		b.writeTexturePixels(dst, pixels)
		return nil
	}
	if src.format != gfx.TextureRGBA8 || dst.format != gfx.TextureRGBA8 {
		return fmt.Errorf("%w: scaling blit requires rgba8 attachments", gfx.ErrInvalidTarget)
	}

	srcImg := &image.RGBA{
		Pix:    pixels,
		Stride: int(src.width) * 4,
		Rect:   image.Rect(0, 0, int(src.width), int(src.height)),
	}
	dstImg := image.NewRGBA(image.Rect(0, 0, int(dst.width), int(dst.height)))
	scaler := draw.Scaler(draw.NearestNeighbor)
	if filter == gfx.FilterLinear {
		scaler = draw.BiLinear
	}
	scaler.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Src, nil)
	b.writeTexturePixels(dst, dstImg.Pix)
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
