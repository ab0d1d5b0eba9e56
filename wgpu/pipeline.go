// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"hash/fnv"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// pipelineKey identifies a compiled render pipeline. Pipelines depend on
// the program, its link generation, the primitive topology, blending,
// the target's color format, and the mesh vertex layout.
type pipelineKey struct {
	shader     gfx.ShaderID
	generation uint64
	topology   gfx.PrimitiveTopology
	blend      bool
	format     gputypes.TextureFormat
	layout     uint64
}

type renderPipeline struct {
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
}

type computeKey struct {
	shader     gfx.ShaderID
	generation uint64
}

type computePipeline struct {
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// pipelineCache memoizes compiled pipelines per descriptor key. Pipeline
// creation involves driver-side shader validation, so draws reuse cache
// hits. The owning Backend's mutex guards all access.
type pipelineCache struct {
	b       *Backend
	render  map[pipelineKey]*renderPipeline
	compute map[computeKey]*computePipeline

	// depthClear is the value recorded by ClearDepthBuffer, applied when
	// a pass with a depth attachment begins.
	depthClear float32
}

func newPipelineCache(b *Backend) *pipelineCache {
	return &pipelineCache{
		b:          b,
		render:     make(map[pipelineKey]*renderPipeline),
		compute:    make(map[computeKey]*computePipeline),
		depthClear: 1,
	}
}

func (c *pipelineCache) destroyRender(p *renderPipeline) {
	device := c.b.device
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
	}
}

func (c *pipelineCache) destroyCompute(p *computePipeline) {
	device := c.b.device
	if p.pipeline != nil {
		device.DestroyComputePipeline(p.pipeline)
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
	}
}

func (c *pipelineCache) destroyAll() {
	for key, p := range c.render {
		c.destroyRender(p)
		delete(c.render, key)
	}
	for key, p := range c.compute {
		c.destroyCompute(p)
		delete(c.compute, key)
	}
}

// invalidateShader drops every cached pipeline built from the program.
func (c *pipelineCache) invalidateShader(id gfx.ShaderID) {
	for key, p := range c.render {
		if key.shader == id {
			c.destroyRender(p)
			delete(c.render, key)
		}
	}
	for key, p := range c.compute {
		if key.shader == id {
			c.destroyCompute(p)
			delete(c.compute, key)
		}
	}
}

// hashVertexLayout computes an FNV-1a hash of a mesh vertex layout for
// use in pipeline keys.
func hashVertexLayout(descriptors []gfx.VertexDescriptor) uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for _, d := range descriptors {
		buf[0] = byte(d.Count)
		buf[1] = byte(d.Kind)
		buf[2] = 0
		if d.Normalize {
			buf[2] = 1
		}
		buf[3] = 0
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func halTopology(t gfx.PrimitiveTopology) gputypes.PrimitiveTopology {
	switch t {
	case gfx.Points:
		return gputypes.PrimitiveTopologyPointList
	case gfx.Lines:
		return gputypes.PrimitiveTopologyLineList
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

func halCullMode(m gfx.CullingMode) gputypes.CullMode {
	switch m {
	case gfx.CullFront:
		return gputypes.CullModeFront
	case gfx.CullBack:
		return gputypes.CullModeBack
	default:
		// CullBoth has no single-pipeline equivalent; such geometry is
		// simply invisible, so drawing it without culling is harmless.
		return gputypes.CullModeNone
	}
}

// uniformBindLayout creates the group-0 layout shared by render and
// compute programs: one uniform buffer at binding 0.
func (c *pipelineCache) uniformBindLayout(visibility gputypes.ShaderStage) (hal.BindGroupLayout, hal.PipelineLayout, error) {
	bindLayout, err := c.b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "gfx_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: visibility,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	pipeLayout, err := c.b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "gfx_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		c.b.device.DestroyBindGroupLayout(bindLayout)
		return nil, nil, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	return bindLayout, pipeLayout, nil
}

func (c *pipelineCache) renderPipelineFor(id gfx.ShaderID, sh *shaderRes, mesh *meshRes, topology gfx.PrimitiveTopology, blend gfx.BlendState, culling gfx.CullingMode, format gputypes.TextureFormat) (*renderPipeline, error) {
	key := pipelineKey{
		shader:     id,
		generation: sh.generation,
		topology:   topology,
		blend:      blend.Enabled,
		format:     format,
		layout:     mesh.layoutKey,
	}
	if p, ok := c.render[key]; ok {
		return p, nil
	}

	bindLayout, pipeLayout, err := c.uniformBindLayout(gputypes.ShaderStageVertex | gputypes.ShaderStageFragment)
	if err != nil {
		return nil, err
	}

	var blendState *gputypes.BlendState
	if blend.Enabled {
		premul := gputypes.BlendStatePremultiplied()
		blendState = &premul
	}
	pipeline, err := c.b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "gfx_render_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     sh.modules[gfx.VertexShader],
			EntryPoint: "vs_main",
			Buffers:    mesh.layout,
		},
		Fragment: &hal.FragmentState{
			Module:     sh.modules[gfx.FragmentShader],
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     blendState,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: halTopology(topology),
			CullMode: halCullMode(culling),
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		c.b.device.DestroyPipelineLayout(pipeLayout)
		c.b.device.DestroyBindGroupLayout(bindLayout)
		return nil, fmt.Errorf("wgpu: create render pipeline: %w", err)
	}

	p := &renderPipeline{bindLayout: bindLayout, pipeLayout: pipeLayout, pipeline: pipeline}
	c.render[key] = p
	return p, nil
}

func (c *pipelineCache) computePipelineFor(id gfx.ShaderID, sh *shaderRes) (*computePipeline, error) {
	key := computeKey{shader: id, generation: sh.generation}
	if p, ok := c.compute[key]; ok {
		return p, nil
	}

	bindLayout, pipeLayout, err := c.uniformBindLayout(gputypes.ShaderStageCompute)
	if err != nil {
		return nil, err
	}
	pipeline, err := c.b.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "gfx_compute_pipeline",
		Layout: pipeLayout,
		Compute: hal.ComputeState{
			Module:     sh.modules[gfx.ComputeShader],
			EntryPoint: "main",
		},
	})
	if err != nil {
		c.b.device.DestroyPipelineLayout(pipeLayout)
		c.b.device.DestroyBindGroupLayout(bindLayout)
		return nil, fmt.Errorf("wgpu: create compute pipeline: %w", err)
	}

	p := &computePipeline{bindLayout: bindLayout, pipeLayout: pipeLayout, pipeline: pipeline}
	c.compute[key] = p
	return p, nil
}

// ensureUniformGroup refreshes the program's uniform buffer from the
// staged values and creates a bind group over it. The bind group is
// per-submission; the caller destroys it after the fence wait. A program
// with no uniform locations binds a single zeroed slot so the group-0
// layout always has a backing buffer.
func (b *Backend) ensureUniformGroup(sh *shaderRes, layout hal.BindGroupLayout) (hal.BindGroup, error) {
	data := uniformData(sh)
	if len(data) == 0 {
		data = make([]byte, uniformSlotSize)
	}
	size := uint64(len(data))
	if sh.uniformBuf == nil || size > sh.uniformCap {
		if sh.uniformBuf != nil {
			b.device.DestroyBuffer(sh.uniformBuf)
			sh.uniformBuf = nil
		}
		buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "gfx_uniforms",
			Size:  size,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("wgpu: create uniform buffer: %w", err)
		}
		sh.uniformBuf = buf
		sh.uniformCap = size
	}
	b.queue.WriteBuffer(sh.uniformBuf, 0, data)

	bg, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "gfx_uniform_bind",
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: sh.uniformBuf.NativeHandle(), Offset: 0, Size: size,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create bind group: %w", err)
	}
	return bg, nil
}

// MeshDraw implements gfx.Backend. One draw is one encoded render pass
// submitted with a fence wait; the pipeline comes from the cache.
func (b *Backend) MeshDraw(id gfx.MeshID, topology gfx.PrimitiveTopology, vertexCount, indexCount uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	mesh, ok := b.meshes.Get(id.Index())
	if !ok {
		return gfx.InvalidMeshError(id)
	}
	vb, ok := b.buffers.Get(mesh.vertices.Index())
	if !ok {
		return gfx.InvalidBufferError(mesh.vertices)
	}
	if vb.buf == nil {
		return fmt.Errorf("%w: vertex buffer has no data", gfx.ErrInvalidBuffer)
	}
	var ib *bufferRes
	if indexCount > 0 {
		ib, ok = b.buffers.Get(mesh.indices.Index())
		if !ok {
			return gfx.InvalidBufferError(mesh.indices)
		}
		if ib.buf == nil {
			return fmt.Errorf("%w: index buffer has no data", gfx.ErrInvalidBuffer)
		}
	}
	sh, ok := b.shaders.Get(b.activeShader.Index())
	if !ok {
		return gfx.InvalidShaderError(b.activeShader)
	}
	if !sh.linked || sh.compute {
		return fmt.Errorf("%w: no render program active", gfx.ErrInvalidShader)
	}

	view, target, err := b.activeColorView()
	if err != nil {
		return err
	}
	pipeline, err := b.pipelines.renderPipelineFor(b.activeShader, sh, mesh, topology, b.blend, b.culling, halFormat(target.format))
	if err != nil {
		return err
	}
	bg, err := b.ensureUniformGroup(sh, pipeline.bindLayout)
	if err != nil {
		return err
	}
	defer b.device.DestroyBindGroup(bg)

	return b.runRenderPass(view, nil, func(rp hal.RenderPassEncoder) error {
		rp.SetPipeline(pipeline.pipeline)
		rp.SetBindGroup(0, bg, nil)
		rp.SetVertexBuffer(0, vb.buf, 0)
		if indexCount > 0 {
			rp.SetIndexBuffer(ib.buf, gputypes.IndexFormatUint32, 0)
			rp.DrawIndexed(indexCount, 1, 0, 0, 0)
		} else {
			rp.Draw(vertexCount, 1, 0, 0)
		}
		return nil
	})
}

// ShaderDispatchCompute implements gfx.Backend.
func (b *Backend) ShaderDispatchCompute(id gfx.ShaderID, x, y, z uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sh, ok := b.shaders.Get(id.Index())
	if !ok {
		return gfx.InvalidShaderError(id)
	}
	if !sh.linked || !sh.compute {
		return fmt.Errorf("%w: no compute kernel linked", gfx.ErrInvalidShader)
	}

	pipeline, err := b.pipelines.computePipelineFor(id, sh)
	if err != nil {
		return err
	}
	bg, err := b.ensureUniformGroup(sh, pipeline.bindLayout)
	if err != nil {
		return err
	}
	defer b.device.DestroyBindGroup(bg)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gfx_dispatch_encoder"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("gfx_dispatch"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "gfx_dispatch"})
	pass.SetPipeline(pipeline.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(x, y, z)
	pass.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)
	return b.submitAndWait(cmdBuf)
}
