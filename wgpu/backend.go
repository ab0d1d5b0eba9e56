// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu provides the native backend over the gogpu/wgpu HAL.
//
// Resources map to real driver objects (Vulkan, Metal, DX12 via the HAL's
// registered backends). Shader kernels are WGSL, compiled to SPIR-V with
// gogpu/naga at link time; render programs use the vs_main/fs_main entry
// points and compute programs use main.
//
// The backend can own its device (instance, adapter enumeration, open) or
// share one from a host application through gpucontext.HalProvider.
//
// Import for side effects to register the backend:
//
//	import _ "github.com/gogpu/gfx/wgpu"
package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/arena"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Name is the registry name of the wgpu backend.
const Name = "wgpu"

func init() {
	gfx.Register(Name, func() gfx.Backend {
		b, err := New()
		if err != nil {
			gfx.Logger().Warn("wgpu: backend unavailable", "error", err)
			return nil
		}
		return b
	})
}

// Option configures the backend during New.
type Option func(*options)

type options struct {
	provider gpucontext.HalProvider
	backends []gputypes.Backend
}

// WithHalProvider shares the host application's HAL device and queue
// instead of creating a dedicated device.
func WithHalProvider(p gpucontext.HalProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithHalBackends overrides the HAL backend probe order.
func WithHalBackends(backends ...gputypes.Backend) Option {
	return func(o *options) {
		o.backends = backends
	}
}

// Backend is the native backend. All methods are safe for concurrent use,
// though draw submission is serialized internally.
type Backend struct {
	mu sync.Mutex

	instance    hal.Instance
	device      hal.Device
	queue       hal.Queue
	ownedDevice bool

	buffers  arena.Arena[*bufferRes]
	textures arena.Arena[*textureRes]
	shaders  arena.Arena[*shaderRes]
	meshes   arena.Arena[*meshRes]
	targets  arena.Arena[*targetRes]

	pipelines *pipelineCache

	viewportW int32
	viewportH int32
	blend     gfx.BlendState
	culling   gfx.CullingMode
	scissor   gfx.ScissorMode

	activeTarget gfx.TargetID
	activeShader gfx.ShaderID

	// display stands in for the default framebuffer: an internal
	// render-attachment texture sized to the viewport.
	display *textureRes

	closed bool
}

// New creates and initializes a native backend.
func New(opts ...Option) (*Backend, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.backends) == 0 {
		o.backends = []gputypes.Backend{gputypes.BackendVulkan, gputypes.BackendMetal, gputypes.BackendDX12}
	}

	b := &Backend{viewportW: 1, viewportH: 1}
	b.pipelines = newPipelineCache(b)

	if o.provider != nil {
		device, ok := o.provider.HalDevice().(hal.Device)
		if !ok || device == nil {
			return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
		}
		queue, ok := o.provider.HalQueue().(hal.Queue)
		if !ok || queue == nil {
			return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
		}
		b.device = device
		b.queue = queue
		gfx.Logger().Info("wgpu: using shared device from provider")
		return b, nil
	}

	if err := b.initOwnDevice(o.backends); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) initOwnDevice(probe []gputypes.Backend) error {
	var lastErr error
	for _, kind := range probe {
		halBackend, ok := hal.GetBackend(kind)
		if !ok {
			continue
		}
		instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			lastErr = fmt.Errorf("wgpu: create instance: %w", err)
			continue
		}
		adapters := instance.EnumerateAdapters(nil)
		if len(adapters) == 0 {
			lastErr = fmt.Errorf("wgpu: no adapters for backend %v", kind)
			continue
		}
		selected := &adapters[0]
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
				adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
				selected = &adapters[i]
				break
			}
		}
		openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
		if err != nil {
			lastErr = fmt.Errorf("wgpu: open device: %w", err)
			continue
		}
		b.instance = instance
		b.device = openDev.Device
		b.queue = openDev.Queue
		b.ownedDevice = true
		gfx.Logger().Info("wgpu: adapter opened", "adapter", selected.Info.Name)
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("wgpu: no HAL backend available")
	}
	return lastErr
}

// Name implements gfx.Backend.
func (b *Backend) Name() string { return Name }

// Close destroys all live resources and, when the backend owns the
// device, the device itself.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	b.pipelines.destroyAll()
	b.buffers.Each(func(_ arena.Index, r *bufferRes) bool {
		r.destroy(b.device)
		return true
	})
	b.textures.Each(func(_ arena.Index, r *textureRes) bool {
		r.destroy(b.device)
		return true
	})
	b.shaders.Each(func(_ arena.Index, r *shaderRes) bool {
		r.destroy(b.device)
		return true
	})
	b.buffers.Clear()
	b.textures.Clear()
	b.shaders.Clear()
	b.meshes.Clear()
	b.targets.Clear()
	if b.display != nil {
		b.display.destroy(b.device)
		b.display = nil
	}

	if b.ownedDevice && b.device != nil {
		b.device.Destroy()
	}
	b.device = nil
	b.queue = nil
	return nil
}

// BeginFrame implements gfx.Backend. A no-op; every operation submits its
// own work eagerly.
func (b *Backend) BeginFrame() {}

// EndFrame implements gfx.Backend. Work is already submitted and fenced
// per operation, so there is nothing to flush.
func (b *Backend) EndFrame() {}

// ViewportSize implements gfx.Backend.
func (b *Backend) ViewportSize() (int32, int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewportW, b.viewportH
}

// SetViewportSize implements gfx.Backend. The display texture is rebuilt
// lazily at the new size.
func (b *Backend) SetViewportSize(width, height int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if width == b.viewportW && height == b.viewportH {
		return
	}
	b.viewportW, b.viewportH = width, height
	if b.display != nil {
		b.display.destroy(b.device)
		b.display = nil
	}
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

// ClearColorBuffer implements gfx.Backend. Runs an empty render pass with
// a clear load op against the active target.
func (b *Backend) ClearColorBuffer(color gfx.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	view, _, err := b.activeColorView()
	if err != nil {
		gfx.Logger().Warn("wgpu: clear skipped", "error", err)
		return
	}
	if err := b.runRenderPass(view, &gputypes.Color{
		R: float64(color.R), G: float64(color.G), B: float64(color.B), A: float64(color.A),
	}, nil); err != nil {
		gfx.Logger().Warn("wgpu: clear failed", "error", err)
	}
}

// ClearDepthBuffer implements gfx.Backend. Depth attachments are cleared
// at the start of the next draw pass; the requested value is recorded.
func (b *Backend) ClearDepthBuffer(depth float32) {
	b.mu.Lock()
	b.pipelines.depthClear = depth
	b.mu.Unlock()
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

// ShaderActivate implements gfx.Backend.
func (b *Backend) ShaderActivate(id gfx.ShaderID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sh, ok := b.shaders.Get(id.Index())
	if !ok {
		return gfx.InvalidShaderError(id)
	}
	if !sh.linked {
		return gfx.ShaderCompileError("program has no linked kernels")
	}
	b.activeShader = id
	return nil
}

// ShaderMemoryBarrier implements gfx.Backend. Every dispatch and draw is
// submitted with a fence wait, so GPU work is already ordered when the
// call returns.
func (b *Backend) ShaderMemoryBarrier(barrier gfx.MemoryBarrier) error { return nil }

// activeColorView resolves the color attachment of the active target, or
// the display texture when no target is active. Caller holds b.mu.
func (b *Backend) activeColorView() (hal.TextureView, *textureRes, error) {
	if b.activeTarget.IsNone() {
		disp, err := b.ensureDisplay()
		if err != nil {
			return nil, nil, err
		}
		return disp.view, disp, nil
	}
	t, ok := b.targets.Get(b.activeTarget.Index())
	if !ok {
		return nil, nil, gfx.InvalidTargetError(b.activeTarget)
	}
	tex, ok := b.textures.Get(t.color.Index())
	if !ok || tex.tex == nil {
		return nil, nil, gfx.InvalidTextureError(t.color)
	}
	return tex.view, tex, nil
}

func (b *Backend) ensureDisplay() (*textureRes, error) {
	if b.display != nil {
		return b.display, nil
	}
	disp := &textureRes{format: gfx.TextureRGBA8}
	if err := disp.allocate(b.device, b.viewportW, b.viewportH, gfx.TextureRGBA8, "gfx_display"); err != nil {
		return nil, err
	}
	b.display = disp
	return disp, nil
}

// runRenderPass encodes one render pass against view and submits it. When
// record is nil the pass only clears (clear must be non-nil then).
func (b *Backend) runRenderPass(view hal.TextureView, clear *gputypes.Color, record func(rp hal.RenderPassEncoder) error) error {
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gfx_pass_encoder"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("gfx_pass"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	attachment := hal.RenderPassColorAttachment{
		View:    view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if clear != nil {
		attachment.LoadOp = gputypes.LoadOpClear
		attachment.ClearValue = *clear
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "gfx_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{attachment},
	})
	if record != nil {
		if err := record(rp); err != nil {
			rp.End()
			encoder.DiscardEncoding()
			return err
		}
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)
	return b.submitAndWait(cmdBuf)
}

func (b *Backend) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	ok, err := b.device.Wait(fence, 1, submitTimeout)
	if err != nil {
		return fmt.Errorf("wgpu: fence wait: %w", err)
	}
	if !ok {
		return fmt.Errorf("wgpu: fence wait timed out")
	}
	return nil
}
