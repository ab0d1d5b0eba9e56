package gfx

import "sync/atomic"

// RenderTargetDescriptor configures render target creation.
type RenderTargetDescriptor struct {
	Width       int32
	Height      int32
	ColorFormat TextureFormat
	// DepthStencil attaches a depth buffer when true.
	DepthStencil bool
	// Sampler applies to the attachment textures.
	Sampler TextureSampler
}

// RenderTarget is a reference-counted wrapper around an off-screen render
// target. It builds and owns its attachment textures.
type RenderTarget struct {
	shared *targetShared
}

type targetShared struct {
	backend Backend
	id      TargetID
	width   int32
	height  int32
	color   *Texture
	depth   *Texture
	refs    atomic.Int32
}

// NewRenderTarget creates a render target and its attachment textures.
func NewRenderTarget(b Backend, desc RenderTargetDescriptor) (*RenderTarget, error) {
	color, err := NewTextureSized(b, desc.Sampler, desc.Width, desc.Height, desc.ColorFormat)
	if err != nil {
		return nil, err
	}

	var depth *Texture
	depthID := NoTexture
	if desc.DepthStencil {
		depth, err = NewTextureSized(b, desc.Sampler, desc.Width, desc.Height, TextureDepth32F)
		if err != nil {
			color.Release()
			return nil, err
		}
		depthID = depth.ID()
	}

	id, err := b.TargetCreate(desc.Width, desc.Height, color.ID(), depthID)
	if err != nil {
		if depth != nil {
			depth.Release()
		}
		color.Release()
		return nil, err
	}

	s := &targetShared{
		backend: b,
		id:      id,
		width:   desc.Width,
		height:  desc.Height,
		color:   color,
		depth:   depth,
	}
	s.refs.Store(1)
	return &RenderTarget{shared: s}, nil
}

// ID returns the underlying handle.
func (t *RenderTarget) ID() TargetID { return t.shared.id }

// Size returns the target's dimensions.
func (t *RenderTarget) Size() (width, height int32) {
	return t.shared.width, t.shared.height
}

// ColorAttachment returns the color texture. The target retains ownership.
func (t *RenderTarget) ColorAttachment() *Texture { return t.shared.color }

// DepthAttachment returns the depth texture, nil for color-only targets.
func (t *RenderTarget) DepthAttachment() *Texture { return t.shared.depth }

// Activate routes subsequent draws and clears to this target.
func (t *RenderTarget) Activate() error {
	return t.shared.backend.TargetActivate(t.shared.id)
}

// Blit copies this target's color contents into another target.
func (t *RenderTarget) Blit(to *RenderTarget, filter TextureFilter) error {
	return t.shared.backend.TargetBlit(t.shared.id, to.shared.id, filter)
}

// BlitToDisplay copies this target's color contents to the default
// framebuffer.
func (t *RenderTarget) BlitToDisplay(filter TextureFilter) error {
	return t.shared.backend.TargetBlitToDisplay(t.shared.id, filter)
}

// Clone returns a new reference to the same target.
func (t *RenderTarget) Clone() *RenderTarget {
	t.shared.refs.Add(1)
	return &RenderTarget{shared: t.shared}
}

// Release drops this reference. The last release deletes the target and
// releases its attachments; delete failures are logged, never returned.
func (t *RenderTarget) Release() {
	if t.shared.refs.Add(-1) != 0 {
		return
	}
	if err := t.shared.backend.TargetDelete(t.shared.id); err != nil {
		Logger().Warn("gfx: render target release failed", "target", t.shared.id, "error", err)
	}
	if t.shared.depth != nil {
		t.shared.depth.Release()
	}
	t.shared.color.Release()
}
