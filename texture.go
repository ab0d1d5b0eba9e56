package gfx

import (
	"image"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// Texture is a reference-counted wrapper around a texture.
type Texture struct {
	shared *textureShared
}

type textureShared struct {
	backend Backend
	id      TextureID
	sampler TextureSampler
	width   int32
	height  int32
	format  TextureFormat
	refs    atomic.Int32
}

// NewTexture creates a texture with the given sampler options and no
// storage. Call Initialize or Write before sampling from it.
func NewTexture(b Backend, sampler TextureSampler) (*Texture, error) {
	id, err := b.TextureCreate(sampler)
	if err != nil {
		return nil, err
	}
	s := &textureShared{backend: b, id: id, sampler: sampler}
	s.refs.Store(1)
	return &Texture{shared: s}, nil
}

// NewTextureSized creates a texture and allocates zeroed storage.
func NewTextureSized(b Backend, sampler TextureSampler, width, height int32, format TextureFormat) (*Texture, error) {
	t, err := NewTexture(b, sampler)
	if err != nil {
		return nil, err
	}
	if err := t.Initialize(width, height, format); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// ID returns the underlying handle.
func (t *Texture) ID() TextureID { return t.shared.id }

// Sampler returns the current sampler options.
func (t *Texture) Sampler() TextureSampler { return t.shared.sampler }

// Size returns the storage dimensions, zero before initialization.
func (t *Texture) Size() (width, height int32) {
	return t.shared.width, t.shared.height
}

// Format returns the storage format.
func (t *Texture) Format() TextureFormat { return t.shared.format }

// SetOptions replaces the sampler options.
func (t *Texture) SetOptions(sampler TextureSampler) error {
	if err := t.shared.backend.TextureSetOptions(t.shared.id, sampler); err != nil {
		return err
	}
	t.shared.sampler = sampler
	return nil
}

// Initialize allocates zeroed storage of the given dimensions.
func (t *Texture) Initialize(width, height int32, format TextureFormat) error {
	if err := t.shared.backend.TextureInitialize(t.shared.id, width, height, format); err != nil {
		return err
	}
	t.shared.width, t.shared.height, t.shared.format = width, height, format
	return nil
}

// Read copies the full pixel contents into dst.
func (t *Texture) Read(dst []byte) error {
	return t.shared.backend.TextureRead(t.shared.id, dst)
}

// Write replaces the texture's storage and contents.
func (t *Texture) Write(width, height int32, format TextureFormat, pixels []byte) error {
	if err := t.shared.backend.TextureWrite(t.shared.id, width, height, format, pixels); err != nil {
		return err
	}
	t.shared.width, t.shared.height, t.shared.format = width, height, format
	return nil
}

// WriteSub overwrites a sub-region of existing storage.
func (t *Texture) WriteSub(region Rect, format TextureFormat, pixels []byte) error {
	return t.shared.backend.TextureWriteSub(t.shared.id, region, format, pixels)
}

// WriteImage uploads a standard image, converting to RGBA8. The texture
// takes the image's dimensions.
func (t *Texture) WriteImage(img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 {
		converted := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(converted, converted.Bounds(), img, bounds.Min, draw.Src)
		rgba = converted
	}
	return t.Write(int32(bounds.Dx()), int32(bounds.Dy()), TextureRGBA8, rgba.Pix)
}

// Clone returns a new reference to the same texture.
func (t *Texture) Clone() *Texture {
	t.shared.refs.Add(1)
	return &Texture{shared: t.shared}
}

// Release drops this reference. The last release deletes the texture;
// delete failures are logged, never returned.
func (t *Texture) Release() {
	if t.shared.refs.Add(-1) != 0 {
		return
	}
	if err := t.shared.backend.TextureDelete(t.shared.id); err != nil {
		Logger().Warn("gfx: texture release failed", "texture", t.shared.id, "error", err)
	}
}
