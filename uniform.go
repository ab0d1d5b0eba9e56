package gfx

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Fixed-size vector and matrix types for uniform data. Matrices are
// column-major, matching the layout shader compilers expect.
type (
	Vec2 [2]float32
	Vec3 [3]float32
	Vec4 [4]float32
	Mat2 [4]float32
	Mat3 [9]float32
	Mat4 [16]float32
)

// Mat4Identity returns the 4x4 identity matrix.
func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Uniform is a single shader uniform value. The allowed dynamic types are:
//
//	bool, int32, uint32, float32,
//	Vec2, Vec3, Vec4, Mat2, Mat3, Mat4,
//	TextureBinding
//
// Backends type-switch on the value; anything else fails the operation
// with ErrInvalidUniform.
type Uniform any

// TextureBinding is a texture uniform: the texture handle, the unit it
// should be bound to, and an optional sampler override (nil means the
// default sampler).
type TextureBinding struct {
	Texture TextureID
	Slot    uint8
	Sampler *TextureSampler
}

// UniformSet is an ordered collection of named uniforms. Insertion order
// is preserved, so applying a set produces a deterministic sequence of
// backend calls. The zero value is not usable; call NewUniformSet.
//
// UniformSet is not safe for concurrent use.
type UniformSet struct {
	m *orderedmap.OrderedMap[string, Uniform]
}

// NewUniformSet creates an empty uniform set.
func NewUniformSet() *UniformSet {
	return &UniformSet{m: orderedmap.New[string, Uniform]()}
}

// Set stores a uniform under the given name. Re-setting an existing name
// replaces the value but keeps its original position in the order.
func (s *UniformSet) Set(name string, value Uniform) {
	s.m.Set(name, value)
}

// SetTexture stores a texture uniform under the given name.
func (s *UniformSet) SetTexture(name string, texture TextureID, slot uint8, sampler *TextureSampler) {
	s.m.Set(name, TextureBinding{Texture: texture, Slot: slot, Sampler: sampler})
}

// Get returns the uniform stored under name.
func (s *UniformSet) Get(name string) (Uniform, bool) {
	return s.m.Get(name)
}

// Delete removes the uniform stored under name.
func (s *UniformSet) Delete(name string) {
	s.m.Delete(name)
}

// Len returns the number of uniforms in the set.
func (s *UniformSet) Len() int { return s.m.Len() }

// Each calls fn for every uniform in insertion order. Iteration stops
// early if fn returns false.
func (s *UniformSet) Each(fn func(name string, value Uniform) bool) {
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Clone returns a copy of the set with the same order.
func (s *UniformSet) Clone() *UniformSet {
	out := NewUniformSet()
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		out.m.Set(pair.Key, pair.Value)
	}
	return out
}

// Clear removes all uniforms.
func (s *UniformSet) Clear() {
	s.m = orderedmap.New[string, Uniform]()
}

// MaxTextureUnits is the number of texture slots a material may bind at
// once. It matches the minimum guaranteed by every supported backend.
const MaxTextureUnits = 32

// TextureBindingSet allocates texture units to textures within a single
// material. The same texture always resolves to the same slot until it is
// freed or the set is cleared.
type TextureBindingSet struct {
	slots [MaxTextureUnits]TextureID
	used  int
}

// Allocate returns the slot for the given texture, assigning the lowest
// free slot on first use. It reports false when all slots are taken.
func (s *TextureBindingSet) Allocate(texture TextureID) (uint8, bool) {
	if texture == NoTexture {
		return 0, false
	}
	free := -1
	for i := range s.slots {
		if s.slots[i] == texture {
			return uint8(i), true
		}
		if free < 0 && s.slots[i] == NoTexture {
			free = i
		}
	}
	if free < 0 {
		return 0, false
	}
	s.slots[free] = texture
	s.used++
	return uint8(free), true
}

// Free releases the slot held by the given texture. Freeing a texture
// that holds no slot is a no-op.
func (s *TextureBindingSet) Free(texture TextureID) {
	if texture == NoTexture {
		return
	}
	for i := range s.slots {
		if s.slots[i] == texture {
			s.slots[i] = NoTexture
			s.used--
			return
		}
	}
}

// Len returns the number of allocated slots.
func (s *TextureBindingSet) Len() int { return s.used }

// Clear releases all slot assignments.
func (s *TextureBindingSet) Clear() {
	for i := 0; i < s.used; i++ {
		s.slots[i] = NoTexture
	}
	s.used = 0
}
