package gfx

import "sync/atomic"

// Material binds a shader program with the uniforms and fixed-function
// state a draw needs. It keeps its shader and textures alive by holding
// clones of them.
type Material struct {
	shared *materialShared
}

type materialShared struct {
	backend  Backend
	shader   *ShaderProgram
	uniforms *UniformSet
	textures map[string]*Texture
	slots    TextureBindingSet
	blend    BlendState
	culling  CullingMode
	scissor  ScissorMode
	refs     atomic.Int32
}

// NewMaterial creates a material over the given shader program. The
// material clones the program, so the caller keeps its own reference.
func NewMaterial(b Backend, shader *ShaderProgram) *Material {
	s := &materialShared{
		backend:  b,
		shader:   shader.Clone(),
		uniforms: NewUniformSet(),
		textures: make(map[string]*Texture),
	}
	s.refs.Store(1)
	return &Material{shared: s}
}

// Shader returns the material's shader program.
func (m *Material) Shader() *ShaderProgram { return m.shared.shader }

// Uniforms returns the material's uniform set, in insertion order.
func (m *Material) Uniforms() *UniformSet { return m.shared.uniforms }

// SetUniform stores a uniform on the material.
func (m *Material) SetUniform(name string, value Uniform) {
	m.shared.uniforms.Set(name, value)
}

// SetTexture binds a texture uniform, allocating a texture unit and
// cloning the texture to keep it alive. Rebinding a name releases the
// previous texture and frees its unit once no other name binds it. It
// reports false when all texture units are taken.
func (m *Material) SetTexture(name string, texture *Texture, sampler *TextureSampler) bool {
	s := m.shared
	slot, ok := s.slots.Allocate(texture.ID())
	if !ok {
		return false
	}
	if prev, exists := s.textures[name]; exists {
		delete(s.textures, name)
		if prev.ID() != texture.ID() && !s.textureBound(prev.ID()) {
			s.slots.Free(prev.ID())
		}
		prev.Release()
	}
	s.textures[name] = texture.Clone()
	s.uniforms.SetTexture(name, texture.ID(), slot, sampler)
	return true
}

// textureBound reports whether any uniform name still binds the texture.
func (s *materialShared) textureBound(id TextureID) bool {
	for _, t := range s.textures {
		if t.ID() == id {
			return true
		}
	}
	return false
}

// BlendState returns the material's blend state.
func (m *Material) BlendState() BlendState { return m.shared.blend }

// SetBlendState sets the blend state applied when the material is bound.
func (m *Material) SetBlendState(state BlendState) { m.shared.blend = state }

// CullingMode returns the material's culling mode.
func (m *Material) CullingMode() CullingMode { return m.shared.culling }

// SetCullingMode sets the culling mode applied when the material is bound.
func (m *Material) SetCullingMode(mode CullingMode) { m.shared.culling = mode }

// ScissorMode returns the material's scissor state.
func (m *Material) ScissorMode() ScissorMode { return m.shared.scissor }

// SetScissorMode sets the scissor state applied when the material is bound.
func (m *Material) SetScissorMode(mode ScissorMode) { m.shared.scissor = mode }

// Bind applies the material directly to the backend: fixed-function state,
// then each uniform by resolved location, then shader activation. The
// queue's SetShader command replays this same sequence on flush.
func (m *Material) Bind() error {
	s := m.shared
	s.backend.SetBlendState(s.blend)
	s.backend.SetCullingMode(s.culling)
	s.backend.SetScissorMode(s.scissor)

	var bindErr error
	s.uniforms.Each(func(name string, value Uniform) bool {
		loc, err := s.shader.UniformLocation(name)
		if err != nil {
			bindErr = err
			return false
		}
		if err := s.backend.ShaderSetUniform(s.shader.ID(), loc, value); err != nil {
			bindErr = err
			return false
		}
		return true
	})
	if bindErr != nil {
		return bindErr
	}
	return s.shader.Activate()
}

// Clone returns a new reference to the same material.
func (m *Material) Clone() *Material {
	m.shared.refs.Add(1)
	return &Material{shared: m.shared}
}

// Release drops this reference. The last release releases the shader and
// all bound textures.
func (m *Material) Release() {
	if m.shared.refs.Add(-1) != 0 {
		return
	}
	for _, t := range m.shared.textures {
		t.Release()
	}
	m.shared.shader.Release()
}
