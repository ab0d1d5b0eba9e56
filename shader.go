package gfx

import "sync/atomic"

// ShaderProgram is a reference-counted wrapper around a shader program.
// It caches uniform locations, so repeated SetUniform calls by name skip
// the backend lookup.
type ShaderProgram struct {
	shared *shaderShared
}

type shaderShared struct {
	backend   Backend
	id        ShaderID
	locations map[string]int
	refs      atomic.Int32
}

// NewShaderProgram creates an empty shader program. Link it before use.
func NewShaderProgram(b Backend) (*ShaderProgram, error) {
	id, err := b.ShaderCreate()
	if err != nil {
		return nil, err
	}
	s := &shaderShared{backend: b, id: id, locations: make(map[string]int)}
	s.refs.Store(1)
	return &ShaderProgram{shared: s}, nil
}

// NewShaderProgramFromKernels creates a program and links the given
// kernels in one step.
func NewShaderProgramFromKernels(b Backend, kernels []ShaderKernel) (*ShaderProgram, error) {
	p, err := NewShaderProgram(b)
	if err != nil {
		return nil, err
	}
	if err := p.Link(kernels); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

// ID returns the underlying handle.
func (p *ShaderProgram) ID() ShaderID { return p.shared.id }

// Link compiles and links the kernels, replacing any previous program and
// invalidating the location cache.
func (p *ShaderProgram) Link(kernels []ShaderKernel) error {
	if err := p.shared.backend.ShaderLink(p.shared.id, kernels); err != nil {
		return err
	}
	clear(p.shared.locations)
	return nil
}

// UniformLocation resolves a uniform name, consulting the cache first.
func (p *ShaderProgram) UniformLocation(name string) (int, error) {
	if loc, ok := p.shared.locations[name]; ok {
		return loc, nil
	}
	loc, err := p.shared.backend.ShaderUniformLocation(p.shared.id, name)
	if err != nil {
		return 0, err
	}
	p.shared.locations[name] = loc
	return loc, nil
}

// SetUniform resolves the name and writes the value.
func (p *ShaderProgram) SetUniform(name string, value Uniform) error {
	loc, err := p.UniformLocation(name)
	if err != nil {
		return err
	}
	return p.shared.backend.ShaderSetUniform(p.shared.id, loc, value)
}

// Activate makes the program current.
func (p *ShaderProgram) Activate() error {
	return p.shared.backend.ShaderActivate(p.shared.id)
}

// DispatchCompute runs the compute kernel over the given workgroup counts.
func (p *ShaderProgram) DispatchCompute(x, y, z uint32) error {
	return p.shared.backend.ShaderDispatchCompute(p.shared.id, x, y, z)
}

// Clone returns a new reference to the same program.
func (p *ShaderProgram) Clone() *ShaderProgram {
	p.shared.refs.Add(1)
	return &ShaderProgram{shared: p.shared}
}

// Release drops this reference. The last release deletes the program;
// delete failures are logged, never returned.
func (p *ShaderProgram) Release() {
	if p.shared.refs.Add(-1) != 0 {
		return
	}
	if err := p.shared.backend.ShaderDelete(p.shared.id); err != nil {
		Logger().Warn("gfx: shader release failed", "shader", p.shared.id, "error", err)
	}
}
