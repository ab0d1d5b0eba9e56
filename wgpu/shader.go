// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gfx"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// uniformSlotSize is the bytes reserved per uniform location in the
// program's uniform buffer. 64 bytes fits everything up to a Mat4.
const uniformSlotSize = 64

// shaderRes is a shader program's backing state. Uniform values are
// staged CPU-side per location and packed into one uniform buffer right
// before a draw or dispatch.
type shaderRes struct {
	kernels []gfx.ShaderKernel
	linked  bool
	compute bool

	modules map[gfx.ShaderKind]hal.ShaderModule

	locations map[string]int
	names     []string
	values    []gfx.Uniform

	uniformBuf hal.Buffer
	uniformCap uint64

	// generation is bumped on every relink so stale cached pipelines for
	// this program are never reused.
	generation uint64
}

func (r *shaderRes) destroy(device hal.Device) {
	for _, m := range r.modules {
		device.DestroyShaderModule(m)
	}
	r.modules = nil
	if r.uniformBuf != nil {
		device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	r.uniformCap = 0
	r.linked = false
}

// spirvWords converts naga's little-endian byte output into the uint32
// words the HAL shader descriptor takes.
func spirvWords(spirv []byte) []uint32 {
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words
}

// ShaderCreate implements gfx.Backend.
func (b *Backend) ShaderCreate() (gfx.ShaderID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.shaders.Insert(&shaderRes{})
	return gfx.ShaderIDFrom(idx), nil
}

// ShaderLink implements gfx.Backend. Kernels are WGSL; each distinct
// source is compiled to SPIR-V once through naga. Linking replaces any
// previous kernels and resets the uniform table.
func (b *Backend) ShaderLink(id gfx.ShaderID, kernels []gfx.ShaderKernel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.shaders.Get(id.Index())
	if !ok {
		return gfx.InvalidShaderError(id)
	}

	var hasVertex, hasFragment, hasCompute bool
	for _, k := range kernels {
		switch k.Kind {
		case gfx.VertexShader:
			hasVertex = true
		case gfx.FragmentShader:
			hasFragment = true
		case gfx.ComputeShader:
			hasCompute = true
		}
	}
	switch {
	case hasCompute && !hasVertex && !hasFragment:
	case hasVertex && hasFragment && !hasCompute:
	default:
		return gfx.ShaderCompileError("kernels must form a vertex+fragment pair or a single compute kernel")
	}

	compiled := make(map[string]hal.ShaderModule, len(kernels))
	modules := make(map[gfx.ShaderKind]hal.ShaderModule, len(kernels))
	fail := func(err error) error {
		for _, m := range compiled {
			b.device.DestroyShaderModule(m)
		}
		return err
	}
	for _, k := range kernels {
		if m, ok := compiled[k.Code]; ok {
			modules[k.Kind] = m
			continue
		}
		spirv, err := naga.Compile(k.Code)
		if err != nil {
			return fail(gfx.ShaderCompileError(err.Error()))
		}
		m, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  "gfx_shader",
			Source: hal.ShaderSource{SPIRV: spirvWords(spirv)},
		})
		if err != nil {
			return fail(gfx.ShaderCompileError(err.Error()))
		}
		compiled[k.Code] = m
		modules[k.Kind] = m
	}

	r.destroy(b.device)
	b.pipelines.invalidateShader(id)
	r.kernels = append(r.kernels[:0], kernels...)
	r.modules = modules
	r.compute = hasCompute
	r.locations = nil
	r.names = nil
	r.values = nil
	r.generation++
	r.linked = true
	return nil
}

// ShaderUniformLocation implements gfx.Backend. Locations are assigned
// lazily in first-use order; unlinked programs resolve nothing.
func (b *Backend) ShaderUniformLocation(id gfx.ShaderID, name string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.shaders.Get(id.Index())
	if !ok {
		return -1, gfx.InvalidShaderError(id)
	}
	if !r.linked {
		return -1, gfx.InvalidUniformError(name)
	}
	if loc, ok := r.locations[name]; ok {
		return loc, nil
	}
	if r.locations == nil {
		r.locations = make(map[string]int)
	}
	loc := len(r.names)
	r.locations[name] = loc
	r.names = append(r.names, name)
	r.values = append(r.values, nil)
	return loc, nil
}

// ShaderSetUniform implements gfx.Backend. The value is staged; the GPU
// buffer is refreshed on the next draw or dispatch.
func (b *Backend) ShaderSetUniform(id gfx.ShaderID, location int, value gfx.Uniform) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.shaders.Get(id.Index())
	if !ok {
		return gfx.InvalidShaderError(id)
	}
	if location < 0 || location >= len(r.values) {
		return fmt.Errorf("%w: location %d", gfx.ErrInvalidUniform, location)
	}
	if _, ok := value.(gfx.TextureBinding); !ok {
		var slot [uniformSlotSize]byte
		if !packUniform(&slot, value) {
			return fmt.Errorf("%w: unsupported value type %T", gfx.ErrInvalidUniform, value)
		}
	}
	r.values[location] = value
	return nil
}

// ShaderDelete implements gfx.Backend.
func (b *Backend) ShaderDelete(id gfx.ShaderID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.shaders.Remove(id.Index())
	if !ok {
		return gfx.InvalidShaderError(id)
	}
	r.destroy(b.device)
	b.pipelines.invalidateShader(id)
	if b.activeShader == id {
		b.activeShader = gfx.NoShader
	}
	return nil
}

// packUniform writes value into a 64-byte slot, little-endian, column
// major for matrices. Reports false for unsupported types.
func packUniform(slot *[uniformSlotSize]byte, value gfx.Uniform) bool {
	putF32 := func(off int, v float32) {
		binary.LittleEndian.PutUint32(slot[off:], math.Float32bits(v))
	}
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		if v {
			binary.LittleEndian.PutUint32(slot[0:], 1)
		}
	case int32:
		binary.LittleEndian.PutUint32(slot[0:], uint32(v))
	case uint32:
		binary.LittleEndian.PutUint32(slot[0:], v)
	case float32:
		putF32(0, v)
	case gfx.Vec2:
		for i, f := range v {
			putF32(i*4, f)
		}
	case gfx.Vec3:
		for i, f := range v {
			putF32(i*4, f)
		}
	case gfx.Vec4:
		for i, f := range v {
			putF32(i*4, f)
		}
	case gfx.Mat2:
		for i, f := range v {
			putF32(i*4, f)
		}
	case gfx.Mat3:
		for i, f := range v {
			putF32(i*4, f)
		}
	case gfx.Mat4:
		for i, f := range v {
			putF32(i*4, f)
		}
	default:
		return false
	}
	return true
}

// uniformData packs the program's staged values into one contiguous
// buffer image, one 64-byte slot per location. Texture bindings occupy
// their slot but contribute no data.
func uniformData(r *shaderRes) []byte {
	if len(r.values) == 0 {
		return nil
	}
	data := make([]byte, len(r.values)*uniformSlotSize)
	for loc, v := range r.values {
		if _, ok := v.(gfx.TextureBinding); ok {
			continue
		}
		var slot [uniformSlotSize]byte
		packUniform(&slot, v)
		copy(data[loc*uniformSlotSize:], slot[:])
	}
	return data
}
