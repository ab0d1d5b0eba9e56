// Package queue provides a thread-safe deferred render command queue.
//
// Producers record typed commands from any goroutine with Enqueue; the
// frame driver replays them against a backend with Flush, in enqueue
// order. Commands are plain structs, so a recorded queue can be inspected
// or logged before it runs.
package queue

import (
	"fmt"

	"github.com/gogpu/gfx"
)

// CommandType identifies the type of a render command.
type CommandType uint8

// Command types.
const (
	CmdSetRenderTarget CommandType = iota
	CmdSetRenderTargetToDisplay
	CmdClearColorBuffer
	CmdClearDepthBuffer
	CmdSetShader
	CmdSetUniformByKey
	CmdSetUniformByLocation
	CmdDrawMesh
	CmdDispatchCompute
	CmdMemoryBarrier
	CmdBlitToDisplay
)

// String returns a human-readable name for the command type.
func (t CommandType) String() string {
	switch t {
	case CmdSetRenderTarget:
		return "SetRenderTarget"
	case CmdSetRenderTargetToDisplay:
		return "SetRenderTargetToDisplay"
	case CmdClearColorBuffer:
		return "ClearColorBuffer"
	case CmdClearDepthBuffer:
		return "ClearDepthBuffer"
	case CmdSetShader:
		return "SetShader"
	case CmdSetUniformByKey:
		return "SetUniformByKey"
	case CmdSetUniformByLocation:
		return "SetUniformByLocation"
	case CmdDrawMesh:
		return "DrawMesh"
	case CmdDispatchCompute:
		return "DispatchCompute"
	case CmdMemoryBarrier:
		return "MemoryBarrier"
	case CmdBlitToDisplay:
		return "BlitToDisplay"
	default:
		return fmt.Sprintf("CommandType(%d)", t)
	}
}

// Command is a single deferred rendering operation. The command set is
// closed; each command knows how to replay itself against a backend.
type Command interface {
	// Type returns the command's type tag.
	Type() CommandType

	apply(b gfx.Backend) error
}

// SetRenderTarget routes subsequent commands to an off-screen target.
type SetRenderTarget struct {
	Target gfx.TargetID
}

// Type returns CmdSetRenderTarget.
func (SetRenderTarget) Type() CommandType { return CmdSetRenderTarget }

func (c SetRenderTarget) apply(b gfx.Backend) error {
	return b.TargetActivate(c.Target)
}

// SetRenderTargetToDisplay routes subsequent commands back to the default
// framebuffer.
type SetRenderTargetToDisplay struct{}

// Type returns CmdSetRenderTargetToDisplay.
func (SetRenderTargetToDisplay) Type() CommandType { return CmdSetRenderTargetToDisplay }

func (SetRenderTargetToDisplay) apply(b gfx.Backend) error {
	b.TargetActivateDisplay()
	return nil
}

// ClearColorBuffer clears the active target's color attachment.
type ClearColorBuffer struct {
	Color gfx.Color
}

// Type returns CmdClearColorBuffer.
func (ClearColorBuffer) Type() CommandType { return CmdClearColorBuffer }

func (c ClearColorBuffer) apply(b gfx.Backend) error {
	b.ClearColorBuffer(c.Color)
	return nil
}

// ClearDepthBuffer clears the active target's depth attachment.
type ClearDepthBuffer struct {
	Depth float32
}

// Type returns CmdClearDepthBuffer.
func (ClearDepthBuffer) Type() CommandType { return CmdClearDepthBuffer }

func (c ClearDepthBuffer) apply(b gfx.Backend) error {
	b.ClearDepthBuffer(c.Depth)
	return nil
}

// SetShader binds a shader with its fixed-function state and uniforms.
// On flush it expands into set-blend, set-cull, set-scissor, one
// location-resolve and set per uniform in insertion order, and finally
// shader activation. A uniform name the program does not know fails the
// flush with gfx.ErrInvalidUniform.
type SetShader struct {
	Shader   gfx.ShaderID
	Uniforms *gfx.UniformSet
	Blend    gfx.BlendState
	Culling  gfx.CullingMode
	Scissor  gfx.ScissorMode
}

// Type returns CmdSetShader.
func (SetShader) Type() CommandType { return CmdSetShader }

func (c SetShader) apply(b gfx.Backend) error {
	b.SetBlendState(c.Blend)
	b.SetCullingMode(c.Culling)
	b.SetScissorMode(c.Scissor)

	var applyErr error
	if c.Uniforms != nil {
		c.Uniforms.Each(func(name string, value gfx.Uniform) bool {
			loc, err := b.ShaderUniformLocation(c.Shader, name)
			if err != nil {
				applyErr = err
				return false
			}
			if err := b.ShaderSetUniform(c.Shader, loc, value); err != nil {
				applyErr = err
				return false
			}
			return true
		})
	}
	if applyErr != nil {
		return applyErr
	}
	return b.ShaderActivate(c.Shader)
}

// SetUniformByKey writes one uniform, resolving the location by name.
type SetUniformByKey struct {
	Shader gfx.ShaderID
	Name   string
	Value  gfx.Uniform
}

// Type returns CmdSetUniformByKey.
func (SetUniformByKey) Type() CommandType { return CmdSetUniformByKey }

func (c SetUniformByKey) apply(b gfx.Backend) error {
	loc, err := b.ShaderUniformLocation(c.Shader, c.Name)
	if err != nil {
		return err
	}
	return b.ShaderSetUniform(c.Shader, loc, c.Value)
}

// SetUniformByLocation writes one uniform at a known location.
type SetUniformByLocation struct {
	Shader   gfx.ShaderID
	Location int
	Value    gfx.Uniform
}

// Type returns CmdSetUniformByLocation.
func (SetUniformByLocation) Type() CommandType { return CmdSetUniformByLocation }

func (c SetUniformByLocation) apply(b gfx.Backend) error {
	return b.ShaderSetUniform(c.Shader, c.Location, c.Value)
}

// DrawMesh draws a mesh with the active shader and pipeline state.
type DrawMesh struct {
	Mesh        gfx.MeshID
	Topology    gfx.PrimitiveTopology
	VertexCount uint32
	IndexCount  uint32
}

// Type returns CmdDrawMesh.
func (DrawMesh) Type() CommandType { return CmdDrawMesh }

func (c DrawMesh) apply(b gfx.Backend) error {
	return b.MeshDraw(c.Mesh, c.Topology, c.VertexCount, c.IndexCount)
}

// DispatchCompute runs a compute kernel.
type DispatchCompute struct {
	Shader  gfx.ShaderID
	X, Y, Z uint32
}

// Type returns CmdDispatchCompute.
func (DispatchCompute) Type() CommandType { return CmdDispatchCompute }

func (c DispatchCompute) apply(b gfx.Backend) error {
	return b.ShaderDispatchCompute(c.Shader, c.X, c.Y, c.Z)
}

// MemoryBarrier orders GPU memory accesses between commands.
type MemoryBarrier struct {
	Barrier gfx.MemoryBarrier
}

// Type returns CmdMemoryBarrier.
func (MemoryBarrier) Type() CommandType { return CmdMemoryBarrier }

func (c MemoryBarrier) apply(b gfx.Backend) error {
	return b.ShaderMemoryBarrier(c.Barrier)
}

// BlitToDisplay copies a target's color contents to the default
// framebuffer.
type BlitToDisplay struct {
	Source gfx.TargetID
	Filter gfx.TextureFilter
}

// Type returns CmdBlitToDisplay.
func (BlitToDisplay) Type() CommandType { return CmdBlitToDisplay }

func (c BlitToDisplay) apply(b gfx.Backend) error {
	return b.TargetBlitToDisplay(c.Source, c.Filter)
}
