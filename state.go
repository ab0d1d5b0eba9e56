package gfx

import "fmt"

// Rect is an axis-aligned rectangle in framebuffer pixel coordinates,
// with the origin at the bottom-left corner.
type Rect struct {
	Left   int32
	Bottom int32
	Width  int32
	Height int32
}

// Right returns the exclusive right edge.
func (r Rect) Right() int32 { return r.Left + r.Width }

// Top returns the exclusive top edge.
func (r Rect) Top() int32 { return r.Bottom + r.Height }

// BlendFactor is a blend equation operand.
type BlendFactor uint8

// Blend factors.
const (
	BlendOne BlendFactor = iota
	BlendZero
	BlendSrcAlpha
	BlendSrcColor
	BlendDstAlpha
	BlendDstColor
	BlendOneMinusSrcAlpha
	BlendOneMinusSrcColor
	BlendOneMinusDstAlpha
	BlendOneMinusDstColor
)

func (f BlendFactor) String() string {
	switch f {
	case BlendOne:
		return "one"
	case BlendZero:
		return "zero"
	case BlendSrcAlpha:
		return "src_alpha"
	case BlendSrcColor:
		return "src_color"
	case BlendDstAlpha:
		return "dst_alpha"
	case BlendDstColor:
		return "dst_color"
	case BlendOneMinusSrcAlpha:
		return "one_minus_src_alpha"
	case BlendOneMinusSrcColor:
		return "one_minus_src_color"
	case BlendOneMinusDstAlpha:
		return "one_minus_dst_alpha"
	case BlendOneMinusDstColor:
		return "one_minus_dst_color"
	default:
		return fmt.Sprintf("BlendFactor(%d)", f)
	}
}

// BlendState describes fixed-function blending. The zero value disables
// blending.
type BlendState struct {
	Enabled     bool
	Source      BlendFactor
	Destination BlendFactor
}

// BlendDisabled is the default blend state.
var BlendDisabled = BlendState{}

// BlendAlpha is standard premultiplied-style alpha blending
// (src_alpha, one_minus_src_alpha).
var BlendAlpha = BlendState{
	Enabled:     true,
	Source:      BlendSrcAlpha,
	Destination: BlendOneMinusSrcAlpha,
}

// CullingMode selects which triangle faces are discarded.
type CullingMode uint8

// Culling modes.
const (
	CullDisabled CullingMode = iota
	CullFront
	CullBack
	CullBoth
)

func (m CullingMode) String() string {
	switch m {
	case CullDisabled:
		return "disabled"
	case CullFront:
		return "front"
	case CullBack:
		return "back"
	case CullBoth:
		return "both"
	default:
		return fmt.Sprintf("CullingMode(%d)", m)
	}
}

// ScissorMode describes scissor testing. The zero value disables the
// scissor test.
type ScissorMode struct {
	Enabled bool
	Region  Rect
}

// ScissorDisabled is the default scissor state.
var ScissorDisabled = ScissorMode{}

// Scissor returns an enabled scissor state covering the given region.
func Scissor(region Rect) ScissorMode {
	return ScissorMode{Enabled: true, Region: region}
}

// PrimitiveTopology selects how vertex streams are assembled.
type PrimitiveTopology uint8

// Primitive topologies. Triangles is the default.
const (
	Triangles PrimitiveTopology = iota
	Points
	Lines
)

func (t PrimitiveTopology) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case Points:
		return "points"
	case Lines:
		return "lines"
	default:
		return fmt.Sprintf("PrimitiveTopology(%d)", t)
	}
}

// BufferKind distinguishes vertex data from index data.
type BufferKind uint8

// Buffer kinds.
const (
	// ElementBuffer holds vertex attribute data.
	ElementBuffer BufferKind = iota
	// IndexBuffer holds triangle indices.
	IndexBuffer
)

func (k BufferKind) String() string {
	switch k {
	case ElementBuffer:
		return "element"
	case IndexBuffer:
		return "index"
	default:
		return fmt.Sprintf("BufferKind(%d)", k)
	}
}

// BufferUsage is an update-frequency hint for buffer allocation.
type BufferUsage uint8

// Buffer usage hints.
const (
	// StaticUsage marks data written once and drawn many times.
	StaticUsage BufferUsage = iota
	// DynamicUsage marks data rewritten frequently.
	DynamicUsage
)

func (u BufferUsage) String() string {
	switch u {
	case StaticUsage:
		return "static"
	case DynamicUsage:
		return "dynamic"
	default:
		return fmt.Sprintf("BufferUsage(%d)", u)
	}
}

// TextureFormat describes the pixel layout of a texture.
type TextureFormat uint8

// Texture formats.
const (
	// TextureRGBA8 is 8 bits per channel, 4 channels. The default.
	TextureRGBA8 TextureFormat = iota
	// TextureRGBA32F is 32-bit float per channel, 4 channels.
	TextureRGBA32F
	// TextureR8 is a single 8-bit channel.
	TextureR8
	// TextureDepth32F is a 32-bit float depth attachment format.
	TextureDepth32F
)

// BytesPerPixel returns the size of one pixel in this format.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureRGBA32F:
		return 16
	case TextureR8:
		return 1
	case TextureDepth32F:
		return 4
	default:
		return 4
	}
}

func (f TextureFormat) String() string {
	switch f {
	case TextureRGBA8:
		return "rgba8"
	case TextureRGBA32F:
		return "rgba32f"
	case TextureR8:
		return "r8"
	case TextureDepth32F:
		return "depth32f"
	default:
		return fmt.Sprintf("TextureFormat(%d)", f)
	}
}

// TextureFilter selects minification/magnification filtering.
type TextureFilter uint8

// Texture filters.
const (
	FilterLinear TextureFilter = iota
	FilterNearest
)

func (f TextureFilter) String() string {
	switch f {
	case FilterLinear:
		return "linear"
	case FilterNearest:
		return "nearest"
	default:
		return fmt.Sprintf("TextureFilter(%d)", f)
	}
}

// TextureWrap selects addressing outside [0, 1] texture coordinates.
type TextureWrap uint8

// Texture wrap modes.
const (
	WrapClampToEdge TextureWrap = iota
	WrapRepeat
	WrapMirroredRepeat
)

func (w TextureWrap) String() string {
	switch w {
	case WrapClampToEdge:
		return "clamp_to_edge"
	case WrapRepeat:
		return "repeat"
	case WrapMirroredRepeat:
		return "mirrored_repeat"
	default:
		return fmt.Sprintf("TextureWrap(%d)", w)
	}
}

// TextureSampler describes how a texture is sampled when bound. The zero
// value is linear filtering with clamp-to-edge addressing.
type TextureSampler struct {
	MinFilter TextureFilter
	MagFilter TextureFilter
	WrapU     TextureWrap
	WrapV     TextureWrap
}

// VertexKind is the scalar type of one vertex attribute.
type VertexKind uint8

// Vertex attribute scalar kinds.
const (
	VertexF32 VertexKind = iota
	VertexU8
	VertexU16
	VertexU32
	VertexI8
	VertexI16
	VertexI32
)

// Size returns the size in bytes of one scalar of this kind.
func (k VertexKind) Size() int {
	switch k {
	case VertexU8, VertexI8:
		return 1
	case VertexU16, VertexI16:
		return 2
	default:
		return 4
	}
}

func (k VertexKind) String() string {
	switch k {
	case VertexF32:
		return "f32"
	case VertexU8:
		return "u8"
	case VertexU16:
		return "u16"
	case VertexU32:
		return "u32"
	case VertexI8:
		return "i8"
	case VertexI16:
		return "i16"
	case VertexI32:
		return "i32"
	default:
		return fmt.Sprintf("VertexKind(%d)", k)
	}
}

// VertexDescriptor describes one attribute in an interleaved vertex layout.
type VertexDescriptor struct {
	// Count is the number of scalars in the attribute (e.g. 3 for vec3).
	Count int
	// Kind is the scalar type of each component.
	Kind VertexKind
	// Normalize converts integer components to [0, 1] floats on fetch.
	Normalize bool
}

// Size returns the size of the attribute in bytes.
func (d VertexDescriptor) Size() int { return d.Count * d.Kind.Size() }

// VertexStride returns the byte stride of one interleaved vertex.
func VertexStride(descriptors []VertexDescriptor) int {
	stride := 0
	for _, d := range descriptors {
		stride += d.Size()
	}
	return stride
}

// MemoryBarrier orders GPU memory accesses across dispatches.
type MemoryBarrier uint8

// Memory barriers.
const (
	// BarrierImage orders image load/store accesses.
	BarrierImage MemoryBarrier = iota
	// BarrierBuffer orders shader storage buffer accesses.
	BarrierBuffer
	// BarrierAll orders all incoherent accesses.
	BarrierAll
)

func (b MemoryBarrier) String() string {
	switch b {
	case BarrierImage:
		return "image"
	case BarrierBuffer:
		return "buffer"
	case BarrierAll:
		return "all"
	default:
		return fmt.Sprintf("MemoryBarrier(%d)", b)
	}
}

// ShaderKind identifies one stage of a shader program.
type ShaderKind uint8

// Shader kinds.
const (
	VertexShader ShaderKind = iota
	FragmentShader
	ComputeShader
)

func (k ShaderKind) String() string {
	switch k {
	case VertexShader:
		return "vertex"
	case FragmentShader:
		return "fragment"
	case ComputeShader:
		return "compute"
	default:
		return fmt.Sprintf("ShaderKind(%d)", k)
	}
}

// ShaderKernel is one compilable shader stage: its kind plus source code.
// Backends define the expected source language (the wgpu backend compiles
// WGSL; the headless backend accepts anything).
type ShaderKernel struct {
	Kind ShaderKind
	Code string
}
