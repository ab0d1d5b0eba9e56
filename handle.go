package gfx

import (
	"fmt"

	"github.com/gogpu/gfx/arena"
)

// Handles identify GPU resources across the Backend interface. Each handle
// packs a generational arena index (slot in the low 32 bits, generation in
// the high 32 bits), so a handle that outlives its resource can never
// resolve to a later occupant of the same slot.
//
// The zero value of every handle type is the reserved "no resource" handle.

// BufferID identifies a graphics buffer.
type BufferID uint64

// TextureID identifies a texture.
type TextureID uint64

// ShaderID identifies a shader program.
type ShaderID uint64

// MeshID identifies a mesh.
type MeshID uint64

// TargetID identifies a render target.
type TargetID uint64

// Reserved "no resource" handles.
const (
	NoBuffer  BufferID  = 0
	NoTexture TextureID = 0
	NoShader  ShaderID  = 0
	NoMesh    MeshID    = 0
	NoTarget  TargetID  = 0
)

// BufferIDFrom converts an arena index into a buffer handle.
func BufferIDFrom(i arena.Index) BufferID { return BufferID(i.Pack()) }

// TextureIDFrom converts an arena index into a texture handle.
func TextureIDFrom(i arena.Index) TextureID { return TextureID(i.Pack()) }

// ShaderIDFrom converts an arena index into a shader handle.
func ShaderIDFrom(i arena.Index) ShaderID { return ShaderID(i.Pack()) }

// MeshIDFrom converts an arena index into a mesh handle.
func MeshIDFrom(i arena.Index) MeshID { return MeshID(i.Pack()) }

// TargetIDFrom converts an arena index into a target handle.
func TargetIDFrom(i arena.Index) TargetID { return TargetID(i.Pack()) }

// Index returns the arena index packed into the handle.
func (id BufferID) Index() arena.Index { return arena.Unpack(uint64(id)) }

// Index returns the arena index packed into the handle.
func (id TextureID) Index() arena.Index { return arena.Unpack(uint64(id)) }

// Index returns the arena index packed into the handle.
func (id ShaderID) Index() arena.Index { return arena.Unpack(uint64(id)) }

// Index returns the arena index packed into the handle.
func (id MeshID) Index() arena.Index { return arena.Unpack(uint64(id)) }

// Index returns the arena index packed into the handle.
func (id TargetID) Index() arena.Index { return arena.Unpack(uint64(id)) }

// IsNone reports whether the handle is the reserved "no resource" value.
func (id BufferID) IsNone() bool { return id == NoBuffer }

// IsNone reports whether the handle is the reserved "no resource" value.
func (id TextureID) IsNone() bool { return id == NoTexture }

// IsNone reports whether the handle is the reserved "no resource" value.
func (id ShaderID) IsNone() bool { return id == NoShader }

// IsNone reports whether the handle is the reserved "no resource" value.
func (id MeshID) IsNone() bool { return id == NoMesh }

// IsNone reports whether the handle is the reserved "no resource" value.
func (id TargetID) IsNone() bool { return id == NoTarget }

func (id BufferID) String() string { return formatHandle("buffer", uint64(id)) }

func (id TextureID) String() string { return formatHandle("texture", uint64(id)) }

func (id ShaderID) String() string { return formatHandle("shader", uint64(id)) }

func (id MeshID) String() string { return formatHandle("mesh", uint64(id)) }

func (id TargetID) String() string { return formatHandle("target", uint64(id)) }

func formatHandle(kind string, v uint64) string {
	if v == 0 {
		return kind + "(none)"
	}
	i := arena.Unpack(v)
	return fmt.Sprintf("%s(%d@%d)", kind, i.Slot, i.Generation)
}
