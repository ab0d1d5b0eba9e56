// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gputypes"
)

func TestHalFormat(t *testing.T) {
	tests := []struct {
		in   gfx.TextureFormat
		want gputypes.TextureFormat
	}{
		{gfx.TextureRGBA8, gputypes.TextureFormatRGBA8Unorm},
		{gfx.TextureR8, gputypes.TextureFormatR8Unorm},
		{gfx.TextureRGBA32F, gputypes.TextureFormatRGBA32Float},
		{gfx.TextureDepth32F, gputypes.TextureFormatDepth32Float},
	}
	for _, tt := range tests {
		if got := halFormat(tt.in); got != tt.want {
			t.Errorf("halFormat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHalTopology(t *testing.T) {
	tests := []struct {
		in   gfx.PrimitiveTopology
		want gputypes.PrimitiveTopology
	}{
		{gfx.Triangles, gputypes.PrimitiveTopologyTriangleList},
		{gfx.Points, gputypes.PrimitiveTopologyPointList},
		{gfx.Lines, gputypes.PrimitiveTopologyLineList},
	}
	for _, tt := range tests {
		if got := halTopology(tt.in); got != tt.want {
			t.Errorf("halTopology(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHalCullMode(t *testing.T) {
	tests := []struct {
		in   gfx.CullingMode
		want gputypes.CullMode
	}{
		{gfx.CullDisabled, gputypes.CullModeNone},
		{gfx.CullFront, gputypes.CullModeFront},
		{gfx.CullBack, gputypes.CullModeBack},
		{gfx.CullBoth, gputypes.CullModeNone},
	}
	for _, tt := range tests {
		if got := halCullMode(tt.in); got != tt.want {
			t.Errorf("halCullMode(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVertexFormat(t *testing.T) {
	tests := []struct {
		desc gfx.VertexDescriptor
		want gputypes.VertexFormat
	}{
		{gfx.VertexDescriptor{Count: 1, Kind: gfx.VertexF32}, gputypes.VertexFormatFloat32},
		{gfx.VertexDescriptor{Count: 3, Kind: gfx.VertexF32}, gputypes.VertexFormatFloat32x3},
		{gfx.VertexDescriptor{Count: 2, Kind: gfx.VertexU32}, gputypes.VertexFormatUint32x2},
		{gfx.VertexDescriptor{Count: 4, Kind: gfx.VertexI32}, gputypes.VertexFormatSint32x4},
		{gfx.VertexDescriptor{Count: 4, Kind: gfx.VertexU8, Normalize: true}, gputypes.VertexFormatUnorm8x4},
	}
	for _, tt := range tests {
		got, err := vertexFormat(tt.desc)
		if err != nil {
			t.Errorf("vertexFormat(%+v): %v", tt.desc, err)
			continue
		}
		if got != tt.want {
			t.Errorf("vertexFormat(%+v) = %v, want %v", tt.desc, got, tt.want)
		}
	}

	// Non-normalized bytes have no device-side representation.
	if _, err := vertexFormat(gfx.VertexDescriptor{Count: 4, Kind: gfx.VertexU8}); !errors.Is(err, gfx.ErrInvalidMesh) {
		t.Errorf("unsupported descriptor = %v, want ErrInvalidMesh", err)
	}
}

func TestHashVertexLayout(t *testing.T) {
	a := []gfx.VertexDescriptor{
		{Count: 3, Kind: gfx.VertexF32},
		{Count: 4, Kind: gfx.VertexU8, Normalize: true},
	}
	b := []gfx.VertexDescriptor{
		{Count: 3, Kind: gfx.VertexF32},
		{Count: 4, Kind: gfx.VertexU8},
	}
	if hashVertexLayout(a) != hashVertexLayout(a) {
		t.Error("hash is not deterministic")
	}
	if hashVertexLayout(a) == hashVertexLayout(b) {
		t.Error("layouts differing only in Normalize hash equal")
	}
	if hashVertexLayout(a) == hashVertexLayout(a[:1]) {
		t.Error("prefix layout hashes equal to full layout")
	}
}

func TestSpirvWords(t *testing.T) {
	// SPIR-V magic number, as bytes on the wire.
	words := spirvWords([]byte{0x03, 0x02, 0x23, 0x07})
	if len(words) != 1 || words[0] != 0x07230203 {
		t.Errorf("words = %#x, want [0x07230203]", words)
	}
}

func TestPackUniform(t *testing.T) {
	var slot [uniformSlotSize]byte
	if !packUniform(&slot, float32(1.5)) {
		t.Fatal("float32 rejected")
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(slot[0:])); got != 1.5 {
		t.Errorf("float32 slot = %v, want 1.5", got)
	}

	slot = [uniformSlotSize]byte{}
	if !packUniform(&slot, gfx.Vec3{1, 2, 3}) {
		t.Fatal("Vec3 rejected")
	}
	for i, want := range []float32{1, 2, 3} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(slot[i*4:]))
		if got != want {
			t.Errorf("Vec3[%d] = %v, want %v", i, got, want)
		}
	}

	slot = [uniformSlotSize]byte{}
	if !packUniform(&slot, true) {
		t.Fatal("bool rejected")
	}
	if binary.LittleEndian.Uint32(slot[0:]) != 1 {
		t.Error("true did not pack to 1")
	}

	if packUniform(&slot, "not a uniform") {
		t.Error("unsupported type accepted")
	}
	if !packUniform(&slot, nil) {
		t.Error("nil rejected")
	}
}

func TestUniformData(t *testing.T) {
	r := &shaderRes{values: []gfx.Uniform{
		float32(2),
		gfx.TextureBinding{},
		int32(-1),
	}}
	data := uniformData(r)
	if len(data) != 3*uniformSlotSize {
		t.Fatalf("len = %d, want %d", len(data), 3*uniformSlotSize)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[0:])); got != 2 {
		t.Errorf("slot 0 = %v, want 2", got)
	}
	for _, b := range data[uniformSlotSize : 2*uniformSlotSize] {
		if b != 0 {
			t.Fatal("texture binding slot not zeroed")
		}
	}
	if got := int32(binary.LittleEndian.Uint32(data[2*uniformSlotSize:])); got != -1 {
		t.Errorf("slot 2 = %d, want -1", got)
	}

	if uniformData(&shaderRes{}) != nil {
		t.Error("empty program produced data")
	}
}
