package headless

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/gfx"
)

func TestBufferLifecycle(t *testing.T) {
	b := New()
	defer b.Close()

	id, err := b.BufferCreate(gfx.ElementBuffer, gfx.StaticUsage)
	if err != nil {
		t.Fatalf("BufferCreate: %v", err)
	}
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := b.BufferWrite(id, data); err != nil {
		t.Fatalf("BufferWrite: %v", err)
	}

	got := make([]byte, 4)
	if err := b.BufferRead(id, got, 2); err != nil {
		t.Fatalf("BufferRead: %v", err)
	}
	if !bytes.Equal(got, data[2:6]) {
		t.Errorf("read = %v, want %v", got, data[2:6])
	}

	if err := b.BufferRead(id, make([]byte, 8), 4); !errors.Is(err, gfx.ErrBufferTooSmall) {
		t.Errorf("out-of-range read = %v, want ErrBufferTooSmall", err)
	}
	if err := b.BufferWrite(id, nil); !errors.Is(err, gfx.ErrNilData) {
		t.Errorf("nil write = %v, want ErrNilData", err)
	}

	if err := b.BufferDelete(id); err != nil {
		t.Fatalf("BufferDelete: %v", err)
	}
	if err := b.BufferDelete(id); !errors.Is(err, gfx.ErrInvalidBuffer) {
		t.Errorf("second delete = %v, want ErrInvalidBuffer", err)
	}
	if err := b.BufferWrite(id, data); !errors.Is(err, gfx.ErrInvalidBuffer) {
		t.Errorf("write after delete = %v, want ErrInvalidBuffer", err)
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	b := New()
	defer b.Close()

	old, err := b.BufferCreate(gfx.ElementBuffer, gfx.StaticUsage)
	if err != nil {
		t.Fatalf("BufferCreate: %v", err)
	}
	if err := b.BufferDelete(old); err != nil {
		t.Fatalf("BufferDelete: %v", err)
	}

	// The next create reuses the freed slot under a new generation.
	fresh, err := b.BufferCreate(gfx.IndexBuffer, gfx.DynamicUsage)
	if err != nil {
		t.Fatalf("BufferCreate: %v", err)
	}
	if fresh.Index().Slot != old.Index().Slot {
		t.Fatalf("slot not reused: old %v, fresh %v", old, fresh)
	}
	if fresh == old {
		t.Fatal("fresh handle equals deleted handle")
	}

	if err := b.BufferWrite(old, []byte{1}); !errors.Is(err, gfx.ErrInvalidBuffer) {
		t.Errorf("stale write = %v, want ErrInvalidBuffer", err)
	}
	if err := b.BufferWrite(fresh, []byte{1}); err != nil {
		t.Errorf("fresh write = %v", err)
	}
}

func TestTextureLifecycle(t *testing.T) {
	b := New()
	defer b.Close()

	id, err := b.TextureCreate(gfx.TextureSampler{MinFilter: gfx.FilterNearest})
	if err != nil {
		t.Fatalf("TextureCreate: %v", err)
	}
	if err := b.TextureInitialize(id, 4, 4, gfx.TextureRGBA8); err != nil {
		t.Fatalf("TextureInitialize: %v", err)
	}

	pixels := make([]byte, 4*4*4)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	if err := b.TextureWrite(id, 4, 4, gfx.TextureRGBA8, pixels); err != nil {
		t.Fatalf("TextureWrite: %v", err)
	}

	got := make([]byte, len(pixels))
	if err := b.TextureRead(id, got); err != nil {
		t.Fatalf("TextureRead: %v", err)
	}
	if !bytes.Equal(got, pixels) {
		t.Error("read pixels differ from written pixels")
	}
	if err := b.TextureRead(id, make([]byte, 8)); !errors.Is(err, gfx.ErrBufferTooSmall) {
		t.Errorf("short read = %v, want ErrBufferTooSmall", err)
	}

	if err := b.TextureDelete(id); err != nil {
		t.Fatalf("TextureDelete: %v", err)
	}
	if err := b.TextureRead(id, got); !errors.Is(err, gfx.ErrInvalidTexture) {
		t.Errorf("read after delete = %v, want ErrInvalidTexture", err)
	}
}

func TestTextureWriteSub(t *testing.T) {
	b := New()
	defer b.Close()

	id, _ := b.TextureCreate(gfx.TextureSampler{})
	if err := b.TextureInitialize(id, 4, 4, gfx.TextureR8); err != nil {
		t.Fatalf("TextureInitialize: %v", err)
	}

	region := gfx.Rect{Left: 1, Bottom: 1, Width: 2, Height: 2}
	if err := b.TextureWriteSub(id, region, gfx.TextureR8, []byte{9, 8, 7, 6}); err != nil {
		t.Fatalf("TextureWriteSub: %v", err)
	}

	got := make([]byte, 16)
	if err := b.TextureRead(id, got); err != nil {
		t.Fatalf("TextureRead: %v", err)
	}
	want := []byte{
		0, 0, 0, 0,
		0, 9, 8, 0,
		0, 7, 6, 0,
		0, 0, 0, 0,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("pixels = %v, want %v", got, want)
	}

	oob := gfx.Rect{Left: 3, Bottom: 3, Width: 2, Height: 2}
	if err := b.TextureWriteSub(id, oob, gfx.TextureR8, []byte{0, 0, 0, 0}); !errors.Is(err, gfx.ErrBufferTooSmall) {
		t.Errorf("out-of-bounds sub write = %v, want ErrBufferTooSmall", err)
	}

	// A format other than the texture's own would corrupt the stride math.
	if err := b.TextureWriteSub(id, region, gfx.TextureRGBA8, make([]byte, 16)); !errors.Is(err, gfx.ErrBufferTooSmall) {
		t.Errorf("mismatched-format sub write = %v, want ErrBufferTooSmall", err)
	}
}

func TestClearColorBufferFillsActiveTarget(t *testing.T) {
	b := New()
	defer b.Close()

	color, _ := b.TextureCreate(gfx.TextureSampler{})
	if err := b.TextureInitialize(color, 2, 2, gfx.TextureRGBA8); err != nil {
		t.Fatalf("TextureInitialize: %v", err)
	}
	target, err := b.TargetCreate(2, 2, color, gfx.NoTexture)
	if err != nil {
		t.Fatalf("TargetCreate: %v", err)
	}
	if err := b.TargetActivate(target); err != nil {
		t.Fatalf("TargetActivate: %v", err)
	}

	b.ClearColorBuffer(gfx.Color{R: 1, G: 0, B: 0, A: 1})

	got := make([]byte, 16)
	if err := b.TextureRead(color, got); err != nil {
		t.Fatalf("TextureRead: %v", err)
	}
	for px := 0; px < 4; px++ {
		r, g, bl, a := got[px*4], got[px*4+1], got[px*4+2], got[px*4+3]
		if r != 255 || g != 0 || bl != 0 || a != 255 {
			t.Fatalf("pixel %d = %d,%d,%d,%d; want 255,0,0,255", px, r, g, bl, a)
		}
	}
}

func TestShaderUniformLocations(t *testing.T) {
	b := New()
	defer b.Close()

	id, err := b.ShaderCreate()
	if err != nil {
		t.Fatalf("ShaderCreate: %v", err)
	}

	// Unlinked programs have no uniforms.
	if _, err := b.ShaderUniformLocation(id, "u_mvp"); !errors.Is(err, gfx.ErrInvalidUniform) {
		t.Errorf("unlinked lookup = %v, want ErrInvalidUniform", err)
	}

	kernels := []gfx.ShaderKernel{
		{Kind: gfx.VertexShader, Code: "vs"},
		{Kind: gfx.FragmentShader, Code: "fs"},
	}
	if err := b.ShaderLink(id, kernels); err != nil {
		t.Fatalf("ShaderLink: %v", err)
	}

	first, err := b.ShaderUniformLocation(id, "u_mvp")
	if err != nil {
		t.Fatalf("ShaderUniformLocation: %v", err)
	}
	second, err := b.ShaderUniformLocation(id, "u_color")
	if err != nil {
		t.Fatalf("ShaderUniformLocation: %v", err)
	}
	if first == second {
		t.Errorf("distinct names share location %d", first)
	}
	again, err := b.ShaderUniformLocation(id, "u_mvp")
	if err != nil || again != first {
		t.Errorf("repeat lookup = %d, %v; want %d, nil", again, err, first)
	}

	if err := b.ShaderSetUniform(id, first, gfx.Vec4{1, 2, 3, 4}); err != nil {
		t.Errorf("ShaderSetUniform: %v", err)
	}
	if err := b.ShaderSetUniform(id, 99, float32(1)); !errors.Is(err, gfx.ErrInvalidUniform) {
		t.Errorf("unassigned location = %v, want ErrInvalidUniform", err)
	}

	// Relinking resets the uniform table.
	if err := b.ShaderLink(id, kernels); err != nil {
		t.Fatalf("ShaderLink: %v", err)
	}
	if err := b.ShaderSetUniform(id, first, float32(1)); !errors.Is(err, gfx.ErrInvalidUniform) {
		t.Errorf("location survived relink: %v", err)
	}
}

func TestShaderActivateAndDelete(t *testing.T) {
	b := New()
	defer b.Close()

	id, _ := b.ShaderCreate()
	if err := b.ShaderLink(id, []gfx.ShaderKernel{{Kind: gfx.ComputeShader, Code: "cs"}}); err != nil {
		t.Fatalf("ShaderLink: %v", err)
	}
	if err := b.ShaderActivate(id); err != nil {
		t.Fatalf("ShaderActivate: %v", err)
	}
	if err := b.ShaderDispatchCompute(id, 8, 8, 1); err != nil {
		t.Fatalf("ShaderDispatchCompute: %v", err)
	}
	if err := b.ShaderDelete(id); err != nil {
		t.Fatalf("ShaderDelete: %v", err)
	}
	if err := b.ShaderActivate(id); !errors.Is(err, gfx.ErrInvalidShader) {
		t.Errorf("activate after delete = %v, want ErrInvalidShader", err)
	}
}

func TestMeshCreateValidatesBuffers(t *testing.T) {
	b := New()
	defer b.Close()

	vertices, _ := b.BufferCreate(gfx.ElementBuffer, gfx.StaticUsage)
	descriptors := []gfx.VertexDescriptor{{Count: 2, Kind: gfx.VertexF32}}

	id, err := b.MeshCreate(vertices, gfx.NoBuffer, descriptors)
	if err != nil {
		t.Fatalf("MeshCreate without indices: %v", err)
	}
	if err := b.MeshDraw(id, gfx.Triangles, 3, 0); err != nil {
		t.Errorf("MeshDraw: %v", err)
	}

	bogus := gfx.BufferID(0x0000000100000009)
	if _, err := b.MeshCreate(bogus, gfx.NoBuffer, descriptors); !errors.Is(err, gfx.ErrInvalidBuffer) {
		t.Errorf("bad vertex buffer = %v, want ErrInvalidBuffer", err)
	}
	if _, err := b.MeshCreate(vertices, bogus, descriptors); !errors.Is(err, gfx.ErrInvalidBuffer) {
		t.Errorf("bad index buffer = %v, want ErrInvalidBuffer", err)
	}

	if err := b.MeshDelete(id); err != nil {
		t.Fatalf("MeshDelete: %v", err)
	}
	if err := b.MeshDraw(id, gfx.Triangles, 3, 0); !errors.Is(err, gfx.ErrInvalidMesh) {
		t.Errorf("draw after delete = %v, want ErrInvalidMesh", err)
	}
}

func TestTargetCreateValidatesAttachments(t *testing.T) {
	b := New()
	defer b.Close()

	color, _ := b.TextureCreate(gfx.TextureSampler{})
	bogus := gfx.TextureID(0x0000000100000007)

	if _, err := b.TargetCreate(8, 8, bogus, gfx.NoTexture); !errors.Is(err, gfx.ErrInvalidTexture) {
		t.Errorf("bad color attachment = %v, want ErrInvalidTexture", err)
	}
	if _, err := b.TargetCreate(8, 8, color, bogus); !errors.Is(err, gfx.ErrInvalidTexture) {
		t.Errorf("bad depth attachment = %v, want ErrInvalidTexture", err)
	}

	id, err := b.TargetCreate(8, 8, color, gfx.NoTexture)
	if err != nil {
		t.Fatalf("TargetCreate: %v", err)
	}
	if err := b.TargetActivate(id); err != nil {
		t.Fatalf("TargetActivate: %v", err)
	}
	if err := b.TargetBlitToDisplay(id, gfx.FilterLinear); err != nil {
		t.Errorf("TargetBlitToDisplay: %v", err)
	}
	if err := b.TargetDelete(id); err != nil {
		t.Fatalf("TargetDelete: %v", err)
	}
	if err := b.TargetActivate(id); !errors.Is(err, gfx.ErrInvalidTarget) {
		t.Errorf("activate after delete = %v, want ErrInvalidTarget", err)
	}
}

func TestTargetBlitCopiesPixels(t *testing.T) {
	b := New()
	defer b.Close()

	makeTarget := func() (gfx.TargetID, gfx.TextureID) {
		tex, _ := b.TextureCreate(gfx.TextureSampler{})
		if err := b.TextureInitialize(tex, 2, 2, gfx.TextureRGBA8); err != nil {
			t.Fatalf("TextureInitialize: %v", err)
		}
		id, err := b.TargetCreate(2, 2, tex, gfx.NoTexture)
		if err != nil {
			t.Fatalf("TargetCreate: %v", err)
		}
		return id, tex
	}
	src, srcTex := makeTarget()
	dst, dstTex := makeTarget()

	pixels := make([]byte, 16)
	for i := range pixels {
		pixels[i] = byte(0xA0 + i)
	}
	if err := b.TextureWrite(srcTex, 2, 2, gfx.TextureRGBA8, pixels); err != nil {
		t.Fatalf("TextureWrite: %v", err)
	}
	if err := b.TargetBlit(src, dst, gfx.FilterNearest); err != nil {
		t.Fatalf("TargetBlit: %v", err)
	}

	got := make([]byte, 16)
	if err := b.TextureRead(dstTex, got); err != nil {
		t.Fatalf("TextureRead: %v", err)
	}
	if !bytes.Equal(got, pixels) {
		t.Errorf("blit pixels = %v, want %v", got, pixels)
	}

	if err := b.TargetBlit(gfx.TargetID(0x0000000100000042), dst, gfx.FilterNearest); !errors.Is(err, gfx.ErrInvalidTarget) {
		t.Errorf("bad source = %v, want ErrInvalidTarget", err)
	}
}

func TestStats(t *testing.T) {
	b := New()
	defer b.Close()

	buf, _ := b.BufferCreate(gfx.ElementBuffer, gfx.StaticUsage)
	tex, _ := b.TextureCreate(gfx.TextureSampler{})
	sh, _ := b.ShaderCreate()
	mesh, _ := b.MeshCreate(buf, gfx.NoBuffer, []gfx.VertexDescriptor{{Count: 2, Kind: gfx.VertexF32}})

	b.BeginFrame()
	if err := b.MeshDraw(mesh, gfx.Triangles, 3, 0); err != nil {
		t.Fatalf("MeshDraw: %v", err)
	}
	if err := b.ShaderDispatchCompute(sh, 1, 1, 1); err != nil {
		t.Fatalf("ShaderDispatchCompute: %v", err)
	}
	b.EndFrame()

	got := b.Stats()
	want := Stats{
		LiveBuffers:  1,
		LiveTextures: 1,
		LiveShaders:  1,
		LiveMeshes:   1,
		DrawCalls:    1,
		Dispatches:   1,
		Frames:       1,
	}
	if got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}

	if err := b.TextureDelete(tex); err != nil {
		t.Fatalf("TextureDelete: %v", err)
	}
	if b.Stats().LiveTextures != 0 {
		t.Errorf("LiveTextures = %d after delete", b.Stats().LiveTextures)
	}
}

func TestCloseDropsResources(t *testing.T) {
	b := New()
	id, _ := b.BufferCreate(gfx.ElementBuffer, gfx.StaticUsage)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.BufferWrite(id, []byte{1}); !errors.Is(err, gfx.ErrInvalidBuffer) {
		t.Errorf("write after close = %v, want ErrInvalidBuffer", err)
	}
	if b.Stats().LiveBuffers != 0 {
		t.Errorf("LiveBuffers = %d after close", b.Stats().LiveBuffers)
	}
}

func TestRegisteredWithDefaultRegistry(t *testing.T) {
	if !gfx.IsRegistered(Name) {
		t.Fatalf("%q not registered", Name)
	}
	d, err := gfx.Open(Name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.Name() != Name {
		t.Errorf("Name = %q, want %q", d.Name(), Name)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
