// Command gfxdemo renders one frame through the gfx device facade and
// writes it to a PNG. It runs against any registered backend; with the
// headless backend it needs no GPU, which makes it usable as a smoke
// test on CI.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/headless"
	"github.com/gogpu/gfx/queue"
	_ "github.com/gogpu/gfx/wgpu"
)

// config mirrors the optional TOML file. Flags override it.
type config struct {
	Backend string `toml:"backend"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Output  string `toml:"output"`
	Debug   bool   `toml:"debug"`
}

func defaultConfig() config {
	return config{
		Width:  256,
		Height: 256,
		Output: "demo.png",
	}
}

func loadConfig(path string, explicit bool) (config, error) {
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, err
	}
	return cfg, nil
}

const vertexWGSL = `
struct Params {
    tint: vec4<f32>,
};
@group(0) @binding(0) var<uniform> params: Params;

struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
};

@vertex
fn vs_main(@location(0) pos: vec2<f32>, @location(1) color: vec4<f32>) -> VertexOut {
    var out: VertexOut;
    out.position = vec4<f32>(pos, 0.0, 1.0);
    out.color = color * params.tint;
    return out;
}
`

const fragmentWGSL = `
struct Params {
    tint: vec4<f32>,
};
@group(0) @binding(0) var<uniform> params: Params;

@fragment
fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}
`

func main() {
	var (
		configPath  = flag.String("config", "gfxdemo.toml", "TOML config file")
		backendName = flag.String("backend", "", "backend to use (empty picks the default)")
		width       = flag.Int("width", 0, "frame width")
		height      = flag.Int("height", 0, "frame height")
		output      = flag.String("output", "", "output PNG file")
		debug       = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	cfg, err := loadConfig(*configPath, explicit)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *backendName != "" {
		cfg.Backend = *backendName
	}
	if *width != 0 {
		cfg.Width = *width
	}
	if *height != 0 {
		cfg.Height = *height
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *debug {
		cfg.Debug = true
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	gfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(cfg); err != nil {
		log.Fatalf("gfxdemo: %v", err)
	}
}

func run(cfg config) error {
	dev, err := gfx.Open(cfg.Backend)
	if err != nil {
		return err
	}
	defer dev.Close()
	dev.SetViewportSize(int32(cfg.Width), int32(cfg.Height))

	target, err := gfx.NewRenderTarget(dev, gfx.RenderTargetDescriptor{
		Width:       int32(cfg.Width),
		Height:      int32(cfg.Height),
		ColorFormat: gfx.TextureRGBA8,
	})
	if err != nil {
		return err
	}
	defer target.Release()

	shader, err := gfx.NewShaderProgramFromKernels(dev, []gfx.ShaderKernel{
		{Kind: gfx.VertexShader, Code: vertexWGSL},
		{Kind: gfx.FragmentShader, Code: fragmentWGSL},
	})
	if err != nil {
		return err
	}
	defer shader.Release()

	mesh, err := gfx.NewMesh(dev, []gfx.VertexDescriptor{
		{Count: 2, Kind: gfx.VertexF32},
		{Count: 4, Kind: gfx.VertexF32},
	}, gfx.StaticUsage)
	if err != nil {
		return err
	}
	defer mesh.Release()

	// One triangle, position then color per vertex.
	vertices := []float32{
		0.0, 0.6, 1, 0, 0, 1,
		-0.6, -0.6, 0, 1, 0, 1,
		0.6, -0.6, 0, 0, 1, 1,
	}
	if err := mesh.WriteVertices(gfx.Float32Bytes(vertices)); err != nil {
		return err
	}

	material := gfx.NewMaterial(dev, shader)
	defer material.Release()
	material.SetUniform("tint", gfx.Vec4{1, 1, 1, 1})
	material.SetBlendState(gfx.BlendAlpha)

	q := queue.New()
	q.Enqueue(
		queue.SetRenderTarget{Target: target.ID()},
		queue.ClearColorBuffer{Color: gfx.RGB(0.1, 0.1, 0.15)},
	)
	q.SetMaterial(material)
	q.DrawMesh(mesh, gfx.Triangles)
	if err := q.Flush(dev); err != nil {
		return err
	}

	if err := savePNG(cfg.Output, target); err != nil {
		return err
	}
	log.Printf("wrote %s (%dx%d, backend %s)", cfg.Output, cfg.Width, cfg.Height, dev.Name())

	if hb, ok := dev.Backend.(*headless.Backend); ok {
		stats := hb.Stats()
		log.Printf("headless stats: %d draws, %d live buffers, %d live textures",
			stats.DrawCalls, stats.LiveBuffers, stats.LiveTextures)
	}
	return nil
}

func savePNG(path string, target *gfx.RenderTarget) error {
	color := target.ColorAttachment()
	w, h := color.Size()
	pixels := make([]byte, int(w)*int(h)*4)
	if err := color.Read(pixels); err != nil {
		return err
	}

	img := image.NewNRGBA(image.Rect(0, 0, int(w), int(h)))
	copy(img.Pix, pixels)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
