package gfx

import "image/color"

// Color is a normalized RGBA color. Components are in [0, 1]; values
// outside that range are passed to the backend unclamped.
type Color struct {
	R, G, B, A float32
}

// Common colors.
var (
	ColorClear = Color{0, 0, 0, 0}
	ColorBlack = Color{0, 0, 0, 1}
	ColorWhite = Color{1, 1, 1, 1}
	ColorRed   = Color{1, 0, 0, 1}
	ColorGreen = Color{0, 1, 0, 1}
	ColorBlue  = Color{0, 0, 1, 1}
)

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float32) Color { return Color{R: r, G: g, B: b, A: 1} }

// RGBA creates a color from RGBA components.
func RGBA(r, g, b, a float32) Color { return Color{R: r, G: g, B: b, A: a} }

// FromColor converts a standard color.Color to a Color.
func FromColor(c color.Color) Color {
	r, g, b, a := c.RGBA()
	return Color{
		R: float32(r) / 65535,
		G: float32(g) / 65535,
		B: float32(b) / 65535,
		A: float32(a) / 65535,
	}
}

// Color converts to the standard color.Color interface.
func (c Color) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// Vec4 returns the color as a 4-component vector, in RGBA order.
func (c Color) Vec4() Vec4 { return Vec4{c.R, c.G, c.B, c.A} }

func clamp255(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
