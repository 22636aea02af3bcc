// Package color converts between the packed 24-bit RGB integers stored on
// user profiles and displayable colors, and decides whether a background
// color needs light or dark foreground text. The luminance decision must be
// bit-for-bit reproducible across clients, so everything here is plain
// arithmetic over 8-bit channels.
package color

import "image/color"

// FromPacked expands a packed 0xRRGGBB integer into an opaque RGBA color.
// Only the low 24 bits are read.
func FromPacked(packed int) color.RGBA {
	return color.RGBA{
		R: uint8((packed >> 16) & 0xFF),
		G: uint8((packed >> 8) & 0xFF),
		B: uint8(packed & 0xFF),
		A: 0xFF,
	}
}

// ToPacked converts a display color back to a packed 0xRRGGBB integer. The
// second result is false when 8-bit channels cannot be extracted (a fully
// transparent color has no recoverable channels); callers treat that as "no
// color change", not as an error.
func ToPacked(c color.Color) (int, bool) {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return 0, false
	}
	// Un-premultiply before narrowing to 8 bits.
	if a != 0xFFFF {
		r = r * 0xFFFF / a
		g = g * 0xFFFF / a
		b = b * 0xFFFF / a
	}
	return int(r>>8)<<16 | int(g>>8)<<8 | int(b>>8), true
}

// Luminance computes the relative luminance of c over normalized [0, 1]
// channels: 0.2126 R + 0.7152 G + 0.0722 B.
func Luminance(c color.Color) float64 {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	r := float64(rgba.R) / 255
	g := float64(rgba.G) / 255
	b := float64(rgba.B) / 255
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// IsDark reports whether c is dark enough that foreground text on it should
// be light. The threshold matches the rendering layer's historical cutoff.
func IsDark(c color.Color) bool {
	return Luminance(c) < 0.50
}

// IsDarkPacked is IsDark over a packed 0xRRGGBB integer.
func IsDarkPacked(packed int) bool {
	return IsDark(FromPacked(packed))
}
