// Package render holds frame renderers that draw into a mapped ARGB8888
// pixel buffer before it is committed.
package render

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Renderer draws one frame. pixels is the full mapped buffer; rows are
// stride bytes apart and each pixel is a little-endian ARGB8888 word.
type Renderer interface {
	Render(pixels []byte, width, height, stride int)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(pixels []byte, width, height, stride int)

func (f RendererFunc) Render(pixels []byte, width, height, stride int) {
	f(pixels, width, height, stride)
}

// Noop leaves the buffer untouched.
var Noop Renderer = RendererFunc(func([]byte, int, int, int) {})

// Solid fills every pixel with one opaque color.
func Solid(c colorful.Color) Renderer {
	return fill(PackARGB(c, 0xFF))
}

// PackARGB converts a color and alpha to an ARGB8888 word.
func PackARGB(c colorful.Color, alpha uint8) uint32 {
	r, g, b := c.Clamped().RGB255()
	return uint32(alpha)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func fill(argb uint32) Renderer {
	return RendererFunc(func(pixels []byte, width, height, stride int) {
		for y := 0; y < height; y++ {
			row := pixels[y*stride:]
			for x := 0; x < width; x++ {
				binary.LittleEndian.PutUint32(row[x*4:], argb)
			}
		}
	})
}

// FromFill returns the renderer for a window fill setting: Noop for an empty
// string, otherwise a Solid renderer for the hex color.
func FromFill(hex string) (Renderer, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return Noop, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid fill color %q: %w", hex, err)
	}
	return Solid(c), nil
}
