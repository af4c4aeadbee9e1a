package render

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolidFillsEveryPixel(t *testing.T) {
	const w, h = 3, 2
	stride := w * 4
	pixels := make([]byte, stride*h)

	c, err := colorful.Hex("#102030")
	require.NoError(t, err)
	Solid(c).Render(pixels, w, h, stride)

	for i := 0; i < len(pixels); i += 4 {
		// Little-endian ARGB8888 is B, G, R, A in memory.
		assert.Equal(t, []byte{0x30, 0x20, 0x10, 0xFF}, pixels[i:i+4], "pixel at byte %d", i)
	}
}

func TestSolidRespectsStride(t *testing.T) {
	const w, h = 2, 2
	stride := w*4 + 4 // one pixel of padding per row
	pixels := make([]byte, stride*h)

	Solid(colorful.Color{R: 1, G: 1, B: 1}).Render(pixels, w, h, stride)

	assert.Equal(t, []byte{0, 0, 0, 0}, pixels[w*4:stride], "padding must stay untouched")
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, pixels[stride:stride+4])
}

func TestPackARGB(t *testing.T) {
	assert.Equal(t, uint32(0x80FF0000), PackARGB(colorful.Color{R: 1}, 0x80))
	assert.Equal(t, uint32(0xFF0000FF), PackARGB(colorful.Color{B: 2}, 0xFF), "out of gamut values are clamped")
}

func TestFromFill(t *testing.T) {
	tests := []struct {
		name    string
		fill    string
		wantErr bool
		first   []byte
	}{
		{name: "empty is noop", fill: "", first: []byte{0, 0, 0, 0}},
		{name: "whitespace is noop", fill: "   ", first: []byte{0, 0, 0, 0}},
		{name: "hex color", fill: "#00ff00", first: []byte{0x00, 0xFF, 0x00, 0xFF}},
		{name: "invalid", fill: "green", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := FromFill(tt.fill)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			pixels := make([]byte, 4)
			r.Render(pixels, 1, 1, 4)
			assert.Equal(t, tt.first, pixels)
		})
	}
}
