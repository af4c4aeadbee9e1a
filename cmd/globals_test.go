package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/bnema/wayframe/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteGlobalsJSON(t *testing.T) {
	var buf bytes.Buffer
	err := writeGlobalsJSON(&buf, []session.Global{
		{Name: 1, Interface: session.InterfaceCompositor, Version: 6},
		{Name: 4, Interface: "wl_seat", Version: 9},
	})
	require.NoError(t, err)

	var got []globalEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []globalEntry{
		{Name: 1, Interface: "wl_compositor", Version: 6, Required: true},
		{Name: 4, Interface: "wl_seat", Version: 9, Required: false},
	}, got)
}

func TestWriteGlobalsJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeGlobalsJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteGlobalsTable(t *testing.T) {
	t.Run("all required present", func(t *testing.T) {
		var buf bytes.Buffer
		writeGlobalsTable(&buf, "wayland-1", []session.Global{
			{Name: 1, Interface: session.InterfaceCompositor, Version: 6},
			{Name: 2, Interface: session.InterfaceShm, Version: 1},
			{Name: 3, Interface: session.InterfaceWmBase, Version: 5},
		})

		out := buf.String()
		assert.Contains(t, out, "wayland-1")
		assert.Contains(t, out, "xdg_wm_base")
		assert.Contains(t, out, "all required globals advertised")
		assert.NotContains(t, out, "missing")
	})

	t.Run("missing shm", func(t *testing.T) {
		var buf bytes.Buffer
		writeGlobalsTable(&buf, "", []session.Global{
			{Name: 1, Interface: session.InterfaceCompositor, Version: 6},
			{Name: 3, Interface: session.InterfaceWmBase, Version: 5},
		})

		out := buf.String()
		assert.Contains(t, out, "$WAYLAND_DISPLAY")
		assert.Contains(t, out, "missing wl_shm")
		assert.NotContains(t, out, "missing wl_compositor")
	})
}
