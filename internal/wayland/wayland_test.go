package wayland

import (
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/wayframe/internal/session"
	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeArray(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []uint32
	}{
		{
			name: "empty",
			in:   nil,
			want: []uint32{},
		},
		{
			name: "activated and maximized",
			in:   []byte{4, 0, 0, 0, 1, 0, 0, 0},
			want: []uint32{4, 1},
		},
		{
			name: "trailing bytes dropped",
			in:   []byte{2, 0, 0, 0, 9, 9},
			want: []uint32{2},
		},
		{
			name: "little endian",
			in:   []byte{0x01, 0x02, 0x00, 0x00},
			want: []uint32{0x0201},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeArray(tt.in))
		})
	}
}

func TestIsOrderlyClose(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "eof", err: io.EOF, want: true},
		{name: "wrapped eof", err: fmt.Errorf("read: %w", io.EOF), want: true},
		{name: "closed conn", err: net.ErrClosed, want: true},
		{name: "empty header read", err: errors.New("ctx.Dispatch: unable to read msg: ctx.ReadMsg: incorrect number of bytes read for header (n=0)"), want: true},
		{name: "partial header", err: errors.New("ctx.Dispatch: unable to read msg: ctx.ReadMsg: incorrect number of bytes read for header (n=3)"), want: false},
		{name: "truncated body", err: errors.New("ctx.Dispatch: unable to read msg: ctx.ReadMsg: incorrect number of bytes read for msg (n=0, msgSize=12)"), want: false},
		{name: "reset", err: errors.New("connection reset by peer"), want: false},
		{name: "unknown object", err: errors.New("unable to get proxy for id 44"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isOrderlyClose(tt.err))
		})
	}
}

func TestClosedConn(t *testing.T) {
	c := &Conn{}

	_, err := c.ReadEvents()
	assert.ErrorIs(t, err, session.ErrClosed)
	require.NoError(t, c.Close())
}

func TestDestroyUnknownObject(t *testing.T) {
	c := &Conn{objects: make(map[session.ObjectID]client.Proxy)}
	assert.Error(t, c.Destroy(12))
}

// listen starts a unix socket standing in for the compositor.
func listen(t *testing.T) (string, net.Listener) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wayland-test")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return path, ln
}

func TestCloseReleasesSocket(t *testing.T) {
	path, ln := listen(t)

	c, err := Connect(path)
	require.NoError(t, err)

	peer, err := ln.Accept()
	require.NoError(t, err)
	defer peer.Close()

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "second close is a no-op")

	require.NoError(t, peer.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = peer.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF, "compositor side must observe the hang-up")
}

func TestCloseAfterInterrupt(t *testing.T) {
	path, ln := listen(t)

	c, err := Connect(path)
	require.NoError(t, err)
	peer, err := ln.Accept()
	require.NoError(t, err)
	defer peer.Close()

	c.Interrupt()
	assert.NoError(t, c.Close())
}

func TestReadEventsAfterCompositorHangup(t *testing.T) {
	path, ln := listen(t)

	c, err := Connect(path)
	require.NoError(t, err)
	defer c.Close()

	peer, err := ln.Accept()
	require.NoError(t, err)
	require.NoError(t, peer.Close())

	_, err = c.ReadEvents()
	assert.ErrorIs(t, err, session.ErrClosed)
}

func TestSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	assert.Equal(t, "", socketPath(""))
	assert.Equal(t, "/tmp/wl.sock", socketPath("/tmp/wl.sock"))
	assert.Equal(t, "/run/user/1000/wayland-1", socketPath("wayland-1"))

	t.Setenv("XDG_RUNTIME_DIR", "")
	assert.Equal(t, "wayland-1", socketPath("wayland-1"))
}
