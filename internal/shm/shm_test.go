package shm

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateShmOpen(t *testing.T) {
	dir := t.TempDir()
	const size = 64 * 48 * 4

	r, err := Create(size, Options{Backend: BackendShmOpen, Dir: dir})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, size, r.Size())
	assert.Len(t, r.Bytes(), size)
	assert.Contains(t, r.Name(), namePrefix)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "region name must be unlinked before Create returns")

	// Memory is writable and visible through an exported descriptor.
	r.Bytes()[0] = 0xAB
	r.Bytes()[size-1] = 0xCD

	f, err := r.ExportHandle()
	require.NoError(t, err)
	defer f.Close()

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(size), info.Size())

	buf := make([]byte, 1)
	_, err = f.ReadAt(buf, size-1)
	require.NoError(t, err)
	assert.Equal(t, byte(0xCD), buf[0])
}

func TestCreateMemfd(t *testing.T) {
	r, err := Create(4096, Options{Backend: BackendMemfd})
	if err != nil {
		t.Skipf("memfd unavailable: %v", err)
	}
	defer r.Close()

	assert.Equal(t, 4096, r.Size())
	r.Bytes()[10] = 1
	assert.Equal(t, byte(1), r.Bytes()[10])
}

func TestCreateErrors(t *testing.T) {
	tests := []struct {
		name string
		size int
		opts Options
	}{
		{name: "zero size", size: 0, opts: Options{Dir: t.TempDir()}},
		{name: "negative size", size: -4, opts: Options{Dir: t.TempDir()}},
		{name: "missing directory", size: 16, opts: Options{Dir: "/nonexistent/wayframe"}},
		{name: "unknown backend", size: 16, opts: Options{Backend: "tmpfile"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Create(tt.size, tt.opts)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, ErrCreate)
		})
	}
}

func TestExportHandleDoesNotAffectMapping(t *testing.T) {
	r, err := Create(128, Options{Dir: t.TempDir()})
	require.NoError(t, err)
	defer r.Close()

	f, err := r.ExportHandle()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r.Bytes()[5] = 42
	assert.Equal(t, byte(42), r.Bytes()[5])
}

func TestCloseIsIdempotent(t *testing.T) {
	r, err := Create(128, Options{Dir: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Nil(t, r.Bytes())

	_, err = r.ExportHandle()
	assert.ErrorIs(t, err, ErrClosed)
}
