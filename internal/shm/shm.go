// Package shm provides shared-memory regions that can be handed to a
// Wayland compositor as the backing store of wl_shm pools.
//
// A Region is created and mapped in one step. Its name, when it has one, is
// unlinked before Create returns, so the memory is reachable only through the
// region's own descriptor and any duplicate exported with ExportHandle.
package shm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/wayframe/internal/logger"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

var log = logger.With("shm")

// Backend selects how the region's memory is obtained.
type Backend string

const (
	// BackendShmOpen creates a uniquely named file in a tmpfs directory
	// (the shm_open(3) convention) and unlinks it immediately.
	BackendShmOpen Backend = "shm_open"
	// BackendMemfd uses an anonymous memfd that never has a name.
	BackendMemfd Backend = "memfd"
)

const (
	defaultDir      = "/dev/shm"
	defaultAttempts = 8
	namePrefix      = "wayframe-"
)

var (
	// ErrCreate reports that no region could be created or sized.
	ErrCreate = errors.New("shm: create region")
	// ErrMap reports that the region could not be mapped.
	ErrMap = errors.New("shm: map region")
	// ErrClosed is returned by operations on a closed region.
	ErrClosed = errors.New("shm: region closed")
)

// Options configures Create. The zero value uses BackendShmOpen in /dev/shm.
type Options struct {
	Backend Backend
	Dir     string
	// Attempts bounds how many fresh names are tried when a name collides.
	Attempts int
}

// Region is a mapped shared-memory region owned by this process.
type Region struct {
	fd   int
	name string
	data []byte
}

// Create allocates a region of exactly size bytes and maps it read/write.
func Create(size int, opts Options) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: invalid size %d", ErrCreate, size)
	}

	var (
		fd   int
		name string
		err  error
	)
	switch opts.Backend {
	case BackendMemfd:
		name = namePrefix + "memfd"
		fd, err = unix.MemfdCreate(name, unix.MFD_CLOEXEC)
		if err != nil {
			return nil, fmt.Errorf("%w: memfd_create: %v", ErrCreate, err)
		}
	case BackendShmOpen, "":
		fd, name, err = openUnique(opts)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrCreate, opts.Backend)
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: ftruncate %d bytes: %v", ErrCreate, size, err)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %v", ErrMap, err)
	}

	log.Debug("shm region created", "name", name, "size", size, "backend", opts.Backend)
	return &Region{fd: fd, name: name, data: data}, nil
}

// openUnique opens a new file with O_EXCL under a random name, retrying on
// collision, and unlinks it before returning.
func openUnique(opts Options) (int, string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = defaultDir
	}
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	for i := 0; i < attempts; i++ {
		name := namePrefix + uuid.NewString()
		path := filepath.Join(dir, name)

		fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, 0600)
		if errors.Is(err, unix.EEXIST) {
			log.Debug("shm name collision, retrying", "name", name)
			continue
		}
		if err != nil {
			return -1, "", fmt.Errorf("%w: open %s: %v", ErrCreate, path, err)
		}

		if err := unix.Unlink(path); err != nil {
			unix.Close(fd)
			return -1, "", fmt.Errorf("%w: unlink %s: %v", ErrCreate, path, err)
		}
		return fd, name, nil
	}

	return -1, "", fmt.Errorf("%w: no unique name after %d attempts", ErrCreate, attempts)
}

// Bytes returns the mapped memory. It is nil after Close.
func (r *Region) Bytes() []byte {
	return r.data
}

// Size returns the mapped length in bytes.
func (r *Region) Size() int {
	return len(r.data)
}

// Name returns the name the region was created under. The name is already
// unlinked and cannot be used to reopen the region.
func (r *Region) Name() string {
	return r.name
}

// ExportHandle duplicates the region's descriptor for handoff to another
// process. The caller owns the returned file and should close it once the
// peer holds its own copy; the mapping is unaffected.
func (r *Region) ExportHandle() (*os.File, error) {
	if r.fd < 0 {
		return nil, ErrClosed
	}
	nfd, err := unix.FcntlInt(uintptr(r.fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: duplicate descriptor: %w", err)
	}
	return os.NewFile(uintptr(nfd), r.name), nil
}

// Close unmaps the region and releases its descriptor. Calling Close more
// than once is a no-op.
func (r *Region) Close() error {
	if r.fd < 0 {
		return nil
	}

	var errs []error
	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil {
			errs = append(errs, fmt.Errorf("munmap: %w", err))
		}
		r.data = nil
	}
	if err := unix.Close(r.fd); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	r.fd = -1

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shm: release %s: %w", r.name, err)
	}
	return nil
}
