package session

import (
	"errors"
	"fmt"
	"math"

	"github.com/bnema/wayframe/internal/shm"
)

// FormatARGB8888 is wl_shm.format argb8888: 32-bit little-endian A-R-G-B.
const FormatARGB8888 uint32 = 0

const bytesPerPixel = 4

// RegionFactory creates a mapped shared-memory region of size bytes.
type RegionFactory func(size int) (*shm.Region, error)

// PixelBuffer is a wl_buffer backed by a mapped shared-memory region.
type PixelBuffer struct {
	Width  int
	Height int
	Stride int
	Format uint32
	Handle ObjectID

	region *shm.Region
	// busy is set on commit and cleared by wl_buffer.release; while set the
	// compositor may still read the memory.
	busy bool
}

// Pixels returns the mapped memory backing the buffer.
func (b *PixelBuffer) Pixels() []byte {
	return b.region.Bytes()
}

// Size returns the buffer size in bytes.
func (b *PixelBuffer) Size() int {
	return b.Stride * b.Height
}

// Busy reports whether the compositor may still be reading the buffer.
func (b *PixelBuffer) Busy() bool {
	return b.busy
}

// Allocator derives pixel buffers from shared-memory regions handed to the
// compositor through a wl_shm pool.
type Allocator struct {
	t       Transport
	shm     ObjectID
	regions RegionFactory
}

// NewAllocator returns an allocator creating pools on the bound wl_shm
// object shmID.
func NewAllocator(t Transport, shmID ObjectID, regions RegionFactory) *Allocator {
	return &Allocator{t: t, shm: shmID, regions: regions}
}

// Allocate creates a width x height ARGB8888 buffer with stride width*4.
// The pool size must fit in an int32.
// Region failures are reported as ErrBufferAllocationFailed or
// ErrMappingFailed; failures sending requests are TransportErrors.
func (a *Allocator) Allocate(width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrBufferAllocationFailed, width, height)
	}
	if width > math.MaxInt32/bytesPerPixel || height > math.MaxInt32/(width*bytesPerPixel) {
		return nil, fmt.Errorf("%w: %dx%d exceeds the wl_shm pool size limit", ErrBufferAllocationFailed, width, height)
	}
	stride := width * bytesPerPixel
	size := stride * height

	region, err := a.regions(size)
	if err != nil {
		if errors.Is(err, shm.ErrMap) {
			return nil, fmt.Errorf("%w: %v", ErrMappingFailed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBufferAllocationFailed, err)
	}

	handle, err := region.ExportHandle()
	if err != nil {
		region.Close()
		return nil, fmt.Errorf("%w: %v", ErrBufferAllocationFailed, err)
	}
	// The compositor receives its own descriptor with create_pool.
	defer handle.Close()

	pool, err := a.t.CreatePool(a.shm, int(handle.Fd()), int32(size))
	if err != nil {
		region.Close()
		return nil, transportErr("create_pool", err)
	}

	buf, err := a.t.CreateBuffer(pool, 0, int32(width), int32(height), int32(stride), FormatARGB8888)
	if err != nil {
		region.Close()
		return nil, transportErr("create_buffer", err)
	}

	// The buffer keeps the pool's memory alive on the compositor side.
	if err := a.t.Destroy(pool); err != nil {
		region.Close()
		return nil, transportErr("destroy pool", err)
	}

	log.Debug("allocated pixel buffer", "width", width, "height", height, "stride", stride, "id", buf)
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: FormatARGB8888,
		Handle: buf,
		region: region,
	}, nil
}

// release destroys the wl_buffer and unmaps its region.
func (b *PixelBuffer) release(t Transport) error {
	var errs []error
	if err := t.Destroy(b.Handle); err != nil {
		errs = append(errs, transportErr("destroy buffer", err))
	}
	if err := b.region.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
