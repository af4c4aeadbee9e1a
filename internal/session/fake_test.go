package session

import (
	"fmt"
	"testing"

	"github.com/bnema/wayframe/internal/shm"
)

// fakeTransport is an in-memory compositor. It records every request in
// order and replays scripted event batches from ReadEvents.
type fakeTransport struct {
	nextID   ObjectID
	registry ObjectID

	globals []RegistryGlobal
	batches [][]Event
	readErr error

	requests []string
	objects  map[ObjectID]string
	fds      []int

	failOp  string
	failErr error
}

func newFakeTransport(globals ...RegistryGlobal) *fakeTransport {
	return &fakeTransport{
		nextID:  2, // 1 is wl_display
		globals: globals,
		objects: make(map[ObjectID]string),
	}
}

func standardGlobals() []RegistryGlobal {
	return []RegistryGlobal{
		{Name: 1, Interface: InterfaceCompositor, Version: 1},
		{Name: 2, Interface: InterfaceShm, Version: 1},
		{Name: 3, Interface: InterfaceWmBase, Version: 1},
	}
}

// push appends a batch delivered by a later ReadEvents call.
func (f *fakeTransport) push(events ...Event) {
	f.batches = append(f.batches, events)
}

func (f *fakeTransport) record(op string, args ...any) error {
	req := op
	for _, a := range args {
		req += fmt.Sprintf(" %v", a)
	}
	f.requests = append(f.requests, req)
	if f.failOp == op {
		return f.failErr
	}
	return nil
}

func (f *fakeTransport) newObject(kind string) ObjectID {
	id := f.nextID
	f.nextID++
	f.objects[id] = kind
	return id
}

// id returns the most recent object of kind.
func (f *fakeTransport) id(kind string) ObjectID {
	var found ObjectID
	for id, k := range f.objects {
		if k == kind && id > found {
			found = id
		}
	}
	return found
}

func (f *fakeTransport) requestsSince(n int) []string {
	return append([]string(nil), f.requests[n:]...)
}

func (f *fakeTransport) ReadEvents() ([]Event, error) {
	if len(f.batches) == 0 {
		if f.readErr != nil {
			return nil, f.readErr
		}
		return nil, ErrClosed
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func (f *fakeTransport) GetRegistry() (ObjectID, error) {
	f.registry = f.newObject("wl_registry")
	return f.registry, f.record("get_registry")
}

// Sync answers with every advertised global followed by the callback, ahead
// of any scripted batches.
func (f *fakeTransport) Sync() (ObjectID, error) {
	cb := f.newObject("wl_callback")
	if err := f.record("sync"); err != nil {
		return 0, err
	}
	batch := make([]Event, 0, len(f.globals)+1)
	for _, g := range f.globals {
		g.Object = f.registry
		batch = append(batch, g)
	}
	batch = append(batch, CallbackDone{Object: cb})
	f.batches = append([][]Event{batch}, f.batches...)
	return cb, nil
}

func (f *fakeTransport) Bind(registry ObjectID, name uint32, iface string, version uint32) (ObjectID, error) {
	if err := f.record("bind", name, iface, version); err != nil {
		return 0, err
	}
	return f.newObject(iface), nil
}

func (f *fakeTransport) CreateSurface(compositor ObjectID) (ObjectID, error) {
	if err := f.record("create_surface"); err != nil {
		return 0, err
	}
	return f.newObject("wl_surface"), nil
}

func (f *fakeTransport) GetXdgSurface(wmBase, surface ObjectID) (ObjectID, error) {
	if err := f.record("get_xdg_surface"); err != nil {
		return 0, err
	}
	return f.newObject("xdg_surface"), nil
}

func (f *fakeTransport) GetToplevel(xdgSurface ObjectID) (ObjectID, error) {
	if err := f.record("get_toplevel"); err != nil {
		return 0, err
	}
	return f.newObject("xdg_toplevel"), nil
}

func (f *fakeTransport) SetTitle(toplevel ObjectID, title string) error {
	return f.record("set_title", title)
}

func (f *fakeTransport) AckConfigure(xdgSurface ObjectID, serial uint32) error {
	return f.record("ack_configure", serial)
}

func (f *fakeTransport) Pong(wmBase ObjectID, serial uint32) error {
	return f.record("pong", serial)
}

func (f *fakeTransport) CreatePool(shm ObjectID, fd int, size int32) (ObjectID, error) {
	f.fds = append(f.fds, fd)
	if err := f.record("create_pool", size); err != nil {
		return 0, err
	}
	return f.newObject("wl_shm_pool"), nil
}

func (f *fakeTransport) CreateBuffer(pool ObjectID, offset, width, height, stride int32, format uint32) (ObjectID, error) {
	if err := f.record("create_buffer", offset, width, height, stride, format); err != nil {
		return 0, err
	}
	return f.newObject("wl_buffer"), nil
}

func (f *fakeTransport) Attach(surface, buffer ObjectID, x, y int32) error {
	return f.record("attach", x, y)
}

func (f *fakeTransport) Damage(surface ObjectID, x, y, width, height int32) error {
	return f.record("damage", x, y, width, height)
}

func (f *fakeTransport) Commit(surface ObjectID) error {
	return f.record("commit")
}

func (f *fakeTransport) Destroy(id ObjectID) error {
	return f.record("destroy", f.objects[id])
}

// tempRegions backs buffers with files in a per-test directory.
func tempRegions(t *testing.T) RegionFactory {
	dir := t.TempDir()
	return func(size int) (*shm.Region, error) {
		return shm.Create(size, shm.Options{Dir: dir})
	}
}

// frameRecorder counts renderer invocations.
type frameRecorder struct {
	calls  int
	width  int
	height int
	stride int
	size   int
}

func (r *frameRecorder) Render(pixels []byte, width, height, stride int) {
	r.calls++
	r.width, r.height, r.stride, r.size = width, height, stride, len(pixels)
}
