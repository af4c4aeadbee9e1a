// Package session drives a single xdg-shell toplevel on a Wayland
// compositor: global discovery, shared-memory buffer provisioning, the
// configure/acknowledge handshake and the ping/pong keepalive.
//
// A Session is single-threaded. Every state transition happens inside Run
// (or during New's discovery round-trip) while routing events read from the
// Transport; no method may be called concurrently with Run, except from the
// hooks Run itself invokes.
package session

import (
	"errors"
	"fmt"

	"github.com/bnema/wayframe/internal/logger"
	"github.com/bnema/wayframe/internal/render"
	"github.com/bnema/wayframe/internal/shm"
)

var log = logger.With("session")

const (
	DefaultTitle  = "Wayland client"
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Options configures a Session. Zero fields take the documented defaults.
type Options struct {
	Title  string // DefaultTitle
	Width  int    // DefaultWidth
	Height int    // DefaultHeight

	// Renderer is called once per acknowledged configure. Defaults to
	// render.Noop.
	Renderer render.Renderer
	// Regions creates buffer backing memory. Defaults to shm.Create with
	// zero Options.
	Regions RegionFactory
	// AllocRetries is how many extra allocation attempts are made before a
	// configure fails.
	AllocRetries int

	// OnClose is invoked when the compositor asks the toplevel to close.
	// The application decides whether to call Stop.
	OnClose func()
}

func (o *Options) setDefaults() {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Renderer == nil {
		o.Renderer = render.Noop
	}
	if o.Regions == nil {
		o.Regions = func(size int) (*shm.Region, error) {
			return shm.Create(size, shm.Options{})
		}
	}
}

// Session owns every object it creates or binds on the Transport.
type Session struct {
	t    Transport
	opts Options

	registry *registry
	sync     syncState

	surface    ObjectID
	xdgSurface ObjectID
	toplevel   ObjectID

	allocator *Allocator
	buffer    *PixelBuffer
	formats   []uint32

	conf configure
	info toplevelInfo

	stopped bool
	// hungUp is set once the transport has closed; no request can be sent.
	hungUp bool
	err    error
}

func newSession(t Transport, opts Options) *Session {
	opts.setDefaults()
	return &Session{
		t:        t,
		opts:     opts,
		registry: newRegistry(),
	}
}

// New discovers the compositor's globals, binds wl_compositor, wl_shm and
// xdg_wm_base, and creates the toplevel surface with an initial buffer-less
// commit. It fails with a MissingCapabilityError, before creating any
// surface, when a required global is not advertised.
func New(t Transport, opts Options) (*Session, error) {
	if opts.Width < 0 || opts.Height < 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", opts.Width, opts.Height)
	}
	s := newSession(t, opts)

	if err := s.discover(); err != nil {
		return nil, fmt.Errorf("registry discovery: %w", err)
	}
	if err := s.requireGlobals(); err != nil {
		return nil, err
	}

	s.allocator = NewAllocator(t, s.handle(InterfaceShm), s.opts.Regions)

	if err := s.createSurface(); err != nil {
		return nil, fmt.Errorf("create surface: %w", err)
	}
	return s, nil
}

// Probe lists the globals the compositor advertises without binding any.
func Probe(t Transport) ([]Global, error) {
	s := newSession(t, Options{})
	s.registry.listOnly = true
	if err := s.discover(); err != nil {
		return nil, fmt.Errorf("registry discovery: %w", err)
	}
	return s.Globals(), nil
}

// dispatch routes one event to the handler for its kind.
func (s *Session) dispatch(ev Event) error {
	switch e := ev.(type) {
	case RegistryGlobal:
		return s.handleGlobal(e)
	case RegistryGlobalRemove:
		s.handleGlobalRemove(e)
	case CallbackDone:
		s.handleCallbackDone(e)
	case ShmFormat:
		s.formats = append(s.formats, e.Format)
	case WmBasePing:
		return s.handlePing(e)
	case SurfaceConfigure:
		return s.handleConfigure(e)
	case ToplevelConfigure:
		s.handleToplevelConfigure(e)
	case ToplevelClose:
		s.handleToplevelClose(e)
	case ToplevelConfigureBounds:
		s.info.boundsWidth, s.info.boundsHeight = e.Width, e.Height
	case ToplevelWmCapabilities:
		s.info.capabilities = e.Capabilities
	case BufferRelease:
		s.handleBufferRelease(e)
	case DisplayError:
		return transportErr("dispatch", fmt.Errorf("compositor error on object %d (code %d): %s", e.ObjectID, e.Code, e.Message))
	default:
		log.Debug("unhandled event", "type", fmt.Sprintf("%T", ev), "sender", ev.Sender())
	}
	return nil
}

// Stop makes Run return nil after the current batch of events.
func (s *Session) Stop() {
	s.stopped = true
}

// Formats returns the pixel formats advertised by wl_shm.
func (s *Session) Formats() []uint32 {
	return s.formats
}

// Buffer returns the current pixel buffer, or nil before the first
// acknowledged configure.
func (s *Session) Buffer() *PixelBuffer {
	return s.buffer
}

// Close destroys every object the session created or bound, newest first.
// After the compositor has hung up only local memory is released.
func (s *Session) Close() error {
	if s.hungUp {
		var err error
		if s.buffer != nil {
			err = s.buffer.region.Close()
			s.buffer = nil
		}
		return err
	}

	var errs []error
	destroy := func(what string, id ObjectID) {
		if id == 0 {
			return
		}
		if err := s.t.Destroy(id); err != nil {
			errs = append(errs, transportErr("destroy "+what, err))
		}
	}

	if s.buffer != nil {
		if err := s.buffer.release(s.t); err != nil {
			errs = append(errs, err)
		}
		s.buffer = nil
	}
	destroy("xdg_toplevel", s.toplevel)
	destroy("xdg_surface", s.xdgSurface)
	destroy("wl_surface", s.surface)
	s.toplevel, s.xdgSurface, s.surface = 0, 0, 0

	for i := len(requiredGlobals) - 1; i >= 0; i-- {
		iface := requiredGlobals[i].iface
		if b, ok := s.registry.bound[iface]; ok {
			destroy(iface, b.Handle)
			delete(s.registry.bound, iface)
		}
	}
	destroy("wl_registry", s.registry.id)
	s.registry.id = 0

	return errors.Join(errs...)
}
