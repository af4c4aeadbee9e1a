package session

import (
	"errors"
	"fmt"
)

// ConfigureState is where the surface stands in the configure/ack cycle.
type ConfigureState int

const (
	Uninitialized ConfigureState = iota
	ConfigurePending
	Acknowledged
)

func (s ConfigureState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case ConfigurePending:
		return "configure-pending"
	case Acknowledged:
		return "acknowledged"
	default:
		return fmt.Sprintf("ConfigureState(%d)", int(s))
	}
}

type configure struct {
	state   ConfigureState
	pending uint32
	acked   uint32
	cycles  int
}

// toplevelInfo holds the informational toplevel events. None of them change
// the buffer or end the session on their own.
type toplevelInfo struct {
	width, height             int32
	states                    []uint32
	boundsWidth, boundsHeight int32
	capabilities              []uint32
	closeRequested            bool
}

// createSurface builds wl_surface -> xdg_surface -> xdg_toplevel, sets the
// title and commits without a buffer to request the first configure. Ping
// events from the already bound xdg_wm_base are routed from here on.
func (s *Session) createSurface() error {
	var err error

	s.surface, err = s.t.CreateSurface(s.handle(InterfaceCompositor))
	if err != nil {
		return transportErr("create_surface", err)
	}
	s.xdgSurface, err = s.t.GetXdgSurface(s.handle(InterfaceWmBase), s.surface)
	if err != nil {
		return transportErr("get_xdg_surface", err)
	}
	s.toplevel, err = s.t.GetToplevel(s.xdgSurface)
	if err != nil {
		return transportErr("get_toplevel", err)
	}
	if err := s.t.SetTitle(s.toplevel, s.opts.Title); err != nil {
		return transportErr("set_title", err)
	}
	if err := s.t.Commit(s.surface); err != nil {
		return transportErr("commit", err)
	}

	s.conf.state = Uninitialized
	log.Debug("surface created", "surface", s.surface, "xdg_surface", s.xdgSurface, "toplevel", s.toplevel)
	return nil
}

// handlePing answers a keepalive immediately with the same serial.
func (s *Session) handlePing(e WmBasePing) error {
	if err := s.t.Pong(e.Object, e.Serial); err != nil {
		return transportErr("pong", err)
	}
	return nil
}

func (s *Session) handleConfigure(e SurfaceConfigure) error {
	if e.Object != s.xdgSurface {
		log.Debug("configure for unknown xdg_surface", "object", e.Object)
		return nil
	}
	s.conf.state = ConfigurePending
	s.conf.pending = e.Serial
	log.Debug("configure received", "serial", e.Serial)

	return s.acknowledge(e.Serial)
}

// acknowledge completes a configure cycle: ack the serial, make sure a
// buffer exists, render, then attach, damage the full buffer and commit.
func (s *Session) acknowledge(serial uint32) error {
	if s.conf.state != ConfigurePending {
		return &ProtocolViolationError{Message: fmt.Sprintf("ack_configure(%d) with no pending configure (state %s)", serial, s.conf.state)}
	}
	if serial != s.conf.pending {
		return &ProtocolViolationError{Message: fmt.Sprintf("ack_configure(%d) does not match pending serial %d", serial, s.conf.pending)}
	}

	if err := s.t.AckConfigure(s.xdgSurface, serial); err != nil {
		return transportErr("ack_configure", err)
	}
	s.conf.acked = serial

	if s.buffer == nil {
		buf, err := s.allocate()
		if err != nil {
			return err
		}
		s.buffer = buf
	}

	if s.buffer.busy {
		log.Debug("buffer still held by compositor, recommitting without redraw", "serial", serial)
	} else {
		s.opts.Renderer.Render(s.buffer.Pixels(), s.buffer.Width, s.buffer.Height, s.buffer.Stride)
	}

	if err := s.t.Attach(s.surface, s.buffer.Handle, 0, 0); err != nil {
		return transportErr("attach", err)
	}
	if err := s.t.Damage(s.surface, 0, 0, int32(s.buffer.Width), int32(s.buffer.Height)); err != nil {
		return transportErr("damage", err)
	}
	if err := s.t.Commit(s.surface); err != nil {
		return transportErr("commit", err)
	}
	s.buffer.busy = true

	s.conf.state = Acknowledged
	s.conf.cycles++
	return nil
}

// allocate provisions the session buffer, retrying region failures up to
// AllocRetries extra times.
func (s *Session) allocate() (*PixelBuffer, error) {
	var err error
	for attempt := 0; attempt <= s.opts.AllocRetries; attempt++ {
		var buf *PixelBuffer
		buf, err = s.allocator.Allocate(s.opts.Width, s.opts.Height)
		if err == nil {
			return buf, nil
		}
		if !errors.Is(err, ErrBufferAllocationFailed) && !errors.Is(err, ErrMappingFailed) {
			return nil, err
		}
		log.Warn("buffer allocation failed", "attempt", attempt+1, "err", err)
	}
	return nil, err
}

func (s *Session) handleBufferRelease(e BufferRelease) {
	if s.buffer != nil && s.buffer.Handle == e.Object {
		s.buffer.busy = false
	}
}

func (s *Session) handleToplevelConfigure(e ToplevelConfigure) {
	s.info.width, s.info.height = e.Width, e.Height
	s.info.states = e.States
	log.Debug("toplevel configure", "width", e.Width, "height", e.Height, "states", e.States)
}

func (s *Session) handleToplevelClose(e ToplevelClose) {
	if e.Object != s.toplevel {
		return
	}
	s.info.closeRequested = true
	log.Info("compositor requested the window to close")
	if s.opts.OnClose != nil {
		s.opts.OnClose()
	}
}

// State returns the current configure state.
func (s *Session) State() ConfigureState {
	return s.conf.state
}

// LastAcked returns the serial of the most recent acknowledged configure.
func (s *Session) LastAcked() uint32 {
	return s.conf.acked
}

// Cycles returns how many configure cycles completed.
func (s *Session) Cycles() int {
	return s.conf.cycles
}

// CloseRequested reports whether the compositor asked the toplevel to close.
func (s *Session) CloseRequested() bool {
	return s.info.closeRequested
}

// SuggestedSize returns the size from the last toplevel configure; zero
// means the compositor left it to the client.
func (s *Session) SuggestedSize() (width, height int32) {
	return s.info.width, s.info.height
}

// ToplevelStates returns the xdg_toplevel states from the last configure.
func (s *Session) ToplevelStates() []uint32 {
	return s.info.states
}

// Bounds returns the last configure_bounds hint.
func (s *Session) Bounds() (width, height int32) {
	return s.info.boundsWidth, s.info.boundsHeight
}

// WmCapabilities returns the last wm_capabilities list.
func (s *Session) WmCapabilities() []uint32 {
	return s.info.capabilities
}
