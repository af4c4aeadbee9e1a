// Package wayland implements session.Transport on top of go-wayland.
package wayland

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/wayframe/internal/logger"
	"github.com/bnema/wayframe/internal/session"
	"github.com/rajveermalviya/go-wayland/wayland/client"
	xdg_shell "github.com/rajveermalviya/go-wayland/wayland/stable/xdg-shell"
)

var log = logger.With("wayland")

// Conn is a connection to a Wayland compositor. Event handlers installed on
// every proxy queue typed session events; ReadEvents drains that queue.
type Conn struct {
	display *client.Display
	ctx     *client.Context
	objects map[session.ObjectID]client.Proxy
	queue   []session.Event
}

var _ session.Transport = (*Conn)(nil)

// Connect establishes connection to Wayland display. An empty name uses
// $WAYLAND_DISPLAY, falling back to wayland-0. A relative name is resolved
// in $XDG_RUNTIME_DIR; an absolute one is used as the socket path.
func Connect(name string) (*Conn, error) {
	display, err := client.Connect(socketPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Wayland display: %w", err)
	}

	c := &Conn{
		display: display,
		ctx:     display.Context(),
		objects: make(map[session.ObjectID]client.Proxy),
	}
	c.track(display)

	display.SetErrorHandler(func(e client.DisplayErrorEvent) {
		var obj session.ObjectID
		if e.ObjectId != nil {
			obj = session.ObjectID(e.ObjectId.ID())
		}
		c.emit(session.DisplayError{
			Object:   idOf(display),
			ObjectID: obj,
			Code:     e.Code,
			Message:  e.Message,
		})
	})

	log.Debug("connected to Wayland display", "name", name)
	return c, nil
}

// Close unregisters the display and closes the socket.
func (c *Conn) Close() error {
	if c.display == nil {
		return nil
	}
	// Display.Destroy only unregisters the proxy; the socket is ours to close.
	_ = c.display.Destroy()
	c.display = nil
	c.objects = nil

	if err := c.ctx.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close Wayland display: %w", err)
	}
	return nil
}

// Interrupt closes the socket so that a blocked ReadEvents returns
// session.ErrClosed. It is safe to call from another goroutine.
func (c *Conn) Interrupt() {
	if ctx := c.ctx; ctx != nil {
		if err := ctx.Close(); err != nil {
			log.Debug("interrupt: closing socket", "error", err)
		}
	}
}

func socketPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, name)
	}
	return name
}

func idOf(p client.Proxy) session.ObjectID {
	return session.ObjectID(p.ID())
}

func (c *Conn) track(p client.Proxy) session.ObjectID {
	id := idOf(p)
	c.objects[id] = p
	return id
}

func (c *Conn) emit(ev session.Event) {
	c.queue = append(c.queue, ev)
}

// lookup returns the proxy for id as a T.
func lookup[T client.Proxy](c *Conn, id session.ObjectID) (T, error) {
	var zero T
	p, ok := c.objects[id]
	if !ok {
		return zero, fmt.Errorf("unknown object %d", id)
	}
	v, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("object %d is %T, want %T", id, p, zero)
	}
	return v, nil
}

// ReadEvents blocks until at least one event has been decoded.
func (c *Conn) ReadEvents() ([]session.Event, error) {
	if c.display == nil {
		return nil, session.ErrClosed
	}
	for len(c.queue) == 0 {
		if err := c.ctx.Dispatch(); err != nil {
			if isOrderlyClose(err) {
				return nil, session.ErrClosed
			}
			return nil, err
		}
	}
	events := c.queue
	c.queue = nil
	return events, nil
}

// isOrderlyClose reports whether a dispatch error is the compositor hanging
// up. go-wayland reports EOF as a zero-length header read; a short read of a
// message body is a truncated message, not a hang-up.
func isOrderlyClose(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	return strings.Contains(err.Error(), "for header (n=0)")
}

func (c *Conn) GetRegistry() (session.ObjectID, error) {
	registry, err := c.display.GetRegistry()
	if err != nil {
		return 0, fmt.Errorf("failed to get registry: %w", err)
	}
	id := c.track(registry)

	registry.SetGlobalHandler(func(e client.RegistryGlobalEvent) {
		c.emit(session.RegistryGlobal{Object: id, Name: e.Name, Interface: e.Interface, Version: e.Version})
	})
	registry.SetGlobalRemoveHandler(func(e client.RegistryGlobalRemoveEvent) {
		c.emit(session.RegistryGlobalRemove{Object: id, Name: e.Name})
	})
	return id, nil
}

func (c *Conn) Sync() (session.ObjectID, error) {
	cb, err := c.display.Sync()
	if err != nil {
		return 0, fmt.Errorf("failed to sync display: %w", err)
	}
	id := c.track(cb)

	cb.SetDoneHandler(func(e client.CallbackDoneEvent) {
		// wl_callback is destroyed by the compositor once done fires.
		delete(c.objects, id)
		c.emit(session.CallbackDone{Object: id, Data: e.CallbackData})
	})
	return id, nil
}

func (c *Conn) Bind(registryID session.ObjectID, name uint32, iface string, version uint32) (session.ObjectID, error) {
	registry, err := lookup[*client.Registry](c, registryID)
	if err != nil {
		return 0, err
	}

	var proxy client.Proxy
	switch iface {
	case session.InterfaceCompositor:
		proxy = client.NewCompositor(c.ctx)
	case session.InterfaceShm:
		shm := client.NewShm(c.ctx)
		shm.SetFormatHandler(func(e client.ShmFormatEvent) {
			c.emit(session.ShmFormat{Object: idOf(shm), Format: e.Format})
		})
		proxy = shm
	case session.InterfaceWmBase:
		wmBase := xdg_shell.NewWmBase(c.ctx)
		wmBase.SetPingHandler(func(e xdg_shell.WmBasePingEvent) {
			c.emit(session.WmBasePing{Object: idOf(wmBase), Serial: e.Serial})
		})
		proxy = wmBase
	default:
		return 0, fmt.Errorf("cannot bind unsupported interface %q", iface)
	}

	if err := registry.Bind(name, iface, version, proxy); err != nil {
		return 0, fmt.Errorf("failed to bind %s: %w", iface, err)
	}
	return c.track(proxy), nil
}

func (c *Conn) CreateSurface(compositorID session.ObjectID) (session.ObjectID, error) {
	compositor, err := lookup[*client.Compositor](c, compositorID)
	if err != nil {
		return 0, err
	}
	surface, err := compositor.CreateSurface()
	if err != nil {
		return 0, fmt.Errorf("failed to create surface: %w", err)
	}
	return c.track(surface), nil
}

func (c *Conn) GetXdgSurface(wmBaseID, surfaceID session.ObjectID) (session.ObjectID, error) {
	wmBase, err := lookup[*xdg_shell.WmBase](c, wmBaseID)
	if err != nil {
		return 0, err
	}
	surface, err := lookup[*client.Surface](c, surfaceID)
	if err != nil {
		return 0, err
	}

	xdgSurface, err := wmBase.GetXdgSurface(surface)
	if err != nil {
		return 0, fmt.Errorf("failed to get xdg_surface: %w", err)
	}
	id := c.track(xdgSurface)

	xdgSurface.SetConfigureHandler(func(e xdg_shell.SurfaceConfigureEvent) {
		c.emit(session.SurfaceConfigure{Object: id, Serial: e.Serial})
	})
	return id, nil
}

func (c *Conn) GetToplevel(xdgSurfaceID session.ObjectID) (session.ObjectID, error) {
	xdgSurface, err := lookup[*xdg_shell.Surface](c, xdgSurfaceID)
	if err != nil {
		return 0, err
	}
	toplevel, err := xdgSurface.GetToplevel()
	if err != nil {
		return 0, fmt.Errorf("failed to get xdg_toplevel: %w", err)
	}
	id := c.track(toplevel)

	toplevel.SetConfigureHandler(func(e xdg_shell.ToplevelConfigureEvent) {
		c.emit(session.ToplevelConfigure{Object: id, Width: e.Width, Height: e.Height, States: decodeArray(e.States)})
	})
	toplevel.SetCloseHandler(func(xdg_shell.ToplevelCloseEvent) {
		c.emit(session.ToplevelClose{Object: id})
	})
	toplevel.SetConfigureBoundsHandler(func(e xdg_shell.ToplevelConfigureBoundsEvent) {
		c.emit(session.ToplevelConfigureBounds{Object: id, Width: e.Width, Height: e.Height})
	})
	toplevel.SetWmCapabilitiesHandler(func(e xdg_shell.ToplevelWmCapabilitiesEvent) {
		c.emit(session.ToplevelWmCapabilities{Object: id, Capabilities: decodeArray(e.Capabilities)})
	})
	return id, nil
}

// decodeArray unpacks a wl_array of uint32 values.
func decodeArray(b []byte) []uint32 {
	out := make([]uint32, 0, len(b)/4)
	for len(b) >= 4 {
		out = append(out, binary.LittleEndian.Uint32(b))
		b = b[4:]
	}
	return out
}

func (c *Conn) SetTitle(toplevelID session.ObjectID, title string) error {
	toplevel, err := lookup[*xdg_shell.Toplevel](c, toplevelID)
	if err != nil {
		return err
	}
	return toplevel.SetTitle(title)
}

func (c *Conn) AckConfigure(xdgSurfaceID session.ObjectID, serial uint32) error {
	xdgSurface, err := lookup[*xdg_shell.Surface](c, xdgSurfaceID)
	if err != nil {
		return err
	}
	return xdgSurface.AckConfigure(serial)
}

func (c *Conn) Pong(wmBaseID session.ObjectID, serial uint32) error {
	wmBase, err := lookup[*xdg_shell.WmBase](c, wmBaseID)
	if err != nil {
		return err
	}
	return wmBase.Pong(serial)
}

func (c *Conn) CreatePool(shmID session.ObjectID, fd int, size int32) (session.ObjectID, error) {
	shm, err := lookup[*client.Shm](c, shmID)
	if err != nil {
		return 0, err
	}
	pool, err := shm.CreatePool(fd, size)
	if err != nil {
		return 0, fmt.Errorf("failed to create shm pool: %w", err)
	}
	return c.track(pool), nil
}

func (c *Conn) CreateBuffer(poolID session.ObjectID, offset, width, height, stride int32, format uint32) (session.ObjectID, error) {
	pool, err := lookup[*client.ShmPool](c, poolID)
	if err != nil {
		return 0, err
	}
	buffer, err := pool.CreateBuffer(offset, width, height, stride, format)
	if err != nil {
		return 0, fmt.Errorf("failed to create buffer: %w", err)
	}
	id := c.track(buffer)

	buffer.SetReleaseHandler(func(client.BufferReleaseEvent) {
		c.emit(session.BufferRelease{Object: id})
	})
	return id, nil
}

func (c *Conn) Attach(surfaceID, bufferID session.ObjectID, x, y int32) error {
	surface, err := lookup[*client.Surface](c, surfaceID)
	if err != nil {
		return err
	}
	buffer, err := lookup[*client.Buffer](c, bufferID)
	if err != nil {
		return err
	}
	return surface.Attach(buffer, x, y)
}

func (c *Conn) Damage(surfaceID session.ObjectID, x, y, width, height int32) error {
	surface, err := lookup[*client.Surface](c, surfaceID)
	if err != nil {
		return err
	}
	return surface.Damage(x, y, width, height)
}

func (c *Conn) Commit(surfaceID session.ObjectID) error {
	surface, err := lookup[*client.Surface](c, surfaceID)
	if err != nil {
		return err
	}
	return surface.Commit()
}

// Destroy sends the object's destructor request, if it has one, and forgets
// the object.
func (c *Conn) Destroy(id session.ObjectID) error {
	p, ok := c.objects[id]
	if !ok {
		return fmt.Errorf("unknown object %d", id)
	}
	delete(c.objects, id)

	if d, ok := p.(interface{ Destroy() error }); ok {
		return d.Destroy()
	}
	return nil
}
