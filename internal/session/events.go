package session

// Event is a decoded message from the compositor. Sender reports the object
// the message originated from.
type Event interface {
	Sender() ObjectID
}

// RegistryGlobal is wl_registry.global.
type RegistryGlobal struct {
	Object    ObjectID
	Name      uint32
	Interface string
	Version   uint32
}

// RegistryGlobalRemove is wl_registry.global_remove.
type RegistryGlobalRemove struct {
	Object ObjectID
	Name   uint32
}

// CallbackDone is wl_callback.done.
type CallbackDone struct {
	Object ObjectID
	Data   uint32
}

// ShmFormat is wl_shm.format.
type ShmFormat struct {
	Object ObjectID
	Format uint32
}

// WmBasePing is xdg_wm_base.ping.
type WmBasePing struct {
	Object ObjectID
	Serial uint32
}

// SurfaceConfigure is xdg_surface.configure.
type SurfaceConfigure struct {
	Object ObjectID
	Serial uint32
}

// ToplevelConfigure is xdg_toplevel.configure. A zero width or height means
// the client picks that dimension.
type ToplevelConfigure struct {
	Object ObjectID
	Width  int32
	Height int32
	States []uint32
}

// ToplevelClose is xdg_toplevel.close.
type ToplevelClose struct {
	Object ObjectID
}

// ToplevelConfigureBounds is xdg_toplevel.configure_bounds.
type ToplevelConfigureBounds struct {
	Object ObjectID
	Width  int32
	Height int32
}

// ToplevelWmCapabilities is xdg_toplevel.wm_capabilities.
type ToplevelWmCapabilities struct {
	Object       ObjectID
	Capabilities []uint32
}

// BufferRelease is wl_buffer.release.
type BufferRelease struct {
	Object ObjectID
}

// DisplayError is wl_display.error: a fatal protocol error raised by the
// compositor against one of our objects.
type DisplayError struct {
	Object   ObjectID
	ObjectID ObjectID
	Code     uint32
	Message  string
}

func (e RegistryGlobal) Sender() ObjectID          { return e.Object }
func (e RegistryGlobalRemove) Sender() ObjectID    { return e.Object }
func (e CallbackDone) Sender() ObjectID            { return e.Object }
func (e ShmFormat) Sender() ObjectID               { return e.Object }
func (e WmBasePing) Sender() ObjectID              { return e.Object }
func (e SurfaceConfigure) Sender() ObjectID        { return e.Object }
func (e ToplevelConfigure) Sender() ObjectID       { return e.Object }
func (e ToplevelClose) Sender() ObjectID           { return e.Object }
func (e ToplevelConfigureBounds) Sender() ObjectID { return e.Object }
func (e ToplevelWmCapabilities) Sender() ObjectID  { return e.Object }
func (e BufferRelease) Sender() ObjectID           { return e.Object }
func (e DisplayError) Sender() ObjectID            { return e.Object }
