package session

import "sort"

// Interfaces this client binds.
const (
	InterfaceCompositor = "wl_compositor"
	InterfaceShm        = "wl_shm"
	InterfaceWmBase     = "xdg_wm_base"
)

// requiredGlobal is an allow-listed interface with the highest version whose
// events this client understands.
type requiredGlobal struct {
	iface      string
	role       string
	maxVersion uint32
}

var requiredGlobals = []requiredGlobal{
	{iface: InterfaceCompositor, role: "compositor-factory", maxVersion: 6},
	{iface: InterfaceShm, role: "shared-memory-factory", maxVersion: 1},
	{iface: InterfaceWmBase, role: "desktop-shell-base", maxVersion: 5},
}

func lookupRequired(iface string) (requiredGlobal, bool) {
	for _, g := range requiredGlobals {
		if g.iface == iface {
			return g, true
		}
	}
	return requiredGlobal{}, false
}

// Global is a capability advertised by the compositor.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// BoundObject is an allow-listed global bound to a local handle.
type BoundObject struct {
	Interface string
	Name      uint32
	Version   uint32
	Handle    ObjectID
}

// registry tracks advertised globals and the objects bound from them.
type registry struct {
	id         ObjectID
	advertised map[uint32]Global
	bound      map[string]BoundObject
	// listOnly records advertisements without binding anything.
	listOnly bool
}

func newRegistry() *registry {
	return &registry{
		advertised: make(map[uint32]Global),
		bound:      make(map[string]BoundObject),
	}
}

func (s *Session) handleGlobal(e RegistryGlobal) error {
	s.registry.advertised[e.Name] = Global{Name: e.Name, Interface: e.Interface, Version: e.Version}

	req, ok := lookupRequired(e.Interface)
	if !ok || s.registry.listOnly {
		log.Debug("ignoring global", "interface", e.Interface, "name", e.Name, "version", e.Version)
		return nil
	}
	if prev, dup := s.registry.bound[e.Interface]; dup {
		log.Debug("global already bound", "interface", e.Interface, "bound_name", prev.Name, "name", e.Name)
		return nil
	}

	version := e.Version
	if version > req.maxVersion {
		version = req.maxVersion
	}
	id, err := s.t.Bind(s.registry.id, e.Name, e.Interface, version)
	if err != nil {
		return transportErr("bind "+e.Interface, err)
	}

	s.registry.bound[e.Interface] = BoundObject{
		Interface: e.Interface,
		Name:      e.Name,
		Version:   version,
		Handle:    id,
	}
	log.Debug("bound global", "interface", e.Interface, "name", e.Name, "version", version, "id", id)
	return nil
}

// handleGlobalRemove keeps bound handles valid: hot-unplug of the globals
// this client needs is not supported.
func (s *Session) handleGlobalRemove(e RegistryGlobalRemove) {
	g, ok := s.registry.advertised[e.Name]
	if !ok {
		return
	}
	delete(s.registry.advertised, e.Name)

	if b, bound := s.registry.bound[g.Interface]; bound && b.Name == e.Name {
		log.Warn("compositor removed a bound global; keeping handle", "interface", g.Interface, "name", e.Name)
		return
	}
	log.Debug("global removed", "interface", g.Interface, "name", e.Name)
}

// discover creates the registry and round-trips so every current global has
// been advertised (and, unless listing only, bound) before returning.
func (s *Session) discover() error {
	id, err := s.t.GetRegistry()
	if err != nil {
		return transportErr("get_registry", err)
	}
	s.registry.id = id
	return s.roundtrip()
}

// requireGlobals fails with a MissingCapabilityError naming the first
// required interface that was never bound.
func (s *Session) requireGlobals() error {
	for _, g := range requiredGlobals {
		if _, ok := s.registry.bound[g.iface]; !ok {
			return &MissingCapabilityError{Interface: g.iface, Role: g.role}
		}
	}
	return nil
}

func (s *Session) handle(iface string) ObjectID {
	return s.registry.bound[iface].Handle
}

// Bound returns the bound object for iface.
func (s *Session) Bound(iface string) (BoundObject, bool) {
	b, ok := s.registry.bound[iface]
	return b, ok
}

// Globals returns every global currently advertised, ordered by name.
func (s *Session) Globals() []Global {
	out := make([]Global, 0, len(s.registry.advertised))
	for _, g := range s.registry.advertised {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsRequired reports whether iface is one of the globals this client binds.
func IsRequired(iface string) bool {
	_, ok := lookupRequired(iface)
	return ok
}
