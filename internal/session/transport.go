package session

import "errors"

// ObjectID identifies a protocol object created or bound through a Transport.
type ObjectID uint32

// ErrClosed is returned by Transport.ReadEvents when the compositor closed
// the connection in an orderly way.
var ErrClosed = errors.New("transport closed")

// Transport is the message channel to the compositor. Requests are sent
// synchronously; incoming messages are surfaced as Events by ReadEvents.
// A Transport is opened and closed by its owner, never by the Session.
type Transport interface {
	// ReadEvents blocks until at least one message is available and returns
	// every event decoded so far, in arrival order.
	ReadEvents() ([]Event, error)

	GetRegistry() (ObjectID, error)
	// Sync requests a callback that fires once the compositor has processed
	// every earlier request.
	Sync() (ObjectID, error)
	Bind(registry ObjectID, name uint32, iface string, version uint32) (ObjectID, error)

	CreateSurface(compositor ObjectID) (ObjectID, error)
	GetXdgSurface(wmBase, surface ObjectID) (ObjectID, error)
	GetToplevel(xdgSurface ObjectID) (ObjectID, error)
	SetTitle(toplevel ObjectID, title string) error
	AckConfigure(xdgSurface ObjectID, serial uint32) error
	Pong(wmBase ObjectID, serial uint32) error

	CreatePool(shm ObjectID, fd int, size int32) (ObjectID, error)
	CreateBuffer(pool ObjectID, offset, width, height, stride int32, format uint32) (ObjectID, error)

	Attach(surface, buffer ObjectID, x, y int32) error
	Damage(surface ObjectID, x, y, width, height int32) error
	Commit(surface ObjectID) error

	Destroy(id ObjectID) error
}
