package wire

import "fmt"

// ProtocolError is a fatal wl_display.error sent by the compositor.
type ProtocolError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("wayland protocol error on object %d (code %d): %s", e.ObjectID, e.Code, e.Message)
}

// Display is the wl_display singleton.
type Display struct {
	Proxy
	deleteHandler func(id uint32)
}

// Sync requests a wl_callback that is done once all prior requests have
// been processed.
func (d *Display) Sync() (*Callback, error) {
	cb := &Callback{}
	cb.Init(d.conn, d.conn.NewID())
	d.conn.Register(cb)
	if err := d.conn.SendRequest(d, 0, cb); err != nil {
		return nil, err
	}
	return cb, nil
}

// GetRegistry creates the wl_registry object.
func (d *Display) GetRegistry() (*Registry, error) {
	r := &Registry{}
	r.Init(d.conn, d.conn.NewID())
	d.conn.Register(r)
	if err := d.conn.SendRequest(d, 1, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SetDeleteIDHandler observes wl_display.delete_id after the id is released.
func (d *Display) SetDeleteIDHandler(h func(id uint32)) {
	d.deleteHandler = h
}

// Dispatch handles wl_display events.
func (d *Display) Dispatch(e *Event) {
	switch e.Opcode {
	case 0:
		objectID := e.Object()
		code := e.Uint32()
		msg := e.String()
		if e.Err() == nil {
			d.conn.fail(&ProtocolError{ObjectID: objectID, Code: code, Message: msg})
		}
	case 1:
		id := e.Uint32()
		if e.Err() != nil {
			return
		}
		d.conn.deleteID(id)
		if d.deleteHandler != nil {
			d.deleteHandler(id)
		}
	}
}

// Global describes a global advertised by the registry.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Registry is a wl_registry object.
type Registry struct {
	Proxy
	globalHandler       func(Global)
	globalRemoveHandler func(name uint32)
}

// SetGlobalHandler sets the handler for wl_registry.global.
func (r *Registry) SetGlobalHandler(h func(Global)) {
	r.globalHandler = h
}

// SetGlobalRemoveHandler sets the handler for wl_registry.global_remove.
func (r *Registry) SetGlobalRemoveHandler(h func(name uint32)) {
	r.globalRemoveHandler = h
}

// Bind binds the global name to obj, which must already carry a fresh id.
func (r *Registry) Bind(name uint32, iface string, version uint32, obj Object) error {
	r.conn.Register(obj)
	return r.conn.SendRequest(r, 0, name, iface, version, obj)
}

// Dispatch handles wl_registry events.
func (r *Registry) Dispatch(e *Event) {
	switch e.Opcode {
	case 0:
		g := Global{Name: e.Uint32(), Interface: e.String(), Version: e.Uint32()}
		if e.Err() == nil && r.globalHandler != nil {
			r.globalHandler(g)
		}
	case 1:
		name := e.Uint32()
		if e.Err() == nil && r.globalRemoveHandler != nil {
			r.globalRemoveHandler(name)
		}
	}
}

// Callback is a wl_callback object.
type Callback struct {
	Proxy
	doneHandler func(data uint32)
}

// SetDoneHandler sets the handler for wl_callback.done.
func (c *Callback) SetDoneHandler(h func(data uint32)) {
	c.doneHandler = h
}

// Dispatch handles wl_callback events.
func (c *Callback) Dispatch(e *Event) {
	if e.Opcode != 0 {
		return
	}
	data := e.Uint32()
	if e.Err() == nil && c.doneHandler != nil {
		c.doneHandler(data)
	}
}
