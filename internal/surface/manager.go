package surface

import (
	"github.com/PizzaHomicide/reelcore/internal/log"
)

// Resource is the expensive backing render resource, such as a texture or a native window.  The Manager owns it once
// adopted and is the only thing that releases it.
type Resource interface {
	ID() string
	Release()
}

// Handle is the lightweight public reference to a Resource that is handed to the render target.  The zero Handle
// means "no surface".
type Handle struct {
	resource   Resource
	generation uint64
}

// None is the empty handle.
var None Handle

func (h Handle) Valid() bool { return h.resource != nil }

// Resource returns the backing resource.  Render targets may only use it until the next SetSurface call.
func (h Handle) Resource() Resource { return h.resource }

// Generation increases every time a new handle is created by a Manager.
func (h Handle) Generation() uint64 { return h.generation }

func (h Handle) String() string {
	if !h.Valid() {
		return "none"
	}
	return h.resource.ID()
}

// Target consumes handles.  It must drop any previous handle when a new one arrives.
type Target interface {
	SetSurface(h Handle)
}

// View is the host widget showing the surface.
type View interface {
	// Size is the current view size in pixels.
	Size() (width, height int)
	// BindResource points a re-attached view at an existing resource.
	BindResource(r Resource)
	// SetTransform applies the scale transform to the frame.
	SetTransform(m Matrix)
}

// Manager keeps a backing resource bound to a render target while the host view comes and goes.
//
// When persisting, the resource survives the view being detached and is rebound directly on re-attach, so the render
// target never sees the surface go away.  Without persisting, a detach releases the resource and tells the target
// there is no surface.  Persisting is on by default.
//
// Manager is not safe for concurrent use; drive it from the event loop.
type Manager struct {
	view   View
	target Target
	logger *log.Logger

	mode         ScaleMode
	srcW, srcH   int
	viewW, viewH int
	transform    Matrix

	resource   Resource
	handle     Handle
	generation uint64
	persisting bool
	active     bool
}

func NewManager(view View, target Target) *Manager {
	return &Manager{
		view:       view,
		target:     target,
		logger:     log.With("component", "surface"),
		mode:       ScaleNone,
		transform:  Identity,
		persisting: true,
	}
}

// SetScale changes the scale mode and recomputes the transform.
func (m *Manager) SetScale(mode ScaleMode) {
	m.mode = mode
	m.updateTransform()
}

// SetSourceSize records the decoded frame size and recomputes the transform.
func (m *Manager) SetSourceSize(width, height int) {
	m.srcW, m.srcH = width, height
	m.updateTransform()
}

// SetPersist switches persistence.  Turning it off while the view is detached releases the resource right away;
// while attached the release waits for the next detach.
func (m *Manager) SetPersist(persist bool) {
	m.logger.Debug("Setting surface persistence", "persist", persist, "active", m.active)
	m.persisting = persist
	if !persist && !m.active {
		m.release()
	}
}

// OnSurfaceAvailable is called by the host when a new backing resource is ready to draw into.
func (m *Manager) OnSurfaceAvailable(r Resource, width, height int) {
	m.logger.Debug("Surface available", "resource", r.ID(), "width", width, "height", height)
	m.viewW, m.viewH = width, height
	m.active = true

	if m.resource != nil && m.resource != r {
		m.replace(r)
		return
	}
	m.resource = r
	m.notifySurfaceIfNeeded()
}

// OnSurfaceUpdated is called by the host when a frame was drawn into r.
func (m *Manager) OnSurfaceUpdated(r Resource) {
	if !m.active {
		return
	}
	if m.resource != r {
		m.replace(r)
		return
	}
	m.notifySurfaceIfNeeded()
}

// OnSurfaceSizeChanged is called by the host when the view was resized.
func (m *Manager) OnSurfaceSizeChanged(width, height int) {
	m.viewW, m.viewH = width, height
	m.updateTransform()
}

// OnSurfaceDestroyed is called by the host when the view lost its backing resource.
func (m *Manager) OnSurfaceDestroyed() {
	m.deactivate("surface destroyed")
}

// OnViewDetached is called by the host when the view left its window.
func (m *Manager) OnViewDetached() {
	m.deactivate("view detached")
}

// OnViewAttached is called by the host when the view joined a window.  A persisted resource is rebound directly and
// no availability signal is expected afterwards.
func (m *Manager) OnViewAttached() {
	if m.resource == nil {
		return
	}
	if !m.persisting {
		m.logger.Warn("View attached with a lingering resource while not persisting, releasing it",
			"resource", m.resource.ID())
		m.release()
		return
	}

	m.logger.Debug("Rebinding persisted surface", "resource", m.resource.ID())
	m.view.BindResource(m.resource)
	m.active = true
	if w, h := m.view.Size(); w > 0 && h > 0 {
		m.viewW, m.viewH = w, h
	}
	m.notifySurfaceIfNeeded()
	m.updateTransform()
}

// Teardown releases the resource immediately regardless of persistence.  The render target is told first, and the
// resource is only freed once that call has returned.
func (m *Manager) Teardown() {
	m.logger.Debug("Tearing down surface")
	m.persisting = false
	m.active = false
	m.release()
}

// Handle is the currently published handle.
func (m *Manager) Handle() Handle { return m.handle }

// Resource is the currently adopted backing resource, if any.
func (m *Manager) Resource() Resource { return m.resource }

// Active reports whether the view is attached.
func (m *Manager) Active() bool { return m.active }

// Persisting reports whether the resource survives a detach.
func (m *Manager) Persisting() bool { return m.persisting }

// Scale is the current scale mode.
func (m *Manager) Scale() ScaleMode { return m.mode }

// Transform is the last transform applied to the view.
func (m *Manager) Transform() Matrix { return m.transform }

func (m *Manager) deactivate(reason string) {
	if !m.active {
		return
	}
	m.logger.Debug("Surface inactive", "reason", reason, "persisting", m.persisting)
	m.active = false
	if !m.persisting {
		m.release()
	}
}

// replace handles the host offering a second resource while one is adopted.  The host should have let the view reuse
// the adopted one, but getting stuck is worse than swapping.
func (m *Manager) replace(r Resource) {
	old := m.resource
	m.logger.Warn("New backing resource while another is adopted, replacing it",
		"old", old.ID(), "new", r.ID(), "persisting", m.persisting)

	m.resource = r
	m.handle = None
	m.view.BindResource(r)
	m.notifySurfaceIfNeeded()
	old.Release()
}

func (m *Manager) notifySurfaceIfNeeded() {
	if m.handle.Valid() || m.resource == nil || !m.active {
		return
	}
	m.generation++
	m.handle = Handle{resource: m.resource, generation: m.generation}
	m.logger.Debug("Publishing surface", "handle", m.handle.String(), "generation", m.generation)
	m.target.SetSurface(m.handle)
	m.updateTransform()
}

func (m *Manager) release() {
	r := m.resource
	published := m.handle.Valid()
	m.resource = nil
	m.handle = None

	if published {
		m.target.SetSurface(None)
	}
	if r != nil {
		m.logger.Debug("Releasing backing resource", "resource", r.ID())
		r.Release()
	}
}

func (m *Manager) updateTransform() {
	w, h := m.viewW, m.viewH
	if w <= 0 || h <= 0 {
		w, h = m.view.Size()
	}
	mx, ok := Transform(w, h, m.srcW, m.srcH, m.mode)
	if !ok {
		return
	}
	m.transform = mx
	m.view.SetTransform(mx)
}
