package surface

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResource struct {
	id       string
	released int
}

func (r *fakeResource) ID() string { return r.id }
func (r *fakeResource) Release()   { r.released++ }

type fakeTarget struct {
	handles []Handle
}

func (t *fakeTarget) SetSurface(h Handle) { t.handles = append(t.handles, h) }

func (t *fakeTarget) noneCount() int {
	n := 0
	for _, h := range t.handles {
		if !h.Valid() {
			n++
		}
	}
	return n
}

type fakeView struct {
	w, h       int
	bound      []Resource
	transforms []Matrix
}

func (v *fakeView) Size() (int, int)        { return v.w, v.h }
func (v *fakeView) BindResource(r Resource) { v.bound = append(v.bound, r) }
func (v *fakeView) SetTransform(m Matrix)   { v.transforms = append(v.transforms, m) }
func (v *fakeView) lastTransform() Matrix   { return v.transforms[len(v.transforms)-1] }

func newTestManager() (*Manager, *fakeView, *fakeTarget) {
	view := &fakeView{w: 1920, h: 1080}
	target := &fakeTarget{}
	return NewManager(view, target), view, target
}

func TestAvailablePublishesHandleOnce(t *testing.T) {
	m, _, target := newTestManager()
	tex := &fakeResource{id: "tex-1"}

	m.OnSurfaceAvailable(tex, 1920, 1080)
	m.OnSurfaceUpdated(tex)
	m.OnSurfaceUpdated(tex)

	require.Len(t, target.handles, 1)
	assert.True(t, target.handles[0].Valid())
	assert.Equal(t, tex, target.handles[0].Resource())
	assert.True(t, m.Active())
	assert.Equal(t, tex, m.Resource())
}

func TestPersistingDetachReattachReusesResource(t *testing.T) {
	m, view, target := newTestManager()
	tex := &fakeResource{id: "tex-1"}

	m.OnSurfaceAvailable(tex, 1920, 1080)
	first := m.Handle()

	m.OnViewDetached()
	m.OnSurfaceDestroyed()
	assert.False(t, m.Active())

	m.OnViewAttached()

	assert.True(t, m.Active())
	assert.Equal(t, first, m.Handle(), "the same public handle must survive")
	assert.Equal(t, []Resource{tex}, view.bound)
	assert.Equal(t, 0, target.noneCount(), "the render target must not see the surface go away")
	assert.Len(t, target.handles, 1)
	assert.Equal(t, 0, tex.released)
}

func TestNonPersistingDetachReleasesOnce(t *testing.T) {
	m, _, target := newTestManager()
	m.SetPersist(false)
	tex := &fakeResource{id: "tex-1"}

	m.OnSurfaceAvailable(tex, 1920, 1080)
	m.OnViewDetached()
	m.OnSurfaceDestroyed()

	assert.Equal(t, 1, target.noneCount())
	assert.Equal(t, 1, tex.released)
	assert.Nil(t, m.Resource())
	assert.False(t, m.Handle().Valid())

	// Nothing left to rebind
	m.OnViewAttached()
	assert.Equal(t, 1, target.noneCount())
}

func TestSetPersistFalseWhileDetachedReleasesNow(t *testing.T) {
	m, _, target := newTestManager()
	tex := &fakeResource{id: "tex-1"}

	m.OnSurfaceAvailable(tex, 1280, 720)
	m.OnViewDetached()
	assert.Equal(t, 0, tex.released)

	m.SetPersist(false)

	assert.Equal(t, 1, tex.released)
	assert.Equal(t, 1, target.noneCount())
}

func TestSetPersistFalseWhileAttachedWaitsForDetach(t *testing.T) {
	m, _, target := newTestManager()
	tex := &fakeResource{id: "tex-1"}

	m.OnSurfaceAvailable(tex, 1280, 720)
	m.SetPersist(false)
	assert.Equal(t, 0, tex.released)

	m.OnSurfaceDestroyed()
	assert.Equal(t, 1, tex.released)
	assert.Equal(t, 1, target.noneCount())
}

func TestNewResourceWhileAdoptedIsReplaced(t *testing.T) {
	m, view, target := newTestManager()
	first := &fakeResource{id: "tex-1"}
	second := &fakeResource{id: "tex-2"}

	m.OnSurfaceAvailable(first, 1920, 1080)
	m.OnSurfaceAvailable(second, 1920, 1080)

	assert.Equal(t, second, m.Resource())
	require.Len(t, target.handles, 2)
	assert.Equal(t, second, target.handles[1].Resource())
	assert.Greater(t, target.handles[1].Generation(), target.handles[0].Generation())
	assert.Equal(t, 0, target.noneCount(), "replacement goes straight to the new handle")
	assert.Equal(t, 1, first.released)
	assert.Equal(t, []Resource{second}, view.bound)
}

func TestTeardownNotifiesTargetBeforeRelease(t *testing.T) {
	view := &fakeView{w: 640, h: 360}
	tex := &fakeResource{id: "tex-1"}
	var order []string
	target := targetFunc(func(h Handle) {
		if !h.Valid() {
			order = append(order, fmt.Sprintf("none released=%d", tex.released))
		}
	})
	m := NewManager(view, target)

	m.OnSurfaceAvailable(tex, 640, 360)
	m.Teardown()

	assert.Equal(t, []string{"none released=0"}, order)
	assert.Equal(t, 1, tex.released)
	assert.False(t, m.Persisting())

	// A second teardown has nothing to do
	m.Teardown()
	assert.Len(t, order, 1)
}

type targetFunc func(Handle)

func (f targetFunc) SetSurface(h Handle) { f(h) }

func TestScaleChangesOnlyRecomputeTransform(t *testing.T) {
	m, view, target := newTestManager()

	m.SetSourceSize(1280, 720)
	m.SetScale(ScaleFitCenter)
	assert.Empty(t, target.handles, "scale changes never allocate a surface")
	assert.Nil(t, m.Resource())

	m.OnSurfaceAvailable(&fakeResource{id: "tex-1"}, 1000, 1000)
	m.SetScale(ScaleCenterCrop)

	want, ok := Transform(1000, 1000, 1280, 720, ScaleCenterCrop)
	require.True(t, ok)
	assert.Equal(t, want, view.lastTransform())
	assert.Equal(t, want, m.Transform())
}

func TestSizeChangeRecomputesTransform(t *testing.T) {
	m, view, _ := newTestManager()
	m.SetScale(ScaleFitCenter)
	m.SetSourceSize(100, 100)
	m.OnSurfaceAvailable(&fakeResource{id: "tex-1"}, 200, 100)

	m.OnSurfaceSizeChanged(100, 200)

	assert.Equal(t, Matrix{ScaleX: 1, ScaleY: 0.5, TranslateX: 0, TranslateY: 50}, view.lastTransform())
}

func TestZeroSourceSizeLeavesTransformAlone(t *testing.T) {
	m, view, _ := newTestManager()
	m.SetScale(ScaleCenterCrop)
	assert.Empty(t, view.transforms)
	assert.Equal(t, Identity, m.Transform())
}
