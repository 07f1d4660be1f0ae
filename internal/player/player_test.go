package player

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/reelcore/internal/config"
	"github.com/PizzaHomicide/reelcore/internal/engine"
	"github.com/PizzaHomicide/reelcore/internal/engine/enginetest"
	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/presentation"
	"github.com/PizzaHomicide/reelcore/internal/surface"
	"github.com/PizzaHomicide/reelcore/internal/timer/timertest"
	"github.com/PizzaHomicide/reelcore/internal/transport"
)

var clip = engine.Source{URI: "https://example.com/clip.mp4", MimeType: "video/mp4", IsNetwork: true}

type fakeHost struct {
	visible     bool
	buttons     transport.Buttons
	progress    transport.Progress
	playing     bool
	fullscreen  bool
	canReparent bool
	reparents   []presentation.Mode
	bound       []surface.Resource
	transform   surface.Matrix
	chrome      []bool
}

func (h *fakeHost) SetVisible(visible bool)             { h.visible = visible }
func (h *fakeHost) SetButtons(b transport.Buttons)      { h.buttons = b }
func (h *fakeHost) SetProgress(p transport.Progress)    { h.progress = p }
func (h *fakeHost) SetPlaying(playing bool)             { h.playing = playing }
func (h *fakeHost) SetFullscreen(fullscreen bool)       { h.fullscreen = fullscreen }
func (h *fakeHost) CanReparent() bool                   { return h.canReparent }
func (h *fakeHost) RequestReparent(m presentation.Mode) { h.reparents = append(h.reparents, m) }
func (h *fakeHost) Size() (int, int)                    { return 1280, 720 }
func (h *fakeHost) BindResource(r surface.Resource)     { h.bound = append(h.bound, r) }
func (h *fakeHost) SetTransform(m surface.Matrix)       { h.transform = m }
func (h *fakeHost) SetChromeHidden(hidden bool)         { h.chrome = append(h.chrome, hidden) }

type window struct {
	id       string
	released bool
}

func (w *window) ID() string { return w.id }
func (w *window) Release()   { w.released = true }

type fixture struct {
	queue  *timertest.Queue
	eng    *enginetest.Fake
	host   *fakeHost
	events *event.Recorder
	p      *Player
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		queue:  timertest.New(),
		eng:    enginetest.New(),
		host:   &fakeHost{canReparent: true},
		events: &event.Recorder{},
	}
	f.p = New(f.queue, enginetest.Factory(f.eng), f.host, f.events, opts)
	t.Cleanup(f.p.Release)
	return f
}

// load takes the player from SetSource to a loaded, ready engine.
func (f *fixture) load(t *testing.T, duration time.Duration) {
	t.Helper()
	f.p.SetSource(clip)
	require.True(t, f.eng.CompleteBuild(nil))
	f.eng.SetDuration(duration)
	f.eng.Report(f.eng.PlayWhenReady(), engine.StatePreparing)
	f.eng.Report(f.eng.PlayWhenReady(), engine.StateReady)
}

func TestPropsAppliedWhenEngineBuilds(t *testing.T) {
	opts := DefaultOptions()
	opts.Props.Muted = true
	opts.Props.Volume = 0.4
	opts.Props.Paused = true
	f := newFixture(t, opts)

	f.load(t, 10*time.Second)

	assert.Equal(t, []string{"SetMuted(true)"}, f.eng.CallsWithPrefix("SetMuted"))
	assert.Equal(t, []string{"SetVolume(0.40)"}, f.eng.CallsWithPrefix("SetVolume"))
	assert.False(t, f.eng.PlayWhenReady())
	assert.False(t, f.p.IsPlaying())
	assert.Equal(t, []event.Type{event.TypeLoadStart, event.TypeLoad, event.TypePause}, f.events.Types())
}

func TestStartingSeekRunsAfterLoad(t *testing.T) {
	opts := DefaultOptions()
	opts.Props.Seek = 0.25
	f := newFixture(t, opts)

	f.load(t, 40*time.Second)
	assert.Empty(t, f.eng.CallsWithPrefix("SeekTo"), "seek waits until every sink has seen Load")

	f.queue.Advance(0)
	assert.Equal(t, []string{"SeekTo(10s)"}, f.eng.CallsWithPrefix("SeekTo"))
	assert.Equal(t, []event.Type{event.TypeLoadStart, event.TypeLoad, event.TypePlay, event.TypeSeek}, f.events.Types())

	seek, ok := f.events.Last(event.TypeSeek)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, seek.To)

	// Buffering and coming back is not a new load
	f.eng.Report(true, engine.StateBuffering)
	f.eng.Report(true, engine.StateReady)
	f.queue.Advance(0)
	assert.Len(t, f.eng.CallsWithPrefix("SeekTo"), 1)
}

func TestStartingSeekDroppedWithoutDuration(t *testing.T) {
	opts := DefaultOptions()
	opts.Props.Seek = 0.5
	f := newFixture(t, opts)

	f.load(t, 0)
	f.queue.Advance(0)
	assert.Empty(t, f.eng.CallsWithPrefix("SeekTo"))
}

func TestSetSeekWithKnownDuration(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.load(t, 20*time.Second)

	f.p.SetSeek(0.5)
	assert.Equal(t, []string{"SeekTo(10s)"}, f.eng.CallsWithPrefix("SeekTo"))
	assert.Equal(t, 10*time.Second, f.p.Position())

	f.p.SetSeek(2)
	assert.Equal(t, 1.0, f.p.Props().Seek)
	assert.Equal(t, 20*time.Second, f.p.Position())
}

func TestStartAndPauseKeepPausedProp(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.load(t, 20*time.Second)
	require.True(t, f.p.IsPlaying())

	f.p.Transport().HandleKey(transport.KeyPlayPause)
	assert.True(t, f.p.Props().Paused)
	assert.False(t, f.p.IsPlaying())
	assert.False(t, f.host.playing)

	f.p.Transport().HandleKey(transport.KeyPlayPause)
	assert.False(t, f.p.Props().Paused)
	assert.True(t, f.host.playing)
}

func TestFatalErrorShowsControls(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.load(t, 20*time.Second)
	require.False(t, f.host.visible)

	f.eng.Fail(errors.New("decoder exploded"))

	assert.True(t, f.host.visible)
	assert.True(t, f.p.Transport().State().Persist)
	assert.False(t, f.host.playing)
	assert.Equal(t, 1, f.events.Count(event.TypeError))

	f.queue.Advance(10 * time.Second)
	assert.True(t, f.host.visible, "persistent controls do not auto-hide")
}

func TestControlsDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.Props.Controls = false
	f := newFixture(t, opts)
	f.load(t, 20*time.Second)

	f.p.Transport().OnContentTap()
	assert.False(t, f.host.visible)
	assert.False(t, f.p.Transport().HandleKey(transport.KeyPlayPause))

	f.p.SetControls(true)
	f.p.Transport().OnContentTap()
	assert.True(t, f.host.visible)
}

func TestFullscreenHidesChromeWithControls(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.load(t, 20*time.Second)

	require.True(t, f.p.Transport().HandleKey(transport.KeyFullscreen))
	assert.Equal(t, []presentation.Mode{presentation.Fullscreen}, f.host.reparents)
	assert.False(t, f.p.IsFullscreen(), "not fullscreen until the host acknowledges")

	f.p.Presentation().Acknowledge(presentation.Fullscreen)
	assert.True(t, f.p.IsFullscreen())
	assert.True(t, f.host.fullscreen)
	assert.Equal(t, 1, f.events.Count(event.TypeEnterFullscreen))
	assert.Empty(t, f.host.chrome, "chrome stays while the controls show")

	f.queue.Advance(3 * time.Second)
	assert.False(t, f.host.visible)
	assert.Equal(t, []bool{true}, f.host.chrome)

	f.p.Transport().OnContentTap()
	assert.Equal(t, []bool{true, false}, f.host.chrome)

	f.p.Transport().HandleKey(transport.KeyFullscreen)
	f.p.Presentation().Acknowledge(presentation.Embedded)
	assert.False(t, f.host.fullscreen)
	assert.Equal(t, []bool{true, false}, f.host.chrome)
}

func TestAutoHideNavOff(t *testing.T) {
	opts := DefaultOptions()
	opts.Props.AutoHideNav = false
	f := newFixture(t, opts)
	f.load(t, 20*time.Second)

	f.p.ToggleFullscreen()
	f.p.Presentation().Acknowledge(presentation.Fullscreen)
	f.queue.Advance(5 * time.Second)
	assert.Empty(t, f.host.chrome)

	f.p.SetAutoHideNav(true)
	assert.Equal(t, []bool{true}, f.host.chrome)
}

func TestFullscreenUnavailable(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.host.canReparent = false
	f.load(t, 20*time.Second)

	assert.False(t, f.p.CanGoFullscreen())
	assert.False(t, f.p.Transport().HandleKey(transport.KeyFullscreen))
	assert.Empty(t, f.host.reparents)
}

func TestSurfaceAndVideoSizeReachEngineAndView(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	w := &window{id: "0x2a"}

	f.p.Surface().OnSurfaceAvailable(w, 1280, 720)
	f.load(t, 20*time.Second)

	require.Len(t, f.eng.Surfaces, 1)
	assert.Equal(t, surface.Resource(w), f.eng.Surfaces[0].Handle.Resource())

	f.eng.ResizeVideo(720, 720)
	assert.Equal(t, surface.Matrix{ScaleX: 0.5625, ScaleY: 1, TranslateX: 280}, f.host.transform)

	f.p.SetResizeMode(surface.ScaleFillStretch)
	assert.Equal(t, surface.Identity, f.host.transform)
}

func TestReleaseTearsDown(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	w := &window{id: "0x2a"}
	f.p.Surface().OnSurfaceAvailable(w, 1280, 720)
	f.load(t, 20*time.Second)
	f.p.ToggleFullscreen()
	f.p.Presentation().Acknowledge(presentation.Fullscreen)
	f.queue.Advance(3 * time.Second)
	require.Equal(t, []bool{true}, f.host.chrome)

	f.p.Release()

	assert.True(t, f.eng.Released)
	assert.True(t, w.released)
	assert.Equal(t, []bool{true, false}, f.host.chrome)
	assert.Zero(t, f.queue.Len())

	f.p.Release()
	assert.Equal(t, []bool{true, false}, f.host.chrome)
}

func TestOptionsFromConfig(t *testing.T) {
	disabled := false
	volume := 0.3
	cfg := &config.Config{
		Video: config.VideoConfig{
			ResizeMode: "center-crop",
			Repeat:     true,
			Volume:     &volume,
			Seek:       0.1,
		},
		Controls: config.ControlsConfig{
			Enabled:          &disabled,
			Timeout:          time.Second,
			ProgressInterval: 100 * time.Millisecond,
			SeekStep:         10 * time.Second,
			ResumeOnTap:      true,
		},
		Playback: config.PlaybackConfig{
			ProgressInterval: time.Second,
			BufferInterval:   2 * time.Second,
		},
	}

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, Props{
		ResizeMode:  surface.ScaleCenterCrop,
		Repeat:      true,
		Volume:      0.3,
		Seek:        0.1,
		Controls:    false,
		AutoHideNav: true,
	}, opts.Props)
	assert.Equal(t, transport.Options{
		Timeout:          time.Second,
		ProgressInterval: 100 * time.Millisecond,
		SeekStep:         10 * time.Second,
		ResumeOnTap:      true,
	}, opts.Transport)
	assert.Equal(t, time.Second, opts.Playback.ProgressInterval)
	assert.Equal(t, 2*time.Second, opts.Playback.BufferInterval)
	assert.True(t, opts.Playback.SeekToBeginOnStop)

	cfg.Video.ResizeMode = "stretchy"
	_, err = OptionsFromConfig(cfg)
	assert.ErrorIs(t, err, surface.ErrUnknownScaleMode)
}

func TestEngineFactorySelectsMPV(t *testing.T) {
	cfg := &config.Config{Player: config.PlayerConfig{Type: "vlc", Path: "/opt/mpv"}}
	eng, err := NewEngineFactory(cfg, func(fn func()) { fn() })()
	require.NoError(t, err)
	defer eng.Release()
	assert.Equal(t, engine.StateIdle, eng.State())
}
