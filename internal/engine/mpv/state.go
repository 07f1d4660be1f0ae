package mpv

import (
	"encoding/json"
	"time"

	"github.com/PizzaHomicide/reelcore/internal/engine"
)

// Observed property ids.
const (
	propPause = iota + 1
	propIdleActive
	propPausedForCache
	propSeeking
	propEOFReached
	propDuration
	propTimePos
	propCacheDuration
	propVideoWidth
	propVideoHeight
)

var observedProperties = []struct {
	id   int
	name string
}{
	{propPause, "pause"},
	{propIdleActive, "idle-active"},
	{propPausedForCache, "paused-for-cache"},
	{propSeeking, "seeking"},
	{propEOFReached, "eof-reached"},
	{propDuration, "duration"},
	{propTimePos, "time-pos"},
	{propCacheDuration, "demuxer-cache-duration"},
	{propVideoWidth, "video-params/w"},
	{propVideoHeight, "video-params/h"},
}

// props mirrors the observed mpv properties.
type props struct {
	pause          bool
	idle           bool
	loading        bool
	pausedForCache bool
	seeking        bool
	eof            bool

	duration      float64
	timePos       float64
	cacheDuration float64

	width, height int
}

// state maps the mirrored properties onto the engine states.
func (p props) state() engine.State {
	switch {
	case p.loading:
		return engine.StatePreparing
	case p.idle:
		return engine.StateIdle
	case p.eof:
		return engine.StateEnded
	case p.pausedForCache || p.seeking:
		return engine.StateBuffering
	default:
		return engine.StateReady
	}
}

// apply updates the mirror from a property-change event.  Unset properties arrive with no data and reset to zero.  It
// reports whether the property was one we track.
func (p *props) apply(name string, data json.RawMessage) bool {
	switch name {
	case "pause":
		p.pause = decodeBool(data)
	case "idle-active":
		p.idle = decodeBool(data)
	case "paused-for-cache":
		p.pausedForCache = decodeBool(data)
	case "seeking":
		p.seeking = decodeBool(data)
	case "eof-reached":
		p.eof = decodeBool(data)
	case "duration":
		p.duration = decodeFloat(data)
	case "time-pos":
		p.timePos = decodeFloat(data)
	case "demuxer-cache-duration":
		p.cacheDuration = decodeFloat(data)
	case "video-params/w":
		p.width = int(decodeFloat(data))
	case "video-params/h":
		p.height = int(decodeFloat(data))
	default:
		return false
	}
	return true
}

func (p props) position() time.Duration { return seconds(p.timePos) }

func (p props) bufferedPosition() time.Duration {
	if p.duration <= 0 {
		return seconds(p.timePos + p.cacheDuration)
	}
	return min(seconds(p.timePos+p.cacheDuration), seconds(p.duration))
}

func (p props) bufferedPercentage() int {
	if p.duration <= 0 {
		return 0
	}
	pct := int((p.timePos + p.cacheDuration) / p.duration * 100)
	return min(max(pct, 0), 100)
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

func decodeBool(data json.RawMessage) bool {
	var v bool
	if len(data) == 0 {
		return false
	}
	_ = json.Unmarshal(data, &v)
	return v
}

func decodeFloat(data json.RawMessage) float64 {
	var v float64
	if len(data) == 0 {
		return 0
	}
	_ = json.Unmarshal(data, &v)
	return v
}
