package event

import (
	"fmt"
	"time"
)

// Type identifies an event delivered to the embedding application.
type Type string

const (
	TypeLoadStart       Type = "load_start"
	TypeLoad            Type = "load"
	TypePlay            Type = "play"
	TypePause           Type = "pause"
	TypeStop            Type = "stop"
	TypeProgress        Type = "progress"
	TypeBuffer          Type = "buffer"
	TypeSeek            Type = "seek"
	TypeVolume          Type = "volume"
	TypeError           Type = "error"
	TypeEnterFullscreen Type = "enter_fullscreen"
	TypeExitFullscreen  Type = "exit_fullscreen"
)

// ErrorCode classifies Error events.
type ErrorCode string

const (
	// CodeBuildFailed means the engine could not be built or prepared.  Nothing was played.
	CodeBuildFailed ErrorCode = "build_failed"
	// CodePlaybackFailed means the engine hit an unrecoverable error while playing.
	CodePlaybackFailed ErrorCode = "playback_failed"
)

// Event is one notification.  Only the fields relevant to Type are set.
type Event struct {
	Type Type

	// LoadStart
	URI       string
	MimeType  string
	IsNetwork bool

	// Load, Progress, Buffer, Seek
	Duration         time.Duration
	CurrentTime      time.Duration
	BufferedDuration time.Duration
	BufferPercent    int
	From             time.Duration
	To               time.Duration

	// Volume
	Level float64
	Muted bool

	// Error
	Code    ErrorCode
	Message string
	Fatal   bool
}

func LoadStart(uri, mimeType string, isNetwork bool) Event {
	return Event{Type: TypeLoadStart, URI: uri, MimeType: mimeType, IsNetwork: isNetwork}
}

func Load(duration, currentTime time.Duration) Event {
	return Event{Type: TypeLoad, Duration: duration, CurrentTime: currentTime}
}

func Play() Event  { return Event{Type: TypePlay} }
func Pause() Event { return Event{Type: TypePause} }
func Stop() Event  { return Event{Type: TypeStop} }

func Progress(currentTime, buffered time.Duration) Event {
	return Event{Type: TypeProgress, CurrentTime: currentTime, BufferedDuration: buffered}
}

func Buffer(percent int, buffered time.Duration) Event {
	return Event{Type: TypeBuffer, BufferPercent: percent, BufferedDuration: buffered}
}

func Seek(from, to time.Duration) Event {
	return Event{Type: TypeSeek, From: from, To: to}
}

func Volume(level float64, muted bool) Event {
	return Event{Type: TypeVolume, Level: level, Muted: muted}
}

func Error(code ErrorCode, err error, fatal bool) Event {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Event{Type: TypeError, Code: code, Message: msg, Fatal: fatal}
}

func EnterFullscreen() Event { return Event{Type: TypeEnterFullscreen} }
func ExitFullscreen() Event  { return Event{Type: TypeExitFullscreen} }

// String renders the event for logs and the TUI event pane.
func (e Event) String() string {
	switch e.Type {
	case TypeLoadStart:
		return fmt.Sprintf("load_start uri=%s type=%s network=%t", e.URI, e.MimeType, e.IsNetwork)
	case TypeLoad:
		return fmt.Sprintf("load duration=%s current=%s", e.Duration, e.CurrentTime)
	case TypeProgress:
		return fmt.Sprintf("progress current=%s buffered=%s", e.CurrentTime, e.BufferedDuration)
	case TypeBuffer:
		return fmt.Sprintf("buffer percent=%d buffered=%s", e.BufferPercent, e.BufferedDuration)
	case TypeSeek:
		return fmt.Sprintf("seek from=%s to=%s", e.From, e.To)
	case TypeVolume:
		return fmt.Sprintf("volume level=%.2f muted=%t", e.Level, e.Muted)
	case TypeError:
		return fmt.Sprintf("error code=%s fatal=%t message=%q", e.Code, e.Fatal, e.Message)
	default:
		return string(e.Type)
	}
}
