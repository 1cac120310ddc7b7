// Package player defines the control surface over a media playback engine and its event stream.
// The primary implementation drives 'mpv' through its JSON-IPC interface.
package player

import (
	"errors"
	"time"

	"github.com/anisan-cli/finplay/media"
	"github.com/samber/mo"
)

var (
	// ErrDecoderInit marks failures to construct a decoder for the stream.
	// They are recoverable by retrying with the alternate decoder path.
	ErrDecoderInit = errors.New("decoder initialization failed")

	// ErrNotLoaded is returned by calls that need a loaded engine.
	ErrNotLoaded = errors.New("engine not loaded")
)

// IsRecoverable reports whether a fatal engine error may be retried with another decoder.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrDecoderInit)
}

// Engine encapsulates the capabilities the session controller needs from a playback backend.
// Mutating calls on an engine with nothing loaded are no-ops.
type Engine interface {
	// Load binds the source to the engine, replacing whatever was playing.
	Load(src *media.Source, autoplay bool) error

	Play() error
	Pause() error

	// SeekTo moves to an absolute position. Seeks issued before the media is
	// ready are applied once it is.
	SeekTo(position time.Duration) error

	SetSpeed(factor float64) error

	// SelectTracks picks the audio and subtitle streams; absent values keep the engine's choice.
	SelectTracks(audio, subtitle mo.Option[int]) error

	// SetVolume sets the engine volume in device units, see VolumeRange.
	SetVolume(level int) error
	Volume() int
	VolumeRange() (min, max int)

	Position() time.Duration
	Duration() time.Duration
	IsPlaying() bool

	// Subscribe installs l for engine events until the returned function is called.
	Subscribe(l Listener) (unsubscribe func())

	// WatchPosition calls fn once, the first time the reported position reaches at.
	// The watcher removes itself after firing.
	WatchPosition(at time.Duration, fn func()) (cancel func())

	// Release tears the engine down. It is idempotent.
	Release() error
}

// Options configure a new engine instance.
type Options struct {
	Decoder Decoder
	Title   string
}

// Factory builds engines for the session controller.
type Factory func(opts Options) (Engine, error)
