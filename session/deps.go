package session

import (
	"context"
	"time"

	"github.com/anisan-cli/finplay/config"
	"github.com/anisan-cli/finplay/key"
	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/nowplaying"
	"github.com/anisan-cli/finplay/player"
	"github.com/anisan-cli/finplay/server"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// Reporter sends playback events of remote sources to the media server.
type Reporter interface {
	ReportStart(ctx context.Context, p server.PlaybackProgress) error
	ReportProgress(ctx context.Context, p server.PlaybackProgress) error
	ReportStop(ctx context.Context, p server.PlaybackStop) error
	MarkPlayed(ctx context.Context, itemID string) error
	StopTranscode(ctx context.Context, deviceID, playSessionID string) error
}

// Preferences provides the user settings read once when the controller is created.
type Preferences interface {
	DisplayPreferences(ctx context.Context, scope, client string) (server.DisplayPreferences, error)
	CurrentUserConfig(ctx context.Context) (server.UserConfig, error)
}

// Queue resolves the items around the current one.
type Queue interface {
	Current() mo.Option[*media.Source]
	HasPrevious() bool
	HasNext() bool
	Previous() bool
	Next() bool
	Jump(index int) bool
	RestartCurrent(position time.Duration) bool
	ChangeBitrate(bitrate mo.Option[int]) bool
}

// Segments lists the segments of an item and decides what to do with each.
type Segments interface {
	SegmentsFor(ctx context.Context, item media.Item) []media.Segment
	ActionFor(seg media.Segment) media.SegmentAction
}

// Companion is the externally visible "now playing" session.
type Companion interface {
	Activate()
	Deactivate()
	Update(st nowplaying.State)
	Dispose()
}

// Presenter renders what the controller surfaces to the user.
// Callbacks run on the controller goroutine and must not call back into the controller.
type Presenter interface {
	PhaseChanged(phase Phase)
	ShowSkipPrompt(seg media.Segment)
	HideSkipPrompt()
	MarkChapters(watched []bool)
	ShowError(message string)
}

// Recorder remembers where local sources stopped.
type Recorder interface {
	Save(src *media.Source, position, duration time.Duration) error
}

// Deps are the collaborators of a controller. Only Factory is required.
type Deps struct {
	Factory     player.Factory
	Reporter    Reporter
	Preferences Preferences
	Queue       Queue
	Segments    Segments
	Presenter   Presenter
	Recorder    Recorder

	// NewCompanion creates the companion session on first use.
	NewCompanion func() Companion
}

// Options tune a controller.
type Options struct {
	Decoder  player.Decoder
	Autoplay bool
	DeviceID string

	ProgressInterval time.Duration
	ChapterInterval  time.Duration
	SegmentInterval  time.Duration

	PreviousThreshold time.Duration
	ChapterGrace      time.Duration

	// Used until (or instead of, when they cannot be loaded) the user preferences.
	SkipBack     time.Duration
	SkipForward  time.Duration
	AutoPlayNext bool

	CompletionPercentage float64
	SaveHistory          bool
}

// Tick intervals used when Options leaves one unset.
const (
	defaultProgressInterval = 10 * time.Second
	defaultChapterInterval  = time.Second
	defaultSegmentInterval  = time.Second
)

// withIntervals fills non-positive task intervals with their defaults.
func (o Options) withIntervals() Options {
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = defaultProgressInterval
	}
	if o.ChapterInterval <= 0 {
		o.ChapterInterval = defaultChapterInterval
	}
	if o.SegmentInterval <= 0 {
		o.SegmentInterval = defaultSegmentInterval
	}
	return o
}

// OptionsFromConfig reads the options from the configuration.
func OptionsFromConfig() Options {
	return Options{
		Decoder:              player.ParseDecoder(viper.GetString(key.PlayerDecoder)),
		Autoplay:             viper.GetBool(key.PlayerAutoplay),
		DeviceID:             viper.GetString(key.ServerDeviceID),
		ProgressInterval:     config.Millis(key.SessionProgressInterval),
		ChapterInterval:      config.Millis(key.SessionChapterInterval),
		SegmentInterval:      config.Millis(key.SessionSegmentInterval),
		PreviousThreshold:    config.Millis(key.PlayerPreviousThreshold),
		ChapterGrace:         config.Millis(key.PlayerChapterGrace),
		SkipBack:             config.Millis(key.PlayerSkipBack),
		SkipForward:          config.Millis(key.PlayerSkipForward),
		AutoPlayNext:         viper.GetBool(key.PlayerAutoPlayNext),
		CompletionPercentage: viper.GetFloat64(key.PlayerCompletionPercentage),
		SaveHistory:          viper.GetBool(key.HistorySaveOnStop),
	}
}

type nopPresenter struct{}

func (nopPresenter) PhaseChanged(Phase)           {}
func (nopPresenter) ShowSkipPrompt(media.Segment) {}
func (nopPresenter) HideSkipPrompt()              {}
func (nopPresenter) MarkChapters([]bool)          {}
func (nopPresenter) ShowError(string)             {}
