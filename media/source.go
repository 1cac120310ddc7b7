package media

import (
	"fmt"
	"time"

	"github.com/samber/mo"
)

// PlayMethod describes how the server delivers the stream.
type PlayMethod string

const (
	DirectPlay   PlayMethod = "DirectPlay"
	DirectStream PlayMethod = "DirectStream"
	Transcode    PlayMethod = "Transcode"
)

// Item is the library entry a source plays.
type Item struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SeriesName string `json:"series_name,omitempty"`
	// Episode number inside its season, 0 for movies.
	Index int `json:"index,omitempty"`
	// Provider ids such as "MyAnimeList" or "Tmdb".
	ProviderIDs map[string]string `json:"provider_ids,omitempty"`
	RunTime     time.Duration     `json:"run_time,omitempty"`
}

// Title returns the display title used by the engine window and the now-playing snapshot.
func (i *Item) Title() string {
	if i.SeriesName == "" {
		return i.Name
	}
	if i.Index > 0 {
		return fmt.Sprintf("%s - %d. %s", i.SeriesName, i.Index, i.Name)
	}
	return fmt.Sprintf("%s - %s", i.SeriesName, i.Name)
}

// Chapter is a named position on the timeline.
type Chapter struct {
	Name  string        `json:"name"`
	Start time.Duration `json:"start"`
}

// Source is a playable stream of an item together with its playback session metadata.
type Source struct {
	Item    Item              `json:"item"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`

	// Remote sources belong to a server playback session and are reported to it.
	Remote        bool       `json:"remote"`
	PlayMethod    PlayMethod `json:"play_method,omitempty"`
	PlaySessionID string     `json:"play_session_id,omitempty"`
	LiveStreamID  string     `json:"live_stream_id,omitempty"`

	// StartPosition is the resume offset applied when the source is loaded.
	StartPosition time.Duration `json:"start_position,omitempty"`

	AudioStreamIndex    mo.Option[int] `json:"audio_stream_index"`
	SubtitleStreamIndex mo.Option[int] `json:"subtitle_stream_index"`
	MaxBitrate          mo.Option[int] `json:"max_bitrate"`

	Chapters []Chapter `json:"chapters,omitempty"`
}

// WithStart returns a copy of the source resuming at position.
func (s *Source) WithStart(position time.Duration) *Source {
	c := *s
	c.StartPosition = position
	return &c
}

// ChapterStarts returns the chapter offsets in timeline order.
func (s *Source) ChapterStarts() []time.Duration {
	starts := make([]time.Duration, len(s.Chapters))
	for i, c := range s.Chapters {
		starts[i] = c.Start
	}
	return starts
}
