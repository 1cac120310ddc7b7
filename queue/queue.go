// Package queue holds the ordered list of sources a play session walks through.
package queue

import (
	"errors"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/anisan-cli/finplay/media"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// ErrEmpty is returned when a playlist is created without sources.
var ErrEmpty = errors.New("playlist is empty")

// bitrateParam is the stream URL parameter the server caps transcodes with.
const bitrateParam = "MaxStreamingBitrate"

// Playlist is an ordered list of sources with a cursor. It is safe for concurrent use.
type Playlist struct {
	mu      sync.Mutex
	sources []*media.Source
	cursor  int
}

// New creates a playlist positioned at its first source.
func New(sources ...*media.Source) (*Playlist, error) {
	if len(sources) == 0 {
		return nil, ErrEmpty
	}
	return &Playlist{sources: sources}, nil
}

// Len returns the number of sources.
func (p *Playlist) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sources)
}

// Index returns the cursor position.
func (p *Playlist) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Sources returns a copy of the list.
func (p *Playlist) Sources() []*media.Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*media.Source(nil), p.sources...)
}

// Current returns the source under the cursor.
func (p *Playlist) Current() mo.Option[*media.Source] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor < 0 || p.cursor >= len(p.sources) {
		return mo.None[*media.Source]()
	}
	return mo.Some(p.sources[p.cursor])
}

func (p *Playlist) HasPrevious() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor > 0
}

func (p *Playlist) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor < len(p.sources)-1
}

// Previous moves the cursor back. It reports false at the start of the list.
func (p *Playlist) Previous() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor == 0 {
		return false
	}
	p.cursor--
	p.sources[p.cursor] = p.sources[p.cursor].WithStart(0)
	return true
}

// Next moves the cursor forward. It reports false at the end of the list.
func (p *Playlist) Next() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor >= len(p.sources)-1 {
		return false
	}
	p.cursor++
	p.sources[p.cursor] = p.sources[p.cursor].WithStart(0)
	return true
}

// Jump moves the cursor to index.
func (p *Playlist) Jump(index int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.sources) || index == p.cursor {
		return false
	}
	p.cursor = index
	p.sources[p.cursor] = p.sources[p.cursor].WithStart(0)
	return true
}

// RestartCurrent makes the current source resume at position when loaded again.
func (p *Playlist) RestartCurrent(position time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sources) == 0 {
		return false
	}
	p.sources[p.cursor] = p.sources[p.cursor].WithStart(position)
	return true
}

// ChangeBitrate caps (or with None uncaps) the bitrate of the current source.
// Only transcoded remote streams can change; the caller reloads when it reports true.
func (p *Playlist) ChangeBitrate(bitrate mo.Option[int]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.sources[p.cursor]
	if !current.Remote || current.PlayMethod != media.Transcode {
		return false
	}

	u, err := url.Parse(current.URL)
	if err != nil {
		return false
	}

	query := u.Query()
	if value, ok := bitrate.Get(); ok {
		query.Set(bitrateParam, strconv.Itoa(value))
	} else {
		query.Del(bitrateParam)
	}
	u.RawQuery = query.Encode()

	changed := *current
	changed.URL = u.String()
	changed.MaxBitrate = bitrate
	p.sources[p.cursor] = &changed
	return true
}

// Find returns the index of the source whose title best matches query.
func (p *Playlist) Find(query string) mo.Option[int] {
	p.mu.Lock()
	defer p.mu.Unlock()

	titles := lo.Map(p.sources, func(s *media.Source, _ int) string {
		return s.Item.Title()
	})

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	if len(ranks) == 0 {
		return mo.None[int]()
	}

	sort.Stable(ranks)
	return mo.Some(ranks[0].OriginalIndex)
}
