// Package history remembers where playback of local sources stopped so it can resume there.
package history

import (
	"time"

	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/key"
	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/where"
	"github.com/metafates/gache"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every stored entry keyed by item id (or URL).
func Get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// Save records the position of src. Sources watched past the completion
// percentage are forgotten instead, so they start over next time.
func Save(src *media.Source, position, duration time.Duration) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	var percentage float64
	if duration > 0 {
		percentage = float64(position) / float64(duration) * 100
	}

	id := entryKey(src)
	if percentage >= viper.GetFloat64(key.PlayerCompletionPercentage) && duration > 0 {
		delete(saved, id)
		return cacher.Set(saved)
	}

	saved[id] = &Entry{
		ItemID:        src.Item.ID,
		Name:          src.Item.Title(),
		URL:           src.URL,
		PositionTicks: media.Ticks(position),
		Percentage:    percentage,
		UpdatedAt:     time.Now(),
	}

	return cacher.Set(saved)
}

// Resume returns the position src stopped at last time.
func Resume(src *media.Source) mo.Option[time.Duration] {
	saved, err := Get()
	if err != nil {
		return mo.None[time.Duration]()
	}

	entry, ok := saved[entryKey(src)]
	if !ok || entry.PositionTicks <= 0 {
		return mo.None[time.Duration]()
	}

	return mo.Some(entry.Position())
}

// Remove forgets the entry stored under id.
func Remove(id string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, id)
	return cacher.Set(saved)
}

// Recorder saves positions through the package functions.
type Recorder struct{}

// Save records the position of src.
func (Recorder) Save(src *media.Source, position, duration time.Duration) error {
	return Save(src, position, duration)
}
