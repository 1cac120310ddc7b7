package server

import (
	"context"
	"time"

	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/log"
	"github.com/metafates/gache"
	"github.com/samber/mo"
)

// PreferenceSource is anything that can load user preferences, typically *Client.
type PreferenceSource interface {
	DisplayPreferences(ctx context.Context, scope, client string) (DisplayPreferences, error)
	CurrentUserConfig(ctx context.Context) (UserConfig, error)
}

// cachedPreferences is the on-disk form of the last preferences received.
type cachedPreferences struct {
	SkipBackMs    *int64 `json:"skip_back_ms,omitempty"`
	SkipForwardMs *int64 `json:"skip_forward_ms,omitempty"`
	AutoPlayNext  *bool  `json:"auto_play_next,omitempty"`
}

// CachedPreferences remembers the last successful answers of a PreferenceSource
// and serves them when the server cannot be reached.
type CachedPreferences struct {
	source PreferenceSource
	cache  *gache.Cache[*cachedPreferences]
}

// NewCachedPreferences wraps source with a cache file at path.
func NewCachedPreferences(source PreferenceSource, path string) *CachedPreferences {
	return &CachedPreferences{
		source: source,
		cache: gache.New[*cachedPreferences](&gache.Options{
			Path:       path,
			Lifetime:   30 * 24 * time.Hour,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func (c *CachedPreferences) load() *cachedPreferences {
	cached, expired, err := c.cache.Get()
	if err != nil || expired || cached == nil {
		return &cachedPreferences{}
	}
	return cached
}

func (c *CachedPreferences) store(update func(*cachedPreferences)) {
	cached := c.load()
	update(cached)
	if err := c.cache.Set(cached); err != nil {
		log.Warnf("failed to cache preferences: %v", err)
	}
}

// DisplayPreferences asks the source and falls back to the cached skip lengths.
func (c *CachedPreferences) DisplayPreferences(ctx context.Context, scope, client string) (DisplayPreferences, error) {
	prefs, err := c.source.DisplayPreferences(ctx, scope, client)
	if err == nil {
		c.store(func(cp *cachedPreferences) {
			cp.SkipBackMs = toMillis(prefs.SkipBack)
			cp.SkipForwardMs = toMillis(prefs.SkipForward)
		})
		return prefs, nil
	}

	cached := c.load()
	if cached.SkipBackMs == nil && cached.SkipForwardMs == nil {
		return DisplayPreferences{}, err
	}

	log.Warnf("using cached display preferences: %v", err)
	return DisplayPreferences{
		SkipBack:    fromMillis(cached.SkipBackMs),
		SkipForward: fromMillis(cached.SkipForwardMs),
	}, nil
}

// CurrentUserConfig asks the source and falls back to the cached user configuration.
func (c *CachedPreferences) CurrentUserConfig(ctx context.Context) (UserConfig, error) {
	cfg, err := c.source.CurrentUserConfig(ctx)
	if err == nil {
		c.store(func(cp *cachedPreferences) {
			cp.AutoPlayNext = &cfg.AutoPlayNextEpisode
		})
		return cfg, nil
	}

	cached := c.load()
	if cached.AutoPlayNext == nil {
		return UserConfig{}, err
	}

	log.Warnf("using cached user configuration: %v", err)
	return UserConfig{AutoPlayNextEpisode: *cached.AutoPlayNext}, nil
}

func toMillis(o mo.Option[time.Duration]) *int64 {
	d, ok := o.Get()
	if !ok {
		return nil
	}
	ms := d.Milliseconds()
	return &ms
}

func fromMillis(ms *int64) mo.Option[time.Duration] {
	if ms == nil {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(*ms) * time.Millisecond)
}
