package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/anisan-cli/finplay/constant"
	"github.com/samber/mo"
)

// DisplayPreferences holds the skip lengths a user configured in the web client.
type DisplayPreferences struct {
	SkipBack    mo.Option[time.Duration]
	SkipForward mo.Option[time.Duration]
}

// UserConfig is the subset of the user configuration the player needs.
type UserConfig struct {
	AutoPlayNextEpisode bool
}

// DisplayPreferences fetches the display preferences stored under scope for the given client namespace.
func (c *Client) DisplayPreferences(ctx context.Context, scope, client string) (DisplayPreferences, error) {
	query := url.Values{}
	query.Set("client", client)
	if c.cfg.UserID != "" {
		query.Set("userId", c.cfg.UserID)
	}

	var resp struct {
		CustomPrefs map[string]string `json:"CustomPrefs"`
	}
	if err := c.do(ctx, http.MethodGet, "/DisplayPreferences/"+url.PathEscape(scope), query, nil, &resp); err != nil {
		return DisplayPreferences{}, err
	}

	return DisplayPreferences{
		SkipBack:    millisPref(resp.CustomPrefs, constant.SkipBackPreference),
		SkipForward: millisPref(resp.CustomPrefs, constant.SkipForwardPreference),
	}, nil
}

// CurrentUserConfig fetches the configuration of the signed-in user.
func (c *Client) CurrentUserConfig(ctx context.Context) (UserConfig, error) {
	var resp struct {
		Configuration struct {
			EnableNextEpisodeAutoPlay bool `json:"EnableNextEpisodeAutoPlay"`
		} `json:"Configuration"`
	}
	if err := c.do(ctx, http.MethodGet, "/Users/Me", nil, nil, &resp); err != nil {
		return UserConfig{}, err
	}
	return UserConfig{AutoPlayNextEpisode: resp.Configuration.EnableNextEpisodeAutoPlay}, nil
}

// millisPref parses a positive millisecond value stored as a string preference.
func millisPref(prefs map[string]string, name string) mo.Option[time.Duration] {
	raw, ok := prefs[name]
	if !ok {
		return mo.None[time.Duration]()
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(ms) * time.Millisecond)
}
