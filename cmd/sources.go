package cmd

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/segment"
	"github.com/anisan-cli/finplay/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// sourceOptions are the play flags applied to every parsed source.
type sourceOptions struct {
	Method        media.PlayMethod
	PlaySessionID string
	Audio         mo.Option[int]
	Subtitle      mo.Option[int]
	Bitrate       mo.Option[int]
	MalID         string
	Series        string
	FirstEpisode  int
}

// parseSource turns one play argument into a source.
// Accepted forms: a local path, a stream url, or itemId=url for a server item.
func parseSource(arg string, opts sourceOptions) (*media.Source, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, fmt.Errorf("empty source")
	}

	if id, link, ok := strings.Cut(arg, "="); ok && !strings.ContainsAny(id, `/\:?.`) && id != "" {
		u, err := parseStreamURL(link)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", id, err)
		}

		return &media.Source{
			Item:                media.Item{ID: id, Name: streamName(u)},
			URL:                 u.String(),
			Remote:              true,
			PlayMethod:          lo.Ternary(opts.Method == "", media.DirectPlay, opts.Method),
			PlaySessionID:       opts.PlaySessionID,
			AudioStreamIndex:    opts.Audio,
			SubtitleStreamIndex: opts.Subtitle,
			MaxBitrate:          opts.Bitrate,
		}, nil
	}

	if strings.Contains(arg, "://") {
		u, err := parseStreamURL(arg)
		if err != nil {
			return nil, err
		}
		return &media.Source{Item: media.Item{Name: streamName(u)}, URL: u.String()}, nil
	}

	abs, err := filepath.Abs(arg)
	if err != nil {
		return nil, err
	}
	if exists, err := filesystem.API().Exists(abs); err != nil || !exists {
		return nil, fmt.Errorf("no such file: %s", arg)
	}

	return &media.Source{Item: media.Item{Name: util.FileStem(abs)}, URL: abs}, nil
}

func parseStreamURL(link string) (*url.URL, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	return u, nil
}

func streamName(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return u.Host
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// parseSources parses every argument. Series flags number the items from FirstEpisode.
func parseSources(args []string, opts sourceOptions) ([]*media.Source, error) {
	sources := make([]*media.Source, 0, len(args))
	for i, arg := range args {
		src, err := parseSource(arg, opts)
		if err != nil {
			return nil, err
		}

		if opts.Series != "" {
			src.Item.SeriesName = opts.Series
			src.Item.Index = opts.FirstEpisode + i
		}
		if opts.MalID != "" {
			src.Item.ProviderIDs = map[string]string{segment.MyAnimeList: opts.MalID}
		}

		sources = append(sources, src)
	}
	return sources, nil
}

// optionalIndex maps a negative flag value to "unset".
func optionalIndex(v int) mo.Option[int] {
	if v < 0 {
		return mo.None[int]()
	}
	return mo.Some(v)
}

func parsePlayMethod(s string) (media.PlayMethod, error) {
	for _, m := range []media.PlayMethod{media.DirectPlay, media.DirectStream, media.Transcode} {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown play method %q", s)
}

func parseBitrate(s string) (mo.Option[int], error) {
	if s == "" || s == "auto" {
		return mo.None[int](), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return mo.None[int](), fmt.Errorf("invalid bitrate %q", s)
	}
	return mo.Some(n), nil
}
