package cmd

import (
	"testing"
	"time"

	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/nowplaying"
	"github.com/anisan-cli/finplay/segment"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestParseSource(t *testing.T) {
	Convey("Given the source forms", t, func() {
		So(filesystem.API().WriteFile("/videos/Episode 01.mkv", []byte("x"), 0o644), ShouldBeNil)
		opts := sourceOptions{
			Method:        media.Transcode,
			PlaySessionID: "ps",
			Audio:         mo.Some(1),
			Subtitle:      mo.None[int](),
		}

		Convey("A local path becomes a local source named after the file", func() {
			src, err := parseSource("/videos/Episode 01.mkv", opts)
			So(err, ShouldBeNil)
			So(src.Remote, ShouldBeFalse)
			So(src.Item.Name, ShouldEqual, "Episode 01")
			So(src.URL, ShouldEqual, "/videos/Episode 01.mkv")
		})

		Convey("A missing path is an error", func() {
			_, err := parseSource("/videos/missing.mkv", opts)
			So(err, ShouldNotBeNil)
		})

		Convey("A stream url is played without reporting", func() {
			src, err := parseSource("https://cdn.example.org/show/ep2.m3u8?token=a=b", opts)
			So(err, ShouldBeNil)
			So(src.Remote, ShouldBeFalse)
			So(src.Item.Name, ShouldEqual, "ep2")
		})

		Convey("itemId=url becomes a remote source carrying the flags", func() {
			src, err := parseSource("abc123=https://media.example.org/Videos/abc123/stream", opts)
			So(err, ShouldBeNil)
			So(src.Remote, ShouldBeTrue)
			So(src.Item.ID, ShouldEqual, "abc123")
			So(src.PlayMethod, ShouldEqual, media.Transcode)
			So(src.PlaySessionID, ShouldEqual, "ps")
			So(src.AudioStreamIndex.OrElse(-1), ShouldEqual, 1)
			So(src.SubtitleStreamIndex.IsPresent(), ShouldBeFalse)
		})

		Convey("Non-http schemes are rejected", func() {
			_, err := parseSource("id=ftp://media.example.org/file", opts)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseSources(t *testing.T) {
	Convey("Series flags number the items", t, func() {
		sources, err := parseSources([]string{
			"a=https://m.example.org/a",
			"b=https://m.example.org/b",
		}, sourceOptions{Series: "Show", FirstEpisode: 4, MalID: "21"})
		So(err, ShouldBeNil)
		So(sources, ShouldHaveLength, 2)
		So(sources[0].Item.Index, ShouldEqual, 4)
		So(sources[1].Item.Index, ShouldEqual, 5)
		So(sources[1].Item.Title(), ShouldEqual, "Show - 5. b")
		So(sources[0].Item.ProviderIDs[segment.MyAnimeList], ShouldEqual, "21")
	})
}

func TestFlagParsers(t *testing.T) {
	Convey("Flag values", t, func() {
		m, err := parsePlayMethod("transcode")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, media.Transcode)
		_, err = parsePlayMethod("stream")
		So(err, ShouldNotBeNil)

		b, err := parseBitrate("auto")
		So(err, ShouldBeNil)
		So(b.IsPresent(), ShouldBeFalse)
		b, err = parseBitrate("800000")
		So(err, ShouldBeNil)
		So(b.MustGet(), ShouldEqual, 800000)

		So(optionalIndex(-1).IsPresent(), ShouldBeFalse)
		So(optionalIndex(0).MustGet(), ShouldEqual, 0)
	})
}

func TestFormatSnapshot(t *testing.T) {
	Convey("Status output", t, func() {
		now := time.Now()
		s := nowplaying.Snapshot{
			Active:     true,
			Title:      "Show - 1. Pilot",
			Phase:      "paused",
			PositionMs: 65_000,
			DurationMs: 3_725_000,
			Speed:      1,
			UpdatedAt:  now,
		}
		out := formatSnapshot(s, now)
		So(out, ShouldContainSubstring, "Show - 1. Pilot")
		So(out, ShouldContainSubstring, "1:05")
		So(out, ShouldContainSubstring, "1:02:05")

		So(clock(59*time.Second), ShouldEqual, "0:59")
	})
}
