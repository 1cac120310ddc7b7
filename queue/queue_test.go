package queue

import (
	"testing"
	"time"

	"github.com/anisan-cli/finplay/media"
	"github.com/samber/lo"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func episode(n int, name string) *media.Source {
	return &media.Source{
		Item: media.Item{ID: name, Name: name, SeriesName: "Show", Index: n},
		URL:  "/show/" + name + ".mkv",
	}
}

func TestPlaylist(t *testing.T) {
	Convey("An empty playlist cannot be created", t, func() {
		_, err := New()
		So(err, ShouldEqual, ErrEmpty)
	})

	Convey("Given a playlist of three episodes", t, func() {
		p := lo.Must(New(episode(1, "Pilot"), episode(2, "Homecoming"), episode(3, "Finale")))

		Convey("It starts at the first one", func() {
			So(p.Current().MustGet().Item.Name, ShouldEqual, "Pilot")
			So(p.HasPrevious(), ShouldBeFalse)
			So(p.HasNext(), ShouldBeTrue)
		})

		Convey("Previous is refused at the start", func() {
			So(p.Previous(), ShouldBeFalse)
			So(p.Index(), ShouldEqual, 0)
		})

		Convey("Next walks to the end and stops there", func() {
			So(p.Next(), ShouldBeTrue)
			So(p.Next(), ShouldBeTrue)
			So(p.Next(), ShouldBeFalse)
			So(p.Current().MustGet().Item.Name, ShouldEqual, "Finale")
			So(p.HasNext(), ShouldBeFalse)
		})

		Convey("RestartCurrent resumes the current source at the position", func() {
			So(p.RestartCurrent(42*time.Second), ShouldBeTrue)
			So(p.Current().MustGet().StartPosition, ShouldEqual, 42*time.Second)

			Convey("And moving away and back starts it over", func() {
				So(p.Next(), ShouldBeTrue)
				So(p.Previous(), ShouldBeTrue)
				So(p.Current().MustGet().StartPosition, ShouldEqual, 0)
			})
		})

		Convey("Find matches titles loosely", func() {
			So(p.Find("home").MustGet(), ShouldEqual, 1)
			So(p.Find("fnl").MustGet(), ShouldEqual, 2)
			So(p.Find("zzz").IsAbsent(), ShouldBeTrue)
		})

		Convey("Jump moves the cursor", func() {
			So(p.Jump(2), ShouldBeTrue)
			So(p.Current().MustGet().Item.Name, ShouldEqual, "Finale")
			So(p.Jump(2), ShouldBeFalse)
			So(p.Jump(7), ShouldBeFalse)
		})

		Convey("ChangeBitrate is refused for local sources", func() {
			So(p.ChangeBitrate(mo.Some(1_000_000)), ShouldBeFalse)
		})
	})

	Convey("Given a transcoded remote source", t, func() {
		src := &media.Source{
			Item:       media.Item{ID: "x", Name: "X"},
			URL:        "https://media.example.org/videos/x/master.m3u8?MaxStreamingBitrate=8000000&api_key=k",
			Remote:     true,
			PlayMethod: media.Transcode,
		}
		p := lo.Must(New(src))

		Convey("ChangeBitrate rewrites the stream cap", func() {
			So(p.ChangeBitrate(mo.Some(2_000_000)), ShouldBeTrue)
			current := p.Current().MustGet()
			So(current.URL, ShouldContainSubstring, "MaxStreamingBitrate=2000000")
			So(current.MaxBitrate.MustGet(), ShouldEqual, 2_000_000)
			So(src.MaxBitrate.IsAbsent(), ShouldBeTrue)
		})

		Convey("ChangeBitrate with no value removes the cap", func() {
			So(p.ChangeBitrate(mo.None[int]()), ShouldBeTrue)
			So(p.Current().MustGet().URL, ShouldNotContainSubstring, "MaxStreamingBitrate")
		})
	})
}
