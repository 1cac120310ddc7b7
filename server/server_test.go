package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/media"
	"github.com/samber/lo"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]interface{}
}

func newTestServer(handler http.HandlerFunc) (*httptest.Server, *[]recorded) {
	var (
		mu    sync.Mutex
		calls []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, auth: r.Header.Get("Authorization")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		mu.Lock()
		calls = append(calls, rec)
		mu.Unlock()
		handler(w, r)
	}))
	return srv, &calls
}

func testClient(url string) *Client {
	return lo.Must(New(Config{
		URL:        url,
		Token:      "tok",
		UserID:     "u1",
		DeviceID:   "dev",
		DeviceName: "desk",
		ClientName: "finplay",
	}, nil))
}

func TestNew(t *testing.T) {
	Convey("New without a URL is not configured", t, func() {
		_, err := New(Config{}, nil)
		So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
	})
}

func TestReporting(t *testing.T) {
	Convey("Given a media server", t, func() {
		srv, calls := newTestServer(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		defer srv.Close()
		c := testClient(srv.URL)
		ctx := context.Background()

		Convey("Progress reports post the payload with the authorization header", func() {
			err := c.ReportProgress(ctx, PlaybackProgress{
				ItemID:           "item",
				PlayMethod:       media.DirectPlay,
				AudioStreamIndex: lo.ToPtr(2),
				CanSeek:          true,
				PositionTicks:    650 * media.TicksPerMillisecond,
				VolumeLevel:      40,
				RepeatMode:       "RepeatNone",
				PlaybackOrder:    "Default",
			})
			So(err, ShouldBeNil)
			So(*calls, ShouldHaveLength, 1)

			call := (*calls)[0]
			So(call.method, ShouldEqual, http.MethodPost)
			So(call.path, ShouldEqual, "/Sessions/Playing/Progress")
			So(call.auth, ShouldContainSubstring, `Token="tok"`)
			So(call.auth, ShouldContainSubstring, `DeviceId="dev"`)
			So(call.body["ItemId"], ShouldEqual, "item")
			So(call.body["AudioStreamIndex"], ShouldEqual, float64(2))
			So(call.body["PositionTicks"], ShouldEqual, float64(6_500_000))
			So(call.body, ShouldNotContainKey, "SubtitleStreamIndex")
		})

		Convey("Stop reports go to the stopped endpoint", func() {
			So(c.ReportStop(ctx, PlaybackStop{ItemID: "item", PositionTicks: 10}), ShouldBeNil)
			So((*calls)[0].path, ShouldEqual, "/Sessions/Playing/Stopped")
			So((*calls)[0].body["Failed"], ShouldEqual, false)
		})

		Convey("StopTranscode deletes the active encoding of the play session", func() {
			So(c.StopTranscode(ctx, "dev", "ps"), ShouldBeNil)
			So((*calls)[0].method, ShouldEqual, http.MethodDelete)
			So((*calls)[0].query, ShouldEqual, "deviceId=dev&playSessionId=ps")
		})

		Convey("MarkPlayed posts to the played items endpoint", func() {
			So(c.MarkPlayed(ctx, "item"), ShouldBeNil)
			So((*calls)[0].path, ShouldEqual, "/UserPlayedItems/item")
		})
	})

	Convey("Non-2xx responses are status errors", t, func() {
		srv, _ := newTestServer(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		defer srv.Close()

		err := testClient(srv.URL).ReportStart(context.Background(), PlaybackProgress{})
		var statusErr *StatusError
		So(errors.As(err, &statusErr), ShouldBeTrue)
		So(statusErr.Code, ShouldEqual, http.StatusUnauthorized)
	})
}

func TestPreferences(t *testing.T) {
	Convey("Given a server with preferences", t, func() {
		srv, calls := newTestServer(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/DisplayPreferences/usersettings":
				_, _ = w.Write([]byte(`{"CustomPrefs":{"skipBackLength":"5000","skipForwardLength":"abc"}}`))
			case "/Users/Me":
				_, _ = w.Write([]byte(`{"Configuration":{"EnableNextEpisodeAutoPlay":true}}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		})
		defer srv.Close()
		c := testClient(srv.URL)

		Convey("Skip lengths are parsed and malformed ones dropped", func() {
			prefs, err := c.DisplayPreferences(context.Background(), "usersettings", "emby")
			So(err, ShouldBeNil)
			So(prefs.SkipBack.MustGet(), ShouldEqual, 5*time.Second)
			So(prefs.SkipForward.IsAbsent(), ShouldBeTrue)
			So((*calls)[0].query, ShouldEqual, "client=emby&userId=u1")
		})

		Convey("The user configuration exposes auto play", func() {
			cfg, err := c.CurrentUserConfig(context.Background())
			So(err, ShouldBeNil)
			So(cfg.AutoPlayNextEpisode, ShouldBeTrue)
		})
	})
}

func TestMediaSegments(t *testing.T) {
	Convey("Media segments are converted from ticks and invalid ones dropped", t, func() {
		srv, _ := newTestServer(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Items":[
				{"Type":"Intro","StartTicks":10000000,"EndTicks":50000000},
				{"Type":"Outro","StartTicks":90000000,"EndTicks":80000000},
				{"Type":"Credits","StartTicks":100000000,"EndTicks":120000000}
			]}`))
		})
		defer srv.Close()

		segments, err := testClient(srv.URL).MediaSegments(context.Background(), "item")
		So(err, ShouldBeNil)
		So(segments, ShouldResemble, []media.Segment{
			{Type: media.SegmentIntro, Start: time.Second, End: 5 * time.Second},
			{Type: media.SegmentUnknown, Start: 10 * time.Second, End: 12 * time.Second},
		})
	})
}

type flakySource struct {
	fail  bool
	prefs DisplayPreferences
	cfg   UserConfig
}

func (f *flakySource) DisplayPreferences(context.Context, string, string) (DisplayPreferences, error) {
	if f.fail {
		return DisplayPreferences{}, errors.New("offline")
	}
	return f.prefs, nil
}

func (f *flakySource) CurrentUserConfig(context.Context) (UserConfig, error) {
	if f.fail {
		return UserConfig{}, errors.New("offline")
	}
	return f.cfg, nil
}

func TestCachedPreferences(t *testing.T) {
	Convey("Given cached preferences", t, func() {
		filesystem.SetMemMapFs()
		src := &flakySource{
			prefs: DisplayPreferences{SkipBack: mo.Some(7 * time.Second)},
			cfg:   UserConfig{AutoPlayNextEpisode: true},
		}
		cached := NewCachedPreferences(src, "/cache/preferences.json")
		ctx := context.Background()

		Convey("Without any previous answer a failure is returned", func() {
			src.fail = true
			_, err := cached.DisplayPreferences(ctx, "usersettings", "emby")
			So(err, ShouldNotBeNil)
			_, err = cached.CurrentUserConfig(ctx)
			So(err, ShouldNotBeNil)
		})

		Convey("After a success the cached answer is served while offline", func() {
			_, err := cached.DisplayPreferences(ctx, "usersettings", "emby")
			So(err, ShouldBeNil)
			_, err = cached.CurrentUserConfig(ctx)
			So(err, ShouldBeNil)

			src.fail = true
			prefs, err := cached.DisplayPreferences(ctx, "usersettings", "emby")
			So(err, ShouldBeNil)
			So(prefs.SkipBack.MustGet(), ShouldEqual, 7*time.Second)
			So(prefs.SkipForward.IsAbsent(), ShouldBeTrue)

			cfg, err := cached.CurrentUserConfig(ctx)
			So(err, ShouldBeNil)
			So(cfg.AutoPlayNextEpisode, ShouldBeTrue)
		})
	})
}
