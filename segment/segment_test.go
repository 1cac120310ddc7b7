package segment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/internal/cache"
	"github.com/anisan-cli/finplay/key"
	"github.com/anisan-cli/finplay/media"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

type fakeServer struct {
	segments []media.Segment
	err      error
	calls    int
}

func (f *fakeServer) MediaSegments(context.Context, string) ([]media.Segment, error) {
	f.calls++
	return f.segments, f.err
}

func aniskipServer(body string, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
}

const aniskipBody = `{"found":true,"results":[
	{"interval":{"start_time":90.5,"end_time":180.5},"skip_type":"op"},
	{"interval":{"start_time":1300,"end_time":1390},"skip_type":"ed"}
]}`

func TestAniskip(t *testing.T) {
	Convey("Given an aniskip service", t, func() {
		Convey("Openings and endings become intro and outro segments", func() {
			srv := aniskipServer(aniskipBody, http.StatusOK)
			defer srv.Close()

			a := &Aniskip{BaseURL: srv.URL, Client: srv.Client()}
			segments, err := a.SkipTimes(context.Background(), "1535", 1)
			So(err, ShouldBeNil)
			So(segments, ShouldResemble, []media.Segment{
				{Type: media.SegmentIntro, Start: 90500 * time.Millisecond, End: 180500 * time.Millisecond},
				{Type: media.SegmentOutro, Start: 1300 * time.Second, End: 1390 * time.Second},
			})
		})

		Convey("An outage degrades to no segments", func() {
			srv := aniskipServer("", http.StatusInternalServerError)
			defer srv.Close()

			a := &Aniskip{BaseURL: srv.URL, Client: srv.Client()}
			segments, err := a.SkipTimes(context.Background(), "1535", 1)
			So(err, ShouldBeNil)
			So(segments, ShouldBeEmpty)
		})

		Convey("Answers are served from the cache once stored", func() {
			hits := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits++
				_, _ = fmt.Fprint(w, aniskipBody)
			}))
			defer srv.Close()

			a := &Aniskip{BaseURL: srv.URL, Client: srv.Client(), Cache: cache.New("/cache/aniskip", time.Hour)}
			first, err := a.SkipTimes(context.Background(), "5114", 2)
			So(err, ShouldBeNil)
			second, err := a.SkipTimes(context.Background(), "5114", 2)
			So(err, ShouldBeNil)

			So(hits, ShouldEqual, 1)
			So(second, ShouldResemble, first)
		})

		Convey("Not found yields no segments", func() {
			srv := aniskipServer(`{"found":false,"results":[]}`, http.StatusOK)
			defer srv.Close()

			a := &Aniskip{BaseURL: srv.URL, Client: srv.Client()}
			segments, err := a.SkipTimes(context.Background(), "1", 1)
			So(err, ShouldBeNil)
			So(segments, ShouldBeEmpty)
		})
	})
}

func TestResolver(t *testing.T) {
	Convey("Given a resolver", t, func() {
		viper.Set(key.SegmentsEnable, true)
		ctx := context.Background()
		outro := media.Segment{Type: media.SegmentOutro, Start: 20 * time.Minute, End: 21 * time.Minute}
		recap := media.Segment{Type: media.SegmentRecap, Start: 0, End: 30 * time.Second}
		item := media.Item{ID: "abc", Index: 1, ProviderIDs: map[string]string{MyAnimeList: "1535"}}

		Convey("Server segments are returned ordered by start", func() {
			r := NewResolver(&fakeServer{segments: []media.Segment{outro, recap}}, nil)
			So(r.SegmentsFor(ctx, item), ShouldResemble, []media.Segment{recap, outro})
		})

		Convey("A failing server degrades to no segments", func() {
			r := NewResolver(&fakeServer{err: errors.New("offline")}, nil)
			So(r.SegmentsFor(ctx, item), ShouldBeEmpty)
		})

		Convey("Aniskip fills in the types the server does not know", func() {
			srv := aniskipServer(aniskipBody, http.StatusOK)
			defer srv.Close()

			r := NewResolver(&fakeServer{segments: []media.Segment{outro}}, &Aniskip{BaseURL: srv.URL, Client: srv.Client()})
			segments := r.SegmentsFor(ctx, item)
			So(segments, ShouldHaveLength, 2)
			So(segments[0].Type, ShouldEqual, media.SegmentIntro)
			So(segments[1], ShouldResemble, outro)
		})

		Convey("Items without a MyAnimeList id skip aniskip", func() {
			srv := aniskipServer(aniskipBody, http.StatusOK)
			defer srv.Close()

			r := NewResolver(nil, &Aniskip{BaseURL: srv.URL, Client: srv.Client()})
			So(r.SegmentsFor(ctx, media.Item{ID: "x", Index: 1}), ShouldBeEmpty)
		})

		Convey("Disabled segments fetch nothing", func() {
			viper.Set(key.SegmentsEnable, false)
			server := &fakeServer{segments: []media.Segment{outro}}
			So(NewResolver(server, nil).SegmentsFor(ctx, item), ShouldBeEmpty)
			So(server.calls, ShouldEqual, 0)
		})

		Convey("Actions follow the configuration per type", func() {
			viper.Set(key.SegmentsIntro, "skip")
			viper.Set(key.SegmentsOutro, "ask")
			viper.Set(key.SegmentsRecap, "nonsense")
			r := NewResolver(nil, nil)

			So(r.ActionFor(media.Segment{Type: media.SegmentIntro}), ShouldEqual, media.SegmentSkip)
			So(r.ActionFor(media.Segment{Type: media.SegmentOutro}), ShouldEqual, media.SegmentAskToSkip)
			So(r.ActionFor(media.Segment{Type: media.SegmentRecap}), ShouldEqual, media.SegmentIgnore)
			So(r.ActionFor(media.Segment{Type: media.SegmentUnknown}), ShouldEqual, media.SegmentIgnore)
		})
	})
}
