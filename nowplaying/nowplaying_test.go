package nowplaying

import (
	"testing"
	"time"

	"github.com/anisan-cli/finplay/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSession(t *testing.T) {
	Convey("Given a now playing session", t, func() {
		filesystem.SetMemMapFs()
		path := "/state/nowplaying.json"
		s := New(path)

		Convey("Nothing is published before the first call", func() {
			_, err := Read(path)
			So(err, ShouldEqual, ErrNoSession)
		})

		Convey("Updates are published to the snapshot file", func() {
			s.Activate()
			s.Update(State{
				ItemID:   "abc",
				Title:    "Show - 1. Pilot",
				Phase:    "playing",
				Position: 90 * time.Second,
				Duration: 20 * time.Minute,
				Speed:    1,
				Decoder:  "hardware",
			})

			snap, err := Read(path)
			So(err, ShouldBeNil)
			So(snap.Active, ShouldBeTrue)
			So(snap.Title, ShouldEqual, "Show - 1. Pilot")
			So(snap.PositionMs, ShouldEqual, 90_000)
			So(snap.Decoder, ShouldEqual, "hardware")
			So(snap, ShouldResemble, s.Snapshot())

			Convey("Deactivating keeps the file but clears the flag", func() {
				s.Deactivate()
				snap, err := Read(path)
				So(err, ShouldBeNil)
				So(snap.Active, ShouldBeFalse)
			})

			Convey("Disposing removes the file and silences later calls", func() {
				s.Dispose()
				_, err := Read(path)
				So(err, ShouldEqual, ErrNoSession)

				s.Activate()
				s.Dispose()
				_, err = Read(path)
				So(err, ShouldEqual, ErrNoSession)
			})
		})
	})
}

func TestSnapshotPosition(t *testing.T) {
	Convey("Given a snapshot taken at a known time", t, func() {
		at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		snap := Snapshot{Phase: "playing", PositionMs: 10_000, DurationMs: 20_000, Speed: 2, UpdatedAt: at}

		Convey("Playing snapshots advance with the speed", func() {
			So(snap.Position(at.Add(3*time.Second)), ShouldEqual, 16*time.Second)
		})

		Convey("The estimate never exceeds the duration", func() {
			So(snap.Position(at.Add(time.Minute)), ShouldEqual, 20*time.Second)
		})

		Convey("Paused snapshots stay put", func() {
			snap.Phase = "paused"
			So(snap.Position(at.Add(time.Minute)), ShouldEqual, 10*time.Second)
		})
	})
}
