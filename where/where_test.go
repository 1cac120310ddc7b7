package where

import (
	"path/filepath"
	"testing"

	"github.com/anisan-cli/finplay/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("State() lives under the cache directory", func() {
			path := State()
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
			So(filepath.Dir(path), ShouldEqual, Cache())
		})

		Convey("NowPlaying() is a file inside State()", func() {
			So(filepath.Dir(NowPlaying()), ShouldEqual, State())
		})

		Convey("Config path honours the override variable", func() {
			t.Setenv(EnvConfigPath, "/custom/finplay")
			So(Config(), ShouldEqual, "/custom/finplay")
			So(History(), ShouldEqual, "/custom/finplay/history.json")
		})
	})
}
