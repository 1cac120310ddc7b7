package util

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

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "item", "items"), ShouldEqual, "1 item")
		So(Quantify(0, "item", "items"), ShouldEqual, "0 items")
		So(Quantify(3, "item", "items"), ShouldEqual, "3 items")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("history file"), ShouldEqual, "History file")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("/videos/Episode 01.mkv"), ShouldEqual, "Episode 01")
		So(FileStem("clip"), ShouldEqual, "clip")
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(150, 0, 100), ShouldEqual, 100)
		So(Clamp(-5, 0, 100), ShouldEqual, 0)
		So(Clamp(2.5, 0.25, 4.0), ShouldEqual, 2.5)
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a directory with a file", t, func() {
		fs := filesystem.API()
		dir := filepath.Join("/tmp", "finplay-util")
		So(fs.MkdirAll(dir, 0o755), ShouldBeNil)
		So(fs.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o644), ShouldBeNil)

		Convey("Deleting the file keeps the directory", func() {
			So(Delete(filepath.Join(dir, "a.json")), ShouldBeNil)
			So(lo.Must(fs.Exists(filepath.Join(dir, "a.json"))), ShouldBeFalse)
			So(lo.Must(fs.DirExists(dir)), ShouldBeTrue)
		})

		Convey("Deleting the directory removes everything", func() {
			So(Delete(dir), ShouldBeNil)
			So(lo.Must(fs.DirExists(dir)), ShouldBeFalse)
		})

		Convey("Deleting a missing path fails", func() {
			So(Delete("/tmp/does-not-exist"), ShouldNotBeNil)
		})
	})
}
