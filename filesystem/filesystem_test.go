package filesystem

import (
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestApi(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should default to OsFs", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})

		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")
		})
	})
}

func TestWriteAtomic(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		SetMemMapFs()

		Convey("WriteAtomic creates parent directories and leaves no temp file", func() {
			So(WriteAtomic("/a/b/state.json", []byte(`{"x":1}`)), ShouldBeNil)
			So(string(lo.Must(API().ReadFile("/a/b/state.json"))), ShouldEqual, `{"x":1}`)
			So(lo.Must(API().Exists("/a/b/state.json.tmp")), ShouldBeFalse)
		})

		Convey("WriteAtomic replaces existing content", func() {
			So(WriteAtomic("/s.json", []byte("old")), ShouldBeNil)
			So(WriteAtomic("/s.json", []byte("new")), ShouldBeNil)
			So(string(lo.Must(API().ReadFile("/s.json"))), ShouldEqual, "new")
		})
	})
}
