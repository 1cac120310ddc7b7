package auth

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/zalando/go-keyring"
)

func TestToken(t *testing.T) {
	keyring.MockInit()

	Convey("Given a mocked keyring", t, func() {
		Convey("A stored token can be read back", func() {
			So(SetToken("abc"), ShouldBeNil)
			token, err := GetToken()
			So(err, ShouldBeNil)
			So(token, ShouldEqual, "abc")
		})

		Convey("A deleted token is gone", func() {
			So(SetToken("abc"), ShouldBeNil)
			So(DeleteToken(), ShouldBeNil)
			_, err := GetToken()
			So(err, ShouldEqual, keyring.ErrNotFound)
		})
	})
}
