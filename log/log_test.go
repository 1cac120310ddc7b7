package log

import (
	"bytes"
	"testing"

	"github.com/anisan-cli/finplay/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestFacade(t *testing.T) {
	Convey("Given the logging facade", t, func() {
		Convey("Nothing is written before output is configured", func() {
			enabled = false
			logger = newDiscard()
			So(func() { Infof("dropped %d", 1) }, ShouldNotPanic)
		})

		Convey("When output is set", func() {
			viper.Set(key.LogsLevel, "debug")
			viper.Set(key.LogsJson, false)
			var buf bytes.Buffer
			So(SetOutput(&buf), ShouldBeNil)

			Convey("Leveled messages are written", func() {
				Debugf("tick %d", 3)
				So(buf.String(), ShouldContainSubstring, "tick 3")
			})

			Convey("Structured fields are rendered", func() {
				WithFields(Fields{"item": "abc"}).Info("loaded")
				So(buf.String(), ShouldContainSubstring, "item=abc")
			})
		})

		Convey("An unknown level falls back to info", func() {
			viper.Set(key.LogsLevel, "chatty")
			var buf bytes.Buffer
			So(SetOutput(&buf), ShouldBeNil)
			Debug("hidden")
			Info("shown")
			So(buf.String(), ShouldNotContainSubstring, "hidden")
			So(buf.String(), ShouldContainSubstring, "shown")
		})

		Reset(func() {
			enabled = false
			logger = newDiscard()
		})
	})
}
