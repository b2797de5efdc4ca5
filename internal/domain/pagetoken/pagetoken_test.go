package pagetoken

import (
	"encoding/base64"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestToken(t *testing.T) {
	Convey("Given a store key", t, func() {
		key := map[string]any{"id": "9f1c0c8e-5b1e-4f0e-9a57-2f1a3f6a1e11"}

		Convey("It survives Encode and Decode", func() {
			tok, err := Encode(key)
			So(err, ShouldBeNil)
			So(tok, ShouldNotBeEmpty)

			got, err := Decode(tok)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, key)
		})

		Convey("Standard base64 tokens are accepted", func() {
			tok := base64.StdEncoding.EncodeToString([]byte(`{"id":"abc"}`))
			got, err := Decode(tok)
			So(err, ShouldBeNil)
			So(got["id"], ShouldEqual, "abc")
		})
	})

	Convey("Given empty input", t, func() {
		tok, err := Encode(nil)
		So(err, ShouldBeNil)
		So(tok, ShouldEqual, "")

		key, err := Decode("")
		So(err, ShouldBeNil)
		So(key, ShouldBeNil)
	})

	Convey("Given garbage", t, func() {
		for _, tok := range []string{
			"!!!not-base64!!!",
			base64.URLEncoding.EncodeToString([]byte("not json")),
			base64.URLEncoding.EncodeToString([]byte(`{}`)),
			base64.URLEncoding.EncodeToString([]byte(`[1,2]`)),
		} {
			_, err := Decode(tok)
			So(errors.Is(err, ErrInvalidToken), ShouldBeTrue)
		}
	})
}
