package catalog

import (
	"testing"

	"github.com/okian/holotrumps/internal/domain/entity"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCatalog(t *testing.T) {
	Convey("Given the sample catalog", t, func() {
		Convey("It holds five of each kind", func() {
			So(People(), ShouldHaveLength, 5)
			So(Starships(), ShouldHaveLength, 5)
			So(Entities(), ShouldHaveLength, 10)
		})

		Convey("Every entry is named and carries its attribute, without an id", func() {
			for _, e := range Entities() {
				So(e.Name(), ShouldNotBeEmpty)
				So(e.ID(), ShouldBeEmpty)
				So(e.Value(), ShouldBeGreaterThan, 0)
			}
		})

		Convey("People come before starships", func() {
			all := Entities()
			So(all[0].Kind, ShouldEqual, entity.KindPeople)
			So(all[len(all)-1].Kind, ShouldEqual, entity.KindStarships)
		})

		Convey("Callers get their own copy", func() {
			p := People()
			p[0].Name = "changed"
			So(People()[0].Name, ShouldEqual, "Luke Skywalker")
		})
	})
}
