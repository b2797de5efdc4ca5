package verdict_test

import (
	"errors"
	"testing"

	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/verdict"
	. "github.com/smartystreets/goconvey/convey"
)

func person(id, name string, mass int) entity.Entity {
	return entity.FromPerson(entity.Person{ID: id, Name: name, Mass: mass})
}

func starship(id, name string, crew int) entity.Entity {
	return entity.FromStarship(entity.Starship{ID: id, Name: name, Crew: crew})
}

func TestResolve(t *testing.T) {
	Convey("Given two people", t, func() {
		luke := person("1", "Luke Skywalker", 77)
		vader := person("2", "Darth Vader", 136)

		Convey("The heavier one wins on mass", func() {
			r, err := verdict.Resolve(luke, vader)
			So(err, ShouldBeNil)
			So(r.Outcome, ShouldEqual, verdict.RightWins)
			So(r.WinningAttribute, ShouldEqual, "mass")
			w, ok := r.Winner()
			So(ok, ShouldBeTrue)
			So(w.Name(), ShouldEqual, "Darth Vader")
			So(*r.WinnerSide(), ShouldEqual, verdict.Right)
			So(r.Entities[0].ID(), ShouldEqual, "1")
		})

		Convey("Order does not change the winner", func() {
			r, err := verdict.Resolve(vader, luke)
			So(err, ShouldBeNil)
			So(r.Outcome, ShouldEqual, verdict.LeftWins)
			w, _ := r.Winner()
			So(w.ID(), ShouldEqual, "2")
		})

		Convey("Equal mass is a tie with no winner", func() {
			obiwan := person("3", "Obi-Wan Kenobi", 77)
			r, err := verdict.Resolve(luke, obiwan)
			So(err, ShouldBeNil)
			So(r.Outcome, ShouldEqual, verdict.Tie)
			So(r.WinningAttribute, ShouldEqual, "mass")
			_, ok := r.Winner()
			So(ok, ShouldBeFalse)
			So(r.WinnerSide(), ShouldBeNil)
		})
	})

	Convey("Given two starships", t, func() {
		Convey("The larger crew wins", func() {
			r, err := verdict.Resolve(starship("a", "X-wing", 1), starship("b", "Death Star", 342953))
			So(err, ShouldBeNil)
			So(r.WinningAttribute, ShouldEqual, "crew")
			w, ok := r.Winner()
			So(ok, ShouldBeTrue)
			So(w.Name(), ShouldEqual, "Death Star")
		})

		Convey("Two zero crews tie", func() {
			r, err := verdict.Resolve(starship("a", "Probe", 0), starship("b", "Droid ship", 0))
			So(err, ShouldBeNil)
			So(r.Outcome, ShouldEqual, verdict.Tie)
		})
	})

	Convey("Given entities of different kinds", t, func() {
		_, err := verdict.Resolve(person("1", "Luke Skywalker", 77), starship("a", "X-wing", 1))
		So(errors.Is(err, verdict.ErrInvalidPair), ShouldBeTrue)
	})

	Convey("Given a malformed entity", t, func() {
		_, err := verdict.Resolve(entity.Entity{Kind: entity.KindPeople}, person("1", "Luke Skywalker", 77))
		So(errors.Is(err, verdict.ErrInvalidPair), ShouldBeTrue)
	})
}
