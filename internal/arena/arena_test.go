package arena_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/holotrumps/internal/arena"
	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/verdict"
	"github.com/okian/holotrumps/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var epoch = time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC)

func person(id string, mass int) entity.Entity {
	return entity.FromPerson(entity.Person{ID: id, Name: "p-" + id, Mass: mass})
}

func starship(id string, crew int) entity.Entity {
	return entity.FromStarship(entity.Starship{ID: id, Name: "s-" + id, Crew: crew})
}

func resolved(left, right entity.Entity) verdict.Round {
	r, err := verdict.Resolve(left, right)
	So(err, ShouldBeNil)
	return r
}

func TestParsePick(t *testing.T) {
	Convey("Picks parse case-insensitively", t, func() {
		for in, want := range map[string]arena.Pick{"left": arena.PickLeft, " RIGHT ": arena.PickRight, "Random": arena.PickRandom} {
			got, err := arena.ParsePick(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}
		_, err := arena.ParsePick("middle")
		So(errors.Is(err, arena.ErrInvalidPick), ShouldBeTrue)

		side, ok := arena.PickRandom.Side()
		So(ok, ShouldBeFalse)
		So(side, ShouldEqual, verdict.Side(""))
	})
}

func TestNewBattle(t *testing.T) {
	Convey("Given a round won by the left entity", t, func() {
		round := resolved(person("a", 100), person("b", 50))

		Convey("Picking left wins", func() {
			b := arena.NewBattle(round, verdict.Left, 42*time.Millisecond, epoch)
			So(b.ID, ShouldNotBeEmpty)
			So(b.Won, ShouldBeTrue)
			So(b.Tie(), ShouldBeFalse)
			So(*b.WinnerPosition, ShouldEqual, verdict.Left)
			So(b.Winner.ID(), ShouldEqual, "a")
			So(b.WinningAttribute, ShouldEqual, "mass")
			So(b.DurationMS, ShouldEqual, 42)
			So(b.Timestamp, ShouldEqual, epoch)
		})

		Convey("Picking right loses", func() {
			b := arena.NewBattle(round, verdict.Right, 0, epoch)
			So(b.Won, ShouldBeFalse)
		})
	})

	Convey("A tie is never won", t, func() {
		round := resolved(starship("a", 3), starship("b", 3))
		for _, side := range []verdict.Side{verdict.Left, verdict.Right} {
			b := arena.NewBattle(round, side, 0, epoch)
			So(b.Tie(), ShouldBeTrue)
			So(b.Won, ShouldBeFalse)
			So(b.Winner, ShouldBeNil)
			So(b.WinningAttribute, ShouldEqual, "crew")
		}
	})
}

func TestState(t *testing.T) {
	Convey("Given a fresh state", t, func() {
		st := arena.NewState(epoch)
		So(st.Profile.Name, ShouldEqual, "Padawan")
		So(st.Profile.FavoriteKind, ShouldEqual, entity.KindPeople)
		So(st.Battles, ShouldBeEmpty)

		leftWin := resolved(person("a", 10), person("b", 1))
		rightWin := resolved(starship("a", 1), starship("b", 10))
		tie := resolved(person("a", 5), person("b", 5))

		Convey("Wins extend the streak and losses reset it", func() {
			st.Add(arena.NewBattle(leftWin, verdict.Left, 0, epoch))
			st.Add(arena.NewBattle(leftWin, verdict.Left, 0, epoch))
			st.Add(arena.NewBattle(leftWin, verdict.Left, 0, epoch))
			So(st.Profile.WinStreak, ShouldEqual, 3)
			So(st.Profile.BestWinStreak, ShouldEqual, 3)

			st.Add(arena.NewBattle(tie, verdict.Left, 0, epoch))
			So(st.Profile.WinStreak, ShouldEqual, 0)
			So(st.Profile.BestWinStreak, ShouldEqual, 3)

			st.Add(arena.NewBattle(rightWin, verdict.Right, 0, epoch))
			So(st.Profile.WinStreak, ShouldEqual, 1)
			So(st.Profile.Wins, ShouldEqual, 4)
			So(st.Profile.TotalBattles, ShouldEqual, 5)
		})

		Convey("The scoreboard counts the winning side", func() {
			st.Add(arena.NewBattle(leftWin, verdict.Right, 0, epoch))
			st.Add(arena.NewBattle(rightWin, verdict.Right, 0, epoch))
			st.Add(arena.NewBattle(rightWin, verdict.Left, 0, epoch))
			st.Add(arena.NewBattle(tie, verdict.Left, 0, epoch))
			So(st.Score, ShouldResemble, arena.Scoreboard{Left: 1, Right: 2, Ties: 1})
			So(st.Score.Total(), ShouldEqual, 4)

			st.ResetScore()
			So(st.Score.Total(), ShouldEqual, 0)
			So(st.Battles, ShouldHaveLength, 4)
		})

		Convey("History is newest first and capped", func() {
			var last arena.Battle
			for i := 0; i < arena.MaxHistory+25; i++ {
				last = arena.NewBattle(leftWin, verdict.Left, 0, epoch.Add(time.Duration(i)*time.Second))
				st.Add(last)
			}
			So(st.Battles, ShouldHaveLength, arena.MaxHistory)
			So(st.Battles[0].ID, ShouldEqual, last.ID)
			So(st.Profile.TotalBattles, ShouldEqual, arena.MaxHistory+25)
			So(st.Recent(3), ShouldHaveLength, 3)
			So(st.Recent(0), ShouldHaveLength, arena.MaxHistory)
		})

		Convey("The favorite kind follows the most played one", func() {
			st.Add(arena.NewBattle(rightWin, verdict.Right, 0, epoch))
			So(st.Profile.FavoriteKind, ShouldEqual, entity.KindStarships)
			st.Add(arena.NewBattle(leftWin, verdict.Left, 0, epoch))
			So(st.Profile.FavoriteKind, ShouldEqual, entity.KindPeople)
		})

		Convey("Summaries report rates and per-kind counts", func() {
			st.Add(arena.NewBattle(leftWin, verdict.Left, 10*time.Millisecond, epoch))
			st.Add(arena.NewBattle(rightWin, verdict.Left, 30*time.Millisecond, epoch))
			sum := st.Summarize()
			So(sum.TotalBattles, ShouldEqual, 2)
			So(sum.TotalWins, ShouldEqual, 1)
			So(sum.WinRate, ShouldEqual, 50)
			So(sum.AverageDurationMS, ShouldEqual, 20)
			So(sum.BattlesByKind[entity.KindPeople], ShouldEqual, 1)
			So(sum.BattlesByKind[entity.KindStarships], ShouldEqual, 1)
			So(sum.WinsByKind[entity.KindStarships], ShouldEqual, 0)
			So(sum.LongestWinStreak, ShouldEqual, 1)
		})

		Convey("An empty history summarizes to zero", func() {
			sum := st.Summarize()
			So(sum.TotalBattles, ShouldEqual, 0)
			So(sum.WinRate, ShouldEqual, 0)
		})
	})
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store in a temp dir", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nested", "history.json")
		fs := arena.NewFileStore(path)
		So(fs.Path(), ShouldEqual, path)

		Convey("A missing file loads a fresh state", func() {
			st, err := fs.Load(ctx)
			So(err, ShouldBeNil)
			So(st.Battles, ShouldBeEmpty)
			So(st.Profile.ID, ShouldNotBeEmpty)
		})

		Convey("Saved state loads back", func() {
			st := arena.NewState(epoch)
			st.Add(arena.NewBattle(resolved(person("a", 2), person("b", 1)), verdict.Left, time.Millisecond, epoch))
			st.Mismatches = 2
			So(fs.Save(ctx, st), ShouldBeNil)

			info, err := os.Stat(path)
			So(err, ShouldBeNil)
			So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o600))

			got, err := fs.Load(ctx)
			So(err, ShouldBeNil)
			So(got.Profile, ShouldResemble, st.Profile)
			So(got.Score, ShouldResemble, st.Score)
			So(got.Mismatches, ShouldEqual, 2)
			So(got.Battles, ShouldHaveLength, 1)
			So(got.Battles[0].Left.Person.Name, ShouldEqual, "p-a")
			So(got.Battles[0].Won, ShouldBeTrue)

			Convey("And reset removes it", func() {
				So(fs.Reset(ctx), ShouldBeNil)
				_, err := os.Stat(path)
				So(os.IsNotExist(err), ShouldBeTrue)
				So(fs.Reset(ctx), ShouldBeNil)
			})
		})

		Convey("A corrupt file is reported", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o750), ShouldBeNil)
			So(os.WriteFile(path, []byte("{nope"), 0o600), ShouldBeNil)
			_, err := fs.Load(ctx)
			So(errors.Is(err, arena.ErrCorruptState), ShouldBeTrue)
		})
	})

	Convey("An empty path uses the default location", t, func() {
		So(arena.NewFileStore("").Path(), ShouldEqual, arena.DefaultStatePath())
		So(filepath.Base(arena.DefaultStatePath()), ShouldEqual, "history.json")
	})
}
