package arena_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/holotrumps/internal/adapters/http/api"
	service "github.com/okian/holotrumps/internal/app"
	"github.com/okian/holotrumps/internal/arena"
	"github.com/okian/holotrumps/internal/domain/catalog"
	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// liveServer runs the real API over an in-memory service.
func liveServer() (*httptest.Server, func()) {
	svc := service.New(service.WithMemorySeed(5))
	So(svc.Start(context.Background()), ShouldBeNil)
	server, err := api.NewServer(svc, svc)
	So(err, ShouldBeNil)
	mux := http.NewServeMux()
	server.Register(mux)
	ts := httptest.NewServer(mux)
	return ts, func() {
		ts.Close()
		svc.Stop()
	}
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running server", t, func() {
		ts, stop := liveServer()
		defer stop()
		client := arena.NewClient(ts.URL+"/", time.Second)

		Convey("The health check passes", func() {
			So(client.Health(ctx), ShouldBeNil)
		})

		Convey("An empty catalog cannot serve a round", func() {
			_, err := client.RandomPair(ctx, entity.KindPeople)
			So(errors.Is(err, arena.ErrRemote), ShouldBeTrue)
			var re *arena.RemoteError
			So(errors.As(err, &re), ShouldBeTrue)
			So(re.Code, ShouldEqual, api.CodeInsufficientData)
		})

		Convey("After seeding", func() {
			msg, err := client.Seed(ctx)
			So(err, ShouldBeNil)
			So(msg, ShouldEqual, catalog.SeededMessage)

			stats, err := client.GameStats(ctx)
			So(err, ShouldBeNil)
			So(stats, ShouldResemble, types.GameStats{PeopleCount: 5, StarshipsCount: 5})

			Convey("Rounds decode and verify locally", func() {
				for _, kind := range entity.Kinds() {
					round, err := client.RandomPair(ctx, kind)
					So(err, ShouldBeNil)
					So(round.Kind, ShouldEqual, kind)
					So(round.Entities[0].Kind, ShouldEqual, kind)
					So(round.Entities[0].Name(), ShouldNotBeEmpty)
					_, err = arena.Verify(round)
					So(err, ShouldBeNil)
				}
			})

			Convey("A full session plays against the server", func() {
				st := arena.NewState(epoch)
				report, err := arena.NewPlayer(client, arena.WithSeed(9)).Play(ctx, st,
					arena.PlayConfig{Resource: arena.ResourceRandom, Rounds: 30, Workers: 4})
				So(err, ShouldBeNil)
				So(report.Played, ShouldEqual, 30)
				So(report.Mismatches, ShouldEqual, 0)
				So(st.Score.Total(), ShouldEqual, 30)
			})
		})
	})

	Convey("Given an unreachable server", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()
		client := arena.NewClient(url, 200*time.Millisecond)

		So(client.Health(ctx), ShouldNotBeNil)
		_, err := client.GameStats(ctx)
		So(err, ShouldNotBeNil)
	})

	Convey("Given a server that is not healthy", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer ts.Close()
		client := arena.NewClient(ts.URL, time.Second)

		So(errors.Is(client.Health(ctx), arena.ErrUnhealthy), ShouldBeTrue)
		_, err := client.Seed(ctx)
		So(errors.Is(err, arena.ErrResponse), ShouldBeTrue)
	})
}
