package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/holotrumps/internal/adapters/http/api"
	service "github.com/okian/holotrumps/internal/app"
	"github.com/okian/holotrumps/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestArenaCommands(t *testing.T) {
	Convey("Given a running server and a temp state file", t, func() {
		svc := service.New(service.WithMemorySeed(2))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		server, err := api.NewServer(svc, svc)
		So(err, ShouldBeNil)
		mux := http.NewServeMux()
		server.Register(mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		state := filepath.Join(t.TempDir(), "history.json")
		global := []string{"--url", ts.URL, "--state", state}

		Convey("Playing before seeding fails without writing state", func() {
			_, err := run(append([]string{"play", "-n", "2"}, global...)...)
			So(err, ShouldNotBeNil)
			_, statErr := os.Stat(state)
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})

		Convey("A seeded server can be played, inspected and reset", func() {
			out, err := run(append([]string{"seed"}, global...)...)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Database seeded successfully!")

			out, err = run(append([]string{"play", "-r", "random", "-n", "6", "-p", "left", "-w", "2"}, global...)...)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Played 6 rounds")

			out, err = run(append([]string{"history", "--limit", "3"}, global...)...)
			So(err, ShouldBeNil)
			So(bytes.Count([]byte(out), []byte("pick left")), ShouldEqual, 3)

			out, err = run(append([]string{"stats"}, global...)...)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Server:     5 people, 5 starships")
			So(out, ShouldContainSubstring, "Lifetime:   6 battles")

			out, err = run(append([]string{"reset"}, global...)...)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "History cleared")

			out, err = run(append([]string{"history"}, global...)...)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "No battles yet.")
		})

		Convey("Invalid flags are rejected", func() {
			_, err := run(append([]string{"play", "-r", "PLANETS"}, global...)...)
			So(err, ShouldNotBeNil)
			_, err = run(append([]string{"play", "-p", "up"}, global...)...)
			So(err, ShouldNotBeNil)
		})
	})
}
