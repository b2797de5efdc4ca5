package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/okian/holotrumps/internal/adapters/http/api"
	"github.com/okian/holotrumps/internal/adapters/repository"
	service "github.com/okian/holotrumps/internal/app"
	"github.com/okian/holotrumps/internal/domain/catalog"
	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/types"
	"github.com/okian/holotrumps/internal/domain/verdict"
	"github.com/okian/holotrumps/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type gqlError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions"`
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []gqlError                 `json:"errors"`
}

func (r gqlResponse) code() string {
	if len(r.Errors) == 0 {
		return ""
	}
	c, _ := r.Errors[0].Extensions["code"].(string)
	return c
}

func (r gqlResponse) decode(field string, v interface{}) {
	So(json.Unmarshal(r.Data[field], v), ShouldBeNil)
}

// post runs a GraphQL request through mux.
func post(mux http.Handler, query string, vars map[string]interface{}) (int, gqlResponse) {
	body, _ := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var resp gqlResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}

func newMux(deps api.Dependencies, stats api.StatsProvider) *http.ServeMux {
	server, err := api.NewServer(deps, stats, api.WithLogger(logger.Get()))
	So(err, ShouldBeNil)
	mux := http.NewServeMux()
	server.Register(mux)
	return mux
}

func startedService() *service.Service {
	svc := service.New(service.WithMemorySeed(11))
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

type entityJSON struct {
	TypeName     string  `json:"__typename"`
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Mass         *int    `json:"mass"`
	Crew         *int    `json:"crew"`
	Height       *string `json:"height"`
	Manufacturer *string `json:"manufacturer"`
	Passengers   *string `json:"passengers"`
}

const roundQuery = `query Round($r: ResourceType!) {
  getRandomPair(resource: $r) {
    resourceType
    winningAttribute
    outcome
    entities {
      __typename
      ... on Person { id name mass }
      ... on Starship { id name crew }
    }
    winner {
      ... on Person { id }
      ... on Starship { id }
    }
  }
}`

func TestServer_Routes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		svc := startedService()
		defer svc.Stop()
		mux := newMux(svc, svc)

		Convey("The health endpoint serves Prometheus metrics", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/plain")
		})

		Convey("The stats endpoint serves service stats", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
			So(w.Code, ShouldEqual, http.StatusOK)

			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["backend"], ShouldEqual, "memory")
			So(stats["started"], ShouldEqual, true)
		})

		Convey("The stats endpoint rejects other methods", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/stats", nil))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Every response carries a request id", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(api.RequestIDHeader, "trace-me_42")
			w = httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "trace-me_42")

			req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(api.RequestIDHeader, "bad id with spaces")
			w = httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldNotEqual, "bad id with spaces")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})
	})
}

func TestGraphQL_Transport(t *testing.T) {
	Convey("Given the GraphQL endpoint", t, func() {
		svc := startedService()
		defer svc.Stop()
		mux := newMux(svc, svc)

		Convey("Unsupported methods are rejected", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/graphql", nil))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, "GET, POST")
		})

		Convey("A malformed body is a bad request", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{not json")))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "bad_request")
		})

		Convey("An empty query is a bad request", func() {
			status, _ := post(mux, "   ", nil)
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Queries can be sent with GET", func() {
			q := url.Values{"query": {"{ gameStats { peopleCount starshipsCount } }"}}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"peopleCount":0`)
		})

		Convey("Mutations cannot be sent with GET", func() {
			q := url.Values{"query": {"mutation { seedDatabase }"}}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Syntax errors are rejected with a validation code", func() {
			status, resp := post(mux, "{ gameStats { ", nil)
			So(status, ShouldEqual, http.StatusBadRequest)
			So(resp.code(), ShouldEqual, api.CodeValidationFailed)
		})

		Convey("An unknown resource type is reported as such", func() {
			status, resp := post(mux, roundQuery, map[string]interface{}{"r": "PLANETS"})
			So(status, ShouldEqual, http.StatusBadRequest)
			So(resp.code(), ShouldEqual, api.CodeInvalidResourceType)

			_, resp = post(mux, `{ getRandomPair(resource: PLANETS) { outcome } }`, nil)
			So(resp.code(), ShouldEqual, api.CodeInvalidResourceType)
		})
	})
}

func TestGraphQL_Game(t *testing.T) {
	Convey("Given an empty store", t, func() {
		svc := startedService()
		defer svc.Stop()
		mux := newMux(svc, svc)

		Convey("A round cannot be played", func() {
			status, resp := post(mux, roundQuery, map[string]interface{}{"r": "PEOPLE"})
			So(status, ShouldEqual, http.StatusOK)
			So(resp.code(), ShouldEqual, api.CodeInsufficientData)
		})

		Convey("When the database is seeded", func() {
			_, resp := post(mux, `mutation { seedDatabase }`, nil)
			So(resp.Errors, ShouldBeEmpty)
			var msg string
			resp.decode("seedDatabase", &msg)
			So(msg, ShouldEqual, catalog.SeededMessage)

			Convey("Then stats report the catalog", func() {
				_, resp := post(mux, `{ gameStats { peopleCount starshipsCount } }`, nil)
				var stats types.GameStats
				resp.decode("gameStats", &stats)
				So(stats, ShouldResemble, types.GameStats{PeopleCount: 5, StarshipsCount: 5})
			})

			Convey("Then rounds resolve by the kind's attribute", func() {
				for _, kind := range entity.Kinds() {
					for i := 0; i < 20; i++ {
						_, resp := post(mux, roundQuery, map[string]interface{}{"r": string(kind)})
						So(resp.Errors, ShouldBeEmpty)

						var round struct {
							ResourceType     string       `json:"resourceType"`
							WinningAttribute string       `json:"winningAttribute"`
							Outcome          string       `json:"outcome"`
							Entities         []entityJSON `json:"entities"`
							Winner           *entityJSON  `json:"winner"`
						}
						resp.decode("getRandomPair", &round)

						attr, _ := kind.Attribute()
						So(round.ResourceType, ShouldEqual, string(kind))
						So(round.WinningAttribute, ShouldEqual, attr)
						So(round.Entities, ShouldHaveLength, 2)
						So(round.Entities[0].ID, ShouldNotEqual, round.Entities[1].ID)
						So(round.Entities[0].TypeName, ShouldEqual, kind.TypeName())

						value := func(e entityJSON) int {
							if e.Mass != nil {
								return *e.Mass
							}
							return *e.Crew
						}
						left, right := value(round.Entities[0]), value(round.Entities[1])
						switch {
						case left > right:
							So(round.Outcome, ShouldEqual, string(verdict.LeftWins))
							So(round.Winner.ID, ShouldEqual, round.Entities[0].ID)
						case right > left:
							So(round.Outcome, ShouldEqual, string(verdict.RightWins))
							So(round.Winner.ID, ShouldEqual, round.Entities[1].ID)
						default:
							So(round.Outcome, ShouldEqual, string(verdict.Tie))
							So(round.Winner, ShouldBeNil)
						}
					}
				}
			})

			Convey("Then search and manufacturer queries find seeded entities", func() {
				_, resp := post(mux, `{ searchEntities(resource: PEOPLE, name: "darth") { ... on Person { name mass } } }`, nil)
				var found []entityJSON
				resp.decode("searchEntities", &found)
				So(found, ShouldHaveLength, 1)
				So(found[0].Name, ShouldEqual, "Darth Vader")

				_, resp = post(mux, `{ starshipsByManufacturer(manufacturer: "kuat") { name manufacturer } }`, nil)
				var ships []entityJSON
				resp.decode("starshipsByManufacturer", &ships)
				So(ships, ShouldHaveLength, 1)
				So(ships[0].Name, ShouldEqual, "Imperial Star Destroyer")
			})

			Convey("Then listing pages through with tokens", func() {
				const q = `query L($t: String) { listPeople(limit: 2, nextToken: $t) { items { id } nextToken totalCount } }`
				var (
					token interface{}
					seen  = map[string]bool{}
				)
				for pages := 0; pages < 10; pages++ {
					_, resp := post(mux, q, map[string]interface{}{"t": token})
					So(resp.Errors, ShouldBeEmpty)
					var conn struct {
						Items      []entityJSON `json:"items"`
						NextToken  *string      `json:"nextToken"`
						TotalCount int          `json:"totalCount"`
					}
					resp.decode("listPeople", &conn)
					So(conn.TotalCount, ShouldEqual, len(conn.Items))
					for _, it := range conn.Items {
						seen[it.ID] = true
					}
					if conn.NextToken == nil {
						break
					}
					token = *conn.NextToken
				}
				So(seen, ShouldHaveLength, 5)
			})

			Convey("Then a forged token is rejected", func() {
				_, resp := post(mux, `{ listEntities(resource: STARSHIPS, nextToken: "!!!") { totalCount } }`, nil)
				So(resp.code(), ShouldEqual, api.CodeInvalidToken)
			})
		})
	})
}

func TestGraphQL_Mutations(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		defer svc.Stop()
		mux := newMux(svc, svc)

		const create = `mutation C($in: CreateStarshipInput!) { createStarship(input: $in) { id name crew passengers } }`

		Convey("A starship can be created, read, updated and deleted", func() {
			_, resp := post(mux, create, map[string]interface{}{"in": map[string]interface{}{
				"name": "Slave I", "crew": 1, "passengers": "6",
			}})
			So(resp.Errors, ShouldBeEmpty)
			var ship entityJSON
			resp.decode("createStarship", &ship)
			So(ship.ID, ShouldNotBeEmpty)
			So(*ship.Crew, ShouldEqual, 1)

			_, resp = post(mux, `query G($id: ID!) { getStarship(id: $id) { name } }`, map[string]interface{}{"id": ship.ID})
			var got entityJSON
			resp.decode("getStarship", &got)
			So(got.Name, ShouldEqual, "Slave I")

			const update = `mutation U($in: UpdateStarshipInput!) { updateStarship(input: $in) { id crew passengers } }`
			_, resp = post(mux, update, map[string]interface{}{"in": map[string]interface{}{
				"id": ship.ID, "crew": 2, "passengers": "",
			}})
			So(resp.Errors, ShouldBeEmpty)
			var updated entityJSON
			resp.decode("updateStarship", &updated)
			So(*updated.Crew, ShouldEqual, 2)
			So(updated.Passengers, ShouldBeNil)

			_, resp = post(mux, `mutation D($id: ID!) { deleteEntity(resource: STARSHIPS, id: $id) }`, map[string]interface{}{"id": ship.ID})
			var deleted string
			resp.decode("deleteEntity", &deleted)
			So(deleted, ShouldEqual, ship.ID)

			Convey("And afterwards it reads as null", func() {
				_, resp := post(mux, `query G($id: ID!) { getEntity(resource: STARSHIPS, id: $id) { ... on Starship { id } } }`, map[string]interface{}{"id": ship.ID})
				So(resp.Errors, ShouldBeEmpty)
				So(string(resp.Data["getEntity"]), ShouldEqual, "null")
			})

			Convey("And deleting it again is not found", func() {
				_, resp := post(mux, `mutation D($id: ID!) { deleteStarship(id: $id) }`, map[string]interface{}{"id": ship.ID})
				So(resp.code(), ShouldEqual, api.CodeNotFound)
			})
		})

		Convey("Updating an unknown person is not found", func() {
			_, resp := post(mux, `mutation { updatePerson(input: {id: "nope", mass: 1}) { id } }`, nil)
			So(resp.code(), ShouldEqual, api.CodeNotFound)
		})

		Convey("Invalid input is reported", func() {
			_, resp := post(mux, `mutation { createPerson(input: {name: "", mass: 10}) { id } }`, nil)
			So(resp.code(), ShouldEqual, api.CodeInvalidInput)

			_, resp = post(mux, `mutation { createPerson(input: {name: "Jabba", mass: -1}) { id } }`, nil)
			So(resp.code(), ShouldEqual, api.CodeInvalidInput)
		})
	})
}

// failingDeps fails every call with err.
type failingDeps struct {
	err error
}

func (f failingDeps) GetRandomPair(context.Context, entity.Kind) (verdict.Round, error) {
	return verdict.Round{}, f.err
}
func (f failingDeps) GetEntity(context.Context, entity.Kind, string) (entity.Entity, error) {
	return entity.Entity{}, f.err
}
func (f failingDeps) ListEntities(context.Context, entity.Kind, int, string) (types.Connection, error) {
	return types.Connection{}, f.err
}
func (f failingDeps) SearchEntities(context.Context, entity.Kind, string) ([]entity.Entity, error) {
	return nil, f.err
}
func (f failingDeps) StarshipsByManufacturer(context.Context, string) ([]entity.Entity, error) {
	return nil, f.err
}
func (f failingDeps) CreateEntity(context.Context, entity.Kind, entity.Fields) (entity.Entity, error) {
	return entity.Entity{}, f.err
}
func (f failingDeps) UpdateEntity(context.Context, entity.Kind, string, entity.Fields) (entity.Entity, error) {
	return entity.Entity{}, f.err
}
func (f failingDeps) DeleteEntity(context.Context, entity.Kind, string) (string, error) {
	return "", f.err
}
func (f failingDeps) SeedDatabase(context.Context) (string, error)          { return "", f.err }
func (f failingDeps) GameStats(context.Context) (types.GameStats, error) { return types.GameStats{}, f.err }

type staticStats map[string]interface{}

func (s staticStats) GetStats() map[string]interface{} { return s }

func TestGraphQL_ErrorCodes(t *testing.T) {
	Convey("Given dependencies that fail", t, func() {
		cases := []struct {
			err  error
			code string
		}{
			{repository.NewStoreError("scan", "people", errors.New("connection reset")), api.CodeStoreError},
			{service.ErrNotStarted, api.CodeStoreError},
			{verdict.ErrInvalidPair, api.CodeInvalidPair},
			{repository.ErrNotFound, api.CodeNotFound},
		}
		for _, tc := range cases {
			mux := newMux(failingDeps{err: tc.err}, staticStats{})

			_, resp := post(mux, `{ gameStats { peopleCount } }`, nil)
			So(resp.code(), ShouldEqual, tc.code)
			So(resp.Errors[0].Message, ShouldContainSubstring, tc.err.Error())
		}
	})

	Convey("A failing getEntity is an error unless the entity is missing", t, func() {
		mux := newMux(failingDeps{err: repository.ErrNotFound}, staticStats{})
		_, resp := post(mux, `{ getPerson(id: "x") { id } }`, nil)
		So(resp.Errors, ShouldBeEmpty)

		mux = newMux(failingDeps{err: errors.New("throttled")}, staticStats{})
		_, resp = post(mux, `{ getPerson(id: "x") { id } }`, nil)
		So(resp.code(), ShouldEqual, api.CodeStoreError)
	})
}
