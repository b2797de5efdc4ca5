package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/okian/holotrumps/internal/adapters/repository"
	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/types"
	"github.com/okian/holotrumps/internal/domain/verdict"
)

// Dependencies required by the GraphQL resolvers.
type Dependencies interface {
	GetRandomPair(ctx context.Context, kind entity.Kind) (verdict.Round, error)

	GetEntity(ctx context.Context, kind entity.Kind, id string) (entity.Entity, error)
	ListEntities(ctx context.Context, kind entity.Kind, limit int, token string) (types.Connection, error)
	SearchEntities(ctx context.Context, kind entity.Kind, name string) ([]entity.Entity, error)
	StarshipsByManufacturer(ctx context.Context, manufacturer string) ([]entity.Entity, error)

	CreateEntity(ctx context.Context, kind entity.Kind, f entity.Fields) (entity.Entity, error)
	UpdateEntity(ctx context.Context, kind entity.Kind, id string, f entity.Fields) (entity.Entity, error)
	DeleteEntity(ctx context.Context, kind entity.Kind, id string) (string, error)

	SeedDatabase(ctx context.Context) (string, error)
	GameStats(ctx context.Context) (types.GameStats, error)
}

type resolvers struct {
	deps Dependencies
}

// kindArg returns fixed when set, otherwise the "resource" argument.
func kindArg(p graphql.ResolveParams, fixed entity.Kind) (entity.Kind, error) {
	if fixed != "" {
		return fixed, nil
	}
	s, _ := p.Args["resource"].(string)
	kind := entity.Kind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", entity.ErrInvalidResourceType, s)
	}
	return kind, nil
}

func stringArg(m map[string]interface{}, key string) *string {
	if v, ok := m[key].(string); ok {
		return &v
	}
	return nil
}

func intArg(m map[string]interface{}, key string) *int {
	if v, ok := m[key].(int); ok {
		return &v
	}
	return nil
}

// fieldsArg reads an entity input object into Fields. Absent and null
// values both stay nil.
func fieldsArg(p graphql.ResolveParams) (entity.Fields, string) {
	in, _ := p.Args["input"].(map[string]interface{})
	f := entity.Fields{
		Name:         stringArg(in, "name"),
		Mass:         intArg(in, "mass"),
		Crew:         intArg(in, "crew"),
		Height:       stringArg(in, "height"),
		Gender:       stringArg(in, "gender"),
		Homeworld:    stringArg(in, "homeworld"),
		Model:        stringArg(in, "model"),
		Manufacturer: stringArg(in, "manufacturer"),
		Passengers:   stringArg(in, "passengers"),
	}
	id, _ := in["id"].(string)
	return f, id
}

func putOptional(m map[string]interface{}, key, val string) {
	if val != "" {
		m[key] = val
	}
}

// entityValue renders e as a GraphQL source map. Empty optional strings
// resolve to null.
func entityValue(e entity.Entity) map[string]interface{} {
	switch {
	case e.Person != nil:
		p := e.Person
		m := map[string]interface{}{
			typeName: entity.KindPeople.TypeName(),
			"id":     p.ID,
			"name":   p.Name,
			"mass":   p.Mass,
		}
		putOptional(m, "height", p.Height)
		putOptional(m, "gender", p.Gender)
		putOptional(m, "homeworld", p.Homeworld)
		return m
	case e.Starship != nil:
		s := e.Starship
		m := map[string]interface{}{
			typeName: entity.KindStarships.TypeName(),
			"id":     s.ID,
			"name":   s.Name,
			"crew":   s.Crew,
		}
		putOptional(m, "model", s.Model)
		putOptional(m, "manufacturer", s.Manufacturer)
		putOptional(m, "passengers", s.Passengers)
		return m
	default:
		return nil
	}
}

func entityValues(es []entity.Entity) []interface{} {
	out := make([]interface{}, 0, len(es))
	for _, e := range es {
		out = append(out, entityValue(e))
	}
	return out
}

func roundValue(r verdict.Round) map[string]interface{} {
	var winner interface{}
	if w, ok := r.Winner(); ok {
		winner = entityValue(w)
	}
	return map[string]interface{}{
		"entities":         entityValues(r.Entities[:]),
		"winner":           winner,
		"winningAttribute": r.WinningAttribute,
		"resourceType":     string(r.Kind),
		"outcome":          string(r.Outcome),
	}
}

func (r *resolvers) getRandomPair(p graphql.ResolveParams) (interface{}, error) {
	kind, err := kindArg(p, "")
	if err != nil {
		return nil, classify(err)
	}
	round, err := r.deps.GetRandomPair(p.Context, kind)
	if err != nil {
		return nil, classify(err)
	}
	return roundValue(round), nil
}

// getEntity resolves a missing entity to null rather than an error.
func (r *resolvers) getEntity(fixed entity.Kind) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		kind, err := kindArg(p, fixed)
		if err != nil {
			return nil, classify(err)
		}
		id, _ := p.Args["id"].(string)
		e, err := r.deps.GetEntity(p.Context, kind, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, classify(err)
		}
		return entityValue(e), nil
	}
}

func (r *resolvers) listEntities(fixed entity.Kind) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		kind, err := kindArg(p, fixed)
		if err != nil {
			return nil, classify(err)
		}
		limit, _ := p.Args["limit"].(int)
		token, _ := p.Args["nextToken"].(string)
		conn, err := r.deps.ListEntities(p.Context, kind, limit, token)
		if err != nil {
			return nil, classify(err)
		}
		var next interface{}
		if conn.HasMore() {
			next = conn.NextToken
		}
		return map[string]interface{}{
			"items":      entityValues(conn.Items),
			"nextToken":  next,
			"totalCount": conn.TotalCount,
		}, nil
	}
}

func (r *resolvers) searchEntities(p graphql.ResolveParams) (interface{}, error) {
	kind, err := kindArg(p, "")
	if err != nil {
		return nil, classify(err)
	}
	name, _ := p.Args["name"].(string)
	found, err := r.deps.SearchEntities(p.Context, kind, name)
	if err != nil {
		return nil, classify(err)
	}
	return entityValues(found), nil
}

func (r *resolvers) starshipsByManufacturer(p graphql.ResolveParams) (interface{}, error) {
	manufacturer, _ := p.Args["manufacturer"].(string)
	found, err := r.deps.StarshipsByManufacturer(p.Context, manufacturer)
	if err != nil {
		return nil, classify(err)
	}
	return entityValues(found), nil
}

func (r *resolvers) gameStats(p graphql.ResolveParams) (interface{}, error) {
	stats, err := r.deps.GameStats(p.Context)
	if err != nil {
		return nil, classify(err)
	}
	return stats, nil
}

func (r *resolvers) createEntity(kind entity.Kind) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		f, _ := fieldsArg(p)
		e, err := r.deps.CreateEntity(p.Context, kind, f)
		if err != nil {
			return nil, classify(err)
		}
		return entityValue(e), nil
	}
}

func (r *resolvers) updateEntity(kind entity.Kind) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		f, id := fieldsArg(p)
		e, err := r.deps.UpdateEntity(p.Context, kind, id, f)
		if err != nil {
			return nil, classify(err)
		}
		return entityValue(e), nil
	}
}

func (r *resolvers) deleteEntity(fixed entity.Kind) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		kind, err := kindArg(p, fixed)
		if err != nil {
			return nil, classify(err)
		}
		id, _ := p.Args["id"].(string)
		deleted, err := r.deps.DeleteEntity(p.Context, kind, id)
		if err != nil {
			return nil, classify(err)
		}
		return deleted, nil
	}
}

func (r *resolvers) seedDatabase(p graphql.ResolveParams) (interface{}, error) {
	msg, err := r.deps.SeedDatabase(p.Context)
	if err != nil {
		return nil, classify(err)
	}
	return msg, nil
}
