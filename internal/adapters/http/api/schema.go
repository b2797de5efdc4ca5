package api

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/verdict"
)

// typeName is the map key carrying the concrete GraphQL type of an entity.
const typeName = "__typename"

// NewSchema builds the executable GraphQL schema over deps.
func NewSchema(deps Dependencies) (graphql.Schema, error) {
	r := &resolvers{deps: deps}

	resourceType := graphql.NewEnum(graphql.EnumConfig{
		Name:        "ResourceType",
		Description: "The kind of entity a round is played with.",
		Values: graphql.EnumValueConfigMap{
			string(entity.KindPeople):    &graphql.EnumValueConfig{Value: string(entity.KindPeople)},
			string(entity.KindStarships): &graphql.EnumValueConfig{Value: string(entity.KindStarships)},
		},
	})

	roundOutcome := graphql.NewEnum(graphql.EnumConfig{
		Name: "RoundOutcome",
		Values: graphql.EnumValueConfigMap{
			string(verdict.LeftWins):  &graphql.EnumValueConfig{Value: string(verdict.LeftWins)},
			string(verdict.RightWins): &graphql.EnumValueConfig{Value: string(verdict.RightWins)},
			string(verdict.Tie):       &graphql.EnumValueConfig{Value: string(verdict.Tie)},
		},
	})

	person := graphql.NewObject(graphql.ObjectConfig{
		Name: entity.KindPeople.TypeName(),
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"mass":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"height":    &graphql.Field{Type: graphql.String},
			"gender":    &graphql.Field{Type: graphql.String},
			"homeworld": &graphql.Field{Type: graphql.String},
		},
	})

	starship := graphql.NewObject(graphql.ObjectConfig{
		Name: entity.KindStarships.TypeName(),
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"crew":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"model":        &graphql.Field{Type: graphql.String},
			"manufacturer": &graphql.Field{Type: graphql.String},
			"passengers":   &graphql.Field{Type: graphql.String},
		},
	})

	gameEntity := graphql.NewUnion(graphql.UnionConfig{
		Name:  "GameEntity",
		Types: []*graphql.Object{person, starship},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			m, _ := p.Value.(map[string]interface{})
			switch m[typeName] {
			case person.Name():
				return person
			case starship.Name():
				return starship
			default:
				return nil
			}
		},
	})

	gameRound := graphql.NewObject(graphql.ObjectConfig{
		Name: "GameRound",
		Fields: graphql.Fields{
			"entities":         &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(gameEntity)))},
			"winner":           &graphql.Field{Type: gameEntity},
			"winningAttribute": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"resourceType":     &graphql.Field{Type: graphql.NewNonNull(resourceType)},
			"outcome":          &graphql.Field{Type: graphql.NewNonNull(roundOutcome)},
		},
	})

	gameStats := graphql.NewObject(graphql.ObjectConfig{
		Name: "GameStats",
		Fields: graphql.Fields{
			"peopleCount":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"starshipsCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	connection := func(name string, item graphql.Output) *graphql.Object {
		return graphql.NewObject(graphql.ObjectConfig{
			Name: name,
			Fields: graphql.Fields{
				"items":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(item)))},
				"nextToken":  &graphql.Field{Type: graphql.String},
				"totalCount": &graphql.Field{Type: graphql.Int},
			},
		})
	}
	entityConnection := connection("EntityConnection", gameEntity)
	peopleConnection := connection("PeopleConnection", person)
	starshipConnection := connection("StarshipConnection", starship)

	optionalString := func(desc string) *graphql.InputObjectFieldConfig {
		return &graphql.InputObjectFieldConfig{Type: graphql.String, Description: desc}
	}
	const removeHint = "An empty string removes the value."

	createPersonInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreatePersonInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"mass":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"height":    optionalString(""),
			"gender":    optionalString(""),
			"homeworld": optionalString(""),
		},
	})
	updatePersonInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdatePersonInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
			"name":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"mass":      &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"height":    optionalString(removeHint),
			"gender":    optionalString(removeHint),
			"homeworld": optionalString(removeHint),
		},
	})
	createStarshipInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateStarshipInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"crew":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"model":        optionalString(""),
			"manufacturer": optionalString(""),
			"passengers":   optionalString(""),
		},
	})
	updateStarshipInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateStarshipInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":           &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
			"name":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"crew":         &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"model":        optionalString(removeHint),
			"manufacturer": optionalString(removeHint),
			"passengers":   optionalString(removeHint),
		},
	})

	resourceArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(resourceType)}
	idArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}
	pageArgs := graphql.FieldConfigArgument{
		"limit":     &graphql.ArgumentConfig{Type: graphql.Int},
		"nextToken": &graphql.ArgumentConfig{Type: graphql.String},
	}
	kindPageArgs := graphql.FieldConfigArgument{
		"resource":  resourceArg,
		"limit":     pageArgs["limit"],
		"nextToken": pageArgs["nextToken"],
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"getRandomPair": &graphql.Field{
				Type:    graphql.NewNonNull(gameRound),
				Args:    graphql.FieldConfigArgument{"resource": resourceArg},
				Resolve: r.getRandomPair,
			},
			"getEntity": &graphql.Field{
				Type:    gameEntity,
				Args:    graphql.FieldConfigArgument{"resource": resourceArg, "id": idArg},
				Resolve: r.getEntity(""),
			},
			"getPerson": &graphql.Field{
				Type:    person,
				Args:    graphql.FieldConfigArgument{"id": idArg},
				Resolve: r.getEntity(entity.KindPeople),
			},
			"getStarship": &graphql.Field{
				Type:    starship,
				Args:    graphql.FieldConfigArgument{"id": idArg},
				Resolve: r.getEntity(entity.KindStarships),
			},
			"listEntities": &graphql.Field{
				Type:    graphql.NewNonNull(entityConnection),
				Args:    kindPageArgs,
				Resolve: r.listEntities(""),
			},
			"listPeople": &graphql.Field{
				Type:    graphql.NewNonNull(peopleConnection),
				Args:    pageArgs,
				Resolve: r.listEntities(entity.KindPeople),
			},
			"listStarships": &graphql.Field{
				Type:    graphql.NewNonNull(starshipConnection),
				Args:    pageArgs,
				Resolve: r.listEntities(entity.KindStarships),
			},
			"searchEntities": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(gameEntity))),
				Args: graphql.FieldConfigArgument{
					"resource": resourceArg,
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.searchEntities,
			},
			"starshipsByManufacturer": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(starship))),
				Args: graphql.FieldConfigArgument{
					"manufacturer": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.starshipsByManufacturer,
			},
			"gameStats": &graphql.Field{
				Type:    graphql.NewNonNull(gameStats),
				Resolve: r.gameStats,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createPerson": &graphql.Field{
				Type:    graphql.NewNonNull(person),
				Args:    graphql.FieldConfigArgument{"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createPersonInput)}},
				Resolve: r.createEntity(entity.KindPeople),
			},
			"createStarship": &graphql.Field{
				Type:    graphql.NewNonNull(starship),
				Args:    graphql.FieldConfigArgument{"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createStarshipInput)}},
				Resolve: r.createEntity(entity.KindStarships),
			},
			"updatePerson": &graphql.Field{
				Type:    graphql.NewNonNull(person),
				Args:    graphql.FieldConfigArgument{"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updatePersonInput)}},
				Resolve: r.updateEntity(entity.KindPeople),
			},
			"updateStarship": &graphql.Field{
				Type:    graphql.NewNonNull(starship),
				Args:    graphql.FieldConfigArgument{"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateStarshipInput)}},
				Resolve: r.updateEntity(entity.KindStarships),
			},
			"deleteEntity": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.ID),
				Args:    graphql.FieldConfigArgument{"resource": resourceArg, "id": idArg},
				Resolve: r.deleteEntity(""),
			},
			"deletePerson": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.ID),
				Args:    graphql.FieldConfigArgument{"id": idArg},
				Resolve: r.deleteEntity(entity.KindPeople),
			},
			"deleteStarship": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.ID),
				Args:    graphql.FieldConfigArgument{"id": idArg},
				Resolve: r.deleteEntity(entity.KindStarships),
			},
			"seedDatabase": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.String),
				Resolve: r.seedDatabase,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("build graphql schema: %w", err)
	}
	return schema, nil
}
