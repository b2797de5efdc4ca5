// Package catalog holds the fixed sample dataset used to seed an empty store.
package catalog

import "github.com/okian/holotrumps/internal/domain/entity"

// SeededMessage is returned once the sample dataset has been written.
const SeededMessage = "Database seeded successfully!"

// People returns the sample characters. IDs are left empty for the caller
// to assign.
func People() []entity.Person {
	return []entity.Person{
		{Name: "Luke Skywalker", Mass: 77, Height: "172", Gender: "male", Homeworld: "Tatooine"},
		{Name: "Darth Vader", Mass: 136, Height: "202", Gender: "male", Homeworld: "Tatooine"},
		{Name: "Leia Organa", Mass: 49, Height: "150", Gender: "female", Homeworld: "Alderaan"},
		{Name: "Obi-Wan Kenobi", Mass: 77, Height: "182", Gender: "male", Homeworld: "Stewjon"},
		{Name: "Yoda", Mass: 17, Height: "66", Gender: "male", Homeworld: "Dagobah"},
	}
}

// Starships returns the sample vessels. IDs are left empty for the caller
// to assign.
func Starships() []entity.Starship {
	return []entity.Starship{
		{Name: "Millennium Falcon", Crew: 4, Model: "YT-1300 light freighter", Manufacturer: "Corellian Engineering Corporation", Passengers: "6"},
		{Name: "X-wing", Crew: 1, Model: "T-65 X-wing", Manufacturer: "Incom Corporation", Passengers: "0"},
		{Name: "Imperial Star Destroyer", Crew: 47060, Model: "Imperial I-class Star Destroyer", Manufacturer: "Kuat Drive Yards", Passengers: "0"},
		{Name: "Death Star", Crew: 342953, Model: "DS-1 Orbital Battle Station", Manufacturer: "Imperial Department of Military Research", Passengers: "843342"},
		{Name: "TIE Fighter", Crew: 1, Model: "Twin Ion Engine Fighter", Manufacturer: "Sienar Fleet Systems", Passengers: "0"},
	}
}

// Entities returns the whole dataset as entities, people first.
func Entities() []entity.Entity {
	people, ships := People(), Starships()
	out := make([]entity.Entity, 0, len(people)+len(ships))
	for _, p := range people {
		out = append(out, entity.FromPerson(p))
	}
	for _, s := range ships {
		out = append(out, entity.FromStarship(s))
	}
	return out
}
