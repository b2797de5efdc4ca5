// Package entity models the competitive catalog entries: people and starships.
//
// An Entity is a closed tagged variant over the two kinds. Each kind competes
// on exactly one numeric attribute, fixed by the attribute table below.
package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidResourceType = errors.New("invalid resource type")
	ErrInvalidInput        = errors.New("invalid input")
)

// Kind selects the entity category and therefore its table and attribute.
type Kind string

// Supported kinds. Values match the GraphQL ResourceType enum.
const (
	KindPeople    Kind = "PEOPLE"
	KindStarships Kind = "STARSHIPS"
)

// Competitive attribute names.
const (
	AttributeMass = "mass"
	AttributeCrew = "crew"
)

// attributes is the game's only rule: which field each kind competes on.
var attributes = map[Kind]string{
	KindPeople:    AttributeMass,
	KindStarships: AttributeCrew,
}

// Kinds returns every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindPeople, KindStarships}
}

// ParseKind converts s into a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q (must be PEOPLE or STARSHIPS)", ErrInvalidResourceType, s)
	}
	return k, nil
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := attributes[k]
	return ok
}

// Attribute returns the name of the numeric field k competes on.
func (k Kind) Attribute() (string, error) {
	name, ok := attributes[k]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidResourceType, string(k))
	}
	return name, nil
}

// TypeName returns the GraphQL object type name for k.
func (k Kind) TypeName() string {
	switch k {
	case KindPeople:
		return "Person"
	case KindStarships:
		return "Starship"
	default:
		return ""
	}
}

func (k Kind) String() string { return string(k) }

// Person is a character from the people table.
type Person struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Mass      int    `json:"mass"`
	Height    string `json:"height,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Homeworld string `json:"homeworld,omitempty"`
}

// Starship is a vessel from the starships table.
type Starship struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Crew         int    `json:"crew"`
	Model        string `json:"model,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Passengers   string `json:"passengers,omitempty"`
}

// Entity is a Person or a Starship tagged with its Kind. Exactly one of the
// payload pointers is set and it always agrees with Kind.
type Entity struct {
	Kind     Kind      `json:"kind"`
	Person   *Person   `json:"person,omitempty"`
	Starship *Starship `json:"starship,omitempty"`
}

// FromPerson wraps p as an Entity.
func FromPerson(p Person) Entity {
	return Entity{Kind: KindPeople, Person: &p}
}

// FromStarship wraps s as an Entity.
func FromStarship(s Starship) Entity {
	return Entity{Kind: KindStarships, Starship: &s}
}

// Valid reports whether the tag and payload agree.
func (e Entity) Valid() bool {
	switch e.Kind {
	case KindPeople:
		return e.Person != nil && e.Starship == nil
	case KindStarships:
		return e.Starship != nil && e.Person == nil
	default:
		return false
	}
}

// ID returns the entity identifier.
func (e Entity) ID() string {
	switch {
	case e.Person != nil:
		return e.Person.ID
	case e.Starship != nil:
		return e.Starship.ID
	default:
		return ""
	}
}

// Name returns the display name.
func (e Entity) Name() string {
	switch {
	case e.Person != nil:
		return e.Person.Name
	case e.Starship != nil:
		return e.Starship.Name
	default:
		return ""
	}
}

// Value returns the competitive attribute value for the entity's kind.
func (e Entity) Value() int {
	switch e.Kind {
	case KindPeople:
		if e.Person != nil {
			return e.Person.Mass
		}
	case KindStarships:
		if e.Starship != nil {
			return e.Starship.Crew
		}
	}
	return 0
}
