package entity

import (
	"fmt"
	"strings"
)

// Fields carries user-supplied attribute values for create and update.
//
// A nil pointer means "not supplied". On update, an optional string supplied
// as "" removes the attribute; name cannot be cleared.
type Fields struct {
	Name *string

	// People only.
	Mass      *int
	Height    *string
	Gender    *string
	Homeworld *string

	// Starships only.
	Crew         *int
	Model        *string
	Manufacturer *string
	Passengers   *string
}

// Empty reports whether no field was supplied.
func (f Fields) Empty() bool {
	return f.Name == nil &&
		f.Mass == nil && f.Height == nil && f.Gender == nil && f.Homeworld == nil &&
		f.Crew == nil && f.Model == nil && f.Manufacturer == nil && f.Passengers == nil
}

// validate rejects fields that do not belong to kind, an empty name and
// negative competitive values.
func (f Fields) validate(kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidResourceType, string(kind))
	}
	if f.Name != nil && strings.TrimSpace(*f.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	switch kind {
	case KindPeople:
		if f.Crew != nil || f.Model != nil || f.Manufacturer != nil || f.Passengers != nil {
			return fmt.Errorf("%w: starship fields supplied for a person", ErrInvalidInput)
		}
		if f.Mass != nil && *f.Mass < 0 {
			return fmt.Errorf("%w: mass must not be negative", ErrInvalidInput)
		}
	case KindStarships:
		if f.Mass != nil || f.Height != nil || f.Gender != nil || f.Homeworld != nil {
			return fmt.Errorf("%w: person fields supplied for a starship", ErrInvalidInput)
		}
		if f.Crew != nil && *f.Crew < 0 {
			return fmt.Errorf("%w: crew must not be negative", ErrInvalidInput)
		}
	}
	return nil
}

// New builds an entity of kind with id from f. Name and the competitive
// attribute are required.
func New(kind Kind, id string, f Fields) (Entity, error) {
	if err := f.validate(kind); err != nil {
		return Entity{}, err
	}
	if f.Name == nil {
		return Entity{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	switch kind {
	case KindPeople:
		if f.Mass == nil {
			return Entity{}, fmt.Errorf("%w: mass is required", ErrInvalidInput)
		}
		return FromPerson(Person{
			ID:        id,
			Name:      strings.TrimSpace(*f.Name),
			Mass:      *f.Mass,
			Height:    deref(f.Height),
			Gender:    deref(f.Gender),
			Homeworld: deref(f.Homeworld),
		}), nil
	default:
		if f.Crew == nil {
			return Entity{}, fmt.Errorf("%w: crew is required", ErrInvalidInput)
		}
		return FromStarship(Starship{
			ID:           id,
			Name:         strings.TrimSpace(*f.Name),
			Crew:         *f.Crew,
			Model:        deref(f.Model),
			Manufacturer: deref(f.Manufacturer),
			Passengers:   deref(f.Passengers),
		}), nil
	}
}

// Changes translates f into store attribute assignments and removals for kind.
func (f Fields) Changes(kind Kind) (set map[string]any, remove []string, err error) {
	if err := f.validate(kind); err != nil {
		return nil, nil, err
	}
	set = make(map[string]any)
	if f.Name != nil {
		set[attrName] = strings.TrimSpace(*f.Name)
	}
	if f.Mass != nil {
		set[AttributeMass] = *f.Mass
	}
	if f.Crew != nil {
		set[AttributeCrew] = *f.Crew
	}
	optional := []struct {
		name string
		val  *string
	}{
		{attrHeight, f.Height},
		{attrGender, f.Gender},
		{attrHomeworld, f.Homeworld},
		{attrModel, f.Model},
		{attrManufacturer, f.Manufacturer},
		{attrPassengers, f.Passengers},
	}
	for _, o := range optional {
		if o.val == nil {
			continue
		}
		if *o.val == "" {
			remove = append(remove, o.name)
			continue
		}
		set[o.name] = *o.val
	}
	return set, remove, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
