package entity

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Stored attribute names.
const (
	AttrID           = "id"
	attrName         = "name"
	attrHeight       = "height"
	attrGender       = "gender"
	attrHomeworld    = "homeworld"
	attrModel        = "model"
	attrManufacturer = "manufacturer"
	attrPassengers   = "passengers"
)

// Key returns the store key for id.
func Key(id string) map[string]any {
	return map[string]any{AttrID: id}
}

// ToItem flattens e into a store record. Empty optional strings are omitted.
func ToItem(e Entity) map[string]any {
	item := make(map[string]any, 6)
	put := func(k, v string) {
		if v != "" {
			item[k] = v
		}
	}
	switch {
	case e.Person != nil:
		p := e.Person
		item[AttrID] = p.ID
		item[attrName] = p.Name
		item[AttributeMass] = p.Mass
		put(attrHeight, p.Height)
		put(attrGender, p.Gender)
		put(attrHomeworld, p.Homeworld)
	case e.Starship != nil:
		s := e.Starship
		item[AttrID] = s.ID
		item[attrName] = s.Name
		item[AttributeCrew] = s.Crew
		put(attrModel, s.Model)
		put(attrManufacturer, s.Manufacturer)
		put(attrPassengers, s.Passengers)
	}
	return item
}

// FromItem decodes a store record of the given kind.
func FromItem(kind Kind, item map[string]any) (Entity, error) {
	if item == nil {
		return Entity{}, fmt.Errorf("decode %s: nil item", kind)
	}
	id := stringAttr(item, AttrID)
	if id == "" {
		return Entity{}, fmt.Errorf("decode %s: missing id", kind)
	}
	switch kind {
	case KindPeople:
		mass, err := intAttr(item, AttributeMass)
		if err != nil {
			return Entity{}, fmt.Errorf("decode person %s: %w", id, err)
		}
		return FromPerson(Person{
			ID:        id,
			Name:      stringAttr(item, attrName),
			Mass:      mass,
			Height:    stringAttr(item, attrHeight),
			Gender:    stringAttr(item, attrGender),
			Homeworld: stringAttr(item, attrHomeworld),
		}), nil
	case KindStarships:
		crew, err := intAttr(item, AttributeCrew)
		if err != nil {
			return Entity{}, fmt.Errorf("decode starship %s: %w", id, err)
		}
		return FromStarship(Starship{
			ID:           id,
			Name:         stringAttr(item, attrName),
			Crew:         crew,
			Model:        stringAttr(item, attrModel),
			Manufacturer: stringAttr(item, attrManufacturer),
			Passengers:   stringAttr(item, attrPassengers),
		}), nil
	default:
		return Entity{}, fmt.Errorf("%w: %q", ErrInvalidResourceType, string(kind))
	}
}

// FromItems decodes a batch of records of the same kind.
func FromItems(kind Kind, items []map[string]any) ([]Entity, error) {
	out := make([]Entity, 0, len(items))
	for _, it := range items {
		e, err := FromItem(kind, it)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func stringAttr(item map[string]any, name string) string {
	switch v := item[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// intAttr reads a numeric attribute. Backends hand numbers back as int,
// int64, float64 or json.Number depending on their codec.
func intAttr(item map[string]any, name string) (int, error) {
	switch v := item[name].(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("attribute %s: non-integer value %v", name, v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("attribute %s: %w", name, err)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("attribute %s: %w", name, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("attribute %s: missing", name)
	default:
		return 0, fmt.Errorf("attribute %s: unsupported type %T", name, v)
	}
}
