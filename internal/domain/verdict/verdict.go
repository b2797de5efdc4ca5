// Package verdict decides the winner of a round between two entities.
package verdict

import (
	"errors"
	"fmt"

	"github.com/okian/holotrumps/internal/domain/entity"
)

// ErrInvalidPair is returned when the two entities cannot be compared.
var ErrInvalidPair = errors.New("invalid pair")

// Side identifies a position in the pair.
type Side string

// Pair positions.
const (
	Left  Side = "LEFT"
	Right Side = "RIGHT"
)

// Outcome is the result of a comparison.
type Outcome string

// Possible outcomes. Values match the GraphQL RoundOutcome enum.
const (
	LeftWins  Outcome = "LEFT"
	RightWins Outcome = "RIGHT"
	Tie       Outcome = "TIE"
)

// Round is the resolved comparison of two entities of the same kind.
type Round struct {
	Kind             entity.Kind
	Entities         [2]entity.Entity
	Outcome          Outcome
	WinningAttribute string
}

// Winner returns the winning entity. ok is false on a tie.
func (r Round) Winner() (e entity.Entity, ok bool) {
	switch r.Outcome {
	case LeftWins:
		return r.Entities[0], true
	case RightWins:
		return r.Entities[1], true
	default:
		return entity.Entity{}, false
	}
}

// WinnerSide returns the side that won, or nil on a tie.
func (r Round) WinnerSide() *Side {
	var s Side
	switch r.Outcome {
	case LeftWins:
		s = Left
	case RightWins:
		s = Right
	default:
		return nil
	}
	return &s
}

// Resolve compares left and right on their kind's attribute. Equal values
// are a tie and produce no winner.
func Resolve(left, right entity.Entity) (Round, error) {
	if !left.Valid() || !right.Valid() {
		return Round{}, fmt.Errorf("%w: malformed entity", ErrInvalidPair)
	}
	if left.Kind != right.Kind {
		return Round{}, fmt.Errorf("%w: %s vs %s", ErrInvalidPair, left.Kind, right.Kind)
	}
	attr, err := left.Kind.Attribute()
	if err != nil {
		return Round{}, err
	}

	r := Round{
		Kind:             left.Kind,
		Entities:         [2]entity.Entity{left, right},
		WinningAttribute: attr,
	}
	lv, rv := left.Value(), right.Value()
	switch {
	case lv > rv:
		r.Outcome = LeftWins
	case rv > lv:
		r.Outcome = RightWins
	default:
		r.Outcome = Tie
	}
	return r, nil
}
