// Package types contains read shapes shared by the service and its transports.
package types

import "github.com/okian/holotrumps/internal/domain/entity"

// Connection is one page of a list query.
type Connection struct {
	Items []entity.Entity
	// NextToken is empty on the last page.
	NextToken string
	// TotalCount is the number of items in this page, not in the table.
	TotalCount int
}

// HasMore reports whether another page may follow.
func (c Connection) HasMore() bool {
	return c.NextToken != ""
}

// GameStats holds the number of stored entities per kind.
type GameStats struct {
	PeopleCount    int `json:"peopleCount"`
	StarshipsCount int `json:"starshipsCount"`
}

// Total is the number of stored entities of every kind.
func (g GameStats) Total() int {
	return g.PeopleCount + g.StarshipsCount
}

// Count returns the stored count for kind, or zero for an unknown kind.
func (g GameStats) Count(kind entity.Kind) int {
	switch kind {
	case entity.KindPeople:
		return g.PeopleCount
	case entity.KindStarships:
		return g.StarshipsCount
	default:
		return 0
	}
}
