package arena

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/verdict"
)

// ErrInvalidPick is returned for a pick other than left, right or random.
var ErrInvalidPick = errors.New("invalid pick")

// Pick is the side the player bets on.
type Pick string

// Picks accepted on the command line.
const (
	PickLeft   Pick = "left"
	PickRight  Pick = "right"
	PickRandom Pick = "random"
)

// ParsePick parses s case-insensitively.
func ParsePick(s string) (Pick, error) {
	switch p := Pick(strings.ToLower(strings.TrimSpace(s))); p {
	case PickLeft, PickRight, PickRandom:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPick, s)
	}
}

// Side maps a concrete pick to its verdict side. Random has no side.
func (p Pick) Side() (verdict.Side, bool) {
	switch p {
	case PickLeft:
		return verdict.Left, true
	case PickRight:
		return verdict.Right, true
	default:
		return "", false
	}
}

// Battle is one played round as kept in the local history.
type Battle struct {
	ID               string         `json:"id"`
	Timestamp        time.Time      `json:"timestamp"`
	Kind             entity.Kind    `json:"resourceType"`
	Left             entity.Entity  `json:"left"`
	Right            entity.Entity  `json:"right"`
	Winner           *entity.Entity `json:"winner"`
	WinnerPosition   *verdict.Side  `json:"winnerPosition"`
	WinningAttribute string         `json:"winningAttribute"`
	Pick             verdict.Side   `json:"pick"`
	Won              bool           `json:"won"`
	DurationMS       int64          `json:"durationMs"`
}

// NewBattle records round as played at now. The player wins when the side
// they picked won; a tie is never a win.
func NewBattle(round verdict.Round, pick verdict.Side, took time.Duration, now time.Time) Battle {
	b := Battle{
		ID:               uuid.NewString(),
		Timestamp:        now.UTC(),
		Kind:             round.Kind,
		Left:             round.Entities[0],
		Right:            round.Entities[1],
		WinnerPosition:   round.WinnerSide(),
		WinningAttribute: round.WinningAttribute,
		Pick:             pick,
		DurationMS:       took.Milliseconds(),
	}
	if w, ok := round.Winner(); ok {
		b.Winner = &w
	}
	b.Won = b.WinnerPosition != nil && *b.WinnerPosition == pick
	return b
}

// Tie reports whether the battle had no winner.
func (b Battle) Tie() bool { return b.WinnerPosition == nil }

// PlayerProfile accumulates the player's record across sessions.
type PlayerProfile struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	CreatedAt     time.Time   `json:"createdAt"`
	FavoriteKind  entity.Kind `json:"favoriteResource"`
	TotalBattles  int         `json:"totalBattles"`
	Wins          int         `json:"wins"`
	WinStreak     int         `json:"winStreak"`
	BestWinStreak int         `json:"bestWinStreak"`
}

const defaultPlayerName = "Padawan"

// NewProfile returns a fresh profile created at now.
func NewProfile(now time.Time) PlayerProfile {
	return PlayerProfile{
		ID:           uuid.NewString(),
		Name:         defaultPlayerName,
		CreatedAt:    now.UTC(),
		FavoriteKind: entity.KindPeople,
	}
}

func (p *PlayerProfile) record(b Battle) {
	p.TotalBattles++
	if !b.Won {
		p.WinStreak = 0
		return
	}
	p.Wins++
	p.WinStreak++
	if p.WinStreak > p.BestWinStreak {
		p.BestWinStreak = p.WinStreak
	}
}

// Scoreboard counts which side won each round of the session.
type Scoreboard struct {
	Left  int `json:"left"`
	Right int `json:"right"`
	Ties  int `json:"ties"`
}

func (s *Scoreboard) record(b Battle) {
	switch {
	case b.WinnerPosition == nil:
		s.Ties++
	case *b.WinnerPosition == verdict.Left:
		s.Left++
	default:
		s.Right++
	}
}

// Total is the number of rounds on the board.
func (s Scoreboard) Total() int { return s.Left + s.Right + s.Ties }
