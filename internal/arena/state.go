package arena

import (
	"time"

	"github.com/okian/holotrumps/internal/domain/entity"
)

// State is everything the arena keeps between runs. Battles are newest
// first and capped at MaxHistory.
type State struct {
	Version    int           `json:"version"`
	Profile    PlayerProfile `json:"profile"`
	Score      Scoreboard    `json:"score"`
	Battles    []Battle      `json:"battles"`
	Mismatches int           `json:"mismatches"`
}

const stateVersion = 1

// NewState returns an empty state with a fresh profile.
func NewState(now time.Time) *State {
	return &State{
		Version: stateVersion,
		Profile: NewProfile(now),
		Battles: []Battle{},
	}
}

// Add records b in the history, the profile and the scoreboard.
func (s *State) Add(b Battle) {
	s.Battles = append([]Battle{b}, s.Battles...)
	if len(s.Battles) > MaxHistory {
		s.Battles = s.Battles[:MaxHistory]
	}
	s.Profile.record(b)
	s.Score.record(b)
	s.Profile.FavoriteKind = s.favoriteKind()
}

// Recent returns up to n of the newest battles. n <= 0 returns all.
func (s *State) Recent(n int) []Battle {
	if n <= 0 || n > len(s.Battles) {
		n = len(s.Battles)
	}
	return s.Battles[:n]
}

// ResetScore clears the scoreboard but keeps history and profile.
func (s *State) ResetScore() {
	s.Score = Scoreboard{}
}

// favoriteKind is the most played kind in the history. Equal counts go to
// the kind listed first by entity.Kinds.
func (s *State) favoriteKind() entity.Kind {
	counts := s.countByKind(false)
	best := entity.KindPeople
	for _, k := range entity.Kinds() {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

func (s *State) countByKind(winsOnly bool) map[entity.Kind]int {
	counts := make(map[entity.Kind]int, len(entity.Kinds()))
	for _, b := range s.Battles {
		if winsOnly && !b.Won {
			continue
		}
		counts[b.Kind]++
	}
	return counts
}

// Summary describes the kept history.
type Summary struct {
	TotalBattles      int                 `json:"totalBattles"`
	TotalWins         int                 `json:"totalWins"`
	WinRate           float64             `json:"winRate"`
	AverageDurationMS float64             `json:"averageBattleDurationMs"`
	FavoriteKind      entity.Kind         `json:"favoriteResource"`
	LongestWinStreak  int                 `json:"longestWinStreak"`
	BattlesByKind     map[entity.Kind]int `json:"battlesByResource"`
	WinsByKind        map[entity.Kind]int `json:"winsByResource"`
	Mismatches        int                 `json:"mismatches"`
}

const percent = 100

// Summarize computes history statistics. Totals cover the kept history
// only; the profile holds the lifetime record.
func (s *State) Summarize() Summary {
	sum := Summary{
		TotalBattles:     len(s.Battles),
		FavoriteKind:     s.favoriteKind(),
		LongestWinStreak: s.Profile.BestWinStreak,
		BattlesByKind:    s.countByKind(false),
		WinsByKind:       s.countByKind(true),
		Mismatches:       s.Mismatches,
	}
	var totalMS int64
	for _, b := range s.Battles {
		if b.Won {
			sum.TotalWins++
		}
		totalMS += b.DurationMS
	}
	if sum.TotalBattles > 0 {
		sum.WinRate = float64(sum.TotalWins) / float64(sum.TotalBattles) * percent
		sum.AverageDurationMS = float64(totalMS) / float64(sum.TotalBattles)
	}
	return sum
}
