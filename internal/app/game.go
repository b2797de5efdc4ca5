package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/holotrumps/internal/adapters/repository"
	"github.com/okian/holotrumps/internal/domain/catalog"
	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/types"
	"github.com/okian/holotrumps/internal/domain/verdict"
	"github.com/okian/holotrumps/pkg/logger"
	"github.com/okian/holotrumps/pkg/metrics"
)

// GetRandomPair draws and resolves a round for kind.
func (s *Service) GetRandomPair(ctx context.Context, kind entity.Kind) (_ verdict.Round, err error) {
	if _, err := s.handle(); err != nil {
		return verdict.Round{}, err
	}
	round, err := s.pairing.GetRandomPair(ctx, kind)
	if err != nil {
		s.logger.Warn(ctx, "round failed", logger.String("kind", kind.String()), logger.Error(err))
		return verdict.Round{}, err
	}
	s.roundsServed.Add(1)
	s.logger.Debug(ctx, "round served",
		logger.String("kind", kind.String()),
		logger.String("left", round.Entities[0].ID()),
		logger.String("right", round.Entities[1].ID()),
		logger.String("outcome", string(round.Outcome)),
	)
	return round, nil
}

// SeedDatabase writes the sample catalog with fresh ids. Running it twice
// stores the dataset twice.
func (s *Service) SeedDatabase(ctx context.Context) (_ string, err error) {
	ctx, end := s.span(ctx, "SeedDatabase", "")
	defer end(&err)

	store, err := s.handle()
	if err != nil {
		return "", err
	}
	seeded := 0
	for _, e := range catalog.Entities() {
		switch e.Kind {
		case entity.KindPeople:
			e.Person.ID = s.newID()
		case entity.KindStarships:
			e.Starship.ID = s.newID()
		}
		if err := store.Put(ctx, s.table(e.Kind), entity.ToItem(e)); err != nil {
			return "", fmt.Errorf("seed %s %q: %w", e.Kind, e.Name(), err)
		}
		seeded++
	}

	s.logger.Info(ctx, "database seeded", logger.Int("entities", seeded))
	return catalog.SeededMessage, nil
}

// SeedIfEmpty seeds the sample catalog only when both tables are empty.
// It reports whether it seeded.
func (s *Service) SeedIfEmpty(ctx context.Context) (bool, error) {
	stats, err := s.GameStats(ctx)
	if err != nil {
		return false, err
	}
	if stats.PeopleCount > 0 || stats.StarshipsCount > 0 {
		return false, nil
	}
	if _, err := s.SeedDatabase(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// GameStats counts both tables by scanning every page.
func (s *Service) GameStats(ctx context.Context) (_ types.GameStats, err error) {
	ctx, end := s.span(ctx, "GameStats", "")
	defer end(&err)

	people, err := s.count(ctx, entity.KindPeople)
	if err != nil {
		return types.GameStats{}, err
	}
	ships, err := s.count(ctx, entity.KindStarships)
	if err != nil {
		return types.GameStats{}, err
	}
	return types.GameStats{PeopleCount: people, StarshipsCount: ships}, nil
}

func (s *Service) count(ctx context.Context, kind entity.Kind) (int, error) {
	n := 0
	err := s.scanAll(ctx, kind, func(items []repository.Item) error {
		n += len(items)
		return nil
	})
	return n, err
}

// RefreshEntityGauges publishes the current per-kind counts as metrics. It
// is run periodically by the scheduler.
func (s *Service) RefreshEntityGauges(ctx context.Context) error {
	stats, err := s.GameStats(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("service", "stats_refresh")
		return err
	}
	metrics.UpdateEntityCount(entity.KindPeople.String(), stats.PeopleCount)
	metrics.UpdateEntityCount(entity.KindStarships.String(), stats.StarshipsCount)
	metrics.UpdateStatsRefreshLastUnix(float64(time.Now().Unix()))
	return nil
}
