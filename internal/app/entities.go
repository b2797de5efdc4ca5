package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/holotrumps/internal/adapters/repository"
	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/pagetoken"
	"github.com/okian/holotrumps/internal/domain/types"
	"github.com/okian/holotrumps/pkg/logger"
	"github.com/okian/holotrumps/pkg/metrics"
)

// GetEntity returns the entity of kind with id. Returns an error wrapping
// repository.ErrNotFound when it does not exist.
func (s *Service) GetEntity(ctx context.Context, kind entity.Kind, id string) (_ entity.Entity, err error) {
	ctx, end := s.span(ctx, "GetEntity", kind)
	defer end(&err)

	if !kind.Valid() {
		return entity.Entity{}, fmt.Errorf("%w: %q", entity.ErrInvalidResourceType, kind.String())
	}
	store, err := s.handle()
	if err != nil {
		return entity.Entity{}, err
	}
	item, err := store.Get(ctx, s.table(kind), entity.Key(id))
	if err != nil {
		return entity.Entity{}, err
	}
	return entity.FromItem(kind, item)
}

// ListEntities returns a page of entities. limit <= 0 uses the default and
// larger values are capped at the configured maximum.
func (s *Service) ListEntities(ctx context.Context, kind entity.Kind, limit int, token string) (_ types.Connection, err error) {
	ctx, end := s.span(ctx, "ListEntities", kind)
	defer end(&err)

	if !kind.Valid() {
		return types.Connection{}, fmt.Errorf("%w: %q", entity.ErrInvalidResourceType, kind.String())
	}
	start, err := pagetoken.Decode(token)
	if err != nil {
		return types.Connection{}, err
	}
	if start != nil {
		if _, kerr := repository.KeyID(start); kerr != nil {
			return types.Connection{}, fmt.Errorf("%w: %w", pagetoken.ErrInvalidToken, kerr)
		}
	}
	store, err := s.handle()
	if err != nil {
		return types.Connection{}, err
	}

	page, err := store.Scan(ctx, s.table(kind), repository.ScanInput{
		Limit:    s.clampLimit(limit),
		StartKey: start,
	})
	if err != nil {
		return types.Connection{}, err
	}
	items, err := entity.FromItems(kind, page.Items)
	if err != nil {
		return types.Connection{}, err
	}
	next, err := pagetoken.Encode(page.LastKey)
	if err != nil {
		return types.Connection{}, err
	}

	s.logger.Debug(ctx, "listed entities",
		logger.String("kind", kind.String()),
		logger.Int("count", page.Count),
		logger.Bool("more", next != ""),
	)
	return types.Connection{Items: items, NextToken: next, TotalCount: page.Count}, nil
}

func (s *Service) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.defaultLimit
	case limit > s.maxLimit:
		return s.maxLimit
	default:
		return limit
	}
}

// SearchEntities returns every entity of kind whose name contains name,
// ignoring case. An empty name matches everything.
func (s *Service) SearchEntities(ctx context.Context, kind entity.Kind, name string) (_ []entity.Entity, err error) {
	ctx, end := s.span(ctx, "SearchEntities", kind)
	defer end(&err)

	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidResourceType, kind.String())
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	return s.filter(ctx, kind, func(e entity.Entity) bool {
		return strings.Contains(strings.ToLower(e.Name()), needle)
	})
}

// StarshipsByManufacturer returns starships whose manufacturer contains
// manufacturer, ignoring case.
func (s *Service) StarshipsByManufacturer(ctx context.Context, manufacturer string) (_ []entity.Entity, err error) {
	ctx, end := s.span(ctx, "StarshipsByManufacturer", entity.KindStarships)
	defer end(&err)

	needle := strings.ToLower(strings.TrimSpace(manufacturer))
	return s.filter(ctx, entity.KindStarships, func(e entity.Entity) bool {
		return strings.Contains(strings.ToLower(e.Starship.Manufacturer), needle)
	})
}

// filter scans the whole table of kind and keeps entities matching keep.
func (s *Service) filter(ctx context.Context, kind entity.Kind, keep func(entity.Entity) bool) ([]entity.Entity, error) {
	out := []entity.Entity{}
	err := s.scanAll(ctx, kind, func(items []repository.Item) error {
		batch, err := entity.FromItems(kind, items)
		if err != nil {
			return err
		}
		for _, e := range batch {
			if keep(e) {
				out = append(out, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// scanAll walks every page of kind's table.
func (s *Service) scanAll(ctx context.Context, kind entity.Kind, fn func([]repository.Item) error) error {
	store, err := s.handle()
	if err != nil {
		return err
	}
	var start repository.Key
	for {
		page, err := store.Scan(ctx, s.table(kind), repository.ScanInput{StartKey: start})
		if err != nil {
			return err
		}
		if err := fn(page.Items); err != nil {
			return err
		}
		if page.LastKey == nil {
			return nil
		}
		start = page.LastKey
	}
}

// CreateEntity stores a new entity of kind with a fresh id.
func (s *Service) CreateEntity(ctx context.Context, kind entity.Kind, f entity.Fields) (_ entity.Entity, err error) {
	ctx, end := s.span(ctx, "CreateEntity", kind)
	defer end(&err)

	e, err := entity.New(kind, s.newID(), f)
	if err != nil {
		return entity.Entity{}, err
	}
	store, err := s.handle()
	if err != nil {
		return entity.Entity{}, err
	}
	if err := store.Put(ctx, s.table(kind), entity.ToItem(e)); err != nil {
		return entity.Entity{}, err
	}

	metrics.RecordEntityMutation(kind.String(), "create")
	s.logger.Debug(ctx, "entity created", logger.String("kind", kind.String()), logger.String("id", e.ID()))
	return e, nil
}

// UpdateEntity applies the supplied fields to an existing entity and returns
// the result. Fields left nil are untouched. No fields returns the entity
// as stored.
func (s *Service) UpdateEntity(ctx context.Context, kind entity.Kind, id string, f entity.Fields) (_ entity.Entity, err error) {
	ctx, end := s.span(ctx, "UpdateEntity", kind)
	defer end(&err)

	set, remove, err := f.Changes(kind)
	if err != nil {
		return entity.Entity{}, err
	}
	if len(set) == 0 && len(remove) == 0 {
		return s.GetEntity(ctx, kind, id)
	}
	store, err := s.handle()
	if err != nil {
		return entity.Entity{}, err
	}
	item, err := store.Update(ctx, s.table(kind), entity.Key(id), set, remove)
	if err != nil {
		return entity.Entity{}, err
	}

	metrics.RecordEntityMutation(kind.String(), "update")
	s.logger.Debug(ctx, "entity updated",
		logger.String("kind", kind.String()),
		logger.String("id", id),
		logger.Int("set", len(set)),
		logger.Int("removed", len(remove)),
	)
	return entity.FromItem(kind, item)
}

// DeleteEntity removes the entity of kind with id and returns the id. A
// missing entity is reported as not found.
func (s *Service) DeleteEntity(ctx context.Context, kind entity.Kind, id string) (_ string, err error) {
	ctx, end := s.span(ctx, "DeleteEntity", kind)
	defer end(&err)

	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", entity.ErrInvalidResourceType, kind.String())
	}
	store, err := s.handle()
	if err != nil {
		return "", err
	}
	key := entity.Key(id)
	if _, err := store.Get(ctx, s.table(kind), key); err != nil {
		return "", err
	}
	if err := store.Delete(ctx, s.table(kind), key); err != nil {
		return "", err
	}

	metrics.RecordEntityMutation(kind.String(), "delete")
	s.logger.Debug(ctx, "entity deleted", logger.String("kind", kind.String()), logger.String("id", id))
	return id, nil
}
