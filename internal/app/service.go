// Package service provides the core business service that implements
// the dependencies required by the GraphQL API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/okian/holotrumps/internal/adapters/repository"
	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/pairing"
	"github.com/okian/holotrumps/pkg/logger"
)

// ErrNotStarted is returned by operations invoked before Start.
var ErrNotStarted = errors.New("service not started")

// Default service configuration constants.
const (
	defaultPeopleTable    = "people"
	defaultStarshipsTable = "starships"
	defaultListLimit      = 20
	defaultMaxListLimit   = 100
)

// StoreOpener builds the entity store on Start.
type StoreOpener func(ctx context.Context) (repository.Store, error)

// storeSource adapts the entity store to pairing.Source.
type storeSource struct {
	svc *Service
}

func (a storeSource) RandomDistinct(ctx context.Context, kind entity.Kind, n int) ([]entity.Entity, error) {
	store, err := a.svc.handle()
	if err != nil {
		return nil, err
	}
	items, err := store.RandomDistinct(ctx, a.svc.table(kind), n)
	if errors.Is(err, repository.ErrInsufficientItems) {
		return nil, fmt.Errorf("%w: %w", pairing.ErrInsufficientData, err)
	}
	if err != nil {
		return nil, err
	}
	return entity.FromItems(kind, items)
}

// Service implements the API dependencies for the game.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	pairing *pairing.Service

	// Configuration
	backend        string
	opener         StoreOpener
	peopleTable    string
	starshipsTable string
	defaultLimit   int
	maxLimit       int
	storeSeed      uint64
	newID          func() string

	// State
	started      bool
	roundsServed atomic.Int64

	// Observability
	logger logger.Logger
	tracer trace.Tracer
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore uses an already opened store. backend names it in stats.
func WithStore(store repository.Store, backend string) Option {
	return func(s *Service) {
		if store != nil {
			s.opener = func(context.Context) (repository.Store, error) { return store, nil }
			s.backend = backend
		}
	}
}

// WithStoreOpener defers store construction to Start.
func WithStoreOpener(backend string, open StoreOpener) Option {
	return func(s *Service) {
		if open != nil {
			s.opener = open
			s.backend = backend
		}
	}
}

// WithTables sets the people and starships table names.
func WithTables(people, starships string) Option {
	return func(s *Service) {
		if people != "" {
			s.peopleTable = people
		}
		if starships != "" {
			s.starshipsTable = starships
		}
	}
}

// WithListLimits sets the default and maximum page size for list queries.
func WithListLimits(def, maxLimit int) Option {
	return func(s *Service) {
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
		if def > 0 {
			s.defaultLimit = def
		}
		if s.defaultLimit > s.maxLimit {
			s.defaultLimit = s.maxLimit
		}
	}
}

// WithMemorySeed makes the default in-memory store deterministic.
func WithMemorySeed(seed uint64) Option {
	return func(s *Service) {
		s.storeSeed = seed
	}
}

// WithIDGenerator overrides UUID generation for new entities.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		backend:        "memory",
		peopleTable:    defaultPeopleTable,
		starshipsTable: defaultStarshipsTable,
		defaultLimit:   defaultListLimit,
		maxLimit:       defaultMaxListLimit,
		newID:          uuid.NewString,
		logger:         nil, // Will be replaced when service starts
		tracer:         noop.NewTracerProvider().Tracer("service"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store and wires the domain services. It is safe to call
// more than once; only the first call has an effect.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting game service...", logger.String("backend", s.backend))

	if s.opener == nil {
		s.opener = s.openMemory
	}
	store, err := s.opener(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to open store", logger.String("backend", s.backend), logger.Error(err))
		return fmt.Errorf("open %s store: %w", s.backend, err)
	}
	s.store = store
	s.pairing = pairing.NewService(storeSource{svc: s}, pairing.WithTracer(s.tracer))

	s.started = true
	s.logger.Info(ctx, "game service started",
		logger.String("backend", s.backend),
		logger.String("peopleTable", s.peopleTable),
		logger.String("starshipsTable", s.starshipsTable),
		logger.Int("defaultListLimit", s.defaultLimit),
		logger.Int("maxListLimit", s.maxLimit),
	)

	return nil
}

func (s *Service) openMemory(ctx context.Context) (repository.Store, error) {
	opts := []repository.Option{repository.WithTables(s.peopleTable, s.starshipsTable)}
	if s.storeSeed != 0 {
		opts = append(opts, repository.WithSeed(s.storeSeed))
	}
	return repository.NewTreapStore(context.WithoutCancel(ctx), opts...), nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping game service...")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "store close failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "game service stopped")
}

// handle returns the single store handle opened by Start.
func (s *Service) handle() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// table maps a kind to its configured table name.
func (s *Service) table(kind entity.Kind) string {
	if kind == entity.KindStarships {
		return s.starshipsTable
	}
	return s.peopleTable
}

// span starts an operation span; the returned func ends it and records err.
func (s *Service) span(ctx context.Context, op string, kind entity.Kind) (context.Context, func(*error)) {
	ctx, sp := s.tracer.Start(ctx, "service."+op)
	if kind != "" {
		sp.SetAttributes(attribute.String("kind", kind.String()))
	}
	start := time.Now()
	return ctx, func(errp *error) {
		if errp != nil && *errp != nil {
			sp.RecordError(*errp)
			sp.SetStatus(codes.Error, (*errp).Error())
			if s.logger == nil {
				sp.End()
				return
			}
			s.logger.Debug(ctx, op+" failed",
				logger.String("kind", kind.String()),
				logger.Duration("took", time.Since(start)),
				logger.Error(*errp),
			)
		}
		sp.End()
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"started":          s.started,
		"backend":          s.backend,
		"peopleTable":      s.peopleTable,
		"starshipsTable":   s.starshipsTable,
		"defaultListLimit": s.defaultLimit,
		"maxListLimit":     s.maxLimit,
		"roundsServed":     s.roundsServed.Load(),
	}
}
