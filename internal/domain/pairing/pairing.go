// Package pairing draws two random entities of a kind and resolves the round.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/verdict"
	"github.com/okian/holotrumps/pkg/metrics"
)

// Sentinel kinds for pairing errors.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrDuplicateSample  = errors.New("source returned duplicate entities")
)

const pairSize = 2

// Source draws random distinct entities of a kind.
type Source interface {
	// RandomDistinct returns n entities with distinct ids. It must return an
	// error wrapping ErrInsufficientData when fewer than n are stored.
	RandomDistinct(ctx context.Context, kind entity.Kind, n int) ([]entity.Entity, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, kind entity.Kind, n int) ([]entity.Entity, error)

// RandomDistinct calls f.
func (f SourceFunc) RandomDistinct(ctx context.Context, kind entity.Kind, n int) ([]entity.Entity, error) {
	return f(ctx, kind, n)
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTracer sets the tracer used for round spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// Service produces rounds.
type Service struct {
	source Source
	tracer trace.Tracer
}

// NewService creates a pairing service reading from src.
func NewService(src Source, opts ...Option) *Service {
	s := &Service{
		source: src,
		tracer: noop.NewTracerProvider().Tracer("pairing"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRandomPair draws two distinct entities of kind, in the order the source
// returned them, and resolves the round. Source errors are returned as is.
func (s *Service) GetRandomPair(ctx context.Context, kind entity.Kind) (_ verdict.Round, err error) {
	ctx, span := s.tracer.Start(ctx, "pairing.GetRandomPair",
		trace.WithAttributes(attribute.String("kind", kind.String())))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !kind.Valid() {
		return verdict.Round{}, fmt.Errorf("%w: %q", entity.ErrInvalidResourceType, kind.String())
	}

	pair, err := s.source.RandomDistinct(ctx, kind, pairSize)
	if err != nil {
		return verdict.Round{}, err
	}
	if len(pair) < pairSize {
		return verdict.Round{}, fmt.Errorf("%s: got %d entities: %w", kind, len(pair), ErrInsufficientData)
	}
	if pair[0].ID() == pair[1].ID() {
		return verdict.Round{}, fmt.Errorf("%s: id %s twice: %w", kind, pair[0].ID(), ErrDuplicateSample)
	}

	round, err := verdict.Resolve(pair[0], pair[1])
	if err != nil {
		return verdict.Round{}, err
	}

	span.SetAttributes(
		attribute.String("outcome", string(round.Outcome)),
		attribute.String("left", round.Entities[0].ID()),
		attribute.String("right", round.Entities[1].ID()),
	)
	metrics.RecordRound(kind.String(), string(round.Outcome))
	metrics.RecordPairingLatency(float64(time.Since(start).Microseconds()) / 1000)
	return round, nil
}
