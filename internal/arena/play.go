package arena

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/verdict"
	"github.com/okian/holotrumps/pkg/logger"
)

// Sentinel kinds for play errors.
var (
	ErrInvalidResource = errors.New("invalid resource")
	ErrMismatch        = errors.New("server verdict disagrees with local verdict")
	ErrNoRounds        = errors.New("no round could be played")
)

// ResourceRandom draws a kind per round.
const ResourceRandom = "RANDOM"

// Worker configuration constants.
const (
	defaultWorkers          = 4
	workerChannelMultiplier = 2
	progressInterval        = time.Second
)

// RoundSource serves rounds as resolved by the server.
type RoundSource interface {
	RandomPair(ctx context.Context, kind entity.Kind) (verdict.Round, error)
}

// PlayConfig describes one play session.
type PlayConfig struct {
	Resource string // PEOPLE, STARSHIPS or RANDOM
	Rounds   int
	Pick     Pick
	Workers  int
}

// Validate normalizes and checks c.
func (c *PlayConfig) Validate() error {
	c.Resource = strings.ToUpper(strings.TrimSpace(c.Resource))
	if c.Resource == "" {
		c.Resource = entity.KindPeople.String()
	}
	if c.Resource != ResourceRandom {
		if _, err := entity.ParseKind(c.Resource); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidResource, c.Resource)
		}
	}
	if c.Rounds < 1 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	if c.Pick == "" {
		c.Pick = PickRandom
	}
	pick, err := ParsePick(string(c.Pick))
	if err != nil {
		return err
	}
	c.Pick = pick
	if c.Workers < 1 {
		c.Workers = min(defaultWorkers, runtime.NumCPU())
	}
	if c.Workers > c.Rounds {
		c.Workers = c.Rounds
	}
	return nil
}

// Report summarizes a play session.
type Report struct {
	Played     int
	Failed     int
	Wins       int
	Mismatches int
	Score      Scoreboard
	Duration   time.Duration
	FirstError error
}

// Player plays rounds concurrently and folds the results into a State.
type Player struct {
	source  RoundSource
	verbose bool
	now     func() time.Time
	mu      sync.Mutex
	rng     *rand.Rand
	logger  logger.Logger
}

// PlayerOption applies a configuration option to the Player.
type PlayerOption func(*Player)

// WithSeed makes kind and side draws deterministic.
func WithSeed(seed uint64) PlayerOption {
	return func(p *Player) {
		p.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithVerbose logs every round.
func WithVerbose(v bool) PlayerOption {
	return func(p *Player) { p.verbose = v }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) PlayerOption {
	return func(p *Player) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPlayer creates a player drawing rounds from source.
func NewPlayer(source RoundSource, opts ...PlayerOption) *Player {
	p := &Player{
		source: source,
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger: logger.Get().Named("arena"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Verify re-resolves round locally and fails with ErrMismatch when the
// server's outcome or attribute differ. It returns the local round.
func Verify(round verdict.Round) (verdict.Round, error) {
	local, err := verdict.Resolve(round.Entities[0], round.Entities[1])
	if err != nil {
		return verdict.Round{}, err
	}
	if local.Outcome != round.Outcome || local.WinningAttribute != round.WinningAttribute || local.Kind != round.Kind {
		return local, fmt.Errorf("%w: server %s/%s, local %s/%s", ErrMismatch,
			round.Outcome, round.WinningAttribute, local.Outcome, local.WinningAttribute)
	}
	return local, nil
}

type playResult struct {
	battle   Battle
	mismatch bool
	err      error
}

func (p *Player) draw(cfg PlayConfig) (entity.Kind, verdict.Side) {
	p.mu.Lock()
	defer p.mu.Unlock()

	kind := entity.Kind(cfg.Resource)
	if cfg.Resource == ResourceRandom {
		kinds := entity.Kinds()
		kind = kinds[p.rng.IntN(len(kinds))]
	}
	side, ok := cfg.Pick.Side()
	if !ok {
		side = verdict.Left
		if p.rng.IntN(2) == 1 {
			side = verdict.Right
		}
	}
	return kind, side
}

// playOne fetches, verifies and records one round. A mismatching round is
// recorded with the local verdict.
func (p *Player) playOne(ctx context.Context, cfg PlayConfig) playResult {
	kind, side := p.draw(cfg)
	start := p.now()
	round, err := p.source.RandomPair(ctx, kind)
	if err != nil {
		return playResult{err: err}
	}
	took := p.now().Sub(start)

	local, verr := Verify(round)
	res := playResult{}
	switch {
	case errors.Is(verr, ErrMismatch):
		res.mismatch = true
		p.logger.Warn(ctx, "verdict mismatch", logger.Error(verr))
	case verr != nil:
		return playResult{err: verr}
	}
	res.battle = NewBattle(local, side, took, p.now())
	return res
}

// Play runs cfg.Rounds rounds over cfg.Workers workers and adds every
// played battle to st. Rounds that fail are counted and skipped. It fails
// only when the config is invalid or no round could be played.
func (p *Player) Play(ctx context.Context, st *State, cfg PlayConfig) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	p.logger.Info(ctx, "starting play session",
		logger.String("resource", cfg.Resource),
		logger.Int("rounds", cfg.Rounds),
		logger.String("pick", string(cfg.Pick)),
		logger.Int("workers", cfg.Workers),
	)

	var (
		report    = Report{}
		started   = p.now()
		submitted int64
		jobs      = make(chan struct{}, cfg.Workers*workerChannelMultiplier)
		results   = make(chan playResult, cfg.Workers*workerChannelMultiplier)
		wg        sync.WaitGroup
	)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				select {
				case <-ctx.Done():
					results <- playResult{err: ctx.Err()}
				default:
					results <- p.playOne(ctx, cfg)
				}
				atomic.AddInt64(&submitted, 1)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < cfg.Rounds; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- struct{}{}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// State is not safe for concurrent use; only this loop touches it.
	lastReport := started
	for res := range results {
		if res.err != nil {
			report.Failed++
			if report.FirstError == nil {
				report.FirstError = res.err
			}
			p.logger.Debug(ctx, "round failed", logger.Error(res.err))
			continue
		}
		report.Played++
		if res.mismatch {
			report.Mismatches++
			st.Mismatches++
		}
		if res.battle.Won {
			report.Wins++
		}
		report.Score.record(res.battle)
		st.Add(res.battle)

		if p.verbose {
			p.logger.Info(ctx, "round played",
				logger.String("left", res.battle.Left.Name()),
				logger.String("right", res.battle.Right.Name()),
				logger.String("attribute", res.battle.WinningAttribute),
				logger.Bool("won", res.battle.Won),
			)
		} else if now := p.now(); now.Sub(lastReport) >= progressInterval {
			lastReport = now
			p.logger.Info(ctx, "progress",
				logger.Int("done", int(atomic.LoadInt64(&submitted))),
				logger.Int("rounds", cfg.Rounds),
			)
		}
	}

	report.Duration = p.now().Sub(started)
	if report.Played == 0 {
		if report.FirstError != nil {
			return report, fmt.Errorf("%w: %w", ErrNoRounds, report.FirstError)
		}
		return report, ErrNoRounds
	}
	p.logger.Info(ctx, "play session finished",
		logger.Int("played", report.Played),
		logger.Int("failed", report.Failed),
		logger.Int("wins", report.Wins),
		logger.Int("mismatches", report.Mismatches),
		logger.Duration("took", report.Duration),
	)
	return report, nil
}
