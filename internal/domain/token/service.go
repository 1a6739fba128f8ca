package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxAttempts bounds the compare-and-swap loop of Next.
const DefaultMaxAttempts = 128

// ErrContention is returned when Next lost every compare-and-swap attempt.
var ErrContention = errors.New("token counter contention")

// Sequencer hands out daily token numbers. Concurrent callers always receive
// distinct values: the persisted counter only moves through a conditional
// update, and a caller that loses the race re-reads and tries again.
type Sequencer struct {
	repo        CounterRepository
	loc         *time.Location
	now         func() time.Time
	maxAttempts int
	log         zerolog.Logger
}

type Option func(*Sequencer)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) { s.now = now }
}

// WithLocation sets the time zone that defines a calendar day.
func WithLocation(loc *time.Location) Option {
	return func(s *Sequencer) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(s *Sequencer) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Sequencer) { s.log = l }
}

func NewSequencer(repo CounterRepository, opts ...Option) *Sequencer {
	s := &Sequencer{
		repo:        repo,
		loc:         time.Local,
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone the sequencer counts days in.
func (s *Sequencer) Location() *time.Location {
	return s.loc
}

// Next allocates the next token. When ctx carries a transaction the counter
// update joins it, so a rolled back caller gives its token back.
func (s *Sequencer) Next(ctx context.Context) (int, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		// Postgres keeps microseconds; truncating keeps the stored value
		// equal to what a later read returns.
		now := s.now().Truncate(time.Microsecond)

		current, found, err := s.repo.Get(ctx)
		if err != nil {
			return 0, fmt.Errorf("read token counter: %w", err)
		}

		if !found {
			created, err := s.repo.Init(ctx, Counter{LastToken: 1, LastTokenDate: now})
			if err != nil {
				return 0, fmt.Errorf("create token counter: %w", err)
			}
			if created {
				return 1, nil
			}
			continue
		}

		next := Advance(current, now, s.loc)
		swapped, err := s.repo.CompareAndSwap(ctx, current, next)
		if err != nil {
			return 0, fmt.Errorf("update token counter: %w", err)
		}
		if swapped {
			return next.LastToken, nil
		}
		s.log.Debug().Int("attempt", attempt).Int("seen", current.LastToken).Msg("token counter moved, retrying")
	}
	return 0, fmt.Errorf("%w: gave up after %d attempts", ErrContention, s.maxAttempts)
}
