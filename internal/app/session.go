package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/preset"
)

// DefaultSubscriberBuffer is the channel size handed out by Subscribe.
const DefaultSubscriberBuffer = 16

var ErrLimit = errors.New("value exceeds configured limit")

// Limits bounds what a session accepts. Zero means unbounded.
type Limits struct {
	MaxRollCount int
	MaxDiceCount int
	MaxSides     int
	// MaxDraws caps rollCount * diceCount for one generateRollResult.
	MaxDraws int
	// MaxDomain caps the number of histogram values a roll can land on.
	MaxDomain int
}

func overLimit(name string, v, max int64) error {
	if max > 0 && v > max {
		return fmt.Errorf("%w: %s %d > %d", ErrLimit, name, v, max)
	}
	return nil
}

func (l Limits) check(a Action) error {
	over := func(name string, c dice.Count, max int) error {
		if !c.Valid() {
			return nil
		}
		return overLimit(name, int64(c), int64(max))
	}
	switch a := a.(type) {
	case UpdateRollCount:
		return over("rollCount", a.Value, l.MaxRollCount)
	case UpdateDiceCount:
		return over("diceCount", a.Value, l.MaxDiceCount)
	case UpdateSidesPerDie:
		return over("sidesPerDie", a.Value, l.MaxSides)
	case LoadPreset:
		return errors.Join(
			over("rollCount", a.Preset.RollCount, l.MaxRollCount),
			over("diceCount", a.Preset.DiceCount, l.MaxDiceCount),
			over("sidesPerDie", a.Preset.SidesPerDie, l.MaxSides),
		)
	}
	return nil
}

// CheckRoll bounds the work of rolling cfg and the size of its histogram.
func (l Limits) CheckRoll(cfg dice.Config) error {
	lo, hi, ok := cfg.Domain()
	if !ok || !cfg.RollCount.Valid() {
		return nil
	}
	return errors.Join(
		overLimit("draws", int64(cfg.RollCount)*int64(cfg.DiceCount), int64(l.MaxDraws)),
		overLimit("domain", int64(hi)-int64(lo)+1, int64(l.MaxDomain)),
	)
}

// checkBatch walks the batch over cfg, checking each action and every roll
// against the config in effect at that point of the batch.
func (l Limits) checkBatch(cfg dice.Config, actions []Action) error {
	for _, a := range actions {
		if err := l.check(a); err != nil {
			return fmt.Errorf("%s: %w", a.Type(), err)
		}
		switch a := a.(type) {
		case UpdateModifier:
			cfg.Modifier = a.Modifier
		case UpdateRollCount:
			cfg.RollCount = a.Value
		case UpdateDiceCount:
			cfg.DiceCount = a.Value
		case UpdateSidesPerDie:
			cfg.SidesPerDie = a.Value
		case LoadPreset:
			cfg = a.Preset.Config()
		case GenerateRollResult:
			if err := l.CheckRoll(cfg); err != nil {
				return fmt.Errorf("%s: %w", a.Type(), err)
			}
		}
	}
	return nil
}

// Options configures a Session.
type Options struct {
	Key      string // storage key, DefaultKey when empty
	Defaults Defaults
	Limits   Limits
	RNG      dice.RandomSource
	Logger   *slog.Logger
}

// Session owns one application state. Actions are applied one at a time,
// each completely, and the preset list is rewritten wholesale after every
// change to it.
type Session struct {
	mu      sync.Mutex
	state   State
	reducer Reducer
	limits  Limits
	store   preset.Store
	key     string
	log     *slog.Logger

	subMu  sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// NewSession reads the saved presets once and starts from opts.Defaults, or
// DefaultDefaults when unset.
func NewSession(ctx context.Context, store preset.Store, opts Options) (*Session, error) {
	if opts.Key == "" {
		opts.Key = preset.DefaultKey
	}
	if opts.Defaults == (Defaults{}) {
		opts.Defaults = DefaultDefaults()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	presets, err := store.Read(ctx, opts.Key)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	opts.Logger.Info("session started", "presets", len(presets), "key", opts.Key)
	return &Session{
		state:   Initial(opts.Defaults, presets),
		reducer: Reducer{RNG: opts.RNG},
		limits:  opts.Limits,
		store:   store,
		key:     opts.Key,
		log:     opts.Logger,
		subs:    make(map[int]chan Snapshot),
	}, nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the current state with derived views.
func (s *Session) Snapshot() Snapshot {
	return s.derive(s.State())
}

func (s *Session) derive(st State) Snapshot {
	snap, err := Derive(st)
	if err != nil {
		s.log.Error("histogram does not match rolls", "err", err, "config", st.Config)
	}
	return snap
}

// Dispatch applies actions in order as one batch. Every action, and every
// roll against the config it would run with, is checked against the limits
// before any is applied. A failed preset write is
// returned; the in-memory state keeps the change.
func (s *Session) Dispatch(ctx context.Context, actions ...Action) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.limits.checkBatch(s.state.Config, actions); err != nil {
		return Snapshot{}, err
	}

	var writeErr error
	for _, a := range actions {
		next, persist := s.reducer.Reduce(s.state, a)
		s.state = next
		s.log.Debug("action applied", "action", a.Type(), "rolls", len(next.Rolls), "presets", len(next.Presets))
		if persist {
			if err := s.store.Write(ctx, s.key, next.Presets); err != nil {
				s.log.Error("write presets", "err", err, "presets", len(next.Presets))
				writeErr = errors.Join(writeErr, fmt.Errorf("write presets: %w", err))
			}
		}
	}
	snap := s.derive(s.state)
	s.publish(ctx, snap)
	return snap, writeErr
}

// Subscribe returns a channel that receives, in dispatch order, a snapshot
// after every batch, and a func that cancels the subscription.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, DefaultSubscriberBuffer)
	s.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// publish is best-effort: a subscriber with a full channel misses the
// snapshot.
func (s *Session) publish(ctx context.Context, snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			s.log.WarnContext(ctx, "subscriber channel full, snapshot dropped", "subscriber", id)
		}
	}
}
