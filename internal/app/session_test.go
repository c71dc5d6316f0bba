package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/preset"
	"github.com/xtding233/dicestats/internal/storage/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T, store preset.Store) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), store, Options{
		Defaults: DefaultDefaults(),
		Limits:   Limits{MaxRollCount: 1000, MaxDiceCount: 50, MaxSides: 100},
		RNG:      dice.NewSeededRNG(5),
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	return s
}

type failingStore struct {
	readErr  error
	writeErr error
}

func (f failingStore) Read(context.Context, string) ([]preset.Preset, error) {
	return nil, f.readErr
}

func (f failingStore) Write(context.Context, string, []preset.Preset) error {
	return f.writeErr
}

func TestNewSessionReadsPresets(t *testing.T) {
	store := memory.New()
	saved := []preset.Preset{{Modifier: dice.ModifierNone, RollCount: 3, DiceCount: 1, SidesPerDie: 4}}
	require.NoError(t, store.Write(context.Background(), preset.DefaultKey, saved))

	s := newTestSession(t, store)
	assert.Equal(t, saved, s.State().Presets)
	assert.Equal(t, DefaultDefaults().Config, s.State().Config)
}

func TestNewSessionReadError(t *testing.T) {
	_, err := NewSession(context.Background(), failingStore{readErr: errors.New("disk gone")}, Options{Logger: quietLogger()})
	assert.ErrorContains(t, err, "disk gone")
}

func TestDispatchRollAndDerive(t *testing.T) {
	s := newTestSession(t, memory.New())
	snap, err := s.Dispatch(context.Background(), UpdateRollCount{Value: 40}, GenerateRollResult{})
	require.NoError(t, err)
	assert.Len(t, snap.Rolls, 40)
	assert.Equal(t, 40, snap.Histogram.Total())
	assert.Len(t, snap.Histogram, 11)
	assert.False(t, snap.Summary.Count == 0)
}

func TestDispatchPersistsPresets(t *testing.T) {
	store := memory.New()
	s := newTestSession(t, store)
	ctx := context.Background()

	_, err := s.Dispatch(ctx, SavePreset{})
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, SavePreset{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Writes(), "duplicate save must not write")

	saved, err := store.Read(ctx, preset.DefaultKey)
	require.NoError(t, err)
	require.Len(t, saved, 1)

	_, err = s.Dispatch(ctx, DeletePreset{Preset: saved[0]})
	require.NoError(t, err)
	assert.Equal(t, 2, store.Writes())
	saved, err = store.Read(ctx, preset.DefaultKey)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestDispatchLoadAndRoll(t *testing.T) {
	s := newTestSession(t, memory.New())
	p := preset.Preset{Modifier: dice.ModifierChooseHighest, RollCount: 25, DiceCount: 3, SidesPerDie: 4}

	snap, err := s.Dispatch(context.Background(), LoadPreset{Preset: p}, GenerateRollResult{})
	require.NoError(t, err)
	assert.Len(t, snap.Rolls, 25)
	require.Len(t, snap.Histogram, 4)
	for i, b := range snap.Histogram {
		assert.Equal(t, i+1, b.Value)
	}
	assert.Equal(t, 25, snap.Histogram.Total())
}

func TestDispatchLimits(t *testing.T) {
	s := newTestSession(t, memory.New())
	before := s.State()

	_, err := s.Dispatch(context.Background(), UpdateDiceCount{Value: 3}, UpdateRollCount{Value: 5000})
	assert.ErrorIs(t, err, ErrLimit)
	assert.Equal(t, before, s.State(), "batch rejected as a whole")

	_, err = s.Dispatch(context.Background(), LoadPreset{Preset: preset.Preset{Modifier: dice.ModifierNone, RollCount: 1, DiceCount: 1, SidesPerDie: 1000}})
	assert.ErrorIs(t, err, ErrLimit)

	_, err = s.Dispatch(context.Background(), UpdateRollCount{Value: dice.Absent})
	assert.NoError(t, err)
}

func TestDispatchCombinedLimits(t *testing.T) {
	limits := Limits{MaxRollCount: 1000, MaxDiceCount: 100, MaxSides: 1000, MaxDraws: 10_000, MaxDomain: 5_000}
	tests := []struct {
		name    string
		actions []Action
		want    string
	}{
		{
			name:    "draws built up one field at a time",
			actions: []Action{UpdateRollCount{Value: 1000}, UpdateDiceCount{Value: 11}, GenerateRollResult{}},
			want:    "draws 11000 > 10000",
		},
		{
			name:    "sum domain",
			actions: []Action{UpdateRollCount{Value: 10}, UpdateDiceCount{Value: 10}, UpdateSidesPerDie{Value: 600}, GenerateRollResult{}},
			want:    "domain 5991 > 5000",
		},
		{
			name: "preset then roll",
			actions: []Action{
				LoadPreset{Preset: preset.Preset{Modifier: dice.ModifierNone, RollCount: 500, DiceCount: 30, SidesPerDie: 6}},
				GenerateRollResult{},
			},
			want: "draws 15000 > 10000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSession(context.Background(), memory.New(), Options{Limits: limits, RNG: dice.NewSeededRNG(1), Logger: quietLogger()})
			require.NoError(t, err)
			before := s.State()

			_, err = s.Dispatch(context.Background(), tt.actions...)
			assert.ErrorIs(t, err, ErrLimit)
			assert.ErrorContains(t, err, tt.want)
			assert.Equal(t, before, s.State())
		})
	}
}

func TestDispatchCombinedLimitsAllowedShapes(t *testing.T) {
	limits := Limits{MaxDraws: 10_000, MaxDomain: 5_000}
	s, err := NewSession(context.Background(), memory.New(), Options{Limits: limits, RNG: dice.NewSeededRNG(1), Logger: quietLogger()})
	require.NoError(t, err)
	ctx := context.Background()

	// large fields are fine until a roll would use them together
	_, err = s.Dispatch(ctx, UpdateRollCount{Value: 1_000_000}, UpdateDiceCount{Value: 1000}, UpdateSidesPerDie{Value: 4000})
	require.NoError(t, err)

	// chooseHighest lands on 1..sides only
	snap, err := s.Dispatch(ctx, UpdateModifier{Modifier: dice.ModifierChooseHighest}, UpdateRollCount{Value: 10}, GenerateRollResult{})
	require.NoError(t, err)
	assert.Len(t, snap.Rolls, 10)
	assert.Len(t, snap.Histogram, 4000)
}

type unknownAction struct{}

func (unknownAction) Type() string { return "unknown" }
func (unknownAction) isAction()    {}

func TestDispatchFaultReleasesLock(t *testing.T) {
	s := newTestSession(t, memory.New())
	assert.Panics(t, func() {
		_, _ = s.Dispatch(context.Background(), unknownAction{})
	})

	done := make(chan State, 1)
	go func() { done <- s.State() }()
	select {
	case st := <-done:
		assert.Equal(t, DefaultDefaults().Config, st.Config)
	case <-time.After(time.Second):
		t.Fatal("session still locked after a faulted dispatch")
	}
}

func TestDispatchWriteError(t *testing.T) {
	s, err := NewSession(context.Background(), failingStore{writeErr: errors.New("read-only")}, Options{Logger: quietLogger()})
	require.NoError(t, err)

	snap, err := s.Dispatch(context.Background(), SavePreset{})
	assert.ErrorContains(t, err, "read-only")
	assert.Len(t, snap.Presets, 1)
}

func TestSubscribe(t *testing.T) {
	s := newTestSession(t, memory.New())
	ch, cancel := s.Subscribe()
	defer cancel()

	_, err := s.Dispatch(context.Background(), UpdateSidesPerDie{Value: 8})
	require.NoError(t, err)

	select {
	case snap := <-ch:
		assert.Equal(t, dice.Count(8), snap.Config.SidesPerDie)
	case <-time.After(time.Second):
		t.Fatal("expected snapshot")
	}

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestSubscribeDropsWhenFull(t *testing.T) {
	s := newTestSession(t, memory.New())
	ch, cancel := s.Subscribe()
	defer cancel()

	for i := 0; i < DefaultSubscriberBuffer+5; i++ {
		_, err := s.Dispatch(context.Background(), UpdateRollCount{Value: dice.Count(i)})
		require.NoError(t, err)
	}
	assert.Len(t, ch, DefaultSubscriberBuffer)
}
