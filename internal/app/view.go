package app

import (
	"encoding/json"
	"math"

	"github.com/xtding233/dicestats/internal/dice"
)

// Snapshot is a state together with its derived views. Views are recomputed
// from the state every time and never stored.
type Snapshot struct {
	State
	Histogram     dice.Histogram
	ExpectedValue float64 // NaN when there is nothing to show
	Summary       dice.Summary
	Theoretical   *dice.Distribution
}

// Derive computes the views of s. A histogram/roll mismatch returns the
// error alongside a snapshot with empty views.
//
// The expected value divides by the number of rolls actually held, which
// equals the configured roll count whenever rolls exist: editing the roll
// count clears them.
func Derive(s State) (Snapshot, error) {
	snap := Snapshot{State: s, Histogram: dice.Histogram{}, ExpectedValue: math.NaN()}
	if d, ok := dice.Exact(s.Config); ok {
		snap.Theoretical = &d
	}
	h, err := dice.BuildHistogram(s.Config, s.Rolls)
	if err != nil {
		return snap, err
	}
	snap.Histogram = h
	snap.ExpectedValue = dice.ExpectedValue(h, len(s.Rolls))
	snap.Summary = dice.Summarize(h)
	return snap, nil
}

type snapshotJSON struct {
	State
	Histogram     dice.Histogram     `json:"histogram"`
	ExpectedValue *float64           `json:"expectedValue"`
	Summary       dice.Summary       `json:"summary"`
	Theoretical   *dice.Distribution `json:"theoretical"`
}

// MarshalJSON encodes a NaN expected value as null.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		State:       s.State,
		Histogram:   s.Histogram,
		Summary:     s.Summary,
		Theoretical: s.Theoretical,
	}
	if !math.IsNaN(s.ExpectedValue) {
		ev := s.ExpectedValue
		out.ExpectedValue = &ev
	}
	return json.Marshal(out)
}
