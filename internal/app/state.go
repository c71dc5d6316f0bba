// Package app binds user actions to state transitions over a dice
// simulation session.
package app

import (
	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/preset"
)

// State is one snapshot of a session. Transitions build a new State and
// never modify the slices of the previous one.
type State struct {
	Config  dice.Config          `json:"config"`
	View    preset.HistogramView `json:"histogramView"`
	Rolls   []int                `json:"rolls"`
	Presets []preset.Preset      `json:"presets"`
}

// Defaults seeds a fresh session.
type Defaults struct {
	Config dice.Config
	View   preset.HistogramView
}

// DefaultDefaults is 100 rolls of 2d6, no modifier, horizontal bars.
func DefaultDefaults() Defaults {
	return Defaults{
		Config: dice.Config{
			Modifier:    dice.ModifierNone,
			RollCount:   100,
			DiceCount:   2,
			SidesPerDie: 6,
		},
		View: preset.ViewHorizontal,
	}
}

// Initial returns the session start state with the persisted presets.
func Initial(d Defaults, presets []preset.Preset) State {
	if presets == nil {
		presets = []preset.Preset{}
	}
	return State{
		Config:  d.Config,
		View:    d.View,
		Rolls:   []int{},
		Presets: presets,
	}
}

// Preset captures the current configuration, display option included.
func (s State) Preset() preset.Preset {
	return preset.FromConfig(s.Config, s.View)
}
