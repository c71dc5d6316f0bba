package app

import (
	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/fault"
	"github.com/xtding233/dicestats/internal/preset"
)

// Reducer applies actions to states. RNG feeds generateRollResult; nil uses
// the default source.
type Reducer struct {
	RNG dice.RandomSource
}

// Reduce returns the state after a. persist is true when the preset list
// must be written back to the store.
//
// Any configuration edit clears the rolls. The display option does not.
func (r Reducer) Reduce(prev State, a Action) (next State, persist bool) {
	next = prev
	switch a := a.(type) {
	case UpdateModifier:
		a.Modifier.Check()
		next.Config.Modifier = a.Modifier
		next.Rolls = []int{}
	case UpdateRollCount:
		next.Config.RollCount = a.Value
		next.Rolls = []int{}
	case UpdateDiceCount:
		next.Config.DiceCount = a.Value
		next.Rolls = []int{}
	case UpdateSidesPerDie:
		next.Config.SidesPerDie = a.Value
		next.Rolls = []int{}
	case UpdateHistogramView:
		a.View.Check()
		next.View = a.View
	case GenerateRollResult:
		next.Rolls = dice.Simulate(prev.Config, r.RNG)
	case LoadPreset:
		a.Preset.Modifier.Check()
		next.Config = a.Preset.Config()
		if a.Preset.HistogramView != "" {
			next.View = a.Preset.HistogramView
		}
		next.Rolls = []int{}
	case SavePreset:
		list, added := preset.Add(prev.Presets, prev.Preset())
		if !added {
			return prev, false
		}
		next.Presets = list
		return next, true
	case DeletePreset:
		next.Presets = preset.Remove(prev.Presets, a.Preset)
		return next, true
	default:
		fault.Unreachable("action", a)
	}
	return next, false
}
