package app

import (
	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/preset"
)

// Action is a tagged user action. The set is closed: only this package
// implements it.
type Action interface {
	Type() string
	isAction()
}

type UpdateModifier struct{ Modifier dice.Modifier }
type UpdateRollCount struct{ Value dice.Count }
type UpdateDiceCount struct{ Value dice.Count }
type UpdateSidesPerDie struct{ Value dice.Count }
type UpdateHistogramView struct{ View preset.HistogramView }
type GenerateRollResult struct{}
type LoadPreset struct{ Preset preset.Preset }
type SavePreset struct{}
type DeletePreset struct{ Preset preset.Preset }

const (
	TypeUpdateModifier      = "updateModifier"
	TypeUpdateRollCount     = "updateRollCount"
	TypeUpdateDiceCount     = "updateDiceCount"
	TypeUpdateSidesPerDie   = "updateSidesPerDie"
	TypeUpdateHistogramView = "updateHistogramView"
	TypeGenerateRollResult  = "generateRollResult"
	TypeLoadPreset          = "loadPreset"
	TypeSavePreset          = "savePreset"
	TypeDeletePreset        = "deletePreset"
)

func (UpdateModifier) Type() string      { return TypeUpdateModifier }
func (UpdateRollCount) Type() string     { return TypeUpdateRollCount }
func (UpdateDiceCount) Type() string     { return TypeUpdateDiceCount }
func (UpdateSidesPerDie) Type() string   { return TypeUpdateSidesPerDie }
func (UpdateHistogramView) Type() string { return TypeUpdateHistogramView }
func (GenerateRollResult) Type() string  { return TypeGenerateRollResult }
func (LoadPreset) Type() string          { return TypeLoadPreset }
func (SavePreset) Type() string          { return TypeSavePreset }
func (DeletePreset) Type() string        { return TypeDeletePreset }

func (UpdateModifier) isAction()      {}
func (UpdateRollCount) isAction()     {}
func (UpdateDiceCount) isAction()     {}
func (UpdateSidesPerDie) isAction()   {}
func (UpdateHistogramView) isAction() {}
func (GenerateRollResult) isAction()  {}
func (LoadPreset) isAction()          {}
func (SavePreset) isAction()          {}
func (DeletePreset) isAction()        {}
