package app

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/preset"
)

var ErrUnknownAction = errors.New("unknown action type")

// envelope is the wire form of an action:
//
//	{"type": "updateRollCount", "value": 10}
//	{"type": "loadPreset", "preset": {...}}
type envelope struct {
	Type     string         `json:"type"`
	Modifier string         `json:"modifier,omitempty"`
	Value    *dice.Count    `json:"value,omitempty"`
	View     string         `json:"view,omitempty"`
	Preset   *preset.Preset `json:"preset,omitempty"`
}

// DecodeAction parses one wire action. Unknown types and variants are
// client errors here; the reducer only ever sees valid actions.
func DecodeAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	count := func() dice.Count {
		// a missing value reads like a cleared input
		if env.Value == nil {
			return dice.Absent
		}
		return *env.Value
	}
	needPreset := func() (preset.Preset, error) {
		if env.Preset == nil {
			return preset.Preset{}, fmt.Errorf("%s: preset is required", env.Type)
		}
		if _, err := dice.ParseModifier(string(env.Preset.Modifier)); err != nil {
			return preset.Preset{}, fmt.Errorf("%s: %w", env.Type, err)
		}
		if v := env.Preset.HistogramView; v != "" {
			if _, err := preset.ParseView(string(v)); err != nil {
				return preset.Preset{}, fmt.Errorf("%s: %w", env.Type, err)
			}
		}
		return *env.Preset, nil
	}

	switch env.Type {
	case TypeUpdateModifier:
		m, err := dice.ParseModifier(env.Modifier)
		if err != nil {
			return nil, err
		}
		return UpdateModifier{Modifier: m}, nil
	case TypeUpdateRollCount:
		return UpdateRollCount{Value: count()}, nil
	case TypeUpdateDiceCount:
		return UpdateDiceCount{Value: count()}, nil
	case TypeUpdateSidesPerDie:
		return UpdateSidesPerDie{Value: count()}, nil
	case TypeUpdateHistogramView:
		v, err := preset.ParseView(env.View)
		if err != nil {
			return nil, err
		}
		return UpdateHistogramView{View: v}, nil
	case TypeGenerateRollResult:
		return GenerateRollResult{}, nil
	case TypeSavePreset:
		return SavePreset{}, nil
	case TypeLoadPreset:
		p, err := needPreset()
		if err != nil {
			return nil, err
		}
		return LoadPreset{Preset: p}, nil
	case TypeDeletePreset:
		p, err := needPreset()
		if err != nil {
			return nil, err
		}
		return DeletePreset{Preset: p}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
}

// DecodeActions parses a JSON array of wire actions.
func DecodeActions(data []byte) ([]Action, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	actions := make([]Action, 0, len(raw))
	for i, r := range raw {
		a, err := DecodeAction(r)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// EncodeAction returns the wire form of a.
func EncodeAction(a Action) ([]byte, error) {
	env := envelope{Type: a.Type()}
	switch a := a.(type) {
	case UpdateModifier:
		env.Modifier = string(a.Modifier)
	case UpdateRollCount:
		env.Value = &a.Value
	case UpdateDiceCount:
		env.Value = &a.Value
	case UpdateSidesPerDie:
		env.Value = &a.Value
	case UpdateHistogramView:
		env.View = string(a.View)
	case LoadPreset:
		env.Preset = &a.Preset
	case DeletePreset:
		env.Preset = &a.Preset
	}
	return json.Marshal(env)
}
