// Package preset holds saved configuration snapshots and the rules that keep
// the saved list free of duplicates.
package preset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/fault"
)

// DefaultKey is the storage key the preset list lives under.
const DefaultKey = "savedSettings"

// HistogramView is a display-only option: it never invalidates rolls.
type HistogramView string

const (
	ViewHorizontal HistogramView = "horizontal"
	ViewVertical   HistogramView = "vertical"
)

var ErrUnknownView = errors.New("unknown histogram view")

// ParseView validates s against the closed view set.
func ParseView(s string) (HistogramView, error) {
	switch v := HistogramView(s); v {
	case ViewHorizontal, ViewVertical:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Check faults on a view outside the closed set.
func (v HistogramView) Check() {
	switch v {
	case ViewHorizontal, ViewVertical:
		return
	}
	fault.Unreachable("histogram view", v)
}

// Preset is an immutable snapshot of a configuration. An empty HistogramView
// means the field is absent, as in presets written before the option existed.
type Preset struct {
	Modifier      dice.Modifier `json:"modifier"`
	RollCount     dice.Count    `json:"rollCount"`
	DiceCount     dice.Count    `json:"diceCount"`
	SidesPerDie   dice.Count    `json:"sidesPerDie"`
	HistogramView HistogramView `json:"histogramView,omitempty"`
}

// FromConfig captures cfg and the display option into a Preset.
func FromConfig(cfg dice.Config, view HistogramView) Preset {
	return Preset{
		Modifier:      cfg.Modifier,
		RollCount:     cfg.RollCount,
		DiceCount:     cfg.DiceCount,
		SidesPerDie:   cfg.SidesPerDie,
		HistogramView: view,
	}
}

// Config returns the simulation parameters stored in p.
func (p Preset) Config() dice.Config {
	return dice.Config{
		Modifier:    p.Modifier,
		RollCount:   p.RollCount,
		DiceCount:   p.DiceCount,
		SidesPerDie: p.SidesPerDie,
	}
}

// Fields returns the preset as a field set keyed by name. Absent optional
// fields are left out.
func (p Preset) Fields() map[string]any {
	fields := map[string]any{
		"modifier":    p.Modifier,
		"rollCount":   p.RollCount,
		"diceCount":   p.DiceCount,
		"sidesPerDie": p.SidesPerDie,
	}
	if p.HistogramView != "" {
		fields["histogramView"] = p.HistogramView
	}
	return fields
}

// Equal reports whether a and b have the same field set with equal values.
func Equal(a, b Preset) bool {
	fa, fb := a.Fields(), b.Fields()
	if len(fa) != len(fb) {
		return false
	}
	for k, v := range fa {
		w, ok := fb[k]
		if !ok || w != v {
			return false
		}
	}
	return true
}

// Describe renders p the way the preset list shows it, e.g.
// "100 rolls, 2 dice, d6 (CH)".
func (p Preset) Describe() string {
	s := fmt.Sprintf("%s rolls, %s dice, d%s", countText(p.RollCount), countText(p.DiceCount), countText(p.SidesPerDie))
	if label := p.Modifier.Label(); label != "" {
		s += " (" + label + ")"
	}
	return s
}

func countText(c dice.Count) string {
	if !c.Valid() {
		return "?"
	}
	return fmt.Sprint(int(c))
}

// Index returns the position of the first preset equal to p, or -1.
func Index(list []Preset, p Preset) int {
	for i, s := range list {
		if Equal(s, p) {
			return i
		}
	}
	return -1
}

// Add returns a new list with p appended. added is false, and list is
// returned untouched, when an equal preset is already saved.
func Add(list []Preset, p Preset) (out []Preset, added bool) {
	if Index(list, p) >= 0 {
		return list, false
	}
	out = make([]Preset, len(list), len(list)+1)
	copy(out, list)
	return append(out, p), true
}

// Remove returns a new list without any preset equal to p. Order is kept.
func Remove(list []Preset, p Preset) []Preset {
	out := make([]Preset, 0, len(list))
	for _, s := range list {
		if !Equal(s, p) {
			out = append(out, s)
		}
	}
	return out
}

// Store persists the preset list. Read returns an empty list, not an error,
// when nothing was saved under key. Write replaces the whole list.
type Store interface {
	Read(ctx context.Context, key string) ([]Preset, error)
	Write(ctx context.Context, key string, presets []Preset) error
}

// Validate checks that p only holds known variants, as stored data may
// come from anywhere.
func Validate(p Preset) error {
	if _, err := dice.ParseModifier(string(p.Modifier)); err != nil {
		return err
	}
	if p.HistogramView != "" {
		if _, err := ParseView(string(p.HistogramView)); err != nil {
			return err
		}
	}
	return nil
}

// DecodeList parses a JSON preset list, as kept by the SQL stores.
// Empty input is an empty list.
func DecodeList(data []byte) ([]Preset, error) {
	if len(data) == 0 {
		return []Preset{}, nil
	}
	var list []Preset
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	for i, p := range list {
		if err := Validate(p); err != nil {
			return nil, fmt.Errorf("preset %d: %w", i, err)
		}
	}
	if list == nil {
		list = []Preset{}
	}
	return list, nil
}

// EncodeList is the inverse of DecodeList.
func EncodeList(list []Preset) ([]byte, error) {
	if list == nil {
		list = []Preset{}
	}
	return json.Marshal(list)
}
