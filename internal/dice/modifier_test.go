package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/dicestats/internal/fault"
)

func TestModifierFold(t *testing.T) {
	tests := []struct {
		name     string
		modifier Modifier
		total    int
		face     int
		want     int
	}{
		{"none adds", ModifierNone, 5, 3, 8},
		{"none from zero", ModifierNone, 0, 4, 4},
		{"highest keeps larger total", ModifierChooseHighest, 5, 3, 5},
		{"highest takes larger face", ModifierChooseHighest, 2, 6, 6},
		{"highest from zero", ModifierChooseHighest, 0, 1, 1},
		{"lowest takes smaller face", ModifierChooseLowest, 5, 3, 3},
		{"lowest keeps smaller total", ModifierChooseLowest, 2, 6, 2},
		{"lowest first draw always wins", ModifierChooseLowest, 0, 6, 6},
		{"lowest tie", ModifierChooseLowest, 4, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.modifier.Fold(tt.total, tt.face))
		})
	}
}

func TestModifierBounds(t *testing.T) {
	tests := []struct {
		modifier Modifier
		dice     int
		sides    int
		lo, hi   int
	}{
		{ModifierNone, 2, 6, 2, 12},
		{ModifierNone, 3, 4, 3, 12},
		{ModifierChooseHighest, 2, 4, 1, 4},
		{ModifierChooseLowest, 5, 20, 1, 20},
	}
	for _, tt := range tests {
		t.Run(string(tt.modifier), func(t *testing.T) {
			lo, hi := tt.modifier.Bounds(tt.dice, tt.sides)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}

func TestModifierLabel(t *testing.T) {
	assert.Equal(t, "", ModifierNone.Label())
	assert.Equal(t, "CH", ModifierChooseHighest.Label())
	assert.Equal(t, "CL", ModifierChooseLowest.Label())
}

func TestParseModifier(t *testing.T) {
	m, err := ParseModifier("chooseLowest")
	require.NoError(t, err)
	assert.Equal(t, ModifierChooseLowest, m)

	_, err = ParseModifier("dropLowest")
	assert.ErrorIs(t, err, ErrUnknownModifier)
}

func TestUnknownModifierFaults(t *testing.T) {
	bogus := Modifier("exploding")
	calls := map[string]func(){
		"fold":   func() { bogus.Fold(0, 1) },
		"bounds": func() { bogus.Bounds(1, 6) },
		"label":  func() { _ = bogus.Label() },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.PanicsWithError(t, (&fault.Error{Kind: "modifier", Value: bogus}).Error(), call)
		})
	}
}
