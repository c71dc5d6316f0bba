package dice

import (
	"errors"
	"fmt"

	"github.com/xtding233/dicestats/internal/fault"
)

// Modifier specifies how the dice of one roll combine into a single total.
type Modifier string

const (
	ModifierNone          Modifier = "none"
	ModifierChooseHighest Modifier = "chooseHighest"
	ModifierChooseLowest  Modifier = "chooseLowest"
)

var ErrUnknownModifier = errors.New("unknown modifier")

// ParseModifier validates s against the closed modifier set.
func ParseModifier(s string) (Modifier, error) {
	switch m := Modifier(s); m {
	case ModifierNone, ModifierChooseHighest, ModifierChooseLowest:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModifier, s)
}

// Check faults on a modifier outside the closed set.
func (m Modifier) Check() {
	switch m {
	case ModifierNone, ModifierChooseHighest, ModifierChooseLowest:
		return
	}
	fault.Unreachable("modifier", m)
}

// Fold returns the running total after a new die face is applied.
// total starts at 0 for every roll.
func (m Modifier) Fold(total, face int) int {
	switch m {
	case ModifierNone:
		return total + face
	case ModifierChooseHighest:
		if face > total {
			return face
		}
		return total
	case ModifierChooseLowest:
		// 0 is below every face, so the first draw always wins.
		if face < total || total == 0 {
			return face
		}
		return total
	}
	fault.Unreachable("modifier", m)
	return 0
}

// Bounds returns the inclusive range of totals a roll can produce.
func (m Modifier) Bounds(diceCount, sides int) (lo, hi int) {
	switch m {
	case ModifierNone:
		return diceCount, diceCount * sides
	case ModifierChooseHighest, ModifierChooseLowest:
		return 1, sides
	}
	fault.Unreachable("modifier", m)
	return 0, 0
}

// Label is the short tag shown next to a preset ("CH", "CL"); empty for none.
func (m Modifier) Label() string {
	switch m {
	case ModifierNone:
		return ""
	case ModifierChooseHighest:
		return "CH"
	case ModifierChooseLowest:
		return "CL"
	}
	fault.Unreachable("modifier", m)
	return ""
}
