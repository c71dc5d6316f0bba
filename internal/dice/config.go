package dice

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Count is a live-editable numeric field. Absent stands for a cleared or
// non-numeric input and makes every derived output empty.
type Count int

// Absent marks a Count with no usable value.
const Absent Count = -1

// Valid reports whether c holds a non-negative integer.
func (c Count) Valid() bool { return c >= 0 }

// ParseCount reads form input. Anything that is not a non-negative integer
// becomes Absent.
func ParseCount(s string) Count {
	s = strings.TrimSpace(s)
	if s == "" {
		return Absent
	}
	if n, err := strconv.Atoi(s); err == nil {
		return countOf(float64(n))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Absent
	}
	return countOf(f)
}

func countOf(f float64) Count {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return Absent
	}
	return Count(f)
}

// MarshalJSON encodes Absent as null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(c))), nil
}

// UnmarshalJSON accepts a number, a numeric string, or null.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Absent
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ParseCount(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*c = Absent
		return nil
	}
	*c = countOf(f)
	return nil
}

// Config holds the parameters of a simulation.
type Config struct {
	Modifier    Modifier `json:"modifier"`
	RollCount   Count    `json:"rollCount"`
	DiceCount   Count    `json:"diceCount"`
	SidesPerDie Count    `json:"sidesPerDie"`
}

// Rollable reports whether a roll can produce a value: at least one die with
// at least one face.
func (c Config) Rollable() bool {
	return c.DiceCount >= 1 && c.SidesPerDie >= 1
}

// Domain returns the inclusive range of totals for the config. ok is false
// when the config cannot be rolled.
func (c Config) Domain() (lo, hi int, ok bool) {
	if !c.Rollable() {
		return 0, 0, false
	}
	lo, hi = c.Modifier.Bounds(int(c.DiceCount), int(c.SidesPerDie))
	return lo, hi, true
}
