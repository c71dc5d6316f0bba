package dice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want Count
	}{
		{"10", 10},
		{" 3 ", 3},
		{"0", 0},
		{"", Absent},
		{"abc", Absent},
		{"-2", Absent},
		{"2.5", Absent},
		{"4.0", 4},
		{"NaN", Absent},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCount(tt.in))
		})
	}
}

func TestCountJSON(t *testing.T) {
	var cfg Config
	err := json.Unmarshal([]byte(`{"modifier":"none","rollCount":"12","diceCount":null,"sidesPerDie":6}`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, Count(12), cfg.RollCount)
	assert.Equal(t, Absent, cfg.DiceCount)
	assert.Equal(t, Count(6), cfg.SidesPerDie)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"modifier":"none","rollCount":12,"diceCount":null,"sidesPerDie":6}`, string(out))
}

func TestConfigDomain(t *testing.T) {
	lo, hi, ok := Config{Modifier: ModifierNone, DiceCount: 2, SidesPerDie: 6}.Domain()
	require.True(t, ok)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 12, hi)

	_, _, ok = Config{Modifier: ModifierNone, DiceCount: Absent, SidesPerDie: 6}.Domain()
	assert.False(t, ok)
	_, _, ok = Config{Modifier: ModifierChooseHighest, DiceCount: 0, SidesPerDie: 6}.Domain()
	assert.False(t, ok)
}
