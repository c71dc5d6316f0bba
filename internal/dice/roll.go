package dice

// Roll folds diceCount faces through the modifier, starting from a total of 0.
func Roll(m Modifier, diceCount, sides int, rng RandomSource) int {
	total := 0
	for i := 0; i < diceCount; i++ {
		total = m.Fold(total, Face(rng, sides))
	}
	return total
}

// Simulate rolls cfg.RollCount times and returns the totals in roll order.
// Absent counts, or a config with no die to roll, yield an empty result.
func Simulate(cfg Config, rng RandomSource) []int {
	if !cfg.RollCount.Valid() || !cfg.DiceCount.Valid() || !cfg.Rollable() {
		return []int{}
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	rolls := make([]int, int(cfg.RollCount))
	for i := range rolls {
		rolls[i] = Roll(cfg.Modifier, int(cfg.DiceCount), int(cfg.SidesPerDie), rng)
	}
	return rolls
}
