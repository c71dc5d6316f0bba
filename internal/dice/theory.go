package dice

import "math"

// Outcome is the exact probability of one total.
type Outcome struct {
	Value int     `json:"value"`
	P     float64 `json:"p"`
}

// Distribution is the theoretical distribution of one roll.
type Distribution struct {
	Outcomes []Outcome `json:"outcomes"`
	Mean     float64   `json:"mean"`
}

const (
	// exactBudget caps the work of the sum convolution (dice * dice * sides).
	exactBudget = 2_000_000
	// maxExactOutcomes caps the size of a returned distribution.
	maxExactOutcomes = 10_000
)

// Exact computes the probability of every total in cfg's domain.
// ok is false when cfg cannot be rolled, the sum is too large to convolve,
// or the domain holds more than maxExactOutcomes values.
func Exact(cfg Config) (Distribution, bool) {
	lo, hi, ok := cfg.Domain()
	if !ok {
		return Distribution{}, false
	}
	if hi-lo+1 > maxExactOutcomes {
		return Distribution{}, false
	}
	n, s := int(cfg.DiceCount), float64(cfg.SidesPerDie)
	if cfg.Modifier == ModifierNone && float64(n)*float64(n)*s > exactBudget {
		return Distribution{}, false
	}

	var probs []float64
	switch cfg.Modifier {
	case ModifierNone:
		probs = sumOfDice(n, int(cfg.SidesPerDie))[lo:]
	case ModifierChooseHighest:
		probs = make([]float64, hi-lo+1)
		for v := lo; v <= hi; v++ {
			probs[v-lo] = math.Pow(float64(v)/s, float64(n)) - math.Pow(float64(v-1)/s, float64(n))
		}
	case ModifierChooseLowest:
		probs = make([]float64, hi-lo+1)
		for v := lo; v <= hi; v++ {
			probs[v-lo] = math.Pow((s-float64(v)+1)/s, float64(n)) - math.Pow((s-float64(v))/s, float64(n))
		}
	}

	d := Distribution{Outcomes: make([]Outcome, len(probs))}
	for i, p := range probs {
		d.Outcomes[i] = Outcome{Value: lo + i, P: p}
		d.Mean += float64(lo+i) * p
	}
	return d, true
}

// sumOfDice returns P(total = t) for t in [0, n*sides], convolving one
// uniform die at a time with a sliding window sum.
func sumOfDice(n, sides int) []float64 {
	dist := []float64{1}
	inv := 1 / float64(sides)
	for d := 0; d < n; d++ {
		next := make([]float64, len(dist)+sides)
		window := 0.0
		for t := 1; t < len(next); t++ {
			if t-1 < len(dist) {
				window += dist[t-1]
			}
			if t-1-sides >= 0 && t-1-sides < len(dist) {
				window -= dist[t-1-sides]
			}
			next[t] = window * inv
		}
		dist = next
	}
	return dist
}
